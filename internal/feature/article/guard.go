package article

import (
	"context"
	"fmt"
	"time"

	"go-gin-gorm-cms/internal/domain"
)

// authorize loads the target and checks that actorID owns it.
// A missing article is reported before ownership is considered.
func (s *Service) authorize(ctx context.Context, id, actorID uint64) (*domain.Article, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load article %d: %w", id, err)
	}
	if existing == nil {
		return nil, fmt.Errorf("article %d: %w", id, domain.ErrNotFound)
	}
	if existing.AuthorID != actorID {
		return nil, fmt.Errorf("article %d is owned by another user: %w", id, domain.ErrForbidden)
	}
	return existing, nil
}

// planUpdate turns the input into the columns to write. Draft to published
// stamps publishedAt; unpublishing keeps the previous stamp.
func planUpdate(existing *domain.Article, in UpdateInput, now time.Time) domain.ArticlePatch {
	p := domain.ArticlePatch{
		Title:       in.Title,
		Description: in.Description,
		Content:     in.Content,
		IsPublished: in.IsPublished,
	}
	if in.IsPublished != nil && *in.IsPublished && !existing.IsPublished {
		p.PublishedAt = &now
	}
	return p
}

// newArticle builds the row for a create; only a published article gets a stamp.
func newArticle(in CreateInput, authorID uint64, now time.Time) *domain.Article {
	a := &domain.Article{
		Title:       in.Title,
		Description: in.Description,
		Content:     in.Content,
		IsPublished: in.IsPublished,
		AuthorID:    authorID,
	}
	if in.IsPublished {
		a.PublishedAt = &now
	}
	return a
}
