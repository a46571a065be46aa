package article

import (
	"time"

	"go-gin-gorm-cms/internal/domain"
)

type AuthorSummary struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// ArticleResponse is both the HTTP payload and the cached representation.
type ArticleResponse struct {
	ID          uint64        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Content     *string       `json:"content"`
	IsPublished bool          `json:"isPublished"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	PublishedAt *time.Time    `json:"publishedAt,omitempty"`
	Author      AuthorSummary `json:"author"`
}

type ListResult struct {
	Articles []ArticleResponse `json:"articles"`
	Total    int64             `json:"total"`
}

// NewArticleResponse maps a stored article. A non-nil actor takes precedence
// over a.Author as the owner summary source.
func NewArticleResponse(a *domain.Article, actor *domain.User) *ArticleResponse {
	out := &ArticleResponse{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Content:     a.Content,
		IsPublished: a.IsPublished,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		PublishedAt: a.PublishedAt,
	}
	owner := actor
	if owner == nil {
		owner = a.Author
	}
	if owner != nil {
		out.Author = AuthorSummary{
			ID:        owner.ID,
			FirstName: owner.FirstName,
			LastName:  owner.LastName,
			Email:     owner.Email,
		}
	} else {
		out.Author.ID = a.AuthorID
	}
	return out
}

func newListResult(items []domain.Article, total int64) *ListResult {
	out := &ListResult{Articles: make([]ArticleResponse, 0, len(items)), Total: total}
	for i := range items {
		out.Articles = append(out.Articles, *NewArticleResponse(&items[i], nil))
	}
	return out
}

// CreateInput is the validated body of a create request.
type CreateInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Content     *string `json:"content"`
	IsPublished bool    `json:"isPublished"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Content     *string `json:"content"`
	IsPublished *bool   `json:"isPublished"`
}
