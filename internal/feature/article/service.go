package article

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-gin-gorm-cms/internal/core/cache"
	"go-gin-gorm-cms/internal/domain"
)

// Service is the cache-aside engine in front of the article store.
// Reads populate the cache on miss; writes invalidate after the store write.
type Service struct {
	repo  domain.ArticleRepository
	cache cache.Store
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time
}

func NewService(repo domain.ArticleRepository, store cache.Store, ttl time.Duration, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:  repo,
		cache: store,
		ttl:   ttl,
		log:   log.Named("article"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) FindOne(ctx context.Context, id uint64) (*ArticleResponse, error) {
	key := articleKey(id)
	cached, err := cache.GetJSON[ArticleResponse](ctx, s.cache, key)
	if err != nil {
		return nil, fmt.Errorf("read article cache: %w", err)
	}
	if cached != nil {
		return cached, nil
	}

	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find article %d: %w", id, err)
	}
	if a == nil {
		return nil, fmt.Errorf("article %d: %w", id, domain.ErrNotFound)
	}
	out := NewArticleResponse(a, nil)
	if err := cache.SetJSON(ctx, s.cache, key, out, s.ttl); err != nil {
		return nil, fmt.Errorf("write article cache: %w", err)
	}
	return out, nil
}

func (s *Service) FindAll(ctx context.Context, q domain.ArticleQuery) (*ListResult, error) {
	key := listKey(q)
	cached, err := cache.GetJSON[ListResult](ctx, s.cache, key)
	if err != nil {
		return nil, fmt.Errorf("read list cache: %w", err)
	}
	if cached != nil {
		if cached.Articles == nil {
			cached.Articles = []ArticleResponse{}
		}
		return cached, nil
	}

	items, total, err := s.repo.FindWithPagination(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	out := newListResult(items, total)
	if err := cache.SetJSON(ctx, s.cache, key, out, s.ttl); err != nil {
		return nil, fmt.Errorf("write list cache: %w", err)
	}
	return out, nil
}

// Create stores a new article owned by actor and evicts every cached list.
func (s *Service) Create(ctx context.Context, in CreateInput, actor *domain.User) (*ArticleResponse, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	a := newArticle(in, actor.ID, s.now())
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}
	s.invalidateLists(ctx)
	return NewArticleResponse(a, actor), nil
}

func (s *Service) Update(ctx context.Context, id uint64, in UpdateInput, actorID uint64) (*ArticleResponse, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	existing, err := s.authorize(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, id, planUpdate(existing, in, s.now()))
	if err != nil {
		return nil, fmt.Errorf("update article %d: %w", id, err)
	}
	if updated == nil {
		// 校验之后被并发删除
		return nil, fmt.Errorf("article %d: %w", id, domain.ErrNotFound)
	}
	s.invalidateArticle(ctx, id)
	return NewArticleResponse(updated, nil), nil
}

func (s *Service) Remove(ctx context.Context, id, actorID uint64) error {
	if _, err := s.authorize(ctx, id, actorID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete article %d: %w", id, err)
	}
	s.invalidateArticle(ctx, id)
	return nil
}

// InvalidateAll drops every article entry, single and list. Used by the admin flush.
func (s *Service) InvalidateAll(ctx context.Context) (int, error) {
	n, err := cache.DeletePrefix(ctx, s.cache, KeyPrefix)
	if err != nil {
		return n, fmt.Errorf("flush article cache: %w", err)
	}
	s.log.Info("article cache flushed", zap.Int("keys", n))
	return n, nil
}

// invalidateArticle evicts the single entry of id and then every list entry.
// Failures are logged; the store write already succeeded.
func (s *Service) invalidateArticle(ctx context.Context, id uint64) {
	if err := s.cache.Delete(ctx, articleKey(id)); err != nil {
		s.log.Warn("article cache invalidation failed", zap.Uint64("id", id), zap.Error(err))
	}
	s.invalidateLists(ctx)
}

func (s *Service) invalidateLists(ctx context.Context) {
	n, err := cache.DeletePrefix(ctx, s.cache, listPrefix)
	if err != nil {
		s.log.Warn("list cache invalidation failed", zap.Int("deleted", n), zap.Error(err))
		return
	}
	s.log.Debug("list cache invalidated", zap.Int("keys", n))
}
