package article

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"go-gin-gorm-cms/internal/core/cache"
	"go-gin-gorm-cms/internal/domain"
	"go-gin-gorm-cms/internal/mocks"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

type fixture struct {
	svc  *Service
	repo *mocks.MockArticleRepository
	mr   *miniredis.Miniredis
	logs *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	return newFixtureWithStore(t, cache.New(mr.Addr(), "", 0), mr)
}

func newFixtureWithStore(t *testing.T, store cache.Store, mr *miniredis.Miniredis) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	repo := mocks.NewMockArticleRepository(t)
	svc := NewService(repo, store, time.Hour, zap.New(core))
	svc.now = func() time.Time { return fixedNow }
	return &fixture{svc: svc, repo: repo, mr: mr, logs: logs}
}

func owner() *domain.User {
	return &domain.User{ID: 7, Email: "john@example.com", FirstName: "John", LastName: "Smith", PasswordHash: "hash"}
}

func storedArticle(id uint64, published bool) *domain.Article {
	created := fixedNow.Add(-24 * time.Hour)
	a := &domain.Article{
		ID:          id,
		Title:       "Title",
		Description: "Description",
		IsPublished: published,
		CreatedAt:   created,
		UpdatedAt:   created,
		AuthorID:    7,
		Author:      owner(),
	}
	if published {
		a.PublishedAt = &created
	}
	return a
}

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }

func TestFindOne_CacheAside(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.repo.EXPECT().FindByID(mock.Anything, uint64(1)).Return(storedArticle(1, false), nil).Once()

	first, err := f.svc.FindOne(ctx, 1)
	require.NoError(t, err)
	assert.True(t, f.mr.Exists("article:1"))
	assert.Equal(t, time.Hour, f.mr.TTL("article:1"))

	second, err := f.svc.FindOne(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "John", second.Author.FirstName)
}

func TestFindOne_CorruptEntryFallsThroughToStore(t *testing.T) {
	f := newFixture(t)
	f.mr.Set("article:1", "not json")
	f.repo.EXPECT().FindByID(mock.Anything, uint64(1)).Return(storedArticle(1, true), nil).Once()

	got, err := f.svc.FindOne(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.ID)

	raw, err := f.mr.Get("article:1")
	require.NoError(t, err)
	assert.Contains(t, raw, `"title":"Title"`)
}

func TestFindAll_CorruptEntryFallsThroughToStore(t *testing.T) {
	f := newFixture(t)
	key := `article:list:{"page":1,"limit":10}`
	f.mr.Set(key, "[[[")
	f.repo.EXPECT().FindWithPagination(mock.Anything, domain.ArticleQuery{Page: 1, Limit: 10}).
		Return([]domain.Article{}, int64(0), nil).Once()

	got, err := f.svc.FindAll(context.Background(), domain.ArticleQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, got.Articles)

	raw, err := f.mr.Get(key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"articles":[],"total":0}`, raw)
}

func TestFindOne_NotFound(t *testing.T) {
	f := newFixture(t)
	f.repo.EXPECT().FindByID(mock.Anything, uint64(404)).Return(nil, nil)

	_, err := f.svc.FindOne(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, f.mr.Exists("article:404"))
}

func TestFindOne_UnpublishedHasNoPublishedAt(t *testing.T) {
	f := newFixture(t)
	f.repo.EXPECT().FindByID(mock.Anything, uint64(2)).Return(storedArticle(2, false), nil).Once()

	got, err := f.svc.FindOne(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, got.PublishedAt)

	raw, err := f.mr.Get("article:2")
	require.NoError(t, err)
	assert.NotContains(t, raw, "publishedAt")
	assert.NotContains(t, raw, "hash")
}

func TestFindAll_EmptyResultIsCached(t *testing.T) {
	f := newFixture(t)
	q := domain.ArticleQuery{Page: 1, Limit: 10}
	f.repo.EXPECT().FindWithPagination(mock.Anything, q).Return([]domain.Article{}, int64(0), nil).Once()

	got, err := f.svc.FindAll(context.Background(), q)
	require.NoError(t, err)
	assert.NotNil(t, got.Articles)
	assert.Empty(t, got.Articles)
	assert.Zero(t, got.Total)

	raw, err := f.mr.Get(`article:list:{"page":1,"limit":10}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"articles":[],"total":0}`, raw)
}

func TestFindAll_SecondReadSkipsStore(t *testing.T) {
	f := newFixture(t)
	author := uint64(7)
	q := domain.ArticleQuery{Page: 2, Limit: 5, Search: "go", AuthorID: &author}
	f.repo.EXPECT().FindWithPagination(mock.Anything, q).
		Return([]domain.Article{*storedArticle(3, true)}, int64(6), nil).Once()

	first, err := f.svc.FindAll(context.Background(), q)
	require.NoError(t, err)
	second, err := f.svc.FindAll(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(6), second.Total)
	require.Len(t, second.Articles, 1)
	assert.Equal(t, uint64(3), second.Articles[0].ID)
}

func TestCreate_EvictsListsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mr.Set(`article:list:{"page":1,"limit":10}`, `{"articles":[],"total":0}`)
	f.mr.Set(`article:list:{"page":2,"limit":10}`, `{"articles":[],"total":0}`)
	f.mr.Set("article:9", `{}`)
	f.mr.Set("session:abc", "keep")

	f.repo.EXPECT().Create(mock.Anything, mock.AnythingOfType("*domain.Article")).
		Run(func(_ context.Context, a *domain.Article) {
			a.ID = 10
			a.CreatedAt, a.UpdatedAt = fixedNow, fixedNow
		}).
		Return(nil)

	got, err := f.svc.Create(ctx, CreateInput{Title: "New", Description: "D", Content: strp("C")}, owner())
	require.NoError(t, err)

	assert.Equal(t, uint64(10), got.ID)
	assert.Nil(t, got.PublishedAt)
	assert.Equal(t, AuthorSummary{ID: 7, FirstName: "John", LastName: "Smith", Email: "john@example.com"}, got.Author)

	assert.False(t, f.mr.Exists(`article:list:{"page":1,"limit":10}`))
	assert.False(t, f.mr.Exists(`article:list:{"page":2,"limit":10}`))
	assert.True(t, f.mr.Exists("article:9"))
	assert.True(t, f.mr.Exists("session:abc"))
}

func TestCreate_ListReadAfterCreateHitsStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := domain.ArticleQuery{Page: 1, Limit: 10}

	f.repo.EXPECT().FindWithPagination(mock.Anything, q).Return([]domain.Article{}, int64(0), nil).Once()
	_, err := f.svc.FindAll(ctx, q)
	require.NoError(t, err)

	f.repo.EXPECT().Create(mock.Anything, mock.Anything).Return(nil).Once()
	_, err = f.svc.Create(ctx, CreateInput{Title: "t", Description: "d", Content: strp("c")}, owner())
	require.NoError(t, err)

	f.repo.EXPECT().FindWithPagination(mock.Anything, q).
		Return([]domain.Article{*storedArticle(1, false)}, int64(1), nil).Once()
	got, err := f.svc.FindAll(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Total)
}

func TestCreate_PublishedStampsNow(t *testing.T) {
	f := newFixture(t)
	f.repo.EXPECT().Create(mock.Anything, mock.MatchedBy(func(a *domain.Article) bool {
		return a.IsPublished && a.PublishedAt != nil && a.PublishedAt.Equal(fixedNow) && a.AuthorID == 7
	})).Return(nil)

	got, err := f.svc.Create(context.Background(), CreateInput{Title: "t", Description: "d", Content: strp("c"), IsPublished: true}, owner())
	require.NoError(t, err)
	require.NotNil(t, got.PublishedAt)
	assert.Equal(t, fixedNow, *got.PublishedAt)
}

func TestUpdate_PublishTransitions(t *testing.T) {
	earlier := fixedNow.Add(-48 * time.Hour)

	cases := []struct {
		name      string
		existing  func() *domain.Article
		in        UpdateInput
		wantStamp bool
	}{
		{
			name:      "draft to published stamps",
			existing:  func() *domain.Article { return storedArticle(1, false) },
			in:        UpdateInput{IsPublished: boolp(true)},
			wantStamp: true,
		},
		{
			name: "republish stamps again",
			existing: func() *domain.Article {
				a := storedArticle(1, false)
				a.PublishedAt = &earlier
				return a
			},
			in:        UpdateInput{IsPublished: boolp(true)},
			wantStamp: true,
		},
		{
			name:     "published stays published",
			existing: func() *domain.Article { return storedArticle(1, true) },
			in:       UpdateInput{IsPublished: boolp(true), Title: strp("x")},
		},
		{
			name:     "other fields on published",
			existing: func() *domain.Article { return storedArticle(1, true) },
			in:       UpdateInput{Description: strp("new")},
		},
		{
			name:     "unpublish keeps stamp",
			existing: func() *domain.Article { return storedArticle(1, true) },
			in:       UpdateInput{IsPublished: boolp(false)},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			existing := tc.existing()
			f.repo.EXPECT().FindByID(mock.Anything, uint64(1)).Return(existing, nil)
			f.repo.EXPECT().Update(mock.Anything, uint64(1), mock.MatchedBy(func(p domain.ArticlePatch) bool {
				if tc.wantStamp {
					return p.PublishedAt != nil && p.PublishedAt.Equal(fixedNow)
				}
				return p.PublishedAt == nil
			})).Return(existing, nil)

			_, err := f.svc.Update(context.Background(), 1, tc.in, 7)
			require.NoError(t, err)
		})
	}
}

func TestUpdate_ReadAfterWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before := storedArticle(1, false)
	f.repo.EXPECT().FindByID(mock.Anything, uint64(1)).Return(before, nil).Once()
	_, err := f.svc.FindOne(ctx, 1)
	require.NoError(t, err)
	f.mr.Set(`article:list:{"page":1,"limit":10}`, `{"articles":[],"total":0}`)
	f.mr.Set("user:7", "keep")

	after := storedArticle(1, false)
	after.Title = "Renamed"
	f.repo.EXPECT().FindByID(mock.Anything, uint64(1)).Return(before, nil).Once()
	f.repo.EXPECT().Update(mock.Anything, uint64(1), domain.ArticlePatch{Title: strp("Renamed")}).Return(after, nil)

	got, err := f.svc.Update(ctx, 1, UpdateInput{Title: strp("Renamed")}, 7)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.False(t, f.mr.Exists("article:1"))
	assert.False(t, f.mr.Exists(`article:list:{"page":1,"limit":10}`))
	assert.True(t, f.mr.Exists("user:7"))

	f.repo.EXPECT().FindByID(mock.Anything, uint64(1)).Return(after, nil).Once()
	reread, err := f.svc.FindOne(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", reread.Title)
}

func TestUpdate_Authorization(t *testing.T) {
	t.Run("non-owner is forbidden", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().FindByID(mock.Anything, uint64(1)).Return(storedArticle(1, false), nil)

		_, err := f.svc.Update(context.Background(), 1, UpdateInput{Title: strp("x")}, 99)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing is not found for any caller", func(t *testing.T) {
		for _, caller := range []uint64{7, 99} {
			f := newFixture(t)
			f.repo.EXPECT().FindByID(mock.Anything, uint64(5)).Return(nil, nil)

			_, err := f.svc.Update(context.Background(), 5, UpdateInput{Title: strp("x")}, caller)
			assert.ErrorIs(t, err, domain.ErrNotFound)
			assert.NotErrorIs(t, err, domain.ErrForbidden)
		}
	})

	t.Run("vanished between check and write", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().FindByID(mock.Anything, uint64(1)).Return(storedArticle(1, false), nil)
		f.repo.EXPECT().Update(mock.Anything, uint64(1), mock.Anything).Return(nil, nil)

		_, err := f.svc.Update(context.Background(), 1, UpdateInput{Title: strp("x")}, 7)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRemove(t *testing.T) {
	t.Run("owner deletes and evicts", func(t *testing.T) {
		f := newFixture(t)
		f.mr.Set("article:1", "{}")
		f.mr.Set(`article:list:{"page":1,"limit":10}`, "{}")
		f.mr.Set("other", "keep")
		f.repo.EXPECT().FindByID(mock.Anything, uint64(1)).Return(storedArticle(1, true), nil)
		f.repo.EXPECT().Delete(mock.Anything, uint64(1)).Return(nil)

		require.NoError(t, f.svc.Remove(context.Background(), 1, 7))
		assert.False(t, f.mr.Exists("article:1"))
		assert.False(t, f.mr.Exists(`article:list:{"page":1,"limit":10}`))
		assert.True(t, f.mr.Exists("other"))
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		f := newFixture(t)
		f.mr.Set("article:1", "{}")
		f.repo.EXPECT().FindByID(mock.Anything, uint64(1)).Return(storedArticle(1, true), nil)

		err := f.svc.Remove(context.Background(), 1, 8)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.True(t, f.mr.Exists("article:1"))
		f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("missing is not found", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().FindByID(mock.Anything, uint64(3)).Return(nil, nil)
		assert.ErrorIs(t, f.svc.Remove(context.Background(), 3, 8), domain.ErrNotFound)
	})
}

func TestFailuresPropagate(t *testing.T) {
	t.Run("store unavailable", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().FindByID(mock.Anything, uint64(1)).Return(nil, domain.ErrUnavailable)

		_, err := f.svc.FindOne(context.Background(), 1)
		assert.ErrorIs(t, err, domain.ErrUnavailable)
	})

	t.Run("cache read unavailable", func(t *testing.T) {
		f := newFixtureWithStore(t, &brokenStore{getErr: domain.ErrUnavailable}, nil)

		_, err := f.svc.FindAll(context.Background(), domain.ArticleQuery{Page: 1, Limit: 10})
		assert.ErrorIs(t, err, domain.ErrUnavailable)
		f.repo.AssertNotCalled(t, "FindWithPagination", mock.Anything, mock.Anything)
	})
}

func TestInvalidationFailureDoesNotFailMutation(t *testing.T) {
	store := &brokenStore{deleteErr: errors.New("cache down"), scanErr: errors.New("cache down")}
	f := newFixtureWithStore(t, store, nil)

	f.repo.EXPECT().FindByID(mock.Anything, uint64(1)).Return(storedArticle(1, false), nil)
	f.repo.EXPECT().Update(mock.Anything, uint64(1), mock.Anything).Return(storedArticle(1, false), nil)

	got, err := f.svc.Update(context.Background(), 1, UpdateInput{Title: strp("x")}, 7)
	require.NoError(t, err)
	assert.NotNil(t, got)

	warns := f.logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warns, 2)
	assert.Equal(t, "article cache invalidation failed", warns[0].Message)
	assert.Equal(t, "list cache invalidation failed", warns[1].Message)
}

func TestInvalidateAll(t *testing.T) {
	f := newFixture(t)
	f.mr.Set("article:1", "{}")
	f.mr.Set(`article:list:{"page":1,"limit":10}`, "{}")
	f.mr.Set("articles-legacy", "keep")
	f.mr.Set("session:1", "keep")

	n, err := f.svc.InvalidateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []string{"articles-legacy", "session:1"}, f.mr.Keys())
}

// brokenStore fails the configured operations and reports misses otherwise.
type brokenStore struct {
	getErr, deleteErr, scanErr error
}

func (b *brokenStore) Get(context.Context, string) (string, bool, error) { return "", false, b.getErr }
func (b *brokenStore) Set(context.Context, string, string, time.Duration) error {
	return nil
}
func (b *brokenStore) Delete(context.Context, ...string) error { return b.deleteErr }
func (b *brokenStore) Scan(context.Context, func(string) error) error {
	return b.scanErr
}

func TestWrites_RejectInvalidInputBeforeStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInput{Title: " ", Description: "d", Content: strp("c")}, owner())
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Create(ctx, CreateInput{Title: "t", Description: "d"}, owner())
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Update(ctx, 1, UpdateInput{Description: strp("")}, 7)
	assert.ErrorIs(t, err, domain.ErrValidation)

	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}
