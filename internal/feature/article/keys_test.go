package article

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-gin-gorm-cms/internal/domain"
)

func TestArticleKey(t *testing.T) {
	assert.Equal(t, "article:42", articleKey(42))
}

func TestListKey(t *testing.T) {
	author := uint64(3)
	pub := false
	cet := time.FixedZone("CET", 3600)
	start := time.Date(2026, 1, 1, 1, 0, 0, 0, cet)

	cases := []struct {
		name string
		q    domain.ArticleQuery
		want string
	}{
		{"defaults", domain.ArticleQuery{Page: 1, Limit: 10}, `article:list:{"page":1,"limit":10}`},
		{"blank search is absent", domain.ArticleQuery{Page: 1, Limit: 10, Search: "   "}, `article:list:{"page":1,"limit":10}`},
		{
			"all fields in fixed order",
			domain.ArticleQuery{Page: 2, Limit: 5, Search: " go ", AuthorID: &author, IsPublished: &pub, StartDate: &start, EndDate: &start},
			`article:list:{"page":2,"limit":5,"search":"go","authorId":3,"isPublished":false,"startDate":"2026-01-01T00:00:00Z","endDate":"2026-01-01T00:00:00Z"}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, listKey(tc.q))
		})
	}
}

func TestListKey_SameInstantSameKey(t *testing.T) {
	a := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	b := a.In(time.FixedZone("PST", -8*3600))
	assert.Equal(t,
		listKey(domain.ArticleQuery{Page: 1, Limit: 10, EndDate: &a}),
		listKey(domain.ArticleQuery{Page: 1, Limit: 10, EndDate: &b}),
	)
}

func TestNewArticleResponse(t *testing.T) {
	stored := &domain.Article{ID: 1, Title: "t", AuthorID: 7, Author: &domain.User{ID: 7, FirstName: "Old", PasswordHash: "secret"}}

	t.Run("loaded author", func(t *testing.T) {
		r := NewArticleResponse(stored, nil)
		assert.Equal(t, "Old", r.Author.FirstName)
	})

	t.Run("actor wins over relation", func(t *testing.T) {
		r := NewArticleResponse(stored, &domain.User{ID: 7, FirstName: "Fresh", Email: "f@example.com"})
		assert.Equal(t, "Fresh", r.Author.FirstName)
		assert.Equal(t, "f@example.com", r.Author.Email)
	})

	t.Run("no relation keeps owner id", func(t *testing.T) {
		r := NewArticleResponse(&domain.Article{ID: 2, AuthorID: 9}, nil)
		assert.Equal(t, uint64(9), r.Author.ID)
	})

	t.Run("payload shape", func(t *testing.T) {
		b, err := json.Marshal(NewArticleResponse(stored, nil))
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(b, &m))

		assert.NotContains(t, m, "publishedAt")
		assert.Contains(t, m, "content")
		assert.Nil(t, m["content"])
		assert.NotContains(t, string(b), "secret")
		assert.ElementsMatch(t, []string{"id", "firstName", "lastName", "email"}, keys(m["author"].(map[string]any)))
	})
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
