package article

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"go-gin-gorm-cms/internal/domain"
)

const (
	// KeyPrefix covers every article cache entry, single and list.
	KeyPrefix  = "article:"
	listPrefix = KeyPrefix + "list:"
)

func articleKey(id uint64) string { return KeyPrefix + strconv.FormatUint(id, 10) }

// listSignature 字段顺序即签名顺序，缺省字段不出现
type listSignature struct {
	Page        int     `json:"page"`
	Limit       int     `json:"limit"`
	Search      string  `json:"search,omitempty"`
	AuthorID    *uint64 `json:"authorId,omitempty"`
	IsPublished *bool   `json:"isPublished,omitempty"`
	StartDate   string  `json:"startDate,omitempty"`
	EndDate     string  `json:"endDate,omitempty"`
}

// listKey derives the deterministic cache key of a list query. Defaults only
// gives article:list:{"page":1,"limit":10}.
func listKey(q domain.ArticleQuery) string {
	sig := listSignature{
		Page:        q.Page,
		Limit:       q.Limit,
		Search:      strings.TrimSpace(q.Search),
		AuthorID:    q.AuthorID,
		IsPublished: q.IsPublished,
		StartDate:   canonicalTime(q.StartDate),
		EndDate:     canonicalTime(q.EndDate),
	}
	b, _ := json.Marshal(sig) // 仅含基础类型，不会失败
	return listPrefix + string(b)
}

func canonicalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
