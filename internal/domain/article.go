package domain

import (
	"context"
	"time"
)

// Article is owned by the user referenced through AuthorID; AuthorID never changes after creation.
type Article struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement"`
	Title       string     `gorm:"size:255;not null"`
	Description string     `gorm:"type:text;not null"`
	Content     *string    `gorm:"type:text"`
	IsPublished bool       `gorm:"not null;default:false"`
	CreatedAt   time.Time  `gorm:"index"`
	UpdatedAt   time.Time
	PublishedAt *time.Time
	AuthorID    uint64 `gorm:"not null;index"`
	Author      *User  `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

func (Article) TableName() string { return "articles" }

// ArticlePatch carries the columns an update writes; nil fields are left untouched.
type ArticlePatch struct {
	Title       *string
	Description *string
	Content     *string
	IsPublished *bool
	PublishedAt *time.Time
}

// Empty reports whether the patch would not write any column.
func (p ArticlePatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Content == nil &&
		p.IsPublished == nil && p.PublishedAt == nil
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// ArticleQuery is the filter/pagination descriptor of a list read.
// Page and Limit are always set (>=1); the rest are optional.
type ArticleQuery struct {
	Page        int
	Limit       int
	Search      string
	AuthorID    *uint64
	IsPublished *bool
	StartDate   *time.Time
	EndDate     *time.Time
}

// Offset is the number of rows skipped for the current page.
func (q ArticleQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

type ArticleRepository interface {
	// FindWithPagination returns one page ordered by creation time (newest first)
	// and the number of rows matching the filters regardless of paging.
	FindWithPagination(ctx context.Context, q ArticleQuery) ([]Article, int64, error)
	// FindByID returns nil, nil when no row exists. Author is loaded.
	FindByID(ctx context.Context, id uint64) (*Article, error)
	Create(ctx context.Context, a *Article) error
	// Update returns nil, nil when the row disappeared before the write.
	Update(ctx context.Context, id uint64, p ArticlePatch) (*Article, error)
	Delete(ctx context.Context, id uint64) error
	Exists(ctx context.Context, id uint64) (bool, error)
}
