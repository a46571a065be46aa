package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"go-gin-gorm-cms/internal/core/database"
	"go-gin-gorm-cms/internal/domain"
)

type ArticleRepo struct{ db *gorm.DB }

func NewArticleRepo(db *gorm.DB) *ArticleRepo { return &ArticleRepo{db: db} }

var _ domain.ArticleRepository = (*ArticleRepo)(nil)

// 只取作者摘要需要的列，避免把密码哈希读出来
func authorColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "email", "first_name", "last_name", "role", "created_at", "updated_at")
}

func (r *ArticleRepo) FindWithPagination(ctx context.Context, q domain.ArticleQuery) ([]domain.Article, int64, error) {
	tx := r.filtered(r.db.WithContext(ctx).Model(&domain.Article{}), q)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, database.Classify(err)
	}

	if total == 0 {
		return []domain.Article{}, 0, nil
	}
	// 容量按实际行数，limit 来自客户端且没有上限
	items := make([]domain.Article, 0, pageCap(q, total))
	err := tx.Preload("Author", authorColumns).
		Order("articles.created_at DESC").
		Limit(q.Limit).Offset(q.Offset()).
		Find(&items).Error
	if err != nil {
		return nil, 0, database.Classify(err)
	}
	return items, total, nil
}

// pageCap 当前页最多能返回的行数
func pageCap(q domain.ArticleQuery, total int64) int {
	left := total - int64(q.Offset())
	if left <= 0 {
		return 0
	}
	return int(min(left, int64(q.Limit)))
}

func (r *ArticleRepo) filtered(tx *gorm.DB, q domain.ArticleQuery) *gorm.DB {
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + s + "%"
		// postgres 的 LIKE 区分大小写，mysql 默认排序规则不区分
		op := "LIKE"
		if r.db.Dialector.Name() == "postgres" {
			op = "ILIKE"
		}
		tx = tx.Where("(articles.title "+op+" ? OR articles.description "+op+" ?)", like, like)
	}
	if q.AuthorID != nil {
		tx = tx.Where("articles.author_id = ?", *q.AuthorID)
	}
	if q.IsPublished != nil {
		tx = tx.Where("articles.is_published = ?", *q.IsPublished)
	}
	if q.StartDate != nil {
		tx = tx.Where("articles.created_at >= ?", *q.StartDate)
	}
	if q.EndDate != nil {
		tx = tx.Where("articles.created_at <= ?", *q.EndDate)
	}
	return tx
}

func (r *ArticleRepo) FindByID(ctx context.Context, id uint64) (*domain.Article, error) {
	var a domain.Article
	err := r.db.WithContext(ctx).Preload("Author", authorColumns).First(&a, "articles.id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return &a, nil
}

func (r *ArticleRepo) Create(ctx context.Context, a *domain.Article) error {
	// Author 由调用方按需填充，不参与写入
	return database.Classify(r.db.WithContext(ctx).Omit("Author").Create(a).Error)
}

func (r *ArticleRepo) Update(ctx context.Context, id uint64, p domain.ArticlePatch) (*domain.Article, error) {
	if !p.Empty() {
		err := r.db.WithContext(ctx).Model(&domain.Article{}).
			Where("id = ?", id).
			Updates(patchColumns(p)).Error
		if err != nil {
			return nil, database.Classify(err)
		}
	}
	// 受影响行数在 mysql 下对未变化的值为 0，按重新读取判断是否仍存在
	return r.FindByID(ctx, id)
}

func patchColumns(p domain.ArticlePatch) map[string]any {
	cols := map[string]any{}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Content != nil {
		cols["content"] = *p.Content
	}
	if p.IsPublished != nil {
		cols["is_published"] = *p.IsPublished
	}
	if p.PublishedAt != nil {
		cols["published_at"] = *p.PublishedAt
	}
	return cols
}

func (r *ArticleRepo) Delete(ctx context.Context, id uint64) error {
	return database.Classify(r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Article{}).Error)
}

func (r *ArticleRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Article{}).Where("id = ?", id).Limit(1).Count(&n).Error
	if err != nil {
		return false, database.Classify(err)
	}
	return n > 0, nil
}
