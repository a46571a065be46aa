package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"go-gin-gorm-cms/internal/core/database"
	"go-gin-gorm-cms/internal/domain"
	"go-gin-gorm-cms/pkg/utils"
)

const (
	SeedEmail    = "user@example.com"
	SeedPassword = "password"
)

// ErrAlreadySeeded 演示用户已存在
var ErrAlreadySeeded = errors.New("seed user already exists")

// Seed 在一个事务里写入演示用户与三篇文章（未发布）
func Seed(ctx context.Context, db *gorm.DB) error {
	hash, err := utils.HashPassword(SeedPassword)
	if err != nil {
		return err
	}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.User{}).Where("email = ?", SeedEmail).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadySeeded
		}
		u := domain.User{
			Email:        SeedEmail,
			PasswordHash: hash,
			FirstName:    "John",
			LastName:     "Smith",
			Role:         domain.RoleUser,
		}
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		content := "Some content for the article"
		for i := 1; i <= 3; i++ {
			a := domain.Article{
				Title:       fmt.Sprintf("Hello%d", i),
				Description: "This is description",
				Content:     &content,
				AuthorID:    u.ID,
			}
			if err := tx.Omit("Author").Create(&a).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, ErrAlreadySeeded) {
		return err
	}
	return database.Classify(err)
}

// SetRole 修改用户角色，用于开通管理员
func SetRole(ctx context.Context, db *gorm.DB, email, role string) error {
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}
	res := db.WithContext(ctx).Model(&domain.User{}).
		Where("email = ?", email).
		Updates(map[string]any{"role": role, "updated_at": time.Now()})
	if res.Error != nil {
		return database.Classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
	}
	return nil
}
