// Package app 组装各进程共享的依赖：DB、Redis、JWT 与业务服务
package app

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"go-gin-gorm-cms/internal/core/auth"
	"go-gin-gorm-cms/internal/core/cache"
	"go-gin-gorm-cms/internal/core/config"
	"go-gin-gorm-cms/internal/core/database"
	"go-gin-gorm-cms/internal/core/logger"
	"go-gin-gorm-cms/internal/feature/article"
	"go-gin-gorm-cms/internal/feature/user"
	"go-gin-gorm-cms/internal/repo"
	"go-gin-gorm-cms/internal/transport/http/router"
)

type App struct {
	Cfg      *config.Config
	Log      *zap.Logger
	DB       *gorm.DB
	Cache    *cache.Cache
	JWT      *auth.JWTer
	Users    *user.Service
	Articles *article.Service
}

func DBOpts(cfg *config.Config, l *zap.Logger) database.Opts {
	o := database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	}
	// gorm 日志转到 zap
	if w, err := logger.ToStdLogger(l, zapcore.WarnLevel); err == nil {
		o.Writer = w
	}
	return o
}

func NewCache(c config.Redis, scanCount int64) (*cache.Cache, error) {
	var (
		rc  *cache.Cache
		err error
	)
	if c.URL != "" {
		rc, err = cache.NewFromURL(c.URL)
		if err != nil {
			return nil, err
		}
	} else {
		rc = cache.New(c.Addr, c.Password, c.DB)
	}
	if scanCount > 0 {
		rc.ScanCount = scanCount
	}
	return rc, nil
}

// Open 打开 DB / Redis 并组装服务；cfg.DB.AutoMigrate 时先执行迁移
func Open(cfg *config.Config, l *zap.Logger) (*App, error) {
	opts := DBOpts(cfg, l)
	if cfg.DB.AutoMigrate {
		if err := MigrateUp(opts); err != nil {
			return nil, err
		}
		l.Info("migrations applied")
	}
	db, err := database.NewGorm(opts)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	rc, err := NewCache(cfg.Redis, cfg.Cache.ScanCount)
	if err != nil {
		return nil, err
	}
	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}
	return &App{
		Cfg:      cfg,
		Log:      l,
		DB:       db,
		Cache:    rc,
		JWT:      jwter,
		Users:    user.NewService(repo.NewUserRepo(db), jwter, l),
		Articles: article.NewService(repo.NewArticleRepo(db), rc, cfg.Cache.ArticleTTL(), l),
	}, nil
}

func MigrateUp(o database.Opts) error {
	mg, err := database.NewMigrator(o)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	return errors.Join(mg.Up(), mg.Close())
}

// RouterDeps 两个 HTTP 进程共用的路由依赖
func (a *App) RouterDeps() router.Deps {
	return router.Deps{
		Log:    a.Log,
		JWT:    a.JWT,
		Users:  a.Users.Profile,
		Limits: a.Cfg.Limits,
		Checks: map[string]router.Check{
			"db":    database.Ping(a.DB),
			"redis": a.Cache.Ping,
		},
	}
}

func (a *App) Close() error {
	var errs []error
	if sqlDB, err := a.DB.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	errs = append(errs, a.Cache.Close())
	return errors.Join(errs...)
}
