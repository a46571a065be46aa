package repo_test

import (
	"context"
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"go-gin-gorm-cms/internal/core/database"
)

// TestDB 一个带迁移的临时 postgres 容器
type TestDB struct {
	DB        *gorm.DB
	Pool      *pgxpool.Pool
	Container testcontainers.Container
}

func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("cms"),
		postgres.WithUsername("cms"),
		postgres.WithPassword("cms"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	tdb := &TestDB{Container: ctr}
	t.Cleanup(func() { tdb.cleanup(t) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	opts := database.Opts{
		Driver:       "postgres",
		DSN:          dsn,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
		LogLevel:     "silent",
		Writer:       log.New(testWriter{t}, "", 0),
	}

	mg, err := database.NewMigrator(opts)
	if err != nil {
		t.Fatalf("migrator: %v", err)
	}
	if err := mg.Up(); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	_ = mg.Close()

	if tdb.DB, err = database.NewGorm(opts); err != nil {
		t.Fatalf("open gorm: %v", err)
	}
	if tdb.Pool, err = pgxpool.New(ctx, dsn); err != nil {
		t.Fatalf("pgx pool: %v", err)
	}
	return tdb
}

func (tdb *TestDB) cleanup(t *testing.T) {
	if tdb.Pool != nil {
		tdb.Pool.Close()
	}
	if tdb.DB != nil {
		if sqlDB, err := tdb.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if err := tdb.Container.Terminate(context.Background()); err != nil {
		t.Logf("terminate container: %v", err)
	}
}

// TruncateTables 清空数据并重置自增
func (tdb *TestDB) TruncateTables(t *testing.T, tables ...string) {
	t.Helper()
	for _, table := range tables {
		if _, err := tdb.Pool.Exec(context.Background(), fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
