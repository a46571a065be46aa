package database

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrator wraps golang-migrate with the embedded schema of the chosen driver.
type Migrator struct {
	m *migrate.Migrate
}

func NewMigrator(o Opts) (*Migrator, error) {
	sub, err := fs.Sub(migrationsFS, "migrations/"+o.Driver)
	if err != nil {
		return nil, fmt.Errorf("migrations for %s: %w", o.Driver, err)
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	url, err := migrateURL(o)
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return nil, Classify(err)
	}
	return &Migrator{m: m}, nil
}

// Up applies pending migrations; an up-to-date schema is not an error.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Down rolls back n steps (n <= 0 rolls back everything).
func (mg *Migrator) Down(n int) error {
	var err error
	if n <= 0 {
		err = mg.m.Down()
	} else {
		err = mg.m.Steps(-n)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (mg *Migrator) Version() (uint, bool, error) {
	v, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

func migrateURL(o Opts) (string, error) {
	switch o.Driver {
	case "postgres":
		if !strings.HasPrefix(o.DSN, "postgres://") && !strings.HasPrefix(o.DSN, "postgresql://") {
			return "", errors.New("migrations need a postgres:// url dsn")
		}
		return o.DSN, nil
	case "mysql":
		dsn := normalizeMySQLDSN(o.DSN, o.Username, o.Password)
		// 多语句迁移文件需要 multiStatements
		if !strings.Contains(dsn, "multiStatements=") {
			if strings.Contains(dsn, "?") {
				dsn += "&multiStatements=true"
			} else {
				dsn += "?multiStatements=true"
			}
		}
		return "mysql://" + dsn, nil
	}
	return "", ErrUnsupportedDriver
}
