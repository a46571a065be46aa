package database

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-gin-gorm-cms/internal/domain"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	cases := []struct {
		name, in, user, pass, want string
	}{
		{"native dsn untouched", "u:p@tcp(db:3306)/cms?parseTime=true", "", "", "u:p@tcp(db:3306)/cms?parseTime=true"},
		{"url form", "mysql://u:p@db:3306/cms", "", "", "u:p@tcp(db:3306)/cms?charset=utf8mb4&parseTime=true"},
		{"jdbc with overrides", "jdbc:mysql://db:3306/cms?useSSL=false&characterEncoding=utf8", "root", "pw", "root:pw@tcp(db:3306)/cms?charset=utf8&parseTime=true&tls=false"},
		{"empty", "  ", "", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeMySQLDSN(tc.in, tc.user, tc.pass))
		})
	}
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "root:****@tcp(db:3306)/cms", maskDSN("root:secret@tcp(db:3306)/cms"))
	assert.Equal(t, "tcp(db:3306)/cms", maskDSN("tcp(db:3306)/cms"))
}

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify(nil))

	dup := Classify(&pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, dup, domain.ErrConflict)

	down := Classify(&pgconn.PgError{Code: "57P01"})
	assert.ErrorIs(t, down, domain.ErrUnavailable)

	other := &pgconn.PgError{Code: "42P01"}
	assert.Same(t, error(other), Classify(other))

	assert.ErrorIs(t, Classify(&mysql.MySQLError{Number: 1062}), domain.ErrConflict)
	assert.ErrorIs(t, Classify(fmt.Errorf("query: %w", driver.ErrBadConn)), domain.ErrUnavailable)

	plain := errors.New("boom")
	assert.Equal(t, plain, Classify(plain))

	already := fmt.Errorf("%w: x", domain.ErrUnavailable)
	assert.Equal(t, already, Classify(already))
}

func TestMigrateURL(t *testing.T) {
	u, err := migrateURL(Opts{Driver: "postgres", DSN: "postgres://u:p@db/cms?sslmode=disable"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db/cms?sslmode=disable", u)

	_, err = migrateURL(Opts{Driver: "postgres", DSN: "host=db user=u"})
	assert.Error(t, err)

	u, err = migrateURL(Opts{Driver: "mysql", DSN: "u:p@tcp(db:3306)/cms"})
	require.NoError(t, err)
	assert.Equal(t, "mysql://u:p@tcp(db:3306)/cms?multiStatements=true", u)

	_, err = migrateURL(Opts{Driver: "sqlite"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestEmbeddedMigrations(t *testing.T) {
	for _, drv := range []string{"postgres", "mysql"} {
		entries, err := migrationsFS.ReadDir("migrations/" + drv)
		require.NoError(t, err)
		assert.Len(t, entries, 4, drv)
	}
}
