package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newJWTer() *JWTer {
	return &JWTer{Secret: []byte("test-secret"), Issuer: "cms-test", TTL: time.Hour}
}

func TestIssueAndParse(t *testing.T) {
	j := newJWTer()
	tok, err := j.Issue(42, "john@example.com", "admin")
	require.NoError(t, err)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	id, err := c.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, "john@example.com", c.Email)
	assert.Equal(t, "admin", c.Role)
	assert.Equal(t, "cms-test", c.Issuer)
}

func TestParse_Rejects(t *testing.T) {
	j := newJWTer()

	t.Run("wrong secret", func(t *testing.T) {
		other := &JWTer{Secret: []byte("other"), Issuer: j.Issuer, TTL: time.Hour}
		tok, err := other.Issue(1, "a@b.c", "user")
		require.NoError(t, err)
		_, err = j.Parse(tok)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := &JWTer{Secret: j.Secret, Issuer: "someone-else", TTL: time.Hour}
		tok, err := other.Issue(1, "a@b.c", "user")
		require.NoError(t, err)
		_, err = j.Parse(tok)
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
	})

	t.Run("expired beyond leeway", func(t *testing.T) {
		old := &JWTer{Secret: j.Secret, Issuer: j.Issuer, TTL: -2 * time.Minute}
		tok, err := old.Issue(1, "a@b.c", "user")
		require.NoError(t, err)
		_, err = j.Parse(tok)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("other algorithm", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "1", Issuer: j.Issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		}).SignedString(j.Secret)
		require.NoError(t, err)
		_, err = j.Parse(tok)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := j.Parse("not-a-token")
		assert.Error(t, err)
	})
}

func TestClaims_UserID(t *testing.T) {
	for _, sub := range []string{"", "0", "abc", "-1"} {
		c := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: sub}}
		_, err := c.UserID()
		assert.Error(t, err, sub)
	}
}
