package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier(t *testing.T) {
	ctx := context.Background()
	v := NewJWTVerifier("secret", "rentbook")

	token, err := IssueToken("secret", "rentbook", "user-1", time.Hour)
	require.NoError(t, err)

	uid, err := v.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)

	t.Run("WrongSecret", func(t *testing.T) {
		bad, err := IssueToken("other", "rentbook", "user-1", time.Hour)
		require.NoError(t, err)
		_, err = v.Verify(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		bad, err := IssueToken("secret", "someone-else", "user-1", time.Hour)
		require.NoError(t, err)
		_, err = v.Verify(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		bad, err := IssueToken("secret", "rentbook", "user-1", -time.Minute)
		require.NoError(t, err)
		_, err = v.Verify(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("NoExpiry", func(t *testing.T) {
		bad, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1", Issuer: "rentbook"}).
			SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = v.Verify(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("NoSubject", func(t *testing.T) {
		bad, err := IssueToken("secret", "rentbook", "", time.Hour)
		require.NoError(t, err)
		_, err = v.Verify(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := v.Verify(ctx, "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
		_, err = v.Verify(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("IssuerOptional", func(t *testing.T) {
		open := NewJWTVerifier("secret", "")
		tok, err := IssueToken("secret", "", "user-2", time.Hour)
		require.NoError(t, err)
		uid, err := open.Verify(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, "user-2", uid)
	})
}
