package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/base-collective/base-events/internal/model"
)

func newTestCodec(t *testing.T) *TokenCodec {
	t.Helper()
	c, err := NewTokenCodec("test-secret", "base-events", "base-events-users", time.Hour)
	require.NoError(t, err)
	return c
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	c := newTestCodec(t)

	token, err := c.Issue("acct-123", model.RoleOrganizer)
	require.NoError(t, err)

	claims, err := c.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "acct-123", claims.Subject)
	assert.Equal(t, model.RoleOrganizer, claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestTokenCodec_Expired(t *testing.T) {
	c := newTestCodec(t)
	token, err := c.Issue("acct-123", model.RoleUser)
	require.NoError(t, err)

	c.nowFn = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = c.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_TamperedSignature(t *testing.T) {
	c := newTestCodec(t)
	token, err := c.Issue("acct-123", model.RoleUser)
	require.NoError(t, err)

	// Flip one byte of the signature segment.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = c.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	c := newTestCodec(t)
	other, err := NewTokenCodec("other-secret", "base-events", "base-events-users", time.Hour)
	require.NoError(t, err)

	token, err := other.Issue("acct-123", model.RoleUser)
	require.NoError(t, err)

	_, err = c.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_IssuerAndAudience(t *testing.T) {
	c := newTestCodec(t)

	cases := []struct {
		name     string
		issuer   string
		audience string
	}{
		{name: "wrong issuer", issuer: "someone-else", audience: "base-events-users"},
		{name: "wrong audience", issuer: "base-events", audience: "other-audience"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			other, err := NewTokenCodec("test-secret", tc.issuer, tc.audience, time.Hour)
			require.NoError(t, err)

			token, err := other.Issue("acct-123", model.RoleUser)
			require.NoError(t, err)

			_, err = c.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenCodec_AlgorithmSubstitution(t *testing.T) {
	c := newTestCodec(t)

	// A token claiming alg "none" must never pass, even with valid claims.
	now := time.Now().UTC()
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, tokenClaims{
		Role: model.RoleAdmin.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acct-123",
			Issuer:    "base-events",
			Audience:  jwt.ClaimStrings{"base-events-users"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = c.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_UnknownRoleRejected(t *testing.T) {
	c := newTestCodec(t)

	now := time.Now().UTC()
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Role: "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acct-123",
			Issuer:    "base-events",
			Audience:  jwt.ClaimStrings{"base-events-users"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	raw, err := forged.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = c.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_GarbageInput(t *testing.T) {
	c := newTestCodec(t)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := c.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, "input %q", raw)
	}
}
