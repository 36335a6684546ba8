package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	// Minimum cost keeps the test fast; the algorithm is identical.
	h := NewPasswordHasher(4)
	ctx := context.Background()

	hash, err := h.Hash(ctx, "correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, h.Compare(ctx, hash, "correct horse battery staple"))
	assert.Error(t, h.Compare(ctx, hash, "correct horse battery stapl"))
	assert.Error(t, h.Compare(ctx, hash, ""))
}

func TestPasswordHasher_SaltedHashesDiffer(t *testing.T) {
	h := NewPasswordHasher(4)
	ctx := context.Background()

	first, err := h.Hash(ctx, "secret-password")
	require.NoError(t, err)
	second, err := h.Hash(ctx, "secret-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "two hashes of the same password must differ")
	assert.NoError(t, h.Compare(ctx, first, "secret-password"))
	assert.NoError(t, h.Compare(ctx, second, "secret-password"))
}

func TestPasswordHasher_CancelledContext(t *testing.T) {
	h := NewPasswordHasher(4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Hash(ctx, "whatever")
	assert.Error(t, err)
}
