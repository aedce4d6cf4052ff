package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseJWT(t *testing.T) {
	tok, err := GenerateJWT("u1", "u@example.com", "U", "", "secret")
	require.NoError(t, err)

	claims, err := ParseJWT(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "u@example.com", claims.Email)

	_, err = ParseJWT(tok, "other")
	assert.Error(t, err)
	_, err = ParseJWT("garbage", "secret")
	assert.Error(t, err)
}

func TestCacheHelpersWithoutRedis(t *testing.T) {
	ctx := context.Background()
	var dest map[string]any
	found, err := GetCache(ctx, nil, "k", &dest)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, SetCache(ctx, nil, "k", 1, 0))
	assert.NoError(t, DeleteCache(ctx, nil, "k"))
	assert.NoError(t, DeleteCachePrefix(ctx, nil, "k"))
}
