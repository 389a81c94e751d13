package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateToken(t *testing.T) {
	t.Run("generates 64 character hex string", func(t *testing.T) {
		token, err := GenerateToken()
		require.NoError(t, err)
		assert.Len(t, token, 64)
		for _, c := range token {
			assert.True(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'))
		}
	})

	t.Run("generates unique tokens", func(t *testing.T) {
		token1, _ := GenerateToken()
		token2, _ := GenerateToken()
		assert.NotEqual(t, token1, token2)
	})
}

func TestHashToken(t *testing.T) {
	assert.Len(t, HashToken("scraper-token"), 64)
	assert.Equal(t, HashToken("scraper-token"), HashToken("scraper-token"))
	assert.NotEqual(t, HashToken("scraper-token"), HashToken("other-token"))
}

func TestConstantTimeEqual(t *testing.T) {
	assert.True(t, ConstantTimeEqual("abc", "abc"))
	assert.False(t, ConstantTimeEqual("abc", "abd"))
	assert.False(t, ConstantTimeEqual("abc", "abcd"))
	assert.True(t, ConstantTimeEqual("", ""))
}

func TestSecretHash(t *testing.T) {
	// Minimum cost keeps the test fast; HashSecret itself uses BcryptCost.
	hash, err := bcrypt.GenerateFromPassword([]byte("scraper-token"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, CheckSecretHash("scraper-token", string(hash)))
	assert.False(t, CheckSecretHash("wrong", string(hash)))
	assert.False(t, CheckSecretHash("scraper-token", "not-a-hash"))
}

func TestHashSecret(t *testing.T) {
	if testing.Short() {
		t.Skip("bcrypt at production cost is slow")
	}

	hash, err := HashSecret("scraper-token")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, BcryptCost, cost)
	assert.True(t, CheckSecretHash("scraper-token", hash))
}
