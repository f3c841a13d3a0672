package verification

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken_Entropy(t *testing.T) {
	t.Parallel()

	token, err := NewToken()
	require.NoError(t, err)

	raw, err := hex.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, raw, tokenBytes)
}

func TestNewToken_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		token, err := NewToken()
		require.NoError(t, err)
		require.False(t, seen[token], "duplicate token generated")
		seen[token] = true
	}
}
