package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeypair_Base58RoundTrip(t *testing.T) {
	k, err := NewRandomKeypair()
	require.NoError(t, err)

	parsed, err := NewKeypair(k.Base58())
	require.NoError(t, err)
	assert.Equal(t, k.PublicKey(), parsed.PublicKey())
	assert.Equal(t, k.Address(), parsed.Address())
}

func TestKeypair_JSONArrayFile(t *testing.T) {
	k, err := NewRandomKeypair()
	require.NoError(t, err)

	ints := make([]int, len(k.priv))
	for i, b := range k.priv {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	fromFile, err := LoadKeypair(path)
	require.NoError(t, err)
	assert.Equal(t, k.PublicKey(), fromFile.PublicKey())

	fromLiteral, err := LoadKeypair(string(data))
	require.NoError(t, err)
	assert.Equal(t, k.PublicKey(), fromLiteral.PublicKey())
}

func TestParsePrivateKey_Invalid(t *testing.T) {
	cases := []string{
		"",
		"not-base58-0OIl",
		"[1,2,3]",
		"[256" + ",0]",
		"3yZe7d",
	}
	for _, c := range cases {
		_, err := ParsePrivateKey(c)
		assert.Error(t, err, "%q should be rejected", c)
	}

	_, err := NewKeypair("   ")
	assert.Error(t, err)
	_, err = LoadKeypair("")
	assert.Error(t, err)
}
