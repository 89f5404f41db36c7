package token

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRefreshToken_HexAndUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for n := 0; n < 8; n++ {
		tok, err := NewRefreshToken()
		require.NoError(t, err)
		assert.Len(t, tok, 2*refreshTokenBytes)
		_, err = hex.DecodeString(tok)
		require.NoError(t, err)
		seen[tok] = struct{}{}
	}
	assert.Len(t, seen, 8)
}

func TestFromReader_EncodesEntropy(t *testing.T) {
	tok, err := fromReader(bytes.NewReader(bytes.Repeat([]byte{0xab}, refreshTokenBytes)))
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte("ab"), refreshTokenBytes), []byte(tok))
}

func TestFromReader_ShortEntropyFails(t *testing.T) {
	_, err := fromReader(bytes.NewReader([]byte{1, 2, 3}))
	assert.Error(t, err)

	boom := errors.New("entropy unavailable")
	_, err = fromReader(iotest.ErrReader(boom))
	assert.ErrorIs(t, err, boom)
}
