package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/pageturn/internal/pageturn"
)

func TestCodec_RoundTrip(t *testing.T) {
	c, err := NewCodec([]byte("a-hash-key-for-the-tests"), nil)
	require.NoError(t, err)

	token, err := c.Encode("0193a1b2-item")
	require.NoError(t, err)
	assert.NotContains(t, token, "0193a1b2-item")

	id, err := c.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "0193a1b2-item", id)
}

func TestCodec_Encrypted(t *testing.T) {
	c, err := NewCodec(nil, []byte("0123456789abcdef"))
	require.NoError(t, err)

	token, err := c.Encode("item-1")
	require.NoError(t, err)

	id, err := c.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "item-1", id)
}

func TestCodec_BadBlockKey(t *testing.T) {
	_, err := NewCodec(nil, []byte("short"))
	assert.Error(t, err)
}

func TestCodec_RejectsForeignTokens(t *testing.T) {
	c, err := NewCodec(nil, nil)
	require.NoError(t, err)
	other, err := NewCodec(nil, nil)
	require.NoError(t, err)

	foreign, err := other.Encode("item-1")
	require.NoError(t, err)

	for _, token := range []string{"garbage", "", foreign, foreign[:len(foreign)-4]} {
		_, err := c.Decode(token)
		assert.ErrorIs(t, err, pageturn.ErrInvalidCursor, "token %q", token)
	}
}
