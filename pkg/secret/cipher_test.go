package secret

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ClientSecret string   `json:"clientSecret"`
	Scopes       []string `json:"scopes"`
}

func TestSealOpenJSON(t *testing.T) {
	c, err := New("test-key")
	require.NoError(t, err)

	sealed, err := SealJSON(c, payload{ClientSecret: "s3cr3t", Scopes: []string{"openid"}})
	require.NoError(t, err)
	assert.False(t, bytes.Contains(sealed, []byte("s3cr3t")), "sealed payload leaks plaintext")

	opened, err := OpenJSON[payload](c, sealed)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", opened.ClientSecret)
	assert.Equal(t, []string{"openid"}, opened.Scopes)
}

func TestSealUsesFreshNonce(t *testing.T) {
	c, err := New("test-key")
	require.NoError(t, err)

	a, err := c.Seal([]byte("same"))
	require.NoError(t, err)
	b, err := c.Seal([]byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpenWithWrongKeyFails(t *testing.T) {
	c1, err := New("key-one")
	require.NoError(t, err)
	c2, err := New("key-two")
	require.NoError(t, err)

	sealed, err := c1.Seal([]byte("payload"))
	require.NoError(t, err)

	_, err = c2.Open(sealed)
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = c1.Open([]byte("not json"))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestMissingKeyRefuses(t *testing.T) {
	c, err := New("  ")
	require.NoError(t, err)

	_, err = c.Seal([]byte("x"))
	assert.ErrorIs(t, err, ErrKeyMissing)
	_, err = c.Open([]byte("x"))
	assert.ErrorIs(t, err, ErrKeyMissing)
}
