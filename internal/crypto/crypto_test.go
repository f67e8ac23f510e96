package crypto

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte { return bytes.Repeat([]byte{7}, 32) }

func TestCipherRoundTrip(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)

	enc, err := c.Encrypt("felt great after the run")
	require.NoError(t, err)
	assert.NotContains(t, enc, "felt great")

	dec, err := c.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "felt great after the run", dec)
}

func TestCipherUsesFreshNonce(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)
	a, _ := c.Encrypt("same")
	b, _ := c.Encrypt("same")
	assert.NotEqual(t, a, b)
}

func TestCipherEmptyStaysEmpty(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)
	enc, err := c.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, enc)
	dec, err := c.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, dec)
}

func TestCipherRejectsTampering(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)
	enc, _ := c.Encrypt("notes")
	raw, _ := base64.StdEncoding.DecodeString(enc)
	raw[len(raw)-1] ^= 0xff
	_, err = c.Decrypt(base64.StdEncoding.EncodeToString(raw))
	assert.Error(t, err)

	_, err = c.Decrypt(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
}

func TestNewCipherKeyLength(t *testing.T) {
	_, err := NewCipher([]byte("too short"))
	assert.Error(t, err)
}

func TestKeyFromBase64(t *testing.T) {
	key, err := KeyFromBase64(base64.StdEncoding.EncodeToString(testKey()))
	require.NoError(t, err)
	assert.Len(t, key, 32)

	_, err = KeyFromBase64(base64.StdEncoding.EncodeToString([]byte("16 bytes long!!!")))
	assert.Error(t, err)
	_, err = KeyFromBase64("%%%")
	assert.Error(t, err)
}
