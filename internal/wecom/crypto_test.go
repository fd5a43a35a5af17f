package wecom

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 43 characters of unpadded base64, as issued by the platform console.
const testAESKey = "jWmYm7qr5nMoAUwZRjGtBxmz3KA1tkAj3ykkR6q2B2C"

const testCorpID = "ww1a2b3c4d5e6f7a8b"

func newTestCrypto(t *testing.T) *Crypto {
	t.Helper()
	c, err := NewCrypto("QDG6eK", testAESKey, testCorpID)
	require.NoError(t, err)
	return c
}

func TestNewCryptoRejectsBadKey(t *testing.T) {
	_, err := NewCrypto("tok", "not-base64!!", "corp")
	assert.Error(t, err)

	_, err = NewCrypto("tok", base64.StdEncoding.EncodeToString(make([]byte, 16))[:22], "corp")
	assert.Error(t, err)
}

func TestSignatureIsOrderInsensitive(t *testing.T) {
	c := newTestCrypto(t)

	// The inputs are sorted before hashing, so swapping timestamp and nonce
	// must not change the result.
	a := c.Signature("1409659813", "1372623149", "ciphertext")
	b := c.Signature("1372623149", "1409659813", "ciphertext")
	assert.Equal(t, a, b)
	assert.Len(t, a, 40)
}

func TestVerifySignature(t *testing.T) {
	c := newTestCrypto(t)

	sig := c.Signature("1409659813", "1372623149", "payload")
	assert.NoError(t, c.VerifySignature(sig, "1409659813", "1372623149", "payload"))
	assert.ErrorIs(t, c.VerifySignature(sig, "1409659813", "1372623149", "tampered"), ErrBadSignature)
	assert.ErrorIs(t, c.VerifySignature("deadbeef", "1409659813", "1372623149", "payload"), ErrBadSignature)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := newTestCrypto(t)

	payload := []byte("<xml><MsgType>text</MsgType><Content>你好 hello</Content></xml>")
	encoded, err := c.Encrypt(payload)
	require.NoError(t, err)

	decrypted, err := c.Decrypt(encoded)
	require.NoError(t, err)
	assert.Equal(t, payload, decrypted)
}

func TestDecryptRejectsWrongReceiver(t *testing.T) {
	c := newTestCrypto(t)
	other, err := NewCrypto("QDG6eK", testAESKey, "ww_other_corp")
	require.NoError(t, err)

	encoded, err := other.Encrypt([]byte("echo"))
	require.NoError(t, err)

	_, err = c.Decrypt(encoded)
	assert.ErrorIs(t, err, ErrReceiverMismatch)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	c := newTestCrypto(t)

	_, err := c.Decrypt("!!!not base64!!!")
	assert.ErrorIs(t, err, ErrBadEnvelope)

	// Valid base64 but not a multiple of the block size.
	_, err = c.Decrypt(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrBadEnvelope)

	// Random blocks decrypt to garbage padding almost surely.
	_, err = c.Decrypt(base64.StdEncoding.EncodeToString(make([]byte, 64)))
	assert.Error(t, err)
}

func TestUnpadBounds(t *testing.T) {
	_, err := unpad(nil)
	assert.ErrorIs(t, err, ErrBadPadding)

	_, err = unpad([]byte{0x01, 0x02, 0x00})
	assert.ErrorIs(t, err, ErrBadPadding)

	_, err = unpad([]byte{0x01, 0x02, 0x21})
	assert.ErrorIs(t, err, ErrBadPadding)

	out, err := unpad([]byte{'a', 'b', 0x01})
	require.NoError(t, err)
	assert.Equal(t, []byte("ab"), out)
}

func TestPadAlwaysAddsPadding(t *testing.T) {
	// A block-aligned input still gets a full padding block.
	data := pad(make([]byte, padBlockSize))
	assert.Len(t, data, 2*padBlockSize)
	assert.Equal(t, byte(padBlockSize), data[len(data)-1])
}
