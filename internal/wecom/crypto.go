// Package wecom implements the WeCom (WeChat Work) side of the relay: the
// encrypted callback handshake and the outbound application-message client.
package wecom

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // G505: the callback scheme mandates SHA1
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrBadSignature indicates the msg_signature did not match.
	ErrBadSignature = errors.New("signature mismatch")

	// ErrBadPadding indicates the decrypted plaintext had an invalid pad byte.
	ErrBadPadding = errors.New("invalid padding")

	// ErrReceiverMismatch indicates the trailing receiver id did not match the
	// configured corp id.
	ErrReceiverMismatch = errors.New("receiver id mismatch")

	// ErrBadEnvelope indicates a ciphertext that cannot be decrypted or parsed.
	ErrBadEnvelope = errors.New("malformed encrypted envelope")
)

// Crypto holds the callback channel secrets. All methods are stateless.
type Crypto struct {
	token  string
	aesKey []byte
	corpID string
}

// NewCrypto parses the EncodingAESKey (43 characters of unpadded base64,
// yielding a 32-byte AES key) and returns a ready crypto helper.
func NewCrypto(token, encodingAESKey, corpID string) (*Crypto, error) {
	key, err := base64.StdEncoding.DecodeString(encodingAESKey + "=")
	if err != nil {
		return nil, fmt.Errorf("invalid encoding AES key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encoding AES key must decode to 32 bytes, got %d", len(key))
	}
	return &Crypto{token: token, aesKey: key, corpID: corpID}, nil
}

// Signature computes the callback signature: the token, timestamp, nonce and
// subject are sorted lexicographically, concatenated and hashed with SHA1.
func (c *Crypto) Signature(timestamp, nonce, subject string) string {
	parts := []string{c.token, timestamp, nonce, subject}
	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, ""))) //nolint:gosec // G401: scheme-mandated digest
	return hex.EncodeToString(sum[:])
}

// VerifySignature checks the provided signature against the computed one.
// It must pass before any decryption is attempted.
func (c *Crypto) VerifySignature(signature, timestamp, nonce, subject string) error {
	expected := c.Signature(timestamp, nonce, subject)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return ErrBadSignature
	}
	return nil
}

// Decrypt opens a base64 envelope and returns the inner payload. The
// plaintext layout is 16 random bytes, a 4-byte big-endian payload length,
// the payload, then the receiver corp id. AES-256-CBC with the IV taken
// from the first 16 bytes of the key itself, per the scheme's convention.
func (c *Crypto) Decrypt(encoded string) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	if len(ciphertext) < aes.BlockSize || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d", ErrBadEnvelope, len(ciphertext))
	}

	block, err := aes.NewCipher(c.aesKey)
	if err != nil {
		return nil, err
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, c.aesKey[:aes.BlockSize]).CryptBlocks(plaintext, ciphertext)

	plaintext, err = unpad(plaintext)
	if err != nil {
		return nil, err
	}
	if len(plaintext) < 20 {
		return nil, fmt.Errorf("%w: plaintext too short", ErrBadEnvelope)
	}

	length := binary.BigEndian.Uint32(plaintext[16:20])
	if int(length) > len(plaintext)-20 {
		return nil, fmt.Errorf("%w: payload length %d exceeds plaintext", ErrBadEnvelope, length)
	}
	payload := plaintext[20 : 20+length]
	receiver := string(plaintext[20+length:])
	if receiver != c.corpID {
		return nil, ErrReceiverMismatch
	}
	return payload, nil
}

// Encrypt seals a payload into a base64 envelope the way the platform does.
// Used by tests and by the passive-reply path.
func (c *Crypto) Encrypt(payload []byte) (string, error) {
	random := make([]byte, 16)
	if _, err := rand.Read(random); err != nil {
		return "", err
	}

	plaintext := make([]byte, 0, 20+len(payload)+len(c.corpID))
	plaintext = append(plaintext, random...)
	plaintext = binary.BigEndian.AppendUint32(plaintext, uint32(len(payload)))
	plaintext = append(plaintext, payload...)
	plaintext = append(plaintext, c.corpID...)
	plaintext = pad(plaintext)

	block, err := aes.NewCipher(c.aesKey)
	if err != nil {
		return "", err
	}
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, c.aesKey[:aes.BlockSize]).CryptBlocks(ciphertext, plaintext)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// The scheme pads to a 32-byte boundary, so pad values run from 1 to 32.
const padBlockSize = 32

func pad(data []byte) []byte {
	n := padBlockSize - len(data)%padBlockSize
	if n == 0 {
		n = padBlockSize
	}
	padding := make([]byte, n)
	for i := range padding {
		padding[i] = byte(n)
	}
	return append(data, padding...)
}

func unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrBadPadding
	}
	n := int(data[len(data)-1])
	if n < 1 || n > padBlockSize || n > len(data) {
		return nil, ErrBadPadding
	}
	return data[:len(data)-n], nil
}
