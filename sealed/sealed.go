// Package sealed wraps another payload codec with authenticated encryption,
// making the carrier value opaque to anything that sees the URL.
package sealed

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/zoobzio/querystate"
)

// Sealing errors.
var (
	ErrInvalidKeySize  = errors.New("invalid key size")
	ErrCiphertextShort = errors.New("ciphertext too short")
)

// sealedCodec implements querystate.Codec by sealing an inner codec's
// output with XChaCha20-Poly1305.
type sealedCodec struct {
	inner querystate.Codec
	key   []byte
}

// New returns a codec that seals inner's output.
// Key must be 32 bytes.
func New(inner querystate.Codec, key []byte) (querystate.Codec, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: must be %d bytes, got %d", ErrInvalidKeySize, chacha20poly1305.KeySize, len(key))
	}

	k := make([]byte, len(key))
	copy(k, key)
	return &sealedCodec{inner: inner, key: k}, nil
}

// ContentType returns the inner codec's MIME type with a sealed suffix.
func (c *sealedCodec) ContentType() string {
	return c.inner.ContentType() + "+sealed"
}

// Marshal encodes v with the inner codec and seals the result.
func (c *sealedCodec) Marshal(v any) ([]byte, error) {
	plaintext, err := c.inner.Marshal(v)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	// Prepend nonce to ciphertext
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Unmarshal opens the sealed data and decodes it with the inner codec.
func (c *sealedCodec) Unmarshal(data []byte, v any) error {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return err
	}

	nonceSize := aead.NonceSize()
	if len(data) < nonceSize {
		return ErrCiphertextShort
	}

	plaintext, err := aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return err
	}

	return c.inner.Unmarshal(plaintext, v)
}
