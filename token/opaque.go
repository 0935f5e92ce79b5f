package token

import (
	"crypto/rand"
	"encoding/base64"
	"io"
)

const opaqueSecretBytes = 32

// NewOpaqueSecret returns 256 bits of CSPRNG output encoded with unpadded
// URL-safe base64. Used for refresh secrets and verification tokens; both are
// shown to their recipient exactly once and stored only as hashes.
func NewOpaqueSecret() (string, error) {
	buf := make([]byte, opaqueSecretBytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
