// Package sha256 derives entity tags from response bodies.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher implements api.Hasher using SHA-256.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash hashes the input and returns a hex digest.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ETag returns a strong entity tag for data.
func (h *Hasher) ETag(data []byte) (string, error) {
	digest, err := h.Hash(data)
	if err != nil {
		return "", err
	}
	return `"` + digest[:32] + `"`, nil
}
