// Package digest provides utilities for hashing published artifacts and checking their copies.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
)

// Digest verification errors.
var (
	ErrEmptyPath    = errors.New("empty path")
	ErrHashMismatch = errors.New("hash mismatch")
)

// Sum is the hex encoded SHA-256 of a file together with its size.
type Sum struct {
	Path string
	Hash string
	Size int64
}

// CalculateHash computes the SHA-256 hash of the content.
func CalculateHash(content []byte) string {
	hash := sha256.Sum256(content)

	return hex.EncodeToString(hash[:])
}

// File hashes the file at path.
func File(path string) (Sum, error) {
	if path == "" {
		return Sum{}, ErrEmptyPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Sum{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return Sum{Path: path, Hash: CalculateHash(content), Size: int64(len(content))}, nil
}

// Verify checks that every copy has the same content as source.
func Verify(source string, copies ...string) error {
	want, err := File(source)
	if err != nil {
		return err
	}

	for _, c := range copies {
		got, err := File(c)
		if err != nil {
			return err
		}

		if got.Hash != want.Hash {
			return fmt.Errorf("%w: %s expected %s, got %s", ErrHashMismatch, c, want.Hash, got.Hash)
		}
	}

	return nil
}
