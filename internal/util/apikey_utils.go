package util

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"

	"github.com/makkenzo/apikey-dashboard/internal/config"
	"github.com/makkenzo/apikey-dashboard/internal/domain/apikey"
)

const (
	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	punctuation  = "!@#$%^&*()_+-=[]{}|;:,.<>?"
	digits       = "0123456789"
)

var randReader io.Reader = rand.Reader

func randomIndex(n int) (int, error) {
	v, err := rand.Int(randReader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

func randomFrom(charset string, n int) ([]byte, error) {
	out := make([]byte, n)
	for i := range out {
		idx, err := randomIndex(len(charset))
		if err != nil {
			return nil, err
		}
		out[i] = charset[idx]
	}
	return out, nil
}

// GenerateAPIKey returns a 32 character alphanumeric token.
func GenerateAPIKey() (string, error) {
	b, err := randomFrom(alphanumeric, apikey.KeyLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return string(b), nil
}

// GenerateMixedAPIKey returns a 16 character token made of 12 alphanumerics,
// 2 punctuation characters and 2 digits in shuffled order.
func GenerateMixedAPIKey() (string, error) {
	parts := []struct {
		charset string
		n       int
	}{
		{alphanumeric, 12},
		{punctuation, 2},
		{digits, 2},
	}

	key := make([]byte, 0, apikey.MixedKeyLength)
	for _, p := range parts {
		b, err := randomFrom(p.charset, p.n)
		if err != nil {
			return "", fmt.Errorf("failed to generate api key: %w", err)
		}
		key = append(key, b...)
	}

	for i := len(key) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return "", fmt.Errorf("failed to shuffle api key: %w", err)
		}
		key[i], key[j] = key[j], key[i]
	}

	return string(key), nil
}

// KeyGenerator picks the generator for a configured key style.
func KeyGenerator(style string) func() (string, error) {
	if style == config.KeyStyleMixed {
		return GenerateMixedAPIKey
	}
	return GenerateAPIKey
}

// HashAPIKey fingerprints a key for use in cache and rate limit keys.
func HashAPIKey(fullKey string) string {
	hashBytes := sha256.Sum256([]byte(fullKey))
	return fmt.Sprintf("%x", hashBytes)
}
