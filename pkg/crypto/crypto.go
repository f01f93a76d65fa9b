package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"math/big"
)

// GenerateToken returns a random URL-safe token of the requested byte length.
func GenerateToken(length int) (string, error) {
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// GenerateNumericCode returns a random code composed of the requested number of
// decimal digits. Leading zeros are preserved.
func GenerateNumericCode(digits int) (string, error) {
	if digits <= 0 {
		return "", errors.New("crypto: digit count must be positive")
	}

	code := make([]byte, digits)
	max := big.NewInt(10)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

// HashCode returns the hex-encoded SHA-256 digest of a verification code.
// Codes are stored hashed so a database leak does not expose live secrets.
func HashCode(code string) string {
	digest := sha256.Sum256([]byte(code))
	return hex.EncodeToString(digest[:])
}

// CodeMatches compares a candidate code against a stored hash in constant time.
func CodeMatches(hash, candidate string) bool {
	computed := HashCode(candidate)
	return subtle.ConstantTimeCompare([]byte(hash), []byte(computed)) == 1
}
