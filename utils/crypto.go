package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// Hmac256 generates an HMAC-SHA256 hex digest of body under key.
func Hmac256(body, key []byte) string {
	hash := hmac.New(sha256.New, key)
	hash.Write(body)
	return hex.EncodeToString(hash.Sum(nil))
}

// VerifyHmac256 compares a received digest against the expected one in
// constant time.
func VerifyHmac256(body, key []byte, received string) bool {
	expected := Hmac256(body, key)
	return hmac.Equal([]byte(received), []byte(expected))
}

// GenerateHash bcrypt-hashes a webhook token for at-rest storage.
func GenerateHash(token []byte) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(token, bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CompareHash checks a presented token against its stored bcrypt hash.
func CompareHash(storedHash, token []byte) bool {
	return bcrypt.CompareHashAndPassword(storedHash, token) == nil
}
