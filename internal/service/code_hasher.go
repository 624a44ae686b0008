package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACCodeHasher implements ports.CodeHasher using HMAC-SHA256 keyed with a
// server-side secret, so a leaked verification table does not reveal live codes.
type HMACCodeHasher struct {
	secret []byte
}

// NewHMACCodeHasher creates a new HMAC-SHA256 code hasher.
func NewHMACCodeHasher(secret string) *HMACCodeHasher {
	return &HMACCodeHasher{secret: []byte(secret)}
}

// Hash computes HMAC-SHA256 of "subject|code".
// Returns lowercase hex-encoded digest.
func (h *HMACCodeHasher) Hash(subject string, code string) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(subject + "|" + code))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks if hash matches the code issued to subject.
// Uses constant-time comparison to prevent timing attacks.
func (h *HMACCodeHasher) Verify(subject string, code string, hash string) bool {
	expected := h.Hash(subject, code)
	return hmac.Equal([]byte(expected), []byte(hash))
}
