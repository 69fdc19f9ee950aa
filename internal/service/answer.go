package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/dewv/nlc-visits/internal/errors"
)

const (
	// saltBytes random bytes, hex encoded, make up a profile's secret salt.
	saltBytes = 8
	// bcrypt ignores input past 72 bytes and x/crypto rejects it outright.
	maxAnswerBytes = 72 - 2*saltBytes
)

// NewSalt returns a fresh hex-encoded secret salt for a new profile.
func NewSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// hashAnswer returns bcrypt(answer + salt). The answer is used exactly as typed.
func hashAnswer(answer, salt string) (string, error) {
	input := answer + salt
	if len(input) > 72 {
		return "", apperrors.ValidationField("securityAnswer",
			fmt.Sprintf("Security answer must be %d characters or fewer.", maxAnswerBytes))
	}
	h, err := bcrypt.GenerateFromPassword([]byte(input), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash security answer: %w", err)
	}
	return string(h), nil
}

// answerMatches reports whether answer hashes to stored under salt.
func answerMatches(stored, answer, salt string) bool {
	input := answer + salt
	if len(input) > 72 {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}
