package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost     = 12
	MinPasswordLen = 8
	MinUsernameLen = 3
	MaxUsernameLen = 64
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// HashPassword produces a bcrypt digest for storage. Earlier deployments
// stored unsalted SHA-256 hex digests; those remain verifiable through
// ComparePassword but are never produced for new writes.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// ComparePassword checks password against a stored digest. Bcrypt digests are
// recognized by their prefix; anything else is treated as a legacy uppercase
// hex SHA-256 digest.
func ComparePassword(hashedPassword, password string) error {
	if strings.HasPrefix(hashedPassword, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	}
	if subtle.ConstantTimeCompare([]byte(LegacyHash(password)), []byte(hashedPassword)) != 1 {
		return fmt.Errorf("password mismatch")
	}
	return nil
}

// LegacyHash computes the pre-bcrypt digest format: SHA-256 over the UTF-8
// bytes, uppercase hex encoded.
func LegacyHash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// ValidatePassword enforces the minimal password rules: at least
// MinPasswordLen characters, including one that is neither a letter nor a
// digit.
func ValidatePassword(password string) error {
	if strings.TrimSpace(password) == "" || len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	}
	hasSpecial := false
	for _, r := range password {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			hasSpecial = true
			break
		}
	}
	if !hasSpecial {
		return fmt.Errorf("password must include at least one special character")
	}
	return nil
}

// ValidateUsername enforces the username shape: 3-64 characters drawn from
// letters, digits, '.', '_' and '-'.
func ValidateUsername(username string) error {
	trimmed := strings.TrimSpace(username)
	if len(trimmed) < MinUsernameLen || len(trimmed) > MaxUsernameLen {
		return fmt.Errorf("username must be %d-%d characters", MinUsernameLen, MaxUsernameLen)
	}
	if !usernamePattern.MatchString(trimmed) {
		return fmt.Errorf("username can only contain letters, digits, '.', '_' or '-'")
	}
	return nil
}
