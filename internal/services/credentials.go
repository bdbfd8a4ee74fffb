package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"

	apperrors "framex/internal/errors"
)

const (
	// MinPasswordLength is the shortest password accepted anywhere.
	MinPasswordLength = 6
	// MaxPasswordLength is bcrypt's input limit in bytes.
	MaxPasswordLength = 72
	// TempPasswordLength is the length of admin-provisioned passwords.
	TempPasswordLength = 16

	// Unambiguous characters only: no 0/O or 1/l/I.
	passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789!@#$%&*"
	recoveryAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	recoveryGroups    = 4
	recoveryGroupSize = 5
)

// randomString draws n characters uniformly from alphabet using crypto/rand.
func randomString(alphabet string, n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		sb.WriteByte(alphabet[idx.Int64()])
	}
	return sb.String(), nil
}

// generateTempPassword returns a random password for admin-provisioned accounts.
func generateTempPassword() (string, error) {
	return randomString(passwordAlphabet, TempPasswordLength)
}

// generateRecoveryCode returns a code formatted as XXXXX-XXXXX-XXXXX-XXXXX.
func generateRecoveryCode() (string, error) {
	raw, err := randomString(recoveryAlphabet, recoveryGroups*recoveryGroupSize)
	if err != nil {
		return "", err
	}
	groups := make([]string, 0, recoveryGroups)
	for i := 0; i < len(raw); i += recoveryGroupSize {
		groups = append(groups, raw[i:i+recoveryGroupSize])
	}
	return strings.Join(groups, "-"), nil
}

// normalizeRecoveryCode makes codes typed by hand comparable.
func normalizeRecoveryCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	return strings.ReplaceAll(code, " ", "")
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return apperrors.WithMessagef(apperrors.ErrInvalidInput, "password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return apperrors.WithMessagef(apperrors.ErrInvalidInput, "password must be at most %d bytes", MaxPasswordLength)
	}
	return nil
}

func hashSecret(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return string(hashed), nil
}

func secretMatches(hash, secret string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
