package accounts

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var errPasswordMismatch = errors.New("password mismatch")

// hashPassword creates a bcrypt hash of password at cost.
func hashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

// verifyPassword checks password against a bcrypt hash.
func verifyPassword(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errPasswordMismatch
		}
		return fmt.Errorf("could not verify password: %w", err)
	}
	return nil
}
