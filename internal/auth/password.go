package auth

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidPin = errors.New("pin must be 4 to 6 digits")

// HashSecret bcrypt-hashes a password or PIN.
func HashSecret(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckSecret reports whether plain matches the stored hash.
func CheckSecret(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ValidatePin accepts 4 to 6 ASCII digits.
func ValidatePin(pin string) error {
	if len(pin) < 4 || len(pin) > 6 {
		return ErrInvalidPin
	}
	for _, r := range pin {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return ErrInvalidPin
		}
	}
	return nil
}
