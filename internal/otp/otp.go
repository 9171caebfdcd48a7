// Package otp generates numeric one-time codes and stores them as bcrypt hashes.
package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// DefaultLength is the number of digits in a generated code.
const DefaultLength = 6

// Generate returns a uniformly random numeric code of length digits.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}
	ten := big.NewInt(10)
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

// Hash returns the bcrypt hash of code. A cost of zero uses bcrypt.DefaultCost.
func Hash(code string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), cost)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}
	return string(hash), nil
}

// Match reports whether code matches hash.
func Match(hash, code string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("compare code: %w", err)
}
