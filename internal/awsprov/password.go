// SPDX-License-Identifier: Apache-2.0

package awsprov

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	upperChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars = "abcdefghijklmnopqrstuvwxyz"
	digitChars = "0123456789"

	// Only the most universally compatible specials; some AWS password
	// policies reject the exotic ones.
	specialChars = "!@#$_-"
)

// GeneratePassword returns a random password meeting AWS complexity
// requirements: at least one uppercase, lowercase, digit and special
// character. Lengths under 8 are raised to 8.
func GeneratePassword(length int) (string, error) {
	if length < 8 {
		length = 8
	}

	all := upperChars + lowerChars + digitChars + specialChars

	chars := make([]byte, 0, length)
	for _, set := range []string{upperChars, lowerChars, digitChars, specialChars} {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}
	for len(chars) < length {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	// Shuffle so the required classes aren't in a predictable position.
	for i := len(chars) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		j := n.Int64()
		chars[i], chars[j] = chars[j], chars[i]
	}

	return string(chars), nil
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, fmt.Errorf("failed to generate password: %w", err)
	}
	return set[n.Int64()], nil
}
