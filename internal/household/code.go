// Package household generates and normalizes household join codes.
package household

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

const (
	CodeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// MaxCodeAttempts bounds collision retries when creating a household.
	MaxCodeAttempts = 10
)

var ErrCodeExhausted = errors.New("unable to generate a unique household code")

// NewCode returns a random CodeLength-character code from A-Z and 0-9.
func NewCode() (string, error) {
	var b strings.Builder
	limit := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeCode turns user input like " ab 12-cd " into "AB12CD": whitespace and
// punctuation are dropped, letters uppercased, and the result cut to CodeLength.
func NormalizeCode(input string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(input) {
		if r > unicode.MaxASCII {
			continue
		}
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == CodeLength {
			break
		}
	}
	return b.String()
}
