// Package shortcode generates and validates the short alphanumeric codes
// that links are addressed by.
package shortcode

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet is the character set codes are drawn from.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const (
	// MinLength and MaxLength bound the accepted code length.
	MinLength = 6
	MaxLength = 8

	defaultMaxAttempts = 10
)

// ErrInvalidCode is returned when a code doesn't match the accepted format.
var ErrInvalidCode = errors.New("code must be 6-8 alphanumeric characters")

var codeRegexp = regexp.MustCompile(`^[A-Za-z0-9]{6,8}$`)

// Validate reports whether code is a well-formed short code.
func Validate(code string) error {
	if !codeRegexp.MatchString(code) {
		return ErrInvalidCode
	}

	return nil
}

// ExistsFunc reports whether a candidate code is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generator produces random short codes, avoiding known collisions via an
// existence pre-check. The pre-check is an optimization only: the check and
// the subsequent insert are racy under concurrent creators, so callers must
// rely on the storage layer's unique constraint for true uniqueness.
type Generator struct {
	length      int
	maxAttempts int
	exists      ExistsFunc
}

// NewGenerator returns a Generator producing codes of the given length,
// clamped to [MinLength, MaxLength]. exists may be nil, in which case no
// pre-check is performed.
func NewGenerator(length int, exists ExistsFunc) *Generator {
	if length < MinLength {
		length = MinLength
	}
	if length > MaxLength {
		length = MaxLength
	}

	return &Generator{
		length:      length,
		maxAttempts: defaultMaxAttempts,
		exists:      exists,
	}
}

// Generate returns a random code that the pre-check believes to be free.
// If every attempt within the retry budget collides, the last candidate is
// returned anyway rather than blocking indefinitely; the residual collision
// surfaces as a uniqueness violation at insert time.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	const op = "shortcode.Generator.Generate"

	var candidate string

	for i := 0; i < g.maxAttempts; i++ {
		var err error

		candidate, err = gonanoid.Generate(Alphabet, g.length)
		if err != nil {
			return "", fmt.Errorf("%s: failed to generate code: %w", op, err)
		}

		if g.exists == nil {
			return candidate, nil
		}

		taken, err := g.exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("%s: failed to check code existence: %w", op, err)
		}
		if !taken {
			return candidate, nil
		}
	}

	return candidate, nil
}
