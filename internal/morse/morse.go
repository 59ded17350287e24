package morse

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCharacter is returned for text containing characters without a code
	ErrInvalidCharacter = errors.New("invalid character for morse")

	// ErrInvalidSpeed is returned for speeds that are not positive
	ErrInvalidSpeed = errors.New("invalid speed")

	// ErrInvalidFarnsworth is returned when the character speed does not exceed the overall speed
	ErrInvalidFarnsworth = errors.New("invalid farnsworth timing")
)

// CharacterError reports the first character that could not be encoded
type CharacterError struct {
	Char rune
	Pos  int // byte offset in the input text
}

func (e *CharacterError) Error() string {
	return fmt.Sprintf("invalid character for morse: %q at offset %d", e.Char, e.Pos)
}

func (e *CharacterError) Is(target error) bool {
	return target == ErrInvalidCharacter
}

// Encode converts text to a space separated dot/dash transcript.
// Words are separated by "/" and line breaks are dropped.
func Encode(text string) (string, error) {
	var b strings.Builder
	b.Grow(len(text) * 4)

	for pos, ch := range text {
		code, ok := Standard.Code(ToUpper(ch))
		if !ok {
			return "", &CharacterError{Char: ch, Pos: pos}
		}
		if code == "" {
			continue
		}
		b.WriteString(code)
		b.WriteByte(' ')
	}

	return strings.TrimSpace(b.String()), nil
}

// Validate checks that every character of text can be keyed
func Validate(text string) error {
	for pos, ch := range text {
		if _, ok := Standard.Code(ToUpper(ch)); !ok {
			return &CharacterError{Char: ch, Pos: pos}
		}
	}
	return nil
}
