// Package parser turns raw command lines into the structured command shape
// the dispatcher consumes. Tokenisation honours double and single quoting
// with permissive shell semantics; backslash escapes are not interpreted.
package parser

import (
	"strings"
	"unicode"
)

// Tokenize splits a line into ordered tokens. Whitespace outside quotes
// separates tokens; a quote may open mid-token (--msg="hello world" is one
// token). Quotes are stripped and their content taken literally. An
// unterminated quote closes the token at end of input and adds a warning;
// the caller treats the result as valid input.
func Tokenize(line string) (tokens []string, warnings []string) {
	var current strings.Builder
	inToken := false
	var quote rune // 0 when outside quotes

	flush := func() {
		if inToken {
			tokens = append(tokens, current.String())
			current.Reset()
			inToken = false
		}
	}

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
			inToken = true
		}
	}

	if quote != 0 {
		warnings = append(warnings, "unterminated quote closed at end of input")
	}
	flush()

	return tokens, warnings
}
