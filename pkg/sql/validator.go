// Package sql guards the text that flows into and out of the query pipeline.
package sql

import (
	"errors"
	"strings"
	"unicode"
)

var (
	// ErrEmptyQuery indicates there is nothing to execute.
	ErrEmptyQuery = errors.New("empty SQL statement")
	// ErrMultipleStatements indicates the query contains multiple SQL statements.
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")
)

// ValidationResult contains the normalized SQL and any validation error.
type ValidationResult struct {
	NormalizedSQL string
	Error         error
}

// ValidateAndNormalize trims the query, drops one terminating semicolon and
// rejects any other statement separator. Quotes, backtick identifiers and
// comments in the MySQL dialect are skipped, so a semicolon inside them is
// left untouched.
func ValidateAndNormalize(query string) ValidationResult {
	runes := []rune(strings.TrimSpace(query))
	separators, lastCode := scanSeparators(runes)

	// A separator after the last piece of code terminates the statement.
	var terminators []int
	for _, pos := range separators {
		if pos < lastCode {
			return ValidationResult{Error: ErrMultipleStatements}
		}
		terminators = append(terminators, pos)
	}
	if len(terminators) > 1 {
		return ValidationResult{Error: ErrMultipleStatements}
	}
	if len(terminators) == 1 {
		pos := terminators[0]
		runes = append(runes[:pos:pos], runes[pos+1:]...)
	}

	normalized := strings.TrimSpace(string(runes))
	if normalized == "" || lastCode < 0 {
		return ValidationResult{Error: ErrEmptyQuery}
	}
	return ValidationResult{NormalizedSQL: normalized}
}

// scanSeparators returns the positions of statement separators outside
// quotes and comments, and the position of the last rune that is code
// (neither whitespace, comment nor separator), or -1 when there is none.
func scanSeparators(runes []rune) (separators []int, lastCode int) {
	const (
		normal = iota
		singleQuote
		doubleQuote
		backtick
		lineComment
		blockComment
	)

	lastCode = -1
	state := normal
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		var next rune
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch state {
		case normal:
			switch {
			case c == ';':
				separators = append(separators, i)
			case c == '#':
				state = lineComment
			case c == '-' && next == '-':
				state = lineComment
				i++
			case c == '/' && next == '*':
				state = blockComment
				i++
			case unicode.IsSpace(c):
			default:
				lastCode = i
				switch c {
				case '\'':
					state = singleQuote
				case '"':
					state = doubleQuote
				case '`':
					state = backtick
				}
			}
		case singleQuote, doubleQuote:
			lastCode = i
			quote := '\''
			if state == doubleQuote {
				quote = '"'
			}
			if c == '\\' {
				i++
				lastCode = i
				continue
			}
			if c == quote {
				// A doubled quote is an escaped quote.
				if next == quote {
					i++
					lastCode = i
					continue
				}
				state = normal
			}
		case backtick:
			lastCode = i
			if c == '`' {
				state = normal
			}
		case lineComment:
			if c == '\n' {
				state = normal
			}
		case blockComment:
			if c == '*' && next == '/' {
				state = normal
				i++
			}
		}
	}
	return separators, lastCode
}
