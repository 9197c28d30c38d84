// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package repair fixes near-valid JSON produced by text generation models.
//
// Every stage is a single left-to-right scan that tracks whether the cursor
// is inside a double-quoted string (honoring backslash escapes), so string
// contents are never altered except by FixInvalidStringEscapes, which only
// touches escape sequences.
package repair

import "strings"

// validEscapes lists the characters JSON allows after a backslash.
const validEscapes = `"\/bfnrtu`

// Repair applies every stage in order and always returns a string. Comments
// and trailing commas are normalized before keys are quoted, and escapes are
// fixed last so earlier stages see the original string boundaries.
//
// Repair is idempotent: Repair(Repair(s)) == Repair(s).
func Repair(text string) string {
	s := StripComments(text)
	s = RemoveTrailingCommas(s)
	s = QuoteUnquotedKeys(s)
	return FixInvalidStringEscapes(s)
}

// scanner tracks string state across a byte scan.
type scanner struct {
	inString bool
	escaped  bool
}

// step advances the string state past c and reports whether c belongs to a
// string literal (including its delimiting quotes).
func (sc *scanner) step(c byte) bool {
	if sc.inString {
		switch {
		case sc.escaped:
			sc.escaped = false
		case c == '\\':
			sc.escaped = true
		case c == '"':
			sc.inString = false
		}
		return true
	}
	if c == '"' {
		sc.inString = true
		return true
	}
	return false
}

// StripComments removes // line comments and /* block */ comments outside
// strings. A block comment is replaced by one space so the bytes on either
// side can never fuse into a new comment opener.
func StripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var sc scanner
	for i := 0; i < len(s); i++ {
		c := s[i]
		if sc.step(c) {
			b.WriteByte(c)
			continue
		}
		if c == '/' && i+1 < len(s) {
			switch s[i+1] {
			case '/':
				j := i + 2
				for j < len(s) && s[j] != '\n' {
					j++
				}
				// Keep the newline itself.
				i = j - 1
				continue
			case '*':
				end := strings.Index(s[i+2:], "*/")
				if end < 0 {
					i = len(s)
					continue
				}
				b.WriteByte(' ')
				i += 2 + end + 1
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// RemoveTrailingCommas deletes commas whose next significant character is
// a closing } or ]. Runs of commas before a closer are removed together.
func RemoveTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var sc scanner
	for i := 0; i < len(s); i++ {
		c := s[i]
		if sc.step(c) {
			b.WriteByte(c)
			continue
		}
		if c == ',' && closesAfter(s, i+1) {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// closesAfter reports whether the first byte at or after i that is neither
// whitespace nor a comma is } or ].
func closesAfter(s string, i int) bool {
	for ; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r', ',':
			continue
		case '}', ']':
			return true
		default:
			return false
		}
	}
	return false
}

// QuoteUnquotedKeys wraps bare identifier keys in double quotes. A token is
// a key candidate only right after { or , (ignoring whitespace) and only
// when it is followed by a colon.
func QuoteUnquotedKeys(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	var sc scanner
	expectKey := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if sc.step(c) {
			expectKey = false
			b.WriteByte(c)
			continue
		}

		switch {
		case c == '{' || c == ',':
			expectKey = true
			b.WriteByte(c)
		case isSpace(c):
			b.WriteByte(c)
		case expectKey && isIdentStart(c):
			j := i + 1
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			k := j
			for k < len(s) && isSpace(s[k]) {
				k++
			}
			if k < len(s) && s[k] == ':' {
				b.WriteByte('"')
				b.WriteString(s[i:j])
				b.WriteByte('"')
			} else {
				b.WriteString(s[i:j])
			}
			i = j - 1
			expectKey = false
		default:
			expectKey = false
			b.WriteByte(c)
		}
	}
	return b.String()
}

// FixInvalidStringEscapes drops a backslash inside a string when the next
// character is not a legal JSON escape, keeping that character literally.
// Models routinely emit sequences such as \( or \'.
func FixInvalidStringEscapes(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inString {
			if c == '"' {
				inString = true
			}
			b.WriteByte(c)
			continue
		}

		switch c {
		case '\\':
			if i+1 >= len(s) {
				b.WriteByte(c)
				continue
			}
			next := s[i+1]
			if strings.IndexByte(validEscapes, next) >= 0 {
				b.WriteByte(c)
			}
			b.WriteByte(next)
			i++
		case '"':
			inString = false
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c == '-' || (c >= '0' && c <= '9')
}
