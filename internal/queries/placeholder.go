package queries

import "strings"

// segment is either literal query text or a placeholder name.
type segment struct {
	text        string
	placeholder bool
}

// parsePlaceholders splits a query into literal and placeholder segments.
//
// "{name}" is a placeholder when name is an identifier. "{{" and "}}" are escaped
// braces. Any other brace is kept as literal text.
func parsePlaceholders(query string) []segment {
	segments := make([]segment, 0, 8)
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			segments = append(segments, segment{text: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(query); {
		ch := query[i]
		switch {
		case ch == '{' && i+1 < len(query) && query[i+1] == '{':
			literal.WriteByte('{')
			i += 2
		case ch == '}' && i+1 < len(query) && query[i+1] == '}':
			literal.WriteByte('}')
			i += 2
		case ch == '{':
			end := scanIdentifier(query, i+1)
			if end > i+1 && end < len(query) && query[end] == '}' {
				flush()
				segments = append(segments, segment{text: query[i+1 : end], placeholder: true})
				i = end + 1
				continue
			}
			literal.WriteByte(ch)
			i++
		default:
			literal.WriteByte(ch)
			i++
		}
	}
	flush()

	return segments
}

func scanIdentifier(s string, start int) int {
	i := start
	for i < len(s) {
		c := s[i]
		isLetter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if !isLetter && !(isDigit && i > start) {
			break
		}
		i++
	}
	return i
}

// isIdentifier reports whether name is a valid parameter name.
func isIdentifier(name string) bool {
	return name != "" && scanIdentifier(name, 0) == len(name)
}
