package mib

import "fmt"

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	line int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q (line %d)", t.text, t.line)
}

// tokenize splits SMI source into identifiers, numbers, quoted strings and
// punctuation. Comments run from "--" to the next "--" or end of line.
// Quoted, hex ('0A'H) and binary ('01'B) strings all become tokString.
func tokenize(src []byte) ([]token, error) {
	var (
		toks []token
		line = 1
		i    = 0
	)

	emit := func(kind tokenKind, start, end int) {
		toks = append(toks, token{kind: kind, text: string(src[start:end]), line: line})
	}

	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			line++
			i++

		case c == ' ' || c == '\t' || c == '\r' || c == '\f':
			i++

		case c == '-' && i+1 < len(src) && src[i+1] == '-':
			i += 2
			for i < len(src) && src[i] != '\n' {
				if src[i] == '-' && i+1 < len(src) && src[i+1] == '-' {
					i += 2
					break
				}
				i++
			}

		case c == '"':
			start, startLine := i+1, line
			i++
			for i < len(src) && src[i] != '"' {
				if src[i] == '\n' {
					line++
				}
				i++
			}
			if i >= len(src) {
				return nil, fmt.Errorf("unterminated string starting on line %d", startLine)
			}
			toks = append(toks, token{kind: tokString, text: string(src[start:i]), line: startLine})
			i++

		case c == '\'':
			start := i + 1
			i++
			for i < len(src) && src[i] != '\'' {
				i++
			}
			if i >= len(src) {
				return nil, fmt.Errorf("unterminated quoted literal on line %d", line)
			}
			emit(tokString, start, i)
			i++
			if i < len(src) && (src[i] == 'H' || src[i] == 'h' || src[i] == 'B' || src[i] == 'b') {
				i++
			}

		case isDigit(c) || (c == '-' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			i++
			for i < len(src) && isDigit(src[i]) {
				i++
			}
			emit(tokNumber, start, i)

		case isLetter(c):
			start := i
			i++
			for i < len(src) {
				ch := src[i]
				if ch == '-' {
					// A hyphen pair starts a comment, a trailing hyphen is not part of the name.
					if i+1 >= len(src) || src[i+1] == '-' || !isIdentChar(src[i+1]) {
						break
					}
					i++
					continue
				}
				if !isIdentChar(ch) {
					break
				}
				i++
			}
			emit(tokIdent, start, i)

		case c == ':' && i+2 < len(src) && src[i+1] == ':' && src[i+2] == '=':
			emit(tokPunct, i, i+3)
			i += 3

		case c == '.' && i+1 < len(src) && src[i+1] == '.':
			emit(tokPunct, i, i+2)
			i += 2

		default:
			emit(tokPunct, i, i+1)
			i++
		}
	}

	toks = append(toks, token{kind: tokEOF, line: line})
	return toks, nil
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}
