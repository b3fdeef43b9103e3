package manifest

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// SyntaxError reports a manifest that is not a plain Python literal.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// literalParser evaluates the subset of Python literal syntax that
// addon manifests use: dicts, lists, tuples, strings, numbers, booleans
// and None. Comments and adjacent string concatenation are supported.
type literalParser struct {
	src  []rune
	pos  int
	line int
}

// parseLiteral evaluates src and returns a Go value: map[string]any,
// []any, string, int64, float64, bool or nil.
func parseLiteral(src string) (any, error) {
	p := &literalParser{src: []rune(src), line: 1}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q after literal", p.src[p.pos])
	}
	return v, nil
}

func (p *literalParser) errorf(format string, args ...any) error {
	return &SyntaxError{Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *literalParser) peek() rune {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *literalParser) next() rune {
	r := p.src[p.pos]
	p.pos++
	if r == '\n' {
		p.line++
	}
	return r
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		switch {
		case r == '#':
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
		case r == '\\' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '\n':
			p.pos++
			p.next()
		case unicode.IsSpace(r):
			p.next()
		default:
			return
		}
	}
}

func (p *literalParser) value() (any, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, p.errorf("unexpected end of manifest")
	}

	r := p.peek()
	switch {
	case r == '{':
		return p.dict()
	case r == '[':
		return p.sequence('[', ']')
	case r == '(':
		return p.sequence('(', ')')
	case r == '\'' || r == '"' || isStringPrefix(p.src[p.pos:]):
		return p.concatStrings()
	case r == '-' || r == '+' || r == '.' || unicode.IsDigit(r):
		return p.number()
	case unicode.IsLetter(r) || r == '_':
		return p.name()
	}
	return nil, p.errorf("unexpected %q", r)
}

func (p *literalParser) dict() (any, error) {
	p.next() // {
	out := make(map[string]any)
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.next()
			return out, nil
		}
		k, err := p.value()
		if err != nil {
			return nil, err
		}
		key, ok := k.(string)
		if !ok {
			return nil, p.errorf("dict key must be a string, got %T", k)
		}
		p.skipSpace()
		if p.peek() != ':' {
			return nil, p.errorf("expected ':' after key %q", key)
		}
		p.next()
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out[key] = v

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.next()
		case '}':
		default:
			return nil, p.errorf("expected ',' or '}' in dict")
		}
	}
}

func (p *literalParser) sequence(open, close rune) (any, error) {
	p.next() // open
	out := []any{}
	for {
		p.skipSpace()
		if p.peek() == close {
			p.next()
			return out, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.next()
		case close:
		default:
			return nil, p.errorf("expected ',' or %q in %c%c", close, open, close)
		}
	}
}

func isStringPrefix(rest []rune) bool {
	for i, r := range rest {
		if i > 2 {
			return false
		}
		if r == '\'' || r == '"' {
			return i > 0
		}
		if !strings.ContainsRune("rRuUbB", r) {
			return false
		}
	}
	return false
}

// concatStrings reads one or more adjacent string literals and concatenates them.
func (p *literalParser) concatStrings() (any, error) {
	var sb strings.Builder
	for {
		s, err := p.stringLit()
		if err != nil {
			return nil, err
		}
		sb.WriteString(s)

		save, saveLine := p.pos, p.line
		p.skipSpace()
		if p.pos < len(p.src) && (p.peek() == '\'' || p.peek() == '"' || isStringPrefix(p.src[p.pos:])) {
			continue
		}
		p.pos, p.line = save, saveLine
		return sb.String(), nil
	}
}

func (p *literalParser) stringLit() (string, error) {
	raw := false
	for p.peek() != '\'' && p.peek() != '"' {
		if r := p.next(); r == 'r' || r == 'R' {
			raw = true
		}
	}

	quote := p.next()
	triple := false
	if p.pos+1 < len(p.src) && p.src[p.pos] == quote && p.src[p.pos+1] == quote {
		p.pos += 2
		triple = true
	}

	var sb strings.Builder
	for {
		if p.pos >= len(p.src) {
			return "", p.errorf("unterminated string")
		}
		r := p.next()
		switch {
		case r == quote && !triple:
			return sb.String(), nil
		case r == quote && triple:
			if p.pos+1 < len(p.src) && p.src[p.pos] == quote && p.src[p.pos+1] == quote {
				p.pos += 2
				return sb.String(), nil
			}
			sb.WriteRune(r)
		case r == '\n' && !triple:
			return "", p.errorf("newline in string")
		case r == '\\':
			if p.pos >= len(p.src) {
				return "", p.errorf("unterminated string")
			}
			if raw {
				sb.WriteRune(r)
				sb.WriteRune(p.next())
				continue
			}
			if err := p.escape(&sb); err != nil {
				return "", err
			}
		default:
			sb.WriteRune(r)
		}
	}
}

func (p *literalParser) escape(sb *strings.Builder) error {
	r := p.next()
	switch r {
	case '\n':
	case '\\', '\'', '"':
		sb.WriteRune(r)
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case '0':
		sb.WriteByte(0)
	case 'x', 'u', 'U':
		width := map[rune]int{'x': 2, 'u': 4, 'U': 8}[r]
		if p.pos+width > len(p.src) {
			return p.errorf("truncated \\%c escape", r)
		}
		code, err := strconv.ParseUint(string(p.src[p.pos:p.pos+width]), 16, 32)
		if err != nil {
			return p.errorf("invalid \\%c escape", r)
		}
		p.pos += width
		sb.WriteRune(rune(code))
	default:
		sb.WriteByte('\\')
		sb.WriteRune(r)
	}
	return nil
}

func (p *literalParser) number() (any, error) {
	start := p.pos
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		if unicode.IsDigit(r) || strings.ContainsRune("+-.eE_xXabcdefABCDEF", r) {
			p.pos++
			continue
		}
		break
	}
	text := strings.ReplaceAll(string(p.src[start:p.pos]), "_", "")
	if i, err := strconv.ParseInt(text, 0, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f, nil
	}
	return nil, p.errorf("invalid number %q", text)
}

func (p *literalParser) name() (any, error) {
	start := p.pos
	for p.pos < len(p.src) && (unicode.IsLetter(p.src[p.pos]) || unicode.IsDigit(p.src[p.pos]) || p.src[p.pos] == '_') {
		p.pos++
	}
	switch word := string(p.src[start:p.pos]); word {
	case "True":
		return true, nil
	case "False":
		return false, nil
	case "None":
		return nil, nil
	default:
		return nil, p.errorf("name %q is not a literal", word)
	}
}
