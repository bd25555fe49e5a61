package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Keyword is an EDN keyword, stored with its leading colon.
type Keyword string

// Symbol is an EDN symbol such as ?e, $, _ or clojure.string/includes?.
type Symbol string

// Vector is an EDN vector.
type Vector []any

// List is an EDN list.
type List []any

type reader struct {
	src string
	pos int
}

// ReadEDN reads every form in src.
func ReadEDN(src string) ([]any, error) {
	r := &reader{src: src}
	var forms []any
	for {
		r.skip()
		if r.pos >= len(r.src) {
			return forms, nil
		}
		form, err := r.read()
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
}

func (r *reader) skip() {
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch {
		case c == ';':
			for r.pos < len(r.src) && r.src[r.pos] != '\n' {
				r.pos++
			}
		case c == ',' || c == ' ' || c == '\t' || c == '\n' || c == '\r':
			r.pos++
		default:
			return
		}
	}
}

func (r *reader) read() (any, error) {
	r.skip()
	if r.pos >= len(r.src) {
		return nil, fmt.Errorf("%w: unexpected end of input", ErrParse)
	}

	switch c := r.src[r.pos]; c {
	case '[':
		r.pos++
		items, err := r.readSeq(']')
		return Vector(items), err
	case '(':
		r.pos++
		items, err := r.readSeq(')')
		return List(items), err
	case ']', ')', '}':
		return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrParse, c, r.pos)
	case '{':
		return nil, fmt.Errorf("%w: maps are not supported (offset %d)", ErrUnsupported, r.pos)
	case '#':
		return nil, fmt.Errorf("%w: reader macros are not supported (offset %d)", ErrUnsupported, r.pos)
	case '"':
		return r.readString()
	default:
		return r.readAtom()
	}
}

func (r *reader) readSeq(closing byte) ([]any, error) {
	items := []any{}
	for {
		r.skip()
		if r.pos >= len(r.src) {
			return nil, fmt.Errorf("%w: missing %q", ErrParse, closing)
		}
		if r.src[r.pos] == closing {
			r.pos++
			return items, nil
		}
		item, err := r.read()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

func (r *reader) readString() (string, error) {
	start := r.pos
	r.pos++ // opening quote

	var sb strings.Builder
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		r.pos++
		switch c {
		case '"':
			return sb.String(), nil
		case '\\':
			if r.pos >= len(r.src) {
				return "", fmt.Errorf("%w: unterminated string at offset %d", ErrParse, start)
			}
			esc := r.src[r.pos]
			r.pos++
			switch esc {
			case '"', '\\':
				sb.WriteByte(esc)
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				return "", fmt.Errorf("%w: invalid escape \\%c at offset %d", ErrParse, esc, r.pos-2)
			}
		default:
			sb.WriteByte(c)
		}
	}
	return "", fmt.Errorf("%w: unterminated string at offset %d", ErrParse, start)
}

func (r *reader) readAtom() (any, error) {
	start := r.pos
	for r.pos < len(r.src) && !isDelimiter(r.src[r.pos]) {
		r.pos++
	}
	tok := r.src[start:r.pos]

	switch {
	case tok == "true":
		return true, nil
	case tok == "false":
		return false, nil
	case tok == "nil":
		return nil, nil
	case tok[0] == ':':
		if len(tok) == 1 {
			return nil, fmt.Errorf("%w: empty keyword at offset %d", ErrParse, start)
		}
		return Keyword(tok), nil
	case isNumberStart(tok):
		if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid number %q at offset %d", ErrParse, tok, start)
		}
		return f, nil
	}
	return Symbol(tok), nil
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', ',', ';', '"', '[', ']', '(', ')', '{', '}':
		return true
	}
	return false
}

func isNumberStart(tok string) bool {
	if tok[0] >= '0' && tok[0] <= '9' {
		return true
	}
	return len(tok) > 1 && (tok[0] == '-' || tok[0] == '+') && tok[1] >= '0' && tok[1] <= '9'
}
