package luatable

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/OCAP2/extractor/pkg/core"
)

// SyntaxError reports where the document stopped making sense.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Col, e.Msg)
}

// Is lets callers test for core.ErrSyntax.
func (e *SyntaxError) Is(target error) bool {
	return target == core.ErrSyntax
}

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokName
	tokString
	tokNumber
	tokTrue
	tokFalse
	tokNil
	tokLBrace
	tokRBrace
	tokLBracket
	tokRBracket
	tokAssign
	tokComma
	tokSemicolon
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokName:
		return "name"
	case tokString:
		return "string"
	case tokNumber:
		return "number"
	case tokTrue, tokFalse:
		return "boolean"
	case tokNil:
		return "nil"
	case tokLBrace:
		return "'{'"
	case tokRBrace:
		return "'}'"
	case tokLBracket:
		return "'['"
	case tokRBracket:
		return "']'"
	case tokAssign:
		return "'='"
	case tokComma:
		return "','"
	case tokSemicolon:
		return "';'"
	}
	return "unknown token"
}

type token struct {
	kind tokenKind
	text string
	num  float64
	line int
	col  int
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	// a UTF-8 byte order mark is common in files saved by editors
	src = strings.TrimPrefix(src, "\ufeff")
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) errorf(line, col int, format string, args ...any) error {
	return &SyntaxError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) peekByte(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *lexer) advance(n int) {
	for i := 0; i < n && l.pos < len(l.src); i++ {
		if l.src[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

// skipSpace consumes whitespace and comments.
func (l *lexer) skipSpace() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == '\v':
			l.advance(1)
		case c == '-' && l.peekByte(1) == '-':
			line, col := l.line, l.col
			l.advance(2)
			if level, ok := l.longBracketLevel(); ok {
				if _, err := l.readLongBracket(level, line, col); err != nil {
					return err
				}
				continue
			}
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance(1)
			}
		default:
			return nil
		}
	}
	return nil
}

// longBracketLevel checks for "[[" or "[==[" at the current position
// without consuming it.
func (l *lexer) longBracketLevel() (int, bool) {
	if l.peekByte(0) != '[' {
		return 0, false
	}
	level := 0
	for l.peekByte(1+level) == '=' {
		level++
	}
	if l.peekByte(1+level) != '[' {
		return 0, false
	}
	return level, true
}

func (l *lexer) readLongBracket(level, line, col int) (string, error) {
	l.advance(level + 2)
	// a newline right after the opening bracket is not part of the string
	if l.peekByte(0) == '\r' {
		l.advance(1)
	}
	if l.peekByte(0) == '\n' {
		l.advance(1)
	}
	closing := "]" + strings.Repeat("=", level) + "]"
	end := strings.Index(l.src[l.pos:], closing)
	if end < 0 {
		return "", l.errorf(line, col, "unterminated long bracket")
	}
	s := l.src[l.pos : l.pos+end]
	l.advance(end + len(closing))
	return s, nil
}

func (l *lexer) next() (token, error) {
	if err := l.skipSpace(); err != nil {
		return token{}, err
	}
	line, col := l.line, l.col
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: line, col: col}, nil
	}

	c := l.src[l.pos]
	switch {
	case c == '{':
		l.advance(1)
		return token{kind: tokLBrace, line: line, col: col}, nil
	case c == '}':
		l.advance(1)
		return token{kind: tokRBrace, line: line, col: col}, nil
	case c == '[':
		if level, ok := l.longBracketLevel(); ok {
			s, err := l.readLongBracket(level, line, col)
			if err != nil {
				return token{}, err
			}
			return token{kind: tokString, text: s, line: line, col: col}, nil
		}
		l.advance(1)
		return token{kind: tokLBracket, line: line, col: col}, nil
	case c == ']':
		l.advance(1)
		return token{kind: tokRBracket, line: line, col: col}, nil
	case c == '=':
		l.advance(1)
		return token{kind: tokAssign, line: line, col: col}, nil
	case c == ',':
		l.advance(1)
		return token{kind: tokComma, line: line, col: col}, nil
	case c == ';':
		l.advance(1)
		return token{kind: tokSemicolon, line: line, col: col}, nil
	case c == '"' || c == '\'':
		s, err := l.readString(c, line, col)
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, text: s, line: line, col: col}, nil
	case isDigit(c) || c == '.' || (c == '-' && (isDigit(l.peekByte(1)) || l.peekByte(1) == '.')):
		return l.readNumber(line, col)
	case isNameStart(c):
		start := l.pos
		for l.pos < len(l.src) && isNameChar(l.src[l.pos]) {
			l.advance(1)
		}
		word := l.src[start:l.pos]
		switch word {
		case "true":
			return token{kind: tokTrue, line: line, col: col}, nil
		case "false":
			return token{kind: tokFalse, line: line, col: col}, nil
		case "nil":
			return token{kind: tokNil, line: line, col: col}, nil
		}
		return token{kind: tokName, text: word, line: line, col: col}, nil
	}
	return token{}, l.errorf(line, col, "unexpected character %q", c)
}

func (l *lexer) readNumber(line, col int) (token, error) {
	start := l.pos
	if l.peekByte(0) == '-' {
		l.advance(1)
	}
	hex := l.peekByte(0) == '0' && (l.peekByte(1) == 'x' || l.peekByte(1) == 'X')
	if hex {
		l.advance(2)
	}
scan:
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case isDigit(c) || c == '.':
		case hex && isHexDigit(c):
		case !hex && (c == 'e' || c == 'E'), hex && (c == 'p' || c == 'P'):
			if n := l.peekByte(1); n == '+' || n == '-' {
				l.advance(1)
			}
		default:
			break scan
		}
		l.advance(1)
	}
	text := l.src[start:l.pos]
	var f float64
	var err error
	if hex && !strings.ContainsAny(text, ".pP") {
		var i int64
		i, err = strconv.ParseInt(text, 0, 64)
		f = float64(i)
	} else {
		f, err = strconv.ParseFloat(text, 64)
	}
	if err != nil {
		return token{}, l.errorf(line, col, "malformed number %q", text)
	}
	return token{kind: tokNumber, text: text, num: f, line: line, col: col}, nil
}

func (l *lexer) readString(quote byte, line, col int) (string, error) {
	l.advance(1)
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return "", l.errorf(line, col, "unterminated string")
		}
		c := l.src[l.pos]
		switch c {
		case quote:
			l.advance(1)
			return sb.String(), nil
		case '\n', '\r':
			return "", l.errorf(line, col, "unterminated string")
		case '\\':
			if err := l.readEscape(&sb); err != nil {
				return "", err
			}
		default:
			sb.WriteByte(c)
			l.advance(1)
		}
	}
}

func (l *lexer) readEscape(sb *strings.Builder) error {
	line, col := l.line, l.col
	l.advance(1)
	if l.pos >= len(l.src) {
		return l.errorf(line, col, "unterminated string")
	}
	c := l.src[l.pos]
	switch c {
	case 'a':
		sb.WriteByte('\a')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case 'v':
		sb.WriteByte('\v')
	case '\\', '"', '\'':
		sb.WriteByte(c)
	case '\n':
		sb.WriteByte('\n')
		l.advance(1)
		if l.peekByte(0) == '\r' {
			l.advance(1)
		}
		return nil
	case '\r':
		sb.WriteByte('\n')
		l.advance(1)
		if l.peekByte(0) == '\n' {
			l.advance(1)
		}
		return nil
	case 'z':
		l.advance(1)
		for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
			l.advance(1)
		}
		return nil
	case 'x':
		if !isHexDigit(l.peekByte(1)) || !isHexDigit(l.peekByte(2)) {
			return l.errorf(line, col, "invalid hex escape")
		}
		b, _ := strconv.ParseUint(l.src[l.pos+1:l.pos+3], 16, 8)
		sb.WriteByte(byte(b))
		l.advance(3)
		return nil
	case 'u':
		if l.peekByte(1) != '{' {
			return l.errorf(line, col, "invalid unicode escape")
		}
		end := strings.IndexByte(l.src[l.pos:], '}')
		if end < 0 {
			return l.errorf(line, col, "invalid unicode escape")
		}
		r, err := strconv.ParseUint(l.src[l.pos+2:l.pos+end], 16, 32)
		if err != nil || r > utf8.MaxRune {
			return l.errorf(line, col, "invalid unicode escape")
		}
		sb.WriteRune(rune(r))
		l.advance(end + 1)
		return nil
	default:
		if !isDigit(c) {
			return l.errorf(line, col, "invalid escape sequence \\%c", c)
		}
		n := 0
		for n < 3 && isDigit(l.peekByte(n)) {
			n++
		}
		v, _ := strconv.Atoi(l.src[l.pos : l.pos+n])
		if v > 255 {
			return l.errorf(line, col, "decimal escape too large")
		}
		sb.WriteByte(byte(v))
		l.advance(n)
		return nil
	}
	l.advance(1)
	return nil
}

func isDigit(c byte) bool     { return c >= '0' && c <= '9' }
func isHexDigit(c byte) bool  { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }
func isNameStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isNameChar(c byte) bool  { return isNameStart(c) || isDigit(c) }
func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
