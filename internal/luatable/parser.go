package luatable

// Grammar accepted by Parse:
//
//	document := { Name '=' value [';' | ','] }
//	value    := Number | String | 'true' | 'false' | 'nil' | table
//	table    := '{' [ field { sep field } [sep] ] '}'
//	field    := '[' scalar ']' '=' value | Name '=' value | value
//	sep      := ',' | ';'

// frame is one open table while a document is being read.
type frame struct {
	tbl  *Table
	next int // next implicit index, 1-based
	key  Key
}

type parser struct {
	lex    *lexer
	peeked *token
}

// Parse reads a document of top-level assignments and returns them by name.
// Nested tables are built without recursion, so neither deep nesting nor
// very wide tables grow the call stack.
func Parse(text string) (map[string]Value, error) {
	p := &parser{lex: newLexer(text)}
	out := make(map[string]Value)
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokEOF {
			return out, nil
		}
		if tok.kind != tokName {
			return nil, p.unexpected(tok, "variable name")
		}
		if _, err := p.expect(tokAssign); err != nil {
			return nil, err
		}
		v, isNil, err := p.value()
		if err != nil {
			return nil, err
		}
		if !isNil {
			out[tok.text] = v
		}
		if sep, err := p.peek(); err != nil {
			return nil, err
		} else if sep.kind == tokSemicolon || sep.kind == tokComma {
			_, _ = p.next()
		}
	}
}

func (p *parser) next() (token, error) {
	if p.peeked != nil {
		t := *p.peeked
		p.peeked = nil
		return t, nil
	}
	return p.lex.next()
}

func (p *parser) peek() (token, error) {
	if p.peeked == nil {
		t, err := p.lex.next()
		if err != nil {
			return token{}, err
		}
		p.peeked = &t
	}
	return *p.peeked, nil
}

func (p *parser) expect(kind tokenKind) (token, error) {
	tok, err := p.next()
	if err != nil {
		return tok, err
	}
	if tok.kind != kind {
		return tok, p.unexpected(tok, kind.String())
	}
	return tok, nil
}

func (p *parser) unexpected(tok token, want string) error {
	return &SyntaxError{Line: tok.line, Col: tok.col, Msg: "expected " + want + ", found " + tok.kind.String()}
}

// scalar converts a literal token. isNil is set for 'nil'.
func (p *parser) scalar(tok token) (v Value, isNil bool, err error) {
	switch tok.kind {
	case tokNumber:
		return NumberValue(tok.num), false, nil
	case tokString:
		return StringValue(tok.text), false, nil
	case tokTrue:
		return BoolValue(true), false, nil
	case tokFalse:
		return BoolValue(false), false, nil
	case tokNil:
		return Value{}, true, nil
	}
	return Value{}, false, p.unexpected(tok, "value")
}

func (p *parser) value() (Value, bool, error) {
	tok, err := p.next()
	if err != nil {
		return Value{}, false, err
	}
	if tok.kind == tokLBrace {
		v, err := p.table()
		return v, false, err
	}
	return p.scalar(tok)
}

// table reads a table body; the opening brace has been consumed.
func (p *parser) table() (Value, error) {
	stack := []*frame{{tbl: NewTable(), next: 1}}
	for {
		f := stack[len(stack)-1]

		tok, err := p.next()
		if err != nil {
			return Value{}, err
		}

		if tok.kind == tokRBrace {
			stack = stack[:len(stack)-1]
			done := TableValue(f.tbl)
			if len(stack) == 0 {
				return done, nil
			}
			parent := stack[len(stack)-1]
			parent.store(done, false)
			if err := p.fieldEnd(); err != nil {
				return Value{}, err
			}
			continue
		}

		// key part
		valueTok := tok
		switch tok.kind {
		case tokLBracket:
			kt, err := p.next()
			if err != nil {
				return Value{}, err
			}
			kv, isNil, err := p.scalar(kt)
			if err != nil {
				return Value{}, err
			}
			key, ok := keyFromValue(kv)
			if isNil || !ok {
				return Value{}, &SyntaxError{Line: kt.line, Col: kt.col, Msg: "table key must be a number, string or boolean"}
			}
			if _, err := p.expect(tokRBracket); err != nil {
				return Value{}, err
			}
			if _, err := p.expect(tokAssign); err != nil {
				return Value{}, err
			}
			f.key = key
			if valueTok, err = p.next(); err != nil {
				return Value{}, err
			}
		case tokName:
			if _, err := p.expect(tokAssign); err != nil {
				return Value{}, err
			}
			f.key = StringKey(tok.text)
			if valueTok, err = p.next(); err != nil {
				return Value{}, err
			}
		default:
			f.key = IntKey(f.next)
			f.next++
		}

		// value part
		if valueTok.kind == tokLBrace {
			stack = append(stack, &frame{tbl: NewTable(), next: 1})
			continue
		}
		v, isNil, err := p.scalar(valueTok)
		if err != nil {
			return Value{}, err
		}
		f.store(v, isNil)
		if err := p.fieldEnd(); err != nil {
			return Value{}, err
		}
	}
}

// store assigns v to the frame's pending key. nil assignments are dropped.
func (f *frame) store(v Value, isNil bool) {
	if isNil {
		return
	}
	f.tbl.Set(f.key, v)
}

// fieldEnd consumes a field separator, or leaves a closing brace for the
// caller. Anything else means the field list is malformed.
func (p *parser) fieldEnd() error {
	tok, err := p.peek()
	if err != nil {
		return err
	}
	switch tok.kind {
	case tokComma, tokSemicolon:
		_, _ = p.next()
		return nil
	case tokRBrace:
		return nil
	}
	return p.unexpected(tok, "',' or '}'")
}
