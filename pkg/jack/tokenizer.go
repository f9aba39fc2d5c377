package jack

import (
	"strconv"

	"github.com/hmny-oss/n2t-toolchain/internal/diag"
)

// ----------------------------------------------------------------------------
// Tokenizer

// Tokenizer turns Jack source text into a token stream. It is a hand-rolled
// character state machine rather than a regex/parser-combinator scan: the block
// comment rule needs two-character lookahead for its closing '*/' and the whole
// thing is small enough that a library buys nothing here.
type Tokenizer struct {
	src  []byte
	pos  int
	line int
}

func NewTokenizer(src []byte) *Tokenizer {
	return &Tokenizer{src: src, line: 1}
}

func (tz *Tokenizer) peek() (byte, bool) {
	if tz.pos >= len(tz.src) {
		return 0, false
	}
	return tz.src[tz.pos], true
}

func (tz *Tokenizer) peekAt(offset int) (byte, bool) {
	idx := tz.pos + offset
	if idx >= len(tz.src) {
		return 0, false
	}
	return tz.src[idx], true
}

func (tz *Tokenizer) advance() byte {
	c := tz.src[tz.pos]
	tz.pos++
	if c == '\n' {
		tz.line++
	}
	return c
}

// Tokenize runs the full state machine to completion, returning every token in
// the source or the first error encountered (unterminated string/comment,
// malformed lexeme, integer overflow).
func (tz *Tokenizer) Tokenize() ([]Token, error) {
	tokens := []Token{}
	for {
		tok, ok, err := tz.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

// Next skips whitespace/comments (state: outside-token) and produces the next
// token, or (_, false, nil) at end of input.
func (tz *Tokenizer) Next() (Token, bool, error) {
	if err := tz.skipWhitespaceAndComments(); err != nil {
		return Token{}, false, err
	}

	c, ok := tz.peek()
	if !ok {
		return Token{}, false, nil
	}
	line := tz.line

	switch {
	case symbols[c]:
		tz.advance()
		return Token{Type: SymbolTok, Literal: string(c), Line: line}, true, nil
	case c == '"':
		return tz.scanString(line)
	default:
		return tz.scanWord(line)
	}
}

// skipWhitespaceAndComments consumes runs of whitespace, '//' line comments and
// '/* ... */' block comments (states: in-line-comment, in-block-comment); a bare
// '/**/' is an empty block comment, not a malformed one.
func (tz *Tokenizer) skipWhitespaceAndComments() error {
	for {
		c, ok := tz.peek()
		if !ok {
			return nil
		}

		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			tz.advance()
		case c == '/' && peekIs(tz, 1, '/'):
			tz.advance()
			tz.advance()
			for {
				c, ok := tz.peek()
				if !ok || c == '\n' {
					break
				}
				tz.advance()
			}
		case c == '/' && peekIs(tz, 1, '*'):
			startLine := tz.line
			tz.advance()
			tz.advance()
			closed := false
			for {
				c, ok := tz.peek()
				if !ok {
					break
				}
				if c == '*' && peekIs(tz, 1, '/') {
					tz.advance()
					tz.advance()
					closed = true
					break
				}
				tz.advance()
			}
			if !closed {
				return diag.Errorf(startLine, "unterminated block comment")
			}
		default:
			return nil
		}
	}
}

func peekIs(tz *Tokenizer, offset int, want byte) bool {
	c, ok := tz.peekAt(offset)
	return ok && c == want
}

// scanString consumes through the closing '"' (state: in-string); a newline
// before the closing quote is a syntax error, never a literal embedded newline.
func (tz *Tokenizer) scanString(line int) (Token, bool, error) {
	tz.advance() // opening quote
	start := tz.pos
	for {
		c, ok := tz.peek()
		if !ok || c == '\n' {
			return Token{}, false, diag.Errorf(line, "unterminated string constant")
		}
		if c == '"' {
			literal := string(tz.src[start:tz.pos])
			tz.advance() // closing quote
			return Token{Type: StringConstTok, Literal: literal, Line: line}, true, nil
		}
		tz.advance()
	}
}

// scanWord consumes a maximal run of non-whitespace, non-delimiter characters
// (state: in-word) and classifies the resulting lexeme as a Keyword, IntConst or
// Identifier token (step 4).
func (tz *Tokenizer) scanWord(line int) (Token, bool, error) {
	start := tz.pos
	for {
		c, ok := tz.peek()
		if !ok || c == ' ' || c == '\t' || c == '\r' || c == '\n' || symbols[c] || c == '"' {
			break
		}
		tz.advance()
	}

	if tz.pos == start {
		return Token{}, false, diag.Errorf(line, "unexpected character %q", tz.src[tz.pos])
	}

	lexeme := string(tz.src[start:tz.pos])
	if keywords[lexeme] {
		return Token{Type: KeywordTok, Literal: lexeme, Line: line}, true, nil
	}

	if isAllDigits(lexeme) {
		n, err := strconv.ParseUint(lexeme, 10, 32)
		if err != nil || n > maxIntConst {
			return Token{}, false, diag.Rangef(line, "integer constant %q out of range (0..%d)", lexeme, maxIntConst)
		}
		return Token{Type: IntConstTok, Literal: lexeme, IntVal: uint16(n), Line: line}, true, nil
	}

	if lexeme[0] >= '0' && lexeme[0] <= '9' {
		return Token{}, false, diag.Errorf(line, "identifier %q cannot start with a digit", lexeme)
	}

	return Token{Type: IdentifierTok, Literal: lexeme, Line: line}, true, nil
}

func isAllDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
