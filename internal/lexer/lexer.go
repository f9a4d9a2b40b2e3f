// Package lexer converts Ribbon source text into a stream of tokens.
package lexer

import (
	"fmt"
	"strings"

	"github.com/ribbon-lang/ribbon/internal/token"
)

// Lexer scans source text one token at a time.
type Lexer struct {
	input     string
	file      string
	pos       int // byte offset of ch
	next      int // byte offset after ch
	ch        byte
	line      int
	lineStart int
}

// Option configures a Lexer.
type Option func(*Lexer)

// WithFile sets the filename recorded in token positions.
func WithFile(file string) Option {
	return func(l *Lexer) {
		l.file = file
	}
}

// New returns a Lexer for the given input.
func New(input string, opts ...Option) *Lexer {
	l := &Lexer{input: input}
	for _, opt := range opts {
		opt(l)
	}
	l.read()
	return l
}

// SetFilename changes the filename recorded in subsequent token positions.
func (l *Lexer) SetFilename(file string) {
	l.file = file
}

// Filename returns the filename recorded in token positions.
func (l *Lexer) Filename() string {
	return l.file
}

// Position returns the current position of the lexer.
func (l *Lexer) Position() token.Position {
	return token.Position{
		Char:      l.pos,
		LineStart: l.lineStart,
		Line:      l.line,
		Column:    l.pos - l.lineStart,
		File:      l.file,
	}
}

// Next returns the next token. At the end of input it returns an EOF token
// on every call. An unexpected character yields an error along with an EOF
// token positioned at the character.
func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespaceAndComments()
	start := l.Position()
	switch {
	case l.ch == 0 && l.pos >= len(l.input):
		return l.token(token.EOF, "", start), nil
	case isLetter(l.ch):
		word := l.readWhile(isIdentChar)
		return l.token(token.LookupIdentifier(word), word, start), nil
	case isDigit(l.ch):
		number := l.readWhile(isIdentChar)
		return l.token(token.NUMBER, number, start), nil
	}
	var typ token.Type
	switch l.ch {
	case '[':
		typ = token.LBRACKET
	case ']':
		typ = token.RBRACKET
	case '(':
		typ = token.LPAREN
	case ')':
		typ = token.RPAREN
	case ':':
		typ = token.COLON
	case '+':
		typ = token.PLUS
	default:
		ch := l.ch
		return l.token(token.EOF, "", start), fmt.Errorf("unexpected character %q", ch)
	}
	literal := string(l.ch)
	l.read()
	return l.token(typ, literal, start), nil
}

// GetLineText returns the full source line containing the token.
func (l *Lexer) GetLineText(tok token.Token) string {
	return LineAt(l.input, tok.StartPosition.LineStart)
}

// LineAt returns the line of input beginning at byte offset start.
func LineAt(input string, start int) string {
	if start < 0 || start > len(input) {
		return ""
	}
	rest := input[start:]
	if end := strings.IndexByte(rest, '\n'); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimRight(rest, "\r")
}

func (l *Lexer) token(typ token.Type, literal string, start token.Position) token.Token {
	return token.Token{
		Type:          typ,
		Literal:       literal,
		StartPosition: start,
		EndPosition:   l.Position(),
	}
}

func (l *Lexer) read() {
	if l.ch == '\n' {
		l.line++
		l.lineStart = l.next
	}
	l.pos = l.next
	if l.next >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.next]
	}
	l.next++
}

func (l *Lexer) peek() byte {
	if l.next >= len(l.input) {
		return 0
	}
	return l.input[l.next]
}

func (l *Lexer) readWhile(pred func(byte) bool) string {
	start := l.pos
	for l.pos < len(l.input) && pred(l.ch) {
		l.read()
	}
	return l.input[start:l.pos]
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.input) {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.read()
		case l.ch == '/' && l.peek() == '/':
			for l.pos < len(l.input) && l.ch != '\n' {
				l.read()
			}
		default:
			return
		}
	}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentChar(ch byte) bool {
	return isLetter(ch) || isDigit(ch)
}
