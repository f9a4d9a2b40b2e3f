// Package token defines language keywords and tokens used when lexing source code.
package token

import "sort"

// Type describes the type of a token as a string.
type Type string

// Position points to a particular location in an input string.
type Position struct {
	Char      int    // byte offset within the file
	LineStart int    // byte offset of the start of the current line
	Line      int    // 0-indexed line number
	Column    int    // 0-indexed column number
	File      string // filename
}

// LineNumber returns the 1-indexed line number for this position in the input.
func (p Position) LineNumber() int {
	return p.Line + 1
}

// ColumnNumber returns the 1-indexed column number for this position in the input.
func (p Position) ColumnNumber() int {
	return p.Column + 1
}

// Token represents one token lexed from the input source code.
type Token struct {
	Type          Type
	Literal       string
	StartPosition Position
	EndPosition   Position
}

// Token types
const (
	COLON    Type = ":"
	DEBUG    Type = "DEBUG"
	DECR     Type = "DECR"
	EOF      Type = "EOF"
	GETCH    Type = "GETCH"
	IDENT    Type = "IDENT"
	INCR     Type = "INCR"
	LBRACKET Type = "["
	LOOP     Type = "LOOP"
	LPAREN   Type = "("
	MAKE     Type = "MAKE"
	NUMBER   Type = "NUMBER"
	PLUS     Type = "+"
	PUTCH    Type = "PUTCH"
	RBRACKET Type = "]"
	RPAREN   Type = ")"
)

// Reserved keywords
var keywords = map[string]Type{
	"debug": DEBUG,
	"decr":  DECR,
	"getch": GETCH,
	"incr":  INCR,
	"loop":  LOOP,
	"make":  MAKE,
	"putch": PUTCH,
}

// LookupIdentifier returns the keyword type for the identifier, or IDENT.
func LookupIdentifier(identifier string) Type {
	if tok, ok := keywords[identifier]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword returns true if the word is reserved.
func IsKeyword(word string) bool {
	_, ok := keywords[word]
	return ok
}

// Keywords returns the reserved words in sorted order.
func Keywords() []string {
	words := make([]string, 0, len(keywords))
	for word := range keywords {
		words = append(words, word)
	}
	sort.Strings(words)
	return words
}
