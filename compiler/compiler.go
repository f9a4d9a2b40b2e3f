// Package compiler translates Ribbon source text into bytecode.
//
// The grammar is small enough to be parsed in a single forward pass over the
// token stream:
//
//	program := decl* stmt*
//	decl    := 'make' IDENT '[' NUMBER ']' | 'make' IDENT ':' 'idx'
//	stmt    := ('incr' | 'decr') target | 'putch' | 'getch' | 'debug'
//	         | 'loop' '(' stmt* ')' | '+' NUMBER
//	target  := TAPE '[' CURSOR ']' | CURSOR
//
// Loops are resolved with backpatching. Opening a loop emits a forward
// Branch with a Placeholder distance and pushes its index onto a stack.
// Closing a loop emits the backward Branch, pops the stack and patches the
// forward distance. Nesting depth is bounded only by memory since no
// recursion is involved.
package compiler

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ribbon-lang/ribbon/bytecode"
	"github.com/ribbon-lang/ribbon/errz"
	"github.com/ribbon-lang/ribbon/internal/lexer"
	"github.com/ribbon-lang/ribbon/internal/token"
	"github.com/ribbon-lang/ribbon/op"
	"github.com/ribbon-lang/ribbon/tape"
)

const (
	// Placeholder is a temporary branch distance written during compilation,
	// which is always replaced before compilation is complete.
	Placeholder = -1

	// DefaultTapeName is the tape name used when none is declared.
	DefaultTapeName = "tape"

	// DefaultCursorName is the cursor name used when none is declared.
	DefaultCursorName = "idx"

	// MaxTapeSize is the largest tape that may be declared.
	MaxTapeSize = 1 << 30

	// MaxRepeat is the largest count accepted by a repeat statement.
	MaxRepeat = 1 << 20
)

// Config holds compiler configuration options.
type Config struct {
	// Filename is the source filename, used for error messages.
	Filename string

	// DefaultTapeSize is the tape size allocated when the source does not
	// declare one. Zero means tape.DefaultSize.
	DefaultTapeSize int

	// Logger receives debug output. The zero value discards it.
	Logger *zerolog.Logger
}

type openLoop struct {
	index int
	tok   token.Token
}

// Compiler is used to compile Ribbon source into bytecode.
type Compiler struct {
	lexer  *lexer.Lexer
	source string
	code   *Code
	logger zerolog.Logger

	cur token.Token

	tapeName        string
	cursorName      string
	tapeDeclared    bool
	cursorDeclared  bool
	defaultTapeSize int
	allocated       bool
	started         bool

	loops []openLoop

	// repeatable holds the instruction emitted by the previous simple
	// statement, if any.
	repeatable *bytecode.Instruction
}

// Compile compiles the given source and returns immutable bytecode.
// Pass nil for cfg to use default settings.
func Compile(source string, cfg *Config) (*bytecode.Program, error) {
	c := New(source, cfg)
	code, err := c.CompileCode()
	if err != nil {
		return nil, err
	}
	return code.ToBytecode(), nil
}

// New creates and returns a new Compiler. Pass nil for cfg to use defaults.
func New(source string, cfg *Config) *Compiler {
	c := &Compiler{
		source:          source,
		tapeName:        DefaultTapeName,
		cursorName:      DefaultCursorName,
		defaultTapeSize: tape.DefaultSize,
		logger:          zerolog.Nop(),
	}
	filename := ""
	if cfg != nil {
		filename = cfg.Filename
		if cfg.DefaultTapeSize > 0 {
			c.defaultTapeSize = cfg.DefaultTapeSize
		}
		if cfg.Logger != nil {
			c.logger = *cfg.Logger
		}
	}
	c.lexer = lexer.New(source, lexer.WithFile(filename))
	c.code = &Code{filename: filename, source: source}
	return c
}

// Code returns the code compiled so far.
func (c *Compiler) Code() *Code {
	return c.code
}

// CompileCode compiles the whole source and returns the mutable Code.
func (c *Compiler) CompileCode() (*Code, error) {
	if err := c.advance(); err != nil {
		return nil, err
	}
	for c.cur.Type != token.EOF {
		var err error
		if c.cur.Type == token.MAKE {
			err = c.compileDeclaration()
		} else {
			err = c.compileStatement()
		}
		if err != nil {
			return nil, err
		}
	}
	if n := len(c.loops); n > 0 {
		open := c.loops[n-1]
		return nil, c.errorAt(open.tok, "unbalanced loop: 'loop' is never closed")
	}
	c.logger.Debug().
		Str("file", c.code.filename).
		Int("instructions", c.code.InstructionCount()).
		Str("tape", c.tapeName).
		Str("cursor", c.cursorName).
		Msg("compiled program")
	return c.code, nil
}

func (c *Compiler) compileDeclaration() error {
	makeTok := c.cur
	if c.started {
		return c.errorAt(makeTok, "declarations must appear before statements")
	}
	if err := c.advance(); err != nil {
		return err
	}
	name, err := c.expect(token.IDENT, "a name")
	if err != nil {
		return err
	}
	switch c.cur.Type {
	case token.LBRACKET:
		if c.tapeDeclared {
			return c.errorAt(name, "tape %q already declared", c.tapeName)
		}
		if err := c.advance(); err != nil {
			return err
		}
		sizeTok, err := c.expect(token.NUMBER, "a tape size")
		if err != nil {
			return err
		}
		size, err := c.parseNumber(sizeTok, MaxTapeSize)
		if err != nil {
			return err
		}
		if size == 0 {
			return c.errorAt(sizeTok, "tape size must be greater than zero")
		}
		if _, err := c.expect(token.RBRACKET, "']'"); err != nil {
			return err
		}
		c.tapeName = name.Literal
		c.tapeDeclared = true
		c.allocated = true
		c.code.emit(bytecode.AllocateTape(size), makeTok.StartPosition.LineNumber())
	case token.COLON:
		if c.cursorDeclared {
			return c.errorAt(name, "cursor %q already declared", c.cursorName)
		}
		if err := c.advance(); err != nil {
			return err
		}
		idx, err := c.expect(token.IDENT, "'idx'")
		if err != nil {
			return err
		}
		if idx.Literal != DefaultCursorName {
			return c.errorAt(idx, "unexpected token %q (expected 'idx')", idx.Literal)
		}
		c.cursorName = name.Literal
		c.cursorDeclared = true
	default:
		return c.unexpected("'[' or ':'")
	}
	c.repeatable = nil
	return nil
}

func (c *Compiler) compileStatement() error {
	tok := c.cur
	line := tok.StartPosition.LineNumber()
	if !c.started {
		c.started = true
		if !c.allocated {
			c.allocated = true
			c.code.emit(bytecode.AllocateTape(c.defaultTapeSize), line)
		}
	}
	switch tok.Type {
	case token.INCR, token.DECR:
		if err := c.advance(); err != nil {
			return err
		}
		code, err := c.compileTarget(tok.Type == token.INCR)
		if err != nil {
			return err
		}
		c.emitSimple(bytecode.Op(code), line)
		return nil
	case token.PUTCH:
		c.emitSimple(bytecode.Op(op.WriteChar), line)
	case token.GETCH:
		c.emitSimple(bytecode.Op(op.ReadChar), line)
	case token.DEBUG:
		c.emitSimple(bytecode.Op(op.Debug), line)
	case token.LOOP:
		if err := c.advance(); err != nil {
			return err
		}
		if c.cur.Type != token.LPAREN {
			return c.unexpected("'('")
		}
		c.openLoop(tok, line)
	case token.RPAREN:
		if err := c.closeLoop(tok, line); err != nil {
			return err
		}
	case token.PLUS:
		return c.compileRepeat(tok, line)
	default:
		return c.unexpected("a statement")
	}
	return c.advance()
}

// compileTarget parses TAPE '[' CURSOR ']' or CURSOR and returns the opcode
// it selects.
func (c *Compiler) compileTarget(incr bool) (op.Code, error) {
	name, err := c.expect(token.IDENT, "a tape or cursor name")
	if err != nil {
		return op.Invalid, err
	}
	if c.cur.Type != token.LBRACKET {
		if name.Literal != c.cursorName {
			return op.Invalid, c.undeclared(name)
		}
		if incr {
			return op.AdvanceCursor, nil
		}
		return op.RetreatCursor, nil
	}
	if name.Literal != c.tapeName {
		return op.Invalid, c.undeclared(name)
	}
	if err := c.advance(); err != nil {
		return op.Invalid, err
	}
	cursor, err := c.expect(token.IDENT, "a cursor name")
	if err != nil {
		return op.Invalid, err
	}
	if cursor.Literal != c.cursorName {
		return op.Invalid, c.undeclared(cursor)
	}
	if _, err := c.expect(token.RBRACKET, "']'"); err != nil {
		return op.Invalid, err
	}
	if incr {
		return op.IncrementCell, nil
	}
	return op.DecrementCell, nil
}

func (c *Compiler) compileRepeat(plus token.Token, line int) error {
	if c.repeatable == nil {
		return c.errorAt(plus, "nothing to repeat before '+'")
	}
	if err := c.advance(); err != nil {
		return err
	}
	countTok, err := c.expect(token.NUMBER, "a repeat count")
	if err != nil {
		return err
	}
	count, err := c.parseNumber(countTok, MaxRepeat)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		c.code.emit(*c.repeatable, line)
	}
	return nil
}

func (c *Compiler) emitSimple(instr bytecode.Instruction, line int) {
	c.code.emit(instr, line)
	c.repeatable = &instr
}

func (c *Compiler) openLoop(tok token.Token, line int) {
	pos := c.code.emit(bytecode.Branch(Placeholder, op.Forward), line)
	c.loops = append(c.loops, openLoop{index: pos, tok: tok})
	c.repeatable = nil
}

func (c *Compiler) closeLoop(tok token.Token, line int) error {
	n := len(c.loops)
	if n == 0 {
		return c.errorAt(tok, "unbalanced loop: ')' has no matching 'loop'")
	}
	start := c.loops[n-1].index
	c.loops = c.loops[:n-1]
	c.code.emit(bytecode.Branch(c.code.InstructionCount()-start, op.Backward), line)
	c.code.patchBranch(start, c.code.InstructionCount()-start)
	c.repeatable = nil
	return nil
}

// advance moves to the next token.
func (c *Compiler) advance() error {
	tok, err := c.lexer.Next()
	if err != nil {
		return c.errorAt(tok, "%s", err.Error())
	}
	c.cur = tok
	return nil
}

// expect consumes the current token if it has the given type.
func (c *Compiler) expect(typ token.Type, what string) (token.Token, error) {
	if c.cur.Type != typ {
		return token.Token{}, c.unexpected(what)
	}
	tok := c.cur
	if err := c.advance(); err != nil {
		return token.Token{}, err
	}
	return tok, nil
}

func (c *Compiler) parseNumber(tok token.Token, limit int) (int, error) {
	n, err := strconv.ParseUint(tok.Literal, 10, 64)
	if err != nil {
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
			return 0, c.errorAt(tok, "number %s out of range", tok.Literal)
		}
		return 0, c.errorAt(tok, "malformed number %q", tok.Literal)
	}
	if n > uint64(limit) {
		return 0, c.errorAt(tok, "number %s out of range (max %d)", tok.Literal, limit)
	}
	return int(n), nil
}

func (c *Compiler) unexpected(expected string) error {
	if c.cur.Type == token.EOF {
		return c.errorAt(c.cur, "unexpected end of input (expected %s)", expected)
	}
	err := c.errorAt(c.cur, "unexpected token %q (expected %s)", c.cur.Literal, expected)
	if c.cur.Type == token.IDENT {
		err.WithNote(errz.DidYouMean(errz.Suggest(c.cur.Literal, token.Keywords())))
	}
	return err
}

func (c *Compiler) undeclared(name token.Token) error {
	return c.errorAt(name, "undeclared name %q", name.Literal).
		WithNote(errz.DidYouMean(errz.Suggest(name.Literal, []string{c.tapeName, c.cursorName})))
}

func (c *Compiler) errorAt(tok token.Token, format string, args ...any) *errz.CompileError {
	pos := tok.StartPosition
	return errz.NewCompileError(errz.SourceLocation{
		Filename: c.code.filename,
		Line:     pos.LineNumber(),
		Column:   pos.ColumnNumber(),
		Source:   lexer.LineAt(c.source, pos.LineStart),
	}, format, args...)
}

func (c *Compiler) String() string {
	return fmt.Sprintf("Compiler(tape=%s, cursor=%s, instructions=%d)",
		c.tapeName, c.cursorName, c.code.InstructionCount())
}
