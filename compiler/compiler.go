// Package compiler implements Nilan's single-pass Pratt-precedence
// compiler: it parses and emits bytecode in the same pass, with no
// intermediate AST. Panic-mode error recovery lets one compile report
// more than one syntax error.
package compiler

import (
	"fmt"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"nilan/chunk"
	"nilan/scanner"
	"nilan/token"
	"nilan/value"
)

// precedence orders the grammar's binding powers from loosest to
// tightest, exactly spec.md §4.3's ladder.
type precedence int

const (
	precNone precedence = iota
	precAssignment
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

type parseFn func(c *Compiler)

// parseRule is the Pratt dispatch table entry for one token kind: an
// optional prefix handler (called when the token starts an
// expression), an optional infix handler (called when it continues
// one), and the binding power used when the token appears infix.
type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

// Compiler parses a token stream and emits directly into a Chunk. It
// borrows its Scanner's source and shares an Allocator with whatever VM
// will later run the compiled Chunk, so that string constants interned
// here retain their identity at run time.
type Compiler struct {
	scanner   *scanner.Scanner
	allocator *value.Allocator
	out       *chunk.Chunk

	previous token.Token
	current  token.Token

	hadError  bool
	panicMode bool
	errors    *multierror.Error

	rules map[token.Kind]parseRule
}

// New returns a Compiler over source, ready to Compile. allocator is
// shared with the VM that will execute the result, so interned string
// constants compare equal by identity at run time.
func New(source string, allocator *value.Allocator) *Compiler {
	c := &Compiler{
		scanner:   scanner.New(source),
		allocator: allocator,
		out:       chunk.New(),
	}
	c.rules = c.parseRules()
	return c
}

// Compile parses and compiles the whole source in one pass and returns
// the resulting Chunk. The Chunk is always returned, even on error
// (panic-mode recovery keeps compiling after the first error to surface
// later ones too) — callers must check the error before running it.
func (c *Compiler) Compile() (*chunk.Chunk, error) {
	c.advance()
	if c.check(token.EOF) {
		// An empty (or whitespace/comment-only) program has no
		// declarations to parse, but the grammar still requires at
		// least one expression statement — report it the same way a
		// mid-program "Expected expression" would be.
		c.errorAtCurrent("Expected expression.")
	}
	for !c.match(token.EOF) {
		c.declaration()
	}
	c.emitOp(chunk.OpReturn)

	if c.hadError {
		return c.out, c.errors.ErrorOrNil()
	}
	return c.out, nil
}

// --- token stream plumbing ---

// advance moves to the next token, reporting (but not stopping on)
// any scanner error — the loop keeps pulling tokens until it gets a
// valid one, so a single bad byte doesn't cascade into endless errors.
func (c *Compiler) advance() {
	c.previous = c.current
	for {
		tok, err := c.scanner.Next()
		if err == nil {
			c.current = tok
			return
		}
		c.errorAtLine(scannerErrorLine(err), err.Error())
	}
}

func scannerErrorLine(err error) int {
	switch e := err.(type) {
	case scanner.UnexpectedCharacterError:
		return e.Line
	case scanner.UnterminatedStringError:
		return e.Line
	default:
		return 0
	}
}

func (c *Compiler) check(kind token.Kind) bool { return c.current.Kind == kind }

func (c *Compiler) match(kind token.Kind) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

// consume advances past current if it has the expected kind, else
// records a syntax error at current without advancing.
func (c *Compiler) consume(kind token.Kind, message string) {
	if c.check(kind) {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

// --- error reporting / panic mode ---

func (c *Compiler) errorAtCurrent(message string) { c.errorAt(c.current, message) }
func (c *Compiler) error(message string)          { c.errorAt(c.previous, message) }

func (c *Compiler) errorAt(tok token.Token, message string) {
	c.errorAtLine(tok.Line, message)
}

// errorAtLine records a diagnostic unless the parser is already in
// panic mode, in which case it is suppressed: only the first error
// before each synchronization point is reported, per spec.md §4.3.
func (c *Compiler) errorAtLine(line int, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	c.errors = multierror.Append(c.errors, SyntaxError{Line: line, Message: message})
	logrus.WithField("line", line).Debug(message)
}

// synchronize exits panic mode and skips tokens until it has just
// consumed a ';' or the current token opens a new statement, so the
// remainder of the source can still be checked for further errors.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Kind != token.EOF {
		if c.previous.Kind == token.Semicolon {
			return
		}
		switch c.current.Kind {
		case token.Class, token.Fun, token.Var, token.For, token.If, token.While, token.Print, token.Return:
			return
		}
		c.advance()
	}
}

// --- emission helpers ---

func (c *Compiler) emitOp(op chunk.OpCode) {
	c.out.WriteOp(op, c.previous.Line)
}

func (c *Compiler) emitConstant(op chunk.OpCode, val value.Value) {
	if err := c.out.WriteConstant(op, val, c.previous.Line); err != nil {
		c.error(err.Error())
	}
}

// identifierConstant interns name and adds it to the constant pool,
// returning its (as yet unchecked) index. The 256-entry ceiling is
// enforced where the index is actually written as an operand byte.
func (c *Compiler) identifierConstant(tok token.Token) int {
	name := c.allocator.CopyString(tok.Lexeme)
	return c.out.AddConstant(value.Object(name))
}

func (c *Compiler) emitConstantIndex(op chunk.OpCode, idx int) {
	if err := c.out.ConstantIndex(op, idx, c.previous.Line); err != nil {
		c.error(err.Error())
	}
}

// --- declarations & statements ---

// declaration parses one declaration (currently only `var`) or falls
// through to statement. Panic-mode recovery runs after each failed
// declaration so multiple errors can be reported in one compile.
func (c *Compiler) declaration() {
	if c.match(token.Var) {
		c.varDeclaration()
	} else {
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

// varDeclaration parses `var IDENT (= expr)? ;` and emits
// `OP_DEFINE_GLOBAL`. An omitted initializer binds the name to nil,
// matching spec.md §4.3.
func (c *Compiler) varDeclaration() {
	c.consume(token.Identifier, "Expected variable name.")
	global := c.identifierConstant(c.previous)

	if c.match(token.Equal) {
		c.expression()
	} else {
		c.emitOp(chunk.OpNil)
	}
	c.consume(token.Semicolon, "Expected ';' after variable declaration.")
	c.emitConstantIndex(chunk.OpDefineGlobal, global)
}

func (c *Compiler) statement() {
	if c.match(token.Print) {
		c.printStatement()
	} else {
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.Semicolon, "Expected ';' after value.")
	c.emitOp(chunk.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.Semicolon, "Expected ';' after expression.")
	c.emitOp(chunk.OpPop)
}

// --- expressions ---

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

// parsePrecedence is the Pratt engine: advance to consume a prefix
// token, invoke its prefix rule, then keep folding in infix operators
// whose precedence is at least prec.
func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := c.rules[c.previous.Kind].prefix
	if prefix == nil {
		c.error("Expected expression.")
		return
	}
	prefix(c)

	for prec <= c.rules[c.current.Kind].precedence {
		c.advance()
		infix := c.rules[c.previous.Kind].infix
		infix(c)
	}
}

func (c *Compiler) grouping() {
	c.expression()
	c.consume(token.RightParen, "Expected ')' after expression.")
}

func (c *Compiler) unary() {
	opKind := c.previous.Kind
	line := c.previous.Line

	// Compile the operand at unary precedence so e.g. `-a.b` would bind
	// tighter than `-` if this grammar ever grew a `.` operator.
	c.parsePrecedence(precUnary)

	switch opKind {
	case token.Minus:
		c.out.WriteOp(chunk.OpNegate, line)
	case token.Bang:
		c.out.WriteOp(chunk.OpNot, line)
	}
}

func (c *Compiler) binary() {
	opKind := c.previous.Kind
	line := c.previous.Line
	rule := c.rules[opKind]

	// Left-associative: parse the RHS at one precedence level higher
	// than this operator's own.
	c.parsePrecedence(rule.precedence + 1)

	switch opKind {
	case token.Plus:
		c.out.WriteOp(chunk.OpAdd, line)
	case token.Minus:
		c.out.WriteOp(chunk.OpSubtract, line)
	case token.Star:
		c.out.WriteOp(chunk.OpMultiply, line)
	case token.Slash:
		c.out.WriteOp(chunk.OpDivide, line)
	case token.EqualEqual:
		c.out.WriteOp(chunk.OpEqual, line)
	case token.BangEqual:
		c.out.WriteOp(chunk.OpEqual, line)
		c.out.WriteOp(chunk.OpNot, line)
	case token.Less:
		c.out.WriteOp(chunk.OpLess, line)
	case token.LessEqual:
		c.out.WriteOp(chunk.OpGreater, line)
		c.out.WriteOp(chunk.OpNot, line)
	case token.Greater:
		c.out.WriteOp(chunk.OpGreater, line)
	case token.GreaterEqual:
		c.out.WriteOp(chunk.OpLess, line)
		c.out.WriteOp(chunk.OpNot, line)
	}
}

func (c *Compiler) number() {
	f, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error(fmt.Sprintf("Invalid number literal %q.", c.previous.Lexeme))
		return
	}
	c.emitConstant(chunk.OpConstant, value.Number(f))
}

func (c *Compiler) string() {
	obj := c.allocator.CopyString(c.previous.Lexeme)
	c.emitConstant(chunk.OpConstant, value.Object(obj))
}

func (c *Compiler) literal() {
	switch c.previous.Kind {
	case token.False:
		c.emitOp(chunk.OpFalse)
	case token.True:
		c.emitOp(chunk.OpTrue)
	case token.Nil:
		c.emitOp(chunk.OpNil)
	}
}

// variable compiles a bare identifier reference. Assignment to an
// existing global is a non-goal (spec.md §9 Open Question): `=` is
// simply never bound as an infix operator at PrecAssignment, so
// `x = 1;` fails in consume(Semicolon, ...) rather than being parsed as
// an assignment.
func (c *Compiler) variable() {
	idx := c.identifierConstant(c.previous)
	c.emitConstantIndex(chunk.OpGetGlobal, idx)
}

func (c *Compiler) parseRules() map[token.Kind]parseRule {
	return map[token.Kind]parseRule{
		token.LeftParen:    {prefix: (*Compiler).grouping},
		token.Minus:        {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: precTerm},
		token.Plus:         {infix: (*Compiler).binary, precedence: precTerm},
		token.Slash:        {infix: (*Compiler).binary, precedence: precFactor},
		token.Star:         {infix: (*Compiler).binary, precedence: precFactor},
		token.Bang:         {prefix: (*Compiler).unary},
		token.BangEqual:    {infix: (*Compiler).binary, precedence: precEquality},
		token.EqualEqual:   {infix: (*Compiler).binary, precedence: precEquality},
		token.Greater:      {infix: (*Compiler).binary, precedence: precComparison},
		token.GreaterEqual: {infix: (*Compiler).binary, precedence: precComparison},
		token.Less:         {infix: (*Compiler).binary, precedence: precComparison},
		token.LessEqual:    {infix: (*Compiler).binary, precedence: precComparison},
		token.Identifier:   {prefix: (*Compiler).variable},
		token.String:       {prefix: (*Compiler).string},
		token.Number:       {prefix: (*Compiler).number},
		token.False:        {prefix: (*Compiler).literal},
		token.True:         {prefix: (*Compiler).literal},
		token.Nil:          {prefix: (*Compiler).literal},
	}
}

// Compile is a convenience wrapper around New(source, allocator).Compile().
func Compile(source string, allocator *value.Allocator) (*chunk.Chunk, error) {
	return New(source, allocator).Compile()
}
