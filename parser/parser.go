/*
File    : PitLang/parser/parser.go
Package parser builds the PitLang AST from a token stream.
*/

// Package parser implements a Pratt (precedence-climbing) parser over the
// token stream, producing an ast.Program. Prefix/infix parsing use dispatch
// maps keyed by token kind plus a precedence table, including the
// supplemented IncDec prefix operator.
package parser

import (
	"fmt"

	"github.com/Captainexpo-1/PitLang/ast"
	"github.com/Captainexpo-1/PitLang/langerr"
	"github.com/Captainexpo-1/PitLang/lexer"
	"github.com/Captainexpo-1/PitLang/token"
)

// Precedence levels, lowest to highest. The three bitwise operators each
// get their own level rather than sharing one, so `a & b | c` groups as
// `a & (b | c)`: `|` binds tighter than `^`, which binds tighter than `&`.
// Prefix ++/--/-/! bind just below CALL/MEMBER, near the top of the
// scheme, so `-a + b` parses as `(-a) + b` rather than `-(a + b)`.
const (
	_ int = iota
	LOWEST
	ASSIGNMENT  // =
	LOGICAL_OR  // ||
	LOGICAL_AND // &&
	BITAND      // &
	BITXOR      // ^
	BITOR       // |
	EQUALITY    // == !=
	COMPARISON  // < > <= >=
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -x !x ++x --x
	CALL        // f(...)
	MEMBER      // x.y
)

var precedences = map[token.Kind]int{
	token.ASSIGN:       ASSIGNMENT,
	token.OR:           LOGICAL_OR,
	token.AND:          LOGICAL_AND,
	token.BITAND:       BITAND,
	token.BITXOR:       BITXOR,
	token.BITOR:        BITOR,
	token.EQUAL:        EQUALITY,
	token.NOTEQUAL:     EQUALITY,
	token.LESS:         COMPARISON,
	token.GREATER:      COMPARISON,
	token.LESSEQUAL:    COMPARISON,
	token.GREATEREQUAL: COMPARISON,
	token.PLUS:         SUM,
	token.MINUS:        SUM,
	token.STAR:         PRODUCT,
	token.SLASH:        PRODUCT,
	token.PERCENT:      PRODUCT,
	token.LPAREN:       CALL,
	token.DOT:          MEMBER,
}

type (
	prefixParseFn func() (ast.Expression, *langerr.Error)
	infixParseFn  func(left ast.Expression) (ast.Expression, *langerr.Error)
)

// Parser consumes a token stream one lookahead token at a time and builds
// an ast.Program. Errors collected during a synchronizing parse are
// returned alongside a best-effort AST rather than aborting on the first
// failure.
type Parser struct {
	lex *lexer.Lexer

	cur  token.Token
	peek token.Token

	errors []*langerr.Error

	prefixFns map[token.Kind]prefixParseFn
	infixFns  map[token.Kind]infixParseFn
}

// New constructs a Parser over src and primes the two-token lookahead.
func New(src string) *Parser {
	p := &Parser{lex: lexer.New(src)}

	p.prefixFns = map[token.Kind]prefixParseFn{
		token.NUMBER:     p.parseNumberLiteral,
		token.STRING:     p.parseStringLiteral,
		token.TRUE:       p.parseBooleanLiteral,
		token.FALSE:      p.parseBooleanLiteral,
		token.NULL:       p.parseNullLiteral,
		token.IDENTIFIER: p.parseIdentifier,
		token.LPAREN:     p.parseGroupedExpression,
		token.LBRACKET:   p.parseArrayLiteral,
		token.LBRACE:     p.parseObjectLiteral,
		token.MINUS:      p.parseUnaryOp,
		token.BANG:       p.parseUnaryOp,
		token.INCREMENT:  p.parsePrefixIncDec,
		token.DECREMENT:  p.parsePrefixIncDec,
		token.FUNCTION:   p.parseFunctionLiteral,
		token.DOT:        p.parseLeadingMemberAccess,
	}

	p.infixFns = map[token.Kind]infixParseFn{
		token.PLUS:         p.parseBinaryOp,
		token.MINUS:        p.parseBinaryOp,
		token.STAR:         p.parseBinaryOp,
		token.SLASH:        p.parseBinaryOp,
		token.PERCENT:      p.parseBinaryOp,
		token.EQUAL:        p.parseBinaryOp,
		token.NOTEQUAL:     p.parseBinaryOp,
		token.LESS:         p.parseBinaryOp,
		token.GREATER:      p.parseBinaryOp,
		token.LESSEQUAL:    p.parseBinaryOp,
		token.GREATEREQUAL: p.parseBinaryOp,
		token.AND:          p.parseBinaryOp,
		token.OR:           p.parseBinaryOp,
		token.BITAND:       p.parseBinaryOp,
		token.BITOR:        p.parseBinaryOp,
		token.BITXOR:       p.parseBinaryOp,
		token.ASSIGN:       p.parseAssignment,
		token.LPAREN:       p.parseFunctionCall,
		token.DOT:          p.parseMemberAccess,
	}

	p.advance()
	p.advance()
	return p
}

// Errors returns every error collected while parsing.
func (p *Parser) Errors() []*langerr.Error { return p.errors }

func (p *Parser) advance() {
	p.cur = p.peek
	tok, err := p.lex.NextToken()
	if err != nil {
		p.errors = append(p.errors, err)
		// Surface EOF so the main loop terminates instead of spinning.
		p.peek = token.New(token.EOF, "", err.Line, err.Column)
		return
	}
	p.peek = tok
}

func (p *Parser) curIs(k token.Kind) bool  { return p.cur.Kind == k }
func (p *Parser) peekIs(k token.Kind) bool { return p.peek.Kind == k }

func (p *Parser) expect(k token.Kind) bool {
	if p.peekIs(k) {
		p.advance()
		return true
	}
	p.errorf("expected %s, got %s", k, p.peek.Kind)
	return false
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, langerr.New(langerr.Parse, p.cur.Line, p.cur.Column, format, args...))
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.cur.Kind]; ok {
		return pr
	}
	return LOWEST
}

// synchronize discards tokens up to and including the next SEMICOLON (or
// EOF), letting the parser recover and keep collecting further errors
// instead of aborting on the first one (teacher's parser_helpers.go takes
// the same synchronize-to-statement-boundary approach).
func (p *Parser) synchronize() {
	for !p.curIs(token.SEMICOLON) && !p.curIs(token.EOF) {
		p.advance()
	}
	if p.curIs(token.SEMICOLON) {
		p.advance()
	}
}

// ParseProgram parses the whole token stream into a Program. Parse errors
// are collected in p.Errors() rather than aborting immediately, so a
// caller can report every syntax error found in one pass.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.curIs(token.EOF) {
		startErrs := len(p.errors)
		stmt := p.parseStatement()
		if len(p.errors) > startErrs {
			p.synchronize()
			continue
		}
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
	}
	return prog
}

// Parse is the package-level convenience entry point used by cmd/pitlang
// and the REPL.
func Parse(src string) (*ast.Program, []*langerr.Error) {
	p := New(src)
	prog := p.ParseProgram()
	return prog, p.Errors()
}

// ---- Statements ----

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur.Kind {
	case token.LET:
		return p.parseVariableDeclaration()
	case token.LBRACE:
		block := p.parseBlock()
		p.advance() // consume '}'
		return block
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.FUNCTION:
		if p.peekIs(token.IDENTIFIER) {
			return p.parseFunctionDeclarationStatement()
		}
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseVariableDeclaration() ast.Statement {
	stmt := &ast.VariableDeclaration{Token: p.cur}
	if !p.expect(token.IDENTIFIER) {
		return nil
	}
	stmt.Name = p.cur.Literal
	if p.peekIs(token.ASSIGN) {
		p.advance()
		p.advance()
		init, err := p.parseExpression(LOWEST)
		if err != nil {
			p.errors = append(p.errors, err)
			return nil
		}
		stmt.Initializer = init
	}
	if !p.expect(token.SEMICOLON) {
		return nil
	}
	p.advance()
	return stmt
}

// parseBlock parses `{ STMT* }` and leaves cur on the closing '}', so a
// function literal used as an expression ends on its last token; callers
// in statement position consume the '}' themselves.
func (p *Parser) parseBlock() *ast.Block {
	block := &ast.Block{Token: p.cur}
	p.advance() // consume '{'
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		startErrs := len(p.errors)
		stmt := p.parseStatement()
		if len(p.errors) > startErrs {
			p.synchronize()
			continue
		}
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
	}
	if !p.curIs(token.RBRACE) {
		p.errorf("expected %s, got %s", token.RBRACE, p.cur.Kind)
		return block
	}
	return block
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.cur}
	if !p.expect(token.LPAREN) {
		return nil
	}
	p.advance()
	cond, err := p.parseExpression(LOWEST)
	if err != nil {
		p.errors = append(p.errors, err)
		return nil
	}
	stmt.Condition = cond
	if !p.expect(token.RPAREN) {
		return nil
	}
	p.advance()
	stmt.Then = p.parseStatement()
	if p.curIs(token.ELSE) {
		p.advance()
		stmt.Else = p.parseStatement()
	}
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.cur}
	if !p.expect(token.LPAREN) {
		return nil
	}
	p.advance()
	cond, err := p.parseExpression(LOWEST)
	if err != nil {
		p.errors = append(p.errors, err)
		return nil
	}
	stmt.Condition = cond
	if !p.expect(token.RPAREN) {
		return nil
	}
	p.advance()
	stmt.Body = p.parseStatement()
	return stmt
}

// parseForStatement implements the unusual, unparenthesized grammar
// `for INIT COND ; STEP BODY`: init is a self-terminating statement (it
// consumes its own trailing ';'), cond is a bare expression, an explicit
// ';' separates cond from step, step is a statement, and body follows with
// no further separator.
func (p *Parser) parseForStatement() ast.Statement {
	stmt := &ast.ForStatement{Token: p.cur}
	p.advance() // consume 'for'

	stmt.Init = p.parseStatement() // consumes its own ';'

	cond, err := p.parseExpression(LOWEST)
	if err != nil {
		p.errors = append(p.errors, err)
		return nil
	}
	stmt.Condition = cond
	if !p.expect(token.SEMICOLON) {
		return nil
	}
	p.advance()

	step, err := p.parseExpression(LOWEST)
	if err != nil {
		p.errors = append(p.errors, err)
		return nil
	}
	stmt.Step = &ast.ExpressionStatement{Expr: step}
	p.advance() // move past the step expression's last token onto the body

	stmt.Body = p.parseStatement()
	return stmt
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.cur}
	if p.peekIs(token.SEMICOLON) {
		p.advance()
		p.advance()
		return stmt
	}
	p.advance()
	val, err := p.parseExpression(LOWEST)
	if err != nil {
		p.errors = append(p.errors, err)
		return nil
	}
	stmt.Value = val
	if !p.expect(token.SEMICOLON) {
		return nil
	}
	p.advance()
	return stmt
}

func (p *Parser) parseFunctionDeclarationStatement() ast.Statement {
	fn, err := p.parseFunctionLiteral()
	if err != nil {
		p.errors = append(p.errors, err)
		return nil
	}
	decl := fn.(*ast.FunctionDeclaration)
	p.advance() // consume the body's '}'
	return decl
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		p.errors = append(p.errors, err)
		return nil
	}
	if !p.expect(token.SEMICOLON) {
		return nil
	}
	p.advance()
	return &ast.ExpressionStatement{Expr: expr}
}

// ---- Expressions (Pratt core) ----

func (p *Parser) parseExpression(minPrec int) (ast.Expression, *langerr.Error) {
	prefix, ok := p.prefixFns[p.cur.Kind]
	if !ok {
		return nil, langerr.New(langerr.Parse, p.cur.Line, p.cur.Column, "unexpected token %s in expression", p.cur.Kind)
	}
	left, err := prefix()
	if err != nil {
		return nil, err
	}

	for !p.peekIs(token.SEMICOLON) && minPrec < p.peekPrecedence() {
		infix, ok := p.infixFns[p.peek.Kind]
		if !ok {
			return left, nil
		}
		p.advance()
		left, err = infix(left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peek.Kind]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) parseNumberLiteral() (ast.Expression, *langerr.Error) {
	var v float64
	if _, err := fmt.Sscanf(p.cur.Literal, "%g", &v); err != nil {
		return nil, langerr.New(langerr.Parse, p.cur.Line, p.cur.Column, "invalid number literal %q", p.cur.Literal)
	}
	return &ast.NumberLiteral{Token: p.cur, Value: v}, nil
}

func (p *Parser) parseStringLiteral() (ast.Expression, *langerr.Error) {
	return &ast.StringLiteral{Token: p.cur, Value: p.cur.Literal}, nil
}

func (p *Parser) parseBooleanLiteral() (ast.Expression, *langerr.Error) {
	return &ast.BooleanLiteral{Token: p.cur, Value: p.cur.Kind == token.TRUE}, nil
}

func (p *Parser) parseNullLiteral() (ast.Expression, *langerr.Error) {
	return &ast.NullLiteral{Token: p.cur}, nil
}

func (p *Parser) parseIdentifier() (ast.Expression, *langerr.Error) {
	return &ast.Identifier{Token: p.cur, Name: p.cur.Literal}, nil
}

func (p *Parser) parseGroupedExpression() (ast.Expression, *langerr.Error) {
	p.advance() // consume '('
	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if !p.expect(token.RPAREN) {
		return nil, langerr.New(langerr.Parse, p.cur.Line, p.cur.Column, "expected ')' to close grouped expression")
	}
	return expr, nil
}

func (p *Parser) parseArrayLiteral() (ast.Expression, *langerr.Error) {
	lit := &ast.ArrayLiteral{Token: p.cur}
	elems, err := p.parseExpressionList(token.RBRACKET)
	if err != nil {
		return nil, err
	}
	lit.Elements = elems
	return lit, nil
}

func (p *Parser) parseExpressionList(end token.Kind) ([]ast.Expression, *langerr.Error) {
	var list []ast.Expression
	if p.peekIs(end) {
		p.advance()
		return list, nil
	}
	p.advance()
	first, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	list = append(list, first)
	for p.peekIs(token.COMMA) {
		p.advance()
		p.advance()
		next, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		list = append(list, next)
	}
	if !p.expect(end) {
		return nil, langerr.New(langerr.Parse, p.cur.Line, p.cur.Column, "expected %s", end)
	}
	return list, nil
}

// parseObjectLiteral accepts duplicate keys; the ambiguity resolves at
// evaluation time (last occurrence wins), so the parser keeps every entry
// in source order.
func (p *Parser) parseObjectLiteral() (ast.Expression, *langerr.Error) {
	lit := &ast.ObjectLiteral{Token: p.cur}
	if p.peekIs(token.RBRACE) {
		p.advance()
		return lit, nil
	}
	for {
		p.advance()
		if !(p.curIs(token.IDENTIFIER) || p.curIs(token.STRING)) {
			return nil, langerr.New(langerr.Parse, p.cur.Line, p.cur.Column, "expected object key, got %s", p.cur.Kind)
		}
		key := p.cur.Literal
		if !p.expect(token.COLON) {
			return nil, langerr.New(langerr.Parse, p.cur.Line, p.cur.Column, "expected ':' after object key")
		}
		p.advance()
		val, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		lit.Entries = append(lit.Entries, ast.ObjectEntry{Key: key, Value: val})
		if p.peekIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if !p.expect(token.RBRACE) {
		return nil, langerr.New(langerr.Parse, p.cur.Line, p.cur.Column, "expected '}' to close object literal")
	}
	return lit, nil
}

func (p *Parser) parseUnaryOp() (ast.Expression, *langerr.Error) {
	op := &ast.UnaryOp{Token: p.cur, Operator: p.cur.Literal}
	p.advance()
	operand, err := p.parseExpression(PREFIX)
	if err != nil {
		return nil, err
	}
	op.Operand = operand
	return op, nil
}

func (p *Parser) parsePrefixIncDec() (ast.Expression, *langerr.Error) {
	node := &ast.IncDec{Token: p.cur, Operator: p.cur.Literal}
	p.advance()
	target, err := p.parseExpression(PREFIX)
	if err != nil {
		return nil, err
	}
	node.Target = target
	return node, nil
}

// parseLeadingMemberAccess handles the receiver-less prefix form `.name`:
// the member name comes first, and its Object is the following prefix
// expression.
func (p *Parser) parseLeadingMemberAccess() (ast.Expression, *langerr.Error) {
	tok := p.cur
	if !p.expect(token.IDENTIFIER) {
		return nil, langerr.New(langerr.Parse, p.cur.Line, p.cur.Column, "expected member name after '.'")
	}
	member := p.cur.Literal
	p.advance()
	operand, err := p.parseExpression(PREFIX)
	if err != nil {
		return nil, err
	}
	return &ast.MemberAccess{Token: tok, Object: operand, Member: member}, nil
}

func (p *Parser) parseBinaryOp(left ast.Expression) (ast.Expression, *langerr.Error) {
	op := &ast.BinaryOp{Token: p.cur, Operator: p.cur.Literal, Left: left}
	prec := p.curPrecedence()
	p.advance()
	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}
	op.Right = right
	return op, nil
}

// parseAssignment is right-associative: `a = b = c` parses as `a = (b = c)`.
func (p *Parser) parseAssignment(left ast.Expression) (ast.Expression, *langerr.Error) {
	tok := p.cur
	switch left.(type) {
	case *ast.Identifier, *ast.MemberAccess:
	default:
		return nil, langerr.New(langerr.Parse, tok.Line, tok.Column, "invalid assignment target")
	}
	p.advance()
	val, err := p.parseExpression(ASSIGNMENT - 1)
	if err != nil {
		return nil, err
	}
	return &ast.Assignment{Token: tok, Target: left, Value: val}, nil
}

func (p *Parser) parseFunctionCall(callee ast.Expression) (ast.Expression, *langerr.Error) {
	call := &ast.FunctionCall{Token: p.cur, Callee: callee}
	args, err := p.parseExpressionList(token.RPAREN)
	if err != nil {
		return nil, err
	}
	call.Arguments = args
	return call, nil
}

func (p *Parser) parseMemberAccess(obj ast.Expression) (ast.Expression, *langerr.Error) {
	tok := p.cur
	if !p.expect(token.IDENTIFIER) {
		return nil, langerr.New(langerr.Parse, p.cur.Line, p.cur.Column, "expected member name after '.'")
	}
	return &ast.MemberAccess{Token: tok, Object: obj, Member: p.cur.Literal}, nil
}

func (p *Parser) parseFunctionLiteral() (ast.Expression, *langerr.Error) {
	tok := p.cur
	fn := &ast.FunctionDeclaration{Token: tok}
	if p.peekIs(token.IDENTIFIER) {
		p.advance()
		fn.Name = p.cur.Literal
	}
	if !p.expect(token.LPAREN) {
		return nil, langerr.New(langerr.Parse, p.cur.Line, p.cur.Column, "expected '(' after 'fn'")
	}
	params, err := p.parseParameterList()
	if err != nil {
		return nil, err
	}
	fn.Parameters = params
	if !p.expect(token.LBRACE) {
		return nil, langerr.New(langerr.Parse, p.cur.Line, p.cur.Column, "expected '{' to begin function body")
	}
	fn.Body = p.parseBlock()
	return fn, nil
}

func (p *Parser) parseParameterList() ([]string, *langerr.Error) {
	var params []string
	if p.peekIs(token.RPAREN) {
		p.advance()
		return params, nil
	}
	if !p.expect(token.IDENTIFIER) {
		return nil, langerr.New(langerr.Parse, p.cur.Line, p.cur.Column, "expected parameter name")
	}
	params = append(params, p.cur.Literal)
	for p.peekIs(token.COMMA) {
		p.advance()
		if !p.expect(token.IDENTIFIER) {
			return nil, langerr.New(langerr.Parse, p.cur.Line, p.cur.Column, "expected parameter name")
		}
		params = append(params, p.cur.Literal)
	}
	if !p.expect(token.RPAREN) {
		return nil, langerr.New(langerr.Parse, p.cur.Line, p.cur.Column, "expected ')' to close parameter list")
	}
	return params, nil
}
