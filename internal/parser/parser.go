// Package parser implements a Pratt-style precedence parser over the
// token stream, producing the statement tree the compiler consumes.
//
// Precedence, low to high:
//
//	assignment < or < and < equality < comparison < term < factor < unary < call < primary
package parser

import (
	"strconv"

	"github.com/loxvm/lox/internal/ast"
	"github.com/loxvm/lox/internal/diag"
	"github.com/loxvm/lox/internal/lexer"
	"github.com/loxvm/lox/internal/token"
)

const (
	_ int = iota
	LOWEST
	ASSIGNMENT
	LOGIC_OR
	LOGIC_AND
	EQUALITY
	COMPARISON
	TERM
	FACTOR
	UNARY
	CALL
)

var precedences = map[token.Type]int{
	token.EQUAL:      ASSIGNMENT,
	token.OR:         LOGIC_OR,
	token.AND:        LOGIC_AND,
	token.EQUAL_EQ:   EQUALITY,
	token.BANG_EQ:    EQUALITY,
	token.LESS:       COMPARISON,
	token.LESS_EQ:    COMPARISON,
	token.GREATER:    COMPARISON,
	token.GREATER_EQ: COMPARISON,
	token.PLUS:       TERM,
	token.MINUS:      TERM,
	token.STAR:       FACTOR,
	token.SLASH:      FACTOR,
	token.LPAREN:     CALL,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser consumes tokens from a Lexer and builds an *ast.Program, collecting
// diagnostics instead of stopping at the first error.
type Parser struct {
	l *lexer.Lexer

	curToken  token.Token
	peekToken token.Token

	diags diag.Bag

	prefixFns map[token.Type]prefixParseFn
	infixFns  map[token.Type]infixParseFn
}

// New constructs a Parser reading from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	p.prefixFns = map[token.Type]prefixParseFn{
		token.IDENTIFIER: p.parseIdentifier,
		token.NUMBER:     p.parseNumberLiteral,
		token.STRING:     p.parseStringLiteral,
		token.TRUE:       p.parseBoolean,
		token.FALSE:      p.parseBoolean,
		token.NIL:        p.parseNil,
		token.BANG:       p.parseUnary,
		token.MINUS:      p.parseUnary,
		token.LPAREN:     p.parseGrouping,
	}
	p.infixFns = map[token.Type]infixParseFn{
		token.PLUS:       p.parseBinary,
		token.MINUS:      p.parseBinary,
		token.STAR:       p.parseBinary,
		token.SLASH:      p.parseBinary,
		token.EQUAL_EQ:   p.parseBinary,
		token.BANG_EQ:    p.parseBinary,
		token.LESS:       p.parseBinary,
		token.LESS_EQ:    p.parseBinary,
		token.GREATER:    p.parseBinary,
		token.GREATER_EQ: p.parseBinary,
		token.AND:        p.parseLogical,
		token.OR:         p.parseLogical,
		token.LPAREN:     p.parseCall,
	}

	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns the diagnostics accumulated so far.
func (p *Parser) Errors() []diag.Diagnostic { return p.diags.All() }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curIs(t token.Type) bool  { return p.curToken.Type == t }
func (p *Parser) peekIs(t token.Type) bool { return p.peekToken.Type == t }

func (p *Parser) expect(t token.Type) bool {
	if p.peekIs(t) {
		p.nextToken()
		return true
	}
	p.diags.Add(p.peekToken.Span, "expected %s but found %s", t.Display(), p.peekToken.Type.Display())
	return false
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curToken.Type]; ok {
		return pr
	}
	return LOWEST
}

// ParseProgram parses the entire token stream into a Program. Errors do not
// stop parsing; they are collected and the caller should check Errors()
// before using the result.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.curIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.nextToken()
	}
	return prog
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.VAR:
		return p.parseVarStatement()
	case token.PRINT:
		return p.parsePrintStatement()
	case token.LBRACE:
		return p.parseBlockStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.FUN:
		return p.parseFunStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseVarStatement() ast.Statement {
	stmt := &ast.VarStmt{Token: p.curToken}
	if !p.expect(token.IDENTIFIER) {
		p.synchronize()
		return stmt
	}
	stmt.Name = p.curToken.Literal

	if p.peekIs(token.EQUAL) {
		p.nextToken()
		p.nextToken()
		stmt.Value = p.parseExpression(LOWEST)
	}

	if !p.expect(token.SEMI) {
		p.synchronize()
	}
	return stmt
}

func (p *Parser) parsePrintStatement() ast.Statement {
	stmt := &ast.PrintStmt{Token: p.curToken}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if !p.expect(token.SEMI) {
		p.synchronize()
	}
	return stmt
}

func (p *Parser) parseBlockStatement() *ast.BlockStmt {
	block := &ast.BlockStmt{Token: p.curToken}
	p.nextToken()
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
	}
	if !p.curIs(token.RBRACE) {
		p.diags.Add(p.curToken.Span, "unclosed '{' — expected '}' but found %s", p.curToken.Type.Display())
	}
	return block
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStmt{Token: p.curToken}
	if !p.expect(token.LPAREN) {
		p.synchronize()
		return stmt
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if !p.expect(token.RPAREN) {
		p.synchronize()
		return stmt
	}
	p.nextToken()
	stmt.Then = p.parseStatement()

	if p.peekIs(token.ELSE) {
		p.nextToken()
		p.nextToken()
		stmt.Else = p.parseStatement()
	}
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStmt{Token: p.curToken}
	if !p.expect(token.LPAREN) {
		p.synchronize()
		return stmt
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if !p.expect(token.RPAREN) {
		p.synchronize()
		return stmt
	}
	p.nextToken()
	stmt.Body = p.parseStatement()
	return stmt
}

func (p *Parser) parseForStatement() ast.Statement {
	stmt := &ast.ForStmt{Token: p.curToken}
	if !p.expect(token.LPAREN) {
		p.synchronize()
		return stmt
	}

	p.nextToken()
	if p.curIs(token.SEMI) {
		stmt.Init = nil
	} else if p.curIs(token.VAR) {
		stmt.Init = p.parseVarStatement()
	} else {
		stmt.Init = p.parseExpressionStatement()
	}
	// Each branch above leaves curToken on the terminating ';'.

	p.nextToken()
	if !p.curIs(token.SEMI) {
		stmt.Condition = p.parseExpression(LOWEST)
		if !p.expect(token.SEMI) {
			p.synchronize()
			return stmt
		}
	}

	p.nextToken()
	if !p.curIs(token.RPAREN) {
		stmt.Post = p.parseExpression(LOWEST)
		if !p.expect(token.RPAREN) {
			p.synchronize()
			return stmt
		}
	}

	p.nextToken()
	stmt.Body = p.parseStatement()
	return stmt
}

func (p *Parser) parseFunStatement() ast.Statement {
	stmt := &ast.FunStmt{Token: p.curToken}
	if !p.expect(token.IDENTIFIER) {
		p.synchronize()
		return stmt
	}
	stmt.Name = p.curToken.Literal

	if !p.expect(token.LPAREN) {
		p.synchronize()
		return stmt
	}
	if p.peekIs(token.RPAREN) {
		p.nextToken()
	} else {
		p.nextToken()
		stmt.Params = append(stmt.Params, p.curToken.Literal)
		for p.peekIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			stmt.Params = append(stmt.Params, p.curToken.Literal)
		}
		if !p.expect(token.RPAREN) {
			p.synchronize()
			return stmt
		}
	}

	if !p.expect(token.LBRACE) {
		p.synchronize()
		return stmt
	}
	stmt.Body = p.parseBlockStatement()
	return stmt
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStmt{Token: p.curToken}
	if p.peekIs(token.SEMI) {
		p.nextToken()
		return stmt
	}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if !p.expect(token.SEMI) {
		p.synchronize()
	}
	return stmt
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStmt{Token: p.curToken}
	stmt.Expression = p.parseExpression(LOWEST)
	if !p.expect(token.SEMI) {
		p.synchronize()
	}
	return stmt
}

// synchronize advances past tokens until a likely statement boundary, so
// one error doesn't cascade into a flood of spurious diagnostics.
func (p *Parser) synchronize() {
	for !p.curIs(token.EOF) {
		if p.curIs(token.SEMI) || p.curIs(token.RBRACE) {
			return
		}
		switch p.peekToken.Type {
		case token.VAR, token.PRINT, token.IF, token.WHILE, token.FOR, token.FUN, token.RETURN, token.RBRACE:
			return
		}
		p.nextToken()
	}
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix, ok := p.prefixFns[p.curToken.Type]
	if !ok {
		p.diags.Add(p.curToken.Span, "unexpected token %s", p.curToken.Type.Display())
		return nil
	}
	left := prefix()

	for !p.peekIs(token.SEMI) && precedence < p.peekPrecedence() {
		infix, ok := p.infixFns[p.peekToken.Type]
		if !ok {
			break
		}
		p.nextToken()
		left = infix(left)
	}

	if p.peekIs(token.EQUAL) && precedence < ASSIGNMENT {
		p.nextToken()
		return p.parseAssign(left)
	}

	return left
}

func (p *Parser) parseAssign(left ast.Expression) ast.Expression {
	ident, ok := left.(*ast.Identifier)
	if !ok {
		p.diags.Add(left.Span(), "invalid assignment target")
		p.nextToken()
		p.parseExpression(LOWEST)
		return left
	}
	tok := p.curToken
	p.nextToken()
	value := p.parseExpression(ASSIGNMENT - 1)
	return &ast.AssignExpr{Token: tok, Name: ident.Value, Value: value}
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	v, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.diags.Add(p.curToken.Span, "invalid number literal %q", p.curToken.Literal)
	}
	return &ast.NumberLiteral{Token: p.curToken, Value: v}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseBoolean() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curIs(token.TRUE)}
}

func (p *Parser) parseNil() ast.Expression {
	return &ast.NilLiteral{Token: p.curToken}
}

func (p *Parser) parseUnary() ast.Expression {
	tok := p.curToken
	p.nextToken()
	right := p.parseExpression(UNARY)
	return &ast.UnaryExpr{Token: tok, Operator: tok.Literal, Right: right}
}

func (p *Parser) parseBinary(left ast.Expression) ast.Expression {
	tok := p.curToken
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	return &ast.BinaryExpr{Token: tok, Left: left, Operator: tok.Literal, Right: right}
}

func (p *Parser) parseLogical(left ast.Expression) ast.Expression {
	tok := p.curToken
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	return &ast.LogicalExpr{Token: tok, Left: left, Operator: tok.Literal, Right: right}
}

func (p *Parser) parseGrouping() ast.Expression {
	p.nextToken()
	expr := p.parseExpression(LOWEST)
	if !p.expect(token.RPAREN) {
		p.diags.Add(p.curToken.Span, "unclosed '(' — expected ')'")
	}
	return expr
}

func (p *Parser) parseCall(callee ast.Expression) ast.Expression {
	tok := p.curToken
	args := p.parseCallArguments()
	return &ast.CallExpr{Token: tok, Callee: callee, Arguments: args}
}

func (p *Parser) parseCallArguments() []ast.Expression {
	var args []ast.Expression
	if p.peekIs(token.RPAREN) {
		p.nextToken()
		return args
	}
	p.nextToken()
	args = append(args, p.parseExpression(LOWEST))
	for p.peekIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		args = append(args, p.parseExpression(LOWEST))
	}
	if !p.expect(token.RPAREN) {
		p.diags.Add(p.curToken.Span, "unclosed '(' in call — expected ')'")
	}
	return args
}
