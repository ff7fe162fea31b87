// Package ast defines the statement/expression tree produced by the parser
// and consumed by the compiler.
package ast

import (
	"bytes"
	"strings"

	"github.com/loxvm/lox/internal/token"
)

// Node is the common interface implemented by every AST node.
type Node interface {
	TokenLiteral() string
	Span() token.Span
	String() string
}

// Statement is a statement-level node.
type Statement interface {
	Node
	statementNode()
}

// Expression is an expression-level node.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root node: a flat list of top-level statements.
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}
func (p *Program) Span() token.Span {
	if len(p.Statements) > 0 {
		return p.Statements[0].Span()
	}
	return token.Span{}
}
func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// ---- Statements ----

type ExpressionStmt struct {
	Token      token.Token
	Expression Expression
}

func (s *ExpressionStmt) statementNode()      {}
func (s *ExpressionStmt) TokenLiteral() string { return s.Token.Literal }
func (s *ExpressionStmt) Span() token.Span      { return s.Token.Span }
func (s *ExpressionStmt) String() string        { return s.Expression.String() + ";" }

type PrintStmt struct {
	Token token.Token
	Value Expression
}

func (s *PrintStmt) statementNode()       {}
func (s *PrintStmt) TokenLiteral() string { return s.Token.Literal }
func (s *PrintStmt) Span() token.Span     { return s.Token.Span }
func (s *PrintStmt) String() string       { return "print " + s.Value.String() + ";" }

type VarStmt struct {
	Token token.Token // 'var'
	Name  string
	Value Expression // nil if no initializer
}

func (s *VarStmt) statementNode()       {}
func (s *VarStmt) TokenLiteral() string { return s.Token.Literal }
func (s *VarStmt) Span() token.Span     { return s.Token.Span }
func (s *VarStmt) String() string {
	if s.Value == nil {
		return "var " + s.Name + ";"
	}
	return "var " + s.Name + " = " + s.Value.String() + ";"
}

type BlockStmt struct {
	Token      token.Token // '{'
	Statements []Statement
}

func (s *BlockStmt) statementNode()       {}
func (s *BlockStmt) TokenLiteral() string { return s.Token.Literal }
func (s *BlockStmt) Span() token.Span     { return s.Token.Span }
func (s *BlockStmt) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, st := range s.Statements {
		out.WriteString(st.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}

type IfStmt struct {
	Token     token.Token // 'if'
	Condition Expression
	Then      Statement
	Else      Statement // nil if absent
}

func (s *IfStmt) statementNode()       {}
func (s *IfStmt) TokenLiteral() string { return s.Token.Literal }
func (s *IfStmt) Span() token.Span     { return s.Token.Span }
func (s *IfStmt) String() string {
	out := "if (" + s.Condition.String() + ") " + s.Then.String()
	if s.Else != nil {
		out += " else " + s.Else.String()
	}
	return out
}

type WhileStmt struct {
	Token     token.Token // 'while'
	Condition Expression
	Body      Statement
}

func (s *WhileStmt) statementNode()       {}
func (s *WhileStmt) TokenLiteral() string { return s.Token.Literal }
func (s *WhileStmt) Span() token.Span     { return s.Token.Span }
func (s *WhileStmt) String() string {
	return "while (" + s.Condition.String() + ") " + s.Body.String()
}

type ForStmt struct {
	Token     token.Token // 'for'
	Init      Statement   // nil if absent
	Condition Expression  // nil if absent
	Post      Expression  // nil if absent
	Body      Statement
}

func (s *ForStmt) statementNode()       {}
func (s *ForStmt) TokenLiteral() string { return s.Token.Literal }
func (s *ForStmt) Span() token.Span     { return s.Token.Span }
func (s *ForStmt) String() string {
	var out bytes.Buffer
	out.WriteString("for (")
	if s.Init != nil {
		out.WriteString(s.Init.String())
	}
	out.WriteString(" ")
	if s.Condition != nil {
		out.WriteString(s.Condition.String())
	}
	out.WriteString("; ")
	if s.Post != nil {
		out.WriteString(s.Post.String())
	}
	out.WriteString(") ")
	out.WriteString(s.Body.String())
	return out.String()
}

type FunStmt struct {
	Token  token.Token // 'fun'
	Name   string
	Params []string
	Body   *BlockStmt
}

func (s *FunStmt) statementNode()       {}
func (s *FunStmt) TokenLiteral() string { return s.Token.Literal }
func (s *FunStmt) Span() token.Span     { return s.Token.Span }
func (s *FunStmt) String() string {
	return "fun " + s.Name + "(" + strings.Join(s.Params, ", ") + ") " + s.Body.String()
}

type ReturnStmt struct {
	Token token.Token // 'return'
	Value Expression  // nil if bare return
}

func (s *ReturnStmt) statementNode()       {}
func (s *ReturnStmt) TokenLiteral() string { return s.Token.Literal }
func (s *ReturnStmt) Span() token.Span     { return s.Token.Span }
func (s *ReturnStmt) String() string {
	if s.Value == nil {
		return "return;"
	}
	return "return " + s.Value.String() + ";"
}

// ---- Expressions ----

type NumberLiteral struct {
	Token token.Token
	Value float64
}

func (e *NumberLiteral) expressionNode()     {}
func (e *NumberLiteral) TokenLiteral() string { return e.Token.Literal }
func (e *NumberLiteral) Span() token.Span      { return e.Token.Span }
func (e *NumberLiteral) String() string        { return e.Token.Literal }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (e *StringLiteral) expressionNode()     {}
func (e *StringLiteral) TokenLiteral() string { return e.Token.Literal }
func (e *StringLiteral) Span() token.Span      { return e.Token.Span }
func (e *StringLiteral) String() string        { return "\"" + e.Value + "\"" }

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (e *BooleanLiteral) expressionNode()     {}
func (e *BooleanLiteral) TokenLiteral() string { return e.Token.Literal }
func (e *BooleanLiteral) Span() token.Span      { return e.Token.Span }
func (e *BooleanLiteral) String() string        { return e.Token.Literal }

type NilLiteral struct {
	Token token.Token
}

func (e *NilLiteral) expressionNode()     {}
func (e *NilLiteral) TokenLiteral() string { return e.Token.Literal }
func (e *NilLiteral) Span() token.Span      { return e.Token.Span }
func (e *NilLiteral) String() string        { return "nil" }

type Identifier struct {
	Token token.Token
	Value string
}

func (e *Identifier) expressionNode()     {}
func (e *Identifier) TokenLiteral() string { return e.Token.Literal }
func (e *Identifier) Span() token.Span      { return e.Token.Span }
func (e *Identifier) String() string        { return e.Value }

type UnaryExpr struct {
	Token    token.Token // the operator
	Operator string
	Right    Expression
}

func (e *UnaryExpr) expressionNode()     {}
func (e *UnaryExpr) TokenLiteral() string { return e.Token.Literal }
func (e *UnaryExpr) Span() token.Span      { return e.Token.Span }
func (e *UnaryExpr) String() string        { return "(" + e.Operator + e.Right.String() + ")" }

type BinaryExpr struct {
	Token    token.Token // the operator
	Left     Expression
	Operator string
	Right    Expression
}

func (e *BinaryExpr) expressionNode()     {}
func (e *BinaryExpr) TokenLiteral() string { return e.Token.Literal }
func (e *BinaryExpr) Span() token.Span      { return e.Token.Span }
func (e *BinaryExpr) String() string {
	return "(" + e.Left.String() + " " + e.Operator + " " + e.Right.String() + ")"
}

// LogicalExpr is 'and'/'or', kept distinct from BinaryExpr because the
// compiler must emit short-circuiting jumps instead of postorder opcodes.
type LogicalExpr struct {
	Token    token.Token
	Left     Expression
	Operator string
	Right    Expression
}

func (e *LogicalExpr) expressionNode()     {}
func (e *LogicalExpr) TokenLiteral() string { return e.Token.Literal }
func (e *LogicalExpr) Span() token.Span      { return e.Token.Span }
func (e *LogicalExpr) String() string {
	return "(" + e.Left.String() + " " + e.Operator + " " + e.Right.String() + ")"
}

type AssignExpr struct {
	Token token.Token // the '=' token
	Name  string
	Value Expression
}

func (e *AssignExpr) expressionNode()     {}
func (e *AssignExpr) TokenLiteral() string { return e.Token.Literal }
func (e *AssignExpr) Span() token.Span      { return e.Token.Span }
func (e *AssignExpr) String() string        { return e.Name + " = " + e.Value.String() }

type CallExpr struct {
	Token     token.Token // '('
	Callee    Expression
	Arguments []Expression
}

func (e *CallExpr) expressionNode()     {}
func (e *CallExpr) TokenLiteral() string { return e.Token.Literal }
func (e *CallExpr) Span() token.Span      { return e.Token.Span }
func (e *CallExpr) String() string {
	args := make([]string, len(e.Arguments))
	for i, a := range e.Arguments {
		args[i] = a.String()
	}
	return e.Callee.String() + "(" + strings.Join(args, ", ") + ")"
}
