package ast

import (
	"bytes"
	"strings"

	"github.com/leengari/tablestore/internal/domain/types"
)

// Node is the base interface for all AST nodes
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement represents a standalone query line
type Statement interface {
	Node
	statementNode()
}

// Expression represents a value or operation
type Expression interface {
	Node
	expressionNode()
}

// Identifier represents a field or table name
type Identifier struct {
	TokenLiteralValue string // The token literal (e.g. "AgentId")
	Value             string // The value (e.g. "AgentId")
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.TokenLiteralValue }
func (i *Identifier) String() string       { return i.Value }

// Literal represents a fixed operand (string, number, bool, uuid)
type Literal struct {
	TokenLiteralValue string
	Value             types.Value
}

func (l *Literal) expressionNode()      {}
func (l *Literal) TokenLiteral() string { return l.TokenLiteralValue }
func (l *Literal) String() string {
	switch l.Value.Kind {
	case types.KindString:
		return "'" + strings.ReplaceAll(l.Value.Str, "'", "''") + "'"
	case types.KindUUID:
		return "uuid'" + l.Value.UUID.String() + "'"
	default:
		return l.TokenLiteralValue
	}
}

// Comparison: field op literal
type Comparison struct {
	Field    *Identifier
	Operator string
	Value    *Literal
}

func (c *Comparison) expressionNode()      {}
func (c *Comparison) TokenLiteral() string { return c.Operator }
func (c *Comparison) String() string {
	return c.Field.String() + " " + c.Operator + " " + c.Value.String()
}

// QueryStatement: table [WHERE a = 1 AND b < 2]
type QueryStatement struct {
	Table *Identifier
	Where []*Comparison
}

func (q *QueryStatement) statementNode()       {}
func (q *QueryStatement) TokenLiteral() string { return q.Table.TokenLiteral() }
func (q *QueryStatement) String() string {
	var out bytes.Buffer
	out.WriteString(q.Table.String())
	if len(q.Where) > 0 {
		out.WriteString(" WHERE ")
		for i, c := range q.Where {
			if i > 0 {
				out.WriteString(" AND ")
			}
			out.WriteString(c.String())
		}
	}
	return out.String()
}
