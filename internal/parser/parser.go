// Package parser turns a query line such as
//
//	Agents WHERE Mass >= 2.5 AND Prototype = 'Sink'
//
// into a table title and a list of query conditions.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/leengari/tablestore/internal/domain/types"
	"github.com/leengari/tablestore/internal/parser/ast"
	"github.com/leengari/tablestore/internal/parser/lexer"
	"github.com/leengari/tablestore/internal/query"
)

type Parser struct {
	tokens  []lexer.Token
	curPos  int
	curTok  lexer.Token
	peekTok lexer.Token
}

func New(tokens []lexer.Token) *Parser {
	p := &Parser{tokens: tokens, curPos: 0}
	// Read two tokens to set curTok and peekTok
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	if p.curPos < len(p.tokens) {
		p.peekTok = p.tokens[p.curPos]
		p.curPos++
	} else {
		p.peekTok = lexer.Token{Type: lexer.EOF}
	}
}

// Parse reads a full query line: a title, an optional WHERE clause and an
// optional trailing semicolon.
func (p *Parser) Parse() (*ast.QueryStatement, error) {
	stmt := &ast.QueryStatement{}

	// Table title, bare or quoted
	switch p.curTok.Type {
	case lexer.IDENTIFIER, lexer.STRING:
		stmt.Table = &ast.Identifier{TokenLiteralValue: p.curTok.Literal, Value: p.curTok.Literal}
	default:
		return nil, fmt.Errorf("expected table name, got %s", describe(p.curTok))
	}
	p.nextToken()

	// WHERE (Optional)
	if p.curTok.Type == lexer.WHERE {
		p.nextToken()
		where, err := p.parseComparisons()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}

	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseComparisons reads one or more comparisons joined by AND or commas
func (p *Parser) parseComparisons() ([]*ast.Comparison, error) {
	var out []*ast.Comparison
	for {
		cmp, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		out = append(out, cmp)

		if !isConjunction(p.curTok.Type) {
			return out, nil
		}
		p.nextToken()
	}
}

func (p *Parser) parseComparison() (*ast.Comparison, error) {
	if p.curTok.Type != lexer.IDENTIFIER {
		return nil, fmt.Errorf("expected field name, got %s", describe(p.curTok))
	}
	field := &ast.Identifier{TokenLiteralValue: p.curTok.Literal, Value: p.curTok.Literal}
	p.nextToken()

	if !isComparisonOperator(p.curTok.Type) {
		return nil, fmt.Errorf("expected comparison operator after %s, got %s", field.Value, describe(p.curTok))
	}
	op := p.curTok.Literal
	p.nextToken()

	lit, err := p.parseLiteral()
	if err != nil {
		return nil, fmt.Errorf("operand of %s %s: %w", field.Value, op, err)
	}
	p.nextToken()

	return &ast.Comparison{Field: field, Operator: op, Value: lit}, nil
}

func (p *Parser) parseLiteral() (*ast.Literal, error) {
	tok := p.curTok
	if !isLiteral(tok.Type) {
		return nil, fmt.Errorf("expected literal, got %s", describe(tok))
	}

	lit := &ast.Literal{TokenLiteralValue: tok.Literal}
	switch tok.Type {
	case lexer.STRING:
		lit.Value = types.StringValue(tok.Literal)
	case lexer.TRUE:
		lit.Value = types.BoolValue(true)
	case lexer.FALSE:
		lit.Value = types.BoolValue(false)
	case lexer.UUID:
		u, err := uuid.Parse(tok.Literal)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid %q: %w", tok.Literal, err)
		}
		lit.Value = types.UUIDValue(u)
	case lexer.NUMBER:
		v, err := parseNumber(tok.Literal)
		if err != nil {
			return nil, err
		}
		lit.Value = v
	}
	return lit, nil
}

// parseNumber maps integers to Int and anything with a fraction or exponent to Double
func parseNumber(s string) (types.Value, error) {
	if !strings.ContainsAny(s, ".eE") {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return types.Value{}, fmt.Errorf("invalid integer %q: %w", s, err)
		}
		return types.IntValue(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return types.Value{}, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return types.DoubleValue(f), nil
}

func (p *Parser) expectEnd() error {
	// Semicolon (Optional)
	if p.curTok.Type == lexer.SEMICOLON {
		p.nextToken()
	}
	if p.curTok.Type != lexer.EOF {
		return fmt.Errorf("unexpected %s after end of query", describe(p.curTok))
	}
	return nil
}

func describe(tok lexer.Token) string {
	if tok.Type == lexer.EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", tok.Literal)
}

// ToConditions converts parsed comparisons into query conditions
func ToConditions(where []*ast.Comparison) ([]query.Condition, error) {
	conds := make([]query.Condition, 0, len(where))
	for _, c := range where {
		op, err := query.ParseOperator(c.Operator)
		if err != nil {
			return nil, err
		}
		conds = append(conds, query.NewCondition(c.Field.Value, op, c.Value.Value))
	}
	return conds, nil
}

// ParseQuery parses a full query line into a table title and its conditions
func ParseQuery(input string) (string, []query.Condition, error) {
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		return "", nil, err
	}
	stmt, err := New(tokens).Parse()
	if err != nil {
		return "", nil, err
	}
	conds, err := ToConditions(stmt.Where)
	if err != nil {
		return "", nil, err
	}
	return stmt.Table.Value, conds, nil
}

// ParseConditions parses a bare condition list such as "a > 1 AND b = 'x'".
// Empty input yields no conditions.
func ParseConditions(input string) ([]query.Condition, error) {
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	p := New(tokens)
	if p.curTok.Type == lexer.WHERE {
		p.nextToken()
	}
	where, err := p.parseComparisons()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return ToConditions(where)
}
