package parser

import (
	"github.com/leengari/tablestore/internal/parser/lexer"
)

// isComparisonOperator checks if a token type is a comparison operator
func isComparisonOperator(t lexer.TokenType) bool {
	return t == lexer.EQUALS ||
		t == lexer.LESS_THAN ||
		t == lexer.GREATER_THAN ||
		t == lexer.LESS_EQUAL ||
		t == lexer.GREATER_EQUAL ||
		t == lexer.NOT_EQUAL
}

// isConjunction checks if a token joins two comparisons (AND or a comma)
func isConjunction(t lexer.TokenType) bool {
	return t == lexer.AND || t == lexer.COMMA
}

// isLiteral checks if a token can stand on the right of a comparison
func isLiteral(t lexer.TokenType) bool {
	switch t {
	case lexer.STRING, lexer.NUMBER, lexer.UUID, lexer.TRUE, lexer.FALSE:
		return true
	}
	return false
}
