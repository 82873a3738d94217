package lexer

import (
	"fmt"
	"strings"
)

type TokenType int

const (
	// Special
	ILLEGAL TokenType = iota
	EOF

	// Literals
	IDENTIFIER // table or field name
	STRING     // 'value'
	NUMBER     // 123, -4, 1.23, 6e-3
	UUID       // uuid'6ba7b810-9dad-11d1-80b4-00c04fd430c8'

	// Keywords
	WHERE
	AND
	TRUE
	FALSE

	// Operators & Punctuation
	EQUALS        // = or ==
	NOT_EQUAL     // != or <>
	LESS_THAN     // <
	LESS_EQUAL    // <=
	GREATER_THAN  // >
	GREATER_EQUAL // >=
	COMMA         // ,
	SEMICOLON     // ;
)

var keywords = map[string]TokenType{
	"WHERE": WHERE,
	"AND":   AND,
	"TRUE":  TRUE,
	"FALSE": FALSE,
}

var tokenNames = map[TokenType]string{
	ILLEGAL:       "ILLEGAL",
	EOF:           "EOF",
	IDENTIFIER:    "IDENTIFIER",
	STRING:        "STRING",
	NUMBER:        "NUMBER",
	UUID:          "UUID",
	WHERE:         "WHERE",
	AND:           "AND",
	TRUE:          "TRUE",
	FALSE:         "FALSE",
	EQUALS:        "==",
	NOT_EQUAL:     "!=",
	LESS_THAN:     "<",
	LESS_EQUAL:    "<=",
	GREATER_THAN:  ">",
	GREATER_EQUAL: ">=",
	COMMA:         ",",
	SEMICOLON:     ";",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%s, %q)", t.Type, t.Literal)
}

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int
	column       int
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition += 1
	l.column++
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) NextToken() Token {
	var tok Token

	l.skipWhitespace()

	line, col := l.line, l.column

	switch l.ch {
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: EQUALS, Literal: "=="}
		} else {
			tok = Token{Type: EQUALS, Literal: "="}
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: NOT_EQUAL, Literal: "!="}
		} else {
			tok = Token{Type: ILLEGAL, Literal: "!"}
		}
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = Token{Type: LESS_EQUAL, Literal: "<="}
		case '>':
			l.readChar()
			tok = Token{Type: NOT_EQUAL, Literal: "<>"}
		default:
			tok = Token{Type: LESS_THAN, Literal: "<"}
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: GREATER_EQUAL, Literal: ">="}
		} else {
			tok = Token{Type: GREATER_THAN, Literal: ">"}
		}
	case ',':
		tok = Token{Type: COMMA, Literal: ","}
	case ';':
		tok = Token{Type: SEMICOLON, Literal: ";"}
	case '\'':
		return l.stringToken(STRING, line, col)
	case 0:
		return Token{Type: EOF, Line: line, Column: col}
	default:
		if isLetter(l.ch) {
			ident := l.readIdentifier()
			if strings.EqualFold(ident, "uuid") && l.ch == '\'' {
				return l.stringToken(UUID, line, col)
			}
			return Token{Type: LookupIdent(ident), Literal: ident, Line: line, Column: col}
		} else if isDigit(l.ch) || (l.ch == '-' && isDigit(l.peekChar())) {
			return Token{Type: NUMBER, Literal: l.readNumber(), Line: line, Column: col}
		}
		tok = Token{Type: ILLEGAL, Literal: string(l.ch)}
	}

	tok.Line, tok.Column = line, col
	l.readChar()
	return tok
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		if l.ch == '\n' {
			l.line++
			l.column = 0
		}
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '.' {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readNumber() string {
	position := l.position
	if l.ch == '-' {
		l.readChar()
	}
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '-' || next == '+' {
			l.readChar()
			l.readChar()
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return l.input[position:l.position]
}

// stringToken reads a quoted literal. A doubled quote inside it stands for one quote.
func (l *Lexer) stringToken(t TokenType, line, col int) Token {
	var sb strings.Builder
	for {
		l.readChar()
		if l.ch == 0 {
			return Token{Type: ILLEGAL, Literal: "unterminated string", Line: line, Column: col}
		}
		if l.ch == '\'' {
			if l.peekChar() == '\'' {
				l.readChar()
				sb.WriteByte('\'')
				continue
			}
			break
		}
		sb.WriteByte(l.ch)
	}

	// Consume the closing quote
	l.readChar()
	return Token{Type: t, Literal: sb.String(), Line: line, Column: col}
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToUpper(ident)]; ok {
		return tok
	}
	return IDENTIFIER
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// Tokenize lexes the whole input at once
func Tokenize(input string) ([]Token, error) {
	l := New(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			break
		}
		if tok.Type == ILLEGAL {
			return nil, fmt.Errorf("illegal token at line %d, col %d: %s", tok.Line, tok.Column, tok.Literal)
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}
