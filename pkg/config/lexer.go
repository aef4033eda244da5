// Package config implements the mrelay configuration compiler and the
// access-control policy model the forwarding path queries at runtime.
package config

import "fmt"

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenLBrace     TokenType = iota // {
	TokenRBrace                      // }
	TokenEquals                      // =
	TokenIdentifier                  // unquoted word
	TokenEOF
	TokenError
)

func (t TokenType) String() string {
	switch t {
	case TokenLBrace:
		return "'{'"
	case TokenRBrace:
		return "'}'"
	case TokenEquals:
		return "'='"
	case TokenIdentifier:
		return "identifier"
	case TokenEOF:
		return "end of statement"
	case TokenError:
		return "error"
	default:
		return "unknown"
	}
}

// Token is a single lexer token.
type Token struct {
	Type  TokenType
	Value string
	Line  int
}

func (t Token) String() string {
	if t.Type == TokenIdentifier {
		return fmt.Sprintf("%s(%q)", t.Type, t.Value)
	}
	return t.Type.String()
}

// Lexer tokenizes a single preprocessed statement. Comments and the statement
// separator are already gone by the time a statement reaches the lexer; only
// braces, '=', and identifiers remain.
type Lexer struct {
	input string
	pos   int
	line  int
}

// NewLexer creates a Lexer for one statement. The line argument is the
// statement's line number in the original file, so tokens report file-level
// positions.
func NewLexer(input string, line int) *Lexer {
	return &Lexer{input: input, line: line}
}

// Next returns the next token, advancing the position.
func (l *Lexer) Next() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Line: l.line}
	}

	ch := l.input[l.pos]
	line := l.line

	switch ch {
	case '{':
		l.advance()
		return Token{Type: TokenLBrace, Value: "{", Line: line}
	case '}':
		l.advance()
		return Token{Type: TokenRBrace, Value: "}", Line: line}
	case '=':
		l.advance()
		return Token{Type: TokenEquals, Value: "=", Line: line}
	default:
		if isIdentChar(ch) {
			return l.readIdentifier(line)
		}
		l.advance()
		return Token{
			Type:  TokenError,
			Value: fmt.Sprintf("unexpected character: %c", ch),
			Line:  line,
		}
	}
}

// Peek returns the next token without advancing.
func (l *Lexer) Peek() Token {
	savedPos := l.pos
	savedLine := l.line
	tok := l.Next()
	l.pos = savedPos
	l.line = savedLine
	return tok
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
		}
		l.pos++
	}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			l.advance()
			continue
		}
		break
	}
}

func (l *Lexer) readIdentifier(line int) Token {
	start := l.pos
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.pos++
	}
	return Token{Type: TokenIdentifier, Value: l.input[start:l.pos], Line: line}
}

// isIdentChar returns true if ch is valid in a configuration identifier.
// Identifiers cover table/instance names, interface names (eth0.50), IPv4
// and IPv6 addresses (239.1.1.1, ff0e::1), and the '*' wildcard.
func isIdentChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '-' || ch == '_' || ch == '.' ||
		ch == ':' || ch == '*'
}
