// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package expr

import (
	"unicode"
	"unicode/utf8"
)

// Tokenize splits expression into tokens. Whitespace is skipped. A digit or
// '.' starts a number literal that runs over every following digit and '.';
// the literal is not validated here, so "1.2.3" is a single token that fails
// later during evaluation.
func Tokenize(expression string) ([]Token, error) {
	var tokens []Token
	for i := 0; i < len(expression); {
		r, size := utf8.DecodeRuneInString(expression[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '(':
			tokens = append(tokens, LeftParen)
			i++
		case r == ')':
			tokens = append(tokens, RightParen)
			i++
		case r == '+' || r == '*' || r == '/':
			tokens = append(tokens, OperatorToken(Operator(r)))
			i++
		case r == '-':
			if !signAllowed(tokens) {
				tokens = append(tokens, OperatorToken(Sub))
				i++
				continue
			}
			end := scanNumber(expression, i+1)
			tokens = append(tokens, Number(expression[i:end]))
			i = end
		case isNumberByte(r):
			end := scanNumber(expression, i)
			tokens = append(tokens, Number(expression[i:end]))
			i = end
		default:
			return nil, &LexError{Char: r, Pos: i}
		}
	}
	return tokens, nil
}

// signAllowed reports whether a '-' read now is a sign rather than the
// binary operator: at the start of input, after an operator or after '('.
func signAllowed(tokens []Token) bool {
	if len(tokens) == 0 {
		return true
	}
	switch tokens[len(tokens)-1].Kind {
	case KindOperator, KindLeftParen:
		return true
	}
	return false
}

func scanNumber(s string, i int) int {
	for i < len(s) && isNumberByte(rune(s[i])) {
		i++
	}
	return i
}

func isNumberByte(r rune) bool {
	return ('0' <= r && r <= '9') || r == '.'
}
