// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package expr

import "fmt"

// Kind identifies the lexical class of a Token
type Kind uint8

const (
	KindNumber Kind = iota
	KindOperator
	KindLeftParen
	KindRightParen
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindOperator:
		return "operator"
	case KindLeftParen:
		return "left paren"
	case KindRightParen:
		return "right paren"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Operator is one of the four binary arithmetic operators
type Operator byte

const (
	Add Operator = '+'
	Sub Operator = '-'
	Mul Operator = '*'
	Div Operator = '/'
)

// Precedence returns the binding strength of o. All operators are
// left-associative.
func (o Operator) Precedence() int {
	switch o {
	case Add, Sub:
		return 1
	case Mul, Div:
		return 2
	}
	return 0
}

func (o Operator) String() string {
	return string(rune(o))
}

// Token is an immutable lexical unit. Number tokens keep their literal text;
// the literal is parsed when the postfix sequence is evaluated.
type Token struct {
	Kind Kind
	Op   Operator // set for KindOperator
	Text string   // set for KindNumber
}

var (
	LeftParen  = Token{Kind: KindLeftParen}
	RightParen = Token{Kind: KindRightParen}
)

// Number returns a number token holding literal.
func Number(literal string) Token {
	return Token{Kind: KindNumber, Text: literal}
}

// OperatorToken returns the token for op.
func OperatorToken(op Operator) Token {
	return Token{Kind: KindOperator, Op: op}
}

func (t Token) String() string {
	switch t.Kind {
	case KindNumber:
		return t.Text
	case KindOperator:
		return t.Op.String()
	case KindLeftParen:
		return "("
	case KindRightParen:
		return ")"
	}
	return t.Kind.String()
}
