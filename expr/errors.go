// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package expr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnbalanced reports a ')' without a matching '(' or an unclosed '('.
	ErrUnbalanced = errors.New("unbalanced parentheses")
	// ErrMalformed reports a postfix sequence that does not reduce to a
	// single value, including number literals that fail to parse.
	ErrMalformed = errors.New("malformed expression")
)

// LexError reports a character the tokenizer does not recognise.
type LexError struct {
	Char rune
	Pos  int // byte offset into the expression
}

func (e *LexError) Error() string {
	return fmt.Sprintf("invalid character %q at offset %d", e.Char, e.Pos)
}
