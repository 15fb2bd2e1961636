// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package expr

import (
	"fmt"
	"strconv"
)

// OperatorSink applies a binary operator to its left operand a and right
// operand b.
type OperatorSink func(op Operator, a, b float64) (float64, error)

// EvalPostfix reduces a postfix sequence to one value, calling sink once per
// operator in sequence order. An error returned by sink ends the evaluation
// and is returned unchanged.
func EvalPostfix(postfix []Token, sink OperatorSink) (float64, error) {
	stack := make([]float64, 0, len(postfix))

	for _, tok := range postfix {
		switch tok.Kind {
		case KindNumber:
			v, err := strconv.ParseFloat(tok.Text, 64)
			if err != nil {
				return 0, fmt.Errorf("%w: invalid number %q", ErrMalformed, tok.Text)
			}
			stack = append(stack, v)

		case KindOperator:
			n := len(stack)
			if n < 2 {
				return 0, fmt.Errorf("%w: operator %s needs two operands", ErrMalformed, tok.Op)
			}
			b, a := stack[n-1], stack[n-2]
			stack = stack[:n-2]

			v, err := sink(tok.Op, a, b)
			if err != nil {
				return 0, err
			}
			stack = append(stack, v)

		default:
			return 0, fmt.Errorf("%w: unexpected %s in postfix", ErrMalformed, tok.Kind)
		}
	}

	if len(stack) != 1 {
		return 0, fmt.Errorf("%w: %d values left after evaluation", ErrMalformed, len(stack))
	}
	return stack[0], nil
}

// Evaluate runs the full pipeline on expression.
func Evaluate(expression string, sink OperatorSink) (float64, error) {
	tokens, err := Tokenize(expression)
	if err != nil {
		return 0, err
	}
	postfix, err := ToPostfix(tokens)
	if err != nil {
		return 0, err
	}
	return EvalPostfix(postfix, sink)
}
