// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package calc

import (
	"context"
	"fmt"

	"github.com/luxfi/calc/expr"
)

// Mode selects how an expression is evaluated against a remote calculator.
type Mode uint8

const (
	// ModeDecomposed tokenizes and converts locally, then makes one round
	// trip per operator.
	ModeDecomposed Mode = iota + 1
	// ModeFull ships the whole expression in a single round trip.
	ModeFull
)

func (m Mode) String() string {
	switch m {
	case ModeDecomposed:
		return "decomposed"
	case ModeFull:
		return "full"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Sink returns an operator sink that applies each operator through c.
// Round trips happen one at a time, in postfix order.
func Sink(ctx context.Context, c Client) expr.OperatorSink {
	return func(op expr.Operator, a, b float64) (float64, error) {
		return c.Call(ctx, OperatorRequest(op, a, b))
	}
}

// Evaluate evaluates expression through c in the given mode.
func Evaluate(ctx context.Context, c Client, mode Mode, expression string) (float64, error) {
	switch mode {
	case ModeDecomposed:
		return expr.Evaluate(expression, Sink(ctx, c))
	case ModeFull:
		return c.Call(ctx, ExpressionRequest(expression))
	}
	return 0, fmt.Errorf("unknown evaluation mode %d", uint8(mode))
}
