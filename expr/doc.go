// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package expr evaluates infix arithmetic expressions.
//
// Evaluation is a three stage pipeline:
//
//	tokens, err := expr.Tokenize("(2+3)*4")
//	postfix, err := expr.ToPostfix(tokens)
//	value, err := expr.EvalPostfix(postfix, sink)
//
// The final stage hands every operator application to an OperatorSink. A
// sink may compute locally (see package arith) or perform a remote round
// trip, which lets the same evaluator serve both execution modes.
//
// Only the four binary operators + - * / and parentheses are recognised.
// A '-' at the start of the input, after an operator or after '(' is a sign
// and is folded into the numeric literal that follows it.
package expr
