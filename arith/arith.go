// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package arith implements the four primitive arithmetic operations.
package arith

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/luxfi/calc/expr"
)

// ErrDivideByZero is returned by Divide when the divisor is exactly zero.
var ErrDivideByZero = errors.New("division by zero")

func Add(a, b float64) float64      { return a + b }
func Subtract(a, b float64) float64 { return a - b }
func Multiply(a, b float64) float64 { return a * b }

// Divide returns a / b, or ErrDivideByZero if b is zero. It never returns
// an infinity or NaN produced by a zero divisor.
func Divide(a, b float64) (float64, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a / b, nil
}

// Apply dispatches op. It has the signature of expr.OperatorSink.
func Apply(op expr.Operator, a, b float64) (float64, error) {
	switch op {
	case expr.Add:
		return Add(a, b), nil
	case expr.Sub:
		return Subtract(a, b), nil
	case expr.Mul:
		return Multiply(a, b), nil
	case expr.Div:
		return Divide(a, b)
	}
	return 0, fmt.Errorf("arith: unsupported operator %q", rune(op))
}

// Hook observes a call made through a Unit. call is the unit's running call
// count, starting at 1.
type Hook func(op expr.Operator, call uint64)

// Option configures a Unit
type Option func(*Unit)

// WithHook installs h to observe every call.
func WithHook(h Hook) Option {
	return func(u *Unit) { u.hook = h }
}

// Unit is an arithmetic unit that counts its calls. The zero value is ready
// to use.
type Unit struct {
	hook  Hook
	calls atomic.Uint64
}

// New creates a Unit
func New(opts ...Option) *Unit {
	u := &Unit{}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Apply counts the call, notifies the hook and applies op.
func (u *Unit) Apply(op expr.Operator, a, b float64) (float64, error) {
	n := u.calls.Add(1)
	if u.hook != nil {
		u.hook(op, n)
	}
	return Apply(op, a, b)
}

// Calls returns the number of calls made so far.
func (u *Unit) Calls() uint64 {
	return u.calls.Load()
}
