// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package calc

import (
	"context"
	"fmt"
	"log"

	"github.com/luxfi/calc/arith"
	"github.com/luxfi/calc/expr"
)

// Service is the server side of the calculator. It owns the arithmetic unit
// and its call counter, and evaluates whole expressions with the local
// pipeline.
type Service struct {
	unit   *arith.Unit
	logger *log.Logger
}

var _ Handler = (*Service)(nil)

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithLogger sets the logger used for call logging
func WithLogger(l *log.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithUnit replaces the arithmetic unit. Calls through u are not logged by
// the service.
func WithUnit(u *arith.Unit) ServiceOption {
	return func(s *Service) { s.unit = u }
}

// NewService creates a Service
func NewService(opts ...ServiceOption) *Service {
	s := &Service{logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.unit == nil {
		s.unit = arith.New(arith.WithHook(s.logCall))
	}
	return s
}

func (s *Service) logCall(op expr.Operator, call uint64) {
	s.logger.Printf("[calc] %s called (call #%d)", OpFor(op), call)
}

// Handle applies req.
func (s *Service) Handle(ctx context.Context, req Request) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	switch req.Op {
	case OpAdd, OpSubtract, OpMultiply, OpDivide:
		op, _ := req.Op.Operator()
		return s.unit.Apply(op, req.A, req.B)
	case OpExpression:
		s.logger.Printf("[calc] %s called for %q", req.Op, req.Expression)
		return expr.Evaluate(req.Expression, s.unit.Apply)
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownOp, uint8(req.Op))
}

// Calls returns the number of arithmetic calls served.
func (s *Service) Calls() uint64 {
	return s.unit.Calls()
}
