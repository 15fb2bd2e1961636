// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package calc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/luxfi/calc/arith"
	"github.com/luxfi/calc/expr"
)

// ErrorMarker prefixes every error reply of the line protocol.
const ErrorMarker = "ERRO:"

var (
	ErrUnknownOp         = errors.New("unknown operation")
	ErrInvalidSelector   = errors.New("invalid operation code")
	ErrEmptyRequest      = errors.New("empty request")
	ErrBadOperand        = errors.New("invalid operand")
	ErrMalformedResponse = errors.New("malformed response")
)

// Op selects a remote operation. The numeric values are the selectors of the
// line protocol.
type Op uint8

const (
	OpAdd Op = iota + 1
	OpSubtract
	OpMultiply
	OpDivide
	OpExpression
)

// Ops lists every operation in selector order.
var Ops = []Op{OpAdd, OpSubtract, OpMultiply, OpDivide, OpExpression}

// Valid reports whether o is one of the defined operations.
func (o Op) Valid() bool {
	return o >= OpAdd && o <= OpExpression
}

// Method returns the name under which o is exposed by the RPC transports.
func (o Op) Method() string {
	switch o {
	case OpAdd:
		return "soma"
	case OpSubtract:
		return "subtracao"
	case OpMultiply:
		return "multiplicacao"
	case OpDivide:
		return "divisao"
	case OpExpression:
		return "calcularExpressao"
	}
	return ""
}

func (o Op) String() string {
	if m := o.Method(); m != "" {
		return m
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// Operator returns the arithmetic operator applied by o. It reports false for
// OpExpression.
func (o Op) Operator() (expr.Operator, bool) {
	switch o {
	case OpAdd:
		return expr.Add, true
	case OpSubtract:
		return expr.Sub, true
	case OpMultiply:
		return expr.Mul, true
	case OpDivide:
		return expr.Div, true
	}
	return 0, false
}

// OpFor returns the operation that applies op, or zero for an unknown
// operator.
func OpFor(op expr.Operator) Op {
	switch op {
	case expr.Add:
		return OpAdd
	case expr.Sub:
		return OpSubtract
	case expr.Mul:
		return OpMultiply
	case expr.Div:
		return OpDivide
	}
	return 0
}

// OpFromMethod looks up an operation by its RPC method name.
func OpFromMethod(name string) (Op, bool) {
	for _, o := range Ops {
		if o.Method() == name {
			return o, true
		}
	}
	return 0, false
}

// ParseOp parses a line protocol selector.
func ParseOp(s string) (Op, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSelector, s)
	}
	o := Op(n)
	if n < 0 || n > 255 || !o.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownOp, n)
	}
	return o, nil
}

// Request is one remote call: either an arithmetic operation on A and B, or
// a whole expression for OpExpression.
type Request struct {
	Op         Op
	A, B       float64
	Expression string
}

// OperatorRequest builds the request applying op to a and b.
func OperatorRequest(op expr.Operator, a, b float64) Request {
	return Request{Op: OpFor(op), A: a, B: b}
}

// ExpressionRequest builds the request evaluating expression remotely.
func ExpressionRequest(expression string) Request {
	return Request{Op: OpExpression, Expression: expression}
}

// Operands are the typed arguments of the four arithmetic methods.
type Operands struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// ExpressionArgs is the typed argument of calcularExpressao.
type ExpressionArgs struct {
	Expression string `json:"expression"`
}

// Result is the typed reply of every method.
type Result struct {
	Value float64 `json:"value"`
}

// requestArgs returns the typed arguments carried for req.
func requestArgs(req Request) (interface{}, error) {
	switch req.Op {
	case OpAdd, OpSubtract, OpMultiply, OpDivide:
		return Operands{A: req.A, B: req.B}, nil
	case OpExpression:
		return ExpressionArgs{Expression: req.Expression}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownOp, uint8(req.Op))
}

// decodeArgs rebuilds the request for op from typed arguments.
func decodeArgs(op Op, decode func(interface{}) error) (Request, error) {
	switch op {
	case OpAdd, OpSubtract, OpMultiply, OpDivide:
		var args Operands
		if err := decode(&args); err != nil {
			return Request{}, fmt.Errorf("%w: %v", ErrBadOperand, err)
		}
		return Request{Op: op, A: args.A, B: args.B}, nil
	case OpExpression:
		var args ExpressionArgs
		if err := decode(&args); err != nil {
			return Request{}, fmt.Errorf("%w: %v", ErrBadOperand, err)
		}
		return ExpressionRequest(args.Expression), nil
	}
	return Request{}, fmt.Errorf("%w: %d", ErrUnknownOp, uint8(op))
}

// FormatNumber renders v in shortest decimal form. Integral values have no
// fractional part.
func FormatNumber(v float64) string {
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseNumber parses a decimal operand or result.
func ParseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// RemoteError is a fault reported by the remote side.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return ErrorMarker + " " + e.Message
}

// remoteFaults are the failures a RemoteError can be matched against with
// errors.Is.
var remoteFaults = []error{
	arith.ErrDivideByZero,
	expr.ErrUnbalanced,
	expr.ErrMalformed,
	ErrUnknownOp,
	ErrInvalidSelector,
	ErrEmptyRequest,
	ErrBadOperand,
}

// Unwrap returns the known failure named by the message, if any.
func (e *RemoteError) Unwrap() error {
	for _, fault := range remoteFaults {
		if strings.Contains(e.Message, fault.Error()) {
			return fault
		}
	}
	return nil
}

// faultMessage is the text sent to the caller for err.
func faultMessage(err error) string {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Message
	}
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(err.Error())
}
