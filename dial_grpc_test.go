// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package calc

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/luxfi/calc/arith"
	"github.com/luxfi/calc/expr"
)

func TestGRPCCall(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := startServer(t, ctx, TransportGRPC, quietService())
	client := dialServer(t, ctx, TransportGRPC, server.Addr())

	v, err := client.Call(ctx, OperatorRequest(expr.Mul, 2.5, 4))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if v != 10 {
		t.Errorf("got %v, want 10", v)
	}

	v, err = client.Call(ctx, ExpressionRequest("8-3-2"))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if v != 3 {
		t.Errorf("got %v, want 3", v)
	}

	_, err = client.Call(ctx, OperatorRequest(expr.Div, 1, 0))
	if !errors.Is(err, arith.ErrDivideByZero) {
		t.Errorf("got %v, want %v", err, arith.ErrDivideByZero)
	}
}

func TestGRPCFaultStatus(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := startServer(t, ctx, TransportGRPC, quietService())
	conn, err := grpc.NewClient(server.Addr(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(grpcCodec{JSONCodec{}})),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer conn.Close()

	var res Result
	err = conn.Invoke(ctx, "/calc.Calculadora/divisao", &Operands{A: 1, B: 0}, &res)
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected status error, got %v", err)
	}
	if st.Code() != codes.InvalidArgument {
		t.Errorf("code = %v, want %v", st.Code(), codes.InvalidArgument)
	}
	if st.Message() != "division by zero" {
		t.Errorf("message = %q", st.Message())
	}

	err = conn.Invoke(ctx, "/calc.Calculadora/potencia", &Operands{A: 2, B: 3}, &res)
	if status.Code(err) != codes.Unimplemented {
		t.Errorf("unknown method: code = %v, want %v", status.Code(err), codes.Unimplemented)
	}
}

func TestGRPCInterceptor(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var seen []string
	handler := grpcMethodHandler(OpAdd)
	out, err := handler(quietService(), ctx,
		func(v interface{}) error {
			*v.(*Operands) = Operands{A: 4, B: 5}
			return nil
		},
		func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (interface{}, error) {
			seen = append(seen, info.FullMethod)
			return next(ctx, req)
		},
	)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if res := out.(*Result); res.Value != 9 {
		t.Errorf("got %v, want 9", res.Value)
	}
	if len(seen) != 1 || seen[0] != "/calc.Calculadora/soma" {
		t.Errorf("interceptor saw %v", seen)
	}
}
