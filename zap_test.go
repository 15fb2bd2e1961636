// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package calc

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/luxfi/calc/arith"
	"github.com/luxfi/calc/expr"
)

func TestZAPRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	server := NewZAPServer(listener, ZAPHandlerFunc(func(ctx context.Context, method string, payload []byte) ([]byte, error) {
		if method != "echo" {
			return nil, errors.New("unknown method: " + method)
		}
		return payload, nil
	}), time.Second)
	defer server.Close()
	go server.Serve(ctx)

	conn, err := ZAPDial(ctx, server.Addr().String())
	if err != nil {
		t.Fatalf("ZAPDial: %v", err)
	}
	defer conn.Close()

	payload := []byte("hello world")
	resp, err := conn.Call(ctx, "echo", payload)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if string(resp) != string(payload) {
		t.Errorf("got %q, want %q", resp, payload)
	}

	_, err = conn.Call(ctx, "nope", nil)
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.Message != "unknown method: nope" {
		t.Errorf("message = %q", remote.Message)
	}
}

func TestZAPNamedMethods(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := startServer(t, ctx, TransportZAP, quietService())
	conn, err := ZAPDial(ctx, server.Addr())
	if err != nil {
		t.Fatalf("ZAPDial: %v", err)
	}
	defer conn.Close()

	resp, err := conn.Call(ctx, "multiplicacao", []byte(`{"a":6,"b":7}`))
	if err != nil {
		t.Fatalf("multiplicacao: %v", err)
	}
	if string(resp) != `{"value":42}` {
		t.Errorf("multiplicacao reply = %s", resp)
	}

	resp, err = conn.Call(ctx, "calcularExpressao", []byte(`{"expression":"(10 + 15) * 4"}`))
	if err != nil {
		t.Fatalf("calcularExpressao: %v", err)
	}
	if string(resp) != `{"value":100}` {
		t.Errorf("calcularExpressao reply = %s", resp)
	}

	_, err = conn.Call(ctx, "potencia", []byte(`{"a":2,"b":3}`))
	if !errors.Is(err, ErrUnknownOp) {
		t.Errorf("unknown method: got %v, want %v", err, ErrUnknownOp)
	}

	_, err = conn.Call(ctx, "soma", []byte(`not json`))
	if !errors.Is(err, ErrBadOperand) {
		t.Errorf("bad payload: got %v, want %v", err, ErrBadOperand)
	}
}

func TestZAPCall(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := startServer(t, ctx, TransportZAP, quietService())
	client := dialServer(t, ctx, TransportZAP, server.Addr())

	v, err := client.Call(ctx, OperatorRequest(expr.Add, 2, 3))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if v != 5 {
		t.Errorf("got %v, want 5", v)
	}

	_, err = client.Call(ctx, OperatorRequest(expr.Div, 2, 0))
	if !errors.Is(err, arith.ErrDivideByZero) {
		t.Errorf("got %v, want %v", err, arith.ErrDivideByZero)
	}
}

func TestZAPConcurrentCalls(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := startServer(t, ctx, TransportZAP, quietService())
	client := dialServer(t, ctx, TransportZAP, server.Addr())

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := client.Call(ctx, OperatorRequest(expr.Mul, float64(i), 2))
			if err != nil {
				errs <- err
				return
			}
			if v != float64(2*i) {
				errs <- errors.New("wrong result for " + FormatNumber(float64(i)))
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestZAPServerClose(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server, err := Listen("127.0.0.1:0", quietService(), WithServerTransport(TransportZAP))
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()

	client := dialServer(t, ctx, TransportZAP, server.Addr())
	if _, err := client.Call(ctx, OperatorRequest(expr.Add, 1, 1)); err != nil {
		t.Fatalf("Call: %v", err)
	}

	if err := server.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v after Close", err)
		}
	case <-ctx.Done():
		t.Fatal("Serve did not return after Close")
	}

	if _, err := client.Call(ctx, OperatorRequest(expr.Add, 1, 1)); err == nil {
		t.Error("expected error after server close")
	}
}

func BenchmarkZAPRoundTrip(b *testing.B) {
	ctx := context.Background()

	server := startServer(b, ctx, TransportZAP, NewService(WithUnit(arith.New())))
	client := dialServer(b, ctx, TransportZAP, server.Addr())

	req := OperatorRequest(expr.Add, 1, 2)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := client.Call(ctx, req); err != nil {
			b.Fatal(err)
		}
	}
}
