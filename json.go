// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package calc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	gorillarpc "github.com/gorilla/rpc/v2"
	rpc "github.com/gorilla/rpc/v2/json2"
)

const (
	maxRetries    = 3
	retryBaseWait = 500 * time.Millisecond
)

// JSONServiceName is the JSON-RPC service the calculator registers as.
// Methods are addressed as "calculadora.Soma", "calculadora.CalcularExpressao"
// and so on.
const JSONServiceName = "calculadora"

// JSONPath is the HTTP path the JSON-RPC endpoint is served on.
const JSONPath = "/rpc"

// JSONMethod returns the JSON-RPC method name for op.
func JSONMethod(op Op) string {
	m := op.Method()
	if m == "" {
		return ""
	}
	return JSONServiceName + "." + strings.ToUpper(m[:1]) + m[1:]
}

// newHTTPClient creates a fresh HTTP client with disabled connection reuse.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DisableKeepAlives: true,
		},
	}
}

// CleanlyCloseBody drains and closes an HTTP response body to prevent
// HTTP/2 GOAWAY errors caused by closing bodies with unread data.
// See: https://github.com/golang/go/issues/46071
func CleanlyCloseBody(body io.ReadCloser) error {
	if body == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, body)
	return body.Close()
}

// isRetryableError checks if an error is transient and worth retrying
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	if errors.Is(err, io.EOF) || strings.Contains(errStr, "EOF") {
		return true
	}
	if strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "broken pipe") {
		return true
	}
	return false
}

// SendJSONRequest issues one JSON-RPC call, retrying transient connection
// failures with exponential backoff. A JSON-RPC error reply is returned as
// *json2.Error.
func SendJSONRequest(
	ctx context.Context,
	uri *url.URL,
	method string,
	params interface{},
	reply interface{},
	timeout time.Duration,
) error {
	requestBodyBytes, err := rpc.EncodeClientRequest(method, params)
	if err != nil {
		return fmt.Errorf("failed to encode client params: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 500ms, 1s
			waitTime := retryBaseWait * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitTime):
			}
		}

		// Create fresh request for each attempt (body buffer is consumed)
		request, err := http.NewRequestWithContext(
			ctx,
			http.MethodPost,
			uri.String(),
			bytes.NewBuffer(requestBodyBytes),
		)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		request.Header.Set("Content-Type", "application/json")

		resp, err := newHTTPClient(timeout).Do(request)
		if err != nil {
			lastErr = err
			log.Printf("[RPC] Request attempt %d failed: %v (retryable=%v)", attempt+1, err, isRetryableError(err))
			if isRetryableError(err) {
				continue
			}
			return fmt.Errorf("failed to issue request: %w", err)
		}
		if attempt > 0 {
			log.Printf("[RPC] Request succeeded on attempt %d", attempt+1)
		}

		err = decodeJSONResponse(resp, reply)
		CleanlyCloseBody(resp.Body)
		return err
	}

	return fmt.Errorf("failed to issue request after %d retries: %w", maxRetries, lastErr)
}

// decodeJSONResponse decodes the reply. JSON-RPC errors are kept even when
// they arrive with a non-2xx status.
func decodeJSONResponse(resp *http.Response, reply interface{}) error {
	err := rpc.DecodeClientResponse(resp.Body, reply)
	var rpcErr *rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("received status code: %d", resp.StatusCode)
	}
	if err != nil {
		return fmt.Errorf("failed to decode client response: %w", err)
	}
	return nil
}

// jsonURL accepts either a full URL or a host:port served at JSONPath.
func jsonURL(addr string) (*url.URL, error) {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr + JSONPath
	}
	return url.Parse(addr)
}

// dialJSON creates a JSON-RPC client. No connection is made until the first
// call.
func dialJSON(_ context.Context, addr string, o *dialOptions) (Client, error) {
	uri, err := jsonURL(addr)
	if err != nil {
		return nil, fmt.Errorf("json dial: %w", err)
	}
	return &jsonClient{uri: uri, timeout: o.timeout}, nil
}

// jsonClient implements Client over JSON-RPC 2.0
type jsonClient struct {
	uri     *url.URL
	timeout time.Duration
}

func (c *jsonClient) Call(ctx context.Context, req Request) (float64, error) {
	args, err := requestArgs(req)
	if err != nil {
		return 0, err
	}

	var res Result
	err = SendJSONRequest(ctx, c.uri, JSONMethod(req.Op), args, &res, c.timeout)
	var rpcErr *rpc.Error
	if errors.As(err, &rpcErr) {
		return 0, &RemoteError{Message: rpcErr.Message}
	}
	if err != nil {
		return 0, err
	}
	return res.Value, nil
}

func (c *jsonClient) Close() error {
	return nil
}

// jsonService exposes a Handler with gorilla/rpc method signatures.
type jsonService struct {
	h Handler
}

func (s *jsonService) call(r *http.Request, req Request, reply *Result) error {
	v, err := s.h.Handle(r.Context(), req)
	if err != nil {
		return &rpc.Error{Code: rpc.E_SERVER, Message: faultMessage(err)}
	}
	reply.Value = v
	return nil
}

func (s *jsonService) Soma(r *http.Request, args *Operands, reply *Result) error {
	return s.call(r, Request{Op: OpAdd, A: args.A, B: args.B}, reply)
}

func (s *jsonService) Subtracao(r *http.Request, args *Operands, reply *Result) error {
	return s.call(r, Request{Op: OpSubtract, A: args.A, B: args.B}, reply)
}

func (s *jsonService) Multiplicacao(r *http.Request, args *Operands, reply *Result) error {
	return s.call(r, Request{Op: OpMultiply, A: args.A, B: args.B}, reply)
}

func (s *jsonService) Divisao(r *http.Request, args *Operands, reply *Result) error {
	return s.call(r, Request{Op: OpDivide, A: args.A, B: args.B}, reply)
}

func (s *jsonService) CalcularExpressao(r *http.Request, args *ExpressionArgs, reply *Result) error {
	return s.call(r, ExpressionRequest(args.Expression), reply)
}

// NewJSONHandler returns an http.Handler serving h as JSON-RPC 2.0.
func NewJSONHandler(h Handler) (http.Handler, error) {
	s := gorillarpc.NewServer()
	s.RegisterCodec(rpc.NewCodec(), "application/json")
	if err := s.RegisterService(&jsonService{h: h}, JSONServiceName); err != nil {
		return nil, fmt.Errorf("register json service: %w", err)
	}
	return s, nil
}

// listenJSON creates a JSON-RPC server
func listenJSON(addr string, h Handler, o *serverOptions) (Server, error) {
	handler, err := NewJSONHandler(h)
	if err != nil {
		return nil, err
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(JSONPath, handler)
	return &jsonServer{
		listener: listener,
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: o.timeout,
			WriteTimeout:      o.timeout,
		},
	}, nil
}

// jsonServer implements Server over HTTP
type jsonServer struct {
	listener  net.Listener
	server    *http.Server
	closeOnce sync.Once
}

func (s *jsonServer) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	log.Printf("[calc] json-rpc serving on %s%s", s.Addr(), JSONPath)
	err := s.server.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *jsonServer) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.server.Close()
	})
	return err
}

func (s *jsonServer) Addr() string {
	return s.listener.Addr().String()
}
