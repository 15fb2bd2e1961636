// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package calc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrClientClosed is returned by calls on a closed client
var ErrClientClosed = errors.New("calc: client closed")

// Dial connects to a calculator server using the default transport (line).
// Use WithTransport to select another one.
func Dial(ctx context.Context, addr string, opts ...DialOption) (Client, error) {
	o := &dialOptions{
		transport: DefaultTransport,
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.codec = codecOrDefault(o.codec)
	if o.timeout <= 0 {
		o.timeout = defaultTimeout
	}

	t, ok := lookupTransport(o.transport)
	if !ok {
		return nil, fmt.Errorf("unknown transport: %s", o.transport)
	}
	return t.dial(ctx, addr, o)
}

// Listen creates a calculator server answering with h, using the default
// transport (line) unless WithServerTransport says otherwise.
func Listen(addr string, h Handler, opts ...ServerOption) (Server, error) {
	o := &serverOptions{
		transport: DefaultTransport,
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.codec = codecOrDefault(o.codec)
	if o.timeout <= 0 {
		o.timeout = defaultTimeout
	}

	t, ok := lookupTransport(o.transport)
	if !ok {
		return nil, fmt.Errorf("unknown transport: %s", o.transport)
	}
	return t.listen(addr, h, o)
}

// dialZAP creates a ZAP client
func dialZAP(ctx context.Context, addr string, o *dialOptions) (Client, error) {
	conn, err := ZAPDial(ctx, addr)
	if err != nil {
		return nil, err
	}
	return &zapClient{
		conn:    conn,
		codec:   o.codec,
		timeout: o.timeout,
	}, nil
}

// listenZAP creates a ZAP server
func listenZAP(addr string, h Handler, o *serverOptions) (Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &zapServer{
		handler: h,
		codec:   o.codec,
	}
	s.server = NewZAPServer(listener, ZAPHandlerFunc(s.handleZAP), o.timeout)
	return s, nil
}

// zapClient implements Client using ZAP transport. Each operation is sent
// as its named method.
type zapClient struct {
	conn    *ZAPConn
	codec   Codec
	timeout time.Duration
}

func (c *zapClient) Call(ctx context.Context, req Request) (float64, error) {
	args, err := requestArgs(req)
	if err != nil {
		return 0, err
	}
	payload, err := c.codec.Encode(args)
	if err != nil {
		return 0, fmt.Errorf("encode args: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.conn.Call(ctx, req.Op.Method(), payload)
	if err != nil {
		return 0, err
	}

	var res Result
	if err := c.codec.Decode(resp, &res); err != nil {
		return 0, fmt.Errorf("decode reply: %w", err)
	}
	return res.Value, nil
}

func (c *zapClient) Close() error {
	return c.conn.Close()
}

// zapServer implements Server using ZAP transport
type zapServer struct {
	server  *ZAPServer
	handler Handler
	codec   Codec
}

func (s *zapServer) handleZAP(ctx context.Context, method string, payload []byte) ([]byte, error) {
	op, ok := OpFromMethod(method)
	if !ok {
		return nil, fmt.Errorf("%w: method %q", ErrUnknownOp, method)
	}
	req, err := decodeArgs(op, func(v interface{}) error {
		return s.codec.Decode(payload, v)
	})
	if err != nil {
		return nil, err
	}
	v, err := s.handler.Handle(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.codec.Encode(Result{Value: v})
}

func (s *zapServer) Serve(ctx context.Context) error {
	return s.server.Serve(ctx)
}

func (s *zapServer) Close() error {
	return s.server.Close()
}

func (s *zapServer) Addr() string {
	return s.server.Addr().String()
}
