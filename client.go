// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package calc

import (
	"context"
	"time"
)

// Client is the transport-agnostic calculator client interface.
// All application code should use this interface.
type Client interface {
	// Call performs one request/response round trip
	Call(ctx context.Context, req Request) (float64, error)

	// Close closes the connection
	Close() error
}

// Server is the transport-agnostic calculator server interface.
type Server interface {
	// Serve starts serving requests (blocks until context cancelled or Close)
	Serve(ctx context.Context) error

	// Close stops the server
	Close() error

	// Addr returns the server's listen address
	Addr() string
}

// Handler answers requests on the server side.
type Handler interface {
	Handle(ctx context.Context, req Request) (float64, error)
}

// HandlerFunc is a function adapter for Handler
type HandlerFunc func(ctx context.Context, req Request) (float64, error)

func (f HandlerFunc) Handle(ctx context.Context, req Request) (float64, error) {
	return f(ctx, req)
}

// Local returns a Client that calls h in process.
func Local(h Handler) Client {
	return localClient{h}
}

type localClient struct {
	h Handler
}

func (c localClient) Call(ctx context.Context, req Request) (float64, error) {
	return c.h.Handle(ctx, req)
}

func (localClient) Close() error { return nil }

// Codec encodes/decodes typed call arguments
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte, v interface{}) error
}

// defaultTimeout bounds one round trip on the line and zap transports.
const defaultTimeout = 30 * time.Second

// DialOption configures client connections
type DialOption func(*dialOptions)

type dialOptions struct {
	codec     Codec
	transport string // "line", "zap", "json", "grpc"
	timeout   time.Duration
}

// WithCodec sets a custom codec
func WithCodec(c Codec) DialOption {
	return func(o *dialOptions) { o.codec = c }
}

// WithTransport explicitly sets the transport type
func WithTransport(t string) DialOption {
	return func(o *dialOptions) { o.transport = t }
}

// WithTimeout bounds each round trip
func WithTimeout(d time.Duration) DialOption {
	return func(o *dialOptions) { o.timeout = d }
}

// ServerOption configures servers
type ServerOption func(*serverOptions)

type serverOptions struct {
	codec     Codec
	transport string
	timeout   time.Duration
}

// WithServerCodec sets a custom codec for the server
func WithServerCodec(c Codec) ServerOption {
	return func(o *serverOptions) { o.codec = c }
}

// WithServerTransport explicitly sets the transport type for the server
func WithServerTransport(t string) ServerOption {
	return func(o *serverOptions) { o.transport = t }
}

// WithServerTimeout bounds the time a connection may take to deliver a
// request and receive its reply
func WithServerTimeout(d time.Duration) ServerOption {
	return func(o *serverOptions) { o.timeout = d }
}
