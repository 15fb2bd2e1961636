// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package calc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Line protocol
//
// A request is three lines: the selector (1-5), operand A and operand B.
// For selector 5 operand A is the expression and operand B is ignored,
// conventionally "0". The reply is one line: a decimal number, or
// ErrorMarker followed by a message.

// WriteRequest writes req as three lines.
func WriteRequest(w io.Writer, req Request) error {
	var a, b string
	switch req.Op {
	case OpAdd, OpSubtract, OpMultiply, OpDivide:
		a, b = FormatNumber(req.A), FormatNumber(req.B)
	case OpExpression:
		a, b = req.Expression, "0"
	default:
		return fmt.Errorf("%w: %d", ErrUnknownOp, uint8(req.Op))
	}
	if strings.ContainsAny(a, "\r\n") {
		return fmt.Errorf("%w: line break in expression", ErrBadOperand)
	}
	_, err := io.WriteString(w, strconv.Itoa(int(req.Op))+"\n"+a+"\n"+b+"\n")
	return err
}

// ReadRequest reads one request. Missing trailing lines are tolerated only
// where the operation does not need them.
func ReadRequest(r *bufio.Reader) (Request, error) {
	lines := make([]string, 0, 3)
	for len(lines) < 3 {
		line, err := readLine(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Request{}, err
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return Request{}, ErrEmptyRequest
	}

	op, err := ParseOp(lines[0])
	if err != nil {
		return Request{}, err
	}

	switch op {
	case OpAdd, OpSubtract, OpMultiply, OpDivide:
		if len(lines) < 3 {
			return Request{}, fmt.Errorf("%w: %s needs two operands", ErrBadOperand, op)
		}
		a, err := ParseNumber(lines[1])
		if err != nil {
			return Request{}, fmt.Errorf("%w: %q", ErrBadOperand, lines[1])
		}
		b, err := ParseNumber(lines[2])
		if err != nil {
			return Request{}, fmt.Errorf("%w: %q", ErrBadOperand, lines[2])
		}
		return Request{Op: op, A: a, B: b}, nil
	case OpExpression:
		if len(lines) < 2 {
			return Request{}, fmt.Errorf("%w: missing expression", ErrBadOperand)
		}
		return ExpressionRequest(lines[1]), nil
	}
	return Request{}, fmt.Errorf("%w: %d", ErrUnknownOp, uint8(op))
}

// WriteResponse writes the reply line for a result or a failure.
func WriteResponse(w io.Writer, v float64, err error) error {
	line := FormatNumber(v)
	if err != nil {
		line = ErrorMarker + " " + faultMessage(err)
	}
	_, werr := io.WriteString(w, line+"\n")
	return werr
}

// ReadResponse reads one reply line. Error replies become *RemoteError.
func ReadResponse(r *bufio.Reader) (float64, error) {
	line, err := readLine(r)
	if errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w: connection closed before reply", ErrMalformedResponse)
	}
	if err != nil {
		return 0, err
	}
	if strings.HasPrefix(line, ErrorMarker) {
		return 0, &RemoteError{Message: strings.TrimSpace(strings.TrimPrefix(line, ErrorMarker))}
	}
	v, err := ParseNumber(line)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedResponse, line)
	}
	return v, nil
}

// readLine returns the next line without its terminator. A final line with
// no terminator is returned as is; io.EOF is returned only when nothing is
// left.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// dialLine creates a line client. Connections are opened per call.
func dialLine(_ context.Context, addr string, o *dialOptions) (Client, error) {
	return &lineClient{addr: addr, timeout: o.timeout}, nil
}

// lineClient implements Client using the line protocol
type lineClient struct {
	addr    string
	timeout time.Duration
	closed  atomic.Bool
}

func (c *lineClient) Call(ctx context.Context, req Request) (float64, error) {
	if c.closed.Load() {
		return 0, ErrClientClosed
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return 0, fmt.Errorf("line dial: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	conn.SetDeadline(deadline)

	if err := WriteRequest(conn, req); err != nil {
		return 0, fmt.Errorf("line write: %w", err)
	}
	return ReadResponse(bufio.NewReader(conn))
}

func (c *lineClient) Close() error {
	c.closed.Store(true)
	return nil
}

// listenLine creates a line protocol server
func listenLine(addr string, h Handler, o *serverOptions) (Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &lineServer{
		listener: listener,
		handler:  h,
		timeout:  o.timeout,
		done:     make(chan struct{}),
	}, nil
}

// lineServer serves one request per connection, each connection on its own
// goroutine
type lineServer struct {
	listener  net.Listener
	handler   Handler
	timeout   time.Duration
	conns     sync.Map
	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

func (s *lineServer) Serve(ctx context.Context) error {
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return nil
			}
			return fmt.Errorf("line accept: %w", err)
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *lineServer) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	s.conns.Store(conn, struct{}{})
	defer s.conns.Delete(conn)

	id := uuid.NewString()
	log.Printf("[calc] connection %s from %s", id, conn.RemoteAddr())
	conn.SetDeadline(time.Now().Add(s.timeout))

	var v float64
	req, err := ReadRequest(bufio.NewReader(conn))
	if err == nil {
		v, err = s.handler.Handle(ctx, req)
	}
	if werr := WriteResponse(conn, v, err); werr != nil {
		log.Printf("[calc] connection %s: write reply: %v", id, werr)
		return
	}
	if err != nil {
		log.Printf("[calc] connection %s: %s failed: %v", id, req.Op, err)
		return
	}
	log.Printf("[calc] connection %s: %s -> %s", id, req.Op, FormatNumber(v))
}

func (s *lineServer) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		s.conns.Range(func(key, _ interface{}) bool {
			key.(net.Conn).Close()
			return true
		})
		err = s.listener.Close()
	})
	return err
}

func (s *lineServer) Addr() string {
	return s.listener.Addr().String()
}
