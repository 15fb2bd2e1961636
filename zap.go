// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package calc

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrZAPClosed      = errors.New("zap: connection closed")
	ErrZAPInvalidResp = errors.New("zap: invalid response")
)

// MessageType identifies ZAP message types
type MessageType uint8

const (
	MsgRequest  MessageType = 0x01
	MsgResponse MessageType = 0x02
	MsgError    MessageType = 0x03
)

// maxFrameSize caps a single frame. Calculator payloads are tiny.
const maxFrameSize = 1 << 20

// Frames are [4 len][1 type][4 reqID][body]. A request body is
// [2 methodLen][method][payload]; a response or error body is the payload.

func encodeFrame(typ MessageType, requestID uint32, method string, payload []byte) []byte {
	bodyLen := len(payload)
	if typ == MsgRequest {
		bodyLen += 2 + len(method)
	}
	msgLen := 1 + 4 + bodyLen

	buf := make([]byte, 4+msgLen)
	binary.BigEndian.PutUint32(buf[0:4], uint32(msgLen))
	buf[4] = byte(typ)
	binary.BigEndian.PutUint32(buf[5:9], requestID)
	body := buf[9:]
	if typ == MsgRequest {
		binary.BigEndian.PutUint16(body[0:2], uint16(len(method)))
		copy(body[2:], method)
		body = body[2+len(method):]
	}
	copy(body, payload)
	return buf
}

// readFrame reads one frame and returns its type, request ID and body.
func readFrame(r io.Reader) (MessageType, uint32, []byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, 0, nil, err
	}
	msgLen := binary.BigEndian.Uint32(header[:])
	if msgLen < 5 || msgLen > maxFrameSize {
		return 0, 0, nil, fmt.Errorf("zap: bad frame length %d", msgLen)
	}
	msg := make([]byte, msgLen)
	if _, err := io.ReadFull(r, msg); err != nil {
		return 0, 0, nil, err
	}
	return MessageType(msg[0]), binary.BigEndian.Uint32(msg[1:5]), msg[5:], nil
}

// splitMethod separates the method name from a request body.
func splitMethod(body []byte) (string, []byte, bool) {
	if len(body) < 2 {
		return "", nil, false
	}
	n := int(binary.BigEndian.Uint16(body[0:2]))
	if len(body) < 2+n {
		return "", nil, false
	}
	return string(body[2 : 2+n]), body[2+n:], true
}

// ZAPConn is a multiplexed ZAP connection: many calls may be in flight on
// it at once.
type ZAPConn struct {
	conn     net.Conn
	writeMu  sync.Mutex
	pending  sync.Map // requestID -> chan *ZAPResponse
	nextID   atomic.Uint32
	closed   atomic.Bool
	readDone chan struct{}
}

// ZAPResponse holds a response from a ZAP call
type ZAPResponse struct {
	Data []byte
	Err  error
}

// ZAPDial connects to a ZAP server
func ZAPDial(ctx context.Context, addr string) (*ZAPConn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("zap dial: %w", err)
	}

	zc := &ZAPConn{
		conn:     conn,
		readDone: make(chan struct{}),
	}
	go zc.readLoop()
	return zc, nil
}

// Call sends method with payload and waits for the matching reply. Error
// frames are returned as *RemoteError.
func (z *ZAPConn) Call(ctx context.Context, method string, payload []byte) ([]byte, error) {
	if z.closed.Load() {
		return nil, ErrZAPClosed
	}

	requestID := z.nextID.Add(1)
	respCh := make(chan *ZAPResponse, 1)
	z.pending.Store(requestID, respCh)
	defer z.pending.Delete(requestID)

	if err := z.write(ctx, encodeFrame(MsgRequest, requestID, method, payload)); err != nil {
		return nil, fmt.Errorf("zap write: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp := <-respCh:
		if resp.Err != nil {
			return nil, resp.Err
		}
		return resp.Data, nil
	case <-z.readDone:
		return nil, ErrZAPClosed
	}
}

func (z *ZAPConn) write(ctx context.Context, frame []byte) error {
	z.writeMu.Lock()
	defer z.writeMu.Unlock()

	deadline := time.Time{}
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	z.conn.SetWriteDeadline(deadline)
	_, err := z.conn.Write(frame)
	return err
}

func (z *ZAPConn) readLoop() {
	defer close(z.readDone)

	for {
		msgType, requestID, body, err := readFrame(z.conn)
		if err != nil {
			return
		}

		ch, ok := z.pending.Load(requestID)
		if !ok {
			continue
		}
		respCh := ch.(chan *ZAPResponse)
		switch msgType {
		case MsgResponse:
			respCh <- &ZAPResponse{Data: body}
		case MsgError:
			respCh <- &ZAPResponse{Err: &RemoteError{Message: string(body)}}
		default:
			respCh <- &ZAPResponse{Err: fmt.Errorf("%w: message type %#x", ErrZAPInvalidResp, byte(msgType))}
		}
	}
}

// Close closes the connection
func (z *ZAPConn) Close() error {
	if z.closed.Swap(true) {
		return nil
	}
	return z.conn.Close()
}

// ZAPServer handles incoming ZAP RPC requests
type ZAPServer struct {
	listener  net.Listener
	handler   ZAPHandler
	timeout   time.Duration
	conns     sync.Map
	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// ZAPHandler handles ZAP requests
type ZAPHandler interface {
	HandleZAP(ctx context.Context, method string, payload []byte) ([]byte, error)
}

// ZAPHandlerFunc is a function adapter for ZAPHandler
type ZAPHandlerFunc func(ctx context.Context, method string, payload []byte) ([]byte, error)

func (f ZAPHandlerFunc) HandleZAP(ctx context.Context, method string, payload []byte) ([]byte, error) {
	return f(ctx, method, payload)
}

// NewZAPServer creates a new ZAP server. timeout bounds each reply write.
func NewZAPServer(listener net.Listener, handler ZAPHandler, timeout time.Duration) *ZAPServer {
	return &ZAPServer{
		listener: listener,
		handler:  handler,
		timeout:  timeout,
		done:     make(chan struct{}),
	}
}

// Serve accepts connections until ctx is cancelled or the server is closed
func (s *ZAPServer) Serve(ctx context.Context) error {
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
			return fmt.Errorf("zap accept: %w", err)
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *ZAPServer) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	s.conns.Store(conn, struct{}{})
	defer s.conns.Delete(conn)

	log.Printf("[calc] zap connection from %s", conn.RemoteAddr())

	var writeMu sync.Mutex
	for {
		msgType, requestID, body, err := readFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !s.closed.Load() {
				log.Printf("[calc] zap connection %s: %v", conn.RemoteAddr(), err)
			}
			return
		}
		if msgType != MsgRequest {
			continue
		}

		method, payload, ok := splitMethod(body)
		if !ok {
			s.sendResponse(conn, &writeMu, requestID, nil, fmt.Errorf("zap: truncated request"))
			continue
		}

		go func() {
			respData, err := s.handler.HandleZAP(ctx, method, payload)
			s.sendResponse(conn, &writeMu, requestID, respData, err)
		}()
	}
}

func (s *ZAPServer) sendResponse(conn net.Conn, mu *sync.Mutex, requestID uint32, data []byte, err error) {
	frame := encodeFrame(MsgResponse, requestID, "", data)
	if err != nil {
		frame = encodeFrame(MsgError, requestID, "", []byte(faultMessage(err)))
	}

	mu.Lock()
	defer mu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(s.timeout))
	if _, werr := conn.Write(frame); werr != nil {
		log.Printf("[calc] zap reply %d: %v", requestID, werr)
	}
}

// Close closes the server and every open connection
func (s *ZAPServer) Close() error {
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

// Addr returns the listener address
func (s *ZAPServer) Addr() net.Addr {
	return s.listener.Addr()
}
