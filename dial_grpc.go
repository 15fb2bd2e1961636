// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package calc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
)

func init() {
	registerTransport(TransportGRPC, dialGRPC, listenGRPC)
}

// GRPCServiceName is the fully qualified gRPC service name. Methods carry
// the operation names, e.g. "/calc.Calculadora/soma".
const GRPCServiceName = "calc.Calculadora"

func grpcMethod(op Op) string {
	return "/" + GRPCServiceName + "/" + op.Method()
}

// grpcCodec adapts a Codec to grpc's encoding.Codec.
type grpcCodec struct {
	Codec
}

var _ encoding.Codec = grpcCodec{}

func (c grpcCodec) Marshal(v interface{}) ([]byte, error)      { return c.Encode(v) }
func (c grpcCodec) Unmarshal(data []byte, v interface{}) error { return c.Decode(data, v) }
func (grpcCodec) Name() string                                 { return "json" }

func dialGRPC(ctx context.Context, addr string, o *dialOptions) (Client, error) {
	conn, err := grpc.DialContext(ctx, addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(grpcCodec{o.codec})),
	)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &grpcClient{conn: conn, timeout: o.timeout}, nil
}

type grpcClient struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

func (c *grpcClient) Call(ctx context.Context, req Request) (float64, error) {
	args, err := requestArgs(req)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var res Result
	if err := c.conn.Invoke(ctx, grpcMethod(req.Op), args, &res); err != nil {
		if st, ok := status.FromError(err); ok && st.Code() == codes.InvalidArgument {
			return 0, &RemoteError{Message: st.Message()}
		}
		return 0, fmt.Errorf("grpc call: %w", err)
	}
	return res.Value, nil
}

func (c *grpcClient) Close() error {
	return c.conn.Close()
}

// grpcServiceDesc describes the calculator service without generated code.
// The registered implementation must satisfy Handler.
var grpcServiceDesc = grpc.ServiceDesc{
	ServiceName: GRPCServiceName,
	HandlerType: (*Handler)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: OpAdd.Method(), Handler: grpcMethodHandler(OpAdd)},
		{MethodName: OpSubtract.Method(), Handler: grpcMethodHandler(OpSubtract)},
		{MethodName: OpMultiply.Method(), Handler: grpcMethodHandler(OpMultiply)},
		{MethodName: OpDivide.Method(), Handler: grpcMethodHandler(OpDivide)},
		{MethodName: OpExpression.Method(), Handler: grpcMethodHandler(OpExpression)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "calc",
}

func grpcMethodHandler(op Op) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		req, err := decodeArgs(op, dec)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}

		handle := func(ctx context.Context, in interface{}) (interface{}, error) {
			v, err := srv.(Handler).Handle(ctx, in.(Request))
			if err != nil {
				return nil, status.Error(codes.InvalidArgument, faultMessage(err))
			}
			return &Result{Value: v}, nil
		}
		if interceptor == nil {
			return handle(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: grpcMethod(op),
		}
		return interceptor(ctx, req, info, handle)
	}
}

func listenGRPC(addr string, h Handler, o *serverOptions) (Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	server := grpc.NewServer(grpc.ForceServerCodec(grpcCodec{o.codec}))
	server.RegisterService(&grpcServiceDesc, h)
	return &grpcServer{listener: listener, server: server}, nil
}

type grpcServer struct {
	listener  net.Listener
	server    *grpc.Server
	closeOnce sync.Once
}

func (s *grpcServer) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	log.Printf("[calc] grpc serving %s on %s", GRPCServiceName, s.Addr())
	if err := s.server.Serve(s.listener); !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (s *grpcServer) Close() error {
	s.closeOnce.Do(func() {
		s.server.Stop()
		// Stop only closes listeners that Serve was given.
		s.listener.Close()
	})
	return nil
}

func (s *grpcServer) Addr() string {
	return s.listener.Addr().String()
}
