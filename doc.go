// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package calc evaluates arithmetic expressions against a remote calculator.
//
// # Evaluation Modes
//
// An expression can be evaluated in two ways (see Evaluate):
//
//   - ModeDecomposed: the caller tokenizes and converts the expression to
//     postfix locally, then makes one round trip per operator.
//   - ModeFull: the caller sends the whole expression in one round trip and
//     the server runs the complete pipeline.
//
// Both modes use the same evaluator from package expr and produce the same
// result against the same server.
//
// # Transport Selection
//
// The line transport is the default. It speaks the three-line text protocol
// (selector, operand A, operand B; one reply line, errors prefixed with
// "ERRO:") over one TCP connection per call. Alternatives:
//
//	calc.WithTransport(calc.TransportZAP)  // framed binary, multiplexed
//	calc.WithTransport(calc.TransportJSON) // JSON-RPC 2.0 over HTTP
//	calc.WithTransport(calc.TransportGRPC) // gRPC with a JSON codec
//
// The RPC transports expose the five named operations soma, subtracao,
// multiplicacao, divisao and calcularExpressao with typed operands.
//
// # Usage
//
// Client usage:
//
//	client, err := calc.Dial(ctx, "localhost:9090")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	v, err := calc.Evaluate(ctx, client, calc.ModeDecomposed, "(10+15)*4")
//
// Server usage:
//
//	server, err := calc.Listen(":9090", calc.NewService())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	server.Serve(ctx)
//
// Remote faults come back as *RemoteError. errors.Is matches them against
// arith.ErrDivideByZero, expr.ErrUnbalanced and expr.ErrMalformed when the
// message names one of those failures.
//
// # Architecture
//
//   - client.go: Client, Server and Handler interfaces, options
//   - protocol.go: operation selectors, requests, remote faults
//   - service.go: server-side Handler owning the arithmetic unit
//   - remote.go: decomposed and full evaluation over a Client
//   - transport.go: transport registry
//   - dial.go: Dial and Listen factory functions
//   - line.go: line protocol transport (default)
//   - zap.go: ZAP framing
//   - json.go: JSON-RPC transport
//   - dial_grpc.go: gRPC transport
package calc
