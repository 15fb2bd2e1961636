// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package calc

import (
	"context"
	"io"
	"log"
	"testing"
)

func quietService() *Service {
	return NewService(WithLogger(log.New(io.Discard, "", 0)))
}

// startServer listens on a loopback port with the given transport and
// serves until the test ends.
func startServer(tb testing.TB, ctx context.Context, transport string, h Handler) Server {
	tb.Helper()
	server, err := Listen("127.0.0.1:0", h, WithServerTransport(transport))
	if err != nil {
		tb.Fatalf("Listen(%s): %v", transport, err)
	}
	tb.Cleanup(func() { server.Close() })
	go server.Serve(ctx)
	return server
}

func dialServer(tb testing.TB, ctx context.Context, transport string, addr string) Client {
	tb.Helper()
	client, err := Dial(ctx, addr, WithTransport(transport))
	if err != nil {
		tb.Fatalf("Dial(%s): %v", transport, err)
	}
	tb.Cleanup(func() { client.Close() })
	return client
}
