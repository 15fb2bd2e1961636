// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package calc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/calc/arith"
	"github.com/luxfi/calc/expr"
)

var modeExpressions = []string{
	"2+3*4",
	"(2+3)*4",
	"8-3-2",
	"2*3+4",
	"-3*2",
	"7/2",
	"(10+15)*4",
	"1.5*4-0.5",
	"2 * (3 + -1)",
}

// TestModesMatchLocal checks that both modes agree with local evaluation on
// every transport.
func TestModesMatchLocal(t *testing.T) {
	for _, transport := range AvailableTransports() {
		transport := transport
		t.Run(transport, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			server := startServer(t, ctx, transport, quietService())
			client := dialServer(t, ctx, transport, server.Addr())

			for _, e := range modeExpressions {
				want, err := expr.Evaluate(e, arith.Apply)
				require.NoError(t, err, e)

				for _, mode := range []Mode{ModeDecomposed, ModeFull} {
					got, err := Evaluate(ctx, client, mode, e)
					require.NoError(t, err, "%s %s", mode, e)
					require.Equal(t, want, got, "%s %s", mode, e)
				}
			}
		})
	}
}

func TestModeErrors(t *testing.T) {
	for _, transport := range AvailableTransports() {
		transport := transport
		t.Run(transport, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			server := startServer(t, ctx, transport, quietService())
			client := dialServer(t, ctx, transport, server.Addr())

			for _, mode := range []Mode{ModeDecomposed, ModeFull} {
				_, err := Evaluate(ctx, client, mode, "10/0")
				require.ErrorIs(t, err, arith.ErrDivideByZero, mode.String())

				_, err = Evaluate(ctx, client, mode, "(1+2")
				require.ErrorIs(t, err, expr.ErrUnbalanced, mode.String())
			}

			// Decomposed mode fails before any round trip.
			_, err := Evaluate(ctx, client, ModeDecomposed, "2^3")
			var lexErr *expr.LexError
			require.ErrorAs(t, err, &lexErr)
			require.Equal(t, '^', lexErr.Char)

			_, err = Evaluate(ctx, client, ModeFull, "2^3")
			var remote *RemoteError
			require.ErrorAs(t, err, &remote)
			require.Contains(t, remote.Message, "invalid character")
		})
	}
}

func TestDecomposedRoundTrips(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	svc := quietService()
	server := startServer(t, ctx, TransportLine, svc)
	client := dialServer(t, ctx, TransportLine, server.Addr())

	got, err := Evaluate(ctx, client, ModeDecomposed, "(1+2)*(3+4)")
	require.NoError(t, err)
	require.Equal(t, 21.0, got)
	require.Equal(t, uint64(3), svc.Calls())

	// A full evaluation counts the operators it applies on the server.
	got, err = Evaluate(ctx, client, ModeFull, "1+2+3")
	require.NoError(t, err)
	require.Equal(t, 6.0, got)
	require.Equal(t, uint64(5), svc.Calls())
}

func TestLocalClient(t *testing.T) {
	ctx := context.Background()
	svc := quietService()
	client := Local(svc)
	defer client.Close()

	for _, e := range modeExpressions {
		want, err := expr.Evaluate(e, arith.Apply)
		require.NoError(t, err)
		for _, mode := range []Mode{ModeDecomposed, ModeFull} {
			got, err := Evaluate(ctx, client, mode, e)
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
	}

	_, err := Evaluate(ctx, client, Mode(7), "1+1")
	require.Error(t, err)
}

func TestSinkStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := Sink(ctx, Local(quietService()))
	_, err := sink(expr.Add, 1, 2)
	require.ErrorIs(t, err, context.Canceled)
}
