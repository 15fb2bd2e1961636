// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/luxfi/calc"
)

// config holds the listen address of each enabled transport.
type config struct {
	addrs   map[string]string
	timeout time.Duration
}

// listen opens a server for every transport with an address. On failure the
// servers opened so far are closed.
func listen(cfg config, h calc.Handler) ([]calc.Server, error) {
	var servers []calc.Server
	for _, transport := range calc.AvailableTransports() {
		addr := cfg.addrs[transport]
		if addr == "" {
			continue
		}
		server, err := calc.Listen(addr, h,
			calc.WithServerTransport(transport),
			calc.WithServerTimeout(cfg.timeout),
		)
		if err != nil {
			for _, s := range servers {
				s.Close()
			}
			return nil, fmt.Errorf("listen %s on %s: %w", transport, addr, err)
		}
		log.Printf("[calcd] %s listening on %s", transport, server.Addr())
		servers = append(servers, server)
	}
	return servers, nil
}

// serve runs every server until ctx is cancelled or one of them fails.
func serve(ctx context.Context, servers []calc.Server) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, server := range servers {
		server := server
		g.Go(func() error {
			return server.Serve(ctx)
		})
	}
	return g.Wait()
}
