// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package calc

import (
	"context"
	"sort"
	"sync"
)

// Transport types
const (
	TransportLine = "line" // Three-line text protocol, one connection per call
	TransportZAP  = "zap"  // Framed binary, multiplexed
	TransportJSON = "json" // JSON-RPC over HTTP
	TransportGRPC = "grpc" // Google RPC
)

// DefaultTransport is the default transport type (line)
const DefaultTransport = TransportLine

type dialFunc func(ctx context.Context, addr string, o *dialOptions) (Client, error)
type listenFunc func(addr string, h Handler, o *serverOptions) (Server, error)

type transport struct {
	dial   dialFunc
	listen listenFunc
}

var (
	transportsMu sync.RWMutex
	transports   = map[string]transport{
		TransportLine: {dialLine, listenLine},
		TransportZAP:  {dialZAP, listenZAP},
		TransportJSON: {dialJSON, listenJSON},
	}
)

// registerTransport registers a new transport
func registerTransport(name string, dial dialFunc, listen listenFunc) {
	transportsMu.Lock()
	defer transportsMu.Unlock()
	transports[name] = transport{dial, listen}
}

func lookupTransport(name string) (transport, bool) {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	t, ok := transports[name]
	return t, ok
}

// AvailableTransports returns the sorted list of available transport types
func AvailableTransports() []string {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	result := make([]string, 0, len(transports))
	for name := range transports {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// HasTransport checks if a transport is available
func HasTransport(name string) bool {
	_, ok := lookupTransport(name)
	return ok
}
