// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command calcd serves the calculator over one or more transports.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"github.com/luxfi/calc"
)

func main() {
	cfg := config{addrs: make(map[string]string)}
	lineAddr := flag.String("line", getEnv("CALC_LINE_ADDR", ":9090"), "line protocol listen address (empty to disable)")
	zapAddr := flag.String("zap", getEnv("CALC_ZAP_ADDR", ""), "ZAP listen address (empty to disable)")
	jsonAddr := flag.String("json", getEnv("CALC_JSON_ADDR", ""), "JSON-RPC listen address (empty to disable)")
	grpcAddr := flag.String("grpc", getEnv("CALC_GRPC_ADDR", ""), "gRPC listen address (empty to disable)")
	flag.DurationVar(&cfg.timeout, "timeout", getEnvDuration("CALC_TIMEOUT", 30*time.Second), "per-call timeout")
	flag.Parse()

	cfg.addrs[calc.TransportLine] = *lineAddr
	cfg.addrs[calc.TransportZAP] = *zapAddr
	cfg.addrs[calc.TransportJSON] = *jsonAddr
	cfg.addrs[calc.TransportGRPC] = *grpcAddr

	svc := calc.NewService()
	servers, err := listen(cfg, svc)
	if err != nil {
		log.Fatalf("[calcd] %v", err)
	}
	if len(servers) == 0 {
		log.Fatal("[calcd] no transport enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var serveErr error
	go func() {
		serveErr = serve(ctx, servers)
		close(done)
	}()

	shutdownChan := gfshutdown.GracefulShutdown(context.Background(), cfg.timeout, map[string]gfshutdown.Operation{
		"servers": func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
				return serveErr
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})

	var exitCode int
	select {
	case exitCode = <-shutdownChan:
	case <-done:
		if serveErr != nil {
			log.Fatalf("[calcd] %v", serveErr)
		}
		exitCode = <-shutdownChan
	}

	log.Printf("[calcd] served %d arithmetic calls", svc.Calls())
	if exitCode != 0 {
		log.Printf("[calcd] shutdown completed with exit code: %d", exitCode)
		os.Exit(exitCode)
	}
	log.Println("[calcd] shutdown completed successfully")
}

// getEnv returns environment variable or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
