// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command calc is an interactive client for calcd.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/luxfi/calc"
)

func main() {
	addr := flag.String("addr", getEnv("CALC_ADDR", "127.0.0.1:9090"), "server address")
	transport := flag.String("transport", getEnv("CALC_TRANSPORT", calc.DefaultTransport), "transport to dial")
	timeout := flag.Duration("timeout", getEnvDuration("CALC_TIMEOUT", 30*time.Second), "per-call timeout")
	flag.Parse()

	if !calc.HasTransport(*transport) {
		log.Fatalf("[calc] unknown transport %q (available: %v)", *transport, calc.AvailableTransports())
	}

	ctx := context.Background()
	client, err := calc.Dial(ctx, *addr, calc.WithTransport(*transport), calc.WithTimeout(*timeout))
	if err != nil {
		log.Fatalf("[calc] dial %s: %v", *addr, err)
	}
	defer client.Close()

	fmt.Printf("Connected to %s over %s. Type 'help' for commands.\n", *addr, *transport)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		if run(ctx, client, scanner.Text(), os.Stdout) {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("[calc] read input: %v", err)
	}
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
