// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package main runs the interactive kvstore client.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	clientcmd "github.com/luxfi/kvcache/internal/cmd/client"
	"github.com/luxfi/kvcache/internal/platform/config"
)

func main() {
	cfg, err := clientcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := clientcmd.Run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		config.Exitf("%v", err)
	}
}
