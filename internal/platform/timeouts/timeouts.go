// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package timeouts defines shared timeout constants for the server and
// client binaries.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// ClientRequest caps one request issued by the command-line client.
const ClientRequest = 10 * time.Second

// TelemetryShutdown caps flushing pending spans on exit.
const TelemetryShutdown = 5 * time.Second
