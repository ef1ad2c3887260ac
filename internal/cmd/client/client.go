// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package client implements the interactive kvcli menu.
//
// The client keeps no state: every choice issues exactly one request and
// prints the raw response body or the transport error.
package client

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	entrypoint "github.com/luxfi/kvcache/internal/platform/cmd"
	"github.com/luxfi/kvcache/internal/platform/timeouts"
)

// Config holds kvcli command configuration.
type Config struct {
	URL string `env:"KVCLI_URL" envDefault:"http://127.0.0.1:8000"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.URL, "url", cfg.URL, "base URL of the kvstore API")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Client issues key-value requests against one server.
type Client struct {
	base       string
	httpClient *http.Client
}

// New creates a Client for the API at base.
func New(base string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(base), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("url %q must be absolute", base)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeouts.ClientRequest}
	}
	return &Client{base: u.String(), httpClient: httpClient}, nil
}

// Create sends value for key.
func (c *Client) Create(ctx context.Context, key, value string) (string, error) {
	return c.do(ctx, http.MethodPost, key, strings.NewReader(value))
}

// Read fetches key.
func (c *Client) Read(ctx context.Context, key string) (string, error) {
	return c.do(ctx, http.MethodGet, key, nil)
}

// Delete removes key.
func (c *Client) Delete(ctx context.Context, key string) (string, error) {
	return c.do(ctx, http.MethodDelete, key, nil)
}

// do returns the response body regardless of status; only transport
// failures are errors.
func (c *Client) do(ctx context.Context, method, key string, body io.Reader) (string, error) {
	target := c.base + "/kv?id=" + url.QueryEscape(key)
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return "", err
	}
	if body != nil {
		req.Header.Set("Content-Type", "text/plain")
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

const menu = "1) Create\n2) Read\n3) Delete\n4) Exit\nChoice: "

// Run drives the menu loop, reading choices from in and writing prompts and
// responses to out, until the user exits, input ends or ctx is cancelled.
func Run(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	c, err := New(cfg.URL, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to KV Store at %s\n", cfg.URL)

	scanner := bufio.NewScanner(in)
	prompt := func(label string) (string, bool) {
		fmt.Fprint(out, label)
		if !scanner.Scan() {
			return "", false
		}
		return scanner.Text(), true
	}

	for ctx.Err() == nil {
		choice, ok := prompt(menu)
		if !ok {
			break
		}

		var (
			response string
			reqErr   error
		)
		switch strings.TrimSpace(choice) {
		case "1":
			key, ok := prompt("Enter key : ")
			if !ok {
				return scanner.Err()
			}
			value, ok := prompt("Enter value : ")
			if !ok {
				return scanner.Err()
			}
			response, reqErr = c.Create(ctx, key, value)
		case "2":
			key, ok := prompt("Enter key : ")
			if !ok {
				return scanner.Err()
			}
			response, reqErr = c.Read(ctx, key)
		case "3":
			key, ok := prompt("Enter key : ")
			if !ok {
				return scanner.Err()
			}
			response, reqErr = c.Delete(ctx, key)
		case "4":
			return nil
		default:
			fmt.Fprintln(out, "Invalid choice...")
			continue
		}

		if reqErr != nil {
			fmt.Fprintf(out, "Request failed: %v\n", reqErr)
			continue
		}
		fmt.Fprintf(out, "Response: %s", response)
		if !strings.HasSuffix(response, "\n") {
			fmt.Fprintln(out)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
