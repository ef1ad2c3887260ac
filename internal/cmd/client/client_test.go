package client

import (
	"bytes"
	"context"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type request struct {
	method string
	id     string
	hasID  bool
	body   string
}

// recorder is a stand-in API that remembers what it was sent.
type recorder struct {
	mu       sync.Mutex
	requests []request
	rows     map[string]string
}

func newRecorder() *recorder {
	return &recorder{rows: map[string]string{}}
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	q := req.URL.Query()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, request{method: req.Method, id: q.Get("id"), hasID: q.Has("id"), body: string(body)})

	id := q.Get("id")
	switch req.Method {
	case http.MethodPost:
		r.rows[id] = string(body)
		io.WriteString(w, "Key-value pair created successfully\n")
	case http.MethodGet:
		v, ok := r.rows[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, "Key not found\n")
			return
		}
		io.WriteString(w, v+"\n")
	case http.MethodDelete:
		delete(r.rows, id)
		io.WriteString(w, "Key-value pair deleted successfully\n")
	}
}

func TestParseConfig(t *testing.T) {
	require := require.New(t)

	cfg, err := ParseConfig(flag.NewFlagSet("kvcli", flag.ContinueOnError), nil)
	require.NoError(err)
	require.Equal("http://127.0.0.1:8000", cfg.URL)

	cfg, err = ParseConfig(flag.NewFlagSet("kvcli", flag.ContinueOnError), []string{"-url", "http://kv:9000"})
	require.NoError(err)
	require.Equal("http://kv:9000", cfg.URL)
}

func TestNewRejectsRelativeURL(t *testing.T) {
	require := require.New(t)

	_, err := New("localhost", nil)
	require.Error(err)

	c, err := New("http://127.0.0.1:8000/", nil)
	require.NoError(err)
	require.Equal("http://127.0.0.1:8000", c.base)
}

func TestRunMenuFlow(t *testing.T) {
	require := require.New(t)

	rec := newRecorder()
	srv := httptest.NewServer(rec)
	defer srv.Close()

	input := strings.Join([]string{
		"1", "my key", "hello world",
		"2", "my key",
		"3", "my key",
		"2", "my key",
		"9",
		"4",
	}, "\n") + "\n"
	var out bytes.Buffer
	require.NoError(Run(context.Background(), Config{URL: srv.URL}, strings.NewReader(input), &out))

	text := out.String()
	require.Contains(text, "Connected to KV Store at "+srv.URL)
	require.Contains(text, "Response: Key-value pair created successfully\n")
	require.Contains(text, "Response: hello world\n")
	require.Contains(text, "Response: Key-value pair deleted successfully\n")
	require.Contains(text, "Response: Key not found\n")
	require.Contains(text, "Invalid choice...\n")

	require.Len(rec.requests, 4)
	require.Equal(request{method: http.MethodPost, id: "my key", hasID: true, body: "hello world"}, rec.requests[0])
	require.Equal(http.MethodGet, rec.requests[1].method)
	require.Equal(http.MethodDelete, rec.requests[2].method)
}

func TestRunStopsAtEndOfInput(t *testing.T) {
	require := require.New(t)

	rec := newRecorder()
	srv := httptest.NewServer(rec)
	defer srv.Close()

	var out bytes.Buffer
	require.NoError(Run(context.Background(), Config{URL: srv.URL}, strings.NewReader("2\n"), &out))
	require.Empty(rec.requests)
}

func TestRunReportsTransportFailure(t *testing.T) {
	require := require.New(t)

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var out bytes.Buffer
	require.NoError(Run(context.Background(), Config{URL: url}, strings.NewReader("2\nk\n4\n"), &out))
	require.Contains(out.String(), "Request failed: ")
}
