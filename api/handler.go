// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api exposes the key-value service over HTTP.
//
//	POST   /kv?id=<key>   body is the value
//	GET    /kv?id=<key>
//	DELETE /kv?id=<key>
//
// Responses are plain text terminated by a newline.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/luxfi/kvcache/service"
)

// Response bodies, without the trailing newline.
const (
	MsgMissingID = "Missing id parameter"
	MsgCreated   = "Key-value pair created successfully"
	MsgDeleted   = "Key-value pair deleted successfully"
	MsgNotFound  = "Key not found"
)

// MaxValueBytes bounds the request body accepted by create.
const MaxValueBytes = 1 << 20

// KV is the service surface the handler drives.
type KV interface {
	Create(ctx context.Context, key, value string) error
	Read(ctx context.Context, key string) (string, error)
	Remove(ctx context.Context, key string) error
}

var _ KV = (*service.Service)(nil)

type handler struct {
	kv KV
}

// NewHandler routes the key-value endpoints to kv. When metrics is non-nil
// it is served at /metrics.
func NewHandler(kv KV, metrics http.Handler) http.Handler {
	h := &handler{kv: kv}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /kv", h.create)
	mux.HandleFunc("GET /kv", h.read)
	mux.HandleFunc("DELETE /kv", h.remove)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "ok")
	})
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return mux
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	key, ok := keyParam(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxValueBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeText(w, http.StatusRequestEntityTooLarge, errorBody(err))
			return
		}
		writeText(w, http.StatusBadRequest, errorBody(err))
		return
	}

	if err := h.kv.Create(r.Context(), key, string(body)); err != nil {
		writeText(w, http.StatusInternalServerError, errorBody(err))
		return
	}
	writeText(w, http.StatusOK, MsgCreated)
}

func (h *handler) read(w http.ResponseWriter, r *http.Request) {
	key, ok := keyParam(w, r)
	if !ok {
		return
	}
	value, err := h.kv.Read(r.Context(), key)
	switch {
	case err == nil:
		writeText(w, http.StatusOK, value)
	case errors.Is(err, service.ErrNotFound):
		writeText(w, http.StatusNotFound, MsgNotFound)
	default:
		writeText(w, http.StatusInternalServerError, errorBody(err))
	}
}

func (h *handler) remove(w http.ResponseWriter, r *http.Request) {
	key, ok := keyParam(w, r)
	if !ok {
		return
	}
	if err := h.kv.Remove(r.Context(), key); err != nil {
		writeText(w, http.StatusInternalServerError, errorBody(err))
		return
	}
	writeText(w, http.StatusOK, MsgDeleted)
}

// keyParam returns the id query parameter. Presence is what matters: an
// explicit empty id is a valid key.
func keyParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	query := r.URL.Query()
	if !query.Has("id") {
		writeText(w, http.StatusBadRequest, MsgMissingID)
		return "", false
	}
	return query.Get("id"), true
}

func errorBody(err error) string {
	return "Error: " + err.Error()
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintln(w, body)
}
