// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	opCreate = "create"
	opRead   = "read"
	opRemove = "remove"

	resultOK        = "ok"
	resultHit       = "hit"
	resultNotFound  = "not_found"
	resultExhausted = "exhausted"
	resultError     = "error"
)

type serviceMetrics struct {
	operations *prometheus.CounterVec
}

func newMetrics(namespace string, reg prometheus.Registerer) (*serviceMetrics, error) {
	m := &serviceMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "operations_total",
			Help:      "key-value operations by outcome",
		}, []string{"op", "result"}),
	}
	if reg == nil {
		return m, nil
	}
	return m, reg.Register(m.operations)
}

func (m *serviceMetrics) observe(op string, hit bool, err error) {
	m.operations.WithLabelValues(op, outcome(hit, err)).Inc()
}

func outcome(hit bool, err error) string {
	switch {
	case err == nil && hit:
		return resultHit
	case err == nil:
		return resultOK
	case errors.Is(err, ErrNotFound):
		return resultNotFound
	case errors.Is(err, ErrConnectionFailed):
		return resultExhausted
	default:
		return resultError
	}
}
