// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type poolMetrics struct {
	exhausted prometheus.Counter
	discarded prometheus.Counter
}

func newMetrics[T comparable](p *Pool[T], namespace string, reg prometheus.Registerer) (*poolMetrics, error) {
	m := &poolMetrics{
		exhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_exhausted_total",
			Help:      "number of acquires that found no handle",
		}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_discarded_total",
			Help:      "number of broken handles discarded",
		}),
	}
	if reg == nil {
		return m, nil
	}
	idle := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pool_idle",
		Help:      "number of idle handles",
	}, func() float64 { return float64(p.Stats().Idle) })
	inUse := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pool_in_use",
		Help:      "number of checked out handles",
	}, func() float64 { return float64(p.Stats().InUse) })
	return m, errors.Join(
		reg.Register(m.exhausted),
		reg.Register(m.discarded),
		reg.Register(idle),
		reg.Register(inUse),
	)
}
