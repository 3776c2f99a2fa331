// Copyright 2026 The statecompressor Authors
// This file is part of statecompressor.
//
// statecompressor is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// statecompressor is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with statecompressor. If not, see <http://www.gnu.org/licenses/>.

package compressor

import "github.com/prometheus/client_golang/prometheus"

// Metrics instruments the stack cache and layer engine. spec.md scopes
// metrics/observability out of the compressor's non-goals only insofar as
// they are a FEATURE of the surrounding homeserver; the ambient habit of
// instrumenting storage-engine internals (every reference package in this
// stack does it) is carried regardless, per SPEC_FULL.md §9.1.
//
// Metrics is nil-safe: every method tolerates a nil receiver so callers
// that don't pass a prometheus.Registerer get a Metrics that quietly does
// nothing.
type Metrics struct {
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	rebalanceCount prometheus.Counter
	layerDepth     prometheus.Histogram
}

// NewMetrics constructs and registers the compressor's counters against
// reg. Pass nil to opt out of metrics entirely.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	m := &Metrics{
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "statecompressor",
			Subsystem: "stack_cache",
			Name:      "hits_total",
			Help:      "Number of stack cache lookups (one per layer LoadStack visits) that found a cached stack.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "statecompressor",
			Subsystem: "stack_cache",
			Name:      "misses_total",
			Help:      "Number of stack cache lookups (one per layer LoadStack visits) that fell through to the diff store.",
		}),
		rebalanceCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "statecompressor",
			Subsystem: "layer_engine",
			Name:      "rebalances_total",
			Help:      "Number of times SaveStateFromDiff folded a layer into its parent.",
		}),
		layerDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "statecompressor",
			Subsystem: "layer_engine",
			Name:      "committed_depth",
			Help:      "Parent-chain depth a new StateDiff was ultimately committed at.",
			Buckets:   []float64{0, 1, 2, 3, 4},
		}),
	}
	reg.MustRegister(m.cacheHits, m.cacheMisses, m.rebalanceCount, m.layerDepth)
	return m
}

func (m *Metrics) cacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) cacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

func (m *Metrics) rebalance() {
	if m == nil {
		return
	}
	m.rebalanceCount.Inc()
}

func (m *Metrics) observeDepth(depth int) {
	if m == nil {
		return
	}
	m.layerDepth.Observe(float64(depth))
}
