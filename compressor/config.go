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

// Config is the compressor's configuration surface (spec §6). CLI/flag
// parsing that would populate this struct is out of scope; this is the
// typed target such parsing would bind to.
type Config struct {
	// StateCacheCapacity bounds the number of parent-stacks the stack
	// cache (component E) holds at once.
	StateCacheCapacity int

	// MaxLayerDepth is the longest a parent chain may grow (spec §3
	// invariant 3) before LoadStack refuses to keep climbing and reports
	// ErrCorruption instead.
	MaxLayerDepth int

	// DepthOverrunAt is the longest parent stack a new commit may attach
	// on top of. A longer stack triggers the depth-overrun fold of spec
	// §4.4.2 step 1: with DepthOverrunAt+1 parents the new layer would
	// become the (DepthOverrunAt+2)th, one past MaxLayerDepth.
	DepthOverrunAt int

	// SizeRatioNumerator is the tuning constant in the quadratic size test
	// of spec §4.4.2 step 3: diffsum² ≥ SizeRatioNumerator · diff_to_sibling · parent_diff.
	SizeRatioNumerator int

	// MetricsRegisterer, if non-nil, receives the compressor's prometheus
	// counters. Nil disables metrics entirely.
	MetricsRegisterer prometheus.Registerer
}

// DefaultConfig returns the reference constants from spec §4.4.2 and §9:
// depth bound 4, cascade above 3 parents, size-ratio constant 2.
func DefaultConfig() Config {
	return Config{
		StateCacheCapacity: 8192,
		MaxLayerDepth:      4,
		DepthOverrunAt:     3,
		SizeRatioNumerator: 2,
	}
}
