// Package hooks is "the hooks the core emits" named in spec.md §1: a
// small set of prometheus counters and gauges that numerical routines and
// operators can scrape, without pulling in a logging or tracing layer
// (explicitly out of scope). Grounded on the teacher's direct dependency
// on github.com/prometheus/client_golang.
package hooks

import "github.com/prometheus/client_golang/prometheus"

var (
	// BroadcastsTotal counts tile_bcast calls that actually moved data
	// (broadcast set size > 1), once per participating rank whose
	// collective broadcast succeeded.
	BroadcastsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dtile",
		Name:      "broadcasts_total",
		Help:      "Number of tile_bcast calls that transported a tile.",
	})
	// BroadcastBytesTotal sums the raw element-block bytes moved by
	// tile_bcast and point-to-point send/recv.
	BroadcastBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dtile",
		Name:      "broadcast_bytes_total",
		Help:      "Bytes transported by tile_bcast and send/recv.",
	})
	// TicksTotal counts tick() calls on non-local tiles.
	TicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dtile",
		Name:      "ticks_total",
		Help:      "Number of LifetimeTracker.decrement calls.",
	})
	// ReclaimsTotal counts tiles evicted because their life counter hit
	// zero.
	ReclaimsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dtile",
		Name:      "reclaims_total",
		Help:      "Number of non-local tiles reclaimed at life == 0.",
	})
	// AllocFailuresTotal counts AllocFailed errors surfaced by the pool.
	AllocFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dtile",
		Name:      "alloc_failures_total",
		Help:      "Number of AllocFailed errors returned by TilePool.",
	})
	// TransferFailuresTotal counts TransferFailed errors.
	TransferFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dtile",
		Name:      "transfer_failures_total",
		Help:      "Number of TransferFailed errors returned by Tile/transport.",
	})
	// ResidentTiles is a gauge of live registry entries across all
	// locations, updated by the registry on insert/erase.
	ResidentTiles = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dtile",
		Name:      "resident_tiles",
		Help:      "Current number of (I,J,location) registry entries.",
	})
)

// Registry is the prometheus registry dtile's own hooks are registered
// against; cmd/dtiled-debug serves it. Kept separate from the default
// global registry so embedding applications can compose it freely.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		BroadcastsTotal,
		BroadcastBytesTotal,
		TicksTotal,
		ReclaimsTotal,
		AllocFailuresTotal,
		TransferFailuresTotal,
		ResidentTiles,
	)
}
