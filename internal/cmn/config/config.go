// Package config holds the process-wide configuration knobs that sit
// above the core substrate (process-grid shape, default tile size, device
// count, transport compression threshold, metrics listen address). It
// mirrors the teacher's global-config-owner idiom: cmn.GCO.Get() is read
// pervasively throughout tcb.go, and the config itself is swapped
// atomically the way transport/bundle/stream_bundle.go swaps its stream
// bundle (ratomic.Pointer[bundle]).
package config

import (
	"os"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"

	"github.com/dtile-project/dtile/internal/cmn"
)

// Config is the process-wide configuration. Zero value is usable; Default
// fills in the spec.md-mandated defaults.
type Config struct {
	// ProcGrid is a default p x q process grid shape. matrix.Construct
	// does not read it; a Matrix always uses its own Config.P and Config.Q.
	ProcGrid struct {
		P int `json:"p"`
		Q int `json:"q"`
	} `json:"proc_grid"`
	// DefaultNB is the default tile edge length in elements.
	DefaultNB int `json:"default_nb"`
	// Devices is the default device count per rank.
	Devices int `json:"devices"`
	// Transport holds transport-layer tunables.
	Transport struct {
		// CompressAboveBytes: tile payloads at or above this size are
		// lz4-compressed before a rank-to-rank transfer. 0 disables
		// compression.
		CompressAboveBytes int `json:"compress_above_bytes"`
	} `json:"transport"`
	// MetricsAddr is the listen address for cmd/dtiled-debug's /metrics
	// and registry-snapshot endpoints. Empty disables the server.
	MetricsAddr string `json:"metrics_addr"`
}

// Default returns the out-of-the-box configuration described by spec.md's
// default distribution (single-rank, no devices) and a conservative
// compression threshold.
func Default() *Config {
	c := &Config{}
	c.ProcGrid.P, c.ProcGrid.Q = 1, 1
	c.DefaultNB = 256
	c.Devices = 0
	c.Transport.CompressAboveBytes = 64 << 10
	return c
}

var global atomic.Pointer[Config]

func init() { global.Store(Default()) }

// Global returns the current process-wide configuration.
func Global() *Config { return global.Load() }

// Set atomically replaces the process-wide configuration.
func Set(c *Config) { global.Store(c) }

// Load decodes a Config from a JSON file at path and installs it as the
// global configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cmn.Wrap(cmn.KindInvalidArgument, "config.Load", err, "read %s", path)
	}
	c := Default()
	if err := jsoniter.Unmarshal(data, c); err != nil {
		return nil, cmn.Wrap(cmn.KindInvalidArgument, "config.Load", err, "decode %s", path)
	}
	Set(c)
	return c, nil
}
