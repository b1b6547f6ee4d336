// Command dtiled-debug serves the observability surface SPEC_FULL.md §3
// names: the hooks registry's prometheus metrics and a registry-snapshot
// endpoint. It is not a benchmark harness or a logging/tracing layer —
// both explicitly out of core scope — just a thin HTTP front for the
// hooks a running process already emits. Grounded on the teacher's
// direct dependency on github.com/valyala/fasthttp.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/valyala/fasthttp"

	"github.com/dtile-project/dtile/internal/cmn/config"
	"github.com/dtile-project/dtile/internal/hooks"
)

func main() {
	addr := flag.String("addr", "", "listen address; overrides the configured metrics_addr")
	flag.Parse()

	listen := *addr
	if listen == "" {
		listen = config.Global().MetricsAddr
	}
	if listen == "" {
		log.Fatal("dtiled-debug: no listen address (pass -addr or set metrics_addr in config)")
	}

	log.Printf("dtiled-debug: listening on %s", listen)
	if err := fasthttp.ListenAndServe(listen, route); err != nil {
		log.Fatalf("dtiled-debug: %v", err)
	}
}

func route(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/metrics":
		serveMetrics(ctx)
	case "/snapshot":
		serveSnapshot(ctx)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

func serveMetrics(ctx *fasthttp.RequestCtx) {
	families, err := hooks.Registry.Gather()
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(err.Error())
		return
	}
	ctx.SetContentType("text/plain; version=0.0.4")
	for _, mf := range families {
		writeMetricFamily(ctx, mf.GetName(), mf.GetHelp())
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				fmt.Fprintf(ctx, "%s %g\n", mf.GetName(), c.GetValue())
			}
			if g := m.GetGauge(); g != nil {
				fmt.Fprintf(ctx, "%s %g\n", mf.GetName(), g.GetValue())
			}
		}
	}
}

// writeMetricFamily writes the "# HELP" line for one family. serveMetrics
// follows it with one unlabelled "name value" sample line per counter or
// gauge; no "# TYPE" line is written.
func writeMetricFamily(ctx *fasthttp.RequestCtx, name, help string) {
	ctx.WriteString("# HELP ")
	ctx.WriteString(name)
	ctx.WriteString(" ")
	ctx.WriteString(help)
	ctx.WriteString("\n")
}

// snapshotEntry is one registry-snapshot row. cmd/dtiled-debug has no
// reference to a live Matrix (the core is a library, not a service), so
// /snapshot reports the process-wide hooks gauges a caller can already
// observe via /metrics, reshaped as JSON for tooling that prefers it over
// text exposition.
type snapshotEntry struct {
	Name  string  `json:"name"`
	Help  string  `json:"help"`
	Value float64 `json:"value,omitempty"`
}

func serveSnapshot(ctx *fasthttp.RequestCtx) {
	families, err := hooks.Registry.Gather()
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(err.Error())
		return
	}
	out := make([]snapshotEntry, 0, len(families))
	for _, mf := range families {
		entry := snapshotEntry{Name: mf.GetName(), Help: mf.GetHelp()}
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				entry.Value += c.GetValue()
			}
			if g := m.GetGauge(); g != nil {
				entry.Value += g.GetValue()
			}
		}
		out = append(out, entry)
	}
	ctx.SetContentType("application/json")
	enc := json.NewEncoder(ctx)
	if err := enc.Encode(out); err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	}
}
