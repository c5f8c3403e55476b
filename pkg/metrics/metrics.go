// Prometheus text-format metrics
//
// Counters, gauges and histograms keyed by label sets, collected in a
// Registry and rendered in the Prometheus exposition format. Series within
// a metric are written in label order so scrapes are stable.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MetricType is the Prometheus TYPE of a metric.
type MetricType int

const (
	TypeCounter MetricType = iota
	TypeGauge
	TypeHistogram
)

func (t MetricType) String() string {
	switch t {
	case TypeCounter:
		return "counter"
	case TypeGauge:
		return "gauge"
	case TypeHistogram:
		return "histogram"
	default:
		return "untyped"
	}
}

// Labels is a label set.
type Labels map[string]string

// Key returns a canonical identity for the label set.
func (l Labels) Key() string {
	if len(l) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, k := range l.sortedKeys() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(l[k])
	}
	return sb.String()
}

// String renders the set as {k="v",...}, or "" when empty.
func (l Labels) String() string {
	if len(l) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range l.sortedKeys() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteString(`="`)
		sb.WriteString(escapeLabel(l[k]))
		sb.WriteByte('"')
	}
	sb.WriteByte('}')
	return sb.String()
}

// With returns a copy of l with one more label.
func (l Labels) With(key, value string) Labels {
	out := l.clone()
	out[key] = value
	return out
}

func (l Labels) clone() Labels {
	out := make(Labels, len(l)+1)
	for k, v := range l {
		out[k] = v
	}
	return out
}

func (l Labels) sortedKeys() []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escapeLabel(s string) string { return labelEscaper.Replace(s) }

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// Metric is anything the registry can render.
type Metric interface {
	Name() string
	Help() string
	Type() MetricType
	Write(sb *strings.Builder)
}

type desc struct {
	name string
	help string
}

func (d desc) Name() string { return d.name }
func (d desc) Help() string { return d.help }

func (d desc) writeHeader(sb *strings.Builder, t MetricType) {
	fmt.Fprintf(sb, "# HELP %s %s\n# TYPE %s %s\n", d.name, d.help, d.name, t)
}

// series holds one value per label set.
type series[V any] struct {
	mu     sync.RWMutex
	values map[string]*V
	labels map[string]Labels
	init   func() *V
}

func (s *series[V]) get(l Labels) *V {
	key := l.Key()
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if ok {
		return v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok = s.values[key]; ok {
		return v
	}
	if s.values == nil {
		s.values = make(map[string]*V)
		s.labels = make(map[string]Labels)
	}
	v = s.init()
	s.values[key] = v
	s.labels[key] = l.clone()
	return v
}

func (s *series[V]) lookup(l Labels) (*V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[l.Key()]
	return v, ok
}

// each visits every series in label order.
func (s *series[V]) each(fn func(Labels, *V)) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	for _, k := range keys {
		s.mu.RLock()
		v, l := s.values[k], s.labels[k]
		s.mu.RUnlock()
		fn(l, v)
	}
}

// Counter only goes up.
type Counter struct {
	desc
	s series[atomic.Uint64]
}

// NewCounter creates a counter.
func NewCounter(name, help string) *Counter {
	c := &Counter{desc: desc{name, help}}
	c.s.init = func() *atomic.Uint64 { return new(atomic.Uint64) }
	return c
}

func (c *Counter) Type() MetricType { return TypeCounter }

// Inc adds one.
func (c *Counter) Inc(l Labels) { c.Add(l, 1) }

// Add adds delta.
func (c *Counter) Add(l Labels, delta uint64) { c.s.get(l).Add(delta) }

// Get returns the value for l, 0 if never touched.
func (c *Counter) Get(l Labels) uint64 {
	if v, ok := c.s.lookup(l); ok {
		return v.Load()
	}
	return 0
}

func (c *Counter) Write(sb *strings.Builder) {
	c.writeHeader(sb, TypeCounter)
	c.s.each(func(l Labels, v *atomic.Uint64) {
		fmt.Fprintf(sb, "%s%s %d\n", c.name, l, v.Load())
	})
}

type gaugeValue struct {
	mu sync.Mutex
	v  float64
}

// Gauge goes up and down.
type Gauge struct {
	desc
	s series[gaugeValue]
}

// NewGauge creates a gauge.
func NewGauge(name, help string) *Gauge {
	g := &Gauge{desc: desc{name, help}}
	g.s.init = func() *gaugeValue { return &gaugeValue{} }
	return g
}

func (g *Gauge) Type() MetricType { return TypeGauge }

// Set replaces the value.
func (g *Gauge) Set(l Labels, v float64) {
	gv := g.s.get(l)
	gv.mu.Lock()
	gv.v = v
	gv.mu.Unlock()
}

// SetBool sets 1 or 0.
func (g *Gauge) SetBool(l Labels, b bool) {
	if b {
		g.Set(l, 1)
	} else {
		g.Set(l, 0)
	}
}

// Add adds delta, which may be negative.
func (g *Gauge) Add(l Labels, delta float64) {
	gv := g.s.get(l)
	gv.mu.Lock()
	gv.v += delta
	gv.mu.Unlock()
}

func (g *Gauge) Inc(l Labels) { g.Add(l, 1) }
func (g *Gauge) Dec(l Labels) { g.Add(l, -1) }

// Get returns the value for l, 0 if never set.
func (g *Gauge) Get(l Labels) float64 {
	gv, ok := g.s.lookup(l)
	if !ok {
		return 0
	}
	gv.mu.Lock()
	defer gv.mu.Unlock()
	return gv.v
}

func (g *Gauge) Write(sb *strings.Builder) {
	g.writeHeader(sb, TypeGauge)
	g.s.each(func(l Labels, gv *gaugeValue) {
		gv.mu.Lock()
		v := gv.v
		gv.mu.Unlock()
		fmt.Fprintf(sb, "%s%s %s\n", g.name, l, formatFloat(v))
	})
}

// GaugeFunc is an unlabelled gauge sampled at scrape time.
type GaugeFunc struct {
	desc
	fn func() float64
}

// NewGaugeFunc creates a gauge whose value is fn().
func NewGaugeFunc(name, help string, fn func() float64) *GaugeFunc {
	return &GaugeFunc{desc: desc{name, help}, fn: fn}
}

func (g *GaugeFunc) Type() MetricType { return TypeGauge }

// Get samples the function.
func (g *GaugeFunc) Get() float64 { return g.fn() }

func (g *GaugeFunc) Write(sb *strings.Builder) {
	g.writeHeader(sb, TypeGauge)
	fmt.Fprintf(sb, "%s %s\n", g.name, formatFloat(g.fn()))
}

type histogramValue struct {
	mu     sync.Mutex
	counts []uint64
	count  uint64
	sum    float64
}

// Histogram counts observations into cumulative buckets.
type Histogram struct {
	desc
	bounds []float64
	s      series[histogramValue]
}

// NewHistogram creates a histogram. Bounds are sorted; +Inf is implicit.
func NewHistogram(name, help string, bounds []float64) *Histogram {
	sorted := append([]float64(nil), bounds...)
	sort.Float64s(sorted)
	h := &Histogram{desc: desc{name, help}, bounds: sorted}
	h.s.init = func() *histogramValue {
		return &histogramValue{counts: make([]uint64, len(sorted))}
	}
	return h
}

// DefaultBuckets suits request latencies in seconds.
func DefaultBuckets() []float64 {
	return []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
}

// ExponentialBuckets returns count bounds starting at start, each factor
// times the previous.
func ExponentialBuckets(start, factor float64, count int) []float64 {
	out := make([]float64, count)
	for i := range out {
		out[i] = start
		start *= factor
	}
	return out
}

func (h *Histogram) Type() MetricType { return TypeHistogram }

// Observe records v.
func (h *Histogram) Observe(l Labels, v float64) {
	hv := h.s.get(l)
	i := sort.SearchFloat64s(h.bounds, v)
	hv.mu.Lock()
	if i < len(hv.counts) {
		hv.counts[i]++
	}
	hv.count++
	hv.sum += v
	hv.mu.Unlock()
}

// ObserveDuration records d in seconds.
func (h *Histogram) ObserveDuration(l Labels, d time.Duration) {
	h.Observe(l, d.Seconds())
}

// HistogramSnapshot is a copy of one series.
type HistogramSnapshot struct {
	Count uint64
	Sum   float64
	// Buckets maps each upper bound to its cumulative count.
	Buckets map[float64]uint64
}

// Snapshot returns the current state of the series for l.
func (h *Histogram) Snapshot(l Labels) HistogramSnapshot {
	snap := HistogramSnapshot{Buckets: make(map[float64]uint64, len(h.bounds))}
	hv, ok := h.s.lookup(l)
	if !ok {
		return snap
	}
	hv.mu.Lock()
	defer hv.mu.Unlock()
	var cum uint64
	for i, b := range h.bounds {
		cum += hv.counts[i]
		snap.Buckets[b] = cum
	}
	snap.Count, snap.Sum = hv.count, hv.sum
	return snap
}

func (h *Histogram) Write(sb *strings.Builder) {
	h.writeHeader(sb, TypeHistogram)
	h.s.each(func(l Labels, _ *histogramValue) {
		snap := h.Snapshot(l)
		for _, b := range h.bounds {
			fmt.Fprintf(sb, "%s_bucket%s %d\n", h.name, l.With("le", formatFloat(b)), snap.Buckets[b])
		}
		fmt.Fprintf(sb, "%s_bucket%s %d\n", h.name, l.With("le", "+Inf"), snap.Count)
		fmt.Fprintf(sb, "%s_sum%s %s\n", h.name, l, formatFloat(snap.Sum))
		fmt.Fprintf(sb, "%s_count%s %d\n", h.name, l, snap.Count)
	})
}

// Registry renders metrics in registration order.
type Registry struct {
	mu      sync.RWMutex
	metrics []Metric
	names   map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]bool)}
}

// Register adds m. Names must be unique.
func (r *Registry) Register(m Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.names[m.Name()] {
		return fmt.Errorf("metric %q already registered", m.Name())
	}
	r.names[m.Name()] = true
	r.metrics = append(r.metrics, m)
	return nil
}

// MustRegister is Register that panics on a duplicate name.
func (r *Registry) MustRegister(ms ...Metric) {
	for _, m := range ms {
		if err := r.Register(m); err != nil {
			panic(err)
		}
	}
}

// Get returns the metric called name, or nil.
func (r *Registry) Get(name string) Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.metrics {
		if m.Name() == name {
			return m
		}
	}
	return nil
}

// Gather renders every metric.
func (r *Registry) Gather() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sb strings.Builder
	for _, m := range r.metrics {
		m.Write(&sb)
	}
	return sb.String()
}
