// Package metrics provides a small in-process metrics registry with
// Prometheus text exposition. It covers counters with optional labels and
// callback gauges, which is all shelfd needs for its /metrics endpoint.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
)

// ErrLabelCountMismatch is returned when the number of label values does
// not match the metric's label names.
var ErrLabelCountMismatch = errors.New("label count mismatch")

// Sample is a single exposition sample.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Metric is implemented by all registered metric types.
type Metric interface {
	Name() string
	Help() string
	Type() string
	Collect() []Sample
}

// Registry holds registered metrics and renders them for scraping.
type Registry struct {
	mu      sync.RWMutex
	metrics []Metric
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewCounter registers and returns a counter with the given label names.
func (r *Registry) NewCounter(name, help string, labelNames ...string) *Counter {
	c := &Counter{
		name:       name,
		help:       help,
		labelNames: labelNames,
		values:     make(map[string]*counterValue),
	}
	r.register(c)
	return c
}

// NewGaugeFunc registers a gauge whose value is read from fn at scrape time.
func (r *Registry) NewGaugeFunc(name, help string, fn func() float64) {
	r.register(&gaugeFunc{name: name, help: help, fn: fn})
}

func (r *Registry) register(m Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = append(r.metrics, m)
}

// Handler returns an http.Handler that renders all metrics in Prometheus
// text exposition format.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(r.Render()))
	})
}

// Render produces the exposition text for all registered metrics.
func (r *Registry) Render() string {
	r.mu.RLock()
	metrics := make([]Metric, len(r.metrics))
	copy(metrics, r.metrics)
	r.mu.RUnlock()

	var sb strings.Builder
	for _, m := range metrics {
		fmt.Fprintf(&sb, "# HELP %s %s\n", m.Name(), m.Help())
		fmt.Fprintf(&sb, "# TYPE %s %s\n", m.Name(), m.Type())

		samples := m.Collect()
		sort.Slice(samples, func(i, j int) bool {
			return labelString(samples[i].Labels) < labelString(samples[j].Labels)
		})
		for _, s := range samples {
			if len(s.Labels) == 0 {
				fmt.Fprintf(&sb, "%s %g\n", s.Name, s.Value)
				continue
			}
			fmt.Fprintf(&sb, "%s{%s} %g\n", s.Name, labelString(s.Labels), s.Value)
		}
	}
	return sb.String()
}

func labelString(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, labels[k]))
	}
	return strings.Join(parts, ",")
}
