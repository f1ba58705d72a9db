package metrics

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
)

// atomicFloat64 stores float64 bits in a uint64 for lock-free updates.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (a *atomicFloat64) Load() float64 {
	return math.Float64frombits(a.bits.Load())
}

func (a *atomicFloat64) Add(delta float64) {
	for {
		old := a.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if a.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// Counter is a monotonically increasing metric, optionally partitioned by
// labels.
type Counter struct {
	name       string
	help       string
	labelNames []string

	mu     sync.RWMutex
	values map[string]*counterValue
}

type counterValue struct {
	labels map[string]string
	value  atomicFloat64
}

// Name returns the metric name.
func (c *Counter) Name() string { return c.name }

// Help returns the help text.
func (c *Counter) Help() string { return c.help }

// Type returns the metric type.
func (c *Counter) Type() string { return "counter" }

// Inc increments the counter by 1 for the given label values.
func (c *Counter) Inc(labelValues ...string) error {
	return c.Add(1, labelValues...)
}

// Add adds delta to the counter for the given label values.
func (c *Counter) Add(delta float64, labelValues ...string) error {
	if len(labelValues) != len(c.labelNames) {
		return fmt.Errorf("%w: counter %s expected %d labels, got %d",
			ErrLabelCountMismatch, c.name, len(c.labelNames), len(labelValues))
	}

	key := strings.Join(labelValues, "\x00")

	c.mu.RLock()
	cv, ok := c.values[key]
	c.mu.RUnlock()

	if !ok {
		labels := make(map[string]string, len(c.labelNames))
		for i, name := range c.labelNames {
			labels[name] = labelValues[i]
		}

		c.mu.Lock()
		cv, ok = c.values[key]
		if !ok {
			cv = &counterValue{labels: labels}
			c.values[key] = cv
		}
		c.mu.Unlock()
	}

	cv.value.Add(delta)
	return nil
}

// Value returns the current value for the given label values, or 0 if that
// label combination has never been incremented.
func (c *Counter) Value(labelValues ...string) float64 {
	key := strings.Join(labelValues, "\x00")
	c.mu.RLock()
	defer c.mu.RUnlock()
	if cv, ok := c.values[key]; ok {
		return cv.value.Load()
	}
	return 0
}

// Collect returns all samples for exposition.
func (c *Counter) Collect() []Sample {
	c.mu.RLock()
	defer c.mu.RUnlock()

	samples := make([]Sample, 0, len(c.values))
	for _, cv := range c.values {
		samples = append(samples, Sample{
			Name:   c.name,
			Labels: cv.labels,
			Value:  cv.value.Load(),
		})
	}
	return samples
}

// gaugeFunc is a gauge whose value is read from a callback at scrape time.
type gaugeFunc struct {
	name string
	help string
	fn   func() float64
}

func (g *gaugeFunc) Name() string { return g.name }
func (g *gaugeFunc) Help() string { return g.help }
func (g *gaugeFunc) Type() string { return "gauge" }

func (g *gaugeFunc) Collect() []Sample {
	return []Sample{{Name: g.name, Value: g.fn()}}
}
