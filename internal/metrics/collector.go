// Package metrics provides in-memory runtime statistics collection,
// mirrored to Prometheus.
package metrics

import (
	"math"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OperationMetrics holds aggregated metrics for a single operation type.
type OperationMetrics struct {
	Count     int64
	Errors    int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration

	// Token metrics (only for LLM operations)
	TotalInputTokens  int64
	TotalOutputTokens int64
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	Errors      int64   `json:"errors"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`

	// Token stats (nil if not applicable)
	TotalInputTokens  *int64 `json:"total_input_tokens,omitempty"`
	TotalOutputTokens *int64 `json:"total_output_tokens,omitempty"`
}

// Snapshot represents the full server statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64            `json:"uptime_seconds"`
	Scrape        *OperationSnapshot `json:"scrape,omitempty"`
	AdapterSearch *OperationSnapshot `json:"adapter_search,omitempty"`
	PageFetch     *OperationSnapshot `json:"page_fetch,omitempty"`
	LLMGenerate   *OperationSnapshot `json:"llm_generate,omitempty"`
	Curation      *OperationSnapshot `json:"curation,omitempty"`
	ProgressWrite *OperationSnapshot `json:"progress_write,omitempty"`
}

// Operation names for the collector.
const (
	OpScrape        = "scrape"
	OpAdapterSearch = "adapter_search"
	OpPageFetch     = "page_fetch"
	OpLLMGenerate   = "llm_generate"
	OpCuration      = "curation"
	OpProgressWrite = "progress_write"
)

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe and a nil *Collector discards everything.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics

	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
	tokens   *prometheus.CounterVec
}

// NewCollector creates a new metrics collector. When reg is non-nil every
// observation is also exported to it.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "journeys",
			Name:      "operation_duration_seconds",
			Help:      "Duration of pipeline operations.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2.5, 10),
		}, []string{"op"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "journeys",
			Name:      "operation_errors_total",
			Help:      "Failed pipeline operations.",
		}, []string{"op"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "journeys",
			Name:      "llm_tokens_total",
			Help:      "Tokens exchanged with the reasoning endpoint.",
		}, []string{"direction"}),
	}
	if reg != nil {
		reg.MustRegister(c.duration, c.errors, c.tokens)
	}
	return c
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}
	return m
}

func (m *OperationMetrics) observe(d time.Duration) {
	m.Count++
	m.TotalTime += d
	if d < m.MinTime {
		m.MinTime = d
	}
	if d > m.MaxTime {
		m.MaxTime = d
	}
}

// RecordTiming records timing for an operation.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.getOrCreate(op).observe(duration)
	c.mu.Unlock()

	c.duration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordError counts a failed operation.
func (c *Collector) RecordError(op string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.getOrCreate(op).Errors++
	c.mu.Unlock()

	c.errors.WithLabelValues(op).Inc()
}

// Track records the time since start under op, counting an error when err
// is non-nil. Use with defer.
func (c *Collector) Track(op string, start time.Time, err *error) {
	c.RecordTiming(op, time.Since(start))
	if err != nil && *err != nil {
		c.RecordError(op)
	}
}

// RecordLLMUsage records timing and token usage for an LLM operation.
func (c *Collector) RecordLLMUsage(op string, duration time.Duration, inputTokens, outputTokens int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	m := c.getOrCreate(op)
	m.observe(duration)
	m.TotalInputTokens += inputTokens
	m.TotalOutputTokens += outputTokens
	c.mu.Unlock()

	c.duration.WithLabelValues(op).Observe(duration.Seconds())
	c.tokens.WithLabelValues("input").Add(float64(inputTokens))
	c.tokens.WithLabelValues("output").Add(float64(outputTokens))
}

// snapshotOp creates a snapshot for an operation, returning nil if no data.
func snapshotOp(m *OperationMetrics, includeTokens bool) *OperationSnapshot {
	if m == nil || (m.Count == 0 && m.Errors == 0) {
		return nil
	}

	snap := &OperationSnapshot{
		Count:       m.Count,
		Errors:      m.Errors,
		TotalTimeMs: m.TotalTime.Milliseconds(),
	}
	if m.Count > 0 {
		snap.AvgTimeMs = float64(m.TotalTime.Milliseconds()) / float64(m.Count)
		snap.MinTimeMs = m.MinTime.Milliseconds()
		snap.MaxTimeMs = m.MaxTime.Milliseconds()
	}

	if includeTokens && (m.TotalInputTokens > 0 || m.TotalOutputTokens > 0) {
		totalIn := m.TotalInputTokens
		totalOut := m.TotalOutputTokens
		snap.TotalInputTokens = &totalIn
		snap.TotalOutputTokens = &totalOut
	}

	return snap
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Scrape:        snapshotOp(c.ops[OpScrape], false),
		AdapterSearch: snapshotOp(c.ops[OpAdapterSearch], false),
		PageFetch:     snapshotOp(c.ops[OpPageFetch], false),
		LLMGenerate:   snapshotOp(c.ops[OpLLMGenerate], true),
		Curation:      snapshotOp(c.ops[OpCuration], false),
		ProgressWrite: snapshotOp(c.ops[OpProgressWrite], false),
	}
}
