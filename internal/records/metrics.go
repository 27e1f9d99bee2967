package records

import (
	"sync/atomic"
	"time"
)

// Metrics tracks record-store call metrics.
type Metrics struct {
	storeCalls   int64
	storeErrors  int64
	storeLatency int64 // total latency in nanoseconds
	cacheHits    int64
	cacheMisses  int64
}

var globalMetrics = &Metrics{}

// GetMetrics returns the current metrics snapshot.
func GetMetrics() Metrics {
	return Metrics{
		storeCalls:   atomic.LoadInt64(&globalMetrics.storeCalls),
		storeErrors:  atomic.LoadInt64(&globalMetrics.storeErrors),
		storeLatency: atomic.LoadInt64(&globalMetrics.storeLatency),
		cacheHits:    atomic.LoadInt64(&globalMetrics.cacheHits),
		cacheMisses:  atomic.LoadInt64(&globalMetrics.cacheMisses),
	}
}

// ResetMetrics resets all metrics (useful for testing).
func ResetMetrics() {
	atomic.StoreInt64(&globalMetrics.storeCalls, 0)
	atomic.StoreInt64(&globalMetrics.storeErrors, 0)
	atomic.StoreInt64(&globalMetrics.storeLatency, 0)
	atomic.StoreInt64(&globalMetrics.cacheHits, 0)
	atomic.StoreInt64(&globalMetrics.cacheMisses, 0)
}

func recordStoreCall(duration time.Duration, err error) {
	atomic.AddInt64(&globalMetrics.storeCalls, 1)
	atomic.AddInt64(&globalMetrics.storeLatency, duration.Nanoseconds())
	if err != nil {
		atomic.AddInt64(&globalMetrics.storeErrors, 1)
	}
}

func recordCacheHit() {
	atomic.AddInt64(&globalMetrics.cacheHits, 1)
}

func recordCacheMiss() {
	atomic.AddInt64(&globalMetrics.cacheMisses, 1)
}

// StoreCalls returns the number of record-store calls made.
func (m Metrics) StoreCalls() int64 { return m.storeCalls }

// AverageStoreLatency returns the average latency in milliseconds.
func (m Metrics) AverageStoreLatency() float64 {
	if m.storeCalls == 0 {
		return 0
	}
	avgNs := float64(m.storeLatency) / float64(m.storeCalls)
	return avgNs / 1e6
}

// StoreErrorRate returns the error rate as a percentage.
func (m Metrics) StoreErrorRate() float64 {
	if m.storeCalls == 0 {
		return 0
	}
	return float64(m.storeErrors) / float64(m.storeCalls) * 100
}

// CacheHitRate returns the cache hit rate as a percentage.
func (m Metrics) CacheHitRate() float64 {
	total := m.cacheHits + m.cacheMisses
	if total == 0 {
		return 0
	}
	return float64(m.cacheHits) / float64(total) * 100
}
