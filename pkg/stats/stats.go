// Package stats collects in-process counters for which rewrite rules fired
// during a conversion, the per-run complement to the OTel-backed aggregate
// counters in internal/observability.
package stats

import "sync"

// Counter tallies hits by name. The zero value is ready to use. Safe for
// concurrent use, though a single Convert call drives one Walker on one
// goroutine today; the lock exists so a future concurrent-directory
// conversion can share one Counter across workers.
type Counter struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewCounter returns a ready-to-use Counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int64)}
}

// Record increments the tally for name by one. Safe to call on a nil
// receiver (no-op), so callers can thread an optional *Counter through
// without a nil check at every call site.
func (c *Counter) Record(name string) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.counts == nil {
		c.counts = make(map[string]int64)
	}

	c.counts[name]++
}

// Snapshot returns a copy of the current tallies, keyed by name.
func (c *Counter) Snapshot() map[string]int64 {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]int64, len(c.counts))
	for name, n := range c.counts {
		out[name] = n
	}

	return out
}

// Total returns the sum of every tally.
func (c *Counter) Total() int64 {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var total int64
	for _, n := range c.counts {
		total += n
	}

	return total
}

// Merge adds every tally in other into c.
func (c *Counter) Merge(other *Counter) {
	if c == nil || other == nil {
		return
	}

	for name, n := range other.Snapshot() {
		c.mu.Lock()

		if c.counts == nil {
			c.counts = make(map[string]int64)
		}

		c.counts[name] += n

		c.mu.Unlock()
	}
}
