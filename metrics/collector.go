// Package metrics provides process-wide counters for the summary service.
//
// The Collector accumulates counters across sessions. It is a leaf package
// with no internal dependencies. All increment methods are nil-receiver
// safe so callers can run without metrics wired.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Session lifecycle
	SessionsStarted   int64
	SessionsCompleted int64
	SessionsFailed    int64
	SessionsCancelled int64

	// Extraction
	ArchivesExtracted int64
	SlidesExtracted   int64

	// Delivery
	SummariesEmitted int64
	ProviderErrors   int64
	DecodeDrops      int64
}

// Collector accumulates service counters.
// Thread-safe via sync.Mutex.
type Collector struct {
	mu sync.Mutex

	sessionsStarted   int64
	sessionsCompleted int64
	sessionsFailed    int64
	sessionsCancelled int64

	archivesExtracted int64
	slidesExtracted   int64

	summariesEmitted int64
	providerErrors   int64
	decodeDrops      int64
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// --- Session lifecycle ---

// IncSessionStarted records a session start.
func (c *Collector) IncSessionStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsStarted++
	c.mu.Unlock()
}

// IncSessionCompleted records a session that delivered all summaries.
func (c *Collector) IncSessionCompleted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsCompleted++
	c.mu.Unlock()
}

// IncSessionFailed records a session aborted by a provider failure.
func (c *Collector) IncSessionFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsFailed++
	c.mu.Unlock()
}

// IncSessionCancelled records a session torn down by caller cancellation.
func (c *Collector) IncSessionCancelled() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsCancelled++
	c.mu.Unlock()
}

// --- Extraction ---

// IncArchiveExtracted records one successful archive extraction.
func (c *Collector) IncArchiveExtracted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.archivesExtracted++
	c.mu.Unlock()
}

// AddSlidesExtracted records the slide count of one extraction.
func (c *Collector) AddSlidesExtracted(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.slidesExtracted += int64(n)
	c.mu.Unlock()
}

// --- Delivery ---

// IncSummaryEmitted records one summary event written to a stream.
func (c *Collector) IncSummaryEmitted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.summariesEmitted++
	c.mu.Unlock()
}

// IncProviderError records one summarizer failure.
func (c *Collector) IncProviderError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.providerErrors++
	c.mu.Unlock()
}

// IncDecodeDrop records one malformed stream block dropped by a decoder.
func (c *Collector) IncDecodeDrop() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.decodeDrops++
	c.mu.Unlock()
}

// Snapshot returns an atomic snapshot of all counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		SessionsStarted:   c.sessionsStarted,
		SessionsCompleted: c.sessionsCompleted,
		SessionsFailed:    c.sessionsFailed,
		SessionsCancelled: c.sessionsCancelled,
		ArchivesExtracted: c.archivesExtracted,
		SlidesExtracted:   c.slidesExtracted,
		SummariesEmitted:  c.summariesEmitted,
		ProviderErrors:    c.providerErrors,
		DecodeDrops:       c.decodeDrops,
	}
}
