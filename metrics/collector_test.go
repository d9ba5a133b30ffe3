package metrics

import (
	"sync"
	"testing"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector()

	c.IncSessionStarted()
	c.IncSessionStarted()
	c.IncSessionCompleted()
	c.IncSessionFailed()
	c.IncSessionCancelled()
	c.IncArchiveExtracted()
	c.AddSlidesExtracted(12)
	c.IncSummaryEmitted()
	c.IncSummaryEmitted()
	c.IncSummaryEmitted()
	c.IncProviderError()
	c.IncDecodeDrop()

	snap := c.Snapshot()
	if snap.SessionsStarted != 2 {
		t.Errorf("SessionsStarted = %d, want 2", snap.SessionsStarted)
	}
	if snap.SessionsCompleted != 1 || snap.SessionsFailed != 1 || snap.SessionsCancelled != 1 {
		t.Errorf("lifecycle counters = %+v", snap)
	}
	if snap.SlidesExtracted != 12 {
		t.Errorf("SlidesExtracted = %d, want 12", snap.SlidesExtracted)
	}
	if snap.SummariesEmitted != 3 {
		t.Errorf("SummariesEmitted = %d, want 3", snap.SummariesEmitted)
	}
}

func TestCollector_NilReceiverSafe(t *testing.T) {
	var c *Collector

	// Must not panic.
	c.IncSessionStarted()
	c.IncSummaryEmitted()
	c.AddSlidesExtracted(5)

	snap := c.Snapshot()
	if snap.SessionsStarted != 0 {
		t.Errorf("nil collector snapshot = %+v, want zero", snap)
	}
}

func TestCollector_ConcurrentIncrements(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				c.IncSummaryEmitted()
			}
		}()
	}
	wg.Wait()

	if got := c.Snapshot().SummariesEmitted; got != 5000 {
		t.Errorf("SummariesEmitted = %d, want 5000", got)
	}
}
