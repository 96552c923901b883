package metrics

import (
	"sync"
	"testing"
)

func TestCollector_RecordAndGet(t *testing.T) {
	c := NewCollector()

	c.RecordRequest("/processes")
	c.RecordRequest("/processes")
	c.RecordRequest("/processes/{id}")
	c.RecordError("/processes")
	c.RecordRetry("/processes/{id}")
	c.RecordDuration("/processes", 0.25)
	c.RecordDuration("/processes", 0.75)

	m := c.GetAPIMetrics()
	if m.RequestCounts["/processes"] != 2 {
		t.Errorf("request count = %d, want 2", m.RequestCounts["/processes"])
	}
	if m.RequestCounts["/processes/{id}"] != 1 {
		t.Errorf("request count = %d, want 1", m.RequestCounts["/processes/{id}"])
	}
	if m.ErrorCounts["/processes"] != 1 {
		t.Errorf("error count = %d, want 1", m.ErrorCounts["/processes"])
	}
	if m.RetryCounts["/processes/{id}"] != 1 {
		t.Errorf("retry count = %d, want 1", m.RetryCounts["/processes/{id}"])
	}
	if m.TotalDurationSeconds["/processes"] != 1.0 {
		t.Errorf("total duration = %f, want 1.0", m.TotalDurationSeconds["/processes"])
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordRequest("/processes")
			c.RecordDuration("/processes", 0.01)
		}()
	}
	wg.Wait()

	m := c.GetAPIMetrics()
	if m.RequestCounts["/processes"] != 50 {
		t.Errorf("request count = %d, want 50", m.RequestCounts["/processes"])
	}
}
