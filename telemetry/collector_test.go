package telemetry

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pthm-cable/galaxy/galaxy"
)

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(time.Second)
	start := time.Now()

	buf := galaxy.NewBuffer(100)
	c.Record(galaxy.Result{Buffer: buf, Timings: galaxy.Timings{Generate: 4 * time.Millisecond}})
	c.Record(galaxy.Result{Buffer: buf, Timings: galaxy.Timings{Generate: 2 * time.Millisecond}})
	c.Record(galaxy.Result{Err: fmt.Errorf("%w: %w", galaxy.ErrSuperseded, context.Canceled)})
	c.Record(galaxy.Result{Err: fmt.Errorf("gen: %w", galaxy.ErrInvalidParameters)})

	if c.ShouldFlush(start) {
		t.Error("ShouldFlush true before the window elapsed")
	}
	if !c.ShouldFlush(start.Add(2 * time.Second)) {
		t.Error("ShouldFlush false after the window elapsed")
	}

	s := c.Flush(start.Add(2 * time.Second))
	if s.Window != 0 || s.Results != 4 || s.OK != 2 || s.Superseded != 1 || s.Invalid != 1 {
		t.Errorf("window stats = %+v", s)
	}
	if s.ParticlesInstalled != 200 {
		t.Errorf("ParticlesInstalled = %d, want 200", s.ParticlesInstalled)
	}
	if s.MeanTotalMS != 3 || s.MaxTotalMS != 4 {
		t.Errorf("mean/max = %v/%v, want 3/4", s.MeanTotalMS, s.MaxTotalMS)
	}

	next := c.Flush(start.Add(3 * time.Second))
	if next.Window != 1 || next.Results != 0 || next.MeanTotalMS != 0 {
		t.Errorf("second window not reset: %+v", next)
	}
}

func TestCollectorConcurrentRecord(t *testing.T) {
	c := NewCollector(0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Record(galaxy.Result{Err: context.Canceled})
			}
		}()
	}
	wg.Wait()

	if s := c.Flush(time.Now()); s.Cancelled != 800 || s.Results != 800 {
		t.Errorf("Cancelled = %d Results = %d, want 800", s.Cancelled, s.Results)
	}
}
