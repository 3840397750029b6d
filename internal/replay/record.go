package replay

import (
	"context"
	"log"
	"sync"
	"time"

	"orientd/internal/sensor"
)

// Recorder wraps a source and appends every sample it delivers to W. Write
// errors are logged once and recording stops; samples keep flowing.
type Recorder struct {
	sensor.Source
	W   *Writer
	Now func() time.Time

	mu     sync.Mutex
	failed bool
}

func (r *Recorder) Start(ctx context.Context, onSample func(sensor.Sample)) error {
	now := r.Now
	if now == nil {
		now = time.Now
	}
	defer func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if !r.failed {
			if err := r.W.Flush(); err != nil {
				log.Printf("record: flush: %v", err)
			}
		}
	}()
	return r.Source.Start(ctx, func(s sensor.Sample) {
		r.mu.Lock()
		if !r.failed {
			if err := r.W.WriteSample(now(), s); err != nil {
				r.failed = true
				log.Printf("record: write failed, recording stopped: %v", err)
			}
		}
		r.mu.Unlock()
		onSample(s)
	})
}

// Close closes the wrapped source, then the log.
func (r *Recorder) Close() error {
	err := r.Source.Close()
	r.mu.Lock()
	defer r.mu.Unlock()
	if cerr := r.W.Close(); err == nil {
		err = cerr
	}
	return err
}
