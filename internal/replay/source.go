// Package replay records and replays raw sensor sample logs.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"orientd/internal/sensor"
)

// Source plays a sample log as a sensor.Source.
type Source struct {
	Records []Record
	Speed   float64
	Loop    bool
	Sleeper Sleeper

	mu     sync.Mutex
	cancel context.CancelFunc
}

// OpenSource loads path. A missing or empty log means there is nothing to
// sense, which the source reports from Start.
func OpenSource(path string, speed float64, loop bool) (*Source, error) {
	recs, err := ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("replay: %w", err)
	}
	return &Source{Records: recs, Speed: speed, Loop: loop}, nil
}

func (s *Source) Start(ctx context.Context, onSample func(sensor.Sample)) error {
	if !hasSamples(s.Records) {
		return sensor.ErrSensingUnavailable
	}
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	speed := s.Speed
	if speed == 0 {
		speed = 1
	}
	err := Play(ctx, s.Records, speed, s.Loop, s.Sleeper, onSample)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

func hasSamples(recs []Record) bool {
	for _, r := range recs {
		if !r.Start {
			return true
		}
	}
	return false
}
