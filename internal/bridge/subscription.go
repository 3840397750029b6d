package bridge

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"orientd/internal/classify"
	"orientd/internal/sensor"
)

// Subscription feeds one source into one classifier and pushes orientation
// changes to a sink until cancelled or the source ends.
type Subscription struct {
	id uuid.UUID

	src       sensor.Source
	closeOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}

	mu  sync.Mutex
	clf *classify.Classifier
	err error

	now func() time.Time
}

// Subscribe starts src in its own goroutine. The classifier belongs to the
// subscription from here on and is dropped when it ends.
func Subscribe(ctx context.Context, src sensor.Source, clf *classify.Classifier, sink Sink) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		id:     uuid.New(),
		src:    src,
		cancel: cancel,
		done:   make(chan struct{}),
		clf:    clf,
		now:    time.Now,
	}
	go s.run(ctx, sink)
	return s
}

func (s *Subscription) ID() uuid.UUID { return s.id }

// Done is closed once the subscription has stopped delivering.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err is the reason the source stopped, or nil after Cancel.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel stops the source and waits for the delivery goroutine to exit. No
// event reaches the sink after Cancel returns. It must not be called from
// inside the sink.
func (s *Subscription) Cancel() {
	s.cancel()
	s.closeSource()
	<-s.done
}

func (s *Subscription) closeSource() {
	s.closeOnce.Do(func() {
		if err := s.src.Close(); err != nil {
			log.Printf("subscription %s: close source: %v", s.id, err)
		}
	})
}

func (s *Subscription) run(ctx context.Context, sink Sink) {
	defer close(s.done)
	defer func() {
		s.mu.Lock()
		s.clf = nil
		s.mu.Unlock()
	}()
	// A source that ended on its own still holds its port or log file.
	defer s.closeSource()

	err := s.src.Start(ctx, func(smp sensor.Sample) {
		if ctx.Err() != nil {
			return
		}
		s.mu.Lock()
		o, changed := s.clf.Apply(smp)
		s.mu.Unlock()
		if changed {
			sink(Event{Kind: EventChange, Orientation: o, At: s.now()})
		}
	})
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	s.err = err
	s.mu.Unlock()

	switch {
	case err == nil:
	case errors.Is(err, sensor.ErrSensingUnavailable):
		log.Printf("subscription %s: %v", s.id, err)
		sink(Event{Kind: EventError, Code: ErrorCodeSensor, Message: ErrorMessageSensor, At: s.now()})
	default:
		log.Printf("subscription %s: source stopped: %v", s.id, err)
		sink(Event{Kind: EventError, Code: ErrorCodeStream, Message: err.Error(), At: s.now()})
	}
}
