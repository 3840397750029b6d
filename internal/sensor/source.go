// Package sensor defines raw motion samples and the sources that produce them.
//
// A Source delivers samples serially on a single goroutine. Callers never see
// two concurrent invocations of the sample callback for one Source.
package sensor

import (
	"context"
	"errors"
)

// ErrSensingUnavailable is returned by Start when the source cannot provide a
// reliable orientation signal.
var ErrSensingUnavailable = errors.New("sensor: sensing unavailable")

// Source produces raw samples until ctx is done or Close is called.
//
// Start blocks until the source stops. It returns ErrSensingUnavailable
// (possibly wrapped) when no sensor can be acquired, nil after ctx is done or
// Close, and any other error when the stream breaks.
type Source interface {
	Start(ctx context.Context, onSample func(Sample)) error
	Close() error
}
