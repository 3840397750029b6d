// Package lock applies orientation lock constraints and system UI overlay
// flags to the host.
package lock

import (
	"errors"
	"sync"

	"orientd/internal/encode"
)

// Applicator applies one constraint. Applying the constraint already in
// effect must be harmless.
type Applicator interface {
	Apply(c encode.LockConstraint) error
}

// OverlayApplicator applies a system UI visibility flag set.
type OverlayApplicator interface {
	ApplyOverlays(f encode.SystemUIFlags) error
}

// State is an in-memory applicator that remembers the constraint in effect.
// It forwards only real changes to Next, so repeated requests are idempotent.
type State struct {
	Next         Applicator
	NextOverlays OverlayApplicator

	mu       sync.RWMutex
	current  encode.LockConstraint
	changes  uint64
	overlays encode.SystemUIFlags
	haveUI   bool
}

func (s *State) Apply(c encode.LockConstraint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c == s.current {
		return nil
	}
	if s.Next != nil {
		if err := s.Next.Apply(c); err != nil {
			return err
		}
	}
	s.current = c
	s.changes++
	return nil
}

func (s *State) Current() encode.LockConstraint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// ApplyOverlays forwards f to NextOverlays unless it is already in effect.
// No flags are in effect until the first request.
func (s *State) ApplyOverlays(f encode.SystemUIFlags) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.haveUI && f == s.overlays {
		return nil
	}
	if s.NextOverlays != nil {
		if err := s.NextOverlays.ApplyOverlays(f); err != nil {
			return err
		}
	}
	s.overlays = f
	s.haveUI = true
	return nil
}

// Overlays reports the flags in effect, if any were applied.
func (s *State) Overlays() (encode.SystemUIFlags, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overlays, s.haveUI
}

// Changes counts applications that altered the constraint in effect.
func (s *State) Changes() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changes
}

// Multi applies to every applicator in order and joins their errors.
type Multi []Applicator

func (m Multi) Apply(c encode.LockConstraint) error {
	var errs []error
	for _, a := range m {
		if a == nil {
			continue
		}
		if err := a.Apply(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Func adapts a function to Applicator.
type Func func(encode.LockConstraint) error

func (f Func) Apply(c encode.LockConstraint) error { return f(c) }

type OverlayFunc func(encode.SystemUIFlags) error

func (f OverlayFunc) ApplyOverlays(v encode.SystemUIFlags) error { return f(v) }
