package bridge

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"orientd/internal/classify"
	"orientd/internal/encode"
	"orientd/internal/lock"
	"orientd/internal/orientation"
	"orientd/internal/sensor"
)

const (
	MethodChannel = "sososdk.github.com/orientation"
	EventChannel  = "sososdk.github.com/orientationEvent"

	MethodSetPreferredOrientations = "SystemChrome.setPreferredOrientations"
	MethodForceOrientation         = "SystemChrome.forceOrientation"
	MethodSetEnabledOverlays       = "SystemChrome.setEnabledSystemUIOverlays"

	ErrorCodeNoActivity = "NO_ACTIVITY"
	ErrorCodeBadArgs    = "BAD_ARGS"
	ErrorCodeApply      = "APPLY_FAILED"
)

// Call is one request on the method channel. Arguments holds decoded JSON:
// a list of names for setPreferredOrientations and setEnabledSystemUIOverlays,
// a single name (or nil) for forceOrientation.
type Call struct {
	Method    string `json:"method"`
	Arguments any    `json:"arguments"`
}

type MethodError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *MethodError) Error() string { return e.Code + ": " + e.Message }

// Applied describes what a successful lock request put into effect.
type Applied struct {
	Constraint encode.LockConstraint `json:"constraint"`
	Native     int                   `json:"native"`
	// InterfaceMask is set for preference requests on Apple targets.
	InterfaceMask *encode.InterfaceMask `json:"interface_mask,omitempty"`
	// Lossy marks a preference set the constraint table cannot express exactly.
	Lossy bool `json:"lossy,omitempty"`
}

type Result struct {
	Value *Applied `json:"value,omitempty"`
	// SystemUIFlags is set by a successful overlay request.
	SystemUIFlags  *encode.SystemUIFlags `json:"system_ui_flags,omitempty"`
	Error          *MethodError          `json:"error,omitempty"`
	NotImplemented bool                  `json:"not_implemented,omitempty"`
}

// SourceFactory opens a fresh sensor source for each listener.
type SourceFactory func() (sensor.Source, error)

// Plugin is the host side of both channels.
type Plugin struct {
	Platform orientation.Platform
	Mode     classify.Mode

	// Applicator and Overlays are nil while no host window is attached.
	Applicator lock.Applicator
	Overlays   lock.OverlayApplicator
	Sources    SourceFactory

	mu   sync.Mutex
	subs map[uuid.UUID]*Subscription
}

func (p *Plugin) HandleMethod(call Call) Result {
	switch call.Method {
	case MethodSetPreferredOrientations:
		names, ok := stringList(call.Arguments)
		if !ok {
			return errResult(ErrorCodeBadArgs, fmt.Sprintf("%s expects a list of orientation names", call.Method))
		}
		mask := encode.MaskOf(names)
		applied := Applied{Constraint: encode.ForMask(mask), Lossy: encode.Lossy(mask)}
		if p.Platform == orientation.Apple {
			im := encode.PreferredInterfaceMask(names)
			applied.InterfaceMask = &im
		}
		return p.apply(applied)

	case MethodForceOrientation:
		var name string
		switch v := call.Arguments.(type) {
		case nil:
		case string:
			name = v
		default:
			return errResult(ErrorCodeBadArgs, fmt.Sprintf("%s expects an orientation name", call.Method))
		}
		return p.apply(Applied{Constraint: encode.Force(p.Platform, name)})

	case MethodSetEnabledOverlays:
		// No overlay handler on Apple hosts.
		if p.Platform == orientation.Apple {
			break
		}
		names, ok := stringList(call.Arguments)
		if !ok {
			return errResult(ErrorCodeBadArgs, fmt.Sprintf("%s expects a list of overlay names", call.Method))
		}
		return p.applyOverlays(encode.Overlays(names))
	}
	return Result{NotImplemented: true}
}

func (p *Plugin) applyOverlays(f encode.SystemUIFlags) Result {
	if p.Overlays == nil {
		return errResult(ErrorCodeNoActivity, "no host window to apply system ui overlays")
	}
	if err := p.Overlays.ApplyOverlays(f); err != nil {
		log.Printf("plugin: apply overlays %s: %v", f, err)
		return errResult(ErrorCodeApply, err.Error())
	}
	return Result{SystemUIFlags: &f}
}

func (p *Plugin) apply(a Applied) Result {
	if p.Applicator == nil {
		return errResult(ErrorCodeNoActivity, "no host window to apply the orientation lock")
	}
	if err := p.Applicator.Apply(a.Constraint); err != nil {
		log.Printf("plugin: apply %s: %v", a.Constraint, err)
		return errResult(ErrorCodeApply, err.Error())
	}
	a.Native = a.Constraint.Native()
	return Result{Value: &a}
}

func errResult(code, msg string) Result {
	return Result{Error: &MethodError{Code: code, Message: msg}}
}

func stringList(v any) ([]string, bool) {
	switch l := v.(type) {
	case nil:
		return nil, true
	case []string:
		return l, true
	case []any:
		out := make([]string, 0, len(l))
		for _, e := range l {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// Listen opens a source and subscribes sink to it with a fresh classifier.
// A source that cannot be opened still yields a subscription that reports
// the sensor error once.
func (p *Plugin) Listen(ctx context.Context, sink Sink) (*Subscription, error) {
	if p.Sources == nil {
		return nil, fmt.Errorf("plugin: no sensor source configured")
	}
	src, err := p.Sources()
	if err != nil {
		log.Printf("plugin: open source: %v", err)
		src = unavailable{err: err}
	}
	sub := Subscribe(ctx, src, classify.New(p.Mode, p.Platform), sink)

	p.mu.Lock()
	if p.subs == nil {
		p.subs = make(map[uuid.UUID]*Subscription)
	}
	p.subs[sub.ID()] = sub
	p.mu.Unlock()
	go func() {
		<-sub.Done()
		p.mu.Lock()
		delete(p.subs, sub.ID())
		p.mu.Unlock()
	}()
	return sub, nil
}

// Listeners is the number of live subscriptions opened through Listen.
func (p *Plugin) Listeners() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// CancelAll cancels every live subscription opened through Listen.
func (p *Plugin) CancelAll() {
	p.mu.Lock()
	subs := make([]*Subscription, 0, len(p.subs))
	for _, s := range p.subs {
		subs = append(subs, s)
	}
	p.mu.Unlock()
	for _, s := range subs {
		s.Cancel()
	}
}

type unavailable struct{ err error }

func (u unavailable) Start(context.Context, func(sensor.Sample)) error {
	return fmt.Errorf("%w: %v", sensor.ErrSensingUnavailable, u.err)
}

func (unavailable) Close() error { return nil }
