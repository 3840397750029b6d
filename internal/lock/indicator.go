package lock

import (
	"fmt"
	"log"

	"orientd/internal/encode"
)

// line is a single digital output.
type line interface {
	SetValue(v int) error
	Close() error
}

// Indicator lights a GPIO output while any lock other than Unspecified is in
// effect, so a kiosk enclosure can show that rotation is pinned.
type Indicator struct {
	pin  int
	line line
}

// OpenIndicator requests BCM GPIO pin as an output.
func OpenIndicator(pin int) (*Indicator, error) {
	l, err := openLineFn(pin)
	if err != nil {
		return nil, err
	}
	return &Indicator{pin: pin, line: l}, nil
}

func (i *Indicator) Apply(c encode.LockConstraint) error {
	if i == nil || i.line == nil {
		return fmt.Errorf("lock: indicator not initialized")
	}
	v := 0
	if c != encode.Unspecified {
		v = 1
	}
	if err := i.line.SetValue(v); err != nil {
		return fmt.Errorf("lock: indicator gpio%d: %w", i.pin, err)
	}
	return nil
}

func (i *Indicator) Close() error {
	if i == nil || i.line == nil {
		return nil
	}
	if err := i.line.SetValue(0); err != nil {
		log.Printf("lock: indicator gpio%d off failed: %v", i.pin, err)
	}
	err := i.line.Close()
	i.line = nil
	return err
}
