// Package serialsrc reads orientation samples from an external tilt sensor on
// a serial port. Each line is "<kind>,<v1>[,<v2>...]" as accepted by
// sensor.ParseLine; blank lines and lines starting with '#' are ignored.
package serialsrc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"go.bug.st/serial"

	"orientd/internal/sensor"
)

const defaultBaud = 115200

type Options struct {
	Path string
	Baud int
}

func (o Options) mode() *serial.Mode {
	baud := o.Baud
	if baud <= 0 {
		baud = defaultBaud
	}
	return &serial.Mode{BaudRate: baud, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}
}

// openPortFn is swapped by tests.
var openPortFn = func(path string, mode *serial.Mode) (io.ReadCloser, error) {
	return serial.Open(path, mode)
}

type Source struct {
	opts Options

	mu     sync.Mutex
	port   io.ReadCloser
	closed bool

	// Invalid counts lines that failed to parse.
	Invalid int
}

func New(opts Options) *Source { return &Source{opts: opts} }

func (s *Source) Start(ctx context.Context, onSample func(sensor.Sample)) error {
	if strings.TrimSpace(s.opts.Path) == "" {
		return fmt.Errorf("%w: serial path is empty", sensor.ErrSensingUnavailable)
	}
	port, err := openPortFn(s.opts.Path, s.opts.mode())
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", sensor.ErrSensingUnavailable, s.opts.Path, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = port.Close()
		return nil
	}
	s.port = port
	s.mu.Unlock()

	// A blocked Read only returns once the port is closed.
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()
	defer s.Close()

	sc := bufio.NewScanner(port)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		smp, err := sensor.ParseLine(line)
		if err != nil {
			s.Invalid++
			log.Printf("serial: skip line: %v", err)
			continue
		}
		onSample(smp)
	}
	if s.isClosed() || ctx.Err() != nil {
		return nil
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("serial: read %s: %w", s.opts.Path, err)
	}
	return fmt.Errorf("serial: %s: %w", s.opts.Path, io.ErrUnexpectedEOF)
}

func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	if errors.Is(err, io.ErrClosedPipe) {
		err = nil
	}
	return err
}

func (s *Source) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
