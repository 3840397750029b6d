// Package imu polls an ICM-20948 accelerometer and feeds its readings to the
// orientation classifier as accel samples.
package imu

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"orientd/internal/i2c"
	"orientd/internal/sensor"
	"orientd/internal/sensors/icm20948"
)

const (
	defaultInterval = 200 * time.Millisecond

	// After this many consecutive read failures the device is reopened.
	// If every reopen attempt fails the sensor is considered gone.
	maxReadFailures = 10
	reopenRetries   = 2
)

// reopenBackoff is the base delay between reopen attempts. Tests shorten it.
var reopenBackoff = 250 * time.Millisecond

type Config struct {
	I2CBus   int
	Addr     uint16
	Interval time.Duration
}

type Snapshot struct {
	Detected     bool
	LastUpdateAt time.Time
	Accel        [3]float64
	LastError    string
}

type accelReader interface {
	ReadAccel() (icm20948.Accel, error)
}

// openDeviceFn is swapped by tests.
var openDeviceFn = func(busNum int, addr uint16) (accelReader, io.Closer, error) {
	bus, err := i2c.OpenBus(busNum)
	if err != nil {
		return nil, nil, err
	}
	dev, err := icm20948.New(bus.Dev(addr))
	if err != nil {
		_ = bus.Close()
		return nil, nil, err
	}
	return dev, bus, nil
}

type Source struct {
	cfg Config

	mu     sync.RWMutex
	snap   Snapshot
	cancel context.CancelFunc
}

func New(cfg Config) *Source {
	if cfg.I2CBus == 0 {
		cfg.I2CBus = 1
	}
	if cfg.Addr == 0 {
		cfg.Addr = icm20948.DefaultAddress()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	return &Source{cfg: cfg}
}

func (s *Source) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Source) open() (accelReader, io.Closer, error) {
	dev, closer, err := openDeviceFn(s.cfg.I2CBus, s.cfg.Addr)
	if err != nil {
		s.setErr(fmt.Sprintf("imu init: %v", err))
		return nil, nil, fmt.Errorf("%w: i2c-%d addr 0x%02X: %v", sensor.ErrSensingUnavailable, s.cfg.I2CBus, s.cfg.Addr, err)
	}
	s.mu.Lock()
	s.snap.Detected = true
	s.snap.LastError = ""
	s.mu.Unlock()
	return dev, closer, nil
}

// Start emits one accel sample per interval. Chip axes are negated so an
// upright device reads y=-1g.
func (s *Source) Start(ctx context.Context, onSample func(sensor.Sample)) error {
	dev, closer, err := s.open()
	if err != nil {
		return err
	}
	defer func() {
		if closer != nil {
			_ = closer.Close()
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	tick := time.NewTicker(s.cfg.Interval)
	defer tick.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		}

		a, err := dev.ReadAccel()
		if err != nil {
			failures++
			s.setErr(fmt.Sprintf("imu read: %v", err))
			if failures < maxReadFailures {
				continue
			}
			log.Printf("imu: %d consecutive read failures; reopening", failures)
			_ = closer.Close()
			closer = nil
			dev, closer, err = s.reopen(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.mu.Lock()
				s.snap.Detected = false
				s.mu.Unlock()
				return err
			}
			failures = 0
			continue
		}
		failures = 0

		smp := sensor.AccelSample(-a.X, -a.Y, -a.Z)
		s.mu.Lock()
		s.snap.LastUpdateAt = time.Now()
		s.snap.Accel = smp.Accel
		s.snap.LastError = ""
		s.mu.Unlock()
		onSample(smp)
	}
}

func (s *Source) reopen(ctx context.Context) (accelReader, io.Closer, error) {
	var (
		dev    accelReader
		closer io.Closer
	)
	b := retry.WithMaxRetries(reopenRetries, retry.NewExponential(reopenBackoff))
	err := retry.Do(ctx, b, func(context.Context) error {
		d, c, err := s.open()
		if err != nil {
			return retry.RetryableError(err)
		}
		dev, closer = d, c
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return dev, closer, nil
}

func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

func (s *Source) setErr(msg string) {
	s.mu.Lock()
	s.snap.LastError = msg
	s.mu.Unlock()
}
