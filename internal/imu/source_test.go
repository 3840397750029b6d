package imu

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"orientd/internal/sensor"
	"orientd/internal/sensors/icm20948"
)

type fakeDev struct {
	mu    sync.Mutex
	reads []icm20948.Accel
	errs  []error
	n     int
}

func (f *fakeDev) ReadAccel() (icm20948.Accel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.n
	f.n++
	if i < len(f.errs) && f.errs[i] != nil {
		return icm20948.Accel{}, f.errs[i]
	}
	if i < len(f.reads) {
		return f.reads[i], nil
	}
	return f.reads[len(f.reads)-1], nil
}

type closerFunc func() error

func (c closerFunc) Close() error { return c() }

func withOpen(t *testing.T, fn func(int, uint16) (accelReader, io.Closer, error)) {
	t.Helper()
	old, oldBackoff := openDeviceFn, reopenBackoff
	openDeviceFn = fn
	reopenBackoff = time.Millisecond
	t.Cleanup(func() {
		openDeviceFn = old
		reopenBackoff = oldBackoff
	})
}

func TestStart_OpenFailureIsSensingUnavailable(t *testing.T) {
	withOpen(t, func(int, uint16) (accelReader, io.Closer, error) {
		return nil, nil, errors.New("no such file")
	})
	s := New(Config{})
	err := s.Start(context.Background(), func(sensor.Sample) {})
	if !errors.Is(err, sensor.ErrSensingUnavailable) {
		t.Fatalf("err=%v want ErrSensingUnavailable", err)
	}
	if s.Snapshot().LastError == "" {
		t.Fatalf("expected LastError")
	}
}

func TestStart_EmitsNegatedAccel(t *testing.T) {
	dev := &fakeDev{reads: []icm20948.Accel{{X: 0.1, Y: 1, Z: -0.2}}}
	closed := make(chan struct{})
	withOpen(t, func(bus int, addr uint16) (accelReader, io.Closer, error) {
		if bus != 1 || addr != 0x68 {
			t.Errorf("bus=%d addr=0x%X want 1/0x68", bus, addr)
		}
		return dev, closerFunc(func() error { close(closed); return nil }), nil
	})

	s := New(Config{Interval: time.Millisecond})
	got := make(chan sensor.Sample, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.Start(context.Background(), func(smp sensor.Sample) {
			select {
			case got <- smp:
			default:
			}
		})
	}()

	var smp sensor.Sample
	select {
	case smp = <-got:
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for sample")
	}
	if smp.Kind != sensor.KindAccel || smp.Accel != [3]float64{-0.1, -1, 0.2} {
		t.Fatalf("sample=%+v", smp)
	}
	if !s.Snapshot().Detected {
		t.Fatalf("expected Detected")
	}

	_ = s.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Start did not return after Close")
	}
	select {
	case <-closed:
	default:
		t.Fatalf("device not closed")
	}
}

func TestStart_PersistentReadFailureEndsWhenReopenFails(t *testing.T) {
	errBus := errors.New("bus")
	errs := make([]error, maxReadFailures)
	for i := range errs {
		errs[i] = errBus
	}
	opens := 0
	withOpen(t, func(int, uint16) (accelReader, io.Closer, error) {
		opens++
		if opens > 1 {
			return nil, nil, errors.New("gone")
		}
		return &fakeDev{errs: errs}, closerFunc(func() error { return nil }), nil
	})

	s := New(Config{Interval: time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.Start(ctx, func(sensor.Sample) { t.Errorf("unexpected sample") })
	if !errors.Is(err, sensor.ErrSensingUnavailable) {
		t.Fatalf("err=%v want ErrSensingUnavailable", err)
	}
	if want := 2 + reopenRetries; opens != want {
		t.Fatalf("opens=%d want %d", opens, want)
	}
	if s.Snapshot().Detected {
		t.Fatalf("expected Detected=false")
	}
}

func TestStart_ReopenRetriesUntilDeviceReturns(t *testing.T) {
	errBus := errors.New("bus")
	errs := make([]error, maxReadFailures)
	for i := range errs {
		errs[i] = errBus
	}
	opens := 0
	withOpen(t, func(int, uint16) (accelReader, io.Closer, error) {
		opens++
		switch opens {
		case 1:
			return &fakeDev{errs: errs}, closerFunc(func() error { return nil }), nil
		case 2:
			return nil, nil, errors.New("busy")
		default:
			return &fakeDev{reads: []icm20948.Accel{{Y: 1}}}, closerFunc(func() error { return nil }), nil
		}
	})

	s := New(Config{Interval: time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got := make(chan sensor.Sample, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.Start(ctx, func(smp sensor.Sample) {
			select {
			case got <- smp:
			default:
			}
		})
	}()

	select {
	case smp := <-got:
		if smp.Accel != [3]float64{0, -1, 0} {
			t.Fatalf("sample=%+v", smp)
		}
	case err := <-done:
		t.Fatalf("Start returned early: %v", err)
	case <-ctx.Done():
		t.Fatalf("timeout waiting for sample after reopen")
	}
	_ = s.Close()
	if err := <-done; err != nil {
		t.Fatalf("Start: %v", err)
	}
	if opens != 3 {
		t.Fatalf("opens=%d want 3", opens)
	}
}
