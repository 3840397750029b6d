// Package udp pushes orientation changes to a UDP listener, one datagram per
// change holding the orientation name.
package udp

import (
	"fmt"
	"net"
	"sync"

	"orientd/internal/bridge"
)

type udpConn interface {
	Write(p []byte) (int, error)
	Close() error
}

type resolveFunc func(network, address string) (*net.UDPAddr, error)

type dialFunc func(network string, laddr, raddr *net.UDPAddr) (udpConn, error)

type Sink struct {
	dest string

	mu   sync.Mutex
	conn udpConn
	sent uint64
}

func NewSink(dest string) (*Sink, error) {
	return newSink(dest, net.ResolveUDPAddr, func(network string, laddr, raddr *net.UDPAddr) (udpConn, error) {
		return net.DialUDP(network, laddr, raddr)
	})
}

func newSink(dest string, resolve resolveFunc, dial dialFunc) (*Sink, error) {
	addr, err := resolve("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve dest: %w", err)
	}
	conn, err := dial("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp: %w", err)
	}
	return &Sink{dest: dest, conn: conn}, nil
}

func (s *Sink) Dest() string { return s.dest }

// Deliver sends change events. Error events have no datagram form and are
// skipped.
func (s *Sink) Deliver(e bridge.Event) error {
	if e.Kind != bridge.EventChange || !e.Orientation.Valid() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("udp: sink %s is closed", s.dest)
	}
	if _, err := s.conn.Write([]byte(e.Orientation.String())); err != nil {
		return err
	}
	s.sent++
	return nil
}

func (s *Sink) Sent() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
