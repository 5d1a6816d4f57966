package port

import (
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
)

// SerialPort is a Port backed by a serial device (8N1, no flow control).
type SerialPort struct {
	port serial.Port
	name string

	closeOnce sync.Once
	closeErr  error
}

// OpenSerial opens the serial device at name.
func OpenSerial(name string, baud int, readTimeout time.Duration) (*SerialPort, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", name, err)
	}

	return &SerialPort{port: p, name: name}, nil
}

// Read returns (0, nil) when the read timeout elapses with no data.
func (s *SerialPort) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialPort) Write(p []byte) (int, error) {
	return writeAll(s.port, p)
}

// Close may be called more than once.
func (s *SerialPort) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.port.Close()
	})
	return s.closeErr
}

func (s *SerialPort) Name() string {
	return s.name
}
