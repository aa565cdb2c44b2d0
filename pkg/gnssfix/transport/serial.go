package transport

import (
	"fmt"

	"go.bug.st/serial"
)

// SerialConfig describes how to open a serial port. Adapted from the
// path-parsing conventions in the teacher's stream package
// (port[:baud[:databits[:parity[:stopbits]]]]), but as a struct rather
// than a colon-delimited path string.
type SerialConfig struct {
	Port     string
	BaudRate int
	DataBits int
	Parity   Parity
	StopBits StopBits
}

// SerialTransport is a Transport backed by a real serial port.
type SerialTransport struct {
	port serial.Port
}

// OpenSerial opens a serial port with the given configuration.
func OpenSerial(cfg SerialConfig) (*SerialTransport, error) {
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = 9600
	}
	if cfg.DataBits <= 0 {
		cfg.DataBits = 8
	}
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		StopBits: serial.OneStopBit,
		Parity:   serial.NoParity,
	}
	switch cfg.StopBits {
	case StopBitsTwo:
		mode.StopBits = serial.TwoStopBits
	}
	switch cfg.Parity {
	case ParityEven:
		mode.Parity = serial.EvenParity
	case ParityOdd:
		mode.Parity = serial.OddParity
	}

	p, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: open serial %s: %w", cfg.Port, err)
	}
	if err := p.SetReadTimeout(ReadTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("transport: set read timeout: %w", err)
	}
	return &SerialTransport{port: p}, nil
}

func (s *SerialTransport) Read(p []byte) (int, error)  { return s.port.Read(p) }
func (s *SerialTransport) Write(p []byte) (int, error) { return s.port.Write(p) }
func (s *SerialTransport) Close() error                { return s.port.Close() }

// SetSpeed reconfigures baud rate, parity, and stop bits in place, as
// CFG-PRT negotiation requires when the receiver agrees to a new port
// configuration mid-session.
func (s *SerialTransport) SetSpeed(speed int, parity Parity, stopBits StopBits) error {
	mode := &serial.Mode{BaudRate: speed, Parity: serial.NoParity, StopBits: serial.OneStopBit}
	switch parity {
	case ParityEven:
		mode.Parity = serial.EvenParity
	case ParityOdd:
		mode.Parity = serial.OddParity
	}
	if stopBits == StopBitsTwo {
		mode.StopBits = serial.TwoStopBits
	}
	return s.port.SetMode(mode)
}
