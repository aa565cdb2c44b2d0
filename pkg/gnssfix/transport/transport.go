// Package transport provides the byte-stream sources a Session reads
// inbound NMEA/UBX data from and writes outbound UBX configuration
// frames to: serial ports, TCP sockets, and plain files for replay.
package transport

import (
	"time"
)

// Parity mirrors go.bug.st/serial's parity settings without importing
// that package into callers that only need the constant.
type Parity int

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

// StopBits mirrors go.bug.st/serial's stop-bit settings.
type StopBits int

const (
	StopBitsOne StopBits = iota
	StopBitsTwo
)

// Transport is the byte-stream abstraction a Session drives: reads
// come from the receiver (or a recorded file), writes carry
// ubxcfg.Queue's outbound configuration frames. SetSpeed lets a session
// raise a serial port's baud rate once CFG-PRT negotiation decides on
// a new rate; non-serial transports treat it as a no-op.
type Transport interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetSpeed(speed int, parity Parity, stopBits StopBits) error
	Close() error
}

// ReadTimeout is the poll interval used by transports whose underlying
// read call can otherwise block indefinitely (serial, TCP). A Session
// loop calls Read in a tight loop and expects periodic (0, timeout
// error) wakeups so it can check for shutdown.
const ReadTimeout = 200 * time.Millisecond
