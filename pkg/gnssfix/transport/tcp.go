package transport

import (
	"fmt"
	"net"
	"time"
)

// TCPTransport is a Transport backed by a TCP connection to a
// networked receiver or NTRIP-adjacent relay.
type TCPTransport struct {
	conn net.Conn
}

// DialTCP connects to addr ("host:port").
func DialTCP(addr string) (*TCPTransport, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	return &TCPTransport{conn: conn}, nil
}

func (t *TCPTransport) Read(p []byte) (int, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(ReadTimeout)); err != nil {
		return 0, err
	}
	return t.conn.Read(p)
}

func (t *TCPTransport) Write(p []byte) (int, error) { return t.conn.Write(p) }
func (t *TCPTransport) Close() error                { return t.conn.Close() }

// SetSpeed is a no-op over TCP; baud/parity/stop-bits have no meaning
// on a socket.
func (t *TCPTransport) SetSpeed(int, Parity, StopBits) error { return nil }
