package transport

import (
	"fmt"
	"io"
	"os"
)

// FileTransport replays a previously captured byte stream (a raw NMEA
// or UBX capture) for deterministic tests and offline reprocessing.
// Writes are discarded: a recording has no receiver listening on the
// other end to honor CFG-MSG/CFG-PRT frames.
type FileTransport struct {
	f *os.File
}

// OpenFile opens path for sequential replay.
func OpenFile(path string) (*FileTransport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("transport: open file %s: %w", path, err)
	}
	return &FileTransport{f: f}, nil
}

func (r *FileTransport) Read(p []byte) (int, error) {
	n, err := r.f.Read(p)
	if err == io.EOF {
		return n, io.EOF
	}
	return n, err
}

// Write discards its input; see FileTransport's doc comment.
func (r *FileTransport) Write(p []byte) (int, error) { return len(p), nil }

func (r *FileTransport) SetSpeed(int, Parity, StopBits) error { return nil }
func (r *FileTransport) Close() error       { return r.f.Close() }
