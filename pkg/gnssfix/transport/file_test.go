package transport

import (
	"io"
	"os"
	"testing"
)

func TestFileTransportReplaysBytesThenEOF(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "replay")
	if err != nil {
		t.Fatal(err)
	}
	want := []byte("$GPRMC,demo*00\r\n")
	if _, err := tmp.Write(want); err != nil {
		t.Fatal(err)
	}
	tmp.Close()

	ft, err := OpenFile(tmp.Name())
	if err != nil {
		t.Fatal(err)
	}
	defer ft.Close()

	got, err := io.ReadAll(ft)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFileTransportWriteIsDiscarded(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "replay")
	if err != nil {
		t.Fatal(err)
	}
	tmp.Close()

	ft, err := OpenFile(tmp.Name())
	if err != nil {
		t.Fatal(err)
	}
	defer ft.Close()

	n, err := ft.Write([]byte{0xB5, 0x62, 0x06, 0x01, 0, 0, 0x07, 0x18})
	if err != nil || n != 8 {
		t.Errorf("Write = (%d, %v)", n, err)
	}
}
