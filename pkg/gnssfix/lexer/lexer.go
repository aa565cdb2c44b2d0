// Package lexer implements the protocol-agnostic packet framer: it turns
// a raw byte stream into validated, protocol-tagged packets, rejecting
// anything that fails framing or checksum and resynchronizing without
// ever consuming more bytes than necessary. The scan loop is adapted
// from the buffer-plus-extract pattern in the teacher's
// rtcm.RTCMParser.ParseRTCMMessage/extractMessage, generalized into an
// explicit byte-driven state machine covering both NMEA and UBX framing,
// per spec.md §4.D.
package lexer

import "github.com/bramburn/gnssfix/pkg/gnssfix/scalar"

// Protocol tags the wire protocol a framed Packet was decoded from.
type Protocol int

const (
	ProtoNone Protocol = iota
	ProtoNMEA
	ProtoUBX
)

func (p Protocol) String() string {
	switch p {
	case ProtoNMEA:
		return "NMEA"
	case ProtoUBX:
		return "UBX"
	default:
		return "NONE"
	}
}

// NMEA framing limits. The NMEA 0183 spec caps a sentence at 82 bytes;
// Skytraq receivers routinely exceed that, so the lexer tolerates
// packets up to NMEAMax (the complete frame, '$'..."\r\n" inclusive)
// before discarding them as over-length. nmeaHardCap is a much looser
// safety bound on the in-progress buffer so a stream missing its CR/LF
// doesn't grow unbounded while still letting the real NMEAMax/NMEAMax+1
// boundary be decided once the frame is complete.
const (
	NMEAStdMax  = 82
	NMEAMax     = 105
	nmeaHardCap = NMEAMax * 4
)

// Packet is a single framed, checksum-validated packet as handed to the
// per-protocol decoders. Data holds the complete raw frame, including
// framing characters and checksum bytes, exactly as received.
type Packet struct {
	Proto Protocol
	Data  []byte
}

type state int

const (
	stGround state = iota
	stNMEABody
	stNMEACksumHi
	stNMEACksumLo
	stNMEAAwaitLF
	stUBXSync2
	stUBXHeader
	stUBXBody
	stUBXCkA
	stUBXCkB
)

// Lexer is a single-threaded cooperative packet framer. Feed bytes as
// they arrive; Lexer buffers any partial packet between calls and
// returns whatever complete, validated packets that feed produced.
type Lexer struct {
	state state
	buf   []byte

	// NMEA scratch
	nmeaCksum    byte // running XOR over bytes strictly between $/! and *
	nmeaHexHi    byte
	nmeaSawStar  bool
	nmeaPending  bool // packet is complete and valid, awaiting \r\n
	nmeaIsSTI    bool // bare-$STI quirk: no checksum required

	// UBX scratch
	ubxHdrIdx   int
	ubxLen      int
	ubxBodyGot  int
	ubxCkA      byte
	ubxCkB      byte
}

// New returns a Lexer positioned at Ground, ready to receive bytes.
func New() *Lexer {
	return &Lexer{state: stGround}
}

// Feed consumes data and returns every packet it completed.
func (l *Lexer) Feed(data []byte) []Packet {
	var out []Packet
	for _, b := range data {
		if pkt, ok := l.step(b); ok {
			out = append(out, pkt)
		}
	}
	return out
}

// step advances the state machine by one byte. The loop lets a byte that
// fails to continue the in-progress packet be re-evaluated against
// Ground without being dropped, so a lock-failure never costs more than
// the bytes that were actually invalid.
func (l *Lexer) step(b byte) (Packet, bool) {
	for {
		switch l.state {
		case stGround:
			switch {
			case b == '$' || b == '!':
				l.resetNMEA()
				l.buf = append(l.buf, b)
				l.state = stNMEABody
			case b == 0xB5:
				l.buf = []byte{b}
				l.state = stUBXSync2
			}
			return Packet{}, false

		case stNMEABody:
			switch {
			case b == '*':
				l.buf = append(l.buf, b)
				l.nmeaSawStar = true
				l.state = stNMEACksumHi
			case b == '\r':
				// No '*' seen yet. Accept only the bare-$STI Skytraq
				// quirk; anything else with no checksum is malformed.
				l.nmeaPending = l.isSTISentence()
				l.buf = append(l.buf, b)
				l.state = stNMEAAwaitLF
			default:
				if len(l.buf) >= nmeaHardCap {
					l.resetToGround()
					continue
				}
				l.nmeaCksum ^= b
				l.buf = append(l.buf, b)
			}
			return Packet{}, false

		case stNMEACksumHi:
			l.nmeaHexHi = b
			l.buf = append(l.buf, b)
			l.state = stNMEACksumLo
			return Packet{}, false

		case stNMEACksumLo:
			hex, ok := decodeHexByte(l.nmeaHexHi, b)
			l.buf = append(l.buf, b)
			l.nmeaPending = ok && hex == l.nmeaCksum
			l.state = stNMEAAwaitLF
			return Packet{}, false

		case stNMEAAwaitLF:
			if b == '\r' {
				// A duplicate CR: stay put, append, keep waiting for LF.
				l.buf = append(l.buf, b)
				return Packet{}, false
			}
			if b != '\n' {
				l.resetToGround()
				continue
			}
			l.buf = append(l.buf, b)
			pending := l.nmeaPending
			pkt := Packet{Proto: ProtoNMEA, Data: l.buf}
			l.state = stGround
			l.buf = nil
			if pending && len(pkt.Data) <= NMEAMax {
				return pkt, true
			}
			return Packet{}, false

		case stUBXSync2:
			if b == 0x62 {
				l.buf = append(l.buf, b)
				l.state = stUBXHeader
				l.ubxHdrIdx = 0
				return Packet{}, false
			}
			l.resetToGround()
			continue

		case stUBXHeader:
			l.buf = append(l.buf, b)
			l.ubxHdrIdx++
			if l.ubxHdrIdx < 4 {
				return Packet{}, false
			}
			l.ubxLen = int(l.buf[4]) | int(l.buf[5])<<8
			l.ubxBodyGot = 0
			if l.ubxLen == 0 {
				l.state = stUBXCkA
			} else {
				l.state = stUBXBody
			}
			return Packet{}, false

		case stUBXBody:
			l.buf = append(l.buf, b)
			l.ubxBodyGot++
			if l.ubxBodyGot == l.ubxLen {
				l.state = stUBXCkA
			}
			return Packet{}, false

		case stUBXCkA:
			l.ubxCkA = b
			l.buf = append(l.buf, b)
			l.state = stUBXCkB
			return Packet{}, false

		case stUBXCkB:
			l.ubxCkB = b
			l.buf = append(l.buf, b)
			wantA, wantB := scalar.Fletcher8(l.buf[2 : 6+l.ubxLen])
			ok := wantA == l.ubxCkA && wantB == l.ubxCkB
			pkt := Packet{Proto: ProtoUBX, Data: l.buf}
			l.state = stGround
			l.buf = nil
			if ok {
				return pkt, true
			}
			return Packet{}, false
		}
	}
}

func (l *Lexer) resetNMEA() {
	l.nmeaCksum = 0
	l.nmeaSawStar = false
	l.nmeaPending = false
}

func (l *Lexer) resetToGround() {
	l.state = stGround
	l.buf = nil
}

// isSTISentence reports whether the in-progress buffer is a bare Skytraq
// $STI/!STI sentence (tag "STI" immediately after the leading $/!).
func (l *Lexer) isSTISentence() bool {
	if len(l.buf) < 4 {
		return false
	}
	return l.buf[1] == 'S' && l.buf[2] == 'T' && l.buf[3] == 'I'
}

func decodeHexByte(hi, lo byte) (byte, bool) {
	h, ok1 := hexNibble(hi)
	l, ok2 := hexNibble(lo)
	if !ok1 || !ok2 {
		return 0, false
	}
	return h<<4 | l, true
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	default:
		return 0, false
	}
}
