// Package session ties the lexer, protocol decoders, and a transport
// together into the single-threaded read/dispatch/report loop spec.md
// describes as the core's outer shell: feed bytes in, get consolidated
// fix.Report values and structured log entries out.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	gnssfix "github.com/bramburn/gnssfix"
	"github.com/bramburn/gnssfix/pkg/gnssfix/fix"
	"github.com/bramburn/gnssfix/pkg/gnssfix/gtime"
	"github.com/bramburn/gnssfix/pkg/gnssfix/lexer"
	"github.com/bramburn/gnssfix/pkg/gnssfix/nmea"
	"github.com/bramburn/gnssfix/pkg/gnssfix/transport"
	"github.com/bramburn/gnssfix/pkg/gnssfix/ubx"
	"github.com/bramburn/gnssfix/pkg/gnssfix/ubxcfg"
)

// DefaultOfflineGrace is how long Run tolerates zero framed packets
// before reporting gnssfix.ErrOffline (spec.md §8's "offline" boundary
// case, detected by the hosting layer rather than the core).
const DefaultOfflineGrace = 10 * time.Second

// Protocol identifies which decoder produced a LogEntry.
type Protocol = lexer.Protocol

const (
	ProtoNMEA = lexer.ProtoNMEA
	ProtoUBX  = lexer.ProtoUBX
)

// LogKind tags a LogEntry's taxonomy (spec.md §7): the literal prefix
// a decoder's logf call already carries, e.g. "NMEA0183:" or "UBX:".
type LogKind = string

// LogEntry is one structured log line raised while processing a
// packet, independent of the per-epoch fix.Report.Entries a caller
// gets via OnReport.
type LogEntry struct {
	Kind  LogKind
	Proto Protocol
	Tag   string
	Msg   string
}

// ErrorSink receives LogEntry-shaped lines as a decoder produces them.
type ErrorSink interface {
	Log(kind LogKind, proto Protocol, tag string, msg string)
}

// SliceSink is an ErrorSink that appends every entry to a slice; handy
// for tests asserting on what was logged without a logging framework
// in the loop.
type SliceSink struct {
	Entries []LogEntry
}

func (s *SliceSink) Log(kind LogKind, proto Protocol, tag, msg string) {
	s.Entries = append(s.Entries, LogEntry{Kind: kind, Proto: proto, Tag: tag, Msg: msg})
}

// LogrusSink adapts an ErrorSink onto a logrus.FieldLogger, the
// teacher's structured-logging convention throughout pkg/caster and
// pkg/server.
type LogrusSink struct {
	Logger logrus.FieldLogger
}

func (s LogrusSink) Log(kind LogKind, proto Protocol, tag, msg string) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithFields(logrus.Fields{
		"kind": kind,
		"proto": proto.String(),
		"tag":   tag,
	}).Warn(msg)
}

// Mode selects which protocol decoder(s) a Session feeds framed
// packets to. A session never needs to guess: the lexer already tags
// each Packet with its protocol, so Mode only controls which of the
// two decoders exist and whether ubxcfg's staged dialogue runs at all.
type Mode int

const (
	ModeAuto Mode = iota // both decoders live, lexer's tag picks the path
	ModeNMEAOnly
	ModeUBXOnly
)

// Config configures a Session; it is passed to New.
type Config struct {
	Mode         Mode
	ReadOnly     bool          // passive: never write outbound UBX configuration frames
	BaseYear     int           // gtime.NewContext's century anchor; 0 defaults to 2000
	OfflineGrace time.Duration // 0 defaults to DefaultOfflineGrace
}

// Session owns one Lexer, one nmea.Decoder, one ubx.Decoder, and the
// transport they read from / write to. It is not safe for concurrent
// use: like the decoders it wraps, a Session expects a single
// goroutine driving Feed/Run.
type Session struct {
	ID        uuid.UUID
	cfg       Config
	transport transport.Transport
	lexer     *lexer.Lexer
	synth     *fix.Synthesizer
	ctx       *gtime.Context

	nmeaDec *nmea.Decoder
	ubxDec  *ubx.Decoder
	queue   *ubxcfg.Queue

	offlineGrace time.Duration
	lastPacketAt time.Time
	everFramed   bool

	OnReport func(fix.Report)
	Sink     ErrorSink
}

// logBridge adapts a decoder's minimal Logger interface (Log(kind,
// text string)) onto the richer session.ErrorSink, tagging every line
// with which protocol decoder produced it.
type logBridge struct {
	proto Protocol
	sink  ErrorSink
}

func (b logBridge) Log(kind, text string) {
	if b.sink == nil {
		return
	}
	b.sink.Log(kind, b.proto, "", text)
}

// New builds a Session around tr. cfg.BaseYear anchors gtime's century
// disambiguation (spec.md §4.C); 0 defaults to 2000.
func New(tr transport.Transport, cfg Config, sink ErrorSink) *Session {
	baseYear := cfg.BaseYear
	if baseYear == 0 {
		baseYear = 2000
	}
	grace := cfg.OfflineGrace
	if grace == 0 {
		grace = DefaultOfflineGrace
	}
	s := &Session{
		ID:           uuid.New(),
		cfg:          cfg,
		transport:    tr,
		lexer:        lexer.New(),
		synth:        fix.NewSynthesizer(),
		ctx:          gtime.NewContext(baseYear),
		Sink:         sink,
		offlineGrace: grace,
	}

	if cfg.Mode != ModeUBXOnly {
		s.nmeaDec = nmea.NewDecoder(s.synth, s.ctx, logBridge{proto: lexer.ProtoNMEA, sink: sink})
		s.nmeaDec.OnReport = s.emit
	}
	if cfg.Mode != ModeNMEAOnly {
		s.ubxDec = ubx.NewDecoder(s.synth, s.ctx, logBridge{proto: lexer.ProtoUBX, sink: sink})
		s.ubxDec.OnReport = s.emit
		s.queue = ubxcfg.New(tr)
		s.queue.Passive = cfg.ReadOnly
		s.ubxDec.OnReconfigure = func(protver float64) { s.queue.Start() }
		s.queue.Start()
	}
	return s
}

func (s *Session) emit(r fix.Report) {
	if s.OnReport != nil {
		s.OnReport(r)
	}
}

// Feed drives framing and decoding for a chunk of raw bytes, returning
// every packet's contribution mask. Use this directly in tests that
// hand the session fixed byte slices; Run drives it from a live
// transport.
func (s *Session) Feed(data []byte) []fix.Mask {
	var masks []fix.Mask
	for _, pkt := range s.lexer.Feed(data) {
		s.everFramed = true
		s.lastPacketAt = time.Now()
		switch pkt.Proto {
		case lexer.ProtoNMEA:
			if s.nmeaDec != nil {
				masks = append(masks, s.nmeaDec.ParseSentence(pkt.Data))
			}
		case lexer.ProtoUBX:
			if s.ubxDec != nil {
				class, id := pkt.Data[2], pkt.Data[3]
				length := int(pkt.Data[4]) | int(pkt.Data[5])<<8
				payload := pkt.Data[6 : 6+length]
				mask := s.ubxDec.ParseUBX(class, id, payload)
				masks = append(masks, mask)
				if s.queue != nil && s.queue.Active() {
					s.queue.SetSubtype(s.subtype())
					s.queue.Step(s.protver())
				}
			}
		}
	}
	return masks
}

func (s *Session) subtype() string {
	// A non-empty subtype is only ever known once MON-VER has been
	// parsed; ubx.Decoder keeps the discovered protver but not a
	// separate subtype string, so this mirrors stageRetryMonVer's test
	// (protver != 0 implies MON-VER was seen).
	if s.protver() != 0 {
		return "known"
	}
	return ""
}

func (s *Session) protver() float64 {
	if s.ubxDec == nil {
		return 0
	}
	return s.ubxDec.Protver()
}

// Flush reports any pending-but-unreported epoch from either decoder,
// per spec.md §5's explicit lack of timers: callers needing a
// deterministic end-of-stream report (tests, file replay) call this
// once input is exhausted.
func (s *Session) Flush() {
	if s.nmeaDec != nil {
		if rep, ok := s.nmeaDec.Flush(); ok {
			s.emit(rep)
		}
	}
	if s.ubxDec != nil {
		if rep, ok := s.ubxDec.Flush(); ok {
			s.emit(rep)
		}
	}
}

// Run reads from the transport until ctx is canceled, feeding every
// chunk through Feed. It never returns the last error verbatim on a
// plain read timeout (transport.ReadTimeout elapsing with zero bytes
// is the expected idle case, not a fault). It returns gnssfix.ErrOffline
// once offlineGrace has elapsed since the last packet was framed
// (spec.md §8's "offline" boundary case).
func (s *Session) Run(ctx context.Context) error {
	buf := make([]byte, 4096)
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		since := s.lastPacketAt
		if !s.everFramed {
			since = start
		}
		if time.Since(since) > s.offlineGrace {
			return gnssfix.ErrOffline
		}
		n, err := s.transport.Read(buf)
		if n > 0 {
			s.Feed(buf[:n])
		}
		if err != nil {
			if isTimeout(err) {
				continue
			}
			return err
		}
	}
}

type timeoutError interface{ Timeout() bool }

func isTimeout(err error) bool {
	te, ok := err.(timeoutError)
	return ok && te.Timeout()
}
