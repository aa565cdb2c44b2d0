// Package ubx implements the u-blox UBX binary protocol decoder: a
// dispatch on (class, id), per-message handlers that write into a
// shared fix.Synthesizer/SkyView, and the iTOW-based cycle-end detector
// (spec.md §4.F). It mirrors the nmea package's shape deliberately: a
// Decoder owns a small scratch struct, handlers take the raw payload
// and return a fix.Mask, and ParseUBX runs the cycle detector after
// dispatch the same way nmea.ParseSentence does.
package ubx

import (
	"github.com/bramburn/gnssfix/pkg/gnssfix/fix"
	"github.com/bramburn/gnssfix/pkg/gnssfix/gtime"
)

// Logger receives structured log lines, matching nmea.Logger's contract
// (spec.md §7: every anomaly carries a "UBX:" tag).
type Logger interface {
	Log(kind, text string)
}

// NopLogger discards every entry; useful in tests.
type NopLogger struct{}

func (NopLogger) Log(string, string) {}

// msgID packs (class, id) into the single comparable value the
// dispatch table and the cycle detector key off, per spec.md §9 ("UBX
// uses a match on (class<<8)|id").
func msgID(class, id byte) uint16 {
	return uint16(class)<<8 | uint16(id)
}

// handlerFunc is a UBX message handler's contract: given the raw
// payload (already length-validated against the table's minLen), mutate
// the decoder's wired fix.Synthesizer/SkyView and return what it
// produced.
type handlerFunc func(d *Decoder, payload []byte) fix.Mask

type msgEntry struct {
	minLen  int
	handler handlerFunc
}

var table = map[uint16]msgEntry{}

func register(class, id byte, minLen int, h handlerFunc) {
	table[msgID(class, id)] = msgEntry{minLen: minLen, handler: h}
}

// satSnapshot is one NAV-SAT record's az/el, kept so a later NAV-SIG
// (which carries no geometry of its own) can be paired up by
// (gnssId, svId) through navSatKey.
type satSnapshot struct {
	elevation, azimuth float64
}

// scratch is the UbxScratch of spec.md §3.
type scratch struct {
	protver     float64
	lastProtver float64
	portID      int

	iTOW     int64 // -1 if absent this message
	lastITOW int64
	haveITOW bool

	endMsgID uint16
	lastMsgID uint16
	haveLastMsgID bool

	lastTime gtime.Gtime

	sbasInUse bool

	navSatSnapshot map[int]satSnapshot // keyed by navSatKey(gnssId, svId)

	navSolEmittedThisEpoch bool
	navPvtEmittedThisEpoch bool

	pendingMask fix.Mask

	// qErr and its timestamp, saved by TIM-TP when locked to UTC, kept
	// for an external PPS correlator (spec.md §4.F).
	qErr     int32
	qErrTime gtime.Gtime

	sernum string
}

func newScratch() scratch {
	return scratch{iTOW: -1, lastITOW: -1, navSatSnapshot: make(map[int]satSnapshot)}
}

// Decoder is the per-session UBX decoder instance.
type Decoder struct {
	Synth    *fix.Synthesizer
	Ctx      *gtime.Context
	Log      Logger
	OnReport func(fix.Report)

	// OnReconfigure is invoked when MON-VER reveals a changed protocol
	// version, matching spec.md §4.F's "schedule a reconfig pass (set
	// queue=0)": session.Session wires this to ubxcfg.Queue.Start.
	OnReconfigure func(protver float64)

	// OnSubframe receives RXM-SFRBX's decoded words for an external
	// subframe interpreter (spec.md §6's gpsd_interpret_subframe).
	OnSubframe func(gnssID, sigID, svID int, words []uint32)

	// OnRawMeas receives one RXM-RAWX measurement at a time.
	OnRawMeas func(RawMeas)

	scr scratch
}

// NewDecoder returns a Decoder wired to the given synthesizer, time
// context, and log sink.
func NewDecoder(synth *fix.Synthesizer, ctx *gtime.Context, log Logger) *Decoder {
	if log == nil {
		log = NopLogger{}
	}
	return &Decoder{Synth: synth, Ctx: ctx, Log: log, scr: newScratch()}
}

func (d *Decoder) logf(kind, text string) {
	d.Log.Log(kind, text)
}

// Protver returns the most recently discovered UBX protocol version,
// or 0 if MON-VER hasn't been seen yet. ubxcfg.Queue's stage branches
// are keyed on this value.
func (d *Decoder) Protver() float64 { return d.scr.protver }

// ParseUBX is the decoder's entry point: dispatch the (class, id)
// message, run the cycle detector, and report when it fires.
func (d *Decoder) ParseUBX(class, id byte, payload []byte) fix.Mask {
	m := msgID(class, id)
	entry, ok := table[m]
	if !ok {
		return fix.MaskOnline
	}
	if len(payload) < entry.minLen {
		d.logf("UBX:", "wrong payload len")
		return fix.MaskOnline
	}

	d.scr.iTOW = -1
	preMsgFix := d.Synth.NewData
	mask := entry.handler(d, payload)

	reportNow, ownJump := d.runCycleDetector(m)
	if !reportNow {
		d.scr.pendingMask |= mask
		return mask
	}

	if ownJump {
		// m is the only message type in the stream: its own iTOW jump
		// just promoted it to endMsgID, and its fields (already applied
		// above) belong to the epoch that jump started, not the one
		// being closed. Report the pre-dispatch snapshot and restore
		// this message's mutation as the new epoch's seed, so the
		// triggering message isn't counted in both epochs.
		postMsgFix := d.Synth.NewData
		d.Synth.NewData = preMsgFix
		rep := d.Synth.Report(d.scr.pendingMask)
		d.Synth.NewData = postMsgFix
		d.scr.pendingMask = mask
		if d.OnReport != nil {
			d.OnReport(rep)
		}
	} else {
		d.scr.pendingMask |= mask
		rep := d.Synth.Report(d.scr.pendingMask)
		d.scr.pendingMask = 0
		d.scr.navSolEmittedThisEpoch = false
		d.scr.navPvtEmittedThisEpoch = false
		if d.OnReport != nil {
			d.OnReport(rep)
		}
	}
	mask |= fix.MaskFix
	return mask
}

// Flush forces a report of whatever has accumulated since the last one,
// mirroring nmea.Decoder.Flush for the same no-timers-in-core reason
// (spec.md §5).
func (d *Decoder) Flush() (fix.Report, bool) {
	if d.scr.pendingMask&^fix.MaskOnline == 0 {
		return fix.Report{}, false
	}
	rep := d.Synth.Report(d.scr.pendingMask)
	d.scr.pendingMask = 0
	if d.OnReport != nil {
		d.OnReport(rep)
	}
	return rep, true
}

// runCycleDetector implements spec.md §4.F's UBX cycle-end algorithm:
// an iTOW change of more than 10ms, measured forward modulo the GPS
// week (so a rollover counts as a short forward step and a backward
// step as a long one), starts a new epoch (promoting the previous message as the learned ender if it
// wasn't already); reaching the learned ender with a known iTOW fires
// REPORT_IS. ownJump reports the degenerate case where a single
// recurring message type is both the jump's trigger and its own
// newly-promoted ender (e.g. a stream of nothing but NAV-PVT): m's
// fields, already dispatched by the caller, belong to the epoch the
// jump just started rather than the one reportNow is about to close.
func (d *Decoder) runCycleDetector(m uint16) (reportNow, ownJump bool) {
	if d.scr.iTOW < 0 {
		return false, false
	}

	jumped := false
	if d.scr.haveITOW {
		delta := d.scr.iTOW - d.scr.lastITOW
		if delta < 0 {
			delta += itowWeekMS
		}
		if delta > 10 {
			jumped = true
			if d.scr.haveLastMsgID && d.scr.lastMsgID != d.scr.endMsgID {
				d.scr.endMsgID = d.scr.lastMsgID
			}
		}
	}

	if m == d.scr.endMsgID {
		reportNow = true
		ownJump = jumped && d.scr.lastMsgID == m
	}

	d.scr.lastITOW = d.scr.iTOW
	d.scr.haveITOW = true
	d.scr.lastMsgID = m
	d.scr.haveLastMsgID = true

	return reportNow, ownJump
}

// itowWeekMS is the number of milliseconds in a GPS week, the modulus
// an iTOW rolls over at (spec.md §8's boundary case: 604,800,000 -> 0
// must be treated as a new epoch, not a 10ms step).
const itowWeekMS = 604800000

// RawMeas is one RXM-RAWX pseudorange/carrier-phase measurement.
type RawMeas struct {
	PrMes      float64
	CpMes      float64
	DoMes      float64
	GnssID     int
	SvID       int
	SigID      int
	FreqID     int
	Locktime   uint16
	CN0        int
	PrStdev    float64
	CpStdev    float64
	DoStdev    float64
	TrkStat    byte
	LLI        int // 2 when locktime==0 (possible cycle slip)
}
