// Package nmea implements the NMEA 0183 (and vendor-proprietary $P...)
// sentence decoder: field splitting, a table-driven dispatch keyed on
// sentence tag, per-handler contracts, and the cycle-end detector that
// decides when one epoch's worth of sentences is complete. It writes
// its output directly into a fix.Synthesizer's NewData/SkyView rather
// than returning its own fix type, matching spec.md §4.E/§9 ("Session
// exclusively owns scratch/fix/skyview").
package nmea

import (
	"math"

	"github.com/bramburn/gnssfix/pkg/gnssfix/fix"
	"github.com/bramburn/gnssfix/pkg/gnssfix/gtime"
)

// Logger receives structured log lines the decoder raises while
// handling a message (spec.md §7: "all anomalies go to the log sink
// with a structured tag").
type Logger interface {
	Log(kind, text string)
}

// NopLogger discards every entry; useful in tests.
type NopLogger struct{}

func (NopLogger) Log(string, string) {}

const nmeaNumChans = 96 // MAXCHAN-ish channel count; satsUsed is a map and is not capped by it

// scratch is the NmeaScratch of spec.md §3: partial date, fractional
// time bookkeeping for cycle-end detection, the cycle-ender bitset,
// and the cross-talker GSA/GSV accumulation state.
type scratch struct {
	date gtime.BrokenDownDate

	thisFracTime  float64
	lastFracTime  float64
	latchFracTime bool

	lasttag          int // index into the dispatch table, -1 if none yet
	cycleEnders      map[int]bool
	cycleContinue    bool
	cycleEndReliable bool
	gsxMore          bool
	forceReport      bool

	satsUsed map[int]bool // extended PRN -> used, accumulated across GSA talkers this epoch

	lastGSVTalker string
	lastGSATalker string
	endGSVTalker  string
	seenGSVTalker map[string]bool

	ggaSatsUsed      int
	lastGGATimestamp string
	lastGGATalker    string

	latchMode bool

	subtype  string
	subtype1 string

	pendingMask fix.Mask

	timeScratch gtime.Scratch
}

func newScratch() scratch {
	return scratch{
		lasttag:       -1,
		cycleEnders:   make(map[int]bool),
		satsUsed:      make(map[int]bool),
		seenGSVTalker: make(map[string]bool),
	}
}

// Decoder is the per-session NMEA decoder instance: the scratch state
// above, plus the shared fix synthesizer, time context, and log sink it
// writes into. One Decoder per Session, constructed once at open.
type Decoder struct {
	Synth    *fix.Synthesizer
	Ctx      *gtime.Context
	Log      Logger
	OnReport func(fix.Report)

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

// registerFractionalTime implements spec.md §4.C's register_fractional_time:
// compute seconds-of-day for the given time, shift the previous reading
// into lastFracTime, latch thisFracTime, and mark latchFracTime. The same
// reading is registered on timeScratch so Resolve sees the time of day.
func (d *Decoder) registerFractionalTime(t gtime.DecodedTime) {
	frac := float64(t.Hour)*3600 + float64(t.Min)*60 + float64(t.Sec) + float64(t.Nsec)/1e9
	d.scr.lastFracTime = d.scr.thisFracTime
	d.scr.thisFracTime = frac
	d.scr.latchFracTime = true
	d.scr.timeScratch.RegisterFractionalTime(t)
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
