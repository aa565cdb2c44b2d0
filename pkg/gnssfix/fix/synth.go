package fix

import "math"

// LogEntry is one structured log line a decoder produced while
// handling a message. Kind mirrors the taxonomy in spec.md §7; the
// core never logs freeform strings without one of these tags.
type LogEntry struct {
	Kind string // "NMEA0183:" or "UBX:" plus the specific taxonomy kind
	Text string
}

// Report is what the synthesizer hands to the external sink on a
// REPORT_IS transition: the settled fix, the sky view at that moment,
// and the mask of everything that contributed. Synthesizer.Report
// leaves Entries empty; decoders send their log lines to their own
// Logger instead.
type Report struct {
	Fix     GpsFix
	Sky     SkyView
	Mask    Mask
	Entries []LogEntry
}

// Synthesizer owns the three-deep fix history (new/last/old) and the
// current sky view that a Session accumulates between reports. It has
// no knowledge of NMEA or UBX; callers mutate NewData directly as they
// decode, then call Report at the epoch boundary.
type Synthesizer struct {
	NewData GpsFix
	LastFix GpsFix
	OldFix  GpsFix
	Sky     SkyView

	haveLastFix bool
}

// NewSynthesizer returns a Synthesizer with all three fix slots at
// their zero/NaN defaults.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{
		NewData: NewGpsFix(),
		LastFix: NewGpsFix(),
		OldFix:  NewGpsFix(),
	}
}

// Report implements spec.md §4.G's REPORT_IS step: copy NewData into
// LastFix (so next cycle's partial updates have a basis), shift the
// previous LastFix into OldFix, apply the mode non-downgrade rule, and
// return the consolidated snapshot. mask is whatever the caller
// accumulated across the epoch's messages.
func (s *Synthesizer) Report(mask Mask) Report {
	if s.haveLastFix {
		s.applyModeNonDowngrade()
	}
	ErrorModel(&s.NewData)

	s.OldFix = s.LastFix
	s.LastFix = s.NewData
	s.haveLastFix = true

	rep := Report{
		Fix:  s.LastFix,
		Sky:  s.Sky,
		Mask: mask,
	}
	rep.Sky.Satellites = append([]Satellite(nil), s.Sky.Satellites...)
	s.Sky.GGAUsedCount = 0

	// NewData for the next cycle starts from the settled fix's time and
	// position continuity fields cleared, enums reset, everything else
	// NaN: a brand-new accumulation, not a residue of the last one.
	s.NewData = NewGpsFix()

	return rep
}

// applyModeNonDowngrade implements the rule: do not downgrade mode
// when the current cycle only contained an RMC-class message (no
// explicit 2D/3D indicator) but the previous fix was 3D and altitude
// is still finite. We detect "no explicit indicator this cycle" as
// NewData.Mode == ModeNoFix while NewData.Status != StatusUnk (RMC
// sets status from the FAA mode without ever touching Mode).
func (s *Synthesizer) applyModeNonDowngrade() {
	if s.NewData.Mode != ModeNoFix {
		return
	}
	if s.NewData.Status == StatusUnk {
		return
	}
	if s.LastFix.Mode != Mode3D {
		return
	}
	if !math.IsNaN(s.NewData.AltHAE) || !math.IsNaN(s.NewData.AltMSL) {
		s.NewData.Mode = Mode3D
		return
	}
	if !math.IsNaN(s.LastFix.AltHAE) || !math.IsNaN(s.LastFix.AltMSL) {
		s.NewData.Mode = Mode3D
	}
}

// ErrorModel computes derived error estimates (eph, epv, sep) from
// whatever accuracy figures the current message set populated plus
// sky-view geometry (the DOP values already present on NewData). This
// is the pure function spec.md §4.G step 2 calls out as exposed, with
// the actual Kalman/geometry modeling out of scope; it only fills
// fields the decoders left at NaN from ones they did set.
func ErrorModel(f *GpsFix) {
	if math.IsNaN(f.Eph) && !math.IsNaN(f.DOP.H) {
		f.Eph = f.DOP.H * defaultUERE
	}
	if math.IsNaN(f.Epv) && !math.IsNaN(f.DOP.V) {
		f.Epv = f.DOP.V * defaultUERE
	}
	if math.IsNaN(f.Sep) && !math.IsNaN(f.Eph) && !math.IsNaN(f.Epv) {
		f.Sep = math.Hypot(f.Eph, f.Epv)
	}
}

// defaultUERE is a representative user-equivalent-range-error figure
// (meters) used only when a receiver reports DOP without an explicit
// accuracy figure of its own.
const defaultUERE = 5.0
