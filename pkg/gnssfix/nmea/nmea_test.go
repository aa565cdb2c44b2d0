package nmea

import (
	"math"
	"testing"

	"github.com/bramburn/gnssfix/pkg/gnssfix/fix"
	"github.com/bramburn/gnssfix/pkg/gnssfix/gtime"
)

func newTestDecoder() (*Decoder, *fix.Synthesizer) {
	synth := fix.NewSynthesizer()
	ctx := gtime.NewContext(1998)
	d := NewDecoder(synth, ctx, NopLogger{})
	return d, synth
}

// S1. Minimal NMEA fix.
func TestMinimalNMEAFix(t *testing.T) {
	d, _ := newTestDecoder()

	var reports []fix.Report
	d.OnReport = func(r fix.Report) { reports = append(reports, r) }

	d.ParseSentence([]byte("$GPRMC,081836,A,3751.65,S,14507.36,E,000.0,360.0,130998,011.3,E*62\r\n"))
	d.ParseSentence([]byte("$GPGGA,081836,3751.65,S,14507.36,E,1,04,9.0,15.4,M,0.0,M,,*41\r\n"))
	d.Flush()

	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reports))
	}
	r := reports[0]
	if math.Abs(r.Fix.Lat-(-37.860833)) > 1e-5 {
		t.Errorf("Lat = %v, want -37.860833", r.Fix.Lat)
	}
	if math.Abs(r.Fix.Lon-145.122667) > 1e-5 {
		t.Errorf("Lon = %v, want 145.122667", r.Fix.Lon)
	}
	if r.Fix.AltMSL != 15.4 {
		t.Errorf("AltMSL = %v, want 15.4", r.Fix.AltMSL)
	}
	if r.Fix.Speed != 0 {
		t.Errorf("Speed = %v, want 0", r.Fix.Speed)
	}
	if r.Fix.Track != 360 {
		t.Errorf("Track = %v, want 360", r.Fix.Track)
	}
	if r.Fix.MagVar != 11.3 {
		t.Errorf("MagVar = %v, want 11.3", r.Fix.MagVar)
	}
	if r.Fix.Status != fix.StatusGPS {
		t.Errorf("Status = %v, want GPS", r.Fix.Status)
	}
	if r.Fix.Mode != fix.Mode2D {
		t.Errorf("Mode = %v, want 2D", r.Fix.Mode)
	}
	if r.Sky.SatellitesUsed() != 4 {
		t.Errorf("SatellitesUsed = %v, want 4", r.Sky.SatellitesUsed())
	}
}

// S2. NMEA cycle-ender learning: feeding RMC,GGA epochs with advancing
// timestamps teaches the detector that GGA closes the cycle, since the
// fractional-time jump on the following epoch's RMC is only observed
// once that next RMC arrives, retroactively marking the prior epoch's
// last tag (GGA) as the ender; from then on GGA reports on its own.
func TestCycleEnderLearning(t *testing.T) {
	d, _ := newTestDecoder()
	var reports []fix.Report
	d.OnReport = func(r fix.Report) { reports = append(reports, r) }

	epoch := func(sec string) {
		recomputeAndFeed(t, d, "GPRMC,08183"+sec+",A,3751.65,S,14507.36,E,000.0,360.0,130998,011.3,E")
		recomputeAndFeed(t, d, "GPGGA,08183"+sec+",3751.65,S,14507.36,E,1,04,9.0,15.4,M,0.0,M,,")
	}
	epoch("6")
	epoch("7")

	ggaIdx := tagIndex["GGA"]
	if !d.scr.cycleEnders[ggaIdx] {
		t.Error("GGA should be the learned cycle ender after two epochs")
	}
	if !d.scr.cycleEndReliable {
		t.Error("cycle_end_reliable should be true")
	}
	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1 (fired by the second epoch's GGA)", len(reports))
	}
}

func recomputeAndFeed(t *testing.T, d *Decoder, body string) {
	t.Helper()
	sum := byte(0)
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	const hexDigits = "0123456789ABCDEF"
	sentence := "$" + body + "*" + string([]byte{hexDigits[sum>>4], hexDigits[sum&0xF]}) + "\r\n"
	d.ParseSentence([]byte(sentence))
}

func TestModeNonDowngradeAcrossRMCOnlyEpoch(t *testing.T) {
	d, _ := newTestDecoder()
	var reports []fix.Report
	d.OnReport = func(r fix.Report) { reports = append(reports, r) }

	d.ParseSentence([]byte("$GPRMC,081836,A,3751.65,S,14507.36,E,000.0,360.0,130998,011.3,E*62\r\n"))
	recomputeAndFeed(t, d, "GPGGA,081836,3751.65,S,14507.36,E,4,08,0.9,100.0,M,0.0,M,,")
	recomputeAndFeed(t, d, "GPGSA,A,3,01,02,03,04,05,06,07,08,,,,,0.9,0.8,0.5")
	d.Flush()
	if len(reports) != 1 || reports[0].Fix.Mode != fix.Mode3D {
		t.Fatalf("expected first epoch to settle at 3D, got %+v", reports)
	}

	// Second epoch: RMC only.
	d.ParseSentence([]byte("$GPRMC,081837,A,3751.66,S,14507.37,E,000.0,360.0,130998,011.3,E*00\r\n"))
	d.Flush()
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	if reports[1].Fix.Mode != fix.Mode3D {
		t.Errorf("Mode = %v, want 3D preserved", reports[1].Fix.Mode)
	}
}

func TestGSVSuppressesZeroPRN(t *testing.T) {
	d, synth := newTestDecoder()
	recomputeAndFeed(t, d, "GPGSV,1,1,01,00,40,080,30")
	if len(synth.Sky.Satellites) != 0 {
		t.Errorf("PRN=0 entry should be suppressed, got %d", len(synth.Sky.Satellites))
	}
}

func TestGSVTrailingZeroFieldsAccepted(t *testing.T) {
	d, synth := newTestDecoder()
	// Last GSV of a set with only 2 SV groups instead of 4 (trailing
	// zero fields boundary case from spec.md §8).
	recomputeAndFeed(t, d, "GPGSV,2,2,06,05,10,100,20,06,20,150,25")
	if len(synth.Sky.Satellites) != 2 {
		t.Errorf("got %d satellites, want 2", len(synth.Sky.Satellites))
	}
}

func TestUnknownTagReturnsOnlineMask(t *testing.T) {
	d, _ := newTestDecoder()
	mask := d.ParseSentence([]byte("$GPXYZ,1,2,3*00\r\n"))
	if mask != fix.MaskOnline {
		t.Errorf("mask = %v, want ONLINE only", mask)
	}
}
