package fix

import (
	"math"
	"testing"
)

func TestNewGpsFixDefaults(t *testing.T) {
	f := NewGpsFix()
	if f.Mode != ModeNoFix {
		t.Errorf("Mode = %v, want NoFix", f.Mode)
	}
	if f.Status != StatusUnk {
		t.Errorf("Status = %v, want Unk", f.Status)
	}
	if !math.IsNaN(f.Lat) || !math.IsNaN(f.Lon) {
		t.Error("Lat/Lon should default to NaN")
	}
}

func TestSkyViewSuppressesNonPositivePRN(t *testing.T) {
	var sky SkyView
	sky.Upsert(Satellite{GnssID: 0, SvID: 1, PRN: 0, SS: 40})
	if len(sky.Satellites) != 0 {
		t.Errorf("PRN=0 satellite should be suppressed, got %d entries", len(sky.Satellites))
	}
	sky.Upsert(Satellite{GnssID: 0, SvID: 1, PRN: 1, SS: 40})
	if len(sky.Satellites) != 1 {
		t.Fatalf("got %d entries, want 1", len(sky.Satellites))
	}
}

func TestSkyViewUsedNeverExceedsVisible(t *testing.T) {
	var sky SkyView
	sky.Upsert(Satellite{GnssID: 0, SvID: 1, PRN: 1, Used: true})
	sky.Upsert(Satellite{GnssID: 0, SvID: 2, PRN: 2, Used: false})
	if sky.SatellitesUsed() > sky.SatellitesVisible() {
		t.Errorf("used %d > visible %d", sky.SatellitesUsed(), sky.SatellitesVisible())
	}
}

func TestReportCopiesNewDataIntoLastAndOld(t *testing.T) {
	s := NewSynthesizer()
	s.NewData.Mode = Mode3D
	s.NewData.Status = StatusGPS
	s.NewData.Lat = 48.3

	r1 := s.Report(MaskFix)
	if r1.Fix.Lat != 48.3 {
		t.Errorf("first report Lat = %v, want 48.3", r1.Fix.Lat)
	}

	s.NewData.Lat = 48.31
	r2 := s.Report(MaskFix)
	if r2.Fix.Lat != 48.31 {
		t.Errorf("second report Lat = %v, want 48.31", r2.Fix.Lat)
	}
	if s.OldFix.Lat != 48.3 {
		t.Errorf("OldFix.Lat = %v, want 48.3 (the previous LastFix)", s.OldFix.Lat)
	}
}

// An RMC-only cycle after a 3D GGA fix must not be reported as downgraded
// to NoFix merely because RMC never sets Mode directly (spec.md §4.G.4).
func TestModeNonDowngradeAfterRMCOnlyCycle(t *testing.T) {
	s := NewSynthesizer()
	s.NewData.Mode = Mode3D
	s.NewData.Status = StatusGPS
	s.NewData.AltMSL = 15.4
	s.Report(MaskFix)

	// Next cycle: only an RMC-shaped update (status set, mode left at
	// NoFix as RMC never touches it), altitude carried forward as NaN
	// because this message does not report one.
	s.NewData.Status = StatusGPS
	s.NewData.AltMSL = math.NaN()
	s.NewData.AltHAE = math.NaN()
	rep := s.Report(MaskFix)

	if rep.Fix.Mode != Mode3D {
		t.Errorf("Mode = %v, want 3D preserved from lastfix", rep.Fix.Mode)
	}
}

func TestModeDowngradesWhenNoAltitudeEverReported(t *testing.T) {
	s := NewSynthesizer()
	// First cycle never reaches 3D at all.
	s.NewData.Status = StatusGPS
	rep := s.Report(MaskFix)
	if rep.Fix.Mode != ModeNoFix {
		t.Errorf("Mode = %v, want NoFix when nothing ever set 3D", rep.Fix.Mode)
	}
}

func TestErrorModelDerivesEphFromHDOP(t *testing.T) {
	f := NewGpsFix()
	f.DOP.H = 1.5
	ErrorModel(&f)
	if math.IsNaN(f.Eph) {
		t.Fatal("Eph should be derived from HDOP")
	}
	if f.Eph != 1.5*defaultUERE {
		t.Errorf("Eph = %v, want %v", f.Eph, 1.5*defaultUERE)
	}
}
