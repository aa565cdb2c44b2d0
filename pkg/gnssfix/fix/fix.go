// Package fix holds the consolidated GNSS fix and sky-view model that
// every protocol decoder (nmea, ubx) writes into, plus the pure
// report-synthesis step that turns accumulated "newdata" into a
// reportable snapshot at an epoch boundary. Nothing in this package
// touches a Transport or a wire format; it is the merge point, not a
// decoder, per spec.md §4.G.
package fix

import (
	"math"

	"github.com/bramburn/gnssfix/pkg/gnssfix/gtime"
)

// Timespec is the canonical UTC timestamp type fix fields carry. It is
// gtime.Gtime by another name: the fix model talks about "timespec",
// the time resolver owns the arithmetic.
type Timespec = gtime.Gtime

// Mode is the fix dimensionality, mirroring the traffic-light states a
// receiver reports: no fix, 2D (no reliable altitude), or 3D.
type Mode int

const (
	ModeNoFix Mode = iota
	Mode2D
	Mode3D
)

func (m Mode) String() string {
	switch m {
	case Mode2D:
		return "2D"
	case Mode3D:
		return "3D"
	default:
		return "NoFix"
	}
}

// Status refines Mode with the correction technique in use.
type Status int

const (
	StatusUnk Status = iota
	StatusGPS
	StatusDGPS
	StatusRTKFix
	StatusRTKFloat
	StatusDR
	StatusGNSSDR
	StatusTimeOnly
	StatusSimulated
	StatusPPS
)

// Mask is the event bitset a decoder returns from parsing one message,
// the Go rendering of spec.md §9's NavEvent sum type: rather than an
// enum-of-one, every bit a handler could set is OR'd into the mask the
// caller receives, so cycle-end detection can test "did anything other
// than ONLINE fire" without a type switch.
type Mask uint32

const (
	MaskOnline Mask = 1 << iota
	MaskFix
	MaskSky
	MaskRaw
	MaskLog
	MaskConfig
	MaskDOP
	MaskTime
	MaskAttitude
	MaskSet // generic "something in GpsFix changed" used by callers that don't care which field
)

// ErrEllipse is the horizontal error ellipse a receiver may report
// alongside its headline accuracy figures.
type ErrEllipse struct {
	Orient float64 // degrees, major-axis orientation
	Major  float64 // meters
	Minor  float64 // meters
}

// Baseline describes an RTK baseline vector relative to a reference
// station.
type Baseline struct {
	East, North, Up float64 // meters
	Length          float64 // meters
	Course          float64 // degrees
	Status          Status
	Ratio           float64 // ambiguity-resolution ratio
}

// GpsFix is the evolving consolidated position/velocity/time fix. All
// numeric optionals default to NaN so "never set this cycle" and "set
// to zero" are distinguishable (math.IsNaN tells the former apart).
type GpsFix struct {
	Time Timespec

	Mode   Mode
	Status Status

	Lat, Lon float64 // degrees
	AltHAE   float64 // meters, height above ellipsoid
	AltMSL   float64 // meters, mean sea level
	GeoidSep float64 // meters

	Speed       float64 // m/s
	Track       float64 // degrees true
	MagTrack    float64 // degrees magnetic
	MagVar      float64 // degrees, +E/-W
	Climb       float64 // m/s

	ECEF struct {
		X, Y, Z    float64
		VX, VY, VZ float64
		PAcc, VAcc float64
	}

	NED struct {
		RelN, RelE, RelD float64
		RelL, RelH       float64
		AccN, AccE, AccD float64
	}

	DOP struct {
		G, P, H, V, T, X, Y float64
	}

	Eph, Epv, Eps, Epd, Ept, Sep float64
	ErrEllipse                   ErrEllipse

	DGPSAge     float64
	DGPSStation int

	ClockBias  float64
	ClockDrift float64

	Baseline Baseline

	Attitude struct {
		Heading, Roll, Pitch             float64
		HeadingAcc, RollAcc, PitchAcc    float64
	}
}

// NewGpsFix returns a GpsFix with every numeric field at NaN and
// enums at their "unset" values, matching spec.md §3's stated default.
func NewGpsFix() GpsFix {
	var f GpsFix
	nan := math.NaN()
	f.Lat, f.Lon, f.AltHAE, f.AltMSL, f.GeoidSep = nan, nan, nan, nan, nan
	f.Speed, f.Track, f.MagTrack, f.MagVar, f.Climb = nan, nan, nan, nan, nan
	f.ECEF.X, f.ECEF.Y, f.ECEF.Z = nan, nan, nan
	f.ECEF.VX, f.ECEF.VY, f.ECEF.VZ = nan, nan, nan
	f.ECEF.PAcc, f.ECEF.VAcc = nan, nan
	f.NED.RelN, f.NED.RelE, f.NED.RelD, f.NED.RelL, f.NED.RelH = nan, nan, nan, nan, nan
	f.NED.AccN, f.NED.AccE, f.NED.AccD = nan, nan, nan
	f.DOP.G, f.DOP.P, f.DOP.H, f.DOP.V, f.DOP.T, f.DOP.X, f.DOP.Y = nan, nan, nan, nan, nan, nan, nan
	f.Eph, f.Epv, f.Eps, f.Epd, f.Ept, f.Sep = nan, nan, nan, nan, nan, nan
	f.ErrEllipse = ErrEllipse{nan, nan, nan}
	f.DGPSAge = nan
	f.ClockBias, f.ClockDrift = nan, nan
	f.Baseline.East, f.Baseline.North, f.Baseline.Up = nan, nan, nan
	f.Baseline.Length, f.Baseline.Course, f.Baseline.Ratio = nan, nan, nan
	f.Attitude.Heading, f.Attitude.Roll, f.Attitude.Pitch = nan, nan, nan
	f.Attitude.HeadingAcc, f.Attitude.RollAcc, f.Attitude.PitchAcc = nan, nan, nan
	f.Mode = ModeNoFix
	f.Status = StatusUnk
	return f
}

// Satellite is one entry in a SkyView.
type Satellite struct {
	GnssID int
	SvID   int
	SigID  int
	FreqID int
	PRN    int // NMEA 4.0 extended PRN

	Elevation float64 // degrees
	Azimuth   float64 // degrees
	SS        float64 // dB-Hz

	Used       bool
	Health     int
	QualityInd int
	PRRes      float64 // meters
}

// SkyView is the accumulated satellite table for one epoch. It is
// zeroed at the first sentence/message of a new accumulation cycle and
// built up across multiple GSV/GSA or NAV-SAT/NAV-SIG messages.
type SkyView struct {
	Satellites []Satellite
	Time       Timespec

	// GGAUsedCount is the satellite count GGA's own field reports,
	// the only source of "satellites used" available in an epoch that
	// never saw a GSA/NAV-SAT to populate per-satellite Used flags.
	GGAUsedCount int
}

// SatellitesUsed reports how many entries have Used set, falling back
// to GGAUsedCount when no per-satellite Used flag was ever populated
// (e.g. an epoch containing only RMC/GGA).
func (s *SkyView) SatellitesUsed() int {
	n := 0
	for _, sv := range s.Satellites {
		if sv.Used {
			n++
		}
	}
	if n == 0 {
		return s.GGAUsedCount
	}
	return n
}

// SatellitesVisible reports the total entry count, i.e. every satellite
// the receiver described regardless of use in the solution.
func (s *SkyView) SatellitesVisible() int {
	return len(s.Satellites)
}

// Reset clears the sky view for a new accumulation cycle.
func (s *SkyView) Reset() {
	s.Satellites = s.Satellites[:0]
}

// Upsert adds or updates the satellite identified by (gnssID, svID). A
// zero or negative PRN is never stored, per spec.md §8 invariant 4.
func (s *SkyView) Upsert(sat Satellite) {
	if sat.PRN <= 0 {
		return
	}
	for i := range s.Satellites {
		if s.Satellites[i].GnssID == sat.GnssID && s.Satellites[i].SvID == sat.SvID {
			s.Satellites[i] = sat
			return
		}
	}
	s.Satellites = append(s.Satellites, sat)
}
