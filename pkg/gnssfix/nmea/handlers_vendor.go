package nmea

import (
	"github.com/bramburn/gnssfix/pkg/gnssfix/fix"
	"github.com/bramburn/gnssfix/pkg/gnssfix/gtime"
)

// cep50Sigma converts a Garmin 50%-CEP figure to an approximate 1-sigma
// (68%) radius; gpsdConfidence then rescales to whatever confidence
// interval the caller reports accuracies at.
const (
	cep50Sigma     = 1.1774
	gpsdConfidence = 1.0
)

func hPGRMF(d *Decoder, talker string, fields []string) fix.Mask {
	mask := fix.MaskOnline
	week, okW := parseInt(field(fields, 1))
	tow, okT := parseFloat(field(fields, 2))
	if leap, ok := parseInt(field(fields, 5)); ok {
		d.Ctx.SetLeapSeconds(leap)
	}
	if okW && okT {
		d.Synth.NewData.Time = d.Ctx.GPSTimeResolve(week, tow)
		mask |= fix.MaskTime
	}
	return mask
}

func hPGRME(d *Decoder, talker string, fields []string) fix.Mask {
	mask := fix.MaskOnline
	if epe, ok := parseFloat(field(fields, 1)); ok {
		d.Synth.NewData.Eph = epe / cep50Sigma * gpsdConfidence
		mask |= fix.MaskFix
	}
	if vpe, ok := parseFloat(field(fields, 3)); ok {
		d.Synth.NewData.Epv = vpe / cep50Sigma * gpsdConfidence
	}
	if spe, ok := parseFloat(field(fields, 5)); ok {
		d.Synth.NewData.Sep = spe / cep50Sigma * gpsdConfidence
	}
	return mask
}

const feetToMeters = 0.3048

func hPGRMZ(d *Decoder, talker string, fields []string) fix.Mask {
	mask := fix.MaskOnline
	if feet, ok := parseFloat(field(fields, 1)); ok {
		d.Synth.NewData.AltMSL = feet * feetToMeters
		mask |= fix.MaskFix
	}
	return mask
}

func hPASHR(d *Decoder, talker string, fields []string) fix.Mask {
	mask := fix.MaskOnline
	sub := field(fields, 1)
	switch sub {
	case "POS":
		if lat, ok := decodeLatLon(field(fields, 3), field(fields, 4)); ok {
			d.Synth.NewData.Lat = lat
			mask |= fix.MaskFix
		}
		if lon, ok := decodeLatLon(field(fields, 5), field(fields, 6)); ok {
			d.Synth.NewData.Lon = lon
		}
		if alt, ok := parseFloat(field(fields, 7)); ok {
			d.Synth.NewData.AltMSL = alt
			d.Synth.NewData.Mode = fix.Mode3D
		}
		if pdop, ok := filterDOP(field(fields, 9)); ok {
			d.Synth.NewData.DOP.P = pdop
		}
		if hdop, ok := filterDOP(field(fields, 10)); ok {
			d.Synth.NewData.DOP.H = hdop
		}
		if vdop, ok := filterDOP(field(fields, 11)); ok {
			d.Synth.NewData.DOP.V = vdop
		}
	case "SAT", "RID", "ACK", "NAK", "MCA", "PBN":
		mask |= fix.MaskLog
	default:
		// OxTS variant: $PASHR,hhmmss.sss,hdg,T,roll,pitch,heave,...
		if _, err := gtime.DecodeHhmmss(sub[:min(len(sub), 6)]); err == nil || sub == "" {
			if hdg, ok := parseFloat(field(fields, 2)); ok {
				d.Synth.NewData.Attitude.Heading = hdg
				mask |= fix.MaskAttitude
			}
			if roll, ok := parseFloat(field(fields, 4)); ok {
				d.Synth.NewData.Attitude.Roll = roll
			}
			if pitch, ok := parseFloat(field(fields, 5)); ok {
				d.Synth.NewData.Attitude.Pitch = pitch
			}
		}
	}
	return mask
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// hPSTI dispatches Skytraq's $PSTI,NNN,... sub-tagged family on field[1].
func hPSTI(d *Decoder, talker string, fields []string) fix.Mask {
	mask := fix.MaskOnline
	sub := field(fields, 1)
	switch sub {
	case "030":
		if dt, err := gtime.DecodeHhmmss(field(fields, 2)); err == nil {
			d.registerFractionalTime(dt)
			d.scr.timeScratch.MergeHhmmss(dt)
			d.resolveTimeIfReady()
		}
		if lat, ok := decodeLatLon(field(fields, 4), field(fields, 5)); ok {
			d.Synth.NewData.Lat = lat
			mask |= fix.MaskFix
		}
		if lon, ok := decodeLatLon(field(fields, 6), field(fields, 7)); ok {
			d.Synth.NewData.Lon = lon
		}
		if alt, ok := parseFloat(field(fields, 8)); ok {
			d.Synth.NewData.AltMSL = alt
			d.Synth.NewData.Mode = fix.Mode3D
		}
	case "032", "033":
		if e, ok := parseFloat(field(fields, 4)); ok {
			d.Synth.NewData.Baseline.East = e
		}
		if n, ok := parseFloat(field(fields, 5)); ok {
			d.Synth.NewData.Baseline.North = n
		}
		if u, ok := parseFloat(field(fields, 6)); ok {
			d.Synth.NewData.Baseline.Up = u
		}
		d.Synth.NewData.Baseline.Status = fix.StatusRTKFix
		mask |= fix.MaskFix
	case "035":
		mask |= fix.MaskLog
	case "036":
		if hdg, ok := parseFloat(field(fields, 3)); ok {
			d.Synth.NewData.Attitude.Heading = hdg
		}
		if pitch, ok := parseFloat(field(fields, 4)); ok {
			d.Synth.NewData.Attitude.Pitch = pitch
		}
		if roll, ok := parseFloat(field(fields, 5)); ok {
			d.Synth.NewData.Attitude.Roll = roll
		}
		mask |= fix.MaskAttitude
	default:
		mask |= fix.MaskLog
	}
	d.scr.subtype1 = sub
	return mask
}

// hVendorSubtype handles the vendor sentences whose content mainly
// drives Session's subtype/subtype1 strings or is otherwise informational
// rather than fix-bearing (MTK/AIR/Quectel/Trimble/u-blox-in-NMEA-mode
// acks, firmware strings, antenna status, DR sensor readings).
func hVendorSubtype(d *Decoder, talker string, fields []string) fix.Mask {
	d.scr.subtype = field(fields, 0)
	if len(fields) > 1 {
		d.scr.subtype1 = fields[1]
	}
	d.logf("NMEA0183:", field(fields, 0))
	return fix.MaskLog
}

func init() {
	register("PGRMF", 6, false, hPGRMF)
	register("PGRME", 6, false, hPGRME)
	register("PGRMZ", 3, false, hPGRMZ)
	register("PGRMM", 1, false, hLogOnly)
	register("PGRMT", 1, false, hLogOnly)
	register("PGRMV", 1, false, hLogOnly)
	register("PASHR", 2, false, hPASHR)
	register("PSTI", 2, false, hPSTI)

	for _, tag := range []string{
		"PMTK001", "PMTK424", "PMTK705",
		"PAIR001", "PAIR010",
		"PQVERNO", "PQTMVER", "PQTMCFGSVIN",
		"PDTINFO", "PGPSP",
		"PTNTA", "PTNTHTM",
		"PSRFEPE", "PMGNST",
		"PSTMVER", "PSTMANTENNASTATUS",
		"INFO", "GYOACC", "SNRSTAT", "XDR",
	} {
		register(tag, 1, false, hVendorSubtype)
	}
}
