package nmea

import (
	"math"

	"github.com/bramburn/gnssfix/pkg/gnssfix/fix"
	"github.com/bramburn/gnssfix/pkg/gnssfix/gtime"
)

func hGST(d *Decoder, talker string, fields []string) fix.Mask {
	mask := fix.MaskOnline
	timeField := field(fields, 1)
	if dt, err := gtime.DecodeHhmmss(timeField); err == nil {
		d.scr.timeScratch.MergeHhmmss(dt)
		d.resolveTimeIfReady()
	}
	if major, ok := parseFloat(field(fields, 3)); ok {
		d.Synth.NewData.ErrEllipse.Major = major
		mask |= fix.MaskFix
	}
	if minor, ok := parseFloat(field(fields, 4)); ok {
		d.Synth.NewData.ErrEllipse.Minor = minor
	}
	if orient, ok := parseFloat(field(fields, 5)); ok {
		d.Synth.NewData.ErrEllipse.Orient = orient
	}
	if altErr, ok := parseFloat(field(fields, 8)); ok {
		d.Synth.NewData.Epv = altErr
	}
	return mask
}

// hGBS implements the InconsistentEpoch contract: a GBS whose HMS does
// not match the currently accumulated date/time forces an early,
// unreliable report rather than quietly attaching mismatched errors.
func hGBS(d *Decoder, talker string, fields []string) fix.Mask {
	mask := fix.MaskOnline
	timeField := field(fields, 1)
	dt, err := gtime.DecodeHhmmss(timeField)
	if err != nil {
		return mask
	}
	frac := float64(dt.Hour)*3600 + float64(dt.Min)*60 + float64(dt.Sec) + float64(dt.Nsec)/1e9
	if d.scr.latchFracTime || d.scr.thisFracTime != 0 {
		if math.Abs(frac-d.scr.thisFracTime) > 0.5 {
			d.Synth.NewData.Mode = fix.ModeNoFix
			d.forceEarlyReport()
			return mask
		}
	}
	errLat, _ := parseFloat(field(fields, 2))
	errLon, _ := parseFloat(field(fields, 3))
	errAlt, _ := parseFloat(field(fields, 4))
	d.Synth.NewData.Eph = math.Hypot(errLat, errLon)
	d.Synth.NewData.Epv = errAlt
	mask |= fix.MaskFix
	return mask
}

func hZDA(d *Decoder, talker string, fields []string) fix.Mask {
	mask := fix.MaskOnline
	timeField := field(fields, 1)
	day, okD := parseInt(field(fields, 2))
	month, okM := parseInt(field(fields, 3))
	year, okY := parseInt(field(fields, 4))

	if dt, err := gtime.DecodeHhmmss(timeField); err == nil {
		d.registerFractionalTime(dt)
		d.scr.timeScratch.MergeHhmmss(dt)
	}
	if okD && okM && okY {
		d.Ctx.UpdateCenturyFromYear(year)
		bd := gtime.BrokenDownDate{Day: day, Month: month, Year: year}
		d.scr.date = bd
		d.scr.timeScratch.MergeDdmmyy(bd)
		mask |= fix.MaskTime
	}
	d.resolveTimeIfReady()
	return mask
}

// hHeading handles HDT, HDG, HDM, ROT, and THS: attitude/heading
// outputs sharing the same field-1 numeric contract, validated to
// 0..360 degrees (HDT/HDG/HDM) or an A/V status character (ROT, THS).
func hHeading(d *Decoder, talker string, fields []string) fix.Mask {
	mask := fix.MaskOnline
	tag := field(fields, 0)
	switch {
	case len(tag) >= 3 && tag[len(tag)-3:] == "ROT":
		status := field(fields, 2)
		if status != "A" {
			return mask
		}
		if _, ok := parseFloat(field(fields, 1)); ok {
			mask |= fix.MaskAttitude
		}
	case len(tag) >= 3 && tag[len(tag)-3:] == "THS":
		if field(fields, 2) == "V" {
			return mask
		}
		if hdg, ok := parseFloat(field(fields, 1)); ok && hdg >= 0 && hdg <= 360 {
			d.Synth.NewData.Attitude.Heading = hdg
			mask |= fix.MaskAttitude
		}
	default:
		if hdg, ok := parseFloat(field(fields, 1)); ok && hdg >= 0 && hdg <= 360 {
			d.Synth.NewData.Attitude.Heading = hdg
			mask |= fix.MaskAttitude
		}
	}
	return mask
}

func hLogOnly(d *Decoder, talker string, fields []string) fix.Mask {
	d.logf("NMEA0183:", field(fields, 0))
	return fix.MaskLog
}

func init() {
	register("GST", 9, false, hGST)
	register("GBS", 7, false, hGBS)
	register("ZDA", 5, false, hZDA)
	register("HDT", 2, false, hHeading)
	register("HDG", 2, false, hHeading)
	register("HDM", 2, false, hHeading)
	register("ROT", 3, false, hHeading)
	register("THS", 2, false, hHeading)
	register("DBT", 1, true, hLogOnly)
	register("DPT", 1, true, hLogOnly)
	register("MWV", 1, true, hLogOnly)
	register("MWD", 1, true, hLogOnly)
	register("MTW", 1, true, hLogOnly)
	register("DTM", 1, false, hLogOnly)
	register("TXT", 1, false, hLogOnly)
}
