package nmea

import (
	"github.com/bramburn/gnssfix/pkg/gnssfix/fix"
	"github.com/bramburn/gnssfix/pkg/gnssfix/gtime"
)

const knotsToMPS = 0.514444

// faaModeToStatus maps the one-character FAA mode indicator (glossary:
// A autonomous, D differential, E estimated, F float RTK, M manual, N
// not valid, P precise, R integer RTK, S simulated) to a fix.Status.
func faaModeToStatus(c byte) fix.Status {
	switch c {
	case 'A':
		return fix.StatusGPS
	case 'D':
		return fix.StatusDGPS
	case 'F':
		return fix.StatusRTKFloat
	case 'R':
		return fix.StatusRTKFix
	case 'S':
		return fix.StatusSimulated
	case 'E':
		return fix.StatusDR
	case 'P':
		return fix.StatusGPS
	case 'N':
		return fix.StatusUnk
	default:
		return fix.StatusUnk
	}
}

func (d *Decoder) resolveTimeIfReady() {
	g, err := d.scr.timeScratch.Resolve()
	if err == nil {
		d.Synth.NewData.Time = g
	}
}

func hRMC(d *Decoder, talker string, fields []string) fix.Mask {
	mask := fix.MaskOnline
	timeField := field(fields, 1)
	status := field(fields, 2)
	dateField := field(fields, 9)

	if dt, err := gtime.DecodeHhmmss(timeField); err == nil {
		d.registerFractionalTime(dt)
		d.scr.timeScratch.MergeHhmmss(dt)
	}

	if status == "V" {
		d.Synth.NewData.Mode = fix.ModeNoFix
		mask |= fix.MaskFix
		if timeField == "" {
			d.scr.date = gtime.BrokenDownDate{}
			d.forceEarlyReport()
		}
		return mask
	}

	if dd, err := gtime.DecodeDdmmyy(dateField); err == nil {
		recordedYY := dd.Year % 100
		if recordedYY == 0 && d.scr.date.Year%100 == 99 {
			d.Ctx.AdvanceCentury()
		}
		bd := gtime.BrokenDownDate{Day: dd.Day, Month: dd.Month, Year: d.Ctx.Century + recordedYY}
		d.scr.date = bd
		d.scr.timeScratch.MergeDdmmyy(bd)
	}
	d.resolveTimeIfReady()

	if lat, ok := decodeLatLon(field(fields, 3), field(fields, 4)); ok {
		d.Synth.NewData.Lat = lat
		mask |= fix.MaskFix
	}
	if lon, ok := decodeLatLon(field(fields, 5), field(fields, 6)); ok {
		d.Synth.NewData.Lon = lon
	}
	if kn, ok := parseFloat(field(fields, 7)); ok {
		d.Synth.NewData.Speed = kn * knotsToMPS
	}
	if trk, ok := parseFloat(field(fields, 8)); ok {
		d.Synth.NewData.Track = trk
	}
	if mv, ok := parseFloat(field(fields, 10)); ok {
		if field(fields, 11) == "W" {
			mv = -mv
		}
		d.Synth.NewData.MagVar = mv
	}

	st := fix.StatusUnk
	if status == "A" {
		st = fix.StatusGPS
	}
	if faa := field(fields, 12); faa != "" {
		st = faaModeToStatus(faa[0])
	}
	d.Synth.NewData.Status = st

	return mask
}

func hGGA(d *Decoder, talker string, fields []string) fix.Mask {
	mask := fix.MaskOnline
	timeField := field(fields, 1)

	if timeField != "" && timeField == d.scr.lastGGATimestamp && talker == d.scr.lastGGATalker {
		d.Synth.NewData.Mode = fix.ModeNoFix
		d.forceEarlyReport()
	}
	d.scr.lastGGATimestamp = timeField
	d.scr.lastGGATalker = talker

	if dt, err := gtime.DecodeHhmmss(timeField); err == nil {
		d.registerFractionalTime(dt)
		d.scr.timeScratch.MergeHhmmss(dt)
		d.resolveTimeIfReady()
	}

	quality, _ := parseInt(field(fields, 6))
	switch quality {
	case 0:
		d.Synth.NewData.Status = fix.StatusUnk
		d.Synth.NewData.Mode = fix.ModeNoFix
	case 1:
		d.Synth.NewData.Status = fix.StatusGPS
	case 2:
		d.Synth.NewData.Status = fix.StatusDGPS
	case 3:
		d.Synth.NewData.Status = fix.StatusPPS
	case 4:
		d.Synth.NewData.Status = fix.StatusRTKFix
	case 5:
		d.Synth.NewData.Status = fix.StatusRTKFloat
	case 6:
		d.Synth.NewData.Status = fix.StatusDR
	case 8:
		d.Synth.NewData.Status = fix.StatusSimulated
	default:
		d.Synth.NewData.Status = fix.StatusUnk
	}

	if lat, ok := decodeLatLon(field(fields, 2), field(fields, 3)); ok {
		d.Synth.NewData.Lat = lat
		mask |= fix.MaskFix
	}
	if lon, ok := decodeLatLon(field(fields, 4), field(fields, 5)); ok {
		d.Synth.NewData.Lon = lon
	}

	if n, ok := parseInt(field(fields, 7)); ok {
		d.scr.ggaSatsUsed = n
		d.Synth.Sky.GGAUsedCount = n
	}
	if hdop, ok := filterDOP(field(fields, 8)); ok {
		d.Synth.NewData.DOP.H = hdop
	}

	// GGA's quality code only distinguishes "has a fix" from "no fix";
	// it never asserts 3D on its own. Mode reaches 3D only through
	// another message (GSA's fix-type field, a GLL/GNS/PASHR/PSTI
	// altitude, or a UBX fixType); a GGA-only epoch settles at 2D.
	if quality > 0 {
		d.Synth.NewData.Mode = fix.Mode2D
	} else {
		d.Synth.NewData.Mode = fix.ModeNoFix
	}

	alt, hasAlt := parseFloat(field(fields, 9))
	sep, hasSep := parseFloat(field(fields, 11))
	if hasAlt {
		d.Synth.NewData.AltMSL = alt
		if !hasSep {
			sep = geoidSeparation(d.Synth.NewData.Lat, d.Synth.NewData.Lon)
		}
		d.Synth.NewData.GeoidSep = sep
		d.Synth.NewData.AltHAE = alt + sep
	}

	if age, ok := parseFloat(field(fields, 13)); ok {
		d.Synth.NewData.DGPSAge = age
	}
	if station, ok := parseInt(field(fields, 14)); ok {
		d.Synth.NewData.DGPSStation = station
	}

	return mask
}

func hGLL(d *Decoder, talker string, fields []string) fix.Mask {
	mask := fix.MaskOnline
	lat, ok1 := decodeLatLon(field(fields, 1), field(fields, 2))
	lon, ok2 := decodeLatLon(field(fields, 3), field(fields, 4))
	timeField := field(fields, 5)
	status := field(fields, 6)

	if dt, err := gtime.DecodeHhmmss(timeField); err == nil {
		d.registerFractionalTime(dt)
		d.scr.timeScratch.MergeHhmmss(dt)
		d.resolveTimeIfReady()
	}

	if status != "A" {
		d.Synth.NewData.Mode = fix.ModeNoFix
		d.Synth.NewData.Status = fix.StatusUnk
		return mask
	}
	st := fix.StatusGPS
	if faa := field(fields, 7); faa != "" {
		st = faaModeToStatus(faa[0])
	}
	d.Synth.NewData.Status = st

	if ok1 {
		d.Synth.NewData.Lat = lat
		mask |= fix.MaskFix
	}
	if ok2 {
		d.Synth.NewData.Lon = lon
	}
	if isFinite(d.Synth.NewData.AltHAE) || isFinite(d.Synth.NewData.AltMSL) {
		d.Synth.NewData.Mode = fix.Mode3D
	} else {
		d.Synth.NewData.Mode = fix.Mode2D
	}
	return mask
}

func hGNS(d *Decoder, talker string, fields []string) fix.Mask {
	mask := fix.MaskOnline
	timeField := field(fields, 1)
	modeInd := field(fields, 6)
	navStatus := field(fields, 13)

	if dt, err := gtime.DecodeHhmmss(timeField); err == nil {
		d.registerFractionalTime(dt)
		d.scr.timeScratch.MergeHhmmss(dt)
		d.resolveTimeIfReady()
	}

	if navStatus == "V" || navStatus == "U" {
		d.Synth.NewData.Mode = fix.ModeNoFix
		d.Synth.NewData.Status = fix.StatusUnk
		return mask
	}

	if modeInd != "" {
		d.Synth.NewData.Status = faaModeToStatus(modeInd[0])
	}
	if lat, ok := decodeLatLon(field(fields, 2), field(fields, 3)); ok {
		d.Synth.NewData.Lat = lat
		mask |= fix.MaskFix
	}
	if lon, ok := decodeLatLon(field(fields, 4), field(fields, 5)); ok {
		d.Synth.NewData.Lon = lon
	}
	if n, ok := parseInt(field(fields, 7)); ok {
		d.scr.ggaSatsUsed = n
	}
	if hdop, ok := filterDOP(field(fields, 8)); ok {
		d.Synth.NewData.DOP.H = hdop
	}
	if alt, ok := parseFloat(field(fields, 9)); ok {
		d.Synth.NewData.AltMSL = alt
		d.Synth.NewData.Mode = fix.Mode3D
	} else {
		d.Synth.NewData.Mode = fix.Mode2D
	}
	if sep, ok := parseFloat(field(fields, 10)); ok {
		d.Synth.NewData.GeoidSep = sep
		if isFinite(d.Synth.NewData.AltMSL) {
			d.Synth.NewData.AltHAE = d.Synth.NewData.AltMSL + sep
		}
	}
	return mask
}

func hVTG(d *Decoder, talker string, fields []string) fix.Mask {
	mask := fix.MaskOnline
	faa := field(fields, 9)
	if faa == "N" {
		return mask
	}
	if trk, ok := parseFloat(field(fields, 1)); ok {
		d.Synth.NewData.Track = trk
		mask |= fix.MaskFix
	}
	if mtrk, ok := parseFloat(field(fields, 3)); ok {
		d.Synth.NewData.MagTrack = mtrk
	}
	if kn, ok := parseFloat(field(fields, 5)); ok {
		d.Synth.NewData.Speed = kn * knotsToMPS
	} else if kmh, ok := parseFloat(field(fields, 7)); ok {
		d.Synth.NewData.Speed = kmh / 3.6
	}
	return mask
}

func init() {
	register("RMC", 10, false, hRMC)
	register("GGA", 15, false, hGGA)
	register("GLL", 7, false, hGLL)
	register("GNS", 13, false, hGNS)
	register("VTG", 9, true, hVTG)
}
