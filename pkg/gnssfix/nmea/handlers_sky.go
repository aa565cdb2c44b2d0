package nmea

import (
	"strconv"

	"github.com/bramburn/gnssfix/pkg/gnssfix/fix"
	"github.com/bramburn/gnssfix/pkg/gnssfix/ident"
)

func hGSA(d *Decoder, talker string, fields []string) fix.Mask {
	mask := fix.MaskOnline

	gsaIdx := tagIndex["GSA"]
	if d.scr.lasttag != gsaIdx {
		// First GSA of a fresh run of GSAs (whatever preceded it was a
		// different sentence type): start a new accumulation.
		d.scr.satsUsed = make(map[int]bool)
	} else if d.scr.lastGSATalker == "GN" && talker != "GN" {
		d.scr.satsUsed = make(map[int]bool)
	}
	d.scr.lastGSATalker = talker

	if mode2, ok := parseInt(field(fields, 2)); ok {
		switch mode2 {
		case 2:
			d.Synth.NewData.Mode = fix.Mode2D
		case 3:
			d.Synth.NewData.Mode = fix.Mode3D
		case 1:
			d.Synth.NewData.Mode = fix.ModeNoFix
		}
	}

	nmeaGnssID := -1
	if g, ok := parseInt(field(fields, 18)); ok {
		nmeaGnssID = g
	}

	any := false
	for i := 3; i <= 14; i++ {
		satnum, ok := parseInt(field(fields, i))
		if !ok || satnum == 0 {
			continue
		}
		extPRN, _, _ := ident.PrnMap(talker, satnum, nmeaGnssID)
		if extPRN == 0 {
			continue
		}
		d.scr.satsUsed[extPRN] = true
		any = true
	}
	if any {
		mask |= fix.MaskSky
	}

	if pdop, ok := filterDOP(field(fields, 15)); ok {
		d.Synth.NewData.DOP.P = pdop
	}
	if hdop, ok := filterDOP(field(fields, 16)); ok {
		d.Synth.NewData.DOP.H = hdop
	}
	if vdop, ok := filterDOP(field(fields, 17)); ok {
		d.Synth.NewData.DOP.V = vdop
	}

	// Apply the accumulated used-set to every satellite already in the
	// sky view (GSA may arrive before or after the GSV series).
	for i := range d.Synth.Sky.Satellites {
		if d.scr.satsUsed[d.Synth.Sky.Satellites[i].PRN] {
			d.Synth.Sky.Satellites[i].Used = true
		}
	}

	return mask
}

func hGSV(d *Decoder, talker string, fields []string) fix.Mask {
	mask := fix.MaskOnline

	await, _ := parseInt(field(fields, 1))
	part, _ := parseInt(field(fields, 2))

	dataFields := fields[4:]
	signalID := 0
	if rem := len(dataFields) % 4; rem == 1 {
		if sig, ok := parseInt(dataFields[len(dataFields)-1]); ok {
			signalID = sig
		}
		dataFields = dataFields[:len(dataFields)-1]
	}

	if part == 1 {
		key := talker + "#" + strconv.Itoa(signalID)
		if d.scr.seenGSVTalker[key] {
			d.Synth.Sky.Reset()
			d.scr.seenGSVTalker = make(map[string]bool)
		}
		d.scr.seenGSVTalker[key] = true
	}

	for g := 0; g+3 < len(dataFields); g += 4 {
		prnField := dataFields[g]
		if prnField == "" {
			continue
		}
		satnum, ok := parseInt(prnField)
		if !ok {
			continue
		}
		elev, _ := parseFloat(dataFields[g+1])
		az, _ := parseFloat(dataFields[g+2])
		ss, _ := parseFloat(dataFields[g+3])

		extPRN, gnssID, svID := ident.PrnMap(talker, satnum, -1)
		if extPRN == 0 {
			continue
		}
		used := d.scr.satsUsed[extPRN]
		d.Synth.Sky.Upsert(fix.Satellite{
			GnssID: gnssID, SvID: svID, SigID: signalID,
			PRN: extPRN, Elevation: elev, Azimuth: az, SS: ss, Used: used,
		})
		mask |= fix.MaskSky
	}

	if part >= await {
		d.scr.gsxMore = false
		allAzZero, anyElNonzero := true, false
		for _, sv := range d.Synth.Sky.Satellites {
			if sv.Azimuth != 0 {
				allAzZero = false
			}
			if sv.Elevation != 0 {
				anyElNonzero = true
			}
		}
		if allAzZero && anyElNonzero {
			d.Synth.Sky.Reset()
		}
	} else {
		d.scr.gsxMore = true
	}

	return mask
}

func init() {
	register("GSA", 17, false, hGSA)
	register("GSV", 4, true, hGSV)
}
