package ubx

import (
	"github.com/bramburn/gnssfix/pkg/gnssfix/fix"
	"github.com/bramburn/gnssfix/pkg/gnssfix/gtime"
	"github.com/bramburn/gnssfix/pkg/gnssfix/scalar"
)

// dgpsAgeTable converts UBX-NAV-PVT's flags3 lastCorrectionAge index
// (bits 1-4) into seconds; -1 means "no correction age reported".
var dgpsAgeTable = [...]float64{-1, 1, 2, 5, 10, 15, 20, 30, 45, 60, 90, 120, 240}

func hNAVPVT(d *Decoder, payload []byte) fix.Mask {
	mask := fix.MaskOnline
	d.scr.iTOW = int64(scalar.Getleu32(payload, 0))

	valid := scalar.Getub(payload, 11)
	if valid&0x01 != 0 && valid&0x02 != 0 {
		year := int(scalar.Getleu16(payload, 4))
		month := int(scalar.Getub(payload, 6))
		day := int(scalar.Getub(payload, 7))
		hour := int(scalar.Getub(payload, 8))
		min := int(scalar.Getub(payload, 9))
		sec := int(scalar.Getub(payload, 10))
		nano := int(scalar.Getles32(payload, 16))
		ep := [6]float64{float64(year), float64(month), float64(day), float64(hour), float64(min), float64(sec) + float64(nano)/1e9}
		t := gtime.Epoch2Time(ep)
		d.Synth.NewData.Time = t
		d.scr.lastTime = t
		mask |= fix.MaskTime
	}

	fixType := scalar.Getub(payload, 20)
	flags := scalar.Getub(payload, 21)
	gnssFixOK := flags&0x01 != 0
	diffSoln := flags&0x02 != 0
	carrSoln := (flags >> 6) & 0x03

	var m fix.Mode
	var st fix.Status
	switch fixType {
	case 1:
		m, st = fix.Mode2D, fix.StatusDR
	case 2:
		m, st = fix.Mode2D, fix.StatusGPS
	case 3:
		m, st = fix.Mode3D, fix.StatusGPS
	case 4:
		m, st = fix.Mode3D, fix.StatusGNSSDR
	case 5:
		m, st = fix.Mode3D, fix.StatusTimeOnly
	default:
		m, st = fix.ModeNoFix, fix.StatusUnk
	}
	if gnssFixOK {
		if diffSoln {
			st = fix.StatusDGPS
		}
		switch carrSoln {
		case 1:
			st = fix.StatusRTKFloat
		case 2:
			st = fix.StatusRTKFix
		}
	}
	d.Synth.NewData.Mode = m
	d.Synth.NewData.Status = st
	mask |= fix.MaskFix

	d.Synth.NewData.Lon = float64(scalar.Getles32(payload, 24)) * 1e-7
	d.Synth.NewData.Lat = float64(scalar.Getles32(payload, 28)) * 1e-7
	d.Synth.NewData.AltHAE = float64(scalar.Getles32(payload, 32)) * 1e-3
	d.Synth.NewData.AltMSL = float64(scalar.Getles32(payload, 36)) * 1e-3
	d.Synth.NewData.Eph = float64(scalar.Getleu32(payload, 40)) * 1e-3
	d.Synth.NewData.Epv = float64(scalar.Getleu32(payload, 44)) * 1e-3
	d.Synth.NewData.Speed = float64(scalar.Getles32(payload, 60)) * 1e-3
	d.Synth.NewData.Track = float64(scalar.Getles32(payload, 64)) * 1e-5
	d.Synth.NewData.Eps = float64(scalar.Getleu32(payload, 68)) * 1e-3
	d.Synth.NewData.Epd = float64(scalar.Getleu32(payload, 72)) * 1e-5
	d.Synth.NewData.DOP.P = float64(scalar.Getleu16(payload, 76)) * 0.01

	if len(payload) >= 80 {
		flags3 := scalar.Getleu16(payload, 78)
		ageIdx := (flags3 >> 1) & 0x0F
		if int(ageIdx) < len(dgpsAgeTable) && dgpsAgeTable[ageIdx] >= 0 {
			d.Synth.NewData.DGPSAge = dgpsAgeTable[ageIdx]
		}
	}

	d.scr.navPvtEmittedThisEpoch = true
	return mask
}

// hNAVSOL handles the deprecated NAV-SOL message, only emitted when
// NAV-PVT hasn't already been emitted this epoch (spec.md §4.F: a
// receiver old enough to need NAV-SOL doesn't also send NAV-PVT, but the
// guard keeps both code paths safe regardless of enabled message set).
func hNAVSOL(d *Decoder, payload []byte) fix.Mask {
	mask := fix.MaskOnline
	d.scr.iTOW = int64(scalar.Getleu32(payload, 0))
	if d.scr.navPvtEmittedThisEpoch {
		return mask
	}

	gpsFix := scalar.Getub(payload, 10)
	flags := scalar.Getub(payload, 11)

	var m fix.Mode
	switch gpsFix {
	case 1, 2:
		m = fix.Mode2D
	case 3, 4, 5:
		m = fix.Mode3D
	default:
		m = fix.ModeNoFix
	}
	st := fix.StatusUnk
	if flags&0x01 != 0 {
		st = fix.StatusGPS
		if flags&0x02 != 0 {
			st = fix.StatusDGPS
		}
	}
	d.Synth.NewData.Mode = m
	d.Synth.NewData.Status = st

	d.Synth.NewData.ECEF.X = float64(scalar.Getles32(payload, 12)) * 1e-2
	d.Synth.NewData.ECEF.Y = float64(scalar.Getles32(payload, 16)) * 1e-2
	d.Synth.NewData.ECEF.Z = float64(scalar.Getles32(payload, 20)) * 1e-2
	d.Synth.NewData.ECEF.PAcc = float64(scalar.Getleu32(payload, 24)) * 1e-2
	d.Synth.NewData.ECEF.VX = float64(scalar.Getles32(payload, 28)) * 1e-2
	d.Synth.NewData.ECEF.VY = float64(scalar.Getles32(payload, 32)) * 1e-2
	d.Synth.NewData.ECEF.VZ = float64(scalar.Getles32(payload, 36)) * 1e-2
	d.Synth.NewData.ECEF.VAcc = float64(scalar.Getleu32(payload, 40)) * 1e-2
	d.Synth.NewData.DOP.P = float64(scalar.Getleu16(payload, 44)) * 0.01

	mask |= fix.MaskFix
	d.scr.navSolEmittedThisEpoch = true
	return mask
}

func hNAVHPPOSECEF(d *Decoder, payload []byte) fix.Mask {
	mask := fix.MaskOnline
	d.scr.iTOW = int64(scalar.Getleu32(payload, 4))
	// ecefXHp/YHp/ZHp are 0.1mm units against a 1cm main field, a ratio
	// of 100 (unlike height's mm-vs-0.1mm ratio of 10 below).
	d.Synth.NewData.ECEF.X = scalar.Getles32x100s8Scaled(payload, 8, 20, 1e-4)
	d.Synth.NewData.ECEF.Y = scalar.Getles32x100s8Scaled(payload, 12, 21, 1e-4)
	d.Synth.NewData.ECEF.Z = scalar.Getles32x100s8Scaled(payload, 16, 22, 1e-4)
	d.Synth.NewData.ECEF.PAcc = float64(scalar.Getleu32(payload, 24)) * 1e-1
	mask |= fix.MaskFix
	return mask
}

func hNAVHPPOSLLH(d *Decoder, payload []byte) fix.Mask {
	mask := fix.MaskOnline
	d.scr.iTOW = int64(scalar.Getleu32(payload, 4))
	d.Synth.NewData.Lon = scalar.Getles32x100s8Scaled(payload, 8, 24, 1e-9)
	d.Synth.NewData.Lat = scalar.Getles32x100s8Scaled(payload, 12, 25, 1e-9)
	combineMM := func(off, offHp int) float64 {
		main := int64(scalar.Getles32(payload, off))
		hp := int64(scalar.Getsb(payload, offHp))
		return float64(main*10+hp) * 1e-4
	}
	d.Synth.NewData.AltHAE = combineMM(16, 26)
	d.Synth.NewData.AltMSL = combineMM(20, 27)
	d.Synth.NewData.Eph = float64(scalar.Getleu32(payload, 28)) * 1e-4
	d.Synth.NewData.Epv = float64(scalar.Getleu32(payload, 32)) * 1e-4
	mask |= fix.MaskFix
	return mask
}

// navSatKey keys the az/el snapshot NAV-SIG pairs itself to, since
// NAV-SIG carries no geometry of its own (spec.md §4.F).
func navSatKey(gnssID, svID int) int { return gnssID*1000 + svID }

func hNAVSAT(d *Decoder, payload []byte) fix.Mask {
	mask := fix.MaskOnline
	d.scr.iTOW = int64(scalar.Getleu32(payload, 0))
	numSvs := int(scalar.Getub(payload, 5))

	for i := 0; i < numSvs; i++ {
		off := 8 + i*12
		if off+12 > len(payload) {
			break
		}
		gnssID := int(scalar.Getub(payload, off))
		svID := int(scalar.Getub(payload, off+1))
		cno := int(scalar.Getub(payload, off+2))
		elev := float64(scalar.Getsb(payload, off+3))
		azim := float64(scalar.Getles16(payload, off+4))
		prRes := float64(scalar.Getles16(payload, off+6)) * 0.1
		flags := scalar.Getleu32(payload, off+8)

		quality := int(flags & 0x07)
		used := flags&0x08 != 0
		health := int((flags >> 4) & 0x03)
		sbasCorr := flags&(1<<14) != 0
		if sbasCorr {
			d.scr.sbasInUse = true
		}

		d.scr.navSatSnapshot[navSatKey(gnssID, svID)] = satSnapshot{elevation: elev, azimuth: azim}

		d.Synth.Sky.Upsert(fix.Satellite{
			GnssID: gnssID, SvID: svID, PRN: gnssID*1000 + svID,
			Elevation: elev, Azimuth: azim, SS: float64(cno),
			Used: used, Health: health, QualityInd: quality, PRRes: prRes,
		})
		mask |= fix.MaskSky
	}
	return mask
}

func hNAVSIG(d *Decoder, payload []byte) fix.Mask {
	mask := fix.MaskOnline
	d.scr.iTOW = int64(scalar.Getleu32(payload, 0))
	numSigs := int(scalar.Getub(payload, 5))

	for i := 0; i < numSigs; i++ {
		off := 8 + i*16
		if off+16 > len(payload) {
			break
		}
		gnssID := int(scalar.Getub(payload, off))
		svID := int(scalar.Getub(payload, off+1))
		sigID := int(scalar.Getub(payload, off+2))
		freqID := int(scalar.Getub(payload, off+3))
		cno := int(scalar.Getub(payload, off+6))
		quality := int(scalar.Getub(payload, off+7))

		snap := d.scr.navSatSnapshot[navSatKey(gnssID, svID)]

		d.Synth.Sky.Upsert(fix.Satellite{
			GnssID: gnssID, SvID: svID, SigID: sigID, FreqID: freqID,
			PRN: gnssID*1000 + svID,
			Elevation: snap.elevation, Azimuth: snap.azimuth,
			SS: float64(cno), QualityInd: quality,
		})
		mask |= fix.MaskSky
	}
	return mask
}

func hNAVSVINFO(d *Decoder, payload []byte) fix.Mask {
	mask := fix.MaskOnline
	d.scr.iTOW = int64(scalar.Getleu32(payload, 0))
	numCh := int(scalar.Getub(payload, 4))
	for i := 0; i < numCh; i++ {
		off := 8 + i*12
		if off+12 > len(payload) {
			break
		}
		svid := int(scalar.Getub(payload, off+1))
		flags := scalar.Getub(payload, off+2)
		cno := int(scalar.Getub(payload, off+4))
		elev := float64(scalar.Getsb(payload, off+5))
		azim := float64(scalar.Getles16(payload, off+6))

		d.Synth.Sky.Upsert(fix.Satellite{
			GnssID: -1, SvID: svid, PRN: svid,
			Elevation: elev, Azimuth: azim, SS: float64(cno),
			Used: flags&0x01 != 0,
		})
		mask |= fix.MaskSky
	}
	return mask
}

// hNAVEOE is content-free; its iTOW alone is the most reliable epoch
// boundary available once protver>=18 (spec.md §4.F).
func hNAVEOE(d *Decoder, payload []byte) fix.Mask {
	d.scr.iTOW = int64(scalar.Getleu32(payload, 0))
	return fix.MaskOnline
}

func hNAVRELPOSNED(d *Decoder, payload []byte) fix.Mask {
	mask := fix.MaskOnline
	d.scr.iTOW = int64(scalar.Getleu32(payload, 4))

	var flags uint32
	if len(payload) >= 64 {
		flags = scalar.Getleu32(payload, 60)
	} else {
		flags = scalar.Getleu32(payload, 36)
	}
	gnssFixOK := flags&0x01 != 0
	relPosValid := flags&0x02 != 0
	if !gnssFixOK || !relPosValid {
		return mask
	}

	combine := func(off, offHp int) float64 {
		main := int64(scalar.Getles32(payload, off))
		hp := int64(scalar.Getsb(payload, offHp))
		return float64(main*10+hp) * 1e-4
	}
	d.Synth.NewData.NED.RelN = combine(8, 32)
	d.Synth.NewData.NED.RelE = combine(12, 33)
	d.Synth.NewData.NED.RelD = combine(16, 34)
	if len(payload) >= 64 {
		d.Synth.NewData.Baseline.Length = float64(scalar.Getleu32(payload, 20)) * 1e-2
		d.Synth.NewData.Baseline.Course = float64(scalar.Getles32(payload, 24)) * 1e-5
	}
	mask |= fix.MaskFix
	return mask
}

// hNAVPVAT handles the protver-30+ combined position/velocity/attitude
// message: everything NAV-PVT carries, plus a roll/pitch/heading triad
// and its accuracies.
func hNAVPVAT(d *Decoder, payload []byte) fix.Mask {
	mask := fix.MaskOnline
	d.scr.iTOW = int64(scalar.Getleu32(payload, 4))

	d.Synth.NewData.Lat = float64(scalar.Getles32(payload, 32)) * 1e-7
	d.Synth.NewData.Lon = float64(scalar.Getles32(payload, 36)) * 1e-7
	d.Synth.NewData.AltHAE = float64(scalar.Getles32(payload, 40)) * 1e-3
	d.Synth.NewData.AltMSL = float64(scalar.Getles32(payload, 44)) * 1e-3

	d.Synth.NewData.Attitude.Roll = float64(scalar.Getles32(payload, 48)) * 1e-5
	d.Synth.NewData.Attitude.Pitch = float64(scalar.Getles32(payload, 52)) * 1e-5
	d.Synth.NewData.Attitude.Heading = float64(scalar.Getles32(payload, 56)) * 1e-5
	d.Synth.NewData.Attitude.RollAcc = float64(scalar.Getleu32(payload, 60)) * 1e-5
	d.Synth.NewData.Attitude.PitchAcc = float64(scalar.Getleu32(payload, 64)) * 1e-5
	d.Synth.NewData.Attitude.HeadingAcc = float64(scalar.Getleu32(payload, 68)) * 1e-5

	d.Synth.NewData.ErrEllipse.Major = float64(scalar.Getleu32(payload, 72)) * 1e-3
	d.Synth.NewData.ErrEllipse.Minor = float64(scalar.Getleu32(payload, 76)) * 1e-3
	d.Synth.NewData.ErrEllipse.Orient = float64(scalar.Getleu16(payload, 80)) * 1e-2

	d.Synth.NewData.Mode = fix.Mode3D
	d.Synth.NewData.Status = fix.StatusGPS
	mask |= fix.MaskFix | fix.MaskAttitude
	return mask
}

func init() {
	register(0x01, 0x07, 84, hNAVPVT)
	register(0x01, 0x06, 52, hNAVSOL)
	register(0x01, 0x13, 28, hNAVHPPOSECEF)
	register(0x01, 0x14, 36, hNAVHPPOSLLH)
	register(0x01, 0x35, 8, hNAVSAT)
	register(0x01, 0x43, 8, hNAVSIG)
	register(0x01, 0x30, 8, hNAVSVINFO)
	register(0x01, 0x61, 4, hNAVEOE)
	register(0x01, 0x3C, 40, hNAVRELPOSNED)
	register(0x01, 0x17, 84, hNAVPVAT)
}
