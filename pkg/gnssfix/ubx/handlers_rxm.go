package ubx

import (
	"github.com/bramburn/gnssfix/pkg/gnssfix/fix"
	"github.com/bramburn/gnssfix/pkg/gnssfix/scalar"
)

// hRXMRAWX decodes a pseudorange/carrier-phase measurement block and
// emits one RawMeas per signal via OnRawMeas. Time is GPS time (no
// leap-second correction, spec.md §4.F); cpStdev is guarded at <=5 (the
// raw 4-bit field, in 0.004-cycle units) before carrier phase is
// trusted.
func hRXMRAWX(d *Decoder, payload []byte) fix.Mask {
	mask := fix.MaskOnline
	leapS := scalar.Getsb(payload, 10)
	numMeas := int(scalar.Getub(payload, 11))
	recStat := scalar.Getub(payload, 12)
	if recStat&0x01 != 0 {
		d.Ctx.SetLeapSeconds(int(leapS))
	}

	for i := 0; i < numMeas; i++ {
		off := 16 + i*32
		if off+32 > len(payload) {
			break
		}
		prMes := scalar.Getled64(payload, off)
		cpMes := scalar.Getled64(payload, off+8)
		doMes := float64(scalar.Getlef32(payload, off+16))
		gnssID := int(scalar.Getub(payload, off+20))
		svID := int(scalar.Getub(payload, off+21))
		sigID := int(scalar.Getub(payload, off+22))
		freqID := int(scalar.Getub(payload, off+23))
		locktime := scalar.Getleu16(payload, off+24)
		cno := int(scalar.Getub(payload, off+26))
		prStdevRaw := scalar.Getub(payload, off+27) & 0x0F
		cpStdevRaw := scalar.Getub(payload, off+28) & 0x0F
		doStdevRaw := scalar.Getub(payload, off+29) & 0x0F
		trkStat := scalar.Getub(payload, off+30)

		rm := RawMeas{
			PrMes: prMes, DoMes: doMes,
			GnssID: gnssID, SvID: svID, SigID: sigID, FreqID: freqID,
			Locktime: locktime, CN0: cno,
			PrStdev: 0.01 * float64(uint32(1)<<prStdevRaw),
			DoStdev: 0.002 * float64(uint32(1)<<doStdevRaw),
			TrkStat: trkStat,
		}
		if cpStdevRaw <= 5 {
			rm.CpMes = cpMes
			rm.CpStdev = 0.004 * float64(cpStdevRaw)
		} else {
			rm.LLI = 2
		}
		if locktime == 0 {
			rm.LLI = 2
		}
		if d.OnRawMeas != nil {
			d.OnRawMeas(rm)
		}
		mask |= fix.MaskRaw
	}
	return mask
}

// hRXMSFRBX forwards a decoded subframe's raw 32-bit words to an
// external interpreter. A header claiming a word count that doesn't
// match the actual payload length is rejected without dispatch (S6).
func hRXMSFRBX(d *Decoder, payload []byte) fix.Mask {
	gnssID := int(scalar.Getub(payload, 0))
	svID := int(scalar.Getub(payload, 1))
	sigID := int(scalar.Getub(payload, 2))
	numWords := int(scalar.Getub(payload, 4))

	if numWords > 16 || len(payload) != 8+4*numWords {
		d.logf("UBX:", "wrong payload len")
		return 0
	}

	words := make([]uint32, numWords)
	for i := 0; i < numWords; i++ {
		words[i] = scalar.Getleu32(payload, 8+i*4)
	}
	if d.OnSubframe != nil {
		d.OnSubframe(gnssID, sigID, svID, words)
	}
	return fix.MaskRaw
}

func init() {
	register(0x02, 0x15, 16, hRXMRAWX)
	register(0x02, 0x13, 8, hRXMSFRBX)
}
