package ubx

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/bramburn/gnssfix/pkg/gnssfix/fix"
	"github.com/bramburn/gnssfix/pkg/gnssfix/scalar"
)

// firmwareProtverTable is the fallback used when a MON-VER extension
// string lacks an explicit PROTVER= entry (spec.md §4.F).
var firmwareProtverTable = map[string]float64{
	"2.10": 8.10,
	"5.00": 11.00,
	"1.00": 14.00,
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}

// hMONVER parses the fixed 40-byte swVersion/hwVersion prefix followed
// by zero or more 30-byte extension strings, searching them for
// "PROTVER=" / "PROTVER ". When no match is found it falls back to the
// firmware-string table keyed on the swVersion string. A discovered
// protver that differs from an earlier non-zero one triggers
// OnReconfigure, which session.Session wires to ubxcfg.Queue.Start to
// restart its staged dialogue (queue=0); the first discovery does not.
func hMONVER(d *Decoder, payload []byte) fix.Mask {
	mask := fix.MaskLog
	if len(payload) < 40 {
		return mask
	}
	swVersion := cString(payload[0:30])
	_ = cString(payload[30:40]) // hwVersion, informational only

	var protver float64
	for off := 40; off+30 <= len(payload); off += 30 {
		ext := cString(payload[off : off+30])
		if idx := strings.Index(ext, "PROTVER="); idx >= 0 {
			if v, err := strconv.ParseFloat(strings.TrimSpace(ext[idx+len("PROTVER="):]), 64); err == nil {
				protver = v
			}
		} else if idx := strings.Index(ext, "PROTVER "); idx >= 0 {
			if v, err := strconv.ParseFloat(strings.TrimSpace(ext[idx+len("PROTVER "):]), 64); err == nil {
				protver = v
			}
		}
	}
	if protver == 0 {
		for key, v := range firmwareProtverTable {
			if strings.Contains(swVersion, key) {
				protver = v
				break
			}
		}
	}

	if protver != 0 {
		d.scr.lastProtver = d.scr.protver
		d.scr.protver = protver
		if d.scr.lastProtver != 0 && d.scr.lastProtver != protver && d.OnReconfigure != nil {
			d.OnReconfigure(protver)
		}
	}
	return mask
}

// hSECUNIQID decodes the receiver's unique chip id: a v1 5-byte id
// becomes a 10-hex-char sernum, a v2 6-byte id becomes 12 hex chars.
func hSECUNIQID(d *Decoder, payload []byte) fix.Mask {
	if len(payload) < 4 {
		return fix.MaskLog
	}
	version := scalar.Getub(payload, 0)
	idLen := 5
	if version >= 2 {
		idLen = 6
	}
	if len(payload) < 4+idLen {
		return fix.MaskLog
	}
	d.scr.sernum = fmt.Sprintf("%x", payload[4:4+idLen])
	return fix.MaskLog
}

// hTIMTP decodes towMS/towSubMS into a nanosecond-precision time of
// week. towSubMS is scaled by 2^32 to nanoseconds using round-half-up,
// retained exactly as the upstream formula specifies (spec.md §9: do
// not "fix" this to a cleaner-looking computation).
func hTIMTP(d *Decoder, payload []byte) fix.Mask {
	mask := fix.MaskTime
	towMS := scalar.Getleu32(payload, 0)
	towSubMS := scalar.Getleu32(payload, 4)
	qErr := scalar.Getles32(payload, 8)
	week := scalar.Getles16(payload, 12)
	flags := scalar.Getub(payload, 14)

	subNanos := (uint64(towSubMS)*1_000_000 + 500_000) >> 32
	towSeconds := float64(towMS)/1000.0 + float64(subNanos)/1e9
	t := d.Ctx.GPSTimeRaw(int(week), towSeconds)

	if flags&0x03 == 0x03 {
		d.scr.qErr = qErr
		d.scr.qErrTime = t
	}
	return mask
}

// hCFGPRT records the port id a CFG-PRT poll response names; subsequent
// outbound CFG-PRT writes target this port (spec.md §4.F).
func hCFGPRT(d *Decoder, payload []byte) fix.Mask {
	d.scr.portID = int(scalar.Getub(payload, 0))
	return fix.MaskConfig
}

func init() {
	register(0x0A, 0x04, 40, hMONVER)
	register(0x27, 0x03, 9, hSECUNIQID)
	register(0x0D, 0x01, 16, hTIMTP)
	register(0x06, 0x00, 20, hCFGPRT)
}
