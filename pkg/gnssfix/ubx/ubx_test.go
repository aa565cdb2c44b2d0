package ubx

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/bramburn/gnssfix/pkg/gnssfix/fix"
	"github.com/bramburn/gnssfix/pkg/gnssfix/gtime"
)

func newTestDecoder() (*Decoder, *fix.Synthesizer) {
	synth := fix.NewSynthesizer()
	ctx := gtime.NewContext(2024)
	d := NewDecoder(synth, ctx, NopLogger{})
	return d, synth
}

func le32(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}
func leu32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}
func leu16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

// navPVTPayload builds an 84-byte NAV-PVT payload with the given
// iTOW/fixType/flags/lat/lon/altMSL, zeroing everything else.
func navPVTPayload(iTOW uint32, year uint16, fixType, flags byte, lat, lon int32, hMSL int32) []byte {
	p := make([]byte, 84)
	copy(p[0:4], leu32(iTOW))
	copy(p[4:6], leu16(year))
	p[6], p[7], p[8], p[9], p[10] = 6, 15, 10, 0, 0
	p[11] = 0x03 // validDate|validTime
	p[20] = fixType
	p[21] = flags
	copy(p[24:28], le32(lon))
	copy(p[28:32], le32(lat))
	copy(p[32:36], le32(hMSL))
	copy(p[36:40], le32(hMSL))
	return p
}

// S3. UBX-NAV-PVT happy path.
func TestNAVPVTHappyPath(t *testing.T) {
	d, _ := newTestDecoder()
	var reports []fix.Report
	d.OnReport = func(r fix.Report) { reports = append(reports, r) }

	// Distinct lat/lon per epoch, so a report that leaked the second
	// message's own fields into the first epoch's report would be
	// caught instead of silently matching by coincidence.
	p1 := navPVTPayload(1000, 2024, 3, 0x01, 483000000, 23000000, 100000)
	d.ParseUBX(0x01, 0x07, p1)

	p2 := navPVTPayload(2000, 2024, 3, 0x01, 510000000, 40000000, 200000)
	mask := d.ParseUBX(0x01, 0x07, p2)

	if len(reports) != 1 {
		t.Fatalf("got %d reports, want exactly 1 before the second NAV-PVT's own data is processed", len(reports))
	}
	r := reports[0]
	if r.Fix.Status != fix.StatusGPS {
		t.Errorf("Status = %v, want GPS", r.Fix.Status)
	}
	if r.Fix.Mode != fix.Mode3D {
		t.Errorf("Mode = %v, want 3D", r.Fix.Mode)
	}
	if math.Abs(r.Fix.Lat-48.3) > 1e-4 {
		t.Errorf("Lat = %v, want ~48.3 (the first epoch's own value, not the second's)", r.Fix.Lat)
	}
	if math.Abs(r.Fix.Lon-2.3) > 1e-4 {
		t.Errorf("Lon = %v, want ~2.3 (the first epoch's own value, not the second's)", r.Fix.Lon)
	}
	if mask&fix.MaskOnline == 0 {
		t.Error("second NAV-PVT should still return at least ONLINE")
	}

	// Flush the still-pending second epoch and confirm it kept p2's own
	// data (the jump-triggering message seeds the new epoch; its fields
	// must not have been discarded when the first epoch reported).
	rep2, ok := d.Flush()
	if !ok {
		t.Fatal("expected a pending second epoch to flush")
	}
	if math.Abs(rep2.Fix.Lat-51.0) > 1e-4 {
		t.Errorf("Lat = %v, want ~51.0 from the second NAV-PVT", rep2.Fix.Lat)
	}
	if math.Abs(rep2.Fix.Lon-4.0) > 1e-4 {
		t.Errorf("Lon = %v, want ~4.0 from the second NAV-PVT", rep2.Fix.Lon)
	}
}

// S6. RXM-SFRBX malformed: header claims more words than the payload
// actually carries.
func TestRXMSFRBXMalformed(t *testing.T) {
	d, _ := newTestDecoder()
	var gotSubframe bool
	d.OnSubframe = func(int, int, int, []uint32) { gotSubframe = true }

	payload := make([]byte, 8+4*3) // only 3 words present
	payload[4] = 20                // header claims 20 words
	mask := d.ParseUBX(0x02, 0x13, payload)

	if mask != 0 {
		t.Errorf("mask = %v, want 0", mask)
	}
	if gotSubframe {
		t.Error("OnSubframe should not have been called")
	}
}

func TestRXMSFRBXWellFormed(t *testing.T) {
	d, _ := newTestDecoder()
	var gotGnss, gotSv, gotSig int
	var gotWords []uint32
	d.OnSubframe = func(gnssID, sigID, svID int, words []uint32) {
		gotGnss, gotSig, gotSv, gotWords = gnssID, sigID, svID, words
	}

	numWords := 10
	payload := make([]byte, 8+4*numWords)
	payload[0] = 0 // gnssId GPS
	payload[1] = 5 // svId
	payload[2] = 0 // sigId
	payload[4] = byte(numWords)
	for i := 0; i < numWords; i++ {
		copy(payload[8+i*4:], leu32(uint32(i+1)))
	}
	d.ParseUBX(0x02, 0x13, payload)

	if gotGnss != 0 || gotSv != 5 || gotSig != 0 {
		t.Errorf("got (gnss=%d,sv=%d,sig=%d)", gotGnss, gotSv, gotSig)
	}
	if len(gotWords) != numWords || gotWords[0] != 1 {
		t.Errorf("words = %v", gotWords)
	}
}

// S5. PROTVER discovery.
func TestMONVERProtverDiscovery(t *testing.T) {
	d, _ := newTestDecoder()
	payload := make([]byte, 40+30)
	copy(payload[0:30], []byte("ROM CORE 3.01\x00"))
	copy(payload[40:70], []byte("PROTVER=27.12\x00"))

	d.ParseUBX(0x0A, 0x04, payload)

	if d.scr.protver != 27.12 {
		t.Errorf("protver = %v, want 27.12", d.scr.protver)
	}
}

func TestMONVERTriggersReconfigureOnChange(t *testing.T) {
	d, _ := newTestDecoder()
	var calls []float64
	d.OnReconfigure = func(v float64) { calls = append(calls, v) }

	first := make([]byte, 40+30)
	copy(first[40:70], []byte("PROTVER=15.00\x00"))
	d.ParseUBX(0x0A, 0x04, first)
	if len(calls) != 0 {
		t.Fatalf("first MON-VER should not trigger reconfigure, got %v", calls)
	}

	second := make([]byte, 40+30)
	copy(second[40:70], []byte("PROTVER=27.12\x00"))
	d.ParseUBX(0x0A, 0x04, second)
	if len(calls) != 1 || calls[0] != 27.12 {
		t.Fatalf("expected one reconfigure call with 27.12, got %v", calls)
	}
}

// iTOW rollover boundary (spec.md §8): a step from 604,800,000-ish down
// to a small value near 0 must be treated as a new epoch, not a huge
// backward step / bogus giant forward step.
func TestITOWRolloverTreatedAsNewEpoch(t *testing.T) {
	d, _ := newTestDecoder()
	var reports int
	d.OnReport = func(fix.Report) { reports++ }

	d.ParseUBX(0x01, 0x61, leu32(604799990))
	if d.scr.lastITOW != 604799990 {
		t.Fatalf("setup: lastITOW = %d", d.scr.lastITOW)
	}

	// A naive unsigned/absolute delta between 604799990 and 10 would be
	// huge (~604.8M ms); modulo the GPS week length it is really a 20ms
	// forward step, which is over the 10ms threshold and so closes the
	// epoch like any other forward jump.
	d.ParseUBX(0x01, 0x61, leu32(10))
	if d.scr.lastITOW != 10 {
		t.Fatalf("lastITOW = %d, want 10", d.scr.lastITOW)
	}
	if reports != 1 {
		t.Errorf("reports = %d, want 1: the step across the rollover should close the epoch", reports)
	}
}

func TestNAVEOEMinimalPayloadAccepted(t *testing.T) {
	d, _ := newTestDecoder()
	mask := d.ParseUBX(0x01, 0x61, leu32(500))
	if mask&fix.MaskOnline == 0 {
		t.Error("NAV-EOE with its minimal 4-byte payload should be accepted")
	}
}

func TestUnknownMessageReturnsOnlineMask(t *testing.T) {
	d, _ := newTestDecoder()
	mask := d.ParseUBX(0x99, 0x99, []byte{1, 2, 3})
	if mask != fix.MaskOnline {
		t.Errorf("mask = %v, want ONLINE only", mask)
	}
}

func TestSECUNIQIDv1(t *testing.T) {
	d, _ := newTestDecoder()
	payload := []byte{0, 0, 0, 0, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE}
	d.ParseUBX(0x27, 0x03, payload)
	if d.scr.sernum != "aabbccddee" {
		t.Errorf("sernum = %q, want aabbccddee", d.scr.sernum)
	}
}
