package ident

import "testing"

func TestPrnMapGPS(t *testing.T) {
	prn, gnss, svid := PrnMap("GP", 12, -1)
	if prn != 12 || gnss != GnssGPS || svid != 12 {
		t.Errorf("PrnMap(GP,12) = (%d,%d,%d), want (12,%d,12)", prn, gnss, svid, GnssGPS)
	}
}

func TestPrnMapSBAS(t *testing.T) {
	prn, gnss, svid := PrnMap("GP", 33, -1)
	if gnss != GnssSBAS || prn != 120 || svid != 120 {
		t.Errorf("PrnMap(GP,33) = (%d,%d,%d), want (120,SBAS,120)", prn, gnss, svid)
	}
	prn, _, _ = PrnMap("GP", 64, -1)
	if prn != 151 {
		t.Errorf("PrnMap(GP,64) prn = %d, want 151", prn)
	}
}

func TestPrnMapGlonass(t *testing.T) {
	prn, gnss, svid := PrnMap("GL", 65, -1)
	if gnss != GnssGLONASS || prn != 65 || svid != 1 {
		t.Errorf("PrnMap(GL,65) = (%d,%d,%d), want (65,GLONASS,1)", prn, gnss, svid)
	}
}

func TestPrnMapGalileoAndBeiDou(t *testing.T) {
	prn, gnss, svid := PrnMap("GA", 5, -1)
	if gnss != GnssGalileo || prn != 305 || svid != 5 {
		t.Errorf("PrnMap(GA,5) = (%d,%d,%d), want (305,Galileo,5)", prn, gnss, svid)
	}
	prn, gnss, svid = PrnMap("GB", 5, -1)
	if gnss != GnssBeiDou || prn != 405 || svid != 5 {
		t.Errorf("PrnMap(GB,5) = (%d,%d,%d), want (405,BeiDou,5)", prn, gnss, svid)
	}
}

func TestPrnMapQuectelQuirks(t *testing.T) {
	// Galileo reported in the 101..136 Quectel range.
	prn, gnss, svid := PrnMap("PQ", 105, -1)
	if gnss != GnssGalileo || prn != 305 || svid != 5 {
		t.Errorf("PrnMap quectel galileo = (%d,%d,%d), want (305,Galileo,5)", prn, gnss, svid)
	}
	// BeiDou reported in the 201..264 Quectel range.
	prn, gnss, svid = PrnMap("PQ", 205, -1)
	if gnss != GnssBeiDou || prn != 405 || svid != 5 {
		t.Errorf("PrnMap quectel beidou = (%d,%d,%d), want (405,BeiDou,5)", prn, gnss, svid)
	}
}

func TestPrnMapUnknownRangeReturnsZero(t *testing.T) {
	prn, gnss, _ := PrnMap("XX", 999, -1)
	if prn != 0 || gnss != GnssUnknown {
		t.Errorf("PrnMap(unknown) = (%d,%d), want (0,Unknown)", prn, gnss)
	}
}

// TestPrnMapRoundTrip exercises invariant 9 from spec.md §8: prn_map is a
// partial bijection on its defined domain; (ubx_gnssId,svId) round-trips
// through ubx_to_prn ∘ prn_map for every defined slot.
func TestPrnMapRoundTrip(t *testing.T) {
	cases := []struct {
		talker string
		satnum int
	}{
		{"GP", 1}, {"GP", 32},
		{"GP", 33}, {"GP", 64},
		{"GL", 65}, {"GL", 96},
		{"GA", 1}, {"GA", 36},
		{"GB", 1}, {"GB", 37},
		{"GQ", 193}, {"GQ", 202},
		{"GI", 500}, {"GI", 509},
	}
	for _, c := range cases {
		prn, gnss, svid := PrnMap(c.talker, c.satnum, -1)
		if gnss == GnssUnknown {
			t.Fatalf("PrnMap(%s,%d) unexpectedly unknown", c.talker, c.satnum)
		}
		rtPrn, rtGnss, rtSvid := UbxToPrn(prn)
		if rtGnss != gnss || rtSvid != svid {
			t.Errorf("round trip for (%s,%d): prn_map gave (gnss=%d,svid=%d), ubx_to_prn(%d) gave (gnss=%d,svid=%d)",
				c.talker, c.satnum, gnss, svid, prn, rtGnss, rtSvid)
		}
		if rtPrn != prn {
			t.Errorf("round trip prn mismatch: %d != %d", rtPrn, prn)
		}
	}
}

func TestNMEASigIDToUBX(t *testing.T) {
	if got := NMEASigIDToUBX(GnssGPS, 99); got != 0 {
		t.Errorf("unknown sigid should map to 0, got %d", got)
	}
	if got := NMEASigIDToUBX(GnssGalileo, 1); got != 1 {
		t.Errorf("NMEASigIDToUBX(Galileo,1) = %d, want 1", got)
	}
}

func TestSigID2Obs(t *testing.T) {
	if got := SigID2Obs(GnssGPS, 0); got != "1C" {
		t.Errorf("SigID2Obs(GPS,0) = %q, want 1C", got)
	}
	if got := SigID2Obs(GnssGPS, 999); got != "" {
		t.Errorf("SigID2Obs unknown should be empty, got %q", got)
	}
}
