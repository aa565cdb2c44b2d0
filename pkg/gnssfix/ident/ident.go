// Package ident holds the GNSS/signal identifier tables shared by the
// NMEA and UBX decoders: the NMEA talker-to-constellation map, the
// extended-PRN <-> (gnssId, svId) conversions, the NMEA-to-UBX signal id
// table, and the RINEX-3 observation code lookup.
package ident

// GNSS constellation ids, matching u-blox's gnssId numbering (glossary).
const (
	GnssGPS     = 0
	GnssSBAS    = 1
	GnssGalileo = 2
	GnssBeiDou  = 3
	GnssIMES    = 4
	GnssQZSS    = 5
	GnssGLONASS = 6
	GnssIRNSS   = 7
	GnssUnknown = -1
)

// Extended-PRN range bases (NMEA 4.0+ extended numbering).
const (
	prnBaseGPS     = 0
	prnBaseSBAS    = 87  // satnum 33..64 -> extended 120..151
	prnBaseGLONASS = 0   // satnum 65..96 is already the extended number
	prnBaseQZSS    = 0   // satnum 193..200 is already the extended number; 201..202 fall in the Quectel BeiDou range below
	prnBaseGalileo = 300 // satnum 1..36 -> extended 301..336
	prnBaseBeiDou  = 400 // satnum 1..37 -> extended 401..437
	prnBaseIRNSS   = 0   // satnum 500..509 is already the extended number

	// Quectel firmware quirks: some receivers report Galileo/BeiDou
	// satellites in these alternate NMEA satnum ranges instead of the
	// documented ones above.
	quectelGalileoBase = 100 // satnum 101..136
	quectelBeiDouBase  = 200 // satnum 201..264 (vendors disagree on the
	// upper bound; see DESIGN.md for the decision taken here)
)

// Talker2Gnss maps an NMEA talker ID to the GNSS constellation it
// identifies, when the talker alone is enough to disambiguate (GSA/GSV
// talkers before NMEA 4.10 added an explicit trailing gnssId field).
var Talker2Gnss = map[string]int{
	"GP": GnssGPS,
	"GN": GnssUnknown, // multi-constellation; rely on satnum/trailing field
	"GL": GnssGLONASS,
	"GA": GnssGalileo,
	"GB": GnssBeiDou,
	"BD": GnssBeiDou,
	"GQ": GnssQZSS,
	"QZ": GnssQZSS,
	"GI": GnssIRNSS,
	"PQ": GnssUnknown, // Quectel proprietary, satnum range disambiguates
}

// PrnMap implements the documented NMEA-satnum -> (extended PRN, ubx
// gnssId, ubx svId) range map. talker disambiguates constellations that
// share a raw satnum range (GPS/Galileo/BeiDou all start at 1); when
// nmeaGnssID is an NMEA 4.10 system id (1 GPS, 2 GLONASS, 3 Galileo,
// 4 BeiDou, 5 QZSS, 6 NavIC) it takes priority over the talker; any
// other value (e.g. -1 for "field absent") falls back to the talker.
// Unknown ranges return PRN=0.
func PrnMap(talker string, satnum int, nmeaGnssID int) (extendedPRN, ubxGnssID, ubxSvID int) {
	var gnss int
	switch nmeaGnssID {
	case 1:
		gnss = GnssGPS
	case 2:
		gnss = GnssGLONASS
	case 3:
		gnss = GnssGalileo
	case 4:
		gnss = GnssBeiDou
	case 5:
		gnss = GnssQZSS
	case 6:
		gnss = GnssIRNSS
	default:
		gnss = Talker2Gnss[talker]
	}

	switch {
	case satnum >= quectelGalileoBase+1 && satnum <= quectelGalileoBase+36:
		svid := satnum - quectelGalileoBase
		return prnBaseGalileo + svid, GnssGalileo, svid

	case satnum >= quectelBeiDouBase+1 && satnum <= quectelBeiDouBase+64:
		svid := satnum - quectelBeiDouBase
		return prnBaseBeiDou + svid, GnssBeiDou, svid

	case gnss == GnssGalileo && satnum >= 1 && satnum <= 36:
		return prnBaseGalileo + satnum, GnssGalileo, satnum

	case gnss == GnssBeiDou && satnum >= 1 && satnum <= 37:
		return prnBaseBeiDou + satnum, GnssBeiDou, satnum

	case satnum >= 1 && satnum <= 32 && (gnss == GnssGPS || gnss == GnssUnknown):
		return prnBaseGPS + satnum, GnssGPS, satnum

	case satnum >= 33 && satnum <= 64:
		svid := satnum + prnBaseSBAS
		return svid, GnssSBAS, svid

	case satnum >= 65 && satnum <= 96:
		svid := satnum - 64
		return prnBaseGLONASS + satnum, GnssGLONASS, svid

	case satnum >= 193 && satnum <= 202:
		svid := satnum - 192
		return prnBaseQZSS + satnum, GnssQZSS, svid

	case satnum >= 500 && satnum <= 509:
		svid := satnum - 499
		return prnBaseIRNSS + satnum, GnssIRNSS, svid

	default:
		return 0, GnssUnknown, 0
	}
}

// UbxToPrn is the structural inverse of PrnMap's extended-PRN encoding:
// given a canonical extended PRN, it recovers (extendedPRN, gnssId,
// svId). It also accepts the parts of the Quectel quirk ranges that do
// not overlap a canonical range (101..119 as Galileo, 203..264 as
// BeiDou), for callers that only have a raw satnum and no talker
// context; 120..136 decode as SBAS and 201..202 as QZSS. Quirk inputs
// do not round-trip: the PRN returned for them is the canonical one.
func UbxToPrn(extendedPRN int) (prn, gnssID, svID int) {
	switch {
	case extendedPRN >= 1 && extendedPRN <= 32:
		return extendedPRN, GnssGPS, extendedPRN
	case extendedPRN >= 120 && extendedPRN <= 158:
		return extendedPRN, GnssSBAS, extendedPRN
	case extendedPRN >= 65 && extendedPRN <= 96:
		return extendedPRN, GnssGLONASS, extendedPRN - 64
	case extendedPRN >= 193 && extendedPRN <= 202:
		return extendedPRN, GnssQZSS, extendedPRN - 192
	case extendedPRN >= 301 && extendedPRN <= 336:
		return extendedPRN, GnssGalileo, extendedPRN - 300
	case extendedPRN >= 401 && extendedPRN <= 437:
		return extendedPRN, GnssBeiDou, extendedPRN - 400
	case extendedPRN >= 500 && extendedPRN <= 509:
		return extendedPRN, GnssIRNSS, extendedPRN - 499
	case extendedPRN >= quectelGalileoBase+1 && extendedPRN <= quectelGalileoBase+36:
		svid := extendedPRN - quectelGalileoBase
		return 300 + svid, GnssGalileo, svid
	case extendedPRN >= quectelBeiDouBase+1 && extendedPRN <= quectelBeiDouBase+64:
		svid := extendedPRN - quectelBeiDouBase
		return 400 + svid, GnssBeiDou, svid
	default:
		return 0, GnssUnknown, 0
	}
}

// nmeaSigIDToUbx maps [gnssID][nmeaSigID] to a u-blox sigId. NMEA 4.11
// uses sigID 99 for "unknown" on every constellation, which a fixed
// array can't hold alongside the dense 0..7 ids, so each row is a map.
var nmeaSigIDToUbx = [8]map[int]int{
	GnssGPS:     {0: 0, 1: 0, 5: 3, 6: 4, 99: 0},
	GnssSBAS:    {0: 0, 1: 0, 99: 0},
	GnssGalileo: {0: 0, 7: 0, 1: 1, 2: 1, 3: 3, 4: 5, 5: 6, 99: 0},
	GnssBeiDou:  {0: 0, 1: 0, 11: 1, 12: 1, 3: 3, 5: 5, 99: 0},
	GnssIMES:    {99: 0},
	GnssQZSS:    {0: 0, 1: 0, 5: 4, 4: 5, 99: 0},
	GnssGLONASS: {0: 0, 1: 0, 3: 2, 99: 0},
	GnssIRNSS:   {0: 0, 5: 0, 99: 0},
}

// NMEASigIDToUBX converts an NMEA signal id to a u-blox sigId for the
// given constellation. sigID 99 ("unknown") and any other unmapped entry
// return 0.
func NMEASigIDToUBX(gnssID, nmeaSigID int) int {
	if gnssID < 0 || gnssID >= len(nmeaSigIDToUbx) {
		return 0
	}
	return nmeaSigIDToUbx[gnssID][nmeaSigID]
}

type obsKey struct {
	gnssID, sigID int
}

// sigID2ObsTable is a small table of RINEX-3 observation codes for the
// signals this module cares about (enough to let a RINEX-writing host
// label a raw measurement; full RINEX output itself is out of scope).
var sigID2ObsTable = map[obsKey]string{
	{GnssGPS, 0}:     "1C",
	{GnssGPS, 3}:     "2L",
	{GnssGPS, 4}:     "5Q",
	{GnssGalileo, 0}: "1C",
	{GnssGalileo, 1}: "1B",
	{GnssGalileo, 5}: "7Q",
	{GnssGalileo, 6}: "8Q",
	{GnssBeiDou, 0}:  "2I",
	{GnssBeiDou, 1}:  "1P",
	{GnssBeiDou, 3}:  "7I",
	{GnssGLONASS, 0}: "1C",
	{GnssGLONASS, 2}: "2C",
	{GnssQZSS, 0}:    "1C",
	{GnssQZSS, 4}:    "2L",
	{GnssQZSS, 5}:    "5Q",
	{GnssSBAS, 0}:    "1C",
}

// SigID2Obs returns the RINEX-3 observation code for (gnssID, sigID), or
// "" if the pair is not in the table.
func SigID2Obs(gnssID, sigID int) string {
	return sigID2ObsTable[obsKey{gnssID, sigID}]
}
