package nmea

import "math"

// geoidRef is one WGS-84 geoid undulation reference point (degrees,
// meters). Values are EGM96 samples, grounded on the sibling gnssgo
// pack's unittest/geoid_test.go expected-value table (itself citing
// http://sps.unavco.org/geoid); this is a coarse nearest-neighbor
// approximation, not a full EGM96 grid, since no geoid grid data file
// travels with this module.
type geoidRef struct {
	lat, lon, sep float64
}

var geoidTable = []geoidRef{
	{90.000, 80.000, 13.606},
	{-90.000, -60.000, -29.534},
	{-90.000, 300.000, -29.534},
	{30.000, 0.000, 35.387},
	{-30.000, 360.000, 21.409},
	{10.000, 45.000, -20.486},
	{-60.123, 135.123, -33.152},
	{19.999, 135.000, 41.602},
	{50.001, 135.000, 20.555},
	{35.000, 119.999, 4.386},
	{35.000, 150.001, 14.779},
	{20.000, 120.000, 21.269},
	{50.000, 150.000, 20.277},
	{35.000, 135.000, 36.355},
	{45.402, 141.750, 27.229}, // wakkanai
	{24.454, 122.942, 21.652}, // ishigaki
	{33.120, 139.797, 43.170}, // hachijo
	{30.000, 135.000, 36.017}, // taiheiyo
}

// geoidSeparation estimates the WGS-84 geoid separation at latDeg/lonDeg
// by nearest-neighbor lookup in geoidTable, for GGA rows that omit
// field 11 (spec.md's GGA row: "geoid_sep (compute from WGS-84 table if
// missing)"). lonDeg may be either sign; the table is normalized to
// 0..360 on lookup.
func geoidSeparation(latDeg, lonDeg float64) float64 {
	lon := math.Mod(lonDeg, 360)
	if lon < 0 {
		lon += 360
	}
	best := geoidTable[0]
	bestDist := math.MaxFloat64
	for _, ref := range geoidTable {
		dLat := latDeg - ref.lat
		dLon := lon - ref.lon
		if dLon > 180 {
			dLon -= 360
		} else if dLon < -180 {
			dLon += 360
		}
		dist := dLat*dLat + dLon*dLon
		if dist < bestDist {
			bestDist = dist
			best = ref
		}
	}
	return best.sep
}
