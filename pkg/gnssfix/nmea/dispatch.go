package nmea

import "math"
import "github.com/bramburn/gnssfix/pkg/gnssfix/fix"

// handlerFunc is the per-sentence contract: given the talker ID (empty
// for proprietary sentences) and the full field array (field[0] is
// still the tag), mutate the decoder's wired fix.Synthesizer/SkyView
// and return the mask of what it produced.
type handlerFunc func(d *Decoder, talker string, fields []string) fix.Mask

// phraseEntry is one row of the dispatch table described in spec.md
// §4.E/§9: tag to match (post talker-strip for standard sentences,
// full tag for proprietary ones), minimum field count, whether this
// sentence continues rather than ends a cycle, and its handler. The
// table's slice position is the bit index cycleEnders is keyed by, so
// entries are never reordered once appended.
type phraseEntry struct {
	tag           string
	minFields     int
	cycleContinue bool
	handler       handlerFunc
}

var table []phraseEntry
var tagIndex map[string]int

func register(tag string, minFields int, cycleContinue bool, h handlerFunc) {
	if tagIndex == nil {
		tagIndex = make(map[string]int)
	}
	tagIndex[tag] = len(table)
	table = append(table, phraseEntry{tag: tag, minFields: minFields, cycleContinue: cycleContinue, handler: h})
}

// ParseSentence is the decoder's entry point (spec.md §4.E): split
// fields, dispatch to the matching handler, then run the cycle-end
// detector to decide whether this sentence closes an epoch.
func (d *Decoder) ParseSentence(sentence []byte) fix.Mask {
	fields := splitSentence(sentence)
	if len(fields) == 0 || fields[0] == "" {
		return 0
	}
	tagFull := fields[0]
	talker, id := splitTag(tagFull)

	lookup := id
	if talker == "" {
		lookup = tagFull
	}
	idx, ok := tagIndex[lookup]
	if !ok && talker != "" {
		// The talker-stripped id isn't registered (e.g. a proprietary
		// tag that happens to start with a known talker's two letters,
		// like Quectel's "PQVERNO"); fall back to a whole-tag match.
		talker = ""
		idx, ok = tagIndex[tagFull]
	}
	if !ok {
		d.logf("NMEA0183:", "unknown tag "+tagFull)
		return fix.MaskOnline
	}
	entry := table[idx]
	if len(fields) < entry.minFields {
		d.logf("NMEA0183:", "short sentence "+tagFull)
		return fix.MaskOnline
	}

	mask := entry.handler(d, talker, fields)
	d.scr.pendingMask |= mask
	reportNow := d.runCycleDetector(idx, entry, mask)

	if reportNow {
		rep := d.Synth.Report(d.scr.pendingMask)
		d.scr.pendingMask = 0
		if d.OnReport != nil {
			d.OnReport(rep)
		}
		mask |= fix.MaskFix
	}
	return mask
}

// Flush forces a report of whatever has accumulated since the last one,
// if anything beyond ONLINE has been produced. The core has no timers
// of its own (spec.md §5); a host that notices no bytes have arrived
// for a while, or that is shutting the session down, calls Flush so a
// partially-accumulated epoch is not silently lost.
func (d *Decoder) Flush() (fix.Report, bool) {
	if d.scr.pendingMask&^fix.MaskOnline == 0 {
		return fix.Report{}, false
	}
	rep := d.Synth.Report(d.scr.pendingMask)
	d.scr.pendingMask = 0
	if d.OnReport != nil {
		d.OnReport(rep)
	}
	return rep, true
}

// runCycleDetector implements spec.md §4.E's four-step algorithm.
func (d *Decoder) runCycleDetector(idx int, entry phraseEntry, mask fix.Mask) bool {
	reportNow := false

	if d.scr.forceReport {
		d.scr.forceReport = false
		d.scr.lasttag = idx
		d.scr.cycleContinue = entry.cycleContinue
		return true
	}

	if d.scr.latchFracTime && math.Abs(d.scr.thisFracTime-d.scr.lastFracTime) > 0.010 {
		d.scr.latchFracTime = false
		if d.scr.lasttag >= 0 && !d.scr.cycleEnders[d.scr.lasttag] && !d.scr.cycleContinue {
			d.scr.cycleEnders[d.scr.lasttag] = true
			d.scr.cycleEndReliable = true
		}
	} else if d.scr.lasttag >= 0 && d.scr.cycleEnders[d.scr.lasttag] {
		if mask&^fix.MaskOnline != 0 {
			reportNow = true
		}
	}

	if entry.cycleContinue && d.scr.lasttag >= 0 && d.scr.cycleEnders[d.scr.lasttag] {
		delete(d.scr.cycleEnders, d.scr.lasttag)
		d.scr.cycleEnders[idx] = true
	}

	if d.scr.cycleEnders[idx] && !d.scr.gsxMore {
		reportNow = true
	}

	d.scr.lasttag = idx
	d.scr.cycleContinue = entry.cycleContinue
	return reportNow
}

// CycleEndReliable reports whether the cycle-end detector has locked
// onto a stable ender for the device's current message set.
func (d *Decoder) CycleEndReliable() bool { return d.scr.cycleEndReliable }

// forceEarlyReport implements the InconsistentEpoch error kind (spec.md
// §7): a handler that detects GBS HMS mismatch or a stuck GGA timestamp
// calls this to bypass the normal cycle detector and report immediately,
// marking the detector unreliable until it re-learns the ender.
func (d *Decoder) forceEarlyReport() {
	d.scr.cycleEndReliable = false
	d.scr.forceReport = true
}
