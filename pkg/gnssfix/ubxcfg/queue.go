// Package ubxcfg implements the UBX device configuration state machine
// (spec.md §4.H): a cooperative, single-threaded "init queue" that
// probes a u-blox receiver's firmware and enables the message set the
// rest of the decoder needs, one write per inbound UBX packet so the
// receiver's small input FIFO is never overrun.
package ubxcfg

import "github.com/bramburn/gnssfix/pkg/gnssfix/scalar"

// Writer is the outbound half of a Transport: Queue only ever calls
// Write, never reads.
type Writer interface {
	Write(p []byte) (int, error)
}

// Stage numbers, matching spec.md §4.H's bullet list exactly (not
// contiguous; gaps are stages this implementation has nothing to do at,
// kept so the numbering stays comparable to the spec prose).
const (
	stageEnableBaseline  = 0
	stageRetryMonVer     = 10
	stageBranchProtver   = 20
	stageDisableNMEAFrom = 50
	stageDisableNMEAStep = 3
	stageEnableEOE       = 71
	stageRequestTimeLS   = 75
	stageRequestUniqID   = 80
	stageEnableHWOrRF    = 83
	stageDisableHighSet  = 87
	stageDisableLowSet   = 90
	stageRequestBufStats = 93
	stageDone            = -1
)

// nmeaDisableList is the redundant NMEA sentence set turned off once a
// UBX session has its own NAV messages enabled; one sentence per
// stageDisableNMEAStep-spaced stage (50, 53, 56, ...).
var nmeaDisableList = []byte{
	nmeaGLL, nmeaGSA, nmeaGSV, nmeaVTG, nmeaGGA, nmeaRMC,
}

// NMEA standard-sentence ids, as CFG-MSG's msgId byte for class 0xF0
// (the UBX-NMEA compatibility class).
const (
	nmeaGGA = 0x00
	nmeaGLL = 0x01
	nmeaGSA = 0x02
	nmeaGSV = 0x03
	nmeaRMC = 0x04
	nmeaVTG = 0x05
)

// UBX class/id pairs this queue writes or polls.
const (
	classNAV = 0x01
	classRXM = 0x02
	classCFG = 0x06
	classMON = 0x0A
	classSEC = 0x27
	classNMEACompat = 0xF0

	idNavPosecef = 0x01
	idNavSol     = 0x06
	idNavPvt     = 0x07
	idNavDop     = 0x04
	idNavVelecef = 0x11
	idNavTimegps = 0x20
	idNavClock   = 0x22
	idNavTimels  = 0x26
	idNavSvinfo  = 0x30
	idNavSat     = 0x35
	idNavSig     = 0x43
	idNavEOE     = 0x61

	idCfgMsg = 0x01

	idMonVer   = 0x04
	idMonRxbuf = 0x07
	idMonTxbuf = 0x08
	idMonHw    = 0x09
	idMonComms = 0x36
	idMonRf    = 0x38

	idSecUniqid = 0x03
)

// Queue is the per-session staged configuration dialogue. Step must be
// called once per inbound UBX packet; it performs whatever write (if
// any) the current stage calls for, then advances.
type Queue struct {
	w       Writer
	Passive bool

	stage       int
	active      bool
	subtype     string
	lastProtver float64
}

// New returns a Queue that writes through w. It starts inactive; call
// Start to begin the dialogue.
func New(w Writer) *Queue {
	return &Queue{w: w, stage: stageDone}
}

// Start begins (or restarts) the staged dialogue at its first stage.
// Spec.md §4.H: "Discovery of a new protver restarts the queue at 0."
func (q *Queue) Start() {
	q.stage = stageEnableBaseline
	q.active = true
}

// SetSubtype records the device subtype string discovered so far (or
// "" if none); stageRetryMonVer only re-polls MON-VER while this is
// empty.
func (q *Queue) SetSubtype(s string) { q.subtype = s }

// Active reports whether the queue still has work to do.
func (q *Queue) Active() bool { return q.active }

// Step executes the current stage (if passive mode doesn't suppress
// writes) and advances to the next one. protver is the most recently
// discovered UBX protocol version (0 if still unknown).
func (q *Queue) Step(protver float64) {
	if !q.active {
		return
	}
	if !q.Passive {
		q.runStage(q.stage, protver)
	}
	q.stage = q.nextStage(q.stage)
	if q.stage == stageDone {
		q.active = false
	}
}

func (q *Queue) runStage(stage int, protver float64) {
	switch {
	case stage == stageEnableBaseline:
		q.enableMsg(classNAV, idNavDop, 1)
		q.enableMsg(classNAV, idNavTimegps, 1)
		q.enableMsg(classNAV, idNavClock, 1)

	case stage == stageRetryMonVer:
		if q.subtype == "" {
			q.poll(classMON, idMonVer)
		}

	case stage == stageBranchProtver:
		if protver < 15 {
			q.enableMsg(classNAV, idNavSol, 1)
			q.enableMsg(classNAV, idNavSvinfo, 1)
		} else {
			q.enableMsg(classNAV, idNavPosecef, 1)
			q.enableMsg(classNAV, idNavPvt, 1)
			q.enableMsg(classNAV, idNavVelecef, 1)
			q.enableMsg(classNAV, idNavSat, 1)
			q.enableMsg(classNAV, idNavSig, 1)
		}

	case stage >= stageDisableNMEAFrom && stage < stageEnableEOE &&
		(stage-stageDisableNMEAFrom)%stageDisableNMEAStep == 0:
		idx := (stage - stageDisableNMEAFrom) / stageDisableNMEAStep
		if idx < len(nmeaDisableList) {
			q.disableNMEA(nmeaDisableList[idx])
		}

	case stage == stageEnableEOE:
		if protver >= 15 {
			q.enableMsg(classNAV, idNavEOE, 1)
		}

	case stage == stageRequestTimeLS:
		if protver >= 15 {
			q.enableMsg(classNAV, idNavTimels, 255)
		}

	case stage == stageRequestUniqID:
		if protver >= 18 {
			q.poll(classSEC, idSecUniqid)
		}

	case stage == stageEnableHWOrRF:
		if protver < 27 {
			q.enableMsg(classMON, idMonHw, 4)
		} else {
			q.enableMsg(classMON, idMonRf, 4)
		}

	case stage == stageDisableHighSet:
		if protver < 15 {
			q.disableMsg(classNAV, idNavPosecef)
			q.disableMsg(classNAV, idNavPvt)
			q.disableMsg(classNAV, idNavVelecef)
			q.disableMsg(classNAV, idNavSat)
			q.disableMsg(classNAV, idNavSig)
		}

	case stage == stageDisableLowSet:
		if protver >= 15 && protver < 27 {
			q.disableMsg(classNAV, idNavSol)
			q.disableMsg(classNAV, idNavSvinfo)
		}

	case stage == stageRequestBufStats:
		if protver < 27 {
			q.poll(classMON, idMonRxbuf)
			q.poll(classMON, idMonTxbuf)
		} else {
			q.poll(classMON, idMonComms)
		}
	}
}

// nextStage returns the stage following the given one, per the ordered
// list in spec.md §4.H.
func (q *Queue) nextStage(stage int) int {
	switch {
	case stage == stageEnableBaseline:
		return stageRetryMonVer
	case stage == stageRetryMonVer:
		return stageBranchProtver
	case stage == stageBranchProtver:
		return stageDisableNMEAFrom
	case stage >= stageDisableNMEAFrom &&
		stage < stageDisableNMEAFrom+stageDisableNMEAStep*len(nmeaDisableList):
		next := stage + stageDisableNMEAStep
		if next >= stageDisableNMEAFrom+stageDisableNMEAStep*len(nmeaDisableList) {
			return stageEnableEOE
		}
		return next
	case stage == stageEnableEOE:
		return stageRequestTimeLS
	case stage == stageRequestTimeLS:
		return stageRequestUniqID
	case stage == stageRequestUniqID:
		return stageEnableHWOrRF
	case stage == stageEnableHWOrRF:
		return stageDisableHighSet
	case stage == stageDisableHighSet:
		return stageDisableLowSet
	case stage == stageDisableLowSet:
		return stageRequestBufStats
	case stage == stageRequestBufStats:
		return stageDone
	default:
		return stageDone
	}
}

func (q *Queue) enableMsg(class, id byte, rate byte) {
	WriteFrame(q.w, classCFG, idCfgMsg, []byte{class, id, rate})
}

func (q *Queue) disableMsg(class, id byte) {
	q.enableMsg(class, id, 0)
}

func (q *Queue) disableNMEA(nmeaID byte) {
	WriteFrame(q.w, classCFG, idCfgMsg, []byte{classNMEACompat, nmeaID, 0})
}

func (q *Queue) poll(class, id byte) {
	WriteFrame(q.w, class, id, nil)
}

// WriteFrame encodes and writes one outbound UBX frame: header, class,
// id, little-endian length, payload, then the Fletcher-8 checksum
// (spec.md §4.H's ubx_write).
func WriteFrame(w Writer, class, id byte, payload []byte) {
	if w == nil {
		return
	}
	frame := make([]byte, 0, 8+len(payload))
	frame = append(frame, 0xB5, 0x62, class, id, byte(len(payload)), byte(len(payload)>>8))
	frame = append(frame, payload...)
	ckA, ckB := scalar.Fletcher8(frame[2:])
	frame = append(frame, ckA, ckB)
	w.Write(frame)
}
