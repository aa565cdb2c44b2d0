// Package gnssfix is the module root: it holds the handful of
// user-facing sentinel conditions shared across sub-packages, adapted
// from the teacher's pkg/caster.Error.
package gnssfix

// Error is a constant, comparable error type for the small set of
// conditions a caller is expected to check with errors.Is, mirroring
// pkg/caster.Error in the teacher repo.
type Error string

func (e Error) Error() string { return string(e) }

// ErrOffline is returned by session.Session.Run when no valid packet
// has been framed for the configured grace period. Detecting this is a
// hosting-layer concern (spec.md §8's "offline" boundary case), not the
// core decoders', which have no notion of wall-clock time.
const ErrOffline = Error("session offline: no valid packet received within grace period")
