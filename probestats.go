package elastichash

import "sync/atomic"

// probeCounter is the process-wide probe-activity counter described in
// spec.md §5/§9: an observability hook with no correctness role,
// grounded on _examples/original_source/src/probe.rs's PROBE_NUM. Every
// probeSequence.nextNoLimit call increments it; tests use it as a
// regression guard on probe counts (see map_test.go's tombstone-reuse
// scenario), never to drive behavior.
var probeCounter uint64

func incProbeCount() {
	atomic.AddUint64(&probeCounter, 1)
}

// ResetProbeCount zeroes the process-wide probe counter.
func ResetProbeCount() {
	atomic.StoreUint64(&probeCounter, 0)
}

// ProbeCount returns the current process-wide probe counter.
func ProbeCount() uint64 {
	return atomic.LoadUint64(&probeCounter)
}

// Debug gates the end-of-batch invariant assertions described in
// spec.md §7 ("Invariant violation ... only checked in debug/test
// builds"). Mirrors the teacher's own `const debug = false` switch
// (map.go), except as a runtime var rather than a compile-time const, so
// it can be flipped on in tests without a separate build.
var Debug = false
