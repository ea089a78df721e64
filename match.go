package elastichash

import (
	"math/bits"
	"unsafe"
)

// matchState scans up to 16 consecutive slot-state bytes looking for
// ones equal to want, returning a bitmask with bit k set when states[k]
// matches. ok is false if states is shorter than 16 bytes, mirroring the
// short-slice contract of the teacher's intended (but never defined)
// MatchByte (_examples/thepudds-swisstable/map.go, match_test.go).
//
// This is the portable counterpart of the SIMD PCMPEQB/PMOVMSKB sequence
// the teacher's avo generator (tools/genmatch here) produces: a classic
// SWAR (SIMD-within-a-register) byte-equality trick over two uint64
// words instead of one 128-bit SSE2 register.
func matchState(want slotState, states []byte) (mask uint32, ok bool) {
	if len(states) < 16 {
		return 0, false
	}

	lo := loadWord(states[0:8])
	hi := loadWord(states[8:16])

	mask = swarEqualMask(lo, uint64(want)) | swarEqualMask(hi, uint64(want))<<8
	return mask, true
}

func loadWord(b []byte) uint64 {
	var w uint64
	for i := 0; i < 8; i++ {
		w |= uint64(b[i]) << (8 * i)
	}
	return w
}

// swarEqualMask returns an 8-bit mask (one bit per byte lane of word)
// indicating which bytes of word equal want (0..255).
//
// This deliberately does NOT use the classic branchless "haszero" SWAR
// trick (xor lanes with want, subtract 0x0101.., mask high bits): that
// formula only proves "word has at least one zero byte somewhere", not an
// exact per-lane mask — a zero byte's borrow-out corrupts the computed
// high bit of the very next (more significant) lane whenever that lane's
// own value is small, producing false positives there. Extracting each
// lane explicitly avoids that cross-lane interference entirely.
func swarEqualMask(word, want uint64) uint32 {
	var mask uint32
	for i := 0; i < 8; i++ {
		if byte(word>>(8*i)) == byte(want) {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

// firstMatch returns the index of the lowest set bit in mask, or 16 if
// mask is zero (no match), matching the teacher's own
// bits.TrailingZeros32 idiom for walking a match mask (map.go's Get/Set).
func firstMatch(mask uint32) int {
	if mask == 0 {
		return 16
	}
	return bits.TrailingZeros32(mask)
}

// statesAsBytes reinterprets states as a []byte without copying: slotState
// is a byte under the hood, so the two share an identical memory layout.
// This is what lets classifySlot hand matchState a real window of a
// level's control bytes instead of allocating a throwaway copy per probe.
func statesAsBytes(states []slotState) []byte {
	if len(states) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&states[0])), len(states))
}

// classifySlot resolves the state of states[pos], the one thing find,
// tryTombstone, and trySeq each need out of every probe. It prefers a
// matchState scan of the 16-byte window starting at pos — the common case,
// since levels are almost always far larger than 16 slots — trying each of
// the three possible states in turn and taking whichever one's mask has
// bit 0 set. It falls back to a direct byte read for the short tail levels
// (size < 16) where matchState's window contract can't be satisfied, and
// for a pos within 16 of the end of its level.
func classifySlot(states []slotState, pos int) slotState {
	if pos+16 <= len(states) {
		window := statesAsBytes(states)[pos : pos+16]
		for _, want := range [...]slotState{stateEmpty, stateOccupied, stateTombstone} {
			if mask, ok := matchState(want, window); ok && firstMatch(mask) == 0 {
				return want
			}
		}
	}
	return states[pos]
}
