package elastichash

import (
	"fmt"
	"math"
	"math/bits"
)

// maxProbes stands in for "unbounded" probing within a single level: a
// level's size is always small relative to this, so a probe loop only
// runs this long if the batch invariants have actually been broken (see
// Debug in probestats.go).
const maxProbes = math.MaxInt32

// Pair is a plain (key, value) tuple — the Go rendition of what spec.md
// calls "an iterable of (K,V)" for FromPairs/Extend/ConsumePairs, since Go
// has no tuple type of its own.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// Map is an in-memory, single-threaded, generic K→V container built on
// the elastic hashing scheme: a batched, multi-level open-addressing
// table with no resizing and no reorganisation on insert.
//
// A Map is not safe for concurrent use; it has no internal locking
// (spec.md §5).
type Map[K comparable, V any] struct {
	layout      *layout[K, V]
	delta       float64
	maxElements int

	loads      []int // per-level count of filled slots, tombstones included
	tombstones []int // per-level tombstone count

	batchQuotas []int // B[i], one per level
	batchCount  int   // elements placed in the current batch
	batchIndex  int   // current batch index

	hash hashFunc[K]
}

// New constructs an empty Map with interior capacity rounded up to a
// power of two covering at least capacity slots, and slack δ = 2^(-k).
// Panics if capacity <= 0 or k < 1 (spec.md §7: invalid construction is
// fatal).
func New[K comparable, V any](capacity int, deltaExponent int) *Map[K, V] {
	if capacity <= 0 {
		panic("elastichash: capacity must be greater than 0")
	}
	if deltaExponent < 1 {
		panic("elastichash: deltaExponent must be >= 1")
	}

	size := nextPow2(capacity)
	delta := 1.0 / float64(uint64(1)<<uint(deltaExponent))

	lay := newLayout[K, V](size)
	levelCount := lay.levelCount()

	m := &Map[K, V]{
		layout:      lay,
		delta:       delta,
		maxElements: int(float64(size) * (1 - delta)),
		loads:       make([]int, levelCount),
		tombstones:  make([]int, levelCount),
		batchQuotas: make([]int, levelCount),
		hash:        newHasher[K](),
	}

	for i := 0; i < levelCount; i++ {
		m.batchQuotas[i] = batchQuota(i, delta, lay.levelSize)
	}

	return m
}

// NewDefault constructs a Map with δ = 1/8 (k = 3), per spec.md §6.
func NewDefault[K comparable, V any](capacity int) *Map[K, V] {
	return New[K, V](capacity, 3)
}

// Default constructs an empty Map with capacity 16 and δ = 1/8.
func Default[K comparable, V any]() *Map[K, V] {
	return NewDefault[K, V](16)
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// find walks the ordinal cursor k = 1, 2, … decoding (i, j) = φ⁻¹(k-1),
// exactly as spec.md §4.6 describes: a single shared probe sequence
// advances exactly once per k regardless of whether k decodes to a valid
// (i, j) pair, matching levelProbe.probe's own unconditional one-step-
// per-ordinal walk (levelprobe.go) — invalid decodes still consume a
// cursor step, they just have no (i, j) to act on, per
// _examples/original_source/src/bucket/map.rs's get_mut/remove walks.
// Masked per-level by each level's power-of-two size.
func (m *Map[K, V]) find(key K) (level, slot int, found bool) {
	levelCount := m.layout.levelCount()
	lp := newLevelProbe(newProbeSequence(m.hash(key), m.layout.levelSize(0), strategyUniform))

	exhausted := make([]bool, levelCount)
	doneCount := 0

	var k uint64
	for {
		k++
		pos := lp.nextNoLimit()

		i, j, ok := PhiInverse(k - 1)
		if !ok {
			continue
		}

		if i > uint32(levelCount) {
			continue
		}
		levelIdx := int(i) - 1
		if exhausted[levelIdx] {
			continue
		}

		size := m.layout.levelSize(levelIdx)
		actualPos := int(pos & uint64(size-1))
		states := m.layout.levelStates(levelIdx)

		switch classifySlot(states, actualPos) {
		case stateOccupied:
			payload := m.layout.levelPayload(levelIdx)
			if payload[actualPos].key == key {
				return levelIdx, actualPos, true
			}
			if j >= uint32(size) {
				exhausted[levelIdx] = true
				doneCount++
			}
		case stateEmpty:
			exhausted[levelIdx] = true
			doneCount++
		case stateTombstone:
			if j >= uint32(size) {
				exhausted[levelIdx] = true
				doneCount++
			}
		}

		if doneCount >= levelCount {
			return 0, 0, false
		}
	}
}

// Get returns the value stored for key, if present.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	level, slot, found := m.find(key)
	if !found {
		var zero V
		return zero, false
	}
	return m.layout.levelPayload(level)[slot].value, true
}

// GetPointer returns a mutable pointer to the value stored for key, if
// present. The pointer is valid until the next Insert/Remove/Clear.
func (m *Map[K, V]) GetPointer(key K) (*V, bool) {
	level, slot, found := m.find(key)
	if !found {
		return nil, false
	}
	return &m.layout.levelPayload(level)[slot].value, true
}

// Index returns the value stored for key, panicking if key is absent
// (spec.md §6/§7: a precondition violation, not a recoverable error).
func (m *Map[K, V]) Index(key K) V {
	v, ok := m.Get(key)
	if !ok {
		panic("elastichash: no entry found for key")
	}
	return v
}

// IndexPointer returns a mutable pointer to the value stored for key,
// panicking if key is absent.
func (m *Map[K, V]) IndexPointer(key K) *V {
	p, ok := m.GetPointer(key)
	if !ok {
		panic("elastichash: no entry found for key")
	}
	return p
}

// tryTombstone attempts to reuse a tombstone slot near key's first few
// probe positions in each level that currently carries tombstones,
// bounded to 5 probes per level (spec.md §4.6 step 2, grounded on
// try_tombstone in bucket/map.rs). Returns true if a tombstone was
// claimed.
//
// A level's scan stops the moment it sees an empty slot, even though
// bucket/map.rs's try_tombstone does not: find (this file) stops a level's
// search at its first empty slot (spec.md §4.6 get), so claiming a
// tombstone beyond an empty slot in key's own probe sequence would place
// key somewhere find can never reach, making it permanently unretrievable.
func (m *Map[K, V]) tryTombstone(key K, value V) bool {
	for levelIdx := 0; levelIdx < m.layout.levelCount(); levelIdx++ {
		if m.tombstones[levelIdx] == 0 {
			continue
		}

		size := m.layout.levelSize(levelIdx)
		lp := newLevelProbe(newProbeSequence(m.hash(key), size, strategyUniform))
		states := m.layout.levelStates(levelIdx)

		for j := uint32(1); j <= 5; j++ {
			pos := lp.probe(uint32(levelIdx+1), j)
			st := classifySlot(states, pos)
			if st == stateEmpty {
				break
			}
			if st == stateTombstone {
				states[pos] = stateOccupied
				m.layout.levelPayload(levelIdx)[pos] = pair[K, V]{key: key, value: value}
				m.tombstones[levelIdx]--
				return true
			}
		}
	}
	return false
}

// trySeq runs the level probe cursor for (1-based) level i, attempting up
// to maxTry probes, placing key/value at the first empty or tombstone
// slot found. Grounded on try_seq in bucket/map.rs.
func (m *Map[K, V]) trySeq(key K, value V, i int, maxTry int) bool {
	levelIdx := i - 1
	size := m.layout.levelSize(levelIdx)
	lp := newLevelProbe(newProbeSequence(m.hash(key), size, strategyUniform))
	states := m.layout.levelStates(levelIdx)
	payload := m.layout.levelPayload(levelIdx)

	for j := 1; j <= maxTry; j++ {
		pos := lp.probe(uint32(i), uint32(j))

		switch classifySlot(states, pos) {
		case stateEmpty, stateTombstone:
			wasTombstone := states[pos] == stateTombstone
			states[pos] = stateOccupied
			payload[pos] = pair[K, V]{key: key, value: value}
			if wasTombstone {
				// A tombstoned slot is still counted in loads (Remove
				// never lowers it), so reclaiming one only drops the
				// tombstone count, exactly as tryTombstone does.
				m.tombstones[levelIdx]--
				return true
			}
			m.loads[levelIdx]++
			m.advanceBatch(levelIdx)
			return true
		case stateOccupied:
			if payload[pos].key == key {
				payload[pos] = pair[K, V]{key: key, value: value}
				return true
			}
		}
	}
	return false
}

// advanceBatch records a successful placement against the batch cursor
// and rolls it forward once the current batch's quota is met.
func (m *Map[K, V]) advanceBatch(levelIdx int) {
	m.batchCount++
	if m.batchCount < m.batchQuotas[m.batchIndex] {
		return
	}

	m.batchCount = 0
	m.batchIndex++

	if Debug {
		m.assertBatchInvariants(m.batchIndex - 1)
	}
}

// assertBatchInvariants checks the end-of-batch occupancy invariants from
// spec.md §3 for the batch that just completed (0-based index
// justCompleted). Only called when Debug is true.
func (m *Map[K, V]) assertBatchInvariants(justCompleted int) {
	for j := 0; j < justCompleted; j++ {
		size := m.layout.levelSize(j)
		load := m.loads[j]
		expected := size - int(float64(size)*m.delta/2)
		if expected != load {
			panic(fmt.Sprintf(
				"elastichash: invariant violation: after batch %d, level %d has %d elements, want %d",
				justCompleted, j+1, load, expected))
		}
	}

	size := m.layout.levelSize(justCompleted)
	load := m.loads[justCompleted]
	expected := ceilFrac(size, 3, 4)
	if expected != load {
		panic(fmt.Sprintf(
			"elastichash: invariant violation: after batch %d, level %d has %d elements, want %d",
			justCompleted, justCompleted+1, load, expected))
	}
}

// insertViaPolicy places a brand-new key/value according to the §4.5
// batch policy: batch 0 probes level 1 unboundedly; later batches classify
// the active level pair into Case A/B/C. Grounded on insert's dispatch in
// bucket/map.rs.
func (m *Map[K, V]) insertViaPolicy(key K, value V) {
	if m.batchIndex == 0 {
		if m.trySeq(key, value, 1, maxProbes) {
			return
		}
		panic("elastichash: insert exhausted all probes in batch 0 (invariant violation)")
	}

	i := m.batchIndex
	iPlus1 := i + 1
	epsilonI := epsilon(m.loads[i-1], m.layout.levelSize(i-1))
	epsilonIPlus1 := epsilon(m.loads[iPlus1-1], m.layout.levelSize(iPlus1-1))

	switch classify(epsilonI, epsilonIPlus1, m.delta) {
	case caseA:
		bound := f(epsilonI, m.delta)
		if m.trySeq(key, value, i, bound) {
			return
		}
		if m.trySeq(key, value, iPlus1, maxProbes) {
			return
		}
	case caseB:
		if m.trySeq(key, value, iPlus1, maxProbes) {
			return
		}
	case caseC:
		if m.trySeq(key, value, i, maxProbes) {
			return
		}
	}

	panic("elastichash: insert exhausted all probes in all legal cases (invariant violation)")
}

// Insert stores value under key, returning the previous value if key was
// already present (and overwriting it in place — no duplicate keys are
// ever created, per spec.md §3).
func (m *Map[K, V]) Insert(key K, value V) (previous V, hadPrevious bool) {
	if level, slot, found := m.find(key); found {
		payload := m.layout.levelPayload(level)
		previous = payload[slot].value
		payload[slot].value = value
		return previous, true
	}

	if m.tryTombstone(key, value) {
		var zero V
		return zero, false
	}

	m.insertViaPolicy(key, value)
	var zero V
	return zero, false
}

// Remove deletes key from the map, returning its value if present. The
// vacated slot becomes a tombstone (spec.md §3: never downgraded back to
// empty except via Clear).
func (m *Map[K, V]) Remove(key K) (value V, ok bool) {
	level, slot, found := m.find(key)
	if !found {
		var zero V
		return zero, false
	}

	payload := m.layout.levelPayload(level)
	value = payload[slot].value
	payload[slot] = pair[K, V]{}
	m.layout.levelStates(level)[slot] = stateTombstone
	m.tombstones[level]++
	return value, true
}

// Len returns the number of live entries: Σ loads - Σ tombstones.
func (m *Map[K, V]) Len() int {
	total := 0
	for i, load := range m.loads {
		total += load - m.tombstones[i]
	}
	return total
}

// IsEmpty reports whether Len() == 0.
func (m *Map[K, V]) IsEmpty() bool {
	return m.Len() == 0
}

// Clear resets every slot to empty and zeroes all counters, including the
// batch cursor.
func (m *Map[K, V]) Clear() {
	m.layout.reset()
	for i := range m.loads {
		m.loads[i] = 0
		m.tombstones[i] = 0
	}
	m.batchCount = 0
	m.batchIndex = 0
}

// ConsumePairs drains the map, returning every live (key, value) pair in
// physical slot order (no stable logical ordering is guaranteed). The map
// is empty after this call, mirroring the ownership transfer of Rust's
// IntoIterator (bucket/traits.rs).
func (m *Map[K, V]) ConsumePairs() []Pair[K, V] {
	var result []Pair[K, V]
	for i := 0; i < m.layout.levelCount(); i++ {
		states := m.layout.levelStates(i)
		payload := m.layout.levelPayload(i)
		for idx, st := range states {
			if st == stateOccupied {
				result = append(result, Pair[K, V]{Key: payload[idx].key, Value: payload[idx].value})
			}
		}
	}
	m.Clear()
	return result
}

// FromPairs builds a Map containing every pair, later duplicates
// overwriting earlier ones, sized to hold at least len(pairs) entries
// (minimum capacity 16, matching the teacher's/Rust's FromIterator).
func FromPairs[K comparable, V any](pairs []Pair[K, V]) *Map[K, V] {
	// n + n/7 + 1 slots keep n entries within NewDefault's 7/8 load bound.
	n := len(pairs)
	capacity := n + n/7 + 1
	if capacity < 16 {
		capacity = 16
	}
	m := NewDefault[K, V](capacity)
	for _, p := range pairs {
		m.Insert(p.Key, p.Value)
	}
	return m
}

// Extend inserts every pair into m, equivalent to repeated Insert calls.
func (m *Map[K, V]) Extend(pairs []Pair[K, V]) {
	for _, p := range pairs {
		m.Insert(p.Key, p.Value)
	}
}
