package elastichash

import "math"

// batchCase classifies how an ongoing insertion should probe the two
// levels active for the current batch.
type batchCase int

const (
	// caseA: both levels have room; bounded probes in level i, then
	// unbounded probes in level i+1 on failure.
	caseA batchCase = iota
	// caseB: level i is near its batch cap; probe level i+1 only.
	caseB
	// caseC: level i+1 is too full to absorb more this batch; probe
	// level i only.
	caseC
)

// fConstant is the C in f(ε) = ⌊C · min(ln(1/ε)², ln(1/δ))⌋.
const fConstant = 3000

// f bounds the per-key expected probe work for Case A's bounded attempt
// in level i, per spec.md §4.5.
func f(epsilon, delta float64) int {
	lnInvEpsilon := math.Log(1 / epsilon)
	bound := math.Min(lnInvEpsilon*lnInvEpsilon, math.Log(1/delta))
	return int(fConstant * bound)
}

// batchQuota computes B[i] (0-based i): the number of successful
// insertions that close out batch i, per spec.md §3.
//
//	B[0]   = ⌈0.75·|L1|⌉
//	B[i]   = |Li| − ⌊δ·|Li|/2⌋ − ⌈0.75·|Li|⌉ + ⌈0.75·|Li+1|⌉   for i ≥ 1
func batchQuota(i int, delta float64, levelSize func(int) int) int {
	if i == 0 {
		return ceilFrac(levelSize(0), 3, 4)
	}
	prevSize := levelSize(i - 1)
	curSize := levelSize(i)
	return prevSize - int(float64(prevSize)*delta/2) - ceilFrac(prevSize, 3, 4) + ceilFrac(curSize, 3, 4)
}

// ceilFrac returns ⌈size·num/den⌉ without floating point, to keep batch
// quota arithmetic exact for the 0.75 fractions the spec uses throughout.
func ceilFrac(size, num, den int) int {
	return (size*num + den - 1) / den
}

// epsilon computes the instantaneous emptiness of a level: 1 - load/size.
func epsilon(load, size int) float64 {
	return 1 - float64(load)/float64(size)
}

// classify determines which of Case A/B/C applies for the active level
// pair (i, i+1), given their current ε and the map's δ.
func classify(epsilonI, epsilonIPlus1, delta float64) batchCase {
	switch {
	case epsilonI > delta/2 && epsilonIPlus1 > 0.25:
		return caseA
	case epsilonI <= delta/2:
		return caseB
	default:
		return caseC
	}
}
