package elastichash

import "testing"

func TestProbeSequenceUniformDeterministic(t *testing.T) {
	size := 64
	seqA := newProbeSequence(12345, size, strategyUniform)
	seqB := newProbeSequence(12345, size, strategyUniform)

	for i := 0; i < 50; i++ {
		a := seqA.next()
		b := seqB.next()
		if a != b {
			t.Fatalf("probe %d diverged: %d != %d", i, a, b)
		}
		if a < 0 || a >= size {
			t.Fatalf("probe %d out of range: %d (size %d)", i, a, size)
		}
	}
}

func TestProbeSequenceDifferentSeeds(t *testing.T) {
	size := 128
	seqA := newProbeSequence(1, size, strategyUniform)
	seqB := newProbeSequence(2, size, strategyUniform)

	same := 0
	const n = 32
	for i := 0; i < n; i++ {
		if seqA.next() == seqB.next() {
			same++
		}
	}
	if same == n {
		t.Fatalf("two different seeds produced identical probe sequences over %d probes", n)
	}
}

func TestProbeSequenceNextNoLimitMonotonicCounter(t *testing.T) {
	ResetProbeCount()
	seq := newProbeSequence(99, 16, strategyUniform)
	for i := 0; i < 10; i++ {
		seq.nextNoLimit()
	}
	if got := ProbeCount(); got != 10 {
		t.Fatalf("ProbeCount() = %d, want 10", got)
	}
}

func TestProbeSequenceLinearQuadraticDoubleHash(t *testing.T) {
	size := 32
	for _, strategy := range []probeStrategy{strategyLinear, strategyQuadratic, strategyDoubleHash} {
		seq := newProbeSequence(7, size, strategy)
		for i := 0; i < 20; i++ {
			pos := seq.next()
			if pos < 0 || pos >= size {
				t.Fatalf("strategy %v probe %d out of range: %d", strategy, i, pos)
			}
		}
	}
}

func TestLevelProbeAdvancesMonotonically(t *testing.T) {
	size := 64
	lp := newLevelProbe(newProbeSequence(42, size, strategyUniform))

	prev := lp.pos
	for j := uint32(1); j <= 10; j++ {
		pos := lp.probe(1, j)
		if lp.pos <= prev {
			t.Fatalf("probe(1, %d): cursor %d did not advance past %d", j, lp.pos, prev)
		}
		prev = lp.pos
		if pos < 0 || pos >= size {
			t.Fatalf("probe(1, %d) out of range: %d", j, pos)
		}
	}
}

func TestLevelProbePanicsOnZeroStep(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("probe(1, 0) did not panic")
		}
	}()
	lp := newLevelProbe(newProbeSequence(1, 16, strategyUniform))
	lp.probe(1, 0)
}
