package elastichash

// probeStrategy selects how a probeSequence advances between probes.
// Only uniform is used by the map core; the others exist for
// experimentation and are exercised directly by tests.
type probeStrategy int

const (
	strategyLinear probeStrategy = iota
	strategyQuadratic
	strategyDoubleHash
	strategyUniform
)

// Uniform-strategy LCG constants, matching
// _examples/original_source/src/probe.rs exactly.
const (
	lcgMultiplier uint64 = 6364136223846793005
	lcgIncrement  uint64 = 1442695040888963407
)

// probeSequence produces a lazy, unbounded sequence of slot indices over
// a single level of known (power-of-two) size.
type probeSequence struct {
	initialPos    int
	currentStep   uint64
	size          int
	strategy      probeStrategy
	secondaryHash int
	randomState   uint64
}

// newProbeSequence builds a probe sequence over a level of the given
// size, seeded from the key's 64-bit hash.
func newProbeSequence(hash uint64, size int, strategy probeStrategy) *probeSequence {
	initialPos := int(hash) % size
	if initialPos < 0 {
		initialPos += size
	}

	var secondaryHash int
	if strategy == strategyDoubleHash {
		secondaryHash = 1 + int(hash)%(size-1)
	}

	return &probeSequence{
		initialPos:    initialPos,
		size:          size,
		strategy:      strategy,
		secondaryHash: secondaryHash,
		randomState:   hash,
	}
}

// next advances the sequence and returns the next slot index, bounded to
// the level size.
func (p *probeSequence) next() int {
	pos := p.nextNoLimit()
	pos %= uint64(p.size)
	return int(pos)
}

// nextNoLimit advances the sequence and returns the pre-modulus ordinal,
// incrementing the process-wide probe counter (see probestats.go).
func (p *probeSequence) nextNoLimit() uint64 {
	incProbeCount()

	var pos uint64
	switch p.strategy {
	case strategyLinear:
		pos = uint64(p.initialPos) + p.currentStep
	case strategyQuadratic:
		pos = uint64(p.initialPos) + p.currentStep + p.currentStep*p.currentStep
	case strategyDoubleHash:
		pos = uint64(p.initialPos) + p.currentStep*uint64(p.secondaryHash)
	case strategyUniform:
		p.randomState = p.randomState*lcgMultiplier + lcgIncrement
		randomIncrement := p.randomState >> 32
		pos = uint64(p.initialPos) + randomIncrement
	default:
		panic("elastichash: unknown probe strategy")
	}

	p.currentStep++
	return pos
}
