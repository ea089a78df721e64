package elastichash

import (
	"math"
	"testing"
)

func TestCeilFrac(t *testing.T) {
	tests := []struct {
		size, num, den, want int
	}{
		{8, 3, 4, 6},
		{4, 3, 4, 3},
		{1, 3, 4, 1},
		{16, 3, 4, 12},
		{100, 3, 4, 75},
		{101, 3, 4, 76},
	}
	for _, tt := range tests {
		if got := ceilFrac(tt.size, tt.num, tt.den); got != tt.want {
			t.Errorf("ceilFrac(%d, %d, %d) = %d, want %d", tt.size, tt.num, tt.den, got, tt.want)
		}
	}
}

func TestEpsilon(t *testing.T) {
	tests := []struct {
		load, size int
		want       float64
	}{
		{0, 8, 1.0},
		{8, 8, 0.0},
		{4, 8, 0.5},
	}
	for _, tt := range tests {
		if got := epsilon(tt.load, tt.size); got != tt.want {
			t.Errorf("epsilon(%d, %d) = %v, want %v", tt.load, tt.size, got, tt.want)
		}
	}
}

func TestBatchQuotaLevelZero(t *testing.T) {
	lay := newLayout[int64, int64](16)
	got := batchQuota(0, 0.125, lay.levelSize)
	want := ceilFrac(lay.levelSize(0), 3, 4)
	if got != want {
		t.Errorf("batchQuota(0, ...) = %d, want %d", got, want)
	}
}

func TestBatchQuotaPositive(t *testing.T) {
	lay := newLayout[int64, int64](4096)
	for i := 0; i < lay.levelCount(); i++ {
		q := batchQuota(i, 0.125, lay.levelSize)
		if q <= 0 {
			t.Errorf("batchQuota(%d, ...) = %d, want > 0", i, q)
		}
	}
}

func TestClassify(t *testing.T) {
	delta := 0.125
	tests := []struct {
		name          string
		epsilonI      float64
		epsilonIPlus1 float64
		want          batchCase
	}{
		{"both roomy", 0.9, 0.9, caseA},
		{"level i nearly full", delta / 4, 0.9, caseB},
		{"level i+1 too full for case A", 0.9, 0.1, caseC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.epsilonI, tt.epsilonIPlus1, delta); got != tt.want {
				t.Errorf("classify(%v, %v, %v) = %v, want %v", tt.epsilonI, tt.epsilonIPlus1, delta, got, tt.want)
			}
		})
	}
}

func TestFBounded(t *testing.T) {
	delta := 0.125
	got := f(0.5, delta)
	lnInvEpsilon := math.Log(1 / 0.5)
	want := int(fConstant * math.Min(lnInvEpsilon*lnInvEpsilon, math.Log(1/delta)))
	if got != want {
		t.Errorf("f(0.5, %v) = %d, want %d", delta, got, want)
	}
	if got < 0 {
		t.Errorf("f(0.5, %v) = %d, want >= 0", delta, got)
	}
}
