package elastichash

import (
	"bytes"
	"testing"
)

func TestMatchState(t *testing.T) {
	tests := []struct {
		name     string
		want     slotState
		buffer   []byte
		wantMask uint32
		wantOk   bool
	}{
		{
			"match 3",
			42,
			[]byte{42, 0, 0, 42, 42, 0, 17, 17, 0, 0, 0, 0, 0, 0, 0, 0},
			1<<0 | 1<<3 | 1<<4,
			true,
		},
		{
			"match 1 at end",
			42,
			[]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 42},
			1 << 15,
			true,
		},
		{
			"match 2 at start and end",
			42,
			[]byte{42, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 42},
			1<<0 | 1<<15,
			true,
		},
		{
			"match all",
			42,
			[]byte{42, 42, 42, 42, 42, 42, 42, 42, 42, 42, 42, 42, 42, 42, 42, 42},
			1<<16 - 1,
			true,
		},
		{
			"match none - no match",
			255,
			[]byte{42, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 42},
			0,
			true,
		},
		{
			"match none - len short by 1",
			42,
			[]byte{42, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			0,
			false,
		},
		{
			"match empty state",
			stateEmpty,
			[]byte{0, 1, 2, 0, 1, 2, 0, 1, 2, 0, 1, 2, 0, 1, 2, 0},
			1<<0 | 1<<3 | 1<<6 | 1<<9 | 1<<12 | 1<<15,
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMask, gotOk := matchState(tt.want, tt.buffer)
			if gotMask != tt.wantMask {
				t.Errorf("matchState() gotMask = %v, want %v", gotMask, tt.wantMask)
			}
			if gotOk != tt.wantOk {
				t.Errorf("matchState() gotOk = %v, want %v", gotOk, tt.wantOk)
			}
		})
	}
}

func TestMatchStateAlignment(t *testing.T) {
	tests := []struct {
		name     string
		want     slotState
		buffer   []byte
		wantMask uint32
		wantOk   bool
	}{
		{
			"match all",
			42,
			bytes.Repeat([]byte{42}, 10000),
			1<<16 - 1,
			true,
		},
		{
			"match none",
			255,
			bytes.Repeat([]byte{42}, 10000),
			0,
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < len(tt.buffer)-16; i++ {
				buffer := tt.buffer[i : i+16]

				gotMask, gotOk := matchState(tt.want, buffer)
				if gotMask != tt.wantMask {
					t.Fatalf("matchState() offset %d gotMask = %v, want %v", i, gotMask, tt.wantMask)
				}
				if gotOk != tt.wantOk {
					t.Fatalf("matchState() offset %d gotOk = %v, want %v", i, gotOk, tt.wantOk)
				}
			}
		})
	}
}

func TestClassifySlot(t *testing.T) {
	states := make([]slotState, 20)
	for i := range states {
		states[i] = stateEmpty
	}
	states[3] = stateOccupied
	states[17] = stateTombstone // within 16 of the end: exercises the fallback read

	tests := []struct {
		pos  int
		want slotState
	}{
		{0, stateEmpty},
		{3, stateOccupied},
		{17, stateTombstone},
	}
	for _, tt := range tests {
		if got := classifySlot(states, tt.pos); got != tt.want {
			t.Errorf("classifySlot(states, %d) = %v, want %v", tt.pos, got, tt.want)
		}
	}
}

func TestClassifySlot_ShortLevel(t *testing.T) {
	states := []slotState{stateOccupied, stateTombstone, stateEmpty}
	for pos, want := range states {
		if got := classifySlot(states, pos); got != want {
			t.Errorf("classifySlot(states, %d) = %v, want %v", pos, got, want)
		}
	}
}

func TestFirstMatch(t *testing.T) {
	tests := []struct {
		mask uint32
		want int
	}{
		{0, 16},
		{1, 0},
		{1 << 5, 5},
		{1<<5 | 1<<2, 2},
	}
	for _, tt := range tests {
		if got := firstMatch(tt.mask); got != tt.want {
			t.Errorf("firstMatch(%b) = %d, want %d", tt.mask, got, tt.want)
		}
	}
}
