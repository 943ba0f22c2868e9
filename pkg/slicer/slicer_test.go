package slicer

import "testing"

func TestFreqZeroDisablesEnumeration(t *testing.T) {
	s := New(0)
	loc := Location(1)
	if exec := s.BeginThenBranch(loc, nil); exec {
		t.Fatal("a freq-0 slicer's first visit must take the false branch")
	}
	s.EndBranch(loc)
	if s.NextSlice() {
		t.Fatal("a freq-0 slicer must never report another slice")
	}
}

func TestNextSliceEnumeratesExactlyFreqPasses(t *testing.T) {
	const freq = 4 // 2^2, matching two branch points visited in the first pass
	s := New(freq)

	loc1, loc2 := Location(1), Location(2)
	s.BeginThenBranch(loc1, nil)
	s.BeginThenBranch(loc2, nil)
	s.EndBranch(loc2)
	s.EndBranch(loc1)

	count := 1 // the first pass already ran
	for s.NextSlice() {
		count++
		if count > freq {
			t.Fatal("NextSlice produced more passes than freq allows")
		}
	}
	if count != freq {
		t.Fatalf("got %d passes, want %d (2^2)", count, freq)
	}
	if s.SliceCount() != freq {
		t.Fatalf("SliceCount() = %d, want %d", s.SliceCount(), freq)
	}
}

func TestDeepestBranchFlipsFirst(t *testing.T) {
	s := New(MaxSliceFreq)
	loc1, loc2 := Location(1), Location(2)
	s.BeginThenBranch(loc1, nil)
	s.BeginThenBranch(loc2, nil)
	s.EndBranch(loc2)
	s.EndBranch(loc1)

	if !s.NextSlice() {
		t.Fatal("expected a second slice to exist")
	}
	// loc2 (deepest / most recently visited) must flip before loc1.
	if exec := s.BeginThenBranch(loc1, nil); exec {
		t.Error("loc1's decision must not have flipped yet on the second pass")
	}
	if exec := s.BeginThenBranch(loc2, nil); !exec {
		t.Error("loc2's decision must have flipped on the second pass")
	}
}

func TestEndBranchMismatchPanics(t *testing.T) {
	s := New(1)
	s.BeginThenBranch(Location(1), nil)
	defer func() {
		if recover() == nil {
			t.Fatal("EndBranch with a mismatched location should panic")
		}
	}()
	s.EndBranch(Location(2))
}
