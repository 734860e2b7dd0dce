package storage

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"
)

func TestSelectBatch_Scenario(t *testing.T) {
	seeds := []string{"sea fishing rod", "sea fishing rod", "boat anchor"}
	processed := NewPhraseSet("sea fishing rod")

	batch, err := SelectBatch(seeds, processed, 5)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !reflect.DeepEqual(batch, []string{"boat anchor"}) {
		t.Errorf("Expected [boat anchor], got %v", batch)
	}
}

func TestSelectBatch_DuplicateSeedsCollapse(t *testing.T) {
	batch, err := SelectBatch([]string{"a", "b", "a", "c", "b"}, PhraseSet{}, 10)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !reflect.DeepEqual(batch, []string{"a", "b", "c"}) {
		t.Errorf("Expected [a b c], got %v", batch)
	}
}

func TestSelectBatch_InvalidLimit(t *testing.T) {
	for _, limit := range []int{0, -1} {
		if _, err := SelectBatch([]string{"a"}, PhraseSet{}, limit); !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("limit=%d: expected ErrInvalidLimit, got %v", limit, err)
		}
	}
}

func TestSelectBatch_EmptyInput(t *testing.T) {
	batch, err := SelectBatch(nil, NewPhraseSet("x"), 3)
	if err != nil {
		t.Fatalf("Expected no error for empty input, got: %v", err)
	}
	if len(batch) != 0 {
		t.Errorf("Expected empty batch, got %v", batch)
	}
}

func TestSelectBatch_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		// distinct seed list so |L - P| is easy to compute
		n := rng.Intn(30)
		all := make([]string, n)
		for i := range all {
			all[i] = fmt.Sprintf("phrase-%d-%d", iter, i)
		}
		processed := PhraseSet{}
		for _, p := range all {
			if rng.Intn(3) == 0 {
				processed.Add(p)
			}
		}
		processed.Add("never-seeded")
		limit := rng.Intn(20) + 1

		batch, err := SelectBatch(all, processed, limit)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		remaining := 0
		for _, p := range all {
			if !processed.Contains(p) {
				remaining++
			}
		}
		if expected := min(limit, remaining); len(batch) != expected {
			t.Fatalf("iter %d: expected batch length %d, got %d", iter, expected, len(batch))
		}

		// order preserved and disjoint from processed
		pos := -1
		for _, p := range batch {
			if processed.Contains(p) {
				t.Fatalf("iter %d: batch contains processed phrase %q", iter, p)
			}
			idx := indexOf(all, p)
			if idx <= pos {
				t.Fatalf("iter %d: batch order differs from input order", iter)
			}
			pos = idx
		}

		// idempotent when nothing was committed in between
		again, _ := SelectBatch(all, processed, limit)
		if !reflect.DeepEqual(batch, again) {
			t.Fatalf("iter %d: selection not idempotent: %v vs %v", iter, batch, again)
		}
	}
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func TestTracker_CommitLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryLog()
	tracker := NewTracker(log)

	if err := tracker.Commit(ctx, []string{"boat anchor", "fly reel"}); err != nil {
		t.Fatalf("Expected no error on commit, got: %v", err)
	}
	if err := tracker.Commit(ctx, []string{"boat anchor"}); err != nil {
		t.Fatalf("Expected no error on duplicate commit, got: %v", err)
	}

	set, err := tracker.Load(ctx)
	if err != nil {
		t.Fatalf("Expected no error on load, got: %v", err)
	}
	if set.Len() != 2 || !set.Contains("boat anchor") || !set.Contains("fly reel") {
		t.Errorf("Unexpected processed set: %v", set)
	}

	// tolerant mode keeps the redundant entry
	if got := log.Entries(); len(got) != 3 {
		t.Errorf("Expected 3 raw entries, got %v", got)
	}
}

func TestTracker_DedupOnWrite(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryLog("boat anchor")
	tracker := NewTracker(log, WithDedupOnWrite(true))

	if err := tracker.Commit(ctx, []string{"boat anchor", "fly reel", "fly reel"}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if got := log.Entries(); !reflect.DeepEqual(got, []string{"boat anchor", "fly reel"}) {
		t.Errorf("Expected no redundant entries, got %v", got)
	}
}

func TestTracker_PlanThenCommitAdvances(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(NewMemoryLog())
	seeds := []string{"a", "b", "c", "d", "e"}

	first, err := tracker.Plan(ctx, seeds, 2)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !reflect.DeepEqual(first, []string{"a", "b"}) {
		t.Fatalf("Expected [a b], got %v", first)
	}

	// same log, no commit: same batch
	repeat, _ := tracker.Plan(ctx, seeds, 2)
	if !reflect.DeepEqual(first, repeat) {
		t.Fatalf("Expected repeat plan %v, got %v", first, repeat)
	}

	if err := tracker.Commit(ctx, first); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	second, _ := tracker.Plan(ctx, seeds, 2)
	if !reflect.DeepEqual(second, []string{"c", "d"}) {
		t.Errorf("Expected [c d], got %v", second)
	}
}

func TestPhraseSet_NormalizesKeys(t *testing.T) {
	set := NewPhraseSet("  boat   anchor", "", "   ")
	if set.Len() != 1 {
		t.Errorf("Expected blanks to be ignored, got %v", set)
	}
	if !set.Contains("boat anchor") || !set.Contains("boat\tanchor ") {
		t.Errorf("Expected whitespace variants to match, got %v", set)
	}
}
