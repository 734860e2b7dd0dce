package api

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"seo-keywords/pkg/keyword"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []PhraseOutcome
}

func (r *recordingObserver) ObservePhrase(o PhraseOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func fastPolicy() FetcherOption {
	return WithRetryPolicy(RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond})
}

func TestFetcher_BatchOrderAndSkipFailures(t *testing.T) {
	var calls []string
	client := IdeaClientFunc(func(ctx context.Context, phrase string) ([]keyword.Idea, error) {
		calls = append(calls, phrase)
		switch phrase {
		case "bad phrase":
			return nil, &PermanentError{StatusCode: 400, Message: "invalid argument"}
		case "busy phrase":
			return nil, &QuotaError{StatusCode: 429}
		}
		return []keyword.Idea{{Text: phrase + " idea", AvgMonthlySearches: 1200}}, nil
	})

	observer := &recordingObserver{}
	fetcher := NewFetcher(client, fastPolicy(), WithInterval(0), WithObserver(observer))

	outcomes := fetcher.FetchBatch(context.Background(), []string{"first phrase", "bad phrase", "busy phrase", "last phrase"})

	if len(outcomes) != 4 {
		t.Fatalf("Expected 4 outcomes, got %d", len(outcomes))
	}

	expected := []OutcomeStatus{StatusOK, StatusFailed, StatusQuotaExhausted, StatusOK}
	for i, o := range outcomes {
		if o.Status != expected[i] {
			t.Errorf("Outcome %d (%s): expected %s, got %s", i, o.Phrase, expected[i], o.Status)
		}
	}

	// quota phrase is attempted three times, the others once
	wantCalls := []string{"first phrase", "bad phrase", "busy phrase", "busy phrase", "busy phrase", "last phrase"}
	if len(calls) != len(wantCalls) {
		t.Fatalf("Expected calls %v, got %v", wantCalls, calls)
	}
	for i := range wantCalls {
		if calls[i] != wantCalls[i] {
			t.Errorf("Call %d: expected %q, got %q", i, wantCalls[i], calls[i])
		}
	}

	if outcomes[2].Attempts != 3 || outcomes[1].Attempts != 1 {
		t.Errorf("Unexpected attempt counts: quota=%d permanent=%d", outcomes[2].Attempts, outcomes[1].Attempts)
	}
	if len(observer.outcomes) != 4 {
		t.Errorf("Expected observer to see 4 outcomes, got %d", len(observer.outcomes))
	}
}

func TestFetcher_StampsSourceAndDate(t *testing.T) {
	client := IdeaClientFunc(func(ctx context.Context, phrase string) ([]keyword.Idea, error) {
		return []keyword.Idea{{Text: "a"}, {Text: "b"}}, nil
	})

	fixed := time.Date(2024, 3, 9, 17, 45, 0, 0, time.UTC)
	fetcher := NewFetcher(client, WithClock(func() time.Time { return fixed }), WithInterval(0))

	outcome := fetcher.FetchOne(context.Background(), "seed phrase")
	if outcome.Status != StatusOK || len(outcome.Ideas) != 2 {
		t.Fatalf("Unexpected outcome: %+v", outcome)
	}

	for _, idea := range outcome.Ideas {
		if idea.SourcePhrase != "seed phrase" {
			t.Errorf("Expected source phrase to be stamped, got %q", idea.SourcePhrase)
		}
		if got := idea.Date.Format(keyword.DateLayout); got != "2024-03-09" {
			t.Errorf("Expected date 2024-03-09, got %s", got)
		}
		if idea.Date.Hour() != 0 {
			t.Errorf("Expected date truncated to midnight, got %v", idea.Date)
		}
	}
}

func TestFetcher_IntervalBetweenCalls(t *testing.T) {
	var times []time.Time
	client := IdeaClientFunc(func(ctx context.Context, phrase string) ([]keyword.Idea, error) {
		times = append(times, time.Now())
		if phrase == "fails" {
			return nil, errors.New("boom")
		}
		return nil, nil
	})

	interval := 40 * time.Millisecond
	fetcher := NewFetcher(client, WithInterval(interval))

	fetcher.FetchBatch(context.Background(), []string{"one", "fails", "three"})

	if len(times) != 3 {
		t.Fatalf("Expected 3 calls, got %d", len(times))
	}
	for i := 1; i < len(times); i++ {
		if gap := times[i].Sub(times[i-1]); gap < interval {
			t.Errorf("Expected at least %v between calls, got %v", interval, gap)
		}
	}
}

func TestFetcher_CancelStopsBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	client := IdeaClientFunc(func(ctx context.Context, phrase string) ([]keyword.Idea, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return []keyword.Idea{{Text: phrase}}, nil
	})

	fetcher := NewFetcher(client, WithInterval(10*time.Millisecond))
	outcomes := fetcher.FetchBatch(ctx, []string{"a", "b", "c", "d"})

	if calls != 2 {
		t.Errorf("Expected batch to stop after cancellation, got %d calls", calls)
	}
	if len(outcomes) != 2 {
		t.Errorf("Expected outcomes for attempted phrases only, got %d", len(outcomes))
	}
	for _, o := range outcomes {
		if o.Status != StatusOK {
			t.Errorf("Expected completed phrases to stay ok, got %s", o.Status)
		}
	}
}

func TestFetcher_EmptyBatch(t *testing.T) {
	client := IdeaClientFunc(func(ctx context.Context, phrase string) ([]keyword.Idea, error) {
		t.Fatal("client must not be called")
		return nil, nil
	})

	outcomes := NewFetcher(client).FetchBatch(context.Background(), nil)
	if len(outcomes) != 0 {
		t.Errorf("Expected no outcomes, got %d", len(outcomes))
	}
}
