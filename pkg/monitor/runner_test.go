package monitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"seo-keywords/pkg/api"
	"seo-keywords/pkg/keyword"
	"seo-keywords/pkg/seeds"
	"seo-keywords/pkg/sink"
	"seo-keywords/pkg/storage"
)

type staticSource []string

func (s staticSource) Phrases(ctx context.Context) ([]string, error) { return s, nil }
func (s staticSource) Describe() string                               { return "static" }

type failingSource struct{}

func (failingSource) Phrases(ctx context.Context) ([]string, error) {
	return nil, seeds.ErrSeedFileNotFound
}
func (failingSource) Describe() string { return "missing" }

type recordingSink struct {
	name  string
	err   error
	ideas []keyword.Idea
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Write(ctx context.Context, ideas []keyword.Idea) error {
	s.ideas = append(s.ideas, ideas...)
	return s.err
}

// scriptedClient returns ideas with the given volumes for known phrases,
// quota errors for "busy" phrases and permanent errors for "broken" ones.
func scriptedClient(calls *[]string) api.IdeaClient {
	return api.IdeaClientFunc(func(ctx context.Context, phrase string) ([]keyword.Idea, error) {
		*calls = append(*calls, phrase)
		switch phrase {
		case "busy phrase":
			return nil, &api.QuotaError{StatusCode: 429}
		case "broken phrase":
			return nil, &api.PermanentError{StatusCode: 400, Message: "invalid"}
		}
		return []keyword.Idea{
			{Text: phrase + " low", AvgMonthlySearches: 500},
			{Text: phrase + " high", AvgMonthlySearches: 1500},
			{Text: phrase + " edge", AvgMonthlySearches: 1000},
		}, nil
	})
}

func newFetcher(client api.IdeaClient, observer api.Observer) *api.Fetcher {
	opts := []api.FetcherOption{
		api.WithInterval(0),
		api.WithRetryPolicy(api.RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}),
	}
	if observer != nil {
		opts = append(opts, api.WithObserver(observer))
	}
	return api.NewFetcher(client, opts...)
}

func TestRunner_ResumeScenario(t *testing.T) {
	log := storage.NewMemoryLog("sea fishing rod")
	var calls []string
	csv := &recordingSink{name: sink.CSVName}

	runner, err := NewRunnerBuilder().
		WithSource(staticSource{"sea fishing rod", "sea fishing rod", "boat anchor"}).
		WithTracker(storage.NewTracker(log)).
		WithFetcher(newFetcher(scriptedClient(&calls), nil)).
		WithLimit(5).
		WithFilter(1000, 0, 0).
		WithSinks(csv).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(calls) != 1 || calls[0] != "boat anchor" {
		t.Errorf("Expected only 'boat anchor' to be fetched, got %v", calls)
	}
	if report.Outcome != OutcomeCompleted {
		t.Errorf("Expected completed outcome, got %s", report.Outcome)
	}
	if report.IdeasFetched != 3 || report.IdeasKept != 2 {
		t.Errorf("Expected 3 fetched and 2 kept, got %d/%d", report.IdeasFetched, report.IdeasKept)
	}
	if len(csv.ideas) != 2 || csv.ideas[0].AvgMonthlySearches != 1500 || csv.ideas[1].AvgMonthlySearches != 1000 {
		t.Errorf("Unexpected ideas at sink: %+v", csv.ideas)
	}
	if csv.ideas[0].SourcePhrase != "boat anchor" {
		t.Errorf("Expected source phrase to be stamped, got %q", csv.ideas[0].SourcePhrase)
	}
	if report.RunID == "" {
		t.Error("Expected a run id")
	}

	entries := log.Entries()
	if len(entries) != 2 || entries[1] != "boat anchor" {
		t.Errorf("Expected 'boat anchor' to be committed, got %v", entries)
	}

	// second run has nothing left
	calls = nil
	report, err = runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if report.Outcome != OutcomeEmpty || len(calls) != 0 {
		t.Errorf("Expected empty second run, got outcome=%s calls=%v", report.Outcome, calls)
	}
}

func TestRunner_CommitPolicy(t *testing.T) {
	log := storage.NewMemoryLog()
	var calls []string

	runner, err := NewRunnerBuilder().
		WithSource(staticSource{"good phrase", "busy phrase", "broken phrase"}).
		WithTracker(storage.NewTracker(log)).
		WithFetcher(newFetcher(scriptedClient(&calls), nil)).
		WithSinks(&recordingSink{name: sink.CSVName}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Succeeded != 1 || report.QuotaExhausted != 1 || report.Failed != 1 {
		t.Errorf("Unexpected counts: %+v", report)
	}
	if report.Outcome != OutcomePartial {
		t.Errorf("Expected partial outcome, got %s", report.Outcome)
	}

	processed, _ := log.Load(context.Background())
	if !processed.Contains("good phrase") || !processed.Contains("broken phrase") {
		t.Errorf("Expected ok and permanently failed phrases committed, got %v", log.Entries())
	}
	if processed.Contains("busy phrase") {
		t.Error("Quota-exhausted phrase must stay unprocessed for the next run")
	}
}

func TestRunner_CSVFailureSkipsCommit(t *testing.T) {
	log := storage.NewMemoryLog()
	var calls []string
	sheet := &recordingSink{name: sink.SheetsName}

	runner, err := NewRunnerBuilder().
		WithSource(staticSource{"good phrase"}).
		WithTracker(storage.NewTracker(log)).
		WithFetcher(newFetcher(scriptedClient(&calls), nil)).
		WithSinks(&recordingSink{name: sink.CSVName, err: errors.New("read-only file system")}, sheet).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !report.CommitSkipped || report.Committed != 0 {
		t.Errorf("Expected commit to be skipped, got %+v", report)
	}
	if len(log.Entries()) != 0 {
		t.Errorf("Expected empty log, got %v", log.Entries())
	}
	if len(sheet.ideas) != 2 {
		t.Errorf("Expected later sink to run despite csv failure, got %d ideas", len(sheet.ideas))
	}
	if report.SinkErr() == nil || len(report.SinkErrors) != 1 {
		t.Errorf("Expected one sink error, got %v", report.SinkErrors)
	}
}

func TestRunner_OtherSinkFailureStillCommits(t *testing.T) {
	log := storage.NewMemoryLog()
	var calls []string

	runner, _ := NewRunnerBuilder().
		WithSource(staticSource{"good phrase"}).
		WithTracker(storage.NewTracker(log)).
		WithFetcher(newFetcher(scriptedClient(&calls), nil)).
		WithSinks(&recordingSink{name: sink.CSVName}, &recordingSink{name: sink.UploadName, err: errors.New("denied for access_token=ya29.secret")}).
		Build()

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Committed != 1 {
		t.Errorf("Expected commit despite upload failure, got %d", report.Committed)
	}
	if len(report.SinkErrors) != 1 {
		t.Fatalf("Expected one sink error, got %v", report.SinkErrors)
	}
	if strings.Contains(report.SinkErrors[0], "ya29.secret") || !strings.HasPrefix(report.SinkErrors[0], sink.UploadName+": denied") {
		t.Errorf("Expected masked upload error, got %q", report.SinkErrors[0])
	}
}

func TestRunner_RunLockHeld(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "last_run.log.lock")
	held := storage.NewRunLock(lockPath)
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("Failed to take lock: %v", err)
	}
	defer held.Unlock()

	var calls []string
	runner, err := NewRunnerBuilder().
		WithSource(staticSource{"good phrase"}).
		WithTracker(storage.NewTracker(storage.NewMemoryLog())).
		WithFetcher(newFetcher(scriptedClient(&calls), nil)).
		WithRunLock(lockPath).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	_, err = runner.Run(context.Background())
	if !errors.Is(err, ErrRunInProgress) {
		t.Errorf("Expected ErrRunInProgress, got %v", err)
	}
	if len(calls) != 0 {
		t.Errorf("Expected no API calls while locked, got %v", calls)
	}
}

func TestRunner_SourceErrorAbortsBeforeFetch(t *testing.T) {
	var calls []string
	runner, _ := NewRunnerBuilder().
		WithSource(failingSource{}).
		WithTracker(storage.NewTracker(storage.NewMemoryLog())).
		WithFetcher(newFetcher(scriptedClient(&calls), nil)).
		Build()

	report, err := runner.Run(context.Background())
	if !errors.Is(err, seeds.ErrSeedFileNotFound) {
		t.Errorf("Expected seed file error, got %v", err)
	}
	if report.Outcome != OutcomeFailed || len(calls) != 0 {
		t.Errorf("Expected failed outcome and no calls, got %s %v", report.Outcome, calls)
	}
}

func TestRunner_CanceledRunCommitsFetchedOnly(t *testing.T) {
	log := storage.NewMemoryLog()
	ctx, cancel := context.WithCancel(context.Background())

	client := api.IdeaClientFunc(func(ctx context.Context, phrase string) ([]keyword.Idea, error) {
		if phrase == "second" {
			cancel()
		}
		return []keyword.Idea{{Text: phrase + " idea", AvgMonthlySearches: 5000}}, nil
	})

	csv := &recordingSink{name: sink.CSVName}
	runner, _ := NewRunnerBuilder().
		WithSource(staticSource{"first", "second", "third"}).
		WithTracker(storage.NewTracker(log)).
		WithFetcher(api.NewFetcher(client, api.WithInterval(5*time.Millisecond))).
		WithSinks(csv).
		Build()

	report, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Outcome != OutcomeCanceled {
		t.Errorf("Expected canceled outcome, got %s", report.Outcome)
	}
	entries := log.Entries()
	if len(entries) != 2 || entries[0] != "first" || entries[1] != "second" {
		t.Errorf("Expected only fetched phrases committed, got %v", entries)
	}
	if len(csv.ideas) != 2 {
		t.Errorf("Expected fetched ideas written, got %d", len(csv.ideas))
	}
}

func TestRunner_Plan(t *testing.T) {
	runner, err := NewRunnerBuilder().
		WithSource(staticSource{"a", "b", "b", "c", "d"}).
		WithTracker(storage.NewTracker(storage.NewMemoryLog("a"))).
		WithFetcher(newFetcher(api.IdeaClientFunc(func(context.Context, string) ([]keyword.Idea, error) {
			t.Fatal("plan must not call the API")
			return nil, nil
		}), nil)).
		WithLimit(2).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	plan, err := runner.Plan(context.Background())
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if plan.Candidates != 5 || plan.Processed != 1 || plan.Pending != 3 {
		t.Errorf("Unexpected plan counts: %+v", plan)
	}
	if len(plan.Batch) != 2 || plan.Batch[0] != "b" || plan.Batch[1] != "c" {
		t.Errorf("Unexpected batch: %v", plan.Batch)
	}
}

func TestRunner_Metrics(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	var calls []string

	runner, _ := NewRunnerBuilder().
		WithSource(staticSource{"good phrase", "busy phrase", "broken phrase"}).
		WithTracker(storage.NewTracker(storage.NewMemoryLog())).
		WithFetcher(newFetcher(scriptedClient(&calls), metrics)).
		WithSinks(&recordingSink{name: sink.CSVName}, &recordingSink{name: sink.SheetsName, err: errors.New("x")}).
		WithMetrics(metrics).
		Build()

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := testutil.ToFloat64(metrics.phrases.WithLabelValues("ok")); got != 1 {
		t.Errorf("Expected 1 ok phrase, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.phrases.WithLabelValues("quota_exhausted")); got != 1 {
		t.Errorf("Expected 1 quota phrase, got %v", got)
	}
	// one attempt each for the ok and permanent phrases, three for the quota one
	if got := testutil.ToFloat64(metrics.attempts); got != 5 {
		t.Errorf("Expected 5 attempts, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.runs.WithLabelValues(OutcomePartial)); got != 1 {
		t.Errorf("Expected 1 partial run, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.sinkFailures.WithLabelValues(sink.SheetsName)); got != 1 {
		t.Errorf("Expected 1 sheets failure, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.committed); got != 2 {
		t.Errorf("Expected 2 committed phrases, got %v", got)
	}
}

func TestRunner_FileLogEndToEnd(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "phrases.txt")
	logPath := filepath.Join(dir, "last_run.log")
	resultsPath := filepath.Join(dir, "results.csv")

	if err := os.WriteFile(seedPath, []byte("alpha one\nbeta two\ngamma three\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var calls []string
	build := func() *Runner {
		r, err := NewRunnerBuilder().
			WithSource(seeds.FileSource{Path: seedPath}).
			WithTracker(storage.NewTracker(storage.NewFileLog(logPath))).
			WithFetcher(newFetcher(scriptedClient(&calls), nil)).
			WithLimit(2).
			WithSinks(sink.NewCSVSink(resultsPath, sink.LayoutFull)).
			WithRunLock(logPath + ".lock").
			Build()
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		return r
	}

	if _, err := build().Run(context.Background()); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	if _, err := build().Run(context.Background()); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	want := []string{"alpha one", "beta two", "gamma three"}
	if len(calls) != len(want) {
		t.Fatalf("Expected calls %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("Call %d: expected %q, got %q", i, want[i], calls[i])
		}
	}

	data, err := os.ReadFile(resultsPath)
	if err != nil {
		t.Fatalf("Failed to read results: %v", err)
	}
	// one header plus two kept ideas per phrase
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	if lines != 1+2*3 {
		t.Errorf("Expected 7 lines in results file, got %d", lines)
	}
}
