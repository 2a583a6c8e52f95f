package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tidyinbox/tidyinbox/internal/mailbox"
	"github.com/tidyinbox/tidyinbox/internal/metrics"
	"github.com/tidyinbox/tidyinbox/internal/policy"
	"github.com/tidyinbox/tidyinbox/internal/provider"
	"github.com/tidyinbox/tidyinbox/internal/rate"
)

// ErrRunNotFound is returned by a RunStore when no run has the requested ID.
var ErrRunNotFound = errors.New("cleanup run not found")

// ErrAuditTrail wraps persistence failures after a run has already finished
// against the provider. The run itself is returned alongside it; callers
// decide whether a missing audit record is acceptable.
var ErrAuditTrail = errors.New("cleanup run not persisted")

// ErrReadOnly is returned by Execute when the service was built without a
// mutator.
var ErrReadOnly = errors.New("service is read-only")

// RunStore persists finished and failed runs. Implementations must treat
// runs as immutable once their status is terminal.
type RunStore interface {
	Save(ctx context.Context, run Run) error
	FindByID(ctx context.Context, id string) (Run, error)
	// ListByUser returns the user's runs most recent first. A zero before
	// means no upper bound; limit <= 0 means no limit.
	ListByUser(ctx context.Context, userID string, limit int, before time.Time) ([]Run, error)
}

const (
	defaultPageSize    = 100
	maxPageSize        = 500
	defaultBatchSize   = 100
	defaultCallTimeout = 30 * time.Second
)

// Service runs analyses and cleanup sweeps. Mutate and Store may be nil for
// read-only use; everything else has a usable default.
type Service struct {
	Fetch   provider.Fetcher
	Mutate  provider.Mutator
	Store   RunStore
	Limiter rate.Limiter
	Retry   rate.Backoff
	Log     *slog.Logger
	Metrics *metrics.Recorder
	Clock   func() time.Time

	PageSize    int
	BatchSize   int
	CallTimeout time.Duration
}

// NewService builds a full service able to execute cleanups.
func NewService(client provider.Client, store RunStore, limiter rate.Limiter, logger *slog.Logger) *Service {
	return &Service{
		Fetch:   client,
		Mutate:  client,
		Store:   store,
		Limiter: limiter,
		Retry:   rate.DefaultBackoff(),
		Log:     logger,
	}
}

// NewReadOnlyService builds a service that can analyze and dry-run but not
// execute.
func NewReadOnlyService(fetch provider.Fetcher, limiter rate.Limiter, logger *slog.Logger) *Service {
	return &Service{
		Fetch:   fetch,
		Limiter: limiter,
		Retry:   rate.DefaultBackoff(),
		Log:     logger,
	}
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *Service) log() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

func (s *Service) pageSize() int {
	if s.PageSize > 0 && s.PageSize <= maxPageSize {
		return s.PageSize
	}
	return defaultPageSize
}

func (s *Service) batchSize() int {
	if s.BatchSize > 0 {
		return s.BatchSize
	}
	return defaultBatchSize
}

func (s *Service) callTimeout() time.Duration {
	if s.CallTimeout > 0 {
		return s.CallTimeout
	}
	return defaultCallTimeout
}

func (s *Service) wait(ctx context.Context) error {
	if s.Limiter == nil {
		return nil
	}
	return s.Limiter.Wait(ctx)
}

// Analyze fetches up to maxThreads threads and computes mailbox statistics.
// It never mutates the mailbox.
func (s *Service) Analyze(ctx context.Context, userID string, maxThreads int) (Analysis, error) {
	snap, err := s.fetchSnapshot(ctx, userID, maxThreads)
	if err != nil {
		return Analysis{}, fmt.Errorf("analyze mailbox for %s: %w", userID, err)
	}
	return NewAnalysis(snap, s.now()), nil
}

// DryRun plans what a cleanup would do without touching the mailbox. The
// returned run has status dry_run on success; if the snapshot cannot be
// fetched the run is failed and the fetch error is returned with it.
func (s *Service) DryRun(ctx context.Context, userID string, pol policy.Policy, maxThreads int) (Run, error) {
	run := s.newRun(userID, pol, true)
	run.Status = StatusInProgress

	snap, err := s.fetchSnapshot(ctx, userID, maxThreads)
	if err != nil {
		return s.fail(ctx, run, fmt.Errorf("fetch snapshot: %w", err))
	}
	run.Before = snap

	planner := policy.Planner{Log: s.log()}
	run.Actions = plannedRecords(planner.Plan(snap, pol, s.now()), s.now())

	run.Status = StatusDryRun
	run.CompletedAt = s.now()
	s.Metrics.RunFinished(string(run.Status), run.Duration())
	s.log().Info("dry run complete",
		"run", run.ID,
		"user", userID,
		"threads", snap.ThreadCount,
		"actions", len(run.Actions))
	return s.persist(ctx, run)
}

// Execute fetches a snapshot, plans actions under pol, and applies them.
// Individual action failures are recorded and skipped; authentication
// failures and cancellation fail the run. Actions applied before a failure
// stay applied.
func (s *Service) Execute(ctx context.Context, userID string, pol policy.Policy, maxThreads int) (Run, error) {
	if s.Mutate == nil {
		return Run{}, ErrReadOnly
	}
	run := s.newRun(userID, pol, false)
	run.Status = StatusInProgress

	snap, err := s.fetchSnapshot(ctx, userID, maxThreads)
	if err != nil {
		return s.fail(ctx, run, fmt.Errorf("fetch snapshot: %w", err))
	}
	run.Before = snap

	planner := policy.Planner{Log: s.log()}
	run.Actions = plannedRecords(planner.Plan(snap, pol, s.now()), s.now())

	if err := s.applyAll(ctx, userID, &run); err != nil {
		return s.fail(ctx, run, err)
	}

	// Best effort: a stale after-snapshot degrades the diff, not the run.
	if after, err := s.fetchSnapshot(ctx, userID, maxThreads); err != nil {
		s.log().Warn("after-snapshot fetch failed", "run", run.ID, "error", err)
	} else {
		run.After = &after
	}

	run.Status = StatusCompleted
	run.CompletedAt = s.now()
	s.Metrics.RunFinished(string(run.Status), run.Duration())
	s.log().Info("cleanup run complete",
		"run", run.ID,
		"user", userID,
		"applied", run.CountByOutcome(OutcomeApplied),
		"failed", run.CountByOutcome(OutcomeFailed))
	return s.persist(ctx, run)
}

// GetRun loads a run by ID.
func (s *Service) GetRun(ctx context.Context, id string) (Run, error) {
	if s.Store == nil {
		return Run{}, ErrRunNotFound
	}
	return s.Store.FindByID(ctx, id)
}

// ListRuns returns a user's run history, most recent first.
func (s *Service) ListRuns(ctx context.Context, userID string, limit int, before time.Time) ([]Run, error) {
	if s.Store == nil {
		return nil, nil
	}
	return s.Store.ListByUser(ctx, userID, limit, before)
}

func (s *Service) newRun(userID string, pol policy.Policy, dryRun bool) Run {
	return Run{
		ID:        uuid.NewString(),
		UserID:    userID,
		PolicyID:  pol.ID,
		Policy:    pol,
		Status:    StatusPending,
		DryRun:    dryRun,
		StartedAt: s.now(),
	}
}

// fetchSnapshot pages through the mailbox until maxThreads threads are
// collected or the provider runs out. Page fetches are rate limited and
// retried on transient provider errors.
func (s *Service) fetchSnapshot(ctx context.Context, userID string, maxThreads int) (mailbox.Snapshot, error) {
	if maxThreads <= 0 {
		maxThreads = defaultPageSize
	}
	var threads []mailbox.Thread
	pageToken := ""
	for len(threads) < maxThreads {
		if err := ctx.Err(); err != nil {
			return mailbox.Snapshot{}, err
		}
		if err := s.wait(ctx); err != nil {
			return mailbox.Snapshot{}, err
		}
		size := s.pageSize()
		if remaining := maxThreads - len(threads); remaining < size {
			size = remaining
		}
		var page provider.ThreadPage
		err := s.Retry.Do(ctx, provider.Retryable, func(ctx context.Context) error {
			tctx, cancel := context.WithTimeout(ctx, s.callTimeout())
			defer cancel()
			var err error
			page, err = s.Fetch.FetchThreadsPage(tctx, userID, pageToken, size)
			return err
		})
		if err != nil {
			return mailbox.Snapshot{}, fmt.Errorf("fetch threads page: %w", err)
		}
		threads = append(threads, page.Threads...)
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}
	if len(threads) > maxThreads {
		threads = threads[:maxThreads]
	}
	return mailbox.NewSnapshot(userID, s.now(), threads), nil
}

// applyAll works through the planned actions in order, batching consecutive
// identical operations when the mutator supports it. It returns an error
// only for run-fatal conditions: authentication failure or cancellation.
func (s *Service) applyAll(ctx context.Context, userID string, run *Run) error {
	batcher, canBatch := s.Mutate.(provider.BatchMutator)
	i := 0
	for i < len(run.Actions) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}
		end := i + 1
		if canBatch {
			for end < len(run.Actions) &&
				end-i < s.batchSize() &&
				run.Actions[end].Action == run.Actions[i].Action &&
				run.Actions[end].Label == run.Actions[i].Label {
				end++
			}
		}
		if err := s.wait(ctx); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}
		group := run.Actions[i:end]
		var errs []error
		if canBatch && len(group) > 1 {
			errs = s.applyBatch(ctx, userID, batcher, group)
		} else {
			errs = []error{s.applyOne(ctx, userID, group[0])}
		}
		var authErr error
		for j := range group {
			group[j].Timestamp = s.now()
			if errs[j] == nil {
				group[j].Outcome = OutcomeApplied
				s.Metrics.ActionRecorded(string(group[j].Action), string(OutcomeApplied))
				continue
			}
			group[j].Outcome = OutcomeFailed
			group[j].ErrorDetail = errs[j].Error()
			s.Metrics.ActionRecorded(string(group[j].Action), string(OutcomeFailed))
			s.log().Warn("action failed",
				"run", run.ID,
				"thread", group[j].ThreadID,
				"action", group[j].Action,
				"error", errs[j])
			if provider.IsAuth(errs[j]) {
				authErr = errs[j]
			}
		}
		if authErr != nil {
			return fmt.Errorf("provider authentication failed: %w", authErr)
		}
		i = end
	}
	return nil
}

func (s *Service) applyOne(ctx context.Context, userID string, rec ActionRecord) error {
	return s.Retry.Do(ctx, provider.Retryable, func(ctx context.Context) error {
		tctx, cancel := context.WithTimeout(ctx, s.callTimeout())
		defer cancel()
		return s.Mutate.Apply(tctx, userID, request(rec))
	})
}

func (s *Service) applyBatch(ctx context.Context, userID string, batcher provider.BatchMutator, group []ActionRecord) []error {
	reqs := make([]provider.ActionRequest, len(group))
	for i, rec := range group {
		reqs[i] = request(rec)
	}
	tctx, cancel := context.WithTimeout(ctx, s.callTimeout())
	defer cancel()
	errs := batcher.BatchApply(tctx, userID, reqs)
	if len(errs) != len(group) {
		// Defend against misbehaving mutators; treat the whole batch as
		// failed rather than misattribute results.
		err := fmt.Errorf("batch returned %d results for %d requests", len(errs), len(group))
		errs = make([]error, len(group))
		for i := range errs {
			errs[i] = err
		}
	}
	return errs
}

func request(rec ActionRecord) provider.ActionRequest {
	return provider.ActionRequest{
		ThreadID:  rec.ThreadID,
		MessageID: rec.MessageID,
		Action:    rec.Action,
		Label:     rec.Label,
	}
}

func plannedRecords(plan []policy.ProposedAction, at time.Time) []ActionRecord {
	recs := make([]ActionRecord, len(plan))
	for i, p := range plan {
		recs[i] = ActionRecord{
			ThreadID:  p.ThreadID,
			MessageID: p.MessageID,
			Action:    p.Action,
			Label:     p.Label,
			RuleID:    p.RuleID,
			Timestamp: at,
			Outcome:   OutcomePlanned,
		}
	}
	return recs
}

// fail finalizes a run as failed, records it, and returns it with cause.
func (s *Service) fail(ctx context.Context, run Run, cause error) (Run, error) {
	run.Status = StatusFailed
	run.ErrorDetail = cause.Error()
	run.CompletedAt = s.now()
	s.Metrics.RunFinished(string(run.Status), run.Duration())
	s.log().Error("cleanup run failed", "run", run.ID, "user", run.UserID, "error", cause)
	if run, perr := s.persist(ctx, run); perr != nil {
		return run, errors.Join(cause, perr)
	}
	return run, cause
}

// persist saves the run when a store is configured. A save failure degrades
// the result rather than failing it: the run is still returned, wrapped in
// ErrAuditTrail.
func (s *Service) persist(ctx context.Context, run Run) (Run, error) {
	if s.Store == nil {
		return run, nil
	}
	if err := s.Store.Save(ctx, run); err != nil {
		s.log().Error("saving cleanup run failed", "run", run.ID, "error", err)
		return run, fmt.Errorf("%w: %v", ErrAuditTrail, err)
	}
	return run, nil
}
