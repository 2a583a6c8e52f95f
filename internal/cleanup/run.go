// Package cleanup orchestrates the analyze / dry-run / execute workflows:
// fetching a snapshot through the provider, planning actions with the policy
// engine, applying them, and recording the audited run.
package cleanup

import (
	"time"

	"github.com/tidyinbox/tidyinbox/internal/mailbox"
	"github.com/tidyinbox/tidyinbox/internal/policy"
)

// RunStatus is the lifecycle state of a cleanup run.
type RunStatus string

const (
	StatusPending    RunStatus = "pending"
	StatusInProgress RunStatus = "in_progress"
	StatusDryRun     RunStatus = "dry_run"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// Terminal reports whether the status is final. A run is immutable once
// terminal.
func (s RunStatus) Terminal() bool {
	return s == StatusDryRun || s == StatusCompleted || s == StatusFailed
}

// Outcome is the per-action result. Individual failures are recorded here
// rather than raised, so one bad action never unwinds the rest of the run.
type Outcome string

const (
	OutcomePlanned Outcome = "planned"
	OutcomeApplied Outcome = "applied"
	OutcomeFailed  Outcome = "failed"
)

// ActionRecord is one audit entry: a planned or attempted action on a
// thread, and how it went.
type ActionRecord struct {
	ThreadID    string        `json:"thread_id"`
	MessageID   string        `json:"message_id"`
	Action      policy.Action `json:"action"`
	Label       string        `json:"label,omitempty"`
	RuleID      string        `json:"rule_id"`
	Timestamp   time.Time     `json:"timestamp"`
	Outcome     Outcome       `json:"outcome"`
	ErrorDetail string        `json:"error_detail,omitempty"`
}

// Run is the aggregate audit record for one invocation. It embeds the policy
// by value so later policy edits never rewrite history, and it keeps the
// before snapshot (and after snapshot for executed runs) for diffing.
type Run struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	PolicyID    string            `json:"policy_id"`
	Policy      policy.Policy     `json:"policy"`
	Status      RunStatus         `json:"status"`
	DryRun      bool              `json:"dry_run"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at,omitzero"`
	Before      mailbox.Snapshot  `json:"before_snapshot"`
	After       *mailbox.Snapshot `json:"after_snapshot,omitempty"`
	Actions     []ActionRecord    `json:"actions"`
	ErrorDetail string            `json:"error_detail,omitempty"`
}

// Duration is the wall-clock span of the run, zero until it completes.
func (r Run) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// CountByOutcome tallies actions with the given outcome.
func (r Run) CountByOutcome(o Outcome) int {
	n := 0
	for _, a := range r.Actions {
		if a.Outcome == o {
			n++
		}
	}
	return n
}

// ActionsByType tallies actions per action type.
func (r Run) ActionsByType() map[policy.Action]int {
	out := make(map[policy.Action]int, 4)
	for _, a := range r.Actions {
		out[a.Action]++
	}
	return out
}

// effective reports whether an action record counts toward outcomes: applied
// for executed runs, planned for dry runs.
func (r Run) effective(a ActionRecord) bool {
	if r.DryRun {
		return a.Outcome == OutcomePlanned
	}
	return a.Outcome == OutcomeApplied
}

func (r Run) countEffective(action policy.Action) int {
	n := 0
	for _, a := range r.Actions {
		if a.Action == action && r.effective(a) {
			n++
		}
	}
	return n
}

// ThreadsDeleted counts threads trashed by this run (or planned to be, for a
// dry run).
func (r Run) ThreadsDeleted() int { return r.countEffective(policy.ActionDelete) }

// ThreadsArchived counts threads archived by this run.
func (r Run) ThreadsArchived() int { return r.countEffective(policy.ActionArchive) }

// ThreadsLabeled counts label applications by this run.
func (r Run) ThreadsLabeled() int { return r.countEffective(policy.ActionApplyLabel) }

// StorageFreedBytes estimates reclaimed storage: the total size of every
// before-snapshot thread that was archived or deleted. Dry runs estimate
// from the plan.
func (r Run) StorageFreedBytes() int64 {
	sizes := make(map[string]int64, len(r.Before.Threads))
	for _, t := range r.Before.Threads {
		sizes[t.ID] = t.TotalSizeBytes()
	}
	seen := make(map[string]bool, len(r.Actions))
	var freed int64
	for _, a := range r.Actions {
		if !r.effective(a) || seen[a.ThreadID] {
			continue
		}
		if a.Action == policy.ActionDelete || a.Action == policy.ActionArchive {
			freed += sizes[a.ThreadID]
			seen[a.ThreadID] = true
		}
	}
	return freed
}
