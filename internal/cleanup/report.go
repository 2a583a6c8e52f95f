package cleanup

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidyinbox/tidyinbox/internal/mailbox"
	"github.com/tidyinbox/tidyinbox/internal/policy"
)

const (
	staleThreadAgeDays = 90
	promoRatioGrace    = 0.2
)

// AgeBuckets groups threads by the age of their latest message.
type AgeBuckets struct {
	Last7Days  int `json:"last_7_days"`
	Last30Days int `json:"last_30_days"`
	Last90Days int `json:"last_90_days"`
	Older      int `json:"older"`
}

// Analysis is a read-only statistical picture of a mailbox snapshot.
type Analysis struct {
	UserID                string                   `json:"user_id"`
	CapturedAt            time.Time                `json:"captured_at"`
	ThreadCount           int                      `json:"thread_count"`
	MessageCount          int                      `json:"message_count"`
	TotalSizeBytes        int64                    `json:"total_size_bytes"`
	UnreadThreads         int                      `json:"unread_threads"`
	StarredThreads        int                      `json:"starred_threads"`
	ThreadsWithAttachment int                      `json:"threads_with_attachments"`
	Categories            map[mailbox.Category]int `json:"categories"`
	Ages                  AgeBuckets               `json:"ages"`
	AvgMessagesPerThread  float64                  `json:"avg_messages_per_thread"`
	HealthScore           float64                  `json:"health_score"`
}

// NewAnalysis computes mailbox statistics from a snapshot. Thread age is
// taken from each thread's latest message.
func NewAnalysis(snap mailbox.Snapshot, now time.Time) Analysis {
	a := Analysis{
		UserID:         snap.UserID,
		CapturedAt:     snap.CapturedAt,
		ThreadCount:    snap.ThreadCount,
		MessageCount:   snap.MessageCount,
		TotalSizeBytes: snap.TotalSizeBytes,
		Categories:     make(map[mailbox.Category]int, 6),
	}
	stale := 0
	promos := 0
	for _, t := range snap.Threads {
		if t.IsUnread() {
			a.UnreadThreads++
		}
		if t.IsStarred() {
			a.StarredThreads++
		}
		if t.HasAttachments() {
			a.ThreadsWithAttachment++
		}
		latest := t.LatestMessage()
		a.Categories[latest.Category]++
		if latest.Category == mailbox.CategoryPromotions {
			promos++
		}
		switch age := latest.AgeDays(now); {
		case age <= 7:
			a.Ages.Last7Days++
		case age <= 30:
			a.Ages.Last30Days++
		case age <= staleThreadAgeDays:
			a.Ages.Last90Days++
		default:
			a.Ages.Older++
			stale++
		}
	}
	if a.ThreadCount > 0 {
		a.AvgMessagesPerThread = float64(a.MessageCount) / float64(a.ThreadCount)
	}
	a.HealthScore = healthScore(a.ThreadCount, a.UnreadThreads, stale, promos)
	return a
}

// healthScore grades inbox hygiene from 0 (drowning) to 100 (pristine). An
// empty mailbox is perfectly healthy. Unread backlog weighs heaviest, then
// promotional overload past a grace ratio, then stale threads.
func healthScore(total, unread, stale, promos int) float64 {
	if total == 0 {
		return 100
	}
	n := float64(total)
	score := 100.0
	score -= (float64(unread) / n) * 30
	score -= (float64(stale) / n) * 20
	if over := float64(promos)/n - promoRatioGrace; over > 0 {
		score -= over * 30
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// RunSummary condenses a run's audit trail into the numbers people ask for.
type RunSummary struct {
	RunID             string                `json:"run_id"`
	UserID            string                `json:"user_id"`
	PolicyName        string                `json:"policy_name"`
	Status            RunStatus             `json:"status"`
	DryRun            bool                  `json:"dry_run"`
	StartedAt         time.Time             `json:"started_at"`
	Duration          time.Duration         `json:"duration"`
	TotalActions      int                   `json:"total_actions"`
	Applied           int                   `json:"applied"`
	Failed            int                   `json:"failed"`
	Planned           int                   `json:"planned"`
	ByAction          map[policy.Action]int `json:"by_action"`
	ThreadsDeleted    int                   `json:"threads_deleted"`
	ThreadsArchived   int                   `json:"threads_archived"`
	ThreadsLabeled    int                   `json:"threads_labeled"`
	StorageFreedBytes int64                 `json:"storage_freed_bytes"`
	ErrorDetail       string                `json:"error_detail,omitempty"`
}

// Summarize derives a RunSummary from a run.
func Summarize(run Run) RunSummary {
	return RunSummary{
		RunID:             run.ID,
		UserID:            run.UserID,
		PolicyName:        run.Policy.Name,
		Status:            run.Status,
		DryRun:            run.DryRun,
		StartedAt:         run.StartedAt,
		Duration:          run.Duration(),
		TotalActions:      len(run.Actions),
		Applied:           run.CountByOutcome(OutcomeApplied),
		Failed:            run.CountByOutcome(OutcomeFailed),
		Planned:           run.CountByOutcome(OutcomePlanned),
		ByAction:          run.ActionsByType(),
		ThreadsDeleted:    run.ThreadsDeleted(),
		ThreadsArchived:   run.ThreadsArchived(),
		ThreadsLabeled:    run.ThreadsLabeled(),
		StorageFreedBytes: run.StorageFreedBytes(),
		ErrorDetail:       run.ErrorDetail,
	}
}

// PeriodReport aggregates a user's runs over a time window.
type PeriodReport struct {
	UserID            string        `json:"user_id"`
	From              time.Time     `json:"from"`
	To                time.Time     `json:"to"`
	TotalRuns         int           `json:"total_runs"`
	CompletedRuns     int           `json:"completed_runs"`
	FailedRuns        int           `json:"failed_runs"`
	DryRuns           int           `json:"dry_runs"`
	TotalActions      int           `json:"total_actions"`
	ThreadsDeleted    int           `json:"threads_deleted"`
	ThreadsArchived   int           `json:"threads_archived"`
	StorageFreedBytes int64         `json:"storage_freed_bytes"`
	AvgDuration       time.Duration `json:"avg_duration"`
}

// NewPeriodReport rolls up the runs whose start falls inside [from, to).
func NewPeriodReport(userID string, from, to time.Time, runs []Run) PeriodReport {
	rep := PeriodReport{UserID: userID, From: from, To: to}
	var totalDur time.Duration
	for _, run := range runs {
		if run.UserID != userID || run.StartedAt.Before(from) || !run.StartedAt.Before(to) {
			continue
		}
		rep.TotalRuns++
		totalDur += run.Duration()
		switch run.Status {
		case StatusCompleted:
			rep.CompletedRuns++
		case StatusFailed:
			rep.FailedRuns++
		case StatusDryRun:
			rep.DryRuns++
		}
		rep.TotalActions += len(run.Actions)
		if run.DryRun {
			continue
		}
		rep.ThreadsDeleted += run.ThreadsDeleted()
		rep.ThreadsArchived += run.ThreadsArchived()
		rep.StorageFreedBytes += run.StorageFreedBytes()
	}
	if rep.TotalRuns > 0 {
		rep.AvgDuration = totalDur / time.Duration(rep.TotalRuns)
	}
	return rep
}

// PrintAnalysis renders an analysis for terminals.
func PrintAnalysis(a Analysis, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	var builder strings.Builder
	fmt.Fprintf(&builder, "tidyinbox analysis — %s (%d threads, %d messages, %s)\n",
		a.UserID, a.ThreadCount, a.MessageCount, humanBytes(a.TotalSizeBytes))
	fmt.Fprintf(&builder, "  health score: %.0f/100\n", a.HealthScore)
	fmt.Fprintf(&builder, "  unread: %d  starred: %d  with attachments: %d\n",
		a.UnreadThreads, a.StarredThreads, a.ThreadsWithAttachment)
	if len(a.Categories) > 0 {
		builder.WriteString("\nCategories:\n")
		for _, c := range []mailbox.Category{
			mailbox.CategoryPrimary,
			mailbox.CategorySocial,
			mailbox.CategoryPromotions,
			mailbox.CategoryUpdates,
			mailbox.CategoryForums,
			mailbox.CategoryNone,
		} {
			if n := a.Categories[c]; n > 0 {
				fmt.Fprintf(&builder, "  %-12s %5d\n", c, n)
			}
		}
	}
	builder.WriteString("\nAge of latest message:\n")
	fmt.Fprintf(&builder, "  last 7 days  %5d\n", a.Ages.Last7Days)
	fmt.Fprintf(&builder, "  last 30 days %5d\n", a.Ages.Last30Days)
	fmt.Fprintf(&builder, "  last 90 days %5d\n", a.Ages.Last90Days)
	fmt.Fprintf(&builder, "  older        %5d\n", a.Ages.Older)
	_, err := io.WriteString(w, builder.String())
	return err
}

// PrintRunSummary renders a run summary for terminals.
func PrintRunSummary(sum RunSummary, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	var builder strings.Builder
	mode := "sweep"
	if sum.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(&builder, "tidyinbox %s %s — policy %q, status %s\n",
		mode, sum.RunID, sum.PolicyName, sum.Status)
	fmt.Fprintf(&builder, "  actions: %d total", sum.TotalActions)
	if sum.DryRun {
		fmt.Fprintf(&builder, " (%d planned)\n", sum.Planned)
	} else {
		fmt.Fprintf(&builder, " (%d applied, %d failed)\n", sum.Applied, sum.Failed)
	}
	fmt.Fprintf(&builder, "  deleted: %d  archived: %d  labeled: %d\n",
		sum.ThreadsDeleted, sum.ThreadsArchived, sum.ThreadsLabeled)
	fmt.Fprintf(&builder, "  storage freed: %s\n", humanBytes(sum.StorageFreedBytes))
	if sum.ErrorDetail != "" {
		fmt.Fprintf(&builder, "  error: %s\n", sum.ErrorDetail)
	}
	_, err := io.WriteString(w, builder.String())
	return err
}

// WriteJSON writes any report value as indented JSON to a path under the
// working directory. Absolute and escaping paths are rejected.
func WriteJSON(v any, path string) error {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return fmt.Errorf("path must not be empty")
	}
	clean = filepath.Clean(clean)
	if filepath.IsAbs(clean) {
		return fmt.Errorf("output path must be relative, got %s", clean)
	}
	if strings.HasPrefix(clean, "..") {
		return fmt.Errorf("output path %s escapes working directory", clean)
	}
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determine working directory: %w", err)
	}
	abs := filepath.Join(wd, clean)
	f, err := os.OpenFile(abs, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) // #nosec G304
	if err != nil {
		return fmt.Errorf("create %s: %w", abs, err)
	}
	defer func() { _ = f.Close() }()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if encodeErr := enc.Encode(v); encodeErr != nil {
		return fmt.Errorf("encode report: %w", encodeErr)
	}
	return nil
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}
