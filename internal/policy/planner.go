package policy

import (
	"log/slog"
	"sort"
	"time"

	"github.com/tidyinbox/tidyinbox/internal/mailbox"
)

// ProposedAction is one planned cleanup or labeling operation for a thread.
// MessageID identifies the thread's latest message at planning time.
type ProposedAction struct {
	ThreadID  string
	MessageID string
	Action    Action
	Label     string // set for apply_label
	RuleID    string
}

// Planner turns a snapshot plus a policy into an ordered action plan. It is
// pure computation over its inputs: planning twice on the same snapshot and
// policy yields the identical plan.
type Planner struct {
	Log *slog.Logger
}

// Plan evaluates the policy over every thread in the snapshot.
//
// Cleanup rules run first-match-wins in priority order (stable on ties); the
// retention backstop then suppresses actions on starred/important threads and
// downgrades delete to archive below the age floor. Labeling rules run
// independently afterwards. The returned actions follow the snapshot's
// thread order so dry-run diffs and audit records stay reproducible.
func (p *Planner) Plan(snap mailbox.Snapshot, pol Policy, now time.Time) []ProposedAction {
	log := p.Log
	if log == nil {
		log = slog.Default()
	}

	rules := append([]Rule(nil), pol.CleanupRules...)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })

	var plan []ProposedAction
	for _, thread := range snap.Threads {
		if act, ok := p.planThread(log, rules, pol.Retention, thread, now); ok {
			plan = append(plan, act)
		}
		for _, lr := range pol.LabelingRules {
			matched, err := lr.Matches(thread, now)
			if err != nil {
				log.Warn("skipping malformed labeling rule",
					"rule", lr.Name, "thread", thread.ID, "error", err)
				continue
			}
			if matched {
				plan = append(plan, ProposedAction{
					ThreadID:  thread.ID,
					MessageID: thread.LatestMessage().ID,
					Action:    ActionApplyLabel,
					Label:     lr.Label,
					RuleID:    lr.ID,
				})
			}
		}
	}
	return plan
}

// planThread finds the first matching cleanup rule for a thread and applies
// the retention guardrails to its action.
func (p *Planner) planThread(
	log *slog.Logger,
	rules []Rule,
	ret Retention,
	thread mailbox.Thread,
	now time.Time,
) (ProposedAction, bool) {
	for _, rule := range rules {
		matched, err := rule.Matches(thread, now)
		if err != nil {
			// One bad rule must not abort cleanup for the entire mailbox.
			log.Warn("skipping malformed rule",
				"rule", rule.Name, "thread", thread.ID, "error", err)
			continue
		}
		if !matched {
			continue
		}
		action := rule.Action
		if action == ActionNone {
			return ProposedAction{}, false
		}
		if ret.KeepStarred && thread.IsStarred() {
			log.Info("retention kept starred thread",
				"thread", thread.ID, "rule", rule.Name, "action", action)
			return ProposedAction{}, false
		}
		if ret.KeepImportant && thread.IsImportant() {
			log.Info("retention kept important thread",
				"thread", thread.ID, "rule", rule.Name, "action", action)
			return ProposedAction{}, false
		}
		if action == ActionDelete && thread.LatestMessage().AgeDays(now) < ret.MinAgeDaysForDelete {
			// Archive-before-delete: too young to trash, old enough to tidy.
			log.Info("retention downgraded delete to archive",
				"thread", thread.ID, "rule", rule.Name,
				"age_days", thread.LatestMessage().AgeDays(now),
				"min_age_days", ret.MinAgeDaysForDelete)
			action = ActionArchive
		}
		return ProposedAction{
			ThreadID:  thread.ID,
			MessageID: thread.LatestMessage().ID,
			Action:    action,
			Label:     rule.Label,
			RuleID:    rule.ID,
		}, true
	}
	return ProposedAction{}, false
}
