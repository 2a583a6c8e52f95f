// Package policy implements the cleanup rule engine: declarative rule
// definitions, condition evaluation against mailbox threads, and the
// non-bypassable retention guardrails applied during planning.
//
// Rules are tagged data (a condition type plus a string value), never
// executable predicates, so user-supplied policies can be stored and shipped
// around without any form of code execution.
package policy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidyinbox/tidyinbox/internal/mailbox"
)

// ConditionType tags how a rule's value is matched against a thread.
type ConditionType string

const (
	SenderMatches   ConditionType = "sender_matches"
	SubjectContains ConditionType = "subject_contains"
	CategoryIs      ConditionType = "category_is"
	OlderThanDays   ConditionType = "older_than_days"
	HasLabel        ConditionType = "has_label"
)

// Action is the cleanup operation a matched rule proposes.
type Action string

const (
	ActionDelete     Action = "delete" // move to trash, never permanent delete
	ActionArchive    Action = "archive"
	ActionMarkRead   Action = "mark_read"
	ActionStar       Action = "star"
	ActionApplyLabel Action = "apply_label"
	ActionNone       Action = "no_op"
)

// ErrBadCondition reports a condition value that cannot be interpreted, such
// as a non-integer for older_than_days. A rule with a bad condition is
// treated as never matching; it must not abort planning for the mailbox.
var ErrBadCondition = errors.New("bad rule condition")

// Rule is one user-configured cleanup rule. Lower Priority evaluates first;
// ties keep declaration order.
type Rule struct {
	ID          string        `json:"id" mapstructure:"id"`
	Name        string        `json:"name" mapstructure:"name"`
	Description string        `json:"description,omitempty" mapstructure:"description"`
	Condition   ConditionType `json:"condition" mapstructure:"condition"`
	Value       string        `json:"value" mapstructure:"value"`
	Action      Action        `json:"action" mapstructure:"action"`
	Label       string        `json:"label,omitempty" mapstructure:"label"` // apply_label parameter
	Priority    int           `json:"priority" mapstructure:"priority"`
}

// Matches evaluates the rule's condition against a thread. Conditions
// operate at thread granularity against the latest message.
func (r Rule) Matches(t mailbox.Thread, now time.Time) (bool, error) {
	return matchCondition(r.Condition, r.Value, t, now)
}

// LabelingRule applies a label to matching threads. Labeling is
// non-destructive: it runs independently of cleanup rules, carries no
// retention restriction, and several labeling rules may hit the same thread.
type LabelingRule struct {
	ID        string        `json:"id" mapstructure:"id"`
	Name      string        `json:"name" mapstructure:"name"`
	Condition ConditionType `json:"condition" mapstructure:"condition"`
	Value     string        `json:"value" mapstructure:"value"`
	Label     string        `json:"label" mapstructure:"label"`
}

// Matches evaluates the labeling rule's condition with the same semantics as
// cleanup rules.
func (r LabelingRule) Matches(t mailbox.Thread, now time.Time) (bool, error) {
	return matchCondition(r.Condition, r.Value, t, now)
}

func matchCondition(cond ConditionType, value string, t mailbox.Thread, now time.Time) (bool, error) {
	latest := t.LatestMessage()
	switch cond {
	case SenderMatches:
		return strings.Contains(strings.ToLower(latest.From.Address), strings.ToLower(value)), nil
	case SubjectContains:
		return strings.Contains(strings.ToLower(latest.Subject), strings.ToLower(value)), nil
	case CategoryIs:
		return string(latest.Category) == value, nil
	case OlderThanDays:
		days, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return false, fmt.Errorf("%w: older_than_days value %q: %v", ErrBadCondition, value, err)
		}
		return latest.AgeDays(now) >= days, nil
	case HasLabel:
		return latest.HasLabel(value), nil
	default:
		return false, fmt.Errorf("%w: unknown condition type %q", ErrBadCondition, cond)
	}
}
