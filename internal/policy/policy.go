package policy

import (
	"fmt"

	"github.com/google/uuid"
)

// Retention is the safety backstop layered under every user-configured rule.
// The planner enforces it unconditionally; there is no flag that disables it,
// so no caller (API, CLI, scheduler) can bypass it.
type Retention struct {
	KeepStarred         bool `json:"keep_starred" mapstructure:"keep_starred"`
	KeepImportant       bool `json:"keep_important" mapstructure:"keep_important"`
	MinAgeDaysForDelete int  `json:"min_age_days_for_delete" mapstructure:"min_age_days_for_delete"`
}

// DefaultRetention keeps starred and important mail and requires a 30 day
// age floor before anything is trashed.
func DefaultRetention() Retention {
	return Retention{KeepStarred: true, KeepImportant: true, MinAgeDaysForDelete: 30}
}

// Policy is a user's complete cleanup configuration. A run references a
// policy by value, so editing a policy later never rewrites history.
type Policy struct {
	ID            string         `json:"id" mapstructure:"id"`
	UserID        string         `json:"user_id" mapstructure:"user_id"`
	Name          string         `json:"name" mapstructure:"name"`
	Description   string         `json:"description,omitempty" mapstructure:"description"`
	CleanupRules  []Rule         `json:"cleanup_rules" mapstructure:"cleanup_rules"`
	LabelingRules []LabelingRule `json:"labeling_rules,omitempty" mapstructure:"labeling_rules"`
	Retention     Retention      `json:"retention" mapstructure:"retention"`
}

// Default returns a sensible starter policy: archive promotional and social
// mail, under default retention.
func Default(userID string) Policy {
	return Policy{
		ID:          "default-" + userID,
		UserID:      userID,
		Name:        "Default Cleanup Policy",
		Description: "Archives promotional and social mail",
		CleanupRules: []Rule{
			{
				ID:        uuid.NewString(),
				Name:      "Archive promotions",
				Condition: CategoryIs,
				Value:     "promotions",
				Action:    ActionArchive,
				Priority:  100,
			},
			{
				ID:        uuid.NewString(),
				Name:      "Archive social",
				Condition: CategoryIs,
				Value:     "social",
				Action:    ActionArchive,
				Priority:  110,
			},
		},
		Retention: DefaultRetention(),
	}
}

// Validate checks that every rule carries a condition and an action, and
// that apply_label rules name a label.
func (p Policy) Validate() error {
	for _, r := range p.CleanupRules {
		if r.Condition == "" || r.Action == "" {
			return fmt.Errorf("rule %q: condition and action are required", r.Name)
		}
		if r.Action == ActionApplyLabel && r.Label == "" {
			return fmt.Errorf("rule %q: apply_label requires a label", r.Name)
		}
	}
	for _, r := range p.LabelingRules {
		if r.Condition == "" || r.Label == "" {
			return fmt.Errorf("labeling rule %q: condition and label are required", r.Name)
		}
	}
	return nil
}
