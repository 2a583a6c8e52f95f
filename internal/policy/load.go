package policy

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Load reads a policy document from a YAML file. Missing retention fields
// fall back to the safe defaults; rules without ids get one assigned so the
// audit trail can always point back at the rule that produced an action.
func Load(path, userID string) (Policy, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("name", "Cleanup Policy")
	v.SetDefault("retention.keep_starred", true)
	v.SetDefault("retention.keep_important", true)
	v.SetDefault("retention.min_age_days_for_delete", 30)

	if err := v.ReadInConfig(); err != nil {
		return Policy{}, fmt.Errorf("read policy %s: %w", path, err)
	}

	var pol Policy
	if err := v.Unmarshal(&pol); err != nil {
		return Policy{}, fmt.Errorf("decode policy %s: %w", path, err)
	}
	pol.UserID = userID
	if pol.ID == "" {
		pol.ID = uuid.NewString()
	}
	for i := range pol.CleanupRules {
		if pol.CleanupRules[i].ID == "" {
			pol.CleanupRules[i].ID = uuid.NewString()
		}
	}
	for i := range pol.LabelingRules {
		if pol.LabelingRules[i].ID == "" {
			pol.LabelingRules[i].ID = uuid.NewString()
		}
	}
	if err := pol.Validate(); err != nil {
		return Policy{}, fmt.Errorf("policy %s: %w", path, err)
	}
	return pol, nil
}
