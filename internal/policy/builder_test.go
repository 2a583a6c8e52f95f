package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidyinbox/tidyinbox/internal/mailbox"
	"github.com/tidyinbox/tidyinbox/internal/policy"
)

func TestRuleBuilderBuild(t *testing.T) {
	rule, err := policy.NewRule().
		Category(mailbox.CategoryPromotions).
		Archive().
		Name("Archive old promotions").
		Priority(50).
		Build()
	require.NoError(t, err)

	assert.NotEmpty(t, rule.ID)
	assert.Equal(t, "Archive old promotions", rule.Name)
	assert.Equal(t, policy.CategoryIs, rule.Condition)
	assert.Equal(t, "promotions", rule.Value)
	assert.Equal(t, policy.ActionArchive, rule.Action)
	assert.Equal(t, 50, rule.Priority)
}

func TestRuleBuilderGeneratesNameAndDescription(t *testing.T) {
	rule, err := policy.NewRule().OlderThanDays(180).Delete().Build()
	require.NoError(t, err)

	assert.Equal(t, "Delete - older than 180 days", rule.Name)
	assert.NotEmpty(t, rule.Description)
	assert.Equal(t, policy.OlderThanDays, rule.Condition)
	assert.Equal(t, "180", rule.Value)
	assert.Equal(t, 100, rule.Priority)
}

func TestRuleBuilderApplyLabel(t *testing.T) {
	rule, err := policy.NewRule().
		SenderMatches("newsletter@").
		ApplyLabel("Auto/Newsletter").
		Build()
	require.NoError(t, err)

	assert.Equal(t, policy.ActionApplyLabel, rule.Action)
	assert.Equal(t, "Auto/Newsletter", rule.Label)
}

func TestRuleBuilderRequiresConditionAndAction(t *testing.T) {
	_, err := policy.NewRule().Archive().Build()
	require.Error(t, err)

	_, err = policy.NewRule().SubjectContains("invoice").Build()
	require.Error(t, err)
}

func TestDefaultPolicy(t *testing.T) {
	pol := policy.Default("user-1")
	require.NoError(t, pol.Validate())

	assert.Equal(t, "user-1", pol.UserID)
	assert.True(t, pol.Retention.KeepStarred)
	assert.True(t, pol.Retention.KeepImportant)
	assert.Equal(t, 30, pol.Retention.MinAgeDaysForDelete)
	assert.NotEmpty(t, pol.CleanupRules)
}

func TestPolicyValidate(t *testing.T) {
	pol := policy.Default("user-1")
	pol.CleanupRules = append(pol.CleanupRules, policy.Rule{
		Name:      "labeler",
		Condition: policy.CategoryIs,
		Value:     "updates",
		Action:    policy.ActionApplyLabel,
	})
	require.Error(t, pol.Validate(), "apply_label without a label must fail")

	pol = policy.Default("user-1")
	pol.LabelingRules = []policy.LabelingRule{{Name: "no-label", Condition: policy.CategoryIs, Value: "updates"}}
	require.Error(t, pol.Validate())
}
