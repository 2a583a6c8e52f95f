package policy_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidyinbox/tidyinbox/internal/policy"
)

const policyYAML = `name: weekend sweep
description: archive promos, trash ancient mail
cleanup_rules:
  - name: archive promotions
    condition: category_is
    value: promotions
    action: archive
    priority: 10
  - name: trash ancient
    condition: older_than_days
    value: "365"
    action: delete
    priority: 20
labeling_rules:
  - name: tag receipts
    condition: subject_contains
    value: receipt
    label: Auto/Receipts
retention:
  keep_starred: true
  keep_important: true
  min_age_days_for_delete: 60
`

func TestLoadPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(policyYAML), 0o600))

	pol, err := policy.Load(path, "user-9")
	require.NoError(t, err)

	assert.Equal(t, "weekend sweep", pol.Name)
	assert.Equal(t, "user-9", pol.UserID)
	assert.NotEmpty(t, pol.ID)
	require.Len(t, pol.CleanupRules, 2)
	assert.Equal(t, policy.CategoryIs, pol.CleanupRules[0].Condition)
	assert.NotEmpty(t, pol.CleanupRules[0].ID, "rules get ids assigned for the audit trail")
	require.Len(t, pol.LabelingRules, 1)
	assert.Equal(t, "Auto/Receipts", pol.LabelingRules[0].Label)
	assert.Equal(t, 60, pol.Retention.MinAgeDaysForDelete)
}

func TestLoadPolicyDefaultsRetention(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	minimal := "cleanup_rules:\n  - name: r\n    condition: category_is\n    value: social\n    action: archive\n"
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0o600))

	pol, err := policy.Load(path, "user-9")
	require.NoError(t, err)
	assert.True(t, pol.Retention.KeepStarred)
	assert.True(t, pol.Retention.KeepImportant)
	assert.Equal(t, 30, pol.Retention.MinAgeDaysForDelete)
}

func TestLoadPolicyMissingFile(t *testing.T) {
	_, err := policy.Load(filepath.Join(t.TempDir(), "nope.yaml"), "user-9")
	require.Error(t, err)
}
