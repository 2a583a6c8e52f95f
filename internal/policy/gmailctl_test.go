package policy_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidyinbox/tidyinbox/internal/gmailctl"
	"github.com/tidyinbox/tidyinbox/internal/policy"
)

func TestFromGmailctl(t *testing.T) {
	export := gmailctl.Export{
		Labels: []gmailctl.Label{
			{ID: "Label_7", Name: "Auto/Newsletter", Type: "user"},
		},
		Filters: []gmailctl.Filter{
			{
				Name:     "archive github noise",
				Criteria: gmailctl.Criteria{From: "*@github.com"},
				Action:   gmailctl.Action{RemoveLabelIDs: []string{"INBOX", "UNREAD"}},
			},
			{
				Name:     "trash stale receipts",
				Criteria: gmailctl.Criteria{Query: "older_than:90d"},
				Action:   gmailctl.Action{AddLabelIDs: []string{"TRASH"}},
			},
			{
				Name:     "file newsletters",
				Criteria: gmailctl.Criteria{Subject: "newsletter"},
				Action:   gmailctl.Action{AddLabelIDs: []string{"Label_7"}},
			},
			{
				// combined criteria cannot be replayed; skipped
				Name:     "mixed",
				Criteria: gmailctl.Criteria{From: "a@b.c", Subject: "x"},
				Action:   gmailctl.Action{RemoveLabelIDs: []string{"INBOX"}},
			},
			{
				// list: criteria unsupported; skipped
				Name:     "list",
				Criteria: gmailctl.Criteria{List: "dev.lists.example.com"},
				Action:   gmailctl.Action{RemoveLabelIDs: []string{"INBOX"}},
			},
		},
	}

	rules, labeling := policy.FromGmailctl(export, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.Len(t, rules, 2)
	assert.Equal(t, policy.SenderMatches, rules[0].Condition)
	assert.Equal(t, "@github.com", rules[0].Value)
	assert.Equal(t, policy.ActionArchive, rules[0].Action)

	assert.Equal(t, policy.OlderThanDays, rules[1].Condition)
	assert.Equal(t, "90", rules[1].Value)
	assert.Equal(t, policy.ActionDelete, rules[1].Action)
	assert.Greater(t, rules[1].Priority, rules[0].Priority, "import order becomes priority order")

	require.Len(t, labeling, 1)
	assert.Equal(t, policy.SubjectContains, labeling[0].Condition)
	assert.Equal(t, "newsletter", labeling[0].Value)
	assert.Equal(t, "Auto/Newsletter", labeling[0].Label)
}

func TestFromGmailctlStarAction(t *testing.T) {
	export := gmailctl.Export{
		Filters: []gmailctl.Filter{{
			Name:     "star boss",
			Criteria: gmailctl.Criteria{From: "boss@corp.com"},
			Action:   gmailctl.Action{AddLabelIDs: []string{"STARRED"}},
		}},
	}
	rules, labeling := policy.FromGmailctl(export, nil)
	require.Len(t, rules, 1)
	assert.Equal(t, policy.ActionStar, rules[0].Action)
	assert.Empty(t, labeling)
}
