package policy

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/tidyinbox/tidyinbox/internal/gmailctl"
)

var olderThanRe = regexp.MustCompile(`^older_than:(\d+)d$`)

// FromGmailctl translates a compiled gmailctl filter export into cleanup and
// labeling rules so a user's existing declarative filters can seed a policy.
//
// Translated criteria: from -> sender_matches, subject -> subject_contains,
// query "older_than:Nd" -> older_than_days. Translated actions: remove INBOX
// -> archive, add TRASH -> delete, remove UNREAD -> mark_read, add STARRED ->
// star; any other added label becomes a labeling rule. Filters that combine
// several criteria or use predicates we cannot replay are skipped with a
// warning, never an error.
func FromGmailctl(export gmailctl.Export, log *slog.Logger) ([]Rule, []LabelingRule) {
	if log == nil {
		log = slog.Default()
	}
	labelNames := make(map[string]string, len(export.Labels))
	for _, lbl := range export.Labels {
		if lbl.ID != "" && lbl.Name != "" {
			labelNames[lbl.ID] = lbl.Name
		}
	}

	var (
		rules    []Rule
		labeling []LabelingRule
		priority = 100
	)
	for _, filt := range export.Filters {
		cond, value, ok := translateCriteria(filt.Criteria)
		if !ok {
			log.Warn("skipping gmailctl filter with untranslatable criteria",
				"filter", filterName(filt))
			continue
		}
		action, extraLabels := translateAction(filt.Action, labelNames)
		if action == ActionNone && len(extraLabels) == 0 {
			log.Warn("skipping gmailctl filter with no translatable action",
				"filter", filterName(filt))
			continue
		}
		if action != ActionNone {
			rules = append(rules, Rule{
				ID:          uuid.NewString(),
				Name:        filterName(filt),
				Description: "Imported from gmailctl",
				Condition:   cond,
				Value:       value,
				Action:      action,
				Priority:    priority,
			})
			priority += 10
		}
		for _, lbl := range extraLabels {
			labeling = append(labeling, LabelingRule{
				ID:        uuid.NewString(),
				Name:      filterName(filt) + " (label)",
				Condition: cond,
				Value:     value,
				Label:     lbl,
			})
		}
	}
	return rules, labeling
}

// translateCriteria maps a single-predicate filter onto a rule condition.
func translateCriteria(c gmailctl.Criteria) (ConditionType, string, bool) {
	from := strings.TrimSpace(c.From)
	subject := strings.TrimSpace(c.Subject)
	query := strings.TrimSpace(c.Query)

	set := 0
	for _, s := range []string{from, subject, query} {
		if s != "" {
			set++
		}
	}
	if set != 1 || strings.TrimSpace(c.To) != "" || strings.TrimSpace(c.List) != "" {
		return "", "", false
	}
	switch {
	case from != "":
		return SenderMatches, strings.Trim(from, "*"), true
	case subject != "":
		return SubjectContains, subject, true
	default:
		m := olderThanRe.FindStringSubmatch(query)
		if m == nil {
			return "", "", false
		}
		return OlderThanDays, m[1], true
	}
}

func translateAction(a gmailctl.Action, labelNames map[string]string) (Action, []string) {
	action := ActionNone
	for _, id := range a.RemoveLabelIDs {
		switch id {
		case "INBOX":
			action = ActionArchive
		case "UNREAD":
			if action == ActionNone {
				action = ActionMarkRead
			}
		}
	}
	var labels []string
	for _, id := range a.AddLabelIDs {
		switch id {
		case "TRASH":
			action = ActionDelete
		case "STARRED":
			if action == ActionNone {
				action = ActionStar
			}
		default:
			if name, ok := labelNames[id]; ok && name != "" {
				labels = append(labels, name)
			}
		}
	}
	return action, labels
}

func filterName(f gmailctl.Filter) string {
	if name := strings.TrimSpace(f.Name); name != "" {
		return name
	}
	if id := strings.TrimSpace(f.ID); id != "" {
		return id
	}
	return "gmailctl-filter"
}
