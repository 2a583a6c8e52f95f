package policy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/tidyinbox/tidyinbox/internal/mailbox"
)

// RuleBuilder is a fluent helper for assembling cleanup rules:
//
//	rule, err := policy.NewRule().
//		Category(mailbox.CategoryPromotions).
//		Archive().
//		Priority(50).
//		Build()
//
// Exactly one condition and one action must be chosen before Build.
type RuleBuilder struct {
	condition ConditionType
	value     string
	action    Action
	label     string
	name      string
	describe  string
	priority  int
}

// NewRule starts a builder with the default priority of 100.
func NewRule() *RuleBuilder {
	return &RuleBuilder{priority: 100}
}

func (b *RuleBuilder) setCondition(c ConditionType, v string) *RuleBuilder {
	b.condition = c
	b.value = v
	return b
}

// Category matches threads whose latest message is in the given category.
func (b *RuleBuilder) Category(c mailbox.Category) *RuleBuilder {
	return b.setCondition(CategoryIs, string(c))
}

// OlderThanDays matches threads whose latest message is at least days old.
func (b *RuleBuilder) OlderThanDays(days int) *RuleBuilder {
	return b.setCondition(OlderThanDays, strconv.Itoa(days))
}

// SenderMatches matches case-insensitively on the sender address.
func (b *RuleBuilder) SenderMatches(pattern string) *RuleBuilder {
	return b.setCondition(SenderMatches, pattern)
}

// SubjectContains matches case-insensitively on the subject.
func (b *RuleBuilder) SubjectContains(text string) *RuleBuilder {
	return b.setCondition(SubjectContains, text)
}

// HasLabel matches threads whose latest message carries the label.
func (b *RuleBuilder) HasLabel(label string) *RuleBuilder {
	return b.setCondition(HasLabel, label)
}

func (b *RuleBuilder) Archive() *RuleBuilder  { b.action = ActionArchive; return b }
func (b *RuleBuilder) Delete() *RuleBuilder   { b.action = ActionDelete; return b }
func (b *RuleBuilder) MarkRead() *RuleBuilder { b.action = ActionMarkRead; return b }
func (b *RuleBuilder) Star() *RuleBuilder     { b.action = ActionStar; return b }

// ApplyLabel sets the action to apply the given label.
func (b *RuleBuilder) ApplyLabel(label string) *RuleBuilder {
	b.action = ActionApplyLabel
	b.label = label
	return b
}

func (b *RuleBuilder) Name(name string) *RuleBuilder      { b.name = name; return b }
func (b *RuleBuilder) Describe(text string) *RuleBuilder  { b.describe = text; return b }
func (b *RuleBuilder) Priority(priority int) *RuleBuilder { b.priority = priority; return b }

// Build assembles the rule, generating an id and a readable name and
// description when none were supplied.
func (b *RuleBuilder) Build() (Rule, error) {
	if b.condition == "" {
		return Rule{}, errors.New("rule builder: a condition must be specified")
	}
	if b.action == "" {
		return Rule{}, errors.New("rule builder: an action must be specified")
	}
	name := b.name
	if name == "" {
		name = generatedName(b.action, b.condition, b.value)
	}
	describe := b.describe
	if describe == "" {
		describe = fmt.Sprintf("Automatically %s threads matching %s %s",
			strings.ReplaceAll(string(b.action), "_", " "), b.condition, b.value)
	}
	return Rule{
		ID:          uuid.NewString(),
		Name:        name,
		Description: describe,
		Condition:   b.condition,
		Value:       b.value,
		Action:      b.action,
		Label:       b.label,
		Priority:    b.priority,
	}, nil
}

func generatedName(action Action, cond ConditionType, value string) string {
	var condDesc string
	switch cond {
	case CategoryIs:
		condDesc = "category " + value
	case OlderThanDays:
		condDesc = "older than " + value + " days"
	case SenderMatches:
		condDesc = "from " + value
	case SubjectContains:
		condDesc = "subject " + value
	case HasLabel:
		condDesc = "label " + value
	default:
		condDesc = string(cond) + " " + value
	}
	verb := strings.ReplaceAll(string(action), "_", " ")
	return strings.ToUpper(verb[:1]) + verb[1:] + " - " + condDesc
}
