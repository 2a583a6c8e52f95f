// Package mailbox holds the immutable domain model for messages, threads and
// point-in-time mailbox snapshots. Values are plain data validated at
// construction; nothing here performs I/O, so the model is safe to share
// across concurrent rule evaluations.
package mailbox

import (
	"errors"
	"fmt"
	"time"
)

// ErrValidation wraps every domain construction failure.
var ErrValidation = errors.New("mailbox validation")

// Category is the provider's inbox tab classification for a message.
type Category string

const (
	CategoryPrimary    Category = "primary"
	CategorySocial     Category = "social"
	CategoryPromotions Category = "promotions"
	CategoryUpdates    Category = "updates"
	CategoryForums     Category = "forums"
	CategoryNone       Category = "none"
)

// Importance ranks a message for prioritization. It is informational only;
// reclassifying a message means constructing a new value.
type Importance string

const (
	ImportanceCritical Importance = "critical"
	ImportanceHigh     Importance = "high"
	ImportanceMedium   Importance = "medium"
	ImportanceLow      Importance = "low"
	ImportanceSpam     Importance = "spam"
)

// Well-known provider label identifiers.
const (
	LabelUnread    = "UNREAD"
	LabelStarred   = "STARRED"
	LabelImportant = "IMPORTANT"
	LabelInbox     = "INBOX"
	LabelTrash     = "TRASH"
)

// Message is a single email message. Fields are never mutated after
// construction.
type Message struct {
	ID                string     `json:"id"`
	ThreadID          string     `json:"thread_id"`
	From              Address    `json:"from"`
	To                []Address  `json:"to,omitempty"`
	Cc                []Address  `json:"cc,omitempty"`
	Bcc               []Address  `json:"bcc,omitempty"`
	Subject           string     `json:"subject"`
	Snippet           string     `json:"snippet,omitempty"`
	SentAt            time.Time  `json:"sent_at"`
	SizeEstimateBytes int64      `json:"size_estimate_bytes"`
	Labels            []string   `json:"labels,omitempty"`
	HasAttachments    bool       `json:"has_attachments"`
	Category          Category   `json:"category"`
	Importance        Importance `json:"importance"`
}

// Validate reports whether the message satisfies the model invariants.
func (m Message) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: message has empty id", ErrValidation)
	}
	if m.SizeEstimateBytes < 0 {
		return fmt.Errorf("%w: message %s has negative size %d", ErrValidation, m.ID, m.SizeEstimateBytes)
	}
	return nil
}

// HasLabel reports whether the provider label set contains name.
func (m Message) HasLabel(name string) bool {
	for _, l := range m.Labels {
		if l == name {
			return true
		}
	}
	return false
}

func (m Message) IsUnread() bool    { return m.HasLabel(LabelUnread) }
func (m Message) IsStarred() bool   { return m.HasLabel(LabelStarred) }
func (m Message) IsImportant() bool { return m.HasLabel(LabelImportant) }

// AgeDays returns the message age in whole days at the given instant. The
// age is recomputed at every evaluation rather than stored, so plans built
// from the same snapshot at different times see consistent inputs.
func (m Message) AgeDays(now time.Time) int {
	if now.Before(m.SentAt) {
		return 0
	}
	return int(now.Sub(m.SentAt) / (24 * time.Hour))
}
