package mailbox

import (
	"fmt"
	"sort"
)

// Thread is a conversation: a non-empty chronological sequence of messages.
//
// The unread/starred/important flags are ORs over the constituent messages: a
// single starred message protects the whole thread. This is deliberately
// conservative; do not narrow it to the latest message only.
type Thread struct {
	ID       string    `json:"id"`
	Messages []Message `json:"messages"`
}

// NewThread validates the messages and returns a thread with them ordered
// chronologically (stable on equal timestamps).
func NewThread(id string, messages []Message) (Thread, error) {
	if id == "" {
		return Thread{}, fmt.Errorf("%w: thread has empty id", ErrValidation)
	}
	if len(messages) == 0 {
		return Thread{}, fmt.Errorf("%w: thread %s has no messages", ErrValidation, id)
	}
	for _, m := range messages {
		if err := m.Validate(); err != nil {
			return Thread{}, fmt.Errorf("thread %s: %w", id, err)
		}
	}
	ordered := append([]Message(nil), messages...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SentAt.Before(ordered[j].SentAt)
	})
	return Thread{ID: id, Messages: ordered}, nil
}

// LatestMessage returns the most recent message in the thread.
func (t Thread) LatestMessage() Message {
	return t.Messages[len(t.Messages)-1]
}

// IsUnread reports whether any message in the thread is unread.
func (t Thread) IsUnread() bool {
	for _, m := range t.Messages {
		if m.IsUnread() {
			return true
		}
	}
	return false
}

// IsStarred reports whether any message in the thread is starred.
func (t Thread) IsStarred() bool {
	for _, m := range t.Messages {
		if m.IsStarred() {
			return true
		}
	}
	return false
}

// IsImportant reports whether any message in the thread is marked important.
func (t Thread) IsImportant() bool {
	for _, m := range t.Messages {
		if m.IsImportant() {
			return true
		}
	}
	return false
}

// HasAttachments reports whether any message carries an attachment.
func (t Thread) HasAttachments() bool {
	for _, m := range t.Messages {
		if m.HasAttachments {
			return true
		}
	}
	return false
}

// TotalSizeBytes sums the size estimates of every message in the thread.
func (t Thread) TotalSizeBytes() int64 {
	var total int64
	for _, m := range t.Messages {
		total += m.SizeEstimateBytes
	}
	return total
}
