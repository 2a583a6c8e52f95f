package gmailapi

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	gmailv1 "google.golang.org/api/gmail/v1"

	"github.com/tidyinbox/tidyinbox/internal/mailbox"
)

var categoryLabels = map[string]mailbox.Category{
	"CATEGORY_PERSONAL":   mailbox.CategoryPrimary,
	"CATEGORY_SOCIAL":     mailbox.CategorySocial,
	"CATEGORY_PROMOTIONS": mailbox.CategoryPromotions,
	"CATEGORY_UPDATES":    mailbox.CategoryUpdates,
	"CATEGORY_FORUMS":     mailbox.CategoryForums,
}

// convertThread maps a fully-hydrated Gmail thread onto the domain model.
func convertThread(t *gmailv1.Thread) (mailbox.Thread, error) {
	if t == nil || len(t.Messages) == 0 {
		return mailbox.Thread{}, fmt.Errorf("thread %s has no messages", threadID(t))
	}
	msgs := make([]mailbox.Message, 0, len(t.Messages))
	for _, m := range t.Messages {
		msgs = append(msgs, convertMessage(m))
	}
	return mailbox.NewThread(t.Id, msgs)
}

func threadID(t *gmailv1.Thread) string {
	if t == nil {
		return ""
	}
	return t.Id
}

func convertMessage(m *gmailv1.Message) mailbox.Message {
	headers := headerMap(m)
	msg := mailbox.Message{
		ID:                m.Id,
		ThreadID:          m.ThreadId,
		From:              parseAddress(headers["From"]),
		To:                parseAddressList(headers["To"]),
		Cc:                parseAddressList(headers["Cc"]),
		Bcc:               parseAddressList(headers["Bcc"]),
		Subject:           headers["Subject"],
		Snippet:           m.Snippet,
		SentAt:            time.UnixMilli(m.InternalDate).UTC(),
		SizeEstimateBytes: m.SizeEstimate,
		Labels:            m.LabelIds,
		HasAttachments:    hasAttachments(m.Payload),
		Category:          categoryOf(m.LabelIds),
		Importance:        importanceOf(m.LabelIds),
	}
	return msg
}

func headerMap(m *gmailv1.Message) map[string]string {
	out := map[string]string{}
	if m.Payload == nil {
		return out
	}
	for _, h := range m.Payload.Headers {
		// Last occurrence wins; Gmail does not repeat the headers we read.
		out[h.Name] = h.Value
	}
	return out
}

func parseAddress(raw string) mailbox.Address {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return mailbox.Address{}
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return mailbox.Address{Address: raw}
	}
	return mailbox.Address{Address: addr.Address, DisplayName: addr.Name}
}

func parseAddressList(raw string) []mailbox.Address {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	addrs, err := mail.ParseAddressList(raw)
	if err != nil {
		// Fall back to comma splitting for the malformed headers Gmail
		// happily serves up.
		var out []mailbox.Address
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, mailbox.Address{Address: part})
			}
		}
		return out
	}
	out := make([]mailbox.Address, len(addrs))
	for i, a := range addrs {
		out[i] = mailbox.Address{Address: a.Address, DisplayName: a.Name}
	}
	return out
}

func categoryOf(labelIDs []string) mailbox.Category {
	for _, id := range labelIDs {
		if c, ok := categoryLabels[id]; ok {
			return c
		}
	}
	return mailbox.CategoryNone
}

func importanceOf(labelIDs []string) mailbox.Importance {
	for _, id := range labelIDs {
		if id == "SPAM" {
			return mailbox.ImportanceSpam
		}
	}
	for _, id := range labelIDs {
		if id == mailbox.LabelImportant {
			return mailbox.ImportanceHigh
		}
	}
	return mailbox.ImportanceMedium
}

func hasAttachments(p *gmailv1.MessagePart) bool {
	if p == nil {
		return false
	}
	if p.Filename != "" {
		return true
	}
	for _, part := range p.Parts {
		if hasAttachments(part) {
			return true
		}
	}
	return false
}
