package gmailapi

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/tidyinbox/tidyinbox/internal/mailbox"
	"github.com/tidyinbox/tidyinbox/internal/provider"
)

func apiMessage(id string, labels ...string) *gmailv1.Message {
	return &gmailv1.Message{
		Id:           id,
		ThreadId:     "th-1",
		InternalDate: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC).UnixMilli(),
		SizeEstimate: 4096,
		Snippet:      "hello there",
		LabelIds:     labels,
		Payload: &gmailv1.MessagePart{
			Headers: []*gmailv1.MessagePartHeader{
				{Name: "From", Value: `"News Desk" <news@example.com>`},
				{Name: "To", Value: "a@example.com, b@example.com"},
				{Name: "Subject", Value: "weekly digest"},
			},
		},
	}
}

func TestConvertMessage(t *testing.T) {
	m := convertMessage(apiMessage("m1", "CATEGORY_PROMOTIONS", mailbox.LabelUnread))

	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, "news@example.com", m.From.Address)
	assert.Equal(t, "News Desk", m.From.DisplayName)
	require.Len(t, m.To, 2)
	assert.Equal(t, "weekly digest", m.Subject)
	assert.Equal(t, int64(4096), m.SizeEstimateBytes)
	assert.Equal(t, mailbox.CategoryPromotions, m.Category)
	assert.Equal(t, mailbox.ImportanceMedium, m.Importance)
	assert.True(t, m.IsUnread())
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), m.SentAt)
}

func TestConvertMessageImportance(t *testing.T) {
	assert.Equal(t, mailbox.ImportanceSpam,
		convertMessage(apiMessage("m1", "SPAM", mailbox.LabelImportant)).Importance)
	assert.Equal(t, mailbox.ImportanceHigh,
		convertMessage(apiMessage("m2", mailbox.LabelImportant)).Importance)
}

func TestConvertMessageAttachments(t *testing.T) {
	m := apiMessage("m1")
	m.Payload.Parts = []*gmailv1.MessagePart{
		{MimeType: "text/plain"},
		{MimeType: "application/pdf", Filename: "invoice.pdf"},
	}
	assert.True(t, convertMessage(m).HasAttachments)
	assert.False(t, convertMessage(apiMessage("m2")).HasAttachments)
}

func TestConvertThreadOrdersAndValidates(t *testing.T) {
	newer := apiMessage("m2")
	newer.InternalDate = time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC).UnixMilli()
	th, err := convertThread(&gmailv1.Thread{
		Id:       "th-1",
		Messages: []*gmailv1.Message{newer, apiMessage("m1")},
	})
	require.NoError(t, err)
	assert.Equal(t, "m2", th.LatestMessage().ID)

	_, err = convertThread(&gmailv1.Thread{Id: "empty"})
	assert.Error(t, err)
}

func TestConvertMessageMalformedRecipients(t *testing.T) {
	m := apiMessage("m1")
	m.Payload.Headers = append(m.Payload.Headers,
		&gmailv1.MessagePartHeader{Name: "Cc", Value: "not-an-address,, also bad"})
	got := convertMessage(m)
	require.Len(t, got.Cc, 2)
	assert.Equal(t, "not-an-address", got.Cc[0].Address)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want func(error) bool
	}{
		{"401 is auth", &googleapi.Error{Code: 401}, provider.IsAuth},
		{"403 plain is auth", &googleapi.Error{Code: 403}, provider.IsAuth},
		{
			"403 rate reason is rate limit",
			&googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "userRateLimitExceeded"}}},
			provider.IsRateLimit,
		},
		{"429 is rate limit", &googleapi.Error{Code: 429}, provider.IsRateLimit},
		{"503 is transient", &googleapi.Error{Code: 503}, provider.IsTransient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.want(classify("op", tc.err)))
		})
	}
}

func TestClassifyPassthrough(t *testing.T) {
	assert.NoError(t, classify("op", nil))

	err := classify("op", errors.New("weird"))
	require.Error(t, err)
	assert.False(t, provider.Retryable(err))
}
