package mailbox_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidyinbox/tidyinbox/internal/mailbox"
)

func msg(id string, sentAt time.Time, labels ...string) mailbox.Message {
	return mailbox.Message{
		ID:       id,
		ThreadID: "t1",
		From:     mailbox.Address{Address: "sender@example.com"},
		Subject:  "subject " + id,
		SentAt:   sentAt,
		Labels:   labels,
		Category: mailbox.CategoryPrimary,
	}
}

func TestAddressDomain(t *testing.T) {
	cases := []struct {
		address string
		want    string
	}{
		{"alice@Example.COM", "example.com"},
		{"no-at-sign", ""},
		{"weird@corp@mail.org", "mail.org"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, mailbox.Address{Address: tc.address}.Domain(), tc.address)
	}
}

func TestNewThreadValidation(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := mailbox.NewThread("t1", nil)
	require.ErrorIs(t, err, mailbox.ErrValidation)

	_, err = mailbox.NewThread("", []mailbox.Message{msg("m1", base)})
	require.ErrorIs(t, err, mailbox.ErrValidation)

	bad := msg("m1", base)
	bad.SizeEstimateBytes = -5
	_, err = mailbox.NewThread("t1", []mailbox.Message{bad})
	require.ErrorIs(t, err, mailbox.ErrValidation)

	noID := msg("", base)
	_, err = mailbox.NewThread("t1", []mailbox.Message{noID})
	require.ErrorIs(t, err, mailbox.ErrValidation)
}

func TestNewThreadOrdersChronologically(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	th, err := mailbox.NewThread("t1", []mailbox.Message{
		msg("newest", base.Add(48*time.Hour)),
		msg("oldest", base),
		msg("middle", base.Add(24*time.Hour)),
	})
	require.NoError(t, err)

	assert.Equal(t, "oldest", th.Messages[0].ID)
	assert.Equal(t, "newest", th.LatestMessage().ID)
}

func TestThreadFlagsAreORsOverMessages(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Only the oldest message is starred; the thread still counts as starred.
	th, err := mailbox.NewThread("t1", []mailbox.Message{
		msg("m1", base, mailbox.LabelStarred),
		msg("m2", base.Add(time.Hour), mailbox.LabelUnread),
		msg("m3", base.Add(2*time.Hour)),
	})
	require.NoError(t, err)

	assert.True(t, th.IsStarred())
	assert.True(t, th.IsUnread())
	assert.False(t, th.IsImportant())
	assert.False(t, th.LatestMessage().IsStarred())
}

func TestThreadTotalSize(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m1 := msg("m1", base)
	m1.SizeEstimateBytes = 1000
	m2 := msg("m2", base.Add(time.Hour))
	m2.SizeEstimateBytes = 2500

	th, err := mailbox.NewThread("t1", []mailbox.Message{m1, m2})
	require.NoError(t, err)
	assert.Equal(t, int64(3500), th.TotalSizeBytes())
}

func TestMessageAgeDays(t *testing.T) {
	sent := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := msg("m1", sent)

	assert.Equal(t, 0, m.AgeDays(sent.Add(23*time.Hour)))
	assert.Equal(t, 1, m.AgeDays(sent.Add(25*time.Hour)))
	assert.Equal(t, 40, m.AgeDays(sent.Add(40*24*time.Hour)))
	// Clock skew: a message "from the future" is simply zero days old.
	assert.Equal(t, 0, m.AgeDays(sent.Add(-time.Hour)))
}

func TestNewSnapshotAccumulatesCounts(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m1 := msg("m1", base)
	m1.SizeEstimateBytes = 100
	m2 := msg("m2", base.Add(time.Hour))
	m2.SizeEstimateBytes = 200
	m3 := msg("m3", base)
	m3.SizeEstimateBytes = 50

	t1, err := mailbox.NewThread("t1", []mailbox.Message{m1, m2})
	require.NoError(t, err)
	t2, err := mailbox.NewThread("t2", []mailbox.Message{m3})
	require.NoError(t, err)

	snap := mailbox.NewSnapshot("user-1", base.Add(2*time.Hour), []mailbox.Thread{t1, t2})
	assert.Equal(t, 2, snap.ThreadCount)
	assert.Equal(t, 3, snap.MessageCount)
	assert.Equal(t, int64(350), snap.TotalSizeBytes)

	empty := mailbox.NewSnapshot("user-1", base, nil)
	assert.Zero(t, empty.ThreadCount)
	assert.Zero(t, empty.MessageCount)
}
