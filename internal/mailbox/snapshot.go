package mailbox

import "time"

// Snapshot is a point-in-time capture of a user's mailbox. It is created
// fresh on every analyze/dry-run/execute invocation and never mutated; one
// snapshot is the sole basis for one planning pass and the "before" half of
// its audit record.
//
// The counts are accumulated from the threads themselves. Provider-supplied
// estimate fields are documented as unreliable and are never trusted here.
type Snapshot struct {
	UserID         string    `json:"user_id"`
	CapturedAt     time.Time `json:"captured_at"`
	Threads        []Thread  `json:"threads"`
	ThreadCount    int       `json:"thread_count"`
	MessageCount   int       `json:"message_count"`
	TotalSizeBytes int64     `json:"total_size_bytes"`
}

// NewSnapshot builds a snapshot over the given threads, counting messages
// and sizes by iteration.
func NewSnapshot(userID string, capturedAt time.Time, threads []Thread) Snapshot {
	snap := Snapshot{
		UserID:     userID,
		CapturedAt: capturedAt,
		Threads:    threads,
	}
	snap.ThreadCount = len(threads)
	for _, t := range threads {
		snap.MessageCount += len(t.Messages)
		snap.TotalSizeBytes += t.TotalSizeBytes()
	}
	return snap
}
