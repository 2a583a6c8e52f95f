// Package provider defines the narrow mailbox provider surface the cleanup
// engine consumes, together with the error taxonomy the engine must be able
// to distinguish. Implementations live in subpackages; tests use hand-rolled
// fakes.
package provider

import (
	"context"

	"github.com/tidyinbox/tidyinbox/internal/mailbox"
	"github.com/tidyinbox/tidyinbox/internal/policy"
)

// ThreadPage is one page of threads plus the token for the next page, empty
// when the listing is exhausted.
type ThreadPage struct {
	Threads       []mailbox.Thread
	NextPageToken string
}

// ActionRequest asks the provider to mutate one thread. Delete always means
// move-to-trash; this engine never invokes a permanent delete.
type ActionRequest struct {
	ThreadID  string
	MessageID string
	Action    policy.Action
	Label     string // apply_label parameter
}

// Fetcher is the read-only half of the provider. Analyze and dry-run paths
// accept only a Fetcher, so by construction they cannot reach a mutation
// endpoint.
type Fetcher interface {
	FetchThreadsPage(ctx context.Context, userID, pageToken string, pageSize int) (ThreadPage, error)
}

// Mutator applies a single cleanup action.
type Mutator interface {
	Apply(ctx context.Context, userID string, req ActionRequest) error
}

// Client is the full provider surface.
type Client interface {
	Fetcher
	Mutator
}

// BatchMutator is an optional capability: providers that support it receive
// grouped submissions to stay within rate limits. The returned slice is
// parallel to reqs; a nil entry means that request succeeded.
type BatchMutator interface {
	BatchApply(ctx context.Context, userID string, reqs []ActionRequest) []error
}
