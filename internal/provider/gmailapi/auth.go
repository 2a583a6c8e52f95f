package gmailapi

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mbrt/gmailctl/cmd/gmailctl/localcred"
	gmailv1 "google.golang.org/api/gmail/v1"
)

// Scope selects how much of the mailbox a client may touch. Analyze and
// dry-run paths use readonly so a scope mixup cannot mutate anything.
type Scope int

const (
	ScopeReadonly Scope = iota
	ScopeModify
)

// NewClient authenticates against Gmail using gmailctl-style local
// credentials stored under cfgDir and returns a ready client. The first run
// walks the user through the OAuth consent flow for the requested scope.
func NewClient(ctx context.Context, cfgDir string, scope Scope, logger *slog.Logger) (*Client, error) {
	var svc *gmailv1.Service
	var err error
	switch scope {
	case ScopeReadonly:
		svc, err = (localcred.Provider{}).ServiceWithScopes(ctx, cfgDir, gmailv1.GmailReadonlyScope)
	case ScopeModify:
		svc, err = (localcred.Provider{}).ServiceWithScopes(ctx, cfgDir, gmailv1.GmailModifyScope)
	default:
		return nil, fmt.Errorf("unknown scope %d", scope)
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate with gmail: %w", err)
	}
	return New(svc, logger), nil
}
