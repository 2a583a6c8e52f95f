package gmailapi

import (
	"context"
	"errors"
	"net"

	"google.golang.org/api/googleapi"

	"github.com/tidyinbox/tidyinbox/internal/provider"
)

// rate-limit reasons Google reports under HTTP 403.
var rateLimitReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"quotaExceeded":         true,
	"dailyLimitExceeded":    true,
}

// classify wraps a Gmail API failure with the provider error taxonomy.
// Cancellation passes through untouched so the engine can tell an aborted
// run from a flaky provider.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return provider.NewError(provider.KindTransient, op, err)
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == 401:
			return provider.NewError(provider.KindAuth, op, err)
		case gerr.Code == 403:
			for _, e := range gerr.Errors {
				if rateLimitReasons[e.Reason] {
					return provider.NewError(provider.KindRateLimit, op, err)
				}
			}
			return provider.NewError(provider.KindAuth, op, err)
		case gerr.Code == 429:
			return provider.NewError(provider.KindRateLimit, op, err)
		case gerr.Code >= 500:
			return provider.NewError(provider.KindTransient, op, err)
		}
		return provider.NewError(provider.KindUnknown, op, err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return provider.NewError(provider.KindTransient, op, err)
	}
	return provider.NewError(provider.KindUnknown, op, err)
}
