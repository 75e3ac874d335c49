package docai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/Veraticus/tradeflow/internal/common"
)

// classifyError marks API failures for retry: 429 is a rate limit, 5xx and
// transport errors are transient, other API errors are permanent.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", common.ErrTransient, err)
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= 500:
		return fmt.Errorf("%w: %w", common.ErrTransient, err)
	default:
		return common.Permanent(err)
	}
}
