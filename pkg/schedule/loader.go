package schedule

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// Fetch retrieves a configuration document over HTTP with exponential
// backoff and jitter. Client errors (4xx) are not retried.
func Fetch(ctx context.Context, rawURL string, logger *slog.Logger) (*Config, error) {
	client := &http.Client{Timeout: 30 * time.Second}

	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("building config request: %w", err))
			}

			resp, err := client.Do(req)
			if err != nil {
				logger.Warn("config fetch failed", "url", rawURL, "error", err)
				return err
			}
			defer func() {
				if closeErr := resp.Body.Close(); closeErr != nil {
					logger.Debug("failed to close config response body", "error", closeErr)
				}
			}()

			switch {
			case resp.StatusCode == http.StatusOK:
			case resp.StatusCode >= 400 && resp.StatusCode < 500:
				return retry.Unrecoverable(fmt.Errorf("fetching config: status %d", resp.StatusCode))
			default:
				return fmt.Errorf("fetching config: status %d", resp.StatusCode)
			}

			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading config body: %w", err)
			}
			return nil
		},
		retry.Attempts(5),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("retrying config fetch", "attempt", n+1, "url", rawURL, "error", err)
		}),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	return Parse(body)
}
