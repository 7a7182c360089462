package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/equipment-diagnostics/internal/models"
	"google.golang.org/genai"
)

// generate calls the model, retrying rate-limited attempts with a linear
// backoff of baseDelay * attempt.
func (c *Client) generate(ctx context.Context, contents []*genai.Content, genConfig *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	maxRetries := c.cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.cfg.RetryBaseDelay * time.Duration(attempt)
			c.logger.WithFields(log.Fields{
				"attempt": attempt,
				"delay":   delay,
			}).Warn("Inference rate limited, retrying")
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		resp, err := c.gen.GenerateContent(ctx, c.cfg.Model, contents, genConfig)
		if err == nil {
			return resp, nil
		}
		if !isRateLimited(err) {
			return nil, fmt.Errorf("inference request failed: %w", err)
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: max retries exceeded: %v", models.ErrRateLimited, lastErr)
}

func isRateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED") {
		return true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil &&
		(apiErrPtr.Code == http.StatusTooManyRequests || apiErrPtr.Status == "RESOURCE_EXHAUSTED") {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "too many requests")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
