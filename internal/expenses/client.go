package expenses

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"budgeteer/internal/logger"
)

// DefaultTimeout bounds each attempt against a single source.
const DefaultTimeout = 5 * time.Second

// Client tries a ranked list of sources in order and returns the first
// successful answer. It degrades to an empty result instead of failing, so
// callers never see an error from the expense subsystem.
type Client struct {
	sources []Source
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewClient creates a client over the given sources, tried in the given order.
func NewClient(sources []Source, timeout time.Duration, log *zap.SugaredLogger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{sources: sources, timeout: timeout, log: log}
}

// NewHTTPClient builds a Client with one HTTPSource per candidate base URL.
func NewHTTPClient(candidates []string, timeout time.Duration, log *zap.SugaredLogger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := &http.Client{Timeout: timeout}

	sources := make([]Source, 0, len(candidates))
	for _, base := range candidates {
		sources = append(sources, NewHTTPSource(base, httpClient))
	}
	return NewClient(sources, timeout, log)
}

// FetchExpenses returns the user's expenses from the first source that answers.
// Sources are tried sequentially, each under its own timeout. When every
// source fails the result is an empty slice.
func (c *Client) FetchExpenses(ctx context.Context, userID string) []Expense {
	log := logger.FromContext(ctx, c.log)

	for i, src := range c.sources {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		start := time.Now()
		result, err := src.Fetch(attemptCtx, userID)
		cancel()

		if err != nil {
			log.Warnw("expense source failed",
				"source", src.Name(),
				"attempt", i+1,
				"user_id", userID,
				"latency_ms", time.Since(start).Milliseconds(),
				"error", err.Error(),
			)
			continue
		}

		log.Debugw("expenses fetched",
			"source", src.Name(),
			"user_id", userID,
			"expenses", len(result),
		)
		return result
	}

	log.Warnw("all expense sources failed, continuing without expenses",
		"user_id", userID,
		"sources", len(c.sources),
	)
	return []Expense{}
}
