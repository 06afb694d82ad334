// Package expenses fetches a user's expenses from the external expense service.
package expenses

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"budgeteer/internal/logger"
	"budgeteer/internal/models"
)

// Expense is an externally owned record with a description and line items.
// It is fetched per request and never persisted.
type Expense struct {
	ID          string          `json:"id,omitempty"`
	Description string          `json:"description"`
	Items       models.ItemList `json:"items"`
}

// Source is one candidate location of the expense service.
type Source interface {
	// Name identifies the source in logs.
	Name() string

	// Fetch returns all expenses of the user or an error describing why the
	// source could not serve them.
	Fetch(ctx context.Context, userID string) ([]Expense, error)
}

// HTTPSource reads expenses from GET {base}/{user_id}/expenses.
type HTTPSource struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPSource creates a source rooted at baseURL.
func NewHTTPSource(baseURL string, httpClient *http.Client) *HTTPSource {
	return &HTTPSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Name returns the base URL.
func (s *HTTPSource) Name() string { return s.baseURL }

// Fetch performs the request and decodes the JSON array response.
func (s *HTTPSource) Fetch(ctx context.Context, userID string) ([]Expense, error) {
	endpoint := s.baseURL + "/" + url.PathEscape(userID) + "/expenses"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching expenses: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching expenses: unexpected status %d", resp.StatusCode)
	}

	var result []Expense
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding expenses response: %w", err)
	}
	if result == nil {
		result = []Expense{}
	}
	return result, nil
}

// Candidates returns the ordered, de-duplicated list of base URLs to try:
// the configured primary, the well-known internal location, then the local
// fallback. Blank entries and entries already present earlier are skipped.
func Candidates(primary, internal, local string) []string {
	out := make([]string, 0, 3)
	seen := make(map[string]bool, 3)
	for _, c := range []string{primary, internal, local} {
		c = strings.TrimRight(strings.TrimSpace(c), "/")
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
