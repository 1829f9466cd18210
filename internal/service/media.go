package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// MediaClient talks to the external media host. Calls go through a circuit
// breaker so a failing host is skipped quickly instead of stalling requests.
type MediaClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[struct{}]
}

// NewMediaClient returns a client for baseURL. An empty baseURL yields a
// client whose operations are no-ops.
func NewMediaClient(baseURL, apiKey string, log *zap.Logger) *MediaClient {
	settings := gobreaker.Settings{
		Name:        "media",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}
	return &MediaClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		cb:      gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// DeleteAsset removes an uploaded asset by its public id. A missing asset
// counts as deleted.
func (m *MediaClient) DeleteAsset(ctx context.Context, publicID string) error {
	if m == nil || m.baseURL == "" || publicID == "" {
		return nil
	}
	_, err := m.cb.Execute(func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
			m.baseURL+"/assets/"+url.PathEscape(publicID), nil)
		if err != nil {
			return struct{}{}, err
		}
		if m.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+m.apiKey)
		}
		resp, err := m.http.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
			return struct{}{}, fmt.Errorf("media host returned %d", resp.StatusCode)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("delete asset %s: %w", publicID, err)
	}
	return nil
}
