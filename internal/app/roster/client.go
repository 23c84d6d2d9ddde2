package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// API reads term, subject and class data from the Class Roster API.
// Implementations must be safe for sequential use from the ingestion loop.
type API interface {
	GetRosters(ctx context.Context) ([]RosterPayload, error)
	GetSubjects(ctx context.Context, rosterSlug string) ([]SubjectPayload, error)
	GetClasses(ctx context.Context, rosterSlug, subject string) ([]ClassPayload, error)
}

// ClientConfig holds the tunables of the roster API client.
type ClientConfig struct {
	BaseURL      string
	UserAgent    string
	RateInterval time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	Timeout      time.Duration
}

// Client is the rate-limited Class Roster API client. All calls go through a
// fixed-interval limiter so at most one request is in flight per interval;
// 429 and transport failures are retried a bounded number of times with a
// fixed delay.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewClient creates a roster API client.
func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://classes.cornell.edu/api/2.0"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "rosterchat/1.0"
	}
	if cfg.RateInterval <= 0 {
		cfg.RateInterval = time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(cfg.RateInterval), 1),
		logger:  logger,
	}
}

// GetRosters fetches all published rosters.
func (c *Client) GetRosters(ctx context.Context) ([]RosterPayload, error) {
	var response struct {
		Data struct {
			Rosters []RosterPayload `json:"rosters"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, "/config/rosters.json", nil, &response); err != nil {
		return nil, err
	}
	return response.Data.Rosters, nil
}

// GetSubjects fetches the subjects offered in a roster.
func (c *Client) GetSubjects(ctx context.Context, rosterSlug string) ([]SubjectPayload, error) {
	var response struct {
		Data struct {
			Subjects []SubjectPayload `json:"subjects"`
		} `json:"data"`
	}
	params := url.Values{"roster": {rosterSlug}}
	if err := c.getJSON(ctx, "/config/subjects.json", params, &response); err != nil {
		return nil, err
	}
	return response.Data.Subjects, nil
}

// GetClasses fetches the classes of a subject within a roster. Records
// missing required fields are dropped and logged, not fatal.
func (c *Client) GetClasses(ctx context.Context, rosterSlug, subject string) ([]ClassPayload, error) {
	var response struct {
		Data struct {
			Classes []json.RawMessage `json:"classes"`
		} `json:"data"`
	}
	params := url.Values{"roster": {rosterSlug}, "subject": {subject}}
	if err := c.getJSON(ctx, "/search/classes.json", params, &response); err != nil {
		return nil, err
	}

	classes := make([]ClassPayload, 0, len(response.Data.Classes))
	for _, raw := range response.Data.Classes {
		var class ClassPayload
		if err := json.Unmarshal(raw, &class); err != nil {
			c.logger.Warn().Err(err).
				Str("roster", rosterSlug).
				Str("subject", subject).
				Msg("Dropping malformed class record")
			continue
		}
		if !class.Valid() {
			c.logger.Warn().
				Str("roster", rosterSlug).
				Str("subject", subject).
				Str("catalogNbr", class.CatalogNbr).
				Msg("Dropping class record with missing required fields")
			continue
		}
		classes = append(classes, class)
	}
	return classes, nil
}

// getJSON performs one rate-limited GET with bounded retries.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.cfg.BaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Debug().
				Str("url", endpoint).
				Int("attempt", attempt).
				Err(lastErr).
				Msg("Retrying roster API request")
			select {
			case <-time.After(c.cfg.RetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		body, err := c.doRequest(ctx, endpoint)
		if err != nil {
			lastErr = err
			if retryable(err) {
				continue
			}
			return err
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode roster API response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("roster API request failed after %d retries: %w", c.cfg.MaxRetries, lastErr)
}

// statusError marks HTTP-level failures so retry logic can tell 429 apart
// from client errors.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.code, http.StatusText(e.code))
}

func retryable(err error) bool {
	if se, ok := err.(*statusError); ok {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	// Anything else that reached here is a transport failure.
	return true
}

func (c *Client) doRequest(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}
