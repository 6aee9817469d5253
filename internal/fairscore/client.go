package fairscore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	dErrors "faircircle/pkg/domain-errors"
	id "faircircle/pkg/domain"
)

var (
	// ErrBadCredentials means the configured API key was rejected.
	ErrBadCredentials = dErrors.New(dErrors.CodeInternal, "scoring service rejected API credentials")
	// ErrRateLimited means the scoring service throttled us.
	ErrRateLimited = dErrors.New(dErrors.CodeUnavailable, "scoring service rate limit exceeded, try again later")
)

const defaultTimeout = 10 * time.Second

// Client is an Oracle backed by the FairScale HTTP API. Requests carry the
// API key in the fairkey header.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// NewClient constructs a FairScale API client.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup fetches the numeric score from the lightweight endpoint. Unknown
// principals resolve to zero.
func (c *Client) Lookup(ctx context.Context, principal id.Principal) (uint8, error) {
	resp, err := c.get(ctx, "/fairScore", principal)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return 0, nil
	default:
		return 0, statusError(resp.StatusCode)
	}

	// The API answers with either fairscore or fair_score.
	var body struct {
		FairScore      *uint8 `json:"fairscore"`
		FairScoreSnake *uint8 `json:"fair_score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode score response: %w", err)
	}
	if body.FairScore != nil {
		return *body.FairScore, nil
	}
	if body.FairScoreSnake != nil {
		return *body.FairScoreSnake, nil
	}
	return 0, nil
}

// Report fetches the full score view including tier and badges.
func (c *Client) Report(ctx context.Context, principal id.Principal) (*Score, error) {
	resp, err := c.get(ctx, "/score", principal)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return &Score{
			Principal: principal,
			Value:     0,
			Tier:      TierUnrated,
			Badges:    []string{},
		}, nil
	default:
		return nil, statusError(resp.StatusCode)
	}

	var body struct {
		FairScore uint8    `json:"fairscore"`
		Tier      Tier     `json:"tier"`
		Badges    []string `json:"badges"`
		Timestamp string   `json:"timestamp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode score response: %w", err)
	}

	tier := body.Tier
	if tier == "" {
		tier = TierFor(body.FairScore)
	}
	badges := body.Badges
	if badges == nil {
		badges = []string{}
	}
	return &Score{
		Principal:   principal,
		Value:       body.FairScore,
		Tier:        tier,
		Badges:      badges,
		LastUpdated: body.Timestamp,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, principal id.Principal) (*http.Response, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("scoring service URL: %w", err)
	}
	q := u.Query()
	q.Set("wallet", principal.String())
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build score request: %w", err)
	}
	req.Header.Set("fairkey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "scoring service unreachable")
	}
	return resp, nil
}

func statusError(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrBadCredentials
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("scoring service returned status %d", status))
	}
}
