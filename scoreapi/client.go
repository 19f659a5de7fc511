// Package scoreapi talks to the remote scoring service that owns the leaderboard and
// validates code claims.
package scoreapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultRoot    = "http://localhost:5000/api"
	DefaultTimeout = 15 * time.Second

	LeaderboardEndpoint = "/leaderboard"
	SubmitEndpoint      = "/submit"
	StudentEndpoint     = "/student/"
	HealthEndpoint      = "/health"

	RequestIDHeader = "X-Request-ID"
	healthyStatus   = "healthy"
)

type Config struct {
	Root           string // API root, endpoints are derived from it
	LeaderboardURL string // overrides Root + LeaderboardEndpoint
	SubmitURL      string // overrides Root + SubmitEndpoint
	Timeout        time.Duration
	Clock          clockwork.Clock // stamps the cache-busting parameter
	HTTPClient     *http.Client
}

type Client struct {
	root           string
	leaderboardURL string
	submitURL      string
	client         *http.Client
	clock          clockwork.Clock
	headers        map[string]string
	l              zerolog.Logger
}

func NewClient(cfg Config) *Client {
	root := strings.TrimRight(cfg.Root, "/")
	if root == "" {
		root = DefaultRoot
	}
	c := &Client{
		root:           root,
		leaderboardURL: cfg.LeaderboardURL,
		submitURL:      cfg.SubmitURL,
		client:         cfg.HTTPClient,
		clock:          cfg.Clock,
		headers:        make(map[string]string),
		l:              log.With().Str("package", "scoreapi").Logger(),
	}
	if c.leaderboardURL == "" {
		c.leaderboardURL = root + LeaderboardEndpoint
	}
	if c.submitURL == "" {
		c.submitURL = root + SubmitEndpoint
	}
	if c.client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.client = &http.Client{Timeout: timeout}
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	return c
}

func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

func (c *Client) LeaderboardURL() string {
	return c.leaderboardURL
}

func (c *Client) SubmitURL() string {
	return c.submitURL
}

// Leaderboard fetches the current standings, in the order the service ranks them
func (c *Client) Leaderboard(ctx context.Context) ([]Entry, error) {
	target, err := c.cacheBusted(c.leaderboardURL)
	if err != nil {
		return nil, err
	}

	status, body, err := c.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if !okStatus(status) {
		return nil, &StatusError{Code: status, Body: string(body)}
	}

	var payload leaderboardPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if payload.Leaderboard == nil {
		return nil, fmt.Errorf("%w: missing leaderboard field", ErrMalformedPayload)
	}

	entries := make([]Entry, 0, len(*payload.Leaderboard))
	for i, p := range *payload.Leaderboard {
		e, ok := p.entry()
		if !ok {
			return nil, fmt.Errorf("%w: incomplete entry at index %d", ErrMalformedPayload, i)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Claim submits a secret code for an enrollment number. The service reports rejected
// claims with a 4xx status and a JSON verdict, so any decodable body is a result.
func (c *Client) Claim(ctx context.Context, req ClaimRequest) (ClaimResult, error) {
	jb, err := json.Marshal(req)
	if err != nil {
		return ClaimResult{}, err
	}

	status, body, err := c.do(ctx, http.MethodPost, c.submitURL, jb)
	if err != nil {
		return ClaimResult{}, err
	}

	var res ClaimResult
	if err := json.Unmarshal(body, &res); err != nil {
		if !okStatus(status) {
			return ClaimResult{}, fmt.Errorf("%w: %w", ErrMalformedPayload, &StatusError{Code: status, Body: string(body)})
		}
		return ClaimResult{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return res, nil
}

// Student fetches the claims and total score of one participant
func (c *Client) Student(ctx context.Context, enrollmentNo string) (StudentInfo, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.root+StudentEndpoint+url.PathEscape(enrollmentNo), nil)
	if err != nil {
		return StudentInfo{}, err
	}
	if !okStatus(status) {
		return StudentInfo{}, &StatusError{Code: status, Body: string(body)}
	}

	var info StudentInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return StudentInfo{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return info, nil
}

// Health returns the status the service reports about itself
func (c *Client) Health(ctx context.Context) (string, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.root+HealthEndpoint, nil)
	if err != nil {
		return "", err
	}
	if !okStatus(status) {
		return "", &StatusError{Code: status, Body: string(body)}
	}

	var hp healthPayload
	if err := json.Unmarshal(body, &hp); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if hp.Status != healthyStatus {
		return hp.Status, fmt.Errorf("%w: %q", ErrUnhealthy, hp.Status)
	}
	return hp.Status, nil
}

func (c *Client) cacheBusted(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid leaderboard url %q: %w", target, err)
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(c.clock.Now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) do(ctx context.Context, method, target string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := c.clock.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.l.Debug().
			Err(err).
			Str("request_id", reqID).
			Str("method", method).
			Str("url", target).
			Msg("Request failed")
		return 0, nil, fmt.Errorf("%w: %w", ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: failed to read response body: %w", ErrNetworkUnavailable, err)
	}

	c.l.Debug().
		Str("request_id", reqID).
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Int("bytes", len(respBody)).
		Dur("took", c.clock.Since(start)).
		Send()

	return resp.StatusCode, respBody, nil
}

func okStatus(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}
