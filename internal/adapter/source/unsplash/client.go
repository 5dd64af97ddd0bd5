package unsplash

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/snapgrid/internal/domain"
	"github.com/mmcdole/snapgrid/internal/metrics"
	"github.com/tidwall/gjson"
)

const (
	// DefaultBaseURL is the Unsplash photo search endpoint
	DefaultBaseURL = "https://api.unsplash.com/search/photos"

	// DefaultPerPage matches the page size of the first results page
	DefaultPerPage = 30

	// maxErrorBody bounds how much of a failed response is read for diagnostics
	maxErrorBody = 64 << 10
)

// Client issues photo search requests against the Unsplash API
type Client struct {
	baseURL    string
	accessKey  string
	perPage    int
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithPerPage sets the page size requested from the server
func WithPerPage(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.perPage = n
		}
	}
}

// WithTimeout sets an overall request timeout (0 = none)
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithMetrics records request outcomes
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a new Unsplash search client
func NewClient(baseURL, accessKey string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accessKey:  accessKey,
		perPage:    DefaultPerPage,
		httpClient: &http.Client{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request fetches the first results page for searchTerm on a new goroutine and
// hands the outcome to callback. It never blocks the caller.
func (c *Client) Request(searchTerm string, callback func(data []byte, err error)) {
	go func() {
		data, err := c.Fetch(context.Background(), searchTerm)
		if err != nil {
			callback(nil, err)
			return
		}
		callback(data, nil)
	}()
}

// Fetch performs one search request and returns the raw response body.
// Any failure is returned as a *domain.TransportError.
func (c *Client) Fetch(ctx context.Context, searchTerm string) ([]byte, error) {
	start := time.Now()
	body, err := c.doRequest(ctx, searchTerm)
	if err != nil {
		c.metrics.RecordSearch("transport_error", time.Since(start))
		return nil, err
	}
	c.metrics.RecordSearch("success", time.Since(start))
	return body, nil
}

// SearchURL builds the request URL for a search term
func (c *Client) SearchURL(searchTerm string) string {
	query := url.Values{}
	query.Set("query", searchTerm)
	query.Set("client_id", c.accessKey)
	query.Set("page", "1")
	query.Set("per_page", strconv.Itoa(c.perPage))
	return fmt.Sprintf("%s?%s", c.baseURL, query.Encode())
}

func (c *Client) doRequest(ctx context.Context, searchTerm string) ([]byte, error) {
	reqURL := c.SearchURL(searchTerm)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, c.transportError(0, fmt.Errorf("failed to create request: %w", err), searchTerm)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Version", "v1")

	c.logger.Debug("unsplash request", "query", searchTerm, "perPage", c.perPage)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(0, err, searchTerm)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, c.transportError(resp.StatusCode, errors.New(errorMessage(body, resp.Status)), searchTerm)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(resp.StatusCode, fmt.Errorf("failed to read response: %w", err), searchTerm)
	}

	c.logger.Debug("unsplash response", "query", searchTerm, "status", resp.StatusCode, "bytes", len(body))
	return body, nil
}

func (c *Client) transportError(status int, err error, searchTerm string) error {
	terr := &domain.TransportError{Status: status, Err: err}
	c.logger.Error("unsplash request failed", "query", searchTerm, "status", status, "error", err)
	return terr
}

// errorMessage pulls the "errors" array out of an Unsplash error reply,
// falling back to the HTTP status text.
func errorMessage(body []byte, status string) string {
	if !gjson.ValidBytes(body) {
		return status
	}
	var msgs []string
	gjson.GetBytes(body, "errors").ForEach(func(_, value gjson.Result) bool {
		if s := strings.TrimSpace(value.String()); s != "" {
			msgs = append(msgs, s)
		}
		return true
	})
	if len(msgs) == 0 {
		return status
	}
	return strings.Join(msgs, "; ")
}
