package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"compotube/internal/model"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/oauth2"
)

const youtubeAPIBase = "https://www.googleapis.com/youtube/v3"

// DefaultBackoff is the delay before the first retry. It doubles on each attempt.
const DefaultBackoff = 500 * time.Millisecond

// AccountTokens provides the selected account and the source of its access
// token. A nil source means the API key is used instead.
type AccountTokens interface {
	TokenSource() (account string, src oauth2.TokenSource, err error)
}

// APIError is a non-2xx response from the YouTube Data API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("API error: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ErrNoCredentials is returned when neither an access token nor an API key is available.
var ErrNoCredentials = errors.New("no access token or API key")

// YouTubeClient wraps the YouTube Data API search endpoint.
type YouTubeClient struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	tokens      AccountTokens
	maxResults  int
	maxAttempts int
	backoff     time.Duration
	cache       *lru.Cache[string, []model.SearchItem]
	logger      *slog.Logger
}

// Option configures a YouTubeClient.
type Option func(*YouTubeClient)

// WithBaseURL points the client at another API root.
func WithBaseURL(base string) Option {
	return func(c *YouTubeClient) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *YouTubeClient) { c.httpClient = hc }
}

// WithTimeout sets the timeout of each HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(c *YouTubeClient) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d, Transport: c.httpClient.Transport}
		}
	}
}

// WithMaxResults sets the number of results requested per search.
func WithMaxResults(n int) Option {
	return func(c *YouTubeClient) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// WithRetry sets the number of attempts and the initial backoff for retryable failures.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *YouTubeClient) {
		if attempts > 0 {
			c.maxAttempts = attempts
		}
		c.backoff = backoff
	}
}

// WithCacheSize caches up to n responses per account and query. Zero disables caching.
func WithCacheSize(n int) Option {
	return func(c *YouTubeClient) {
		if n <= 0 {
			c.cache = nil
			return
		}
		cache, err := lru.New[string, []model.SearchItem](n)
		if err == nil {
			c.cache = cache
		}
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *YouTubeClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewYouTubeClient creates a search client. apiKey is used when the selected
// account has no access token.
func NewYouTubeClient(apiKey string, tokens AccountTokens, opts ...Option) *YouTubeClient {
	c := &YouTubeClient{
		apiKey:      apiKey,
		baseURL:     youtubeAPIBase,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		tokens:      tokens,
		maxResults:  25,
		maxAttempts: 3,
		backoff:     DefaultBackoff,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	WithCacheSize(64)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search lists videos matching query for the selected account.
func (c *YouTubeClient) Search(ctx context.Context, query string) ([]model.SearchItem, error) {
	account, src, err := c.tokens.TokenSource()
	if err != nil {
		return nil, err
	}
	if src == nil && c.apiKey == "" {
		return nil, fmt.Errorf("account %s: %w", account, ErrNoCredentials)
	}

	if strings.TrimSpace(query) == "" {
		return []model.SearchItem{}, nil
	}

	cacheKey := account + "\x00" + query
	if c.cache != nil {
		if items, ok := c.cache.Get(cacheKey); ok {
			c.logger.Debug("search cache hit", "query", query)
			return items, nil
		}
	}

	hc := c.httpClient
	if src != nil {
		// The oauth2 transport sets the Authorization header on every attempt.
		hc = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient), src)
	}

	requestID := uuid.NewString()
	var items []model.SearchItem
	op := func() error {
		var err error
		items, err = c.list(ctx, hc, query, src == nil, requestID)
		var apiErr *APIError
		if err != nil && (!errors.As(err, &apiErr) || !apiErr.retryable()) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		c.logger.Debug("retrying search", "request_id", requestID, "delay", delay, "error", err)
	}
	if err := backoff.RetryNotify(op, c.retryPolicy(ctx), notify); err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Add(cacheKey, items)
	}
	return items, nil
}

// retryPolicy doubles the delay after each retryable failure, up to maxAttempts
// requests in total.
func (c *YouTubeClient) retryPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.backoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 32 * c.backoff
	b.MaxElapsedTime = 0
	retries := uint64(0)
	if c.maxAttempts > 1 {
		retries = uint64(c.maxAttempts - 1)
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)
}

func (c *YouTubeClient) list(ctx context.Context, hc *http.Client, query string, useKey bool, requestID string) ([]model.SearchItem, error) {
	// Build request URL
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(c.maxResults))
	if useKey {
		params.Set("key", c.apiKey)
	}

	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	started := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("search response", "request_id", requestID, "status", resp.StatusCode, "elapsed", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			apiErr.Message = body.Error.Message
		}
		return nil, apiErr
	}

	var result searchListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("JSON decode error: %w", err)
	}

	items := make([]model.SearchItem, 0, len(result.Items))
	for _, r := range result.Items {
		items = append(items, model.SearchItem{
			VideoID:      r.ID.VideoID,
			Title:        r.Snippet.Title,
			ChannelTitle: r.Snippet.ChannelTitle,
			Description:  r.Snippet.Description,
			PublishedAt:  r.Snippet.PublishedAt,
		})
	}
	return items, nil
}

// API response types

type searchListResponse struct {
	Kind          string         `json:"kind"`
	NextPageToken string         `json:"nextPageToken"`
	Items         []searchResult `json:"items"`
}

type searchResult struct {
	ID      resourceID `json:"id"`
	Snippet snippet    `json:"snippet"`
}

type resourceID struct {
	Kind    string `json:"kind"`
	VideoID string `json:"videoId"`
}

type snippet struct {
	PublishedAt  time.Time `json:"publishedAt"`
	ChannelID    string    `json:"channelId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ChannelTitle string    `json:"channelTitle"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
