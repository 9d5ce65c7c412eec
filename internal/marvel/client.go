package marvel

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"heroscope/internal/domain"
)

// CharactersPath is the list endpoint relative to the API base URL
const CharactersPath = "/v1/public/characters"

var (
	// ErrNotConfigured is returned when no base URL or public key is set
	ErrNotConfigured = errors.New("marvel api not configured")
	// ErrUnexpectedStatus is returned for any non-200 response
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrMalformedResponse is returned when the body is not the expected envelope
	ErrMalformedResponse = errors.New("malformed response")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Options configures the HTTP client
type Options struct {
	BaseURL    string
	PublicKey  string
	PrivateKey string // optional; enables server-side ts/hash authentication
	Timeout    time.Duration
}

// Client fetches character pages from the Marvel API
type Client struct {
	opts   Options
	http   *http.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewClient creates a new API client
func NewClient(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		opts:   opts,
		http:   &http.Client{Timeout: opts.Timeout},
		logger: logger.Named("marvel"),
		now:    time.Now,
	}
}

// FetchPage loads one page of characters whose names start with search
func (c *Client) FetchPage(ctx context.Context, search string, offset, limit int) (domain.FetchResult, error) {
	u, err := c.pageURL(search, offset, limit)
	if err != nil {
		return domain.FetchResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.FetchResult{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("calling marvel api", zap.String("search", search), zap.Int("offset", offset), zap.Int("limit", limit))

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.FetchResult{}, fmt.Errorf("failed to call marvel api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.FetchResult{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		status := gjson.GetBytes(body, "status").String()
		if status == "" {
			status = gjson.GetBytes(body, "message").String()
		}
		return domain.FetchResult{}, fmt.Errorf("%w: %s %s", ErrUnexpectedStatus, resp.Status, status)
	}

	return parsePage(body)
}

func (c *Client) pageURL(search string, offset, limit int) (string, error) {
	if c.opts.BaseURL == "" || c.opts.PublicKey == "" {
		return "", ErrNotConfigured
	}
	u, err := url.Parse(c.opts.BaseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base url: %w", err)
	}
	u = u.JoinPath(CharactersPath)

	query := u.Query()
	query.Set("apikey", c.opts.PublicKey)
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	if search != "" {
		query.Set("nameStartsWith", search)
	}
	if c.opts.PrivateKey != "" {
		ts := strconv.FormatInt(c.now().Unix(), 10)
		query.Set("ts", ts)
		query.Set("hash", Hash(ts, c.opts.PrivateKey, c.opts.PublicKey))
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// Hash computes the request signature md5(ts + privateKey + publicKey)
func Hash(ts, privateKey, publicKey string) string {
	sum := md5.Sum([]byte(ts + privateKey + publicKey))
	return hex.EncodeToString(sum[:])
}

// parsePage plucks data.total and data.results out of the response envelope
func parsePage(body []byte) (domain.FetchResult, error) {
	if !gjson.ValidBytes(body) {
		return domain.FetchResult{}, fmt.Errorf("%w: invalid json", ErrMalformedResponse)
	}
	total := gjson.GetBytes(body, "data.total")
	results := gjson.GetBytes(body, "data.results")
	if !total.Exists() || !results.IsArray() {
		return domain.FetchResult{}, fmt.Errorf("%w: missing data.total or data.results", ErrMalformedResponse)
	}

	items := []domain.Hero{}
	if err := json.UnmarshalFromString(results.Raw, &items); err != nil {
		return domain.FetchResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return domain.FetchResult{Items: items, Total: int(total.Int())}, nil
}
