package wingo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpclient "github.com/Alias1177/wingo/internal/platform/http"
	"github.com/Alias1177/wingo/models"
)

// Client is the WinGo draw-history API client
type Client struct {
	baseURL    string
	pageSize   int
	httpClient *httpclient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new WinGo client
type ClientOptions struct {
	BaseURL         string
	PageSize        int
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new WinGo API client
func NewClient(options ClientOptions) *Client {
	httpOpts := httpclient.ClientOptions{
		Timeout:         options.RequestTimeout,
		RequestsPerSec:  options.RequestsPerSec,
		MaxRetryTimeout: options.MaxRetryTimeout,
	}

	// Apply defaults if not set
	if httpOpts.Timeout == 0 {
		httpOpts.Timeout = 20 * time.Second
	}
	if options.PageSize == 0 {
		options.PageSize = 20
	}

	return &Client{
		baseURL:    options.BaseURL,
		pageSize:   options.PageSize,
		httpClient: httpclient.NewClient(httpOpts),
		logger:     log.With().Str("component", "wingo_client").Logger(),
	}
}

// GetHistory fetches the latest draw history page and normalizes it into
// rounds ordered oldest first, each stamped with an observation time.
func (c *Client) GetHistory(ctx context.Context) ([]models.Round, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	q := u.Query()
	q.Set("pageNo", "1")
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	u.RawQuery = q.Encode()

	c.logger.Debug().Str("url", u.String()).Msg("Fetching draw history")

	var data models.HistoryResponse
	if err := c.httpClient.GetJSON(ctx, u.String(), &data); err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	items := data.Data.List
	if len(items) == 0 {
		c.logger.Warn().Msg("No rounds in response")
		return nil, fmt.Errorf("empty history returned")
	}

	// The upstream page is newest first; reverse so callers always see
	// rounds oldest first.
	now := time.Now().UTC()
	rounds := make([]models.Round, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		number, err := item.Number.Int64()
		if err != nil {
			return nil, fmt.Errorf("parsing drawn number %q for issue %s: %w", item.Number, item.IssueNumber, err)
		}
		rounds = append(rounds, models.Round{
			Issue:      item.IssueNumber,
			Number:     int(number),
			Color:      item.Color,
			ObservedAt: now,
		})
	}

	c.logger.Debug().Int("count", len(rounds)).Msg("Fetched rounds")
	return rounds, nil
}
