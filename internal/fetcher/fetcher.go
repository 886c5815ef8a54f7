// Package fetcher retrieves the classifieds feed and unwraps its envelope
// into raw entries for the parser.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mmcdole/gofeed"

	"estate_bot/internal/parser"
)

const fetchTimeout = 10 * time.Second

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Bounds carries optional numeric filters for a district-scoped fetch.
// Nil means the bound is not applied.
type Bounds struct {
	PriceMin *int64
	PriceMax *int64
	RoomsMin *float64
	RoomsMax *float64
}

// Fetcher downloads and parses the listings feed.
type Fetcher struct {
	client  HTTPClient
	feedURL string
	baseURL string
	timeout time.Duration
}

// New creates a Fetcher. feedURL is the default feed; baseURL is the root
// used to build district-scoped variants (<base><district>/rss/).
func New(client HTTPClient, feedURL, baseURL string) *Fetcher {
	return &Fetcher{
		client:  client,
		feedURL: feedURL,
		baseURL: baseURL,
		timeout: fetchTimeout,
	}
}

// Fetch downloads the default feed and returns its entries.
func (f *Fetcher) Fetch(ctx context.Context) ([]parser.Item, error) {
	return f.fetch(ctx, f.feedURL)
}

// FetchDistrict downloads the feed scoped to one district, optionally
// narrowed by price and room bounds via the feed's query parameters.
func (f *Fetcher) FetchDistrict(ctx context.Context, district string, b Bounds) ([]parser.Item, error) {
	u := f.baseURL + district + "/rss/"

	q := url.Values{}
	if b.PriceMin != nil {
		q.Set("topt[8][min]", strconv.FormatInt(*b.PriceMin, 10))
	}
	if b.PriceMax != nil {
		q.Set("topt[8][max]", strconv.FormatInt(*b.PriceMax, 10))
	}
	if b.RoomsMin != nil {
		q.Set("topt[1][min]", strconv.FormatFloat(*b.RoomsMin, 'f', -1, 64))
	}
	if b.RoomsMax != nil {
		q.Set("topt[1][max]", strconv.FormatFloat(*b.RoomsMax, 'f', -1, 64))
	}
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}

	return f.fetch(ctx, u)
}

func (f *Fetcher) fetch(ctx context.Context, u string) ([]parser.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "EstateNotifyBot/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]parser.Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		items = append(items, parser.Item{
			Link:        it.Link,
			Title:       it.Title,
			Description: it.Description,
			PubDate:     it.PublishedParsed,
		})
	}
	return items, nil
}
