package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"github.com/hupe1980/listgo/codec"
	"github.com/hupe1980/listgo/core"
	"github.com/hupe1980/listgo/dataset"
)

// Fetcher is the transport the accumulator talks through. Implementations
// must be safe for concurrent use: page fetches and background commits may
// overlap.
type Fetcher interface {
	// FetchPage requests one page of the filtered, ordered sequence.
	FetchPage(ctx context.Context, page, limit int, search string) ([]dataset.Item, error)

	// FetchSelection returns the server's current selection set.
	FetchSelection(ctx context.Context) ([]core.ItemID, error)

	// PushOrder replaces the server's ordering override with ids.
	PushOrder(ctx context.Context, ids []core.ItemID) error

	// PushSelection replaces the server's selection set with ids.
	PushSelection(ctx context.Context, ids []core.ItemID) error
}

// HTTPFetcherOptions configure an HTTPFetcher.
type HTTPFetcherOptions struct {
	// Client is the underlying HTTP client. When nil, a client with a
	// cookie jar (for credentialed sessions) and a 30s timeout is used.
	Client *http.Client

	// Codec encodes and decodes request/response bodies.
	Codec codec.Codec
}

// HTTPFetcher implements Fetcher against the httpapi endpoints.
type HTTPFetcher struct {
	baseURL *url.URL
	client  *http.Client
	codec   codec.Codec
}

// NewHTTPFetcher creates a fetcher for the server at baseURL
// (e.g. "http://localhost:4000").
func NewHTTPFetcher(baseURL string, optFns ...func(*HTTPFetcherOptions)) (*HTTPFetcher, error) {
	opts := HTTPFetcherOptions{
		Codec: codec.Default,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Client == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		opts.Client = &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		}
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &HTTPFetcher{
		baseURL: u,
		client:  opts.Client,
		codec:   opts.Codec,
	}, nil
}

// FetchPage implements Fetcher.
func (f *HTTPFetcher) FetchPage(ctx context.Context, page, limit int, search string) ([]dataset.Item, error) {
	u := f.baseURL.JoinPath("/api/items")
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if search != "" {
		q.Set("search", search)
	}
	u.RawQuery = q.Encode()

	var items []dataset.Item
	if err := f.get(ctx, u.String(), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FetchSelection implements Fetcher.
func (f *HTTPFetcher) FetchSelection(ctx context.Context) ([]core.ItemID, error) {
	var ids []core.ItemID
	if err := f.get(ctx, f.baseURL.JoinPath("/api/selected").String(), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// PushOrder implements Fetcher.
func (f *HTTPFetcher) PushOrder(ctx context.Context, ids []core.ItemID) error {
	return f.post(ctx, f.baseURL.JoinPath("/api/order").String(), ids)
}

// PushSelection implements Fetcher.
func (f *HTTPFetcher) PushSelection(ctx context.Context, ids []core.ItemID) error {
	return f.post(ctx, f.baseURL.JoinPath("/api/selected").String(), ids)
}

func (f *HTTPFetcher) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return f.codec.Unmarshal(body, out)
}

func (f *HTTPFetcher) post(ctx context.Context, url string, v any) error {
	body, err := f.codec.Marshal(v)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return nil
}
