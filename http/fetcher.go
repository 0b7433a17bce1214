// Package http retrieves encoded texture bytes over HTTP.
//
// [Fetcher] satisfies texcache.Fetcher. It also reads file:// URLs so local
// assets and remote ones go through the same path.
package http //nolint:revive // intentional naming for domain clarity

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"os"
)

// DefaultMaxBytes is the largest response body a Fetcher accepts by default.
const DefaultMaxBytes int64 = 256 << 20 // 256 MB

var (
	// ErrTooLarge is returned when a response exceeds the size limit.
	ErrTooLarge = errors.New("http: response exceeds size limit")

	// ErrUnsupportedScheme is returned for URLs that are neither http(s) nor file.
	ErrUnsupportedScheme = errors.New("http: unsupported url scheme")
)

// StatusError is returned for responses other than 200 OK.
type StatusError struct {
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Status)
}

// Fetcher downloads URLs.
type Fetcher struct {
	client    *nethttp.Client
	headers   nethttp.Header
	maxBytes  int64
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the HTTP client used for requests.
func WithClient(client *nethttp.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithHeaders sets additional headers on each request.
func WithHeaders(headers nethttp.Header) Option {
	return func(f *Fetcher) {
		if headers == nil {
			return
		}
		f.headers = headers.Clone()
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) Option {
	return func(f *Fetcher) {
		if f.headers == nil {
			f.headers = make(nethttp.Header)
		}
		f.headers.Set(key, value)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBytes limits the accepted body size. Values <= 0 remove the limit.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBytes = n
	}
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   nethttp.DefaultClient,
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = nethttp.DefaultClient
	}
	return f
}

// Fetch returns the body at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http", "https":
		return f.fetchHTTP(ctx, rawURL)
	case "file":
		return f.readFile(u)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, rawURL, nethttp.NoBody)
	if err != nil {
		return nil, err
	}
	for key, values := range f.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // best-effort drain for connection reuse
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != nethttp.StatusOK {
		return nil, &StatusError{URL: rawURL, Status: resp.Status, Code: resp.StatusCode}
	}
	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}
	return f.readLimited(resp.Body)
}

func (f *Fetcher) readFile(u *url.URL) ([]byte, error) {
	file, err := os.Open(u.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return f.readLimited(file)
}

// readLimited reads r, failing once more than maxBytes have been read.
func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	if f.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBytes)
	}
	return data, nil
}
