package headhunter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// Desktop browser string the public hh.ru pages are requested with.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)" +
		" AppleWebKit/537.36 (KHTML, like Gecko)" +
		" Chrome/58.0.3029.110 Safari/537.36"

	DefaultTimeout = 10 * time.Second
)

// ErrBadStatus is returned for non-2xx responses unless AllowErrorStatus is set.
var ErrBadStatus = errors.New("bad status")

// ErrBodyTooLarge is returned for pages above the body size limit.
var ErrBodyTooLarge = errors.New("page body is too large")

// Page is a fetched document.
type Page struct {
	URL        string
	StatusCode int
	Body       string
}

// OK reports whether the page was served with a 2xx status.
func (p *Page) OK() bool {
	return p.StatusCode >= http.StatusOK && p.StatusCode < http.StatusMultipleChoices
}

// Client fetches public vacancy and resume pages.
type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	// AllowErrorStatus hands non-2xx bodies to the caller instead of failing.
	AllowErrorStatus bool
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the request timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.HTTPClient.Timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header. Blank values keep the default.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.UserAgent = ua
		}
	}
}

// WithAllowErrorStatus makes non-2xx responses parseable pages instead of errors.
func WithAllowErrorStatus(allow bool) Option {
	return func(c *Client) {
		c.AllowErrorStatus = allow
	}
}

// WithHTTPClient replaces the underlying http client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

func New(logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		UserAgent: userAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Fetch downloads the page at url.
func (c *Client) Fetch(ctx context.Context, url string) (*Page, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.request(c.setHeaders(req))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	page := &Page{URL: url, StatusCode: resp.StatusCode, Body: body}

	if !page.OK() {
		if !c.AllowErrorStatus {
			return nil, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
		}
		c.logger.Warn("parsing page served with error status",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
		)
	}

	return page, nil
}

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(raw string) error {
	u, err := neturl.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url host is empty")
	}
	return nil
}
