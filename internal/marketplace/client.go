package marketplace

import (
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"

	"github.com/vsix-harvester/vsix-harvester/internal/branding"
)

const (
	// DefaultAPIURL is the gallery extensionquery endpoint.
	DefaultAPIURL = "https://marketplace.visualstudio.com/_apis/public/gallery/extensionquery"

	// DefaultGalleryURL is the base for vspackage download URLs.
	DefaultGalleryURL = "https://marketplace.visualstudio.com/_apis/public/gallery/publishers"

	apiVersion = "3.0-preview.1"
)

// Client queries the marketplace and downloads packages.
type Client struct {
	httpClient *http.Client
	proxy      *url.URL
	apiURL     string
	galleryURL string
	userAgent  string
	dumpDir    string
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing). A proxy set
// with WithProxy is ignored when a custom client is supplied.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithProxy routes every request through the given forward proxy.
func WithProxy(u *url.URL) Option {
	return func(cl *Client) {
		cl.proxy = u
	}
}

// WithAPIURL overrides the extensionquery endpoint.
func WithAPIURL(u string) Option {
	return func(cl *Client) {
		cl.apiURL = u
	}
}

// WithGalleryURL overrides the base used to build download URLs.
func WithGalleryURL(u string) Option {
	return func(cl *Client) {
		cl.galleryURL = u
	}
}

// WithUserAgent replaces the full User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// WithDumpDir makes the client write each raw query response into dir.
func WithDumpDir(dir string) Option {
	return func(cl *Client) {
		cl.dumpDir = dir
	}
}

// New creates a Client. version is appended to the User-Agent product token.
func New(version string, opts ...Option) *Client {
	c := &Client{
		apiURL:     DefaultAPIURL,
		galleryURL: DefaultGalleryURL,
		userAgent:  branding.UserAgent() + "/" + version,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	if c.httpClient == nil {
		c.httpClient = newHTTPClient(c.proxy)
	} else if c.proxy != nil {
		c.logger.Warn("Custom HTTP client supplied, ignoring proxy", "proxy", c.proxy.Redacted())
	}
	return c
}

// GalleryURL returns the base used to build download URLs.
func (c *Client) GalleryURL() string {
	return c.galleryURL
}

// UserAgent returns the User-Agent sent with every request.
func (c *Client) UserAgent() string {
	return c.userAgent
}

func newHTTPClient(proxy *url.URL) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != nil {
		transport.Proxy = http.ProxyURL(proxy)
	}
	// Downloads negotiate gzip themselves so the encoding is visible.
	transport.DisableCompression = true
	return &http.Client{Transport: transport}
}
