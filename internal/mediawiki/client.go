package mediawiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// PageInfo identifies a single wiki page as returned by list queries.
type PageInfo struct {
	// PageID is the numeric page identifier (curid).
	PageID int64 `json:"pageid"`

	// Namespace is the MediaWiki namespace number (0 is the main namespace).
	Namespace int `json:"ns"`

	// Title is the canonical page title, e.g. "Command/framed".
	Title string `json:"title"`
}

// Client talks to a single MediaWiki installation.
// It owns an HTTP client with a cookie jar so that the session established
// by Login is shared by every subsequent request, including resource
// downloads made through HTTPClient().
type Client struct {
	// baseURL is the wiki base URL; api.php and index.php are resolved
	// relative to it.
	baseURL *url.URL

	// httpClient performs all requests. It always has a cookie jar.
	httpClient *http.Client

	// userAgent is sent with every request.
	userAgent string

	// username and password are the optional bot-password credentials.
	username string
	password string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// loggedIn tracks whether Login completed successfully. When true,
	// API queries assert the logged-in user so a silently expired session
	// fails loudly instead of mirroring as an anonymous user.
	loggedIn bool

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCredentials sets the bot-password credentials used by Login.
func WithCredentials(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
// Ignored when WithHTTPClient is also given.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the default HTTP client.
// A cookie jar is attached if the client doesn't have one, since the
// login session lives in cookies.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc.Jar == nil {
			jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options
			hc.Jar = jar
		}
		c.httpClient = hc
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		c.maxBodySize = size
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the wiki at baseURL.
// The base URL must be absolute; trailing slash is optional.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	c := &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
			Jar:     jar,
			// Limit redirects to prevent loops
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent:   "context-wiki-mirror/0.1.0",
		maxBodySize: 20 * 1024 * 1024, // 20MB
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the wiki base URL.
func (c *Client) BaseURL() *url.URL {
	return c.baseURL
}

// HTTPClient returns the underlying HTTP client.
// Resource downloads share it so they ride on the login session and
// connection pool.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// RenderURL returns the index.php URL that renders the page with the
// given page ID. Matches the URL RenderPage fetches.
func (c *Client) RenderURL(pageID int64) string {
	u := c.baseURL.JoinPath("index.php")
	u.RawQuery = url.Values{
		"action":   {"render"},
		"uselang":  {"en"},
		"safemode": {"1"},
		"curid":    {strconv.FormatInt(pageID, 10)},
	}.Encode()
	return u.String()
}

// Login authenticates against the wiki using the configured bot-password
// credentials. It performs the standard MediaWiki dance: fetch a login
// token, post the login action, then verify that a session cookie was set.
//
// Returns ErrNoCredentials when the client has no credentials configured.
func (c *Client) Login(ctx context.Context) error {
	if c.username == "" {
		return ErrNoCredentials
	}

	// Get a login token
	token, err := c.loginToken(ctx)
	if err != nil {
		return err
	}

	// Log in
	form := url.Values{
		"format":     {"json"},
		"action":     {"login"},
		"lgname":     {c.username},
		"lgpassword": {c.password},
		"lgtoken":    {token},
	}

	body, err := c.postForm(ctx, c.baseURL.JoinPath("api.php"), form)
	if err != nil {
		return err
	}

	var resp struct {
		Login struct {
			Result string `json:"result"`
			Reason string `json:"reason"`
		} `json:"login"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to parse login response: %w", err)
	}

	if resp.Login.Result != "Success" {
		if resp.Login.Reason != "" {
			return fmt.Errorf("%w: %s (%s)", ErrLoginFailed, resp.Login.Result, resp.Login.Reason)
		}
		return fmt.Errorf("%w: %s", ErrLoginFailed, resp.Login.Result)
	}

	// MediaWiki reports Success before the session is usable if cookies
	// were dropped somewhere along the way, so verify one actually exists.
	if !c.hasSessionCookie() {
		return ErrNoSessionCookie
	}

	c.loggedIn = true
	c.logger.Debug("logged in to wiki", "user", c.assertUser())

	return nil
}

// loginToken fetches a fresh login token from the API.
func (c *Client) loginToken(ctx context.Context) (string, error) {
	params := url.Values{
		"format": {"json"},
		"action": {"query"},
		"meta":   {"tokens"},
		"type":   {"login"},
	}

	body, err := c.get(ctx, c.apiURL(params))
	if err != nil {
		return "", err
	}

	var resp struct {
		Query struct {
			Tokens struct {
				LoginToken string `json:"logintoken"`
			} `json:"tokens"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}

	if resp.Query.Tokens.LoginToken == "" {
		return "", ErrEmptyLoginToken
	}

	return resp.Query.Tokens.LoginToken, nil
}

// hasSessionCookie reports whether the cookie jar holds a session cookie
// for the wiki host.
func (c *Client) hasSessionCookie() bool {
	if c.httpClient.Jar == nil {
		return false
	}
	for _, cookie := range c.httpClient.Jar.Cookies(c.baseURL) {
		if strings.Contains(strings.ToLower(cookie.Name), "session") {
			return true
		}
	}
	return false
}

// assertUser returns the username portion for the assertuser parameter.
// Bot passwords use "User@botname" form; the API asserts on the bare name.
func (c *Client) assertUser() string {
	user, _, _ := strings.Cut(c.username, "@")
	return user
}

// queryListResponse is the shape of an action=query list response.
// With formatversion=2 the continue object is a flat string map that must
// be echoed back verbatim on the next request.
type queryListResponse struct {
	Continue map[string]string `json:"continue"`
	Query    struct {
		AllPages []PageInfo `json:"allpages"`
	} `json:"query"`
}

// ListAllPages enumerates every non-redirect page on the wiki.
// It follows continue-based pagination until the API stops returning a
// continue object, so the result is complete regardless of server-side
// batch limits.
func (c *Client) ListAllPages(ctx context.Context) ([]PageInfo, error) {
	pages := make([]PageInfo, 0)

	// Redirects are filtered server-side: mirroring them would produce
	// duplicate content under two titles.
	base := url.Values{
		"format":        {"json"},
		"formatversion": {"2"},
		"action":        {"query"},
		"list":          {"allpages"},
		"aplimit":       {"max"},
		"apfilterredir": {"nonredirects"},
	}
	if c.loggedIn {
		base.Set("assertuser", c.assertUser())
	}

	cont := map[string]string{}
	for {
		// Check for cancellation between pagination requests
		select {
		case <-ctx.Done():
			return pages, ctx.Err()
		default:
		}

		params := url.Values{}
		for k, v := range base {
			params[k] = v
		}
		for k, v := range cont {
			params.Set(k, v)
		}

		body, err := c.get(ctx, c.apiURL(params))
		if err != nil {
			return pages, err
		}

		var resp queryListResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return pages, fmt.Errorf("failed to parse page list: %w", err)
		}

		pages = append(pages, resp.Query.AllPages...)

		c.logger.Debug("listed pages",
			"batch", len(resp.Query.AllPages),
			"total", len(pages),
			"continue", len(resp.Continue) > 0,
		)

		if len(resp.Continue) == 0 {
			break
		}
		cont = resp.Continue
	}

	return pages, nil
}

// RenderPage fetches the rendered HTML of the page with the given page ID.
// The render action returns the page body only (no skin chrome), which is
// exactly what a static mirror wants to wrap in its own document.
// safemode=1 keeps user JavaScript and gadgets out of the output.
func (c *Client) RenderPage(ctx context.Context, pageID int64) ([]byte, error) {
	return c.get(ctx, c.RenderURL(pageID))
}

// apiURL builds an api.php URL with the given parameters.
func (c *Client) apiURL(params url.Values) string {
	u := c.baseURL.JoinPath("api.php")
	u.RawQuery = params.Encode()
	return u.String()
}

// get performs a GET request and returns the (size-limited) response body.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	return c.do(req)
}

// postForm performs a form-encoded POST request and returns the response body.
func (c *Client) postForm(ctx context.Context, u *url.URL, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req)
}

// do executes a request, enforces the body size limit, and checks status.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d for %s", ErrBadStatus, resp.StatusCode, req.URL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, err
	}

	return body, nil
}
