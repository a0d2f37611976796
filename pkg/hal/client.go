package hal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/matzehuels/olsclient/pkg/buildinfo"
	olserrors "github.com/matzehuels/olsclient/pkg/errors"
	"github.com/matzehuels/olsclient/pkg/httputil"
	"github.com/matzehuels/olsclient/pkg/observability"
)

// DefaultTimeout bounds a single request when no HTTP client is supplied.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response is read for the error
// envelope.
const maxErrorBody = 64 << 10

// Options configures a [Client]. The zero value is usable.
type Options struct {
	// HTTPClient overrides the underlying client. Timeout is ignored when set.
	HTTPClient *http.Client
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
	// RateLimit caps outgoing requests per second. Zero disables limiting.
	RateLimit float64
	// Burst is the limiter's bucket size. Values below 1 mean 1.
	Burst int
	// Headers are applied to every request.
	Headers map[string]string
	// Logger receives debug lines for each request. Nil uses log.Default().
	Logger *log.Logger
}

// Client fetches HAL documents over HTTP.
// It is safe for concurrent use.
type Client struct {
	http    *http.Client
	headers map[string]string
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewClient creates a Client from opts.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), max(opts.Burst, 1))
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Client{
		http:    hc,
		headers: opts.Headers,
		limiter: limiter,
		logger:  logger,
	}
}

// Get fetches rawURL and decodes the body as a [Document].
//
// The returned error is classified for [httputil.Retrier]: network failures,
// 429 responses and malformed bodies are wrapped as retryable, 5xx responses
// carry SERVER_ERROR, and every other non-2xx status is terminal.
func (c *Client) Get(ctx context.Context, rawURL string) (*Document, error) {
	body, finalURL, err := c.doRequest(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(finalURL, body)
	if err != nil {
		return nil, httputil.Retryable(olserrors.Wrap(olserrors.ErrCodeOLS, err, "malformed response"))
	}
	return doc, nil
}

// GetBytes fetches rawURL and returns the raw body, for endpoints whose
// payload is not a JSON object. Errors are classified as for [Client.Get].
func (c *Client) GetBytes(ctx context.Context, rawURL string) ([]byte, error) {
	body, _, err := c.doRequest(ctx, rawURL)
	return body, err
}

func (c *Client) doRequest(ctx context.Context, rawURL string) ([]byte, string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, "", olserrors.Wrap(olserrors.ErrCodeOLS, err, "rate limit wait for %s", rawURL)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", olserrors.Wrap(olserrors.ErrCodeBadParameter, err, "invalid request URL %q", rawURL)
	}
	req.Header.Set("Accept", "application/hal+json, application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set("X-Request-ID", uuid.NewString())
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	c.logger.Debug("GET", "url", rawURL, "request_id", req.Header.Get("X-Request-ID"))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, "", olserrors.Wrap(olserrors.ErrCodeOLS, ctx.Err(), "request %s", rawURL)
		}
		return nil, "", httputil.Retryable(olserrors.Wrap(olserrors.ErrCodeOLS, err, "request %s", rawURL))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		return nil, "", err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", httputil.Retryable(olserrors.Wrap(olserrors.ErrCodeOLS, err, "read body of %s", rawURL))
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return data, finalURL, nil
}

// errorEnvelope is the JSON body OLS returns alongside error statuses.
type errorEnvelope struct {
	Error     string          `json:"error"`
	Message   string          `json:"message"`
	Status    int             `json:"status"`
	Path      string          `json:"path"`
	Timestamp json.RawMessage `json:"timestamp"`
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	env := parseEnvelope(data)

	path := env.Path
	if path == "" && resp.Request != nil && resp.Request.URL != nil {
		path = resp.Request.URL.Path
	}
	message := env.Message
	if message == "" {
		message = env.Error
	}

	e := olserrors.FromStatus(code, path, message)
	if ts, ok := parseTimestamp(env.Timestamp); ok {
		e.Timestamp = ts
	}
	if code == http.StatusTooManyRequests {
		return httputil.Retryable(e)
	}
	return e
}

func parseEnvelope(data []byte) errorEnvelope {
	var env errorEnvelope
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		_ = json.Unmarshal(data, &env)
	}
	return env
}

// parseTimestamp accepts epoch milliseconds or an RFC 3339 string.
func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 {
		return time.Time{}, false
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000-0700", "2006-01-02T15:04:05.000+00:00"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// JoinPath appends path segments to base, escaping nothing: segments must
// already be encoded.
func JoinPath(base string, segments ...string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base %q: %w", base, err)
	}
	out := u.String()
	for _, s := range segments {
		if len(out) > 0 && out[len(out)-1] != '/' {
			out += "/"
		}
		out += strings.TrimLeft(s, "/")
	}
	return out, nil
}
