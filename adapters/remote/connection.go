// Package remote provides REST connections and the registry that names them.
// A Connection issues JSON requests against one endpoint and retries
// transient failures a bounded number of times.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/basemodel/adapters/metrics"
	"github.com/artpar/basemodel/ports"
)

// EnvEndpointURL is read when a connection is created without a URL.
const EnvEndpointURL = "REST_ENDPOINT_URL"

// DefaultName is the registry key of a connection created without a name.
const DefaultName = "default"

const contentTypeJSON = "application/json"

// RetryPolicy bounds the attempts made for one call.
// There is no backoff: a failed attempt is retried immediately.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, first one included.
	MaxAttempts int
}

// DefaultRetryPolicy allows one retry (two attempts in total).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 2}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return DefaultRetryPolicy().MaxAttempts
	}
	return p.MaxAttempts
}

// Options configures a Connection.
type Options struct {
	// Name is the registry key. Defaults to DefaultName.
	Name string

	// Headers are sent with every request. Per-call headers win.
	Headers map[string]string

	// HTTPClient is copied and has redirects disabled. Defaults to a client
	// with Timeout.
	HTTPClient *http.Client
	Timeout    time.Duration

	Retry RetryPolicy

	// Logger defaults to a no-op logger.
	Logger  *zerolog.Logger
	Metrics *metrics.Collector

	// Extra holds options the connection does not interpret.
	Extra map[string]any
}

// Connection talks to one REST endpoint.
type Connection struct {
	endpoint   string
	name       string
	headers    map[string]string
	httpClient *http.Client
	retry      RetryPolicy
	logger     zerolog.Logger
	metrics    *metrics.Collector
	extra      map[string]any
}

// NewConnection creates a connection to endpoint. An empty endpoint falls
// back to $REST_ENDPOINT_URL.
func NewConnection(endpoint string, opts Options) *Connection {
	if endpoint == "" {
		endpoint = os.Getenv(EnvEndpointURL)
	}

	name := opts.Name
	if name == "" {
		name = DefaultName
	}

	var client http.Client
	if opts.HTTPClient != nil {
		client = *opts.HTTPClient
	} else {
		client.Timeout = opts.Timeout
		if client.Timeout == 0 {
			client.Timeout = 30 * time.Second
		}
	}
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	headers := make(map[string]string, len(opts.Headers))
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &Connection{
		endpoint:   endpoint,
		name:       name,
		headers:    headers,
		httpClient: &client,
		retry:      opts.Retry,
		logger:     logger.With().Str("connection", name).Logger(),
		metrics:    opts.Metrics,
		extra:      opts.Extra,
	}
}

// Name returns the registry key.
func (c *Connection) Name() string {
	return c.name
}

// Endpoint returns the base URL.
func (c *Connection) Endpoint() string {
	return c.endpoint
}

// Extra returns the uninterpreted options.
func (c *Connection) Extra() map[string]any {
	return c.extra
}

// Ping issues GET / against the endpoint.
func (c *Connection) Ping(ctx context.Context) (any, error) {
	return c.Call(ctx, http.MethodGet, "/", nil, nil)
}

// Call sends one request, retrying transient failures up to the retry policy.
// The error of the last attempt is returned as-is.
func (c *Connection) Call(ctx context.Context, method, p string, payload any, headers map[string]string) (any, error) {
	method = strings.ToUpper(method)

	target, err := c.buildURL(method, p, payload)
	if err != nil {
		return nil, err
	}

	var body []byte
	if method != http.MethodGet {
		body, err = encodeBody(payload)
		if err != nil {
			return nil, err
		}
	}

	hdr := c.buildHeaders(headers)

	start := time.Now()
	attempts := c.retry.attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			c.metrics.IncRetry(c.name, method)
		}

		result, err := c.do(ctx, method, target, body, hdr)
		if err == nil {
			c.metrics.ObserveCall(c.name, method, metrics.OutcomeOK, time.Since(start))
			return result, nil
		}
		lastErr = err

		if !isTransient(err) || ctx.Err() != nil {
			break
		}
		if attempt < attempts {
			c.logger.Warn().
				Err(err).
				Str("method", method).
				Str("url", target).
				Int("attempt", attempt).
				Msg("rest call failed, retrying")
		}
	}

	c.metrics.ObserveCall(c.name, method, metrics.OutcomeError, time.Since(start))
	return nil, lastErr
}

func (c *Connection) do(ctx context.Context, method, target string, body []byte, hdr http.Header) (any, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = hdr.Clone()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 300 {
		return nil, &ResponseError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Location:   resp.Header.Get("Location"),
			Body:       string(data),
		}
	}

	return parse(resp.Header.Get("Content-Type"), data)
}

// buildURL resolves p against the endpoint. Absolute paths replace the
// endpoint path; relative ones are joined onto it. GET payloads are merged
// into the query string over any existing parameters.
func (c *Connection) buildURL(method, p string, payload any) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", c.endpoint, err)
	}

	ref, err := url.Parse(p)
	if err != nil {
		return "", fmt.Errorf("parse path %q: %w", p, err)
	}

	switch {
	case ref.Path == "":
	case strings.HasPrefix(ref.Path, "/"):
		u.Path = ref.Path
	default:
		u.Path = path.Join("/", u.Path, ref.Path)
	}
	u.RawPath = ""

	query := u.Query()
	for k, vs := range ref.Query() {
		query[k] = vs
	}

	if method == http.MethodGet && payload != nil {
		params, err := toQuery(payload)
		if err != nil {
			return "", err
		}
		for k, vs := range params {
			query[k] = vs
		}
	}

	u.RawQuery = query.Encode()
	return u.String(), nil
}

func (c *Connection) buildHeaders(perCall map[string]string) http.Header {
	hdr := make(http.Header, len(c.headers)+len(perCall)+2)
	for k, v := range c.headers {
		hdr.Set(k, v)
	}
	for k, v := range perCall {
		hdr.Set(k, v)
	}
	if hdr.Get("Accept") == "" {
		hdr.Set("Accept", contentTypeJSON)
	}
	if hdr.Get("Content-Type") == "" {
		hdr.Set("Content-Type", contentTypeJSON)
	}
	return hdr
}

func toQuery(payload any) (url.Values, error) {
	switch p := payload.(type) {
	case url.Values:
		return p, nil
	case map[string]string:
		q := make(url.Values, len(p))
		for k, v := range p {
			q.Set(k, v)
		}
		return q, nil
	case map[string]any:
		q := make(url.Values, len(p))
		for k, v := range p {
			switch vs := v.(type) {
			case []string:
				q[k] = vs
			case []any:
				for _, item := range vs {
					q.Add(k, fmt.Sprint(item))
				}
			default:
				q.Set(k, fmt.Sprint(v))
			}
		}
		return q, nil
	default:
		return nil, fmt.Errorf("GET payload must be a map or url.Values, got %T", payload)
	}
}

func encodeBody(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case []byte:
		return p, nil
	case string:
		return []byte(p), nil
	case json.RawMessage:
		return p, nil
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		return data, nil
	}
}

// parse decodes JSON bodies; anything else is returned as a string.
func parse(contentType string, data []byte) (any, error) {
	if !strings.Contains(contentType, contentTypeJSON) {
		return string(data), nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return v, nil
}

// isTransient reports whether an attempt failure may succeed on retry:
// transport failures and error-class HTTP responses.
func isTransient(err error) bool {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

// Ensure interface compliance.
var _ ports.Caller = (*Connection)(nil)
