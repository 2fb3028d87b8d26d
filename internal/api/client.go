package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const HeaderCorrelationID = "X-Correlation-Id"

type ctxKey int

const ctxCorrelationID ctxKey = 0

// WithCorrelationID pins a correlation id on the context so that every
// request made with it carries the same X-Correlation-Id header.
func WithCorrelationID(ctx context.Context, cid string) context.Context {
	return context.WithValue(ctx, ctxCorrelationID, cid)
}

func GetCorrelationID(ctx context.Context) string {
	if v := ctx.Value(ctxCorrelationID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Client is the shared JSON client for the shop backend. All catalog,
// order and delivery calls go through it.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[httpResult]
	logger  *log.Logger
}

type httpResult struct {
	status int
	body   []byte
}

func NewClient(baseURL string, httpClient *http.Client, logger *log.Logger) *Client {
	u, err := url.Parse(baseURL)
	if err != nil {
		// Fail fast: config error
		panic(fmt.Sprintf("invalid api base url %q: %v", baseURL, err))
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	cb := gobreaker.NewCircuitBreaker[httpResult](gobreaker.Settings{
		Name: "shop-api",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Client{baseURL: u, http: httpClient, breaker: cb, logger: logger}
}

// BaseURL returns the configured backend base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.baseURL.String(), "/")
}

// FileURL builds the public URL for an uploaded file id.
func (c *Client) FileURL(fileID string) string {
	return c.BaseURL() + "/files/" + fileID
}

func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	rel := &url.URL{Path: path}
	if len(params) > 0 {
		rel.RawQuery = params.Encode()
	}
	u := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	cid := GetCorrelationID(ctx)
	if cid == "" {
		cid = uuid.NewString()
	}
	req.Header.Set(HeaderCorrelationID, cid)

	// 5xx responses count against the breaker, 4xx do not: a missing
	// product must not take the whole storefront offline.
	res, err := c.breaker.Execute(func() (httpResult, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return httpResult{}, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return httpResult{}, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return httpResult{}, newError(resp.StatusCode, b)
		}
		return httpResult{status: resp.StatusCode, body: b}, nil
	})
	if err != nil {
		if apiErr, ok := err.(*Error); ok {
			return apiErr
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if res.status < http.StatusOK || res.status >= http.StatusMultipleChoices {
		return newError(res.status, res.body)
	}

	if out != nil && len(res.body) > 0 {
		if err := json.Unmarshal(res.body, out); err != nil {
			return fmt.Errorf("decode response from %s: %w", path, err)
		}
	}
	return nil
}
