// Package vendors holds what the Vimeo, Zoom and Stripe wrappers share: the live/mock mode
// names, the vendor API error, and a JSON REST client guarded by a circuit breaker.
package vendors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/aura-academy/backend/internal/metrics"
)

// Client modes, chosen once at startup.
const (
	ModeLive = "live"
	ModeMock = "mock"
)

// DefaultTimeout bounds every vendor HTTP call.
const DefaultTimeout = 15 * time.Second

// ErrUnavailable is returned while a vendor's circuit breaker is open.
var ErrUnavailable = errors.New("vendor unavailable")

// APIError is a non-2xx answer from a vendor API.
type APIError struct {
	Vendor  string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api: status %d: %s", e.Vendor, e.Status, e.Message)
}

// IsNotFound reports whether err is a vendor 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// isClientError reports 4xx answers other than 429; they say nothing about vendor health.
func isClientError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 &&
		apiErr.Status != http.StatusTooManyRequests
}

// NewBreaker returns a circuit breaker that opens after five consecutive failures and tries
// again after thirty seconds. Client errors and context cancellation count as successes.
func NewBreaker[T any](name string, logger *zap.Logger) *gobreaker.CircuitBreaker[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isClientError(err) || errors.Is(err, context.Canceled)
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Execute runs fn through breaker, records the call metric and maps breaker rejections to ErrUnavailable.
func Execute[T any](breaker *gobreaker.CircuitBreaker[T], vendor, op string, fn func() (T, error)) (T, error) {
	start := time.Now()
	out, err := breaker.Execute(fn)
	result := "success"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		result = "rejected"
		err = fmt.Errorf("%s %s: %w", vendor, op, ErrUnavailable)
	case err != nil:
		result = "error"
	}
	metrics.RecordVendorCall(vendor, op, result, time.Since(start))
	return out, err
}

// REST is a JSON client for one vendor API.
type REST struct {
	vendor  string
	baseURL string
	http    *http.Client
	header  http.Header
	limiter *rate.Limiter
	auth    func(ctx context.Context, req *http.Request) error
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  *zap.Logger
}

// RESTOption customises a REST client.
type RESTOption func(*REST)

// WithHeader adds a header to every request.
func WithHeader(key, value string) RESTOption {
	return func(r *REST) { r.header.Set(key, value) }
}

// WithRateLimit caps requests per second (burst equals the rate).
func WithRateLimit(perSecond int) RESTOption {
	return func(r *REST) {
		if perSecond > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
		}
	}
}

// WithAuth sets a hook that authorises each request, e.g. by adding a bearer token.
func WithAuth(fn func(ctx context.Context, req *http.Request) error) RESTOption {
	return func(r *REST) { r.auth = fn }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) RESTOption {
	return func(r *REST) { r.http = c }
}

// NewREST creates a client for vendor rooted at baseURL.
func NewREST(vendor, baseURL string, logger *zap.Logger, opts ...RESTOption) *REST {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &REST{
		vendor:  vendor,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		header:  http.Header{"Accept": []string{"application/json"}},
		logger:  logger,
	}
	for _, o := range opts {
		o(r)
	}
	r.breaker = NewBreaker[struct{}](vendor+"-api", logger)
	return r
}

// Do sends in as JSON (when non-nil) to method path and decodes a JSON answer into out (when non-nil).
// path may be absolute, for vendor-returned URLs.
func (r *REST) Do(ctx context.Context, op, method, path string, in, out any) error {
	_, err := Execute(r.breaker, r.vendor, op, func() (struct{}, error) {
		return struct{}{}, r.do(ctx, method, path, in, out)
	})
	if err != nil {
		r.logger.Warn("vendor call failed", zap.String("vendor", r.vendor), zap.String("op", op), zap.Error(err))
	}
	return err
}

func (r *REST) do(ctx context.Context, method, path string, in, out any) error {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	url := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		url = r.baseURL + path
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	for k, v := range r.header {
		req.Header[k] = v
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.auth != nil {
		if err := r.auth(ctx, req); err != nil {
			return err
		}
	}
	return DoJSON(r.http, req, r.vendor, out)
}

// DoJSON sends req and decodes a 2xx JSON body into out. Non-2xx answers become *APIError.
func DoJSON(client *http.Client, req *http.Request, vendor string, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", vendor, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Vendor: vendor, Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s decode response: %w", vendor, err)
	}
	return nil
}

// errorMessage pulls a human message out of the common vendor error shapes.
func errorMessage(raw []byte) string {
	var shape struct {
		Error            any    `json:"error"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		DeveloperMessage string `json:"developer_message"`
	}
	if json.Unmarshal(raw, &shape) == nil {
		for _, m := range []string{shape.DeveloperMessage, shape.ErrorDescription, shape.Message} {
			if m != "" {
				return m
			}
		}
		if s, ok := shape.Error.(string); ok && s != "" {
			return s
		}
	}
	return strings.TrimSpace(string(raw))
}
