package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/oasisline/backoffice/internal/metrics"
)

// Client talks to the remote data gateway: a PostgREST-style row API under
// /rest/v1, an auth sub-API under /auth/v1 and blob storage under /storage/v1.
// The gateway owns all persistence and auth; this layer only shapes requests
// and decodes responses.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Error is a gateway-reported failure. Callers only ever look at StatusCode
// and the human-readable message; the body is kept for logging.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway: %s (status %d)", e.Message, e.StatusCode)
}

// IsNotFound reports whether err is a gateway error for a missing row. The
// row API answers 406 when a single-object request matches zero or more than
// one row.
func IsNotFound(err error) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.StatusCode == http.StatusNotFound || ge.StatusCode == http.StatusNotAcceptable
	}
	return false
}

// IsUnauthorized reports whether err means the caller's token was rejected.
func IsUnauthorized(err error) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.StatusCode == http.StatusUnauthorized || ge.StatusCode == http.StatusForbidden
	}
	return false
}

type response struct {
	status  int
	header  http.Header
	body    []byte
}

func (r *response) decode(target any) error {
	return json.Unmarshal(r.body, target)
}

type requestOpts struct {
	token   string
	headers map[string]string
	raw     []byte
	rawType string
}

func (c *Client) do(ctx context.Context, method, path string, body any, opts requestOpts) (*response, error) {
	var reqBody io.Reader
	contentType := ""
	switch {
	case opts.raw != nil:
		reqBody = bytes.NewReader(opts.raw)
		contentType = opts.rawType
	case body != nil:
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	token := opts.token
	if token == "" {
		token = TokenFrom(ctx)
	}
	if token == "" {
		token = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range opts.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.GatewayRequestsTotal.WithLabelValues(method, "transport_error").Inc()
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}
	metrics.GatewayRequestsTotal.WithLabelValues(method, fmt.Sprintf("%d", resp.StatusCode)).Inc()
	metrics.GatewayRequestDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode >= 400 {
		return nil, &Error{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}
	return &response{status: resp.StatusCode, header: resp.Header, body: respBody}, nil
}

// errorMessage pulls the human-readable message out of a gateway error body.
// Both the row API and the auth sub-API use slightly different shapes.
func errorMessage(body []byte) string {
	var e struct {
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return string(body)
	}
	for _, m := range []string{e.Message, e.Msg, e.ErrorDescription, e.Error} {
		if m != "" {
			return m
		}
	}
	return "unknown gateway error"
}
