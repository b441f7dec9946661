// Package poster sends filtered payloads to the generate service.
package poster

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mcncl/genpost/internal/errors"
	"github.com/mcncl/genpost/internal/models"
	"github.com/mcncl/genpost/internal/parser"
)

// DefaultPath is appended to the base URL to build the target endpoint.
const DefaultPath = "/service/generate"

// DefaultTimeout bounds a request when Options.Timeout is unset.
const DefaultTimeout = 10 * time.Second

const maxErrorBody = 2048

// Options configures a Client.
type Options struct {
	BaseURL  string
	Path     string
	Timeout  time.Duration
	Insecure bool

	// HTTPClient overrides the client built from Insecure. Mostly for tests.
	HTTPClient *http.Client
}

// Client posts JSON payloads to a single endpoint.
type Client struct {
	endpoint string
	timeout  time.Duration
	insecure bool
	http     *http.Client
	logger   *zap.Logger
}

// NewClient returns a Client for opts. TLS certificate verification is
// enforced unless opts.Insecure is set.
func NewClient(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	path := opts.Path
	if path == "" {
		path = DefaultPath
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: opts.Insecure,
		}
		httpClient = &http.Client{Transport: transport}
	}

	return &Client{
		endpoint: Endpoint(opts.BaseURL, path),
		timeout:  timeout,
		insecure: opts.Insecure,
		http:     httpClient,
		logger:   logger,
	}
}

// Endpoint joins base and path after removing trailing slashes from base.
func Endpoint(base, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(base, "/") + path
}

// URL returns the endpoint the client posts to.
func (c *Client) URL() string {
	return c.endpoint
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// Post serializes payload as JSON, sends it and returns the decoded response
// object. Transport failures, non-2xx statuses and bodies that are not a JSON
// object are reported as HTTP errors.
func (c *Client) Post(ctx context.Context, payload models.JSONValue) (models.JSONObject, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	c.logger.Info("posting payload",
		zap.String("url", c.endpoint),
		zap.Bool("verify", !c.insecure),
		zap.Int("bytes", len(body)),
	)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("request build failed", zap.String("url", c.endpoint), zap.Error(err))
		return nil, errors.NewHTTPError(fmt.Sprintf("invalid request to %s", c.endpoint), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("HTTP request failed", zap.String("url", c.endpoint), zap.Error(err))
		return nil, errors.NewHTTPError("HTTP request failed", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		c.logger.Error("unexpected response status",
			zap.Int("status", res.StatusCode),
			zap.String("url", c.endpoint),
			zap.String("body", strings.TrimSpace(string(excerpt))),
		)
		return nil, errors.NewHTTPError(
			fmt.Sprintf("%d %s for url %s", res.StatusCode, http.StatusText(res.StatusCode), c.endpoint),
			errors.ErrUnexpectedStatus,
		)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		c.logger.Error("response read failed", zap.String("url", c.endpoint), zap.Error(err))
		return nil, errors.NewHTTPError("failed to read response body", err)
	}

	return c.decode(data)
}

func (c *Client) decode(data []byte) (models.JSONObject, error) {
	ir, err := parser.Parse(bytes.NewReader(data))
	if err != nil {
		c.logger.Error("response is not valid JSON", zap.Error(err))
		return nil, errors.NewHTTPError("response not valid JSON", errors.ErrInvalidJSON)
	}

	obj, ok := ir.Root.(models.JSONObject)
	if !ok {
		c.logger.Error("expected JSON map/object from server", zap.String("shape", string(ir.Shape)))
		return nil, errors.NewHTTPError(
			fmt.Sprintf("expected JSON map/object in response, got %s", ir.Shape),
			errors.ErrNonObjectResponse,
		)
	}

	c.logger.Info("received response", zap.Int("keys", len(obj)))
	return obj, nil
}
