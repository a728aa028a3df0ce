package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/pinecone/internal/constants"
	"github.com/fivetwenty-io/pinecone/pkg/pinecone"
)

// Request is one outgoing call. URL is fully resolved by the caller.
type Request struct {
	Method  string
	URL     string
	Target  string
	Accept  string
	Body    interface{}
	Headers map[string]string
}

// Response is the raw outcome of a call. Status is not interpreted here.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Client sends requests with the account credentials. It makes exactly one
// attempt per call and never retries.
type Client struct {
	httpClient    *retryablehttp.Client
	credentials   pinecone.Credentials
	controllerURL string
	userAgent     string
	logger        pinecone.Logger
	debug         bool
	interceptors  *pinecone.InterceptorChain
}

// Option configures the client.
type Option func(*Client)

// WithLogger sets the logger used for debug output.
func WithLogger(logger pinecone.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithTimeout bounds a single request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.HTTPClient.Timeout = timeout
		}
	}
}

// WithControllerURL replaces the controller base URL derived from the environment.
func WithControllerURL(base string) Option {
	return func(c *Client) {
		c.controllerURL = strings.TrimRight(base, "/")
	}
}

// WithInterceptors installs an interceptor chain.
func WithInterceptors(chain *pinecone.InterceptorChain) Option {
	return func(c *Client) {
		if chain != nil {
			c.interceptors = chain
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient.HTTPClient = httpClient
		}
	}
}

// NewClient creates a client for the given credentials.
func NewClient(credentials pinecone.Credentials, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil
	retryClient.CheckRetry = neverRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout

	client := &Client{
		httpClient:   retryClient,
		credentials:  credentials,
		userAgent:    constants.DefaultUserAgent,
		interceptors: pinecone.NewInterceptorChain(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Credentials returns the credentials sent with every request.
func (c *Client) Credentials() pinecone.Credentials {
	return c.credentials
}

// ControllerURL returns the account-level URL for path.
func (c *Client) ControllerURL(environment, path string) string {
	if c.controllerURL != "" {
		return c.controllerURL + path
	}

	return ControllerURL(environment, path)
}

// Do performs a single request. GET and DELETE never carry a body; POST and
// PATCH require one. Any status code is returned as a Response; interpreting
// it is left to the caller.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	body, err := c.requestBody(req)
	if err != nil {
		return nil, err
	}

	accept := req.Accept
	if accept == "" {
		accept = constants.MediaTypeJSON
	}

	interceptReq := &pinecone.Request{
		Method:   req.Method,
		URL:      req.URL,
		Target:   req.Target,
		Headers:  make(http.Header),
		Body:     body,
		Metadata: make(map[string]interface{}),
	}

	for key, value := range req.Headers {
		interceptReq.Headers.Set(key, value)
	}

	err = c.interceptors.ExecuteRequestInterceptors(ctx, interceptReq)
	if err != nil {
		transportErr := &pinecone.TransportError{Method: req.Method, URL: req.URL, Err: err}
		c.interceptors.ExecuteResponseInterceptors(ctx, interceptReq, &pinecone.Response{Error: transportErr})

		return nil, transportErr
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		transportErr := &pinecone.TransportError{Method: req.Method, URL: req.URL, Err: err}
		c.interceptors.ExecuteResponseInterceptors(ctx, interceptReq, &pinecone.Response{Error: transportErr})

		return nil, transportErr
	}

	for key, values := range interceptReq.Headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	httpReq.Header.Set(constants.HeaderAPIKey, c.credentials.APIKey())
	httpReq.Header.Set(constants.HeaderAccept, accept)
	httpReq.Header.Set(constants.HeaderContentType, constants.MediaTypeJSON)
	httpReq.Header.Set(constants.HeaderUserAgent, c.userAgent)

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    req.URL,
			"target": req.Target,
			"accept": accept,
		})
	}

	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		transportErr := &pinecone.TransportError{Method: req.Method, URL: req.URL, Err: err}
		c.interceptors.ExecuteResponseInterceptors(ctx, interceptReq, &pinecone.Response{Error: transportErr})

		return nil, transportErr
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		decodeErr := &pinecone.DecodeError{
			StatusCode: httpResp.StatusCode,
			Err:        fmt.Errorf("failed to read response body: %w", err),
		}
		c.interceptors.ExecuteResponseInterceptors(ctx, interceptReq, &pinecone.Response{
			StatusCode: httpResp.StatusCode,
			Headers:    httpResp.Header,
			Error:      decodeErr,
		})

		return nil, decodeErr
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":   resp.StatusCode,
			"duration": time.Since(start).String(),
			"bytes":    len(respBody),
		})
	}

	c.interceptors.ExecuteResponseInterceptors(ctx, interceptReq, &pinecone.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	})

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, target, url, accept string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, URL: url, Target: target, Accept: accept})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, target, url, accept string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, URL: url, Target: target, Accept: accept, Body: body})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, target, url, accept string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, URL: url, Target: target, Accept: accept, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, target, url, accept string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, URL: url, Target: target, Accept: accept})
}

// requestBody applies the verb rules and encodes the body.
func (c *Client) requestBody(req *Request) ([]byte, error) {
	switch req.Method {
	case http.MethodGet, http.MethodDelete:
		return nil, nil

	case http.MethodPost, http.MethodPatch:
		if req.Body == nil {
			return nil, &pinecone.ArgumentError{
				Name:     "body",
				Found:    "none",
				Expected: "a request body for " + req.Method,
			}
		}

		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, &pinecone.ArgumentError{
				Name:     "body",
				Found:    fmt.Sprintf("%T (%v)", req.Body, err),
				Expected: "a JSON-encodable value",
			}
		}

		// typed nil pointers, maps and slices
		if string(data) == "null" {
			return nil, &pinecone.ArgumentError{
				Name:     "body",
				Found:    fmt.Sprintf("nil %T", req.Body),
				Expected: "a request body for " + req.Method,
			}
		}

		return data, nil

	default:
		return nil, &pinecone.UnsupportedMethodError{Method: req.Method}
	}
}

// neverRetry stops after the first attempt and hands back its error, if any.
func neverRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	return false, err
}
