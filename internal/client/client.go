package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fivetwenty-io/pinecone/internal/constants"
	pchttp "github.com/fivetwenty-io/pinecone/internal/http"
	"github.com/fivetwenty-io/pinecone/pkg/pinecone"
)

// Client implements the pinecone.Client interface.
type Client struct {
	httpClient  *pchttp.Client
	credentials pinecone.Credentials
	logger      pinecone.Logger
	cache       pinecone.Cache
	cacheTTL    time.Duration
}

var (
	_ pinecone.Client    = (*Client)(nil)
	_ pchttp.Connection = (*Client)(nil)
)

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *pinecone.Config) []pchttp.Option {
	var httpOpts []pchttp.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, pchttp.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, pchttp.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, pchttp.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, pchttp.WithTimeout(config.HTTPTimeout))
	}

	if config.ControllerURL != "" {
		httpOpts = append(httpOpts, pchttp.WithControllerURL(config.ControllerURL))
	}

	if len(config.RequestInterceptors) > 0 || len(config.ResponseInterceptors) > 0 {
		chain := pinecone.NewInterceptorChain()

		for _, interceptor := range config.RequestInterceptors {
			chain.AddRequestInterceptor(interceptor)
		}

		for _, interceptor := range config.ResponseInterceptors {
			chain.AddResponseInterceptor(interceptor)
		}

		httpOpts = append(httpOpts, pchttp.WithInterceptors(chain))
	}

	return httpOpts
}

// New creates a new account client. The config must already be validated.
func New(ctx context.Context, config *pinecone.Config) (*Client, error) {
	if config == nil {
		return nil, pinecone.ErrConfigRequired
	}

	if config.APIKey == "" {
		return nil, pinecone.ErrAPIKeyRequired
	}

	if config.Environment == "" && config.ControllerURL == "" {
		return nil, pinecone.ErrEnvironmentRequired
	}

	credentials := config.Credentials()

	cache := config.Cache
	if cache == nil {
		cache = pinecone.NewNoOpCache()
	}

	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = constants.DefaultCacheTTL
	}

	return &Client{
		httpClient:  pchttp.NewClient(credentials, createHTTPClientOptions(config)...),
		credentials: credentials,
		logger:      config.Logger,
		cache:       cache,
		cacheTTL:    cacheTTL,
	}, nil
}

// Transport implements http.Connection.
func (c *Client) Transport() *pchttp.Client {
	return c.httpClient
}

// Credentials implements http.Connection.
func (c *Client) Credentials() pinecone.Credentials {
	return c.credentials
}

// Index implements pinecone.Client.Index. Every call returns a new handle.
func (c *Client) Index(name string) pinecone.IndexClient {
	return newIndex(c, name)
}

// ListIndexes implements pinecone.IndexAdmin.ListIndexes.
func (c *Client) ListIndexes(ctx context.Context) ([]string, error) {
	names, err := getJSON[[]string](ctx, c, constants.PathDatabases)
	if err != nil {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}

	return *names, nil
}

// DescribeIndex implements pinecone.IndexAdmin.DescribeIndex.
func (c *Client) DescribeIndex(ctx context.Context, name string) (*pinecone.IndexDescription, error) {
	if name == "" {
		return nil, pinecone.ErrIndexNameRequired
	}

	description, err := getJSON[pinecone.IndexDescription](ctx, c, databasePath(name))
	if err != nil {
		return nil, fmt.Errorf("describing index %s: %w", name, err)
	}

	return description, nil
}

// CreateIndex implements pinecone.IndexAdmin.CreateIndex.
func (c *Client) CreateIndex(ctx context.Context, request *pinecone.IndexCreateRequest) (string, error) {
	if request == nil {
		return "", &pinecone.ArgumentError{Name: "request", Found: "nil", Expected: "an index create request"}
	}

	message, err := sendText(ctx, c, http.MethodPost, constants.PathDatabases, request, http.StatusCreated)
	if err != nil {
		return "", fmt.Errorf("creating index %s: %w", request.Name, err)
	}

	return message, nil
}

// DeleteIndex implements pinecone.IndexAdmin.DeleteIndex.
func (c *Client) DeleteIndex(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", pinecone.ErrIndexNameRequired
	}

	message, err := sendText(ctx, c, http.MethodDelete, databasePath(name), nil, http.StatusAccepted)
	if err != nil {
		return "", fmt.Errorf("deleting index %s: %w", name, err)
	}

	c.forget(ctx, name)

	return message, nil
}

// ConfigureIndex implements pinecone.IndexAdmin.ConfigureIndex.
func (c *Client) ConfigureIndex(ctx context.Context, name string, request *pinecone.ConfigureIndexRequest) (string, error) {
	if name == "" {
		return "", pinecone.ErrIndexNameRequired
	}

	if request == nil {
		return "", &pinecone.ArgumentError{Name: "request", Found: "nil", Expected: "a configure request"}
	}

	message, err := sendText(ctx, c, http.MethodPatch, databasePath(name), request, http.StatusAccepted)
	if err != nil {
		return "", fmt.Errorf("configuring index %s: %w", name, err)
	}

	return message, nil
}

// ListCollections implements pinecone.CollectionAdmin.ListCollections.
func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	names, err := getJSON[[]string](ctx, c, constants.PathCollections)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}

	return *names, nil
}

// DescribeCollection implements pinecone.CollectionAdmin.DescribeCollection.
func (c *Client) DescribeCollection(ctx context.Context, name string) (*pinecone.CollectionDescription, error) {
	description, err := getJSON[pinecone.CollectionDescription](ctx, c, collectionPath(name))
	if err != nil {
		return nil, fmt.Errorf("describing collection %s: %w", name, err)
	}

	return description, nil
}

// CreateCollection implements pinecone.CollectionAdmin.CreateCollection.
func (c *Client) CreateCollection(ctx context.Context, request *pinecone.CreateCollectionRequest) (string, error) {
	if request == nil {
		return "", &pinecone.ArgumentError{Name: "request", Found: "nil", Expected: "a collection create request"}
	}

	message, err := sendText(ctx, c, http.MethodPost, constants.PathCollections, request, http.StatusCreated)
	if err != nil {
		return "", fmt.Errorf("creating collection %s: %w", request.Name, err)
	}

	return message, nil
}

// DeleteCollection implements pinecone.CollectionAdmin.DeleteCollection.
func (c *Client) DeleteCollection(ctx context.Context, name string) (string, error) {
	message, err := sendText(ctx, c, http.MethodDelete, collectionPath(name), nil, http.StatusAccepted)
	if err != nil {
		return "", fmt.Errorf("deleting collection %s: %w", name, err)
	}

	return message, nil
}

// WhoAmI implements pinecone.Client.WhoAmI.
func (c *Client) WhoAmI(ctx context.Context) (*pinecone.ClientInfo, error) {
	info, err := getJSON[pinecone.ClientInfo](ctx, c, constants.PathWhoAmI)
	if err != nil {
		return nil, fmt.Errorf("getting client info: %w", err)
	}

	return info, nil
}

// forget drops the shared cache entry for an index.
func (c *Client) forget(ctx context.Context, name string) {
	err := c.cache.Delete(ctx, c.cacheKey(name))
	if err != nil && c.logger != nil {
		c.logger.Warn("failed to remove index from shared cache", map[string]interface{}{
			"index": name,
			"error": err.Error(),
		})
	}
}

func (c *Client) cacheKey(name string) string {
	return c.credentials.Environment() + ":" + name
}

// getJSON performs a controller GET and decodes a 200 response.
func getJSON[T any](ctx context.Context, conn pchttp.Connection, path string) (*T, error) {
	resp, err := conn.Transport().Get(ctx, pinecone.TargetController,
		pchttp.ConnectionControllerURL(conn, path), constants.MediaTypeJSON)
	if err != nil {
		return nil, err
	}

	return pchttp.DecodeJSON[T](resp, http.StatusOK)
}

// sendText performs a controller call whose success response is plain text.
func sendText(ctx context.Context, conn pchttp.Connection, method, path string, body interface{}, expected int) (string, error) {
	resp, err := conn.Transport().Do(ctx, &pchttp.Request{
		Method: method,
		URL:    pchttp.ConnectionControllerURL(conn, path),
		Target: pinecone.TargetController,
		Accept: constants.MediaTypeText,
		Body:   body,
	})
	if err != nil {
		return "", err
	}

	return pchttp.DecodeText(resp, expected)
}

func databasePath(name string) string {
	return constants.PathDatabases + "/" + url.PathEscape(name)
}

func collectionPath(name string) string {
	return constants.PathCollections + "/" + url.PathEscape(name)
}
