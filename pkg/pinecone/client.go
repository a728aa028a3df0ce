package pinecone

import (
	"context"
	"time"
)

// IndexAdmin provides account-level index operations.
type IndexAdmin interface {
	ListIndexes(ctx context.Context) ([]string, error)
	DescribeIndex(ctx context.Context, name string) (*IndexDescription, error)
	CreateIndex(ctx context.Context, request *IndexCreateRequest) (string, error)
	DeleteIndex(ctx context.Context, name string) (string, error)
	ConfigureIndex(ctx context.Context, name string, request *ConfigureIndexRequest) (string, error)
}

// CollectionAdmin provides account-level collection operations.
type CollectionAdmin interface {
	ListCollections(ctx context.Context) ([]string, error)
	DescribeCollection(ctx context.Context, name string) (*CollectionDescription, error)
	CreateCollection(ctx context.Context, request *CreateCollectionRequest) (string, error)
	DeleteCollection(ctx context.Context, name string) (string, error)
}

// Client is the account handle. Index returns a new, unresolved handle for a
// single index; handles are not shared between calls.
type Client interface {
	IndexAdmin
	CollectionAdmin

	WhoAmI(ctx context.Context) (*ClientInfo, error)
	Index(name string) IndexClient
}

// IndexClient is the handle for one index. It caches the index description
// (which carries the host used by data-plane calls) and the last statistics.
//
// An IndexClient is not safe for concurrent use. Drive it from one goroutine
// or guard it with a mutex.
type IndexClient interface {
	Name() string

	// Describe always fetches a fresh description and replaces the cached one.
	Describe(ctx context.Context) (*IndexDescription, error)
	// CachedDescribe returns the cached description, fetching it once if absent.
	CachedDescribe(ctx context.Context) (*IndexDescription, error)
	// Description returns the cached description without network activity.
	Description() *IndexDescription
	// URL returns the cached index host, if any.
	URL() (string, bool)

	DescribeStats(ctx context.Context) (*IndexStats, error)
	Stats() *IndexStats

	Upsert(ctx context.Context, namespace string, vectors []Vector) (*UpsertResponse, error)
	Query(ctx context.Context, request *QueryRequest) (*QueryResponse, error)
	Fetch(ctx context.Context, request *FetchRequest) (*FetchResponse, error)
	Update(ctx context.Context, request *UpdateRequest) error
	DeleteVectors(ctx context.Context, request *DeleteRequest) error

	Configure(ctx context.Context, request *ConfigureIndexRequest) (string, error)
	Delete(ctx context.Context) (string, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a Client.
//
// # Addressing
//
// Account operations go to https://controller.<Environment>.pinecone.io.
// ControllerURL replaces that base entirely (useful for tests and private
// deployments). Data-plane operations go to the host reported by describe
// index, resolved lazily per IndexClient.
//
// # Retries and timeouts
//
// The client makes exactly one attempt per call. Use the context passed to
// each method for deadlines; HTTPTimeout bounds a single request.
type Config struct {
	// APIKey is sent as the Api-Key header. Required.
	APIKey string
	// Environment selects the controller host. Required unless ControllerURL is set.
	Environment string
	// ControllerURL overrides the controller base URL.
	ControllerURL string

	// HTTPTimeout bounds a single request. Zero uses the default.
	HTTPTimeout time.Duration
	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// Debug enables request/response logging when a Logger is provided.
	Debug bool
	// Logger is an optional structured logger used by the transport and the resolver.
	Logger Logger

	// RequestInterceptors run before each request is sent.
	RequestInterceptors []RequestInterceptor
	// ResponseInterceptors observe each completed attempt.
	ResponseInterceptors []ResponseInterceptor

	// Cache optionally shares resolved index descriptions across handles and
	// processes. Nil disables sharing.
	Cache Cache
	// CacheTTL is how long shared descriptions stay valid. Zero uses the default.
	CacheTTL time.Duration
}

// Credentials returns the credentials described by the config.
func (c *Config) Credentials() Credentials {
	return NewCredentials(c.APIKey, c.Environment)
}
