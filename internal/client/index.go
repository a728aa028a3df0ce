package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fivetwenty-io/pinecone/internal/constants"
	pchttp "github.com/fivetwenty-io/pinecone/internal/http"
	"github.com/fivetwenty-io/pinecone/pkg/pinecone"
)

// Index implements pinecone.IndexClient.
//
// A new Index is unresolved: it knows only its name. The first data-plane
// call (or an explicit Describe) fetches the description from the controller
// and keeps it; later calls reuse it until Describe is called again. Index
// performs no locking.
type Index struct {
	httpClient  *pchttp.Client
	credentials pinecone.Credentials
	name        string
	logger      pinecone.Logger
	cache       pinecone.Cache
	cacheKey    string
	cacheTTL    time.Duration

	description *pinecone.IndexDescription
	stats       *pinecone.IndexStats
}

var (
	_ pinecone.IndexClient = (*Index)(nil)
	_ pchttp.Connection   = (*Index)(nil)
)

func newIndex(account *Client, name string) *Index {
	return &Index{
		httpClient:  account.httpClient,
		credentials: account.credentials,
		name:        name,
		logger:      account.logger,
		cache:       account.cache,
		cacheKey:    account.cacheKey(name),
		cacheTTL:    account.cacheTTL,
	}
}

// Transport implements http.Connection.
func (i *Index) Transport() *pchttp.Client {
	return i.httpClient
}

// Credentials implements http.Connection.
func (i *Index) Credentials() pinecone.Credentials {
	return i.credentials
}

// Name returns the index name.
func (i *Index) Name() string {
	return i.name
}

// Describe fetches the description from the controller and replaces the
// cached one. On failure the cached description is left as it was.
func (i *Index) Describe(ctx context.Context) (*pinecone.IndexDescription, error) {
	if i.name == "" {
		return nil, pinecone.ErrIndexNameRequired
	}

	description, err := getJSON[pinecone.IndexDescription](ctx, i, databasePath(i.name))
	if err != nil {
		return nil, err
	}

	i.description = description
	i.share(ctx, description)

	return description, nil
}

// CachedDescribe returns the cached description. When there is none it tries
// the shared cache and then the controller.
func (i *Index) CachedDescribe(ctx context.Context) (*pinecone.IndexDescription, error) {
	if i.description != nil {
		return i.description, nil
	}

	if description := i.lookupShared(ctx); description != nil {
		i.description = description

		return description, nil
	}

	return i.Describe(ctx)
}

// Description returns the cached description, or nil.
func (i *Index) Description() *pinecone.IndexDescription {
	return i.description
}

// URL returns the base URL of the index host when it is known.
func (i *Index) URL() (string, bool) {
	host := i.description.Host()
	if host == "" {
		return "", false
	}

	return pchttp.ResourceURL(host, ""), true
}

// DescribeStats fetches index statistics and caches them.
func (i *Index) DescribeStats(ctx context.Context) (*pinecone.IndexStats, error) {
	target, err := i.resolveURL(ctx, constants.PathDescribeIndexStats)
	if err != nil {
		return nil, err
	}

	resp, err := i.httpClient.Get(ctx, pinecone.TargetIndex, target, constants.MediaTypeJSON)
	if err != nil {
		return nil, fmt.Errorf("describing stats of %s: %w", i.name, err)
	}

	stats, err := pchttp.DecodeJSON[pinecone.IndexStats](resp, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("describing stats of %s: %w", i.name, err)
	}

	i.stats = stats

	return stats, nil
}

// Stats returns the statistics from the last DescribeStats call, or nil.
func (i *Index) Stats() *pinecone.IndexStats {
	return i.stats
}

// Upsert writes vectors into namespace. Every vector must match the index
// dimension; a mismatch is reported before anything is sent.
func (i *Index) Upsert(ctx context.Context, namespace string, vectors []pinecone.Vector) (*pinecone.UpsertResponse, error) {
	target, err := i.resolveURL(ctx, constants.PathVectorsUpsert)
	if err != nil {
		return nil, err
	}

	dimension := i.description.Database.Dimension
	for _, vector := range vectors {
		if dimension > 0 && len(vector.Values) != dimension {
			return nil, &pinecone.VectorDimensionError{ID: vector.ID, Found: len(vector.Values), Expected: dimension}
		}
	}

	result, err := postJSON[pinecone.UpsertResponse](ctx, i, target, &pinecone.UpsertRequest{
		Namespace: namespace,
		Vectors:   vectors,
	})
	if err != nil {
		return nil, fmt.Errorf("upserting into %s: %w", i.name, err)
	}

	return result, nil
}

// Query runs a similarity search.
func (i *Index) Query(ctx context.Context, request *pinecone.QueryRequest) (*pinecone.QueryResponse, error) {
	if request == nil {
		return nil, &pinecone.ArgumentError{Name: "request", Found: "nil", Expected: "a query request"}
	}

	target, err := i.resolveURL(ctx, constants.PathQuery)
	if err != nil {
		return nil, err
	}

	result, err := postJSON[pinecone.QueryResponse](ctx, i, target, request)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", i.name, err)
	}

	return result, nil
}

// Fetch looks up vectors by id.
func (i *Index) Fetch(ctx context.Context, request *pinecone.FetchRequest) (*pinecone.FetchResponse, error) {
	if request == nil {
		return nil, &pinecone.ArgumentError{Name: "request", Found: "nil", Expected: "a fetch request"}
	}

	base, err := i.resolveURL(ctx, constants.PathVectorsFetch)
	if err != nil {
		return nil, err
	}

	resp, err := i.httpClient.Get(ctx, pinecone.TargetIndex,
		pchttp.FetchURL(base, request.IDs, request.Namespace), constants.MediaTypeJSON)
	if err != nil {
		return nil, fmt.Errorf("fetching from %s: %w", i.name, err)
	}

	result, err := pchttp.DecodeJSON[pinecone.FetchResponse](resp, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("fetching from %s: %w", i.name, err)
	}

	return result, nil
}

// Update changes the values or metadata of one vector.
func (i *Index) Update(ctx context.Context, request *pinecone.UpdateRequest) error {
	if request == nil {
		return &pinecone.ArgumentError{Name: "request", Found: "nil", Expected: "an update request"}
	}

	target, err := i.resolveURL(ctx, constants.PathVectorsUpdate)
	if err != nil {
		return err
	}

	_, err = postJSON[json.RawMessage](ctx, i, target, request)
	if err != nil {
		return fmt.Errorf("updating %s in %s: %w", request.ID, i.name, err)
	}

	return nil
}

// DeleteVectors deletes vectors by id, by filter or all vectors of a namespace.
func (i *Index) DeleteVectors(ctx context.Context, request *pinecone.DeleteRequest) error {
	if request == nil {
		return &pinecone.ArgumentError{Name: "request", Found: "nil", Expected: "a delete request"}
	}

	target, err := i.resolveURL(ctx, constants.PathVectorsDelete)
	if err != nil {
		return err
	}

	_, err = postJSON[json.RawMessage](ctx, i, target, request)
	if err != nil {
		return fmt.Errorf("deleting vectors from %s: %w", i.name, err)
	}

	return nil
}

// Configure changes replicas or pod type of the index.
func (i *Index) Configure(ctx context.Context, request *pinecone.ConfigureIndexRequest) (string, error) {
	if request == nil {
		return "", &pinecone.ArgumentError{Name: "request", Found: "nil", Expected: "a configure request"}
	}

	message, err := sendText(ctx, i, http.MethodPatch, databasePath(i.name), request, http.StatusAccepted)
	if err != nil {
		return "", fmt.Errorf("configuring index %s: %w", i.name, err)
	}

	return message, nil
}

// Delete deletes the index and drops everything cached about it.
func (i *Index) Delete(ctx context.Context) (string, error) {
	message, err := sendText(ctx, i, http.MethodDelete, databasePath(i.name), nil, http.StatusAccepted)
	if err != nil {
		return "", fmt.Errorf("deleting index %s: %w", i.name, err)
	}

	i.description = nil
	i.stats = nil

	err = i.cache.Delete(ctx, i.cacheKey)
	if err != nil {
		i.warn("failed to remove index from shared cache", err)
	}

	return message, nil
}

// resolveURL returns the data-plane URL for path, describing the index first
// if needed. A describe failure is returned as is. A description without a
// host is reported once; it is not described again automatically.
func (i *Index) resolveURL(ctx context.Context, path string) (string, error) {
	description, err := i.CachedDescribe(ctx)
	if err != nil {
		return "", err
	}

	host := description.Host()
	if host == "" {
		return "", fmt.Errorf("%w: index %s is %s", pinecone.ErrResourceURLUnavailable,
			i.name, orNotAvailable(string(description.Status.State)))
	}

	return pchttp.ResourceURL(host, path), nil
}

// lookupShared reads a description from the shared cache. Misses and cache
// failures both yield nil.
func (i *Index) lookupShared(ctx context.Context) *pinecone.IndexDescription {
	entry, err := i.cache.Get(ctx, i.cacheKey)
	if err != nil {
		return nil
	}

	var description pinecone.IndexDescription

	err = json.Unmarshal(entry.Data, &description)
	if err != nil || description.Host() == "" {
		i.warn("ignoring unusable shared cache entry", err)

		return nil
	}

	if i.logger != nil {
		i.logger.Debug("index description loaded from shared cache", map[string]interface{}{
			"index": i.name,
			"host":  description.Host(),
		})
	}

	return &description
}

// share writes a description with a host to the shared cache.
func (i *Index) share(ctx context.Context, description *pinecone.IndexDescription) {
	if description.Host() == "" {
		return
	}

	data, err := json.Marshal(description)
	if err != nil {
		i.warn("failed to encode index description", err)

		return
	}

	err = i.cache.Set(ctx, i.cacheKey, &pinecone.CacheEntry{
		Data:      data,
		ExpiresAt: time.Now().Add(i.cacheTTL),
	})
	if err != nil {
		i.warn("failed to store index description in shared cache", err)
	}
}

func (i *Index) warn(msg string, err error) {
	if i.logger == nil {
		return
	}

	fields := map[string]interface{}{"index": i.name}
	if err != nil {
		fields["error"] = err.Error()
	}

	i.logger.Warn(msg, fields)
}

// postJSON posts body to a data-plane URL and decodes a 200 response.
func postJSON[T any](ctx context.Context, conn pchttp.Connection, target string, body interface{}) (*T, error) {
	resp, err := conn.Transport().Post(ctx, pinecone.TargetIndex, target, constants.MediaTypeJSON, body)
	if err != nil {
		return nil, err
	}

	return pchttp.DecodeJSON[T](resp, http.StatusOK)
}

func orNotAvailable(s string) string {
	if s == "" {
		return constants.NotAvailable
	}

	return s
}
