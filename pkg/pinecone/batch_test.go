package pinecone_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/pinecone/pkg/pcclient"
	"github.com/fivetwenty-io/pinecone/pkg/pinecone"
)

// batchService accepts upserts and rejects any batch containing the id "bad".
type batchService struct {
	controller *httptest.Server
	index      *httptest.Server
	describes  atomic.Int32

	mu      sync.Mutex
	batches [][]string
}

func newBatchService(t *testing.T) *batchService {
	t.Helper()

	svc := &batchService{}

	svc.index = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request pinecone.UpsertRequest
		_ = json.NewDecoder(r.Body).Decode(&request)

		ids := make([]string, 0, len(request.Vectors))
		for _, v := range request.Vectors {
			ids = append(ids, v.ID)
		}

		svc.mu.Lock()
		svc.batches = append(svc.batches, ids)
		svc.mu.Unlock()

		for _, id := range ids {
			if id == "bad" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"code":3,"message":"bad vector"}`))

				return
			}
		}

		_ = json.NewEncoder(w).Encode(map[string]int{"upsertedCount": len(ids)})
	}))

	svc.controller = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		svc.describes.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"database": map[string]any{"name": "movies", "dimension": 2},
			"status":   map[string]any{"host": svc.index.URL, "ready": true, "state": "Ready"},
		})
	}))

	t.Cleanup(func() {
		svc.controller.Close()
		svc.index.Close()
	})

	return svc
}

func (s *batchService) client(t *testing.T, cache pinecone.Cache) pinecone.Client {
	t.Helper()

	client, err := pcclient.New(context.Background(), &pinecone.Config{
		APIKey:        "key",
		ControllerURL: s.controller.URL,
		Cache:         cache,
	})
	require.NoError(t, err)

	return client
}

func vectorsWithIDs(ids ...string) []pinecone.Vector {
	vectors := make([]pinecone.Vector, 0, len(ids))
	for _, id := range ids {
		vectors = append(vectors, pinecone.Vector{ID: id, Values: []float32{1, 0}})
	}

	return vectors
}

func TestBatchUpserter_SplitsIntoBatches(t *testing.T) {
	t.Parallel()

	svc := newBatchService(t)
	upserter := pinecone.NewBatchUpserter(svc.client(t, nil), "movies", 1)
	upserter.SetBatchSize(2)

	results, err := upserter.Upsert(context.Background(), "", vectorsWithIDs("a", "b", "c", "d", "e"))
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, int64(5), pinecone.TotalUpserted(results))
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, svc.batches)
	assert.Equal(t, 4, results[2].Offset)
	assert.Equal(t, 1, results[2].Count)
	assert.Equal(t, int32(1), svc.describes.Load())
}

func TestBatchUpserter_ConcurrentWorkersShareCache(t *testing.T) {
	t.Parallel()

	svc := newBatchService(t)
	cache := pinecone.NewMemoryCache(10)
	client := svc.client(t, cache)

	_, err := client.Index("movies").Describe(context.Background())
	require.NoError(t, err)

	upserter := pinecone.NewBatchUpserter(client, "movies", 4)
	upserter.SetBatchSize(1)
	upserter.SetTimeout(5 * time.Second)

	var callbacks atomic.Int32

	upserter.OnResult(func(result *pinecone.BatchResult) {
		callbacks.Add(1)
	})

	results, err := upserter.Upsert(context.Background(), "ns", vectorsWithIDs("a", "b", "c", "d", "e", "f", "g", "h"))
	require.NoError(t, err)

	assert.Len(t, results, 8)
	assert.Equal(t, int32(8), callbacks.Load())
	assert.Equal(t, int64(8), pinecone.TotalUpserted(results))
	assert.Equal(t, int32(1), svc.describes.Load(), "workers resolve the host from the shared cache")
}

func TestBatchUpserter_NonPositiveTimeout(t *testing.T) {
	t.Parallel()

	for _, timeout := range []time.Duration{0, -time.Second} {
		svc := newBatchService(t)
		upserter := pinecone.NewBatchUpserter(svc.client(t, nil), "movies", 1)
		upserter.SetBatchSize(2)
		upserter.SetTimeout(timeout)

		results, err := upserter.Upsert(context.Background(), "ns", vectorsWithIDs("a", "b", "c"))
		require.NoError(t, err, "timeout %s", timeout)
		assert.Len(t, results, 2)
		assert.Equal(t, int64(3), pinecone.TotalUpserted(results))
	}
}

func TestBatchUpserter_AggregatesFailures(t *testing.T) {
	t.Parallel()

	svc := newBatchService(t)
	upserter := pinecone.NewBatchUpserter(svc.client(t, nil), "movies", 2)
	upserter.SetBatchSize(1)

	results, err := upserter.Upsert(context.Background(), "", vectorsWithIDs("ok", "bad", "fine", "bad"))
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)

	var serviceErr *pinecone.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, http.StatusBadRequest, serviceErr.StatusCode)

	assert.NoError(t, results[0].Error)
	assert.Error(t, results[1].Error)
	assert.Equal(t, int64(2), pinecone.TotalUpserted(results))
}

func TestBatchUpserter_CancelledContext(t *testing.T) {
	t.Parallel()

	svc := newBatchService(t)
	upserter := pinecone.NewBatchUpserter(svc.client(t, nil), "movies", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := upserter.Upsert(ctx, "", vectorsWithIDs("a", "b"))
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 1)
	assert.Zero(t, results[0].UpsertedCount)
}

func TestBatchUpserter_RequiresIndexName(t *testing.T) {
	t.Parallel()

	_, err := pinecone.NewBatchUpserter(nil, "", 0).Upsert(context.Background(), "", nil)
	require.ErrorIs(t, err, pinecone.ErrIndexNameRequired)
}
