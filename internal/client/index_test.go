package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/pinecone/pkg/pinecone"
)

// fakeService plays both the controller and one index host.
type fakeService struct {
	controller *httptest.Server
	index      *httptest.Server

	describes atomic.Int32
	host      atomic.Value // string reported by describe; "" means no host

	mu    sync.Mutex
	calls []string
}

func newFakeService(t *testing.T, indexHandler http.HandlerFunc) *fakeService {
	t.Helper()

	svc := &fakeService{}

	svc.index = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		svc.record("index " + request.Method + " " + request.URL.Path)
		indexHandler(writer, request)
	}))
	t.Cleanup(svc.index.Close)

	svc.host.Store(svc.index.URL)

	svc.controller = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		svc.record("controller " + request.Method + " " + request.URL.Path)

		if request.Method == http.MethodDelete {
			writer.WriteHeader(http.StatusAccepted)

			return
		}

		svc.describes.Add(1)

		status := map[string]interface{}{"ready": true, "state": "Ready", "port": 443}

		host, _ := svc.host.Load().(string)
		if host != "" {
			status["host"] = host
		} else {
			status["ready"] = false
			status["state"] = "Initializing"
		}

		_ = json.NewEncoder(writer).Encode(map[string]interface{}{
			"database": map[string]interface{}{"name": "movies", "dimension": 3, "metric": "cosine"},
			"status":   status,
		})
	}))
	t.Cleanup(svc.controller.Close)

	return svc
}

func (s *fakeService) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, call)
}

func (s *fakeService) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.calls...)
}

func upsertOK(writer http.ResponseWriter, request *http.Request) {
	_, _ = writer.Write([]byte(`{"upsertedCount":1}`))
}

func testVectors() []pinecone.Vector {
	return []pinecone.Vector{{ID: "v1", Values: []float32{0.1, 0.2, 0.3}}}
}

func TestIndex_CachedDescribeFetchesOnce(t *testing.T) {
	t.Parallel()

	svc := newFakeService(t, upsertOK)
	index := newTestClient(t, svc.controller.URL).Index("movies")

	first, err := index.CachedDescribe(context.Background())
	require.NoError(t, err)

	second, err := index.CachedDescribe(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), svc.describes.Load())
}

func TestIndex_DescribeAlwaysRefreshes(t *testing.T) {
	t.Parallel()

	svc := newFakeService(t, upsertOK)
	index := newTestClient(t, svc.controller.URL).Index("movies")

	_, err := index.Describe(context.Background())
	require.NoError(t, err)

	svc.host.Store("https://moved.example")

	refreshed, err := index.Describe(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), svc.describes.Load())
	assert.Equal(t, "https://moved.example", refreshed.Host())
	assert.Same(t, refreshed, index.Description())

	url, ok := index.URL()
	require.True(t, ok)
	assert.Equal(t, "https://moved.example", url)
}

func TestIndex_UpsertDescribesFirst(t *testing.T) {
	t.Parallel()

	svc := newFakeService(t, func(writer http.ResponseWriter, request *http.Request) {
		body, _ := io.ReadAll(request.Body)
		assert.JSONEq(t, `{"namespace":"ns1","vectors":[{"id":"v1","values":[0.1,0.2,0.3]}]}`, string(body))
		upsertOK(writer, request)
	})
	index := newTestClient(t, svc.controller.URL).Index("movies")

	result, err := index.Upsert(context.Background(), "ns1", testVectors())
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.UpsertedCount)

	assert.Equal(t, []string{
		"controller GET /databases/movies",
		"index POST /vectors/upsert",
	}, svc.recorded())
	assert.Equal(t, int32(1), svc.describes.Load())
}

func TestIndex_DescribeFailureIsReturnedUnchanged(t *testing.T) {
	t.Parallel()

	var indexHits atomic.Int32

	indexServer := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		indexHits.Add(1)
	}))
	defer indexServer.Close()

	controller := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {}))
	controllerURL := controller.URL
	controller.Close()

	index := newTestClient(t, controllerURL).Index("movies")

	_, err := index.Upsert(context.Background(), "", testVectors())
	require.Error(t, err)

	transportErr := &pinecone.TransportError{}
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, controllerURL+"/databases/movies", transportErr.URL)
	assert.False(t, pinecone.IsResourceURLUnavailable(err))

	assert.Nil(t, index.Description())
	assert.Equal(t, int32(0), indexHits.Load())
}

func TestIndex_DescribeFailureKeepsPreviousDescription(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool

	svc := newFakeService(t, upsertOK)
	controller := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if fail.Load() {
			writer.WriteHeader(http.StatusInternalServerError)
			_, _ = writer.Write([]byte(`{"code":13,"message":"internal"}`))

			return
		}

		svc.controller.Config.Handler.ServeHTTP(writer, request)
	}))
	defer controller.Close()

	index := newTestClient(t, controller.URL).Index("movies")

	before, err := index.Describe(context.Background())
	require.NoError(t, err)

	fail.Store(true)

	_, err = index.Describe(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, pinecone.StatusCode(err))
	assert.Same(t, before, index.Description())
}

func TestIndex_HostlessDescription(t *testing.T) {
	t.Parallel()

	svc := newFakeService(t, upsertOK)
	svc.host.Store("")

	index := newTestClient(t, svc.controller.URL).Index("movies")

	for range 2 {
		_, err := index.Upsert(context.Background(), "", testVectors())
		require.Error(t, err)
		assert.True(t, pinecone.IsResourceURLUnavailable(err))
	}

	assert.Equal(t, int32(1), svc.describes.Load())

	svc.host.Store(svc.index.URL)

	_, err := index.Describe(context.Background())
	require.NoError(t, err)

	_, err = index.Upsert(context.Background(), "", testVectors())
	require.NoError(t, err)
}

func TestIndex_UpsertValidatesDimension(t *testing.T) {
	t.Parallel()

	svc := newFakeService(t, upsertOK)
	index := newTestClient(t, svc.controller.URL).Index("movies")

	_, err := index.Upsert(context.Background(), "", []pinecone.Vector{
		{ID: "ok", Values: []float32{1, 2, 3}},
		{ID: "short", Values: []float32{1, 2}},
	})
	require.Error(t, err)

	dimErr := &pinecone.VectorDimensionError{}
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, "short", dimErr.ID)
	assert.Equal(t, 2, dimErr.Found)
	assert.Equal(t, 3, dimErr.Expected)

	assert.Equal(t, []string{"controller GET /databases/movies"}, svc.recorded())
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestIndex_DataPlaneOperations(t *testing.T) {
	t.Parallel()

	svc := newFakeService(t, func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "test-key", request.Header.Get("Api-Key"))

		switch request.URL.Path {
		case "/describe_index_stats":
			assert.Equal(t, "GET", request.Method)
			_, _ = writer.Write([]byte(`{"namespaces":{"ns1":{"vectorCount":2}},"dimension":3,"indexFullness":0.1,"totalVectorCount":2}`))
		case "/query":
			body, _ := io.ReadAll(request.Body)
			assert.JSONEq(t, `{"namespace":"ns1","topK":2,"includeValues":false,"includeMetadata":true,"vector":[1,0,0]}`, string(body))
			_, _ = writer.Write([]byte(`{"matches":[{"id":"v1","score":0.9,"metadata":{"genre":"drama"}}],"namespace":"ns1"}`))
		case "/vectors/fetch":
			assert.Equal(t, "GET", request.Method)
			assert.Equal(t, "ids=A&ids=B&namespace=ns1", request.URL.RawQuery)
			_, _ = writer.Write([]byte(`{"vectors":{"A":{"id":"A","values":[1,2,3]}},"namespace":"ns1"}`))
		case "/vectors/update":
			body, _ := io.ReadAll(request.Body)
			assert.JSONEq(t, `{"id":"A","setMetadata":{"genre":"comedy"}}`, string(body))
			_, _ = writer.Write([]byte(`{}`))
		case "/vectors/delete":
			body, _ := io.ReadAll(request.Body)
			assert.JSONEq(t, `{"deleteAll":true,"namespace":"ns1"}`, string(body))
			_, _ = writer.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected path %s", request.URL.Path)
		}
	})

	ctx := context.Background()
	index := newTestClient(t, svc.controller.URL).Index("movies")

	stats, err := index.DescribeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Namespaces["ns1"].VectorCount)
	assert.Same(t, stats, index.Stats())

	query, err := index.Query(ctx, &pinecone.QueryRequest{
		Namespace:       "ns1",
		TopK:            2,
		IncludeMetadata: true,
		Vector:          []float32{1, 0, 0},
	})
	require.NoError(t, err)
	require.Len(t, query.Matches, 1)
	assert.Equal(t, "drama", query.Matches[0].Metadata["genre"])

	fetched, err := index.Fetch(ctx, &pinecone.FetchRequest{IDs: []string{"A", "B"}, Namespace: "ns1"})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, fetched.Vectors["A"].Values)

	err = index.Update(ctx, &pinecone.UpdateRequest{ID: "A", SetMetadata: pinecone.MappedValue{"genre": "comedy"}})
	require.NoError(t, err)

	err = index.DeleteVectors(ctx, &pinecone.DeleteRequest{DeleteAll: true, Namespace: "ns1"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), svc.describes.Load())
}

func TestIndex_DataPlaneServiceError(t *testing.T) {
	t.Parallel()

	svc := newFakeService(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusBadRequest)
		_, _ = writer.Write([]byte(`{"code":3,"message":"bad topK"}`))
	})
	index := newTestClient(t, svc.controller.URL).Index("movies")

	_, err := index.Query(context.Background(), &pinecone.QueryRequest{TopK: 0, Vector: []float32{1, 2, 3}})
	require.Error(t, err)

	svcErr := &pinecone.ServiceError{}
	require.ErrorAs(t, err, &svcErr)
	require.True(t, svcErr.Structured())
	assert.Equal(t, "bad topK", svcErr.Body.Message)
}

func TestIndex_SharedCache(t *testing.T) {
	t.Parallel()

	svc := newFakeService(t, upsertOK)
	cache := pinecone.NewMemoryCache(10)
	client := newTestClient(t, svc.controller.URL, func(config *pinecone.Config) {
		config.Cache = cache
	})

	_, err := client.Index("movies").Upsert(context.Background(), "", testVectors())
	require.NoError(t, err)
	assert.True(t, cache.Has(context.Background(), "test-env:movies"))

	second := client.Index("movies")

	_, err = second.Upsert(context.Background(), "", testVectors())
	require.NoError(t, err)
	assert.Equal(t, int32(1), svc.describes.Load())
	assert.Equal(t, svc.index.URL, second.Description().Host())

	message, err := second.Delete(context.Background())
	require.NoError(t, err)
	assert.Empty(t, message)
	assert.Nil(t, second.Description())
	assert.False(t, cache.Has(context.Background(), "test-env:movies"))
}

func TestIndex_SharedCacheSkipsHostlessDescriptions(t *testing.T) {
	t.Parallel()

	svc := newFakeService(t, upsertOK)
	svc.host.Store("")

	cache := pinecone.NewMemoryCache(10)
	client := newTestClient(t, svc.controller.URL, func(config *pinecone.Config) {
		config.Cache = cache
	})

	_, err := client.Index("movies").Describe(context.Background())
	require.NoError(t, err)
	assert.False(t, cache.Has(context.Background(), "test-env:movies"))
}

func TestIndex_ConfigureUsesController(t *testing.T) {
	t.Parallel()

	var seen string

	controller := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		body, _ := io.ReadAll(request.Body)
		seen = fmt.Sprintf("%s %s %s %s", request.Method, request.URL.Path, request.Header.Get("Accept"), body)
		writer.WriteHeader(http.StatusAccepted)
		_, _ = writer.Write([]byte("ok"))
	}))
	defer controller.Close()

	index := newTestClient(t, controller.URL).Index("movies")

	message, err := index.Configure(context.Background(), &pinecone.ConfigureIndexRequest{PodType: "p1.x2"})
	require.NoError(t, err)
	assert.Equal(t, "ok", message)
	assert.Equal(t, `PATCH /databases/movies text/plain {"pod_type":"p1.x2"}`, seen)
	assert.Nil(t, index.Description())
}
