package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/pinecone/cmd/pinecone/commands"
)

const testAPIKey = "pc-test-key-1234"

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	APIKey string
	Body   string
}

// fakeAPI serves the controller and the host of the "movies" index.
type fakeAPI struct {
	controller *httptest.Server
	index      *httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	api := &fakeAPI{}
	api.index = httptest.NewServer(http.HandlerFunc(api.serveIndex))
	api.controller = httptest.NewServer(http.HandlerFunc(api.serveController))

	t.Cleanup(func() {
		api.controller.Close()
		api.index.Close()
	})

	return api
}

func (a *fakeAPI) record(r *http.Request) string {
	body, _ := io.ReadAll(r.Body)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.requests = append(a.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		APIKey: r.Header.Get("Api-Key"),
		Body:   string(body),
	})

	return string(body)
}

func (a *fakeAPI) Requests() []recordedRequest {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]recordedRequest(nil), a.requests...)
}

func (a *fakeAPI) serveController(w http.ResponseWriter, r *http.Request) {
	a.record(r)

	switch r.Method + " " + r.URL.Path {
	case "GET /databases":
		writeJSON(w, http.StatusOK, []string{"movies", "books"})
	case "GET /databases/movies":
		writeJSON(w, http.StatusOK, map[string]any{
			"database": map[string]any{"name": "movies", "dimension": 3, "metric": "cosine", "replicas": 1, "pods": 1, "pod_type": "p1.x1"},
			"status":   map[string]any{"host": a.index.URL, "state": "Ready", "ready": true},
		})
	case "POST /databases", "POST /collections":
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	case "PATCH /databases/movies", "DELETE /databases/movies", "DELETE /collections/weekly":
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("accepted"))
	case "GET /collections":
		writeJSON(w, http.StatusOK, []string{"weekly"})
	case "GET /collections/weekly":
		writeJSON(w, http.StatusOK, map[string]any{"name": "weekly", "size": 2048, "status": "Ready"})
	case "GET /actions/whoami":
		writeJSON(w, http.StatusOK, map[string]any{"project_name": "demo", "user_label": "default", "user_name": "ab12cd"})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"code": 5, "message": "not found: " + r.URL.Path})
	}
}

func (a *fakeAPI) serveIndex(w http.ResponseWriter, r *http.Request) {
	body := a.record(r)

	switch r.Method + " " + r.URL.Path {
	case "GET /describe_index_stats":
		writeJSON(w, http.StatusOK, map[string]any{
			"namespaces":       map[string]any{"": map[string]any{"vectorCount": 2}, "drama": map[string]any{"vectorCount": 1}},
			"dimension":        3,
			"indexFullness":    0.25,
			"totalVectorCount": 3,
		})
	case "POST /vectors/upsert":
		var request struct {
			Vectors []json.RawMessage `json:"vectors"`
		}

		_ = json.Unmarshal([]byte(body), &request)
		writeJSON(w, http.StatusOK, map[string]any{"upsertedCount": len(request.Vectors)})
	case "POST /query":
		writeJSON(w, http.StatusOK, map[string]any{
			"namespace": "",
			"matches": []map[string]any{
				{"id": "heat", "score": 0.97, "metadata": map[string]any{"year": 1995}},
				{"id": "ronin", "score": 0.91},
			},
		})
	case "GET /vectors/fetch":
		writeJSON(w, http.StatusOK, map[string]any{
			"namespace": r.URL.Query().Get("namespace"),
			"vectors": map[string]any{
				"heat": map[string]any{"id": "heat", "values": []float32{0.1, 0.2, 0.3}},
			},
		})
	case "POST /vectors/update", "POST /vectors/delete":
		writeJSON(w, http.StatusOK, map[string]any{})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"code": 5, "message": "not found"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// cli runs the root command against a private config file.
type cli struct {
	t          *testing.T
	configFile string
}

func newCLI(t *testing.T) *cli {
	t.Helper()

	t.Setenv("PINECONE_API_KEY", "")
	t.Setenv("PINECONE_ENVIRONMENT", "")
	t.Setenv("PINECONE_CONTROLLER_URL", "")

	return &cli{t: t, configFile: filepath.Join(t.TempDir(), "config.yml")}
}

func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()

	viper.Reset()
	c.t.Cleanup(viper.Reset)

	root := commands.NewRootCommand("1.2.3", "abc123", "2026-10-01")

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", c.configFile}, args...))

	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

// against runs a command with credentials pointing at api.
func (c *cli) against(api *fakeAPI, args ...string) (string, error) {
	c.t.Helper()

	return c.run("", append([]string{"--api-key", testAPIKey, "--controller-url", api.controller.URL}, args...)...)
}
