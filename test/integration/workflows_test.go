//go:build integration

package integration

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIndexWorkflow_CompleteLifecycle creates an index, writes and reads
// vectors, then deletes the index.
func TestIndexWorkflow_CompleteLifecycle(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	runner := NewCommandRunner(config, t)
	indexName := GenerateTestName("it-movies")

	defer runner.CleanupResource("index", indexName)

	// 1. Identify the project
	stdout, stderr, err := runner.Run("whoami", "--output", "json")
	require.NoError(t, err, "whoami failed: %s", stderr)
	AssertJSONOutput(t, stdout)

	// 2. Create index
	_, stderr, err = runner.Run("indexes", "create", indexName, "--dimension", "4", "--metric", "cosine")
	require.NoError(t, err, "Failed to create index: %s", stderr)

	// 3. Wait for the index to be ready
	WaitForCondition(t, func() bool {
		var description struct {
			Status struct {
				Ready bool   `json:"ready"`
				Host  string `json:"host"`
			} `json:"status"`
		}

		err := runner.RunJSON(&description, "indexes", "describe", indexName)

		return err == nil && description.Status.Ready && description.Status.Host != ""
	}, 10*time.Minute, "index "+indexName+" ready")

	// 4. Upsert vectors from a file
	vectorsFile := filepath.Join(t.TempDir(), "vectors.json")
	require.NoError(t, os.WriteFile(vectorsFile, []byte(`[
		{"id": "heat", "values": [0.9, 0.1, 0.0, 0.0], "metadata": {"genre": "crime"}},
		{"id": "ronin", "values": [0.8, 0.2, 0.0, 0.0], "metadata": {"genre": "crime"}},
		{"id": "up", "values": [0.0, 0.0, 0.9, 0.1], "metadata": {"genre": "animation"}}
	]`), 0o600))

	var summary struct {
		UpsertedCount int64 `json:"upserted_count"`
	}

	require.NoError(t, runner.RunJSON(&summary, "vectors", "upsert", indexName, "--file", vectorsFile, "--batch-size", "2"))
	assert.Equal(t, int64(3), summary.UpsertedCount)

	// 5. Query by vector with a metadata filter
	var queryResult struct {
		Matches []struct {
			ID string `json:"id"`
		} `json:"matches"`
	}

	WaitForCondition(t, func() bool {
		err := runner.RunJSON(&queryResult, "vectors", "query", indexName,
			"--vector", "1,0,0,0", "--top-k", "2", "--filter", `{"genre":{"$eq":"crime"}}`)

		return err == nil && len(queryResult.Matches) == 2
	}, 2*time.Minute, "query results for "+indexName)
	assert.Equal(t, "heat", queryResult.Matches[0].ID)

	// 6. Fetch by id
	stdout, stderr, err = runner.Run("vectors", "fetch", indexName, "--id", "heat,up", "--output", "json")
	require.NoError(t, err, "Failed to fetch vectors: %s", stderr)
	assert.Contains(t, stdout, `"up"`)

	// 7. Update and delete vectors
	_, stderr, err = runner.Run("vectors", "update", indexName, "--id", "up", "--metadata", `{"genre":"family"}`)
	require.NoError(t, err, "Failed to update vector: %s", stderr)

	_, stderr, err = runner.Run("vectors", "delete", indexName, "--id", "ronin")
	require.NoError(t, err, "Failed to delete vector: %s", stderr)

	// 8. Stats
	stdout, stderr, err = runner.Run("indexes", "stats", indexName, "--output", "yaml")
	require.NoError(t, err, "Failed to get stats: %s", stderr)
	assert.Contains(t, stdout, "dimension: 4")

	// 9. Delete index
	stdout, stderr, err = runner.Run("indexes", "delete", indexName, "--force")
	require.NoError(t, err, "Failed to delete index: %s", stderr)
	assert.Contains(t, stdout, indexName)
}

// TestIndexWorkflow_ErrorHandling checks failures surface as command errors.
func TestIndexWorkflow_ErrorHandling(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	runner := NewCommandRunner(config, t)
	missing := GenerateTestName("it-missing")

	_, stderr, err := runner.Run("indexes", "describe", missing)
	require.Error(t, err)
	assert.Contains(t, stderr, "404")

	_, _, err = runner.Run("indexes", "create", missing)
	require.Error(t, err, "create without --dimension must fail")

	_, stderr, err = runner.Run("vectors", "fetch", missing, "--id", "x")
	require.Error(t, err)
	assert.NotEmpty(t, stderr, fmt.Sprintf("fetch on %s should report an error", missing))
}
