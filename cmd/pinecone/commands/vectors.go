package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/pinecone/internal/constants"
	"github.com/fivetwenty-io/pinecone/pkg/pinecone"
)

// NewVectorsCommand creates the vectors command group.
func NewVectorsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vectors",
		Aliases: []string{"vector", "vec"},
		Short:   "Read and write vectors",
		Long:    "Upsert, query, fetch, update and delete vectors stored in an index",
	}

	cmd.AddCommand(newVectorsUpsertCommand())
	cmd.AddCommand(newVectorsQueryCommand())
	cmd.AddCommand(newVectorsFetchCommand())
	cmd.AddCommand(newVectorsUpdateCommand())
	cmd.AddCommand(newVectorsDeleteCommand())

	return cmd
}

// UpsertSummary reports the outcome of an upsert run.
type UpsertSummary struct {
	Index         string `json:"index"          yaml:"index"`
	Namespace     string `json:"namespace"      yaml:"namespace"`
	Batches       int    `json:"batches"        yaml:"batches"`
	UpsertedCount int64  `json:"upserted_count" yaml:"upserted_count"`
}

func newVectorsUpsertCommand() *cobra.Command {
	var (
		file        string
		id          string
		values      string
		metadata    string
		namespace   string
		batchSize   int
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "upsert INDEX_NAME",
		Short: "Upsert vectors",
		Long: `Write vectors to an index. Vectors come from a JSON or YAML file holding a
list of vectors (or an object with a "vectors" list), or from a single --id
with --values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := requireName(args, constants.ErrIndexNameRequired)
			if err != nil {
				return err
			}

			vectors, err := vectorsFromInput(file, id, values, metadata)
			if err != nil {
				return err
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			upserter := pinecone.NewBatchUpserter(s.client, name, concurrency)
			upserter.SetBatchSize(batchSize)

			if config := loadConfig(); config.Timeout > 0 {
				upserter.SetTimeout(config.Timeout)
			}

			results, err := upserter.Upsert(commandContext(cmd), namespace, vectors)
			if err != nil {
				return fmt.Errorf("failed to upsert vectors: %w", err)
			}

			summary := UpsertSummary{
				Index:         name,
				Namespace:     namespace,
				Batches:       len(results),
				UpsertedCount: pinecone.TotalUpserted(results),
			}

			return renderOutput(cmd, summary, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")

				return appendRows(table, [][]string{
					{"Index", summary.Index},
					{"Namespace", namespaceName(summary.Namespace)},
					{"Batches", strconv.Itoa(summary.Batches)},
					{"Upserted", strconv.FormatInt(summary.UpsertedCount, 10)},
				})
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON or YAML file with vectors")
	cmd.Flags().StringVar(&id, "id", "", "id of a single vector")
	cmd.Flags().StringVar(&values, "values", "", "comma-separated values of a single vector")
	cmd.Flags().StringVar(&metadata, "metadata", "", "JSON metadata of a single vector")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "target namespace")
	cmd.Flags().IntVar(&batchSize, "batch-size", pinecone.DefaultBatchSize, "vectors per upsert request")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "upsert requests in flight")

	return cmd
}

func newVectorsQueryCommand() *cobra.Command {
	var (
		vector          string
		id              string
		topK            int
		namespace       string
		filter          string
		includeValues   bool
		includeMetadata bool
	)

	cmd := &cobra.Command{
		Use:   "query INDEX_NAME",
		Short: "Query similar vectors",
		Long:  "Find the vectors most similar to --vector or to the stored vector --id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := requireName(args, constants.ErrIndexNameRequired)
			if err != nil {
				return err
			}

			if vector == "" && id == "" {
				return constants.ErrQueryInputRequired
			}

			if topK <= 0 {
				return constants.ErrTopKRequired
			}

			request := &pinecone.QueryRequest{
				Namespace:       namespace,
				TopK:            topK,
				IncludeValues:   includeValues,
				IncludeMetadata: includeMetadata,
				ID:              id,
			}

			if vector != "" {
				request.Vector, err = parseFloats(vector)
				if err != nil {
					return err
				}
			}

			request.Filter, err = parseObject(filter)
			if err != nil {
				return fmt.Errorf("invalid --filter: %w", err)
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			response, err := s.client.Index(name).Query(commandContext(cmd), request)
			if err != nil {
				return fmt.Errorf("failed to query index: %w", err)
			}

			return renderOutput(cmd, response, func(table *tablewriter.Table) error {
				table.Header("ID", "Score", "Metadata")

				rows := make([][]string, 0, len(response.Matches))
				for _, match := range response.Matches {
					rows = append(rows, []string{match.ID, formatScore(match.Score), formatMetadata(match.Metadata)})
				}

				return appendRows(table, rows)
			})
		},
	}

	cmd.Flags().StringVar(&vector, "vector", "", "comma-separated query vector")
	cmd.Flags().StringVar(&id, "id", "", "query by the id of a stored vector")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 10, "number of matches to return")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "namespace to search")
	cmd.Flags().StringVar(&filter, "filter", "", "JSON metadata filter")
	cmd.Flags().BoolVar(&includeValues, "include-values", false, "return vector values")
	cmd.Flags().BoolVar(&includeMetadata, "include-metadata", true, "return vector metadata")

	return cmd
}

func newVectorsFetchCommand() *cobra.Command {
	var (
		ids       []string
		namespace string
	)

	cmd := &cobra.Command{
		Use:   "fetch INDEX_NAME",
		Short: "Fetch vectors by id",
		Long:  "Fetch stored vectors, with values and metadata, by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := requireName(args, constants.ErrIndexNameRequired)
			if err != nil {
				return err
			}

			if len(ids) == 0 {
				return constants.ErrIDsRequired
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			response, err := s.client.Index(name).Fetch(commandContext(cmd), &pinecone.FetchRequest{
				IDs:       ids,
				Namespace: namespace,
			})
			if err != nil {
				return fmt.Errorf("failed to fetch vectors: %w", err)
			}

			return renderOutput(cmd, response, func(table *tablewriter.Table) error {
				table.Header("ID", "Dimension", "Metadata")

				fetched := make([]string, 0, len(response.Vectors))
				for fetchedID := range response.Vectors {
					fetched = append(fetched, fetchedID)
				}

				sort.Strings(fetched)

				rows := make([][]string, 0, len(fetched))
				for _, fetchedID := range fetched {
					v := response.Vectors[fetchedID]
					rows = append(rows, []string{fetchedID, strconv.Itoa(len(v.Values)), formatMetadata(v.Metadata)})
				}

				return appendRows(table, rows)
			})
		},
	}

	cmd.Flags().StringSliceVar(&ids, "id", nil, "vector id (repeatable or comma-separated)")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "namespace to read from")

	return cmd
}

func newVectorsUpdateCommand() *cobra.Command {
	var (
		id        string
		values    string
		metadata  string
		namespace string
	)

	cmd := &cobra.Command{
		Use:   "update INDEX_NAME",
		Short: "Update a vector",
		Long:  "Replace the values of a vector or merge metadata into it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := requireName(args, constants.ErrIndexNameRequired)
			if err != nil {
				return err
			}

			if id == "" {
				return constants.ErrIDsRequired
			}

			request := &pinecone.UpdateRequest{ID: id, Namespace: namespace}

			if values != "" {
				request.Values, err = parseFloats(values)
				if err != nil {
					return err
				}
			}

			request.SetMetadata, err = parseObject(metadata)
			if err != nil {
				return fmt.Errorf("invalid --metadata: %w", err)
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			err = s.client.Index(name).Update(commandContext(cmd), request)
			if err != nil {
				return fmt.Errorf("failed to update vector: %w", err)
			}

			return outputActionResult(cmd, ActionResult{Action: "updated", Kind: "vector", Name: id})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "id of the vector (required)")
	cmd.Flags().StringVar(&values, "values", "", "comma-separated replacement values")
	cmd.Flags().StringVar(&metadata, "metadata", "", "JSON metadata to set")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "namespace of the vector")

	return cmd
}

func newVectorsDeleteCommand() *cobra.Command {
	var (
		ids       []string
		all       bool
		namespace string
		filter    string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "delete INDEX_NAME",
		Short: "Delete vectors",
		Long:  "Delete vectors by id, by metadata filter, or every vector of a namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := requireName(args, constants.ErrIndexNameRequired)
			if err != nil {
				return err
			}

			request := &pinecone.DeleteRequest{IDs: ids, DeleteAll: all, Namespace: namespace}

			request.Filter, err = parseObject(filter)
			if err != nil {
				return fmt.Errorf("invalid --filter: %w", err)
			}

			if len(ids) == 0 && !all && request.Filter == nil {
				return constants.ErrDeleteSelectorRequired
			}

			if all && !force && !confirm(cmd, fmt.Sprintf("Really delete all vectors in %s of index '%s'?", namespaceLabel(namespace), name)) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")

				return nil
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			err = s.client.Index(name).DeleteVectors(commandContext(cmd), request)
			if err != nil {
				return fmt.Errorf("failed to delete vectors: %w", err)
			}

			return outputActionResult(cmd, ActionResult{Action: "deleted", Kind: "vectors", Name: name})
		},
	}

	cmd.Flags().StringSliceVar(&ids, "id", nil, "vector id (repeatable or comma-separated)")
	cmd.Flags().BoolVar(&all, "all", false, "delete every vector of the namespace")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "namespace to delete from")
	cmd.Flags().StringVar(&filter, "filter", "", "JSON metadata filter")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation for --all")

	return cmd
}

func vectorsFromInput(file, id, values, metadata string) ([]pinecone.Vector, error) {
	if file != "" {
		return loadVectorsFile(file)
	}

	if id == "" || values == "" {
		return nil, constants.ErrVectorInputRequired
	}

	parsed, err := parseFloats(values)
	if err != nil {
		return nil, err
	}

	meta, err := parseObject(metadata)
	if err != nil {
		return nil, fmt.Errorf("invalid --metadata: %w", err)
	}

	return []pinecone.Vector{{ID: id, Values: parsed, Metadata: meta}}, nil
}

// loadVectorsFile reads a list of vectors, or an upsert request object, from
// a JSON or YAML file.
func loadVectorsFile(file string) ([]pinecone.Vector, error) {
	err := validateFilePath(file)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Clean(file))
	if err != nil {
		return nil, fmt.Errorf("failed to read vectors file: %w", err)
	}

	var vectors []pinecone.Vector

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		vectors, err = decodeVectors(data, yaml.Unmarshal)
	default:
		vectors, err = decodeVectors(data, json.Unmarshal)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse vectors file %s: %w", file, err)
	}

	if len(vectors) == 0 {
		return nil, constants.ErrVectorInputRequired
	}

	return vectors, nil
}

func decodeVectors(data []byte, unmarshal func([]byte, any) error) ([]pinecone.Vector, error) {
	trimmed := bytes.TrimSpace(data)

	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '-') {
		var vectors []pinecone.Vector

		err := unmarshal(trimmed, &vectors)
		if err != nil {
			return nil, err
		}

		return vectors, nil
	}

	var request pinecone.UpsertRequest

	err := unmarshal(trimmed, &request)
	if err != nil {
		return nil, err
	}

	return request.Vectors, nil
}

func parseFloats(value string) ([]float32, error) {
	parts := splitList(strings.Trim(value, "[]"))
	floats := make([]float32, 0, len(parts))

	for _, part := range parts {
		f, err := strconv.ParseFloat(part, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", constants.ErrInvalidFloat, part)
		}

		floats = append(floats, float32(f))
	}

	return floats, nil
}

// parseObject decodes a JSON object; an empty string yields nil.
func parseObject(value string) (pinecone.MappedValue, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	var object pinecone.MappedValue

	err := json.Unmarshal([]byte(value), &object)
	if err != nil {
		return nil, fmt.Errorf("parsing JSON object: %w", err)
	}

	return object, nil
}

func namespaceName(namespace string) string {
	if namespace == "" {
		return "(default)"
	}

	return namespace
}

func namespaceLabel(namespace string) string {
	if namespace == "" {
		return "the default namespace"
	}

	return "namespace " + namespace
}

func formatScore(score *float32) string {
	if score == nil {
		return constants.NotAvailable
	}

	return strconv.FormatFloat(float64(*score), 'f', 4, 32)
}

func formatMetadata(metadata pinecone.MappedValue) string {
	if len(metadata) == 0 {
		return ""
	}

	data, err := json.Marshal(metadata)
	if err != nil {
		return constants.NotAvailable
	}

	return string(data)
}
