package commands

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/pinecone/internal/constants"
	"github.com/fivetwenty-io/pinecone/pkg/pinecone"
)

// NewIndexesCommand creates the indexes command group.
func NewIndexesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "indexes",
		Aliases: []string{"index", "idx"},
		Short:   "Manage indexes",
		Long:    "List, describe, create, configure and delete indexes of the project",
	}

	cmd.AddCommand(newIndexesListCommand())
	cmd.AddCommand(newIndexesDescribeCommand())
	cmd.AddCommand(newIndexesCreateCommand())
	cmd.AddCommand(newIndexesConfigureCommand())
	cmd.AddCommand(newIndexesDeleteCommand())
	cmd.AddCommand(newIndexesStatsCommand())

	return cmd
}

func newIndexesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List indexes",
		Long:    "List the names of all indexes in the project",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			names, err := s.client.ListIndexes(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("failed to list indexes: %w", err)
			}

			return renderNameList(cmd, "Index", names)
		},
	}
}

func newIndexesDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe INDEX_NAME",
		Short: "Describe an index",
		Long:  "Display the configuration, state and host of an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := requireName(args, constants.ErrIndexNameRequired)
			if err != nil {
				return err
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			description, err := s.client.DescribeIndex(commandContext(cmd), name)
			if err != nil {
				return fmt.Errorf("failed to describe index: %w", err)
			}

			return renderOutput(cmd, description, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")

				return appendRows(table, indexDescriptionRows(description))
			})
		},
	}
}

func indexDescriptionRows(description *pinecone.IndexDescription) [][]string {
	host := description.Host()
	if host == "" {
		host = constants.NotAvailable
	}

	return [][]string{
		{"Name", description.Database.Name},
		{"Dimension", strconv.Itoa(description.Database.Dimension)},
		{"Metric", string(description.Database.Metric)},
		{"Replicas", strconv.Itoa(description.Database.Replicas)},
		{"Shards", strconv.Itoa(description.Database.Shards)},
		{"Pods", strconv.Itoa(description.Database.Pods)},
		{"Pod Type", formatConfigValue(description.Database.PodType)},
		{"State", formatConfigValue(string(description.Status.State))},
		{"Ready", strconv.FormatBool(description.Status.Ready)},
		{"Host", host},
	}
}

func newIndexesCreateCommand() *cobra.Command {
	var (
		dimension        int
		metric           string
		replicas         int
		pods             int
		podType          string
		sourceCollection string
	)

	cmd := &cobra.Command{
		Use:   "create INDEX_NAME",
		Short: "Create an index",
		Long:  "Create an index. The service accepts the request and provisions the index asynchronously.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := requireName(args, constants.ErrIndexNameRequired)
			if err != nil {
				return err
			}

			if dimension <= 0 {
				return constants.ErrDimensionRequired
			}

			request := &pinecone.IndexCreateRequest{
				Name:             name,
				Dimension:        dimension,
				Replicas:         replicas,
				Pods:             pods,
				PodType:          podType,
				SourceCollection: sourceCollection,
			}

			if metric != "" {
				request.Metric, err = pinecone.ParseMetric(metric)
				if err != nil {
					return err
				}
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			response, err := s.client.CreateIndex(commandContext(cmd), request)
			if err != nil {
				return fmt.Errorf("failed to create index: %w", err)
			}

			return outputActionResult(cmd, ActionResult{Action: "created", Kind: "index", Name: name, Response: response})
		},
	}

	cmd.Flags().IntVarP(&dimension, "dimension", "d", 0, "vector dimension (required)")
	cmd.Flags().StringVarP(&metric, "metric", "m", "", "distance metric (euclidean, cosine, dotproduct)")
	cmd.Flags().IntVar(&replicas, "replicas", 0, "number of replicas")
	cmd.Flags().IntVar(&pods, "pods", 0, "number of pods")
	cmd.Flags().StringVar(&podType, "pod-type", "", "pod type, e.g. p1.x1")
	cmd.Flags().StringVar(&sourceCollection, "source-collection", "", "collection to create the index from")

	return cmd
}

func newIndexesConfigureCommand() *cobra.Command {
	var (
		replicas int
		podType  string
	)

	cmd := &cobra.Command{
		Use:   "configure INDEX_NAME",
		Short: "Configure an index",
		Long:  "Change the number of replicas or the pod type of an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := requireName(args, constants.ErrIndexNameRequired)
			if err != nil {
				return err
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			response, err := s.client.Index(name).Configure(commandContext(cmd), &pinecone.ConfigureIndexRequest{
				Replicas: replicas,
				PodType:  podType,
			})
			if err != nil {
				return fmt.Errorf("failed to configure index: %w", err)
			}

			return outputActionResult(cmd, ActionResult{Action: "configured", Kind: "index", Name: name, Response: response})
		},
	}

	cmd.Flags().IntVar(&replicas, "replicas", 0, "number of replicas")
	cmd.Flags().StringVar(&podType, "pod-type", "", "pod type, e.g. p1.x2")

	return cmd
}

func newIndexesDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete INDEX_NAME",
		Short: "Delete an index",
		Long:  "Delete an index and all vectors stored in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := requireName(args, constants.ErrIndexNameRequired)
			if err != nil {
				return err
			}

			if !force && !confirm(cmd, fmt.Sprintf("Really delete index '%s'?", name)) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")

				return nil
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			// Deleting through the index handle also drops its shared cache entry.
			response, err := s.client.Index(name).Delete(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("failed to delete index: %w", err)
			}

			return outputActionResult(cmd, ActionResult{Action: "deleted", Kind: "index", Name: name, Response: response})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "force deletion without confirmation")

	return cmd
}

func newIndexesStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats INDEX_NAME",
		Short: "Show index statistics",
		Long:  "Display vector counts per namespace, dimension and fullness of an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := requireName(args, constants.ErrIndexNameRequired)
			if err != nil {
				return err
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := s.client.Index(name).DescribeStats(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("failed to describe index stats: %w", err)
			}

			return renderOutput(cmd, stats, func(table *tablewriter.Table) error {
				table.Header("Namespace", "Vectors")

				rows := make([][]string, 0, len(stats.Namespaces)+3)

				namespaces := make([]string, 0, len(stats.Namespaces))
				for namespace := range stats.Namespaces {
					namespaces = append(namespaces, namespace)
				}

				sort.Strings(namespaces)

				for _, namespace := range namespaces {
					rows = append(rows, []string{namespaceName(namespace), strconv.FormatInt(stats.Namespaces[namespace].VectorCount, 10)})
				}

				rows = append(rows,
					[]string{"TOTAL", strconv.FormatInt(stats.TotalVectorCount, 10)},
					[]string{"Dimension", strconv.Itoa(stats.Dimension)},
					[]string{"Fullness", fmt.Sprintf("%.2f%%", stats.IndexFullness*100)},
				)

				return appendRows(table, rows)
			})
		},
	}
}
