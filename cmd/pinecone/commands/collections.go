package commands

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/pinecone/internal/constants"
	"github.com/fivetwenty-io/pinecone/pkg/pinecone"
)

// NewCollectionsCommand creates the collections command group.
func NewCollectionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"collection", "coll"},
		Short:   "Manage collections",
		Long:    "List, describe, create and delete collections (static copies of an index)",
	}

	cmd.AddCommand(newCollectionsListCommand())
	cmd.AddCommand(newCollectionsDescribeCommand())
	cmd.AddCommand(newCollectionsCreateCommand())
	cmd.AddCommand(newCollectionsDeleteCommand())

	return cmd
}

func newCollectionsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List collections",
		Long:    "List the names of all collections in the project",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			names, err := s.client.ListCollections(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("failed to list collections: %w", err)
			}

			return renderNameList(cmd, "Collection", names)
		},
	}
}

func newCollectionsDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe COLLECTION_NAME",
		Short: "Describe a collection",
		Long:  "Display the size and status of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := requireName(args, constants.ErrCollectionNameRequired)
			if err != nil {
				return err
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			collection, err := s.client.DescribeCollection(commandContext(cmd), name)
			if err != nil {
				return fmt.Errorf("failed to describe collection: %w", err)
			}

			return renderOutput(cmd, collection, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")

				return appendRows(table, [][]string{
					{"Name", collection.Name},
					{"Size", strconv.FormatInt(collection.Size, 10)},
					{"Status", formatConfigValue(collection.Status)},
				})
			})
		},
	}
}

func newCollectionsCreateCommand() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "create COLLECTION_NAME",
		Short: "Create a collection",
		Long:  "Create a collection from the current contents of an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := requireName(args, constants.ErrCollectionNameRequired)
			if err != nil {
				return err
			}

			if source == "" {
				return constants.ErrSourceRequired
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			response, err := s.client.CreateCollection(commandContext(cmd), &pinecone.CreateCollectionRequest{
				Name:   name,
				Source: source,
			})
			if err != nil {
				return fmt.Errorf("failed to create collection: %w", err)
			}

			return outputActionResult(cmd, ActionResult{Action: "created", Kind: "collection", Name: name, Response: response})
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "index to copy (required)")

	return cmd
}

func newCollectionsDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete COLLECTION_NAME",
		Short: "Delete a collection",
		Long:  "Delete a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := requireName(args, constants.ErrCollectionNameRequired)
			if err != nil {
				return err
			}

			if !force && !confirm(cmd, fmt.Sprintf("Really delete collection '%s'?", name)) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")

				return nil
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			response, err := s.client.DeleteCollection(commandContext(cmd), name)
			if err != nil {
				return fmt.Errorf("failed to delete collection: %w", err)
			}

			return outputActionResult(cmd, ActionResult{Action: "deleted", Kind: "collection", Name: name, Response: response})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "force deletion without confirmation")

	return cmd
}
