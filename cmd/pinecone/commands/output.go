package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/pinecone/internal/constants"
)

const defaultIndent = 2

func validateOutputFormat(format string) error {
	switch format {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return nil
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnsupportedOutput, format)
	}
}

// renderOutput writes data as JSON or YAML, or as the table built by rows.
func renderOutput(cmd *cobra.Command, data any, rows func(table *tablewriter.Table) error) error {
	out := cmd.OutOrStdout()

	format := viper.GetString(keyOutput)
	if format == "" {
		format = constants.FormatTable
	}

	switch format {
	case constants.FormatJSON:
		return StandardJSONRenderer(out, data)
	case constants.FormatYAML:
		return StandardYAMLRenderer(out, data)
	case constants.FormatTable:
		table := tablewriter.NewWriter(out)

		err := rows(table)
		if err != nil {
			return err
		}

		err = table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnsupportedOutput, format)
	}
}

// StandardJSONRenderer writes indented JSON.
func StandardJSONRenderer[T any](w io.Writer, data T) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	return nil
}

// StandardYAMLRenderer writes YAML.
func StandardYAMLRenderer[T any](w io.Writer, data T) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(defaultIndent)

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	return encoder.Close()
}

func appendRows(table *tablewriter.Table, rows [][]string) error {
	for _, row := range rows {
		err := table.Append(row)
		if err != nil {
			return fmt.Errorf("failed to append row to table: %w", err)
		}
	}

	return nil
}

// renderNameList prints a list of names with a single column header.
func renderNameList(cmd *cobra.Command, header string, names []string) error {
	if names == nil {
		names = []string{}
	}

	return renderOutput(cmd, names, func(table *tablewriter.Table) error {
		table.Header(header)

		rows := make([][]string, 0, len(names))
		for _, name := range names {
			rows = append(rows, []string{name})
		}

		return appendRows(table, rows)
	})
}

// ActionResult reports a mutation accepted by the service.
type ActionResult struct {
	Action   string `json:"action"             yaml:"action"`
	Kind     string `json:"kind"               yaml:"kind"`
	Name     string `json:"name"               yaml:"name"`
	Response string `json:"response,omitempty" yaml:"response,omitempty"`
}

func outputActionResult(cmd *cobra.Command, result ActionResult) error {
	return renderOutput(cmd, result, func(table *tablewriter.Table) error {
		table.Header("Property", "Value")

		rows := [][]string{
			{"Action", result.Action},
			{"Kind", result.Kind},
			{"Name", result.Name},
		}
		if result.Response != "" {
			rows = append(rows, []string{"Response", result.Response})
		}

		return appendRows(table, rows)
	})
}
