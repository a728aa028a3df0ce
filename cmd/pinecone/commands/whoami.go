package commands

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewWhoAmICommand creates the whoami command.
func NewWhoAmICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the project of the API key",
		Long:  "Display the project and user the configured API key belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			info, err := s.client.WhoAmI(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("failed to identify caller: %w", err)
			}

			return renderOutput(cmd, info, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")

				return appendRows(table, [][]string{
					{"Project", info.ProjectName},
					{"User", info.UserName},
					{"Label", info.UserLabel},
				})
			})
		},
	}
}
