package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmax-ai/mrpconf/pkg/model"
)

func newScenariosCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "scenarios",
		Aliases: []string{"scenario"},
		Short:   "List and create scenarios",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res := a.loaders.Scenarios.Load(cmd.Context())
			warnFallback(cmd.ErrOrStderr(), res)
			fmt.Fprintln(cmd.OutOrStdout(), scenariosTable(res.Items))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create <scenario-id> <description>",
		Short: "Create a scenario",
		Long: `Create a scenario with the given id and description.

The ids "loading" and "error" are reserved.

Examples:
  mrpconf scenarios create Plan_B "Backup plan for Client 1000"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := model.Scenario{ScenarioID: args[0], Description: args[1]}
			if err := a.loaders.CreateScenario(cmd.Context(), sc); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Scenario "+sc.ScenarioID+" created"))
			return nil
		},
	})

	return cmd
}
