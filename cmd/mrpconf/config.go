package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rmax-ai/mrpconf/pkg/controller"
	"github.com/rmax-ai/mrpconf/pkg/form"
	"github.com/rmax-ai/mrpconf/pkg/loader"
	"github.com/rmax-ai/mrpconf/pkg/model"
)

func newTechnicalCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "technical",
		Short: "Show and edit the technical configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the technical configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, a.loaders.Technical)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <name=value>...",
		Short: "Set technical configuration items",
		Long: `Load the technical configuration, apply the given edits by item name and
save the whole set. Boolean items accept only true or false.

Examples:
  mrpconf technical set datasourceDebug=true
  mrpconf technical set datasourceUrl=jdbc:mssql://db:1433/prod datasourceUsername=svc`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return edit(cmd.Context(), cmd.OutOrStdout(), a.loaders.Technical, args)
		},
	})

	return cmd
}

func newOperationalCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operational",
		Short: "Show and edit a scenario's operational configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <scenario-id>",
		Short: "Show the operational configuration of a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkScenarioID(args[0]); err != nil {
				return err
			}
			return show(cmd, a.loaders.Operational(args[0]))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <scenario-id> <name=value>...",
		Short: "Set operational configuration items of a scenario",
		Long: `Load the operational configuration of a scenario, apply the given edits by
item name and save the whole set.

Examples:
  mrpconf operational set Standard_LDL_M1000 batchSize=500 enableLogging=false`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkScenarioID(args[0]); err != nil {
				return err
			}
			return edit(cmd.Context(), cmd.OutOrStdout(), a.loaders.Operational(args[0]), args[1:])
		},
	})

	return cmd
}

func checkScenarioID(id string) error {
	if model.IsSentinelID(id) {
		return &model.ValidationError{Field: "scenarioId", Reason: fmt.Sprintf("%q is reserved", id)}
	}
	return nil
}

func show(cmd *cobra.Command, ld *loader.Loader[model.ConfigItem]) error {
	res := ld.Load(cmd.Context())
	warnFallback(cmd.ErrOrStderr(), res)
	if len(res.Items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), subtleStyle.Render("No configuration items"))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), itemsTable(res.Items))
	return nil
}

// edit applies name=value edits to a freshly loaded set and saves it. It
// refuses to save over the source when the load fell back to defaults.
func edit(ctx context.Context, out io.Writer, ld *loader.Loader[model.ConfigItem], args []string) error {
	edits := make([]form.Edit, 0, len(args))
	for _, arg := range args {
		e, err := form.ParseEdit(arg)
		if err != nil {
			return err
		}
		edits = append(edits, e)
	}

	res := ld.Load(ctx)
	if res.IsFallback() {
		return fmt.Errorf("config source unavailable, not saving: %w", res.Err)
	}

	items, err := form.Apply(res.Items, edits...)
	if err != nil {
		return err
	}
	if err := ld.Save(ctx, items); err != nil {
		return fmt.Errorf("%s%w", controller.MsgSaveFailed, err)
	}
	fmt.Fprintln(out, successStyle.Render(controller.MsgSaved))
	return nil
}
