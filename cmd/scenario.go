package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/credit-optimizer/internal/export"
	"github.com/sells-group/credit-optimizer/internal/model"
	"github.com/sells-group/credit-optimizer/internal/store"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Save and inspect what-if scenarios",
	Long:  "Commands for saving a calculator request with its report, and listing, viewing or deleting saved scenarios.",
}

// -- scenario save --

var scenarioSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Run a request and save it with its report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		req, err := calculatorRequest(cmd)
		if err != nil {
			return err
		}
		e, err := buildEngine(cfg.Engine)
		if err != nil {
			return err
		}
		report, err := e.Run(req)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sc, err := st.SaveScenario(ctx, args[0], req, report)
		if err != nil {
			return eris.Wrap(err, "scenario save")
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), sc.ID)
		return nil
	},
}

// -- scenario list --

var scenarioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved scenarios, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		calculator, _ := cmd.Flags().GetString("calculator")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		scenarios, err := st.ListScenarios(ctx, store.ScenarioFilter{
			Calculator: calculator,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			return eris.Wrap(err, "scenario list")
		}

		if len(scenarios) == 0 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "No scenarios found.")
			return nil
		}

		formatScenarioList(cmd.OutOrStdout(), scenarios)
		return nil
	},
}

// -- scenario show --

var scenarioShowCmd = &cobra.Command{
	Use:   "show <scenario-id>",
	Short: "Show a saved scenario",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sc, err := st.GetScenario(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "scenario show")
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "json" {
			return writeJSON(cmd.OutOrStdout(), sc)
		}
		outPath, _ := cmd.Flags().GetString("out")
		return writeReport(cmd.OutOrStdout(), sc.Report, format, outPath)
	},
}

// -- scenario delete --

var scenarioDeleteCmd = &cobra.Command{
	Use:   "delete <scenario-id>",
	Short: "Delete a saved scenario",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.DeleteScenario(ctx, args[0]); err != nil {
			return eris.Wrap(err, "scenario delete")
		}
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	addInputFlags(scenarioSaveCmd)
	scenarioSaveCmd.Flags().StringP("calculator", "c", "", "calculator name (overrides the input's calculator)")

	scenarioListCmd.Flags().String("calculator", "", "filter by calculator")
	scenarioListCmd.Flags().Int("limit", 50, "max number of scenarios to display")
	scenarioListCmd.Flags().Int("offset", 0, "number of scenarios to skip")

	addOutputFlags(scenarioShowCmd)

	scenarioCmd.AddCommand(scenarioSaveCmd)
	scenarioCmd.AddCommand(scenarioListCmd)
	scenarioCmd.AddCommand(scenarioShowCmd)
	scenarioCmd.AddCommand(scenarioDeleteCmd)
	rootCmd.AddCommand(scenarioCmd)
}

// formatScenarioList writes a tabular list of scenarios to out.
func formatScenarioList(out io.Writer, scenarios []model.Scenario) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCALCULATOR\tUTIL\tSCORE\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t----------\t----\t-----\t-------")

	for _, sc := range scenarios {
		name := sc.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			sc.ID,
			name,
			sc.Calculator,
			export.Percent(sc.Report.Metrics.AggregateUtilization),
			scoreCell(sc.Report.EstimatedScore),
			sc.CreatedAt.UTC().Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

func scoreCell(v *float64) string {
	if v == nil {
		return "-"
	}
	return export.Points(*v)
}
