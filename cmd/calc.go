package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/credit-optimizer/internal/cache"
	"github.com/sells-group/credit-optimizer/internal/export"
	"github.com/sells-group/credit-optimizer/internal/metrics"
	"github.com/sells-group/credit-optimizer/internal/model"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Compute utilization and DTI metrics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		req, err := readRequest(cmd)
		if err != nil {
			return err
		}
		m, err := metrics.ForProfile(req.Profile)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), m)
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Estimate a credit score with a factor model",
	RunE: func(cmd *cobra.Command, _ []string) error {
		req, err := readRequest(cmd)
		if err != nil {
			return err
		}
		e, err := buildEngine(cfg.Engine)
		if err != nil {
			return err
		}
		modelName, _ := cmd.Flags().GetString("model")
		est, err := e.EstimateScore(req.Profile, modelName)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), est)
	},
}

var azeoCmd = &cobra.Command{
	Use:   "azeo",
	Short: "Plan an all-zero-except-one paydown",
	RunE: func(cmd *cobra.Command, _ []string) error {
		req, err := readRequest(cmd)
		if err != nil {
			return err
		}
		e, err := buildEngine(cfg.Engine)
		if err != nil {
			return err
		}

		var opts model.AzeoOptions
		if req.Azeo != nil {
			opts = *req.Azeo
		}
		if id, _ := cmd.Flags().GetString("reporting"); id != "" {
			opts.ReportingAccountID = id
		}
		if cmd.Flags().Changed("target") {
			target, _ := cmd.Flags().GetFloat64("target")
			opts.TargetBalance = model.Float(target)
		}

		plan, err := e.PlanAzeo(req.Profile.Accounts, opts)
		if err != nil {
			return err
		}
		if format, _ := cmd.Flags().GetString("format"); format == "text" {
			formatPlan(cmd.OutOrStdout(), plan)
			return nil
		}
		return writeJSON(cmd.OutOrStdout(), plan)
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Run a calculator and list its ranked recommendations",
	RunE: func(cmd *cobra.Command, _ []string) error {
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
		formatRecommendations(cmd.OutOrStdout(), report.Recommendations)
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run a calculator and render the full report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		req, err := calculatorRequest(cmd)
		if err != nil {
			return err
		}
		e, err := buildEngine(cfg.Engine)
		if err != nil {
			return err
		}
		rc, err := initCache(ctx, cfg.Cache)
		if err != nil {
			return err
		}
		if rc != nil {
			defer rc.Close() //nolint:errcheck
		}
		ttl := time.Duration(cfg.Cache.TTLSecs) * time.Second
		report, cached, err := cache.NewReports(e, rc, ttl).Run(ctx, req)
		if err != nil {
			return err
		}
		zap.L().Debug("report computed",
			zap.String("calculator", report.Calculator),
			zap.Bool("cached", cached),
		)

		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")
		if err := writeReport(cmd.OutOrStdout(), report, format, outPath); err != nil {
			return err
		}

		if summary, _ := cmd.Flags().GetBool("summary"); summary {
			text := initSummarizer(cfg.Narrative).Summarize(ctx, report)
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "\n%s\n", text)
		}
		return nil
	},
}

// calculatorRequest reads the request and applies --calculator.
func calculatorRequest(cmd *cobra.Command) (model.Request, error) {
	req, err := readRequest(cmd)
	if err != nil {
		return req, err
	}
	if calc, _ := cmd.Flags().GetString("calculator"); calc != "" {
		req.Calculator = calc
	}
	return req, nil
}

func init() {
	for _, c := range []*cobra.Command{metricsCmd, scoreCmd, azeoCmd, recommendCmd, reportCmd} {
		addInputFlags(c)
		rootCmd.AddCommand(c)
	}

	scoreCmd.Flags().String("model", "analyzer", "factor model name")

	azeoCmd.Flags().String("reporting", "", "account ID that keeps a reporting balance")
	azeoCmd.Flags().Float64("target", 0, "reporting balance target (default: min(cap, fraction of total limit))")
	azeoCmd.Flags().StringP("format", "f", "json", "output format: json or text")

	for _, c := range []*cobra.Command{recommendCmd, reportCmd} {
		c.Flags().StringP("calculator", "c", "", "calculator name (overrides the input's calculator)")
	}
	addOutputFlags(reportCmd)
	reportCmd.Flags().Bool("summary", false, "print a prose summary to stderr")
}

// formatPlan writes an allocation plan as a table.
func formatPlan(out io.Writer, p *model.AllocationPlan) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ACCOUNT\tACTION\tAMOUNT")
	for _, a := range p.Actions {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", a.AccountID, a.Action, export.Money(a.Amount))
	}
	_ = w.Flush()
	_, _ = fmt.Fprintf(out, "\nReporting on %s at %s. Pay down %s, charge up %s, utilization %s.\n",
		p.ReportingAccountID, export.Money(p.TargetBalance),
		export.Money(p.TotalPayDown), export.Money(p.TotalChargeUp),
		export.Percent(p.ResultingUtilization),
	)
	if len(p.ExcludedAccountIDs) > 0 {
		_, _ = fmt.Fprintf(out, "Excluded (zero limit): %s\n", strings.Join(p.ExcludedAccountIDs, ", "))
	}
}

// formatRecommendations writes ranked recommendations, one per line.
func formatRecommendations(out io.Writer, recs []model.Recommendation) {
	if len(recs) == 0 {
		_, _ = fmt.Fprintln(out, "No recommendations.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tPRIORITY\tPOLARITY\tRECOMMENDATION")
	for i, r := range recs {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", i+1, r.Priority, r.Polarity, r.Text)
	}
	_ = w.Flush()
}
