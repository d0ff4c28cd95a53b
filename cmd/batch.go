package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/credit-optimizer/internal/engine"
	"github.com/sells-group/credit-optimizer/internal/model"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Evaluate a JSON array of requests concurrently",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		input, _ := cmd.Flags().GetString("input")
		if input == "" {
			return eris.New("--input is required")
		}
		data, err := readInput(cmd.InOrStdin(), input)
		if err != nil {
			return err
		}
		requests, err := parseBatch(data)
		if err != nil {
			return err
		}

		e, err := buildEngine(cfg.Engine)
		if err != nil {
			return err
		}

		concurrency, _ := cmd.Flags().GetInt("concurrency")
		if concurrency <= 0 {
			concurrency = cfg.Batch.Concurrency
		}

		start := time.Now()
		results := e.RunBatch(ctx, requests, concurrency)
		failed := countFailed(results)
		zap.L().Info("batch complete",
			zap.Int("requests", len(requests)),
			zap.Int("failed", failed),
			zap.Int("concurrency", concurrency),
			zap.Duration("elapsed", time.Since(start)),
		)

		out := cmd.OutOrStdout()
		if outPath, _ := cmd.Flags().GetString("out"); outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return eris.Wrapf(err, "create %s", outPath)
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		if err := writeJSON(out, results); err != nil {
			return err
		}
		formatBatchSummary(cmd.ErrOrStderr(), results)

		if failed > 0 {
			return eris.Errorf("batch: %d of %d requests failed", failed, len(requests))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringP("input", "i", "", "JSON file holding an array of requests (- for stdin)")
	batchCmd.Flags().StringP("out", "o", "", "write results to this file instead of stdout")
	batchCmd.Flags().Int("concurrency", 0, "worker count (default from config)")
	rootCmd.AddCommand(batchCmd)
}

// parseBatch decodes a JSON array of requests.
func parseBatch(data []byte) ([]model.Request, error) {
	var requests []model.Request
	if err := json.Unmarshal(data, &requests); err != nil {
		return nil, eris.Wrap(err, "parse batch requests")
	}
	if len(requests) == 0 {
		return nil, eris.New("batch: no requests")
	}
	return requests, nil
}

func countFailed(results []engine.BatchResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// formatBatchSummary writes one line per failed request and a total.
func formatBatchSummary(out io.Writer, results []engine.BatchResult) {
	failed := 0
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		failed++
		_, _ = fmt.Fprintf(out, "request %d: %s\n", r.Index, r.Error)
	}
	_, _ = fmt.Fprintf(out, "%d succeeded, %d failed\n", len(results)-failed, failed)
}
