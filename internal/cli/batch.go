package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/casedesk/internal/analysis"
	"github.com/ppiankov/casedesk/internal/llm"
	"github.com/ppiankov/casedesk/internal/logging"
	"github.com/ppiankov/casedesk/internal/worker"
)

var (
	batchOutputDir string
	batchTimeout   time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir|list>",
	Short: "Analyze many petition text files in parallel",
	Long: `Batch extracts claims from many petitions concurrently:
- A directory contributes its .txt, .md and .html files
- Any other file is read as a list of paths, one per line
- Provider calls share one rate limiter
- Each analysis is written to <output-dir>/<name>.analysis.json

Batch does not record petitions or persist analyses.

Example:
  casedesk batch ./petitions
  casedesk batch petitions.list --concurrency 8 --ai-rate 2 --output-dir ./analyses`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().Float64("ai-rate", 0, "provider calls per second (default from concurrency.ai_rate_limit)")
	batchCmd.Flags().StringVar(&batchOutputDir, "output-dir", "./casedesk-analyses", "output directory for analyses")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for the batch")

	_ = viper.BindPFlag("concurrency.workers", batchCmd.Flags().Lookup("concurrency"))
	_ = viper.BindPFlag("concurrency.ai_rate_limit", batchCmd.Flags().Lookup("ai-rate"))
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return fmt.Errorf("AI provider: %w", err)
	}

	paths, err := worker.ResolveInputs(args[0])
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no petition files found in %s", args[0])
	}

	if err := os.MkdirAll(batchOutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	svc := analysis.NewService(provider, analysis.WithLogger(logger))
	processor := worker.NewBatchProcessor(svc, cfg.Concurrency.Workers, cfg.Concurrency.AIRateLimit, logger)

	fmt.Fprintf(os.Stderr, "Analyzing %d petitions with %d workers...\n", len(paths), cfg.Concurrency.Workers)
	start := time.Now()
	results := processor.ProcessFiles(ctx, paths)

	w := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			fmt.Fprintf(w, "✗ %s: %v\n", r.PetitionID, r.Error)
			continue
		}

		out := filepath.Join(batchOutputDir, r.PetitionID+".analysis.json")
		if err := writeJSONFile(out, r.Analysis); err != nil {
			failed++
			fmt.Fprintf(w, "✗ %s: %v\n", r.PetitionID, err)
			continue
		}
		fmt.Fprintf(w, "✓ %s: %d claims, severity %s\n", r.PetitionID, len(r.Analysis.Claims), r.Analysis.OverallSeverity)
	}

	fmt.Fprintf(w, "\n%d analyzed, %d failed in %s\n", len(results)-failed, failed, time.Since(start).Round(time.Millisecond))
	if failed > 0 {
		return fmt.Errorf("%d of %d petitions failed", failed, len(results))
	}
	return nil
}

func writeJSONFile(path string, v interface{}) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return writeJSON(f, v)
}
