package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/casedesk/internal/llm"
	"github.com/ppiankov/casedesk/internal/model"
	"github.com/ppiankov/casedesk/internal/petition"
	"github.com/ppiankov/casedesk/internal/pipeline"
	"github.com/ppiankov/casedesk/internal/report"
)

var (
	processUser    string
	processCase    string
	processType    string
	processJSON    string
	processMD      string
	processTimeout time.Duration
	processUA      string
)

var processCmd = &cobra.Command{
	Use:   "process <file|url>",
	Short: "Upload, analyze and report on one petition",
	Long: `Process runs one petition through the whole flow on this machine:
- Validate and record the petition file
- Extract legal claims, a timeline and recommendations
- Grade the evidence listed in an optional case file
- Build the investigating officer report

The case file is YAML:

  report:
    petitioner_name: Ravi Kumar
    police_station: Guntur Urban
  evidence:
    - name: Medical certificate
      type: Document
      claim_id: C1
      description: Hospital certificate listing injuries

Example:
  casedesk process petition.txt --user officer-17
  casedesk process https://example.org/complaint.pdf --case case.yaml --type detailed --md report.md`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&processUser, "user", "cli", "officer user id recorded as the uploader")
	processCmd.Flags().StringVar(&processCase, "case", "", "YAML case file with evidence and report fields")
	processCmd.Flags().StringVar(&processType, "type", string(model.ReportSummary), "report type (summary, detailed, dashboard)")
	processCmd.Flags().StringVar(&processJSON, "json", "report.json", "output JSON path")
	processCmd.Flags().StringVar(&processMD, "md", "", "output Markdown path (optional)")
	processCmd.Flags().DurationVar(&processTimeout, "timeout", 3*time.Minute, "overall timeout")
	processCmd.Flags().StringVar(&processUA, "ua", "casedesk/"+Version, "HTTP User-Agent for URL sources")
}

func runProcess(cmd *cobra.Command, args []string) error {
	typ := model.ReportType(processType)
	if !typ.Valid() {
		return fmt.Errorf("invalid report type %q (use summary, detailed or dashboard)", processType)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.uploads == nil {
		return fmt.Errorf("store not configured: set store.supabase_url and store.supabase_key or choose another store.backend")
	}
	if !a.analysis.Configured() {
		return fmt.Errorf("AI provider not configured: set %s or llm.api_key", providerEnvHint(cfg.LLM.Provider))
	}

	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	p := pipeline.New(a.uploads, a.analysis,
		pipeline.WithLogger(a.logger),
		pipeline.WithFetcher(pipeline.NewFetcher(processTimeout, processUA, petition.MaxImageSize)))

	out, err := p.Process(ctx, pipeline.Input{
		Source:     args[0],
		UserID:     processUser,
		CaseFile:   processCase,
		ReportType: typ,
	})
	if err != nil {
		return err
	}

	for _, w := range out.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	if err := report.WriteFiles(out.Report, processJSON, processMD); err != nil {
		return err
	}
	if verbose {
		if processJSON != "" {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", processJSON)
		}
		if processMD != "" {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", processMD)
		}
	}

	report.RenderSummary(cmd.OutOrStdout(), out.Report)
	return nil
}

func providerEnvHint(provider string) string {
	if env := llm.APIKeyEnv(provider); env != "" {
		return env
	}
	return "CASEDESK_LLM_API_KEY"
}
