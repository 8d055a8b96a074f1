package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/casedesk/internal/client"
	"github.com/ppiankov/casedesk/internal/model"
	"github.com/ppiankov/casedesk/internal/status"
)

var (
	statusJSON   bool
	statusRemote string
	statusKey    string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check database, AI provider and function connectivity",
	Long: `Status runs every connectivity probe concurrently, each under its own
timeout, and prints the results.

With --remote the checks run against a deployed server instead of the local
configuration.

Example:
  casedesk status
  casedesk status --json
  casedesk status --remote https://casedesk.example.org --key $TOKEN`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print JSON")
	statusCmd.Flags().StringVar(&statusRemote, "remote", "", "base URL of a running casedesk server")
	statusCmd.Flags().StringVar(&statusKey, "key", "", "bearer key for --remote")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if statusRemote != "" {
		return remoteStatus(ctx, cmd.OutOrStdout())
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

	results := a.checker(selfURL(cfg.Server.Addr)).Run(ctx)
	if statusJSON {
		return writeJSON(cmd.OutOrStdout(), results)
	}
	printStatus(cmd.OutOrStdout(), results)

	if !status.Healthy(results) {
		return fmt.Errorf("one or more services are not connected")
	}
	return nil
}

func remoteStatus(ctx context.Context, w io.Writer) error {
	c := client.New(statusRemote, statusKey, 0)
	resp := c.CheckSystemHealth(ctx)

	if statusJSON {
		return writeJSON(w, resp.Data)
	}

	if resp.Data.Server.Success {
		printStatus(w, resp.Data.Server.Data.Services)
	} else {
		fmt.Fprintf(w, "✗ Server: %s\n", resp.Data.Server.Error)
	}
	if resp.Data.AI.Success {
		fmt.Fprintf(w, "AI test: %s - %s\n", resp.Data.AI.Data.Status, resp.Data.AI.Data.Message)
	} else {
		fmt.Fprintf(w, "✗ AI test: %s\n", resp.Data.AI.Error)
	}

	if !resp.Data.Server.Success || !resp.Data.Server.Data.Healthy {
		return fmt.Errorf("remote server is not healthy")
	}
	return nil
}

func printStatus(w io.Writer, results []model.ConnectionStatus) {
	for _, r := range results {
		mark := "✓"
		if r.Status != model.StatusConnected {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %-15s %-12s %s", mark, r.Service, r.Status, r.Message)
		if r.Latency > 0 {
			fmt.Fprintf(w, " (%dms)", r.Latency)
		}
		fmt.Fprintln(w)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
