package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/inboxpilot/inboxpilot/internal/gmail"
	"github.com/inboxpilot/inboxpilot/internal/triage"
)

func newTriageCmd() *cobra.Command {
	var (
		account     string
		batchSize   int
		days        int
		olderThan   string
		pendingFile string
		modelName   string
	)

	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Run a one-shot triage over recent inbox emails",
		Long: `Fetch recent inbox emails, classify each into a triage category with an
LLM, and merge the results into the pending store for later review.

Low-confidence snippet classifications are retried with the full email body.
Requires ANTHROPIC_API_KEY and an authorized Gmail account.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			classifier := newClassifier(modelName)
			if classifier == nil {
				return fmt.Errorf("ANTHROPIC_API_KEY is required for triage")
			}

			logger := slog.Default()

			store, err := newPendingStore(pendingFile, logger)
			if err != nil {
				return err
			}

			ctx := context.Background()
			client, err := gmail.NewClientForAccount(ctx, account)
			if err != nil {
				return fmt.Errorf("failed to create Gmail client for account %s: %w", account, err)
			}

			opts := triage.RunOptions{
				BatchSize: batchSize,
				Days:      days,
			}
			if olderThan != "" {
				parsed, err := time.Parse("2006/01/02", olderThan)
				if err != nil {
					return fmt.Errorf("invalid --older-than date %q: use YYYY/MM/DD", olderThan)
				}
				opts.OlderThan = parsed
			}

			pager := gmail.NewPager(client, gmail.WithLogger(logger))
			engine := triage.NewEngine(pager, client, classifier, store,
				triage.WithEngineLogger(logger),
			)

			summary, err := engine.Run(ctx, opts)
			if err != nil {
				return fmt.Errorf("triage run failed: %w", err)
			}

			fmt.Println(summary.Message)
			fmt.Printf("Pending store: %s\n", store.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Google account name to use (default: 'default')")
	cmd.Flags().IntVar(&batchSize, "batch-size", triage.DefaultRunBatchSize, "Maximum emails to process in this run")
	cmd.Flags().IntVar(&days, "days", 1, "Look back this many days")
	cmd.Flags().StringVar(&olderThan, "older-than", "", "Only consider emails received before this date (YYYY/MM/DD). Overrides --days.")
	cmd.Flags().StringVar(&pendingFile, "pending-file", "", "Path to the pending triage store (default: <config>/inboxpilot/pending_summaries.json)")
	cmd.Flags().StringVar(&modelName, "model", "", "Anthropic model for classification (default: built-in)")

	return cmd
}
