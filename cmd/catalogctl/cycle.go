package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run a collection cycle",
	Long: `Refresh every approved channel from Telegram.

By default the cycle runs in this process with the collector session. With
--enqueue the cycle is handed to the worker through the task queue.

Examples:
  catalogctl cycle             # Run now and print the result as JSON
  catalogctl cycle --enqueue   # Let the worker run it`,
	Args: cobra.NoArgs,
	RunE: runCycle,
}

func init() {
	rootCmd.AddCommand(cycleCmd)

	cycleCmd.Flags().Bool("enqueue", false, "enqueue the cycle for the worker instead of running it")
}

func runCycle(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	enqueue, _ := cmd.Flags().GetBool("enqueue")
	if enqueue {
		tasks, cleanup, err := openQueue()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := tasks.EnqueueCycle(ctx); err != nil {
			return fmt.Errorf("enqueue cycle: %w", err)
		}
		fmt.Fprintln(out, "Collection cycle enqueued")
		return nil
	}

	runner, cleanup, err := openCollector(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := runner.RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("run cycle: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
