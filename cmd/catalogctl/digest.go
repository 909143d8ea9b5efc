package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/chancat/channel-catalog-go/internal/service/digest"

	"github.com/spf13/cobra"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Generate and send the digest",
	Long: `Build the ranking digest and publish it to every configured notifier.

Examples:
  catalogctl digest            # Generate and publish now
  catalogctl digest --print    # Print the rendered sections only
  catalogctl digest --enqueue  # Let the worker send it`,
	Args: cobra.NoArgs,
	RunE: runDigest,
}

func init() {
	rootCmd.AddCommand(digestCmd)

	digestCmd.Flags().Bool("print", false, "print the digest without publishing it")
	digestCmd.Flags().Bool("enqueue", false, "enqueue the digest for the worker")
}

func runDigest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	printOnly, _ := cmd.Flags().GetBool("print")
	enqueue, _ := cmd.Flags().GetBool("enqueue")
	if printOnly && enqueue {
		return errors.New("--print and --enqueue cannot be combined")
	}

	if enqueue {
		tasks, cleanup, err := openQueue()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := tasks.EnqueueDigest(ctx); err != nil {
			return fmt.Errorf("enqueue digest: %w", err)
		}
		fmt.Fprintln(out, "Digest enqueued")
		return nil
	}

	produce, cleanup, err := openDigest(ctx, !printOnly)
	if err != nil {
		return err
	}
	defer cleanup()

	d, err := produce(ctx)
	if d != nil && printOnly {
		printDigest(out, d)
	}
	if err != nil {
		return err
	}
	if !printOnly {
		fmt.Fprintf(out, "Digest %s published (%d sections)\n", d.ID, len(d.Sections))
	}
	return nil
}

func printDigest(w io.Writer, d *digest.Digest) {
	for i, s := range d.Sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, s.HTML)
	}
}
