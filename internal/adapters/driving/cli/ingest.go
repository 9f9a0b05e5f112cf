package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest URL [URL...]",
	Short: "Index the pages behind one or more URLs",
	Long: `Fetches every URL, splits the pages into chunks, embeds them and
replaces the indexed collection with the result.

URLs that cannot be fetched are reported and skipped. The command fails
when nothing could be indexed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return fmt.Errorf("ingest: %w", errNotConfigured)
	}

	report, err := ingestService.Ingest(cmd.Context(), args, func(ev domain.ProgressEvent) {
		printProgress(cmd, ev)
	})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	cmd.Printf("\nIndexed %d chunks from %d documents.\n", report.Chunks, report.Documents)
	return nil
}

func printProgress(cmd *cobra.Command, ev domain.ProgressEvent) {
	switch ev.Kind {
	case domain.ProgressWarning:
		cmd.Printf("warning: %s\n", ev.Message)
	case domain.ProgressError:
		cmd.PrintErrf("error: %s\n", ev.Message)
	default:
		cmd.Println(ev.Message)
	}
}
