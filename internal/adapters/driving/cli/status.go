package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the indexed collection",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return fmt.Errorf("status: %w", errNotConfigured)
	}

	ctx := cmd.Context()
	if err := attach(ctx); err != nil {
		return err
	}

	status, err := ingestService.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to read index status: %w", err)
	}

	if statusJSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	ready := "no"
	if status.Ready {
		ready = "yes"
	}
	cmd.Println("Index Status")
	cmd.Println("============")
	cmd.Printf("  Backend:    %s\n", status.Backend)
	cmd.Printf("  Collection: %s\n", status.Collection)
	cmd.Printf("  Ready:      %s\n", ready)
	cmd.Printf("  Entries:    %d\n", status.Entries)
	if status.EmbeddingModel != "" {
		cmd.Printf("  Embedding:  %s\n", status.EmbeddingModel)
	}
	return nil
}
