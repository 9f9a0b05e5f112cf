package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	askK    int
	askJSON bool
)

// depthAsker is implemented by answer services that accept a retrieval depth.
type depthAsker interface {
	AskK(ctx context.Context, question string, k int) (*domain.AnswerRecord, error)
}

var askCmd = &cobra.Command{
	Use:   "ask QUESTION",
	Short: "Answer a question from the indexed pages",
	Long: `Retrieves the chunks most similar to the question and asks the
language model to answer from them. The answer is followed by the pages
it was drawn from.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askK, "top-k", "k", 0, "number of chunks to retrieve (0 = configured default)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

type askOutput struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []string `json:"sources"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return fmt.Errorf("ask: %w", errNotConfigured)
	}
	if askK < 0 {
		return fmt.Errorf("k must not be negative: %w", domain.ErrInvalidInput)
	}
	if err := requireLLM(); err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := attach(ctx); err != nil {
		return err
	}

	var (
		record *domain.AnswerRecord
		err    error
	)
	if da, ok := answerService.(depthAsker); ok && askK > 0 {
		record, err = da.AskK(ctx, args[0], askK)
	} else {
		record, err = answerService.Ask(ctx, args[0])
	}
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, record)
	}
	outputAnswer(cmd, record)
	return nil
}

func outputAnswerJSON(cmd *cobra.Command, record *domain.AnswerRecord) error {
	sources := record.Sources
	if sources == nil {
		sources = []string{}
	}
	data, err := json.MarshalIndent(askOutput{
		Question: record.Question,
		Answer:   record.Answer,
		Sources:  sources,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswer(cmd *cobra.Command, record *domain.AnswerRecord) {
	cmd.Println("Answer:")
	cmd.Println(record.Answer)
	cmd.Println()
	cmd.Println("Sources:")
	if len(record.Sources) == 0 {
		cmd.Println("  (none)")
		return
	}
	for _, s := range record.Sources {
		cmd.Printf("  %s\n", s)
	}
}
