package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

var queryJSON bool

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question about the user's documents",
	Long: `Retrieves the user's most relevant documents and asks the language model
to answer from their summaries. The cited documents are listed with
their similarity scores.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the response as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return notConfigured("query")
	}
	user, err := requireUser()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, queryTimeout)
		defer cancel()
	}

	resp, err := queryService.ProcessQuery(ctx, user, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return printJSON(cmd, resp)
	}
	printQueryResponse(cmd, resp)
	return nil
}

func printQueryResponse(cmd *cobra.Command, resp *domain.QueryResponse) {
	cmd.Println(resp.Answer)

	if len(resp.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, src := range resp.Sources {
			cmd.Printf("  [%d] %s (%.1f)\n", i+1, src.Filename, src.SimilarityScore)
		}
	}

	cmd.Printf("\n(%.2fs)\n", resp.ProcessingTime)
}
