package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

var (
	docFileName    string
	docSummary     string
	docSummaryFile string
	docSourcePath  string
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"document", "docs"},
	Short:   "Manage the user's documents",
	Long:    `Add, list, view, or delete the user's document records.`,
}

var documentsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a document with its extracted summary",
	Long: `Stores a document record. The summary is the extracted text that gets
embedded on the next index rebuild. Pass it with --summary or read it
from a file with --summary-file.`,
	Args: cobra.NoArgs,
	RunE: runDocumentsAdd,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the user's documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsGet,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document",
	Long: `Deletes one of the user's documents. The index is not touched; the
document drops out of answers immediately and out of the index on the
next rebuild.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentsDelete,
}

func init() {
	documentsAddCmd.Flags().StringVar(&docFileName, "file-name", "", "original file name")
	documentsAddCmd.Flags().StringVar(&docSummary, "summary", "", "extracted summary text")
	documentsAddCmd.Flags().StringVar(&docSummaryFile, "summary-file", "", "read the summary from a file")
	documentsAddCmd.Flags().StringVar(&docSourcePath, "source-path", "", "location of the stored original file")

	documentsCmd.AddCommand(documentsAddCmd)
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsGetCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsAdd(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return notConfigured("document")
	}
	user, err := requireUser()
	if err != nil {
		return err
	}

	summary := docSummary
	if docSummaryFile != "" {
		if summary != "" {
			return errors.New("use either --summary or --summary-file")
		}
		data, err := os.ReadFile(docSummaryFile)
		if err != nil {
			return fmt.Errorf("failed to read summary: %w", err)
		}
		summary = string(data)
	}

	doc, err := documentService.Add(cmd.Context(), driving.NewDocument{
		UserID:     user,
		FileName:   docFileName,
		Summary:    summary,
		SourcePath: docSourcePath,
	})
	if err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}

	cmd.Printf("Document added: %s\n", doc.ID)
	cmd.Println("Run 'docrag index rebuild' to include it in answers.")
	return nil
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return notConfigured("document")
	}
	user, err := requireUser()
	if err != nil {
		return err
	}

	docs, err := documentService.List(cmd.Context(), user)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Printf("No documents found for user: %s\n", user)
		return nil
	}

	cmd.Printf("Documents for %s:\n\n", user)
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    File:     %s\n", docs[i].DisplayName())
		cmd.Printf("    Embedded: %t\n", docs[i].HasEmbedding())
		if !docs[i].IndexedAt.IsZero() {
			cmd.Printf("    Indexed:  %s\n", docs[i].IndexedAt.Format("2006-01-02 15:04:05"))
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentsGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return notConfigured("document")
	}
	user, err := requireUser()
	if err != nil {
		return err
	}

	doc, err := documentService.Get(cmd.Context(), user, args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  File:      %s\n", doc.DisplayName())
	if doc.SourcePath != "" {
		cmd.Printf("  Source:    %s\n", doc.SourcePath)
	}
	cmd.Printf("  Created:   %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Embedded:  %t\n", doc.HasEmbedding())
	if doc.IndexedAt.IsZero() {
		cmd.Println("  Indexed:   never")
	} else {
		cmd.Printf("  Indexed:   %s\n", doc.IndexedAt.Format("2006-01-02 15:04:05"))
	}
	cmd.Printf("\n%s\n", doc.Summary)
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return notConfigured("document")
	}
	user, err := requireUser()
	if err != nil {
		return err
	}

	if err := documentService.Delete(cmd.Context(), user, args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}
