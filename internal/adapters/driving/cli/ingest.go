package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/connectors/filesystem"
	"github.com/custodia-labs/docrag/internal/logger"
)

var (
	ingestManifest string
	ingestWatch    bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Import documents from a directory or manifest",
	Long: `Imports text files as documents. Each .txt, .md or .markdown file under
dir becomes a document whose summary is the file content; files removed
from dir are removed from the user's documents.

Use --manifest to import a YAML list of documents instead:

  - user_id: alice
    file_name: report.pdf
    summary: Revenue grew 12% in Q3.
    source_path: uploads/report.pdf

Entries without user_id are assigned to --user.

Use --watch to keep re-importing created, modified, or removed files
until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestManifest, "manifest", "m", "", "YAML manifest of documents to import")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "watch the directory for changes")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return notConfigured("document")
	}

	if ingestManifest != "" {
		if len(args) > 0 || ingestWatch {
			return errors.New("--manifest cannot be combined with a directory or --watch")
		}
		return runIngestManifest(cmd)
	}

	if len(args) == 0 {
		return errors.New("a directory or --manifest is required")
	}
	user, err := requireUser()
	if err != nil {
		return err
	}

	conn := filesystem.New(documentService, user, args[0])
	result, err := conn.Sync(cmd.Context())
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	cmd.Printf("Imported %s: %d added, %d updated, %d unchanged, %d removed, %d skipped\n",
		args[0], result.Added, result.Updated, result.Unchanged, result.Removed, result.Skipped)

	if !ingestWatch {
		if result.Added+result.Updated > 0 {
			cmd.Println("Run 'docrag index rebuild' to include new documents in answers.")
		}
		return nil
	}
	return watchDirectory(cmd, conn)
}

func runIngestManifest(cmd *cobra.Command) error {
	entries, err := filesystem.LoadManifest(ingestManifest)
	if err != nil {
		return err
	}

	docs, err := filesystem.ImportManifest(cmd.Context(), documentService, entries, userID)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Imported %d documents from %s\n", len(docs), ingestManifest)
	return nil
}

func watchDirectory(cmd *cobra.Command, conn *filesystem.Connector) error {
	changes, err := conn.Watch(cmd.Context())
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	cmd.Println("Watching for changes. Press Ctrl+C to stop.")
	for change := range changes {
		if change.Err != nil {
			logger.Error("%s %s: %v", change.Type, change.Path, change.Err)
			continue
		}
		cmd.Printf("%s %s\n", change.Type, change.Path)
	}
	return nil
}
