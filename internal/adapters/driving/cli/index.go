package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

var (
	indexForce bool
	indexAll   bool
	indexJSON  bool
	indexRuns  int
)

// scheduleTimeLayout formats schedule times in local time.
const scheduleTimeLayout = "2006-01-02 15:04:05"

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage similarity indexes",
	Long:  `Rebuild a user's similarity index or inspect its state.`,
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Embed new documents and rebuild the index",
	Long: `Embeds the user's documents that have no embedding yet, then rebuilds
the user's index from every stored embedding.

Use --force to rebuild from existing embeddings without calling the
embedding provider, or --all to rebuild every user that owns documents.`,
	Args: cobra.NoArgs,
	RunE: runIndexRebuild,
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the user's indexing state",
	Args:  cobra.NoArgs,
	RunE:  runIndexStatus,
}

var indexScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show the periodic rebuild schedule and recent runs",
	Long: `Shows when every user's index is next rebuilt and how recent passes went.
Periodic rebuilds run while 'docrag mcp serve' or 'docrag console' is
running, every rebuild.interval.`,
	Args: cobra.NoArgs,
	RunE: runIndexSchedule,
}

func init() {
	indexRebuildCmd.Flags().BoolVarP(&indexForce, "force", "f", false, "rebuild without embedding new documents")
	indexRebuildCmd.Flags().BoolVar(&indexAll, "all", false, "rebuild every user with documents")
	indexRebuildCmd.Flags().BoolVar(&indexJSON, "json", false, "output as JSON")
	indexStatusCmd.Flags().BoolVar(&indexJSON, "json", false, "output as JSON")
	indexScheduleCmd.Flags().IntVarP(&indexRuns, "runs", "n", 5, "number of recent runs to show")

	indexCmd.AddCommand(indexRebuildCmd)
	indexCmd.AddCommand(indexStatusCmd)
	indexCmd.AddCommand(indexScheduleCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexRebuild(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return notConfigured("index")
	}
	ctx := cmd.Context()

	if indexAll {
		rebuilt, err := indexService.RebuildAll(ctx)
		if err != nil {
			return fmt.Errorf("rebuild all failed: %w", err)
		}
		cmd.Printf("Rebuilt indexes for %d users.\n", rebuilt)
		return nil
	}

	user, err := requireUser()
	if err != nil {
		return err
	}

	rebuild := indexService.Rebuild
	if indexForce {
		rebuild = indexService.ForceRebuild
	}
	stats, err := rebuild(ctx, user)
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	if indexJSON {
		return printJSON(cmd, stats)
	}
	printRebuildStats(cmd, stats)
	return nil
}

func printRebuildStats(cmd *cobra.Command, stats *domain.RebuildStats) {
	cmd.Printf("Index rebuilt for %s\n\n", stats.UserID)
	cmd.Printf("  Indexed:      %d of %d documents\n", stats.TotalIndexed, stats.TotalDocuments)
	cmd.Printf("  Embedded:     %d\n", stats.DocumentsEmbedded)
	if stats.EmbedFailures > 0 {
		cmd.Printf("  Failed:       %d\n", stats.EmbedFailures)
	}
	if stats.SkippedNoSummary > 0 {
		cmd.Printf("  No summary:   %d\n", stats.SkippedNoSummary)
	}
	if stats.SkippedMalformed > 0 {
		cmd.Printf("  Malformed:    %d\n", stats.SkippedMalformed)
	}
	cmd.Printf("  Dimensions:   %d\n", stats.Dimensions)
	cmd.Printf("  Duration:     %s\n", stats.Duration.Round(time.Millisecond))
}

func runIndexStatus(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return notConfigured("index")
	}
	user, err := requireUser()
	if err != nil {
		return err
	}

	status, err := indexService.Status(cmd.Context(), user)
	if err != nil {
		return fmt.Errorf("failed to get index status: %w", err)
	}

	if indexJSON {
		return printJSON(cmd, status)
	}

	cmd.Printf("Index status for %s\n\n", status.UserID)
	cmd.Printf("  Has index:     %t\n", status.HasIndex)
	cmd.Printf("  Documents:     %d\n", status.TotalDocuments)
	cmd.Printf("  Embedded:      %d\n", status.EmbeddedDocuments)
	cmd.Printf("  Indexed:       %d\n", status.IndexedDocuments)
	cmd.Printf("  Last indexed:  %s\n", status.LastIndexedDisplay())
	return nil
}

func runIndexSchedule(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return notConfigured("scheduler")
	}

	schedule, runs, err := scheduler.Schedule(cmd.Context(), indexRuns)
	if err != nil {
		return fmt.Errorf("failed to read schedule: %w", err)
	}

	if schedulerConfig.Enabled() {
		cmd.Printf("Periodic rebuild: every %s\n", schedulerConfig.Interval)
	} else {
		cmd.Println("Periodic rebuild: disabled (set rebuild.interval to enable)")
	}

	if schedule == nil {
		cmd.Println("\nNo periodic rebuild has been scheduled yet.")
		return nil
	}

	cmd.Println()
	cmd.Printf("  Next run:      %s\n", formatScheduleTime(schedule.NextRun))
	cmd.Printf("  Last run:      %s\n", formatScheduleTime(schedule.LastRun))
	cmd.Printf("  Last success:  %s\n", formatScheduleTime(schedule.LastSuccess))
	if schedule.LastError != "" {
		cmd.Printf("  Last error:    %s\n", schedule.LastError)
	}

	if len(runs) == 0 {
		return nil
	}
	cmd.Println("\nRecent runs:")
	for _, run := range runs {
		line := fmt.Sprintf("  %s  %d users  %s", formatScheduleTime(run.StartedAt),
			run.UsersRebuilt, run.Duration().Round(time.Millisecond))
		if !run.Succeeded() {
			line += "  failed: " + run.Error
		}
		cmd.Println(line)
	}
	return nil
}

func formatScheduleTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(scheduleTimeLayout)
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
