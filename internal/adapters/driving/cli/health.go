package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

var healthJSON bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the store, index and AI providers",
	Long: `Probes every collaborator and reports each one as healthy, not_configured,
or with the error it returned. The overall status is degraded when any
configured service fails.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	if healthService == nil {
		return notConfigured("health")
	}

	status := healthService.Check(cmd.Context())
	if healthJSON {
		return printJSON(cmd, status)
	}

	cmd.Printf("Status: %s\n\n", status.Status)
	names := make([]string, 0, len(status.Services))
	for name := range status.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd.Printf("  %-12s %s\n", name, status.Services[name])
	}

	if status.Status != domain.HealthHealthy {
		cmd.Println()
		cmd.Println("Run 'docrag config list' to review provider settings.")
	}
	return nil
}
