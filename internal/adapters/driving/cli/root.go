// Package cli provides the cobra command tree for docrag.
// Commands talk to core services through driving ports; main wires the
// concrete services in through SetServices or SetBootstrap.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// annotationNoServices marks commands that run without the service graph.
const annotationNoServices = "docrag.no-services"

// version is set at build time via ldflags.
var version = "dev"

// Global flags.
var (
	verbose bool
	userID  string
	dataDir string
)

// Services bundles the application services the commands run against.
type Services struct {
	Document        driving.DocumentService
	Index           driving.IndexService
	Query           driving.QueryService
	Health          driving.HealthService
	Scheduler       driving.Scheduler
	SchedulerConfig domain.SchedulerConfig
	QueryTimeout    time.Duration

	// Warnings are reported once before the command runs, e.g. an AI
	// provider that is not configured.
	Warnings []string
}

// Bootstrap builds the service graph. dataDir overrides the configured data
// directory when non-empty. The returned cleanup closes what was opened.
type Bootstrap func(dataDir string) (*Services, func(), error)

var (
	documentService driving.DocumentService
	indexService    driving.IndexService
	queryService    driving.QueryService
	healthService   driving.HealthService
	scheduler       driving.Scheduler
	schedulerConfig domain.SchedulerConfig
	queryTimeout    time.Duration

	configStore driven.ConfigStore
	bootstrap   Bootstrap
	cleanup     func()
)

var rootCmd = &cobra.Command{
	Use:   "docrag",
	Short: "Ask questions about your documents",
	Long: `docrag answers questions from each user's documents.

Documents are added with an extracted summary, embedded into a per-user
similarity index, and queried with retrieval-augmented generation.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "user whose documents are used")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "override the data directory")
}

// Execute runs the root command. Cancelling ctx stops long-running
// commands such as mcp serve, console and ingest --watch.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetConfigStore sets the store used by the config commands.
func SetConfigStore(store driven.ConfigStore) {
	configStore = store
}

// SetBootstrap registers the function that builds services on first use.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs an already-built service graph.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	documentService = s.Document
	indexService = s.Index
	queryService = s.Query
	healthService = s.Health
	scheduler = s.Scheduler
	schedulerConfig = s.SchedulerConfig
	queryTimeout = s.QueryTimeout
	for _, w := range s.Warnings {
		logger.Warn("%s", w)
	}
}

// prepare applies global flags and builds services for commands that need them.
func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if skipsServices(cmd) || bootstrap == nil || queryService != nil {
		return nil
	}

	services, done, err := bootstrap(dataDir)
	if err != nil {
		return err
	}
	SetServices(services)
	cleanup = done
	return nil
}

func skipsServices(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationNoServices] == "true" {
			return true
		}
	}
	return false
}

// requireUser returns the --user flag or an error naming it.
func requireUser() (string, error) {
	u := strings.TrimSpace(userID)
	if u == "" {
		return "", errors.New("--user is required")
	}
	return u, nil
}

func notConfigured(name string) error {
	return fmt.Errorf("%s service not configured", name)
}
