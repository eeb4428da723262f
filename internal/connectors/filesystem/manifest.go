package filesystem

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// ManifestEntry is one document in a YAML manifest.
type ManifestEntry struct {
	UserID     string `yaml:"user_id"`
	FileName   string `yaml:"file_name"`
	Summary    string `yaml:"summary"`
	SourcePath string `yaml:"source_path"`
}

// LoadManifest reads a YAML list of documents.
func LoadManifest(path string) ([]ManifestEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var entries []ManifestEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: parse manifest %s: %w", domain.ErrInvalidInput, path, err)
	}
	return entries, nil
}

// ImportManifest adds every entry through docs. Entries without a user id
// take defaultUser. Every entry is validated before anything is written.
func ImportManifest(
	ctx context.Context,
	docs driving.DocumentService,
	entries []ManifestEntry,
	defaultUser string,
) ([]domain.Document, error) {
	inputs := make([]driving.NewDocument, 0, len(entries))
	for i, e := range entries {
		user := e.UserID
		if user == "" {
			user = defaultUser
		}
		if user == "" {
			return nil, fmt.Errorf("%w: entry %d has no user_id", domain.ErrInvalidInput, i+1)
		}
		if strings.TrimSpace(e.Summary) == "" {
			return nil, fmt.Errorf("%w: entry %d has an empty summary", domain.ErrInvalidInput, i+1)
		}
		inputs = append(inputs, driving.NewDocument{
			UserID:     user,
			FileName:   e.FileName,
			Summary:    e.Summary,
			SourcePath: e.SourcePath,
		})
	}

	added := make([]domain.Document, 0, len(inputs))
	for i, input := range inputs {
		doc, err := docs.Add(ctx, input)
		if err != nil {
			return added, fmt.Errorf("entry %d: %w", i+1, err)
		}
		added = append(added, *doc)
	}
	return added, nil
}
