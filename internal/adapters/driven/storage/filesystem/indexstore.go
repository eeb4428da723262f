// Package filesystem stores index artifacts as files under <root>/<user>/<blob>.
// The user segment is the lowercase base32 form of the user id, so ids that
// differ only in case never share a directory on case-insensitive volumes.
//
// Writes go to a temporary file in the user's directory and are renamed into
// place, so a reader sees either the previous artifact or the new one.
package filesystem

import (
	"context"
	"encoding/base32"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

const (
	dirPerm  = 0o700
	filePerm = 0o600

	// maxSegment is the usual NAME_MAX.
	maxSegment = 255
)

var userEncoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// IndexStore persists index blobs on the local filesystem.
type IndexStore struct {
	root string
}

// NewIndexStore creates a store rooted at dir, creating it if needed.
func NewIndexStore(dir string) (*IndexStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: index directory is required", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}
	return &IndexStore{root: dir}, nil
}

// Root returns the directory holding all user namespaces.
func (s *IndexStore) Root() string {
	return s.root
}

// Put writes data to userID/name via a temporary file and rename.
func (s *IndexStore) Put(ctx context.Context, userID, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.blobPath(userID, name)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create user directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // no-op after a successful rename
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(tmpPath, filePerm); err != nil {
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// Get reads userID/name.
func (s *IndexStore) Get(ctx context.Context, userID, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.blobPath(userID, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Has reports whether userID/name exists as a regular file.
func (s *IndexStore) Has(ctx context.Context, userID, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := s.blobPath(userID, name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", name, err)
	}
	return info.Mode().IsRegular(), nil
}

// DeleteAll removes the user's directory. A missing directory is not an error.
func (s *IndexStore) DeleteAll(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := s.userDir(userID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete index directory: %w", err)
	}
	return nil
}

// userDir maps a user id to a single path segment under root.
func (s *IndexStore) userDir(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if userID == "." || userID == ".." {
		return "", fmt.Errorf("%w: invalid user id %q", domain.ErrInvalidInput, userID)
	}
	segment := userSegment(userID)
	if len(segment) > maxSegment {
		return "", fmt.Errorf("%w: user id is too long", domain.ErrInvalidInput)
	}
	return filepath.Join(s.root, segment), nil
}

func userSegment(userID string) string {
	return userEncoding.EncodeToString([]byte(userID))
}

func (s *IndexStore) blobPath(userID, name string) (string, error) {
	dir, err := s.userDir(userID)
	if err != nil {
		return "", err
	}
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: invalid blob name %q", domain.ErrInvalidInput, name)
	}
	return filepath.Join(dir, name), nil
}
