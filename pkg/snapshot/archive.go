package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const nameLayout = "20060102T150405Z"

// ErrNotFound is returned for a snapshot name the archive does not hold.
var ErrNotFound = errors.New("snapshot not found")

// Archive stores snapshots as JSON files in a directory.
type Archive struct {
	rootPath string
}

// NewArchive creates an Archive rooted at dir. The directory is created on
// first Put.
func NewArchive(dir string) *Archive {
	return &Archive{rootPath: dir}
}

// Put writes s and returns its name. Files are written to a temp file and
// renamed so a reader never sees a partial snapshot.
func (a *Archive) Put(ctx context.Context, s Snapshot) (string, error) {
	name := s.TakenAt.UTC().Format(nameLayout) + ".json"

	if err := os.MkdirAll(a.rootPath, 0o700); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", a.rootPath, err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tempFile, err := os.CreateTemp(a.rootPath, "temp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer tempFile.Close()

	if _, err := tempFile.Write(data); err != nil {
		os.Remove(tempFile.Name())
		return "", fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		os.Remove(tempFile.Name())
		return "", fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempFile.Name())
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	fullPath := filepath.Join(a.rootPath, name)
	if err := os.Rename(tempFile.Name(), fullPath); err != nil {
		os.Remove(tempFile.Name())
		return "", fmt.Errorf("failed to rename temp file to %s: %w", fullPath, err)
	}
	return name, nil
}

// Get reads the named snapshot.
func (a *Archive) Get(ctx context.Context, name string) (Snapshot, error) {
	path, err := a.path(name)
	if err != nil {
		return Snapshot{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return Snapshot{}, fmt.Errorf("failed to read snapshot %s: %w", name, err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot %s: %w", name, err)
	}
	return s, nil
}

// List returns snapshot names, oldest first.
func (a *Archive) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(a.rootPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list snapshots in %s: %w", a.rootPath, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the named snapshot.
func (a *Archive) Delete(ctx context.Context, name string) error {
	path, err := a.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("failed to delete snapshot %s: %w", name, err)
	}
	return nil
}

// path rejects names that would escape the archive directory.
func (a *Archive) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid snapshot name %q", name)
	}
	return filepath.Join(a.rootPath, name), nil
}
