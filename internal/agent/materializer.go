package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"flux/internal/logging"
	"flux/internal/models"
)

// MaterializeError reports a partially materialized project: the files
// already on disk when the failure hit.
type MaterializeError struct {
	Written []string
	Err     error
}

func (e *MaterializeError) Error() string {
	return fmt.Sprintf("project partially written (%d files on disk): %v", len(e.Written), e.Err)
}

func (e *MaterializeError) Unwrap() error {
	return e.Err
}

// Materializer writes a validated application descriptor to disk.
type Materializer struct {
	// Root is the directory the project folder is created under.
	Root string
}

// Materialize writes every file in the descriptor under Root/FolderName and
// returns the project directory. Existing files are overwritten silently;
// re-running agent mode over the same folder is a refresh, not an error.
//
// Paths are validated before anything touches disk: every path must be
// relative, stay inside the project folder, and be unique. A descriptor that
// fails validation writes nothing.
func (m *Materializer) Materialize(desc *models.ApplicationDescriptor) (string, error) {
	folder := strings.TrimSpace(desc.FolderName)
	if folder == "" || filepath.IsAbs(folder) || strings.Contains(folder, "..") {
		return "", fmt.Errorf("invalid project folder name %q", desc.FolderName)
	}

	cleaned := make([]string, len(desc.Files))
	seen := make(map[string]bool, len(desc.Files))
	for i, f := range desc.Files {
		rel, err := safeRelPath(f.Path)
		if err != nil {
			return "", err
		}
		if seen[rel] {
			return "", fmt.Errorf("duplicate file path %q", rel)
		}
		seen[rel] = true
		cleaned[i] = rel
	}

	projectDir := filepath.Join(m.Root, folder)
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create project directory: %w", err)
	}

	var written []string
	for i, f := range desc.Files {
		target := filepath.Join(projectDir, cleaned[i])
		if dir := filepath.Dir(target); dir != projectDir {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return projectDir, &MaterializeError{Written: written, Err: err}
			}
		}
		if err := os.WriteFile(target, []byte(f.Content), 0644); err != nil {
			return projectDir, &MaterializeError{Written: written, Err: err}
		}
		written = append(written, cleaned[i])
	}

	logging.Info("project materialized", "dir", projectDir, "files", len(written))
	return projectDir, nil
}

// safeRelPath normalizes a descriptor path and rejects anything that would
// escape the project folder.
func safeRelPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("empty file path")
	}
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return "", fmt.Errorf("absolute file path %q not allowed", p)
	}
	clean := filepath.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("file path %q escapes the project folder", p)
	}
	return clean, nil
}

// FileTree renders the descriptor's file list as an indented tree for
// display after materialization.
func FileTree(desc *models.ApplicationDescriptor) string {
	paths := make([]string, 0, len(desc.Files))
	for _, f := range desc.Files {
		paths = append(paths, filepath.ToSlash(filepath.Clean(f.Path)))
	}
	sort.Strings(paths)

	var b strings.Builder
	b.WriteString(desc.FolderName + "/\n")
	printed := make(map[string]bool)
	for _, p := range paths {
		parts := strings.Split(p, "/")
		for depth := 0; depth < len(parts)-1; depth++ {
			prefix := strings.Join(parts[:depth+1], "/")
			if printed[prefix] {
				continue
			}
			printed[prefix] = true
			b.WriteString(strings.Repeat("  ", depth+1) + parts[depth] + "/\n")
		}
		b.WriteString(strings.Repeat("  ", len(parts)) + parts[len(parts)-1] + "\n")
	}
	return b.String()
}
