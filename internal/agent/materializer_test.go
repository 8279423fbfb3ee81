package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flux/internal/models"
)

func descriptor(files ...models.ProjectFile) *models.ApplicationDescriptor {
	return &models.ApplicationDescriptor{
		FolderName:  "demo-app",
		Description: "demo",
		Files:       files,
	}
}

func TestMaterializeWritesNestedFiles(t *testing.T) {
	root := t.TempDir()
	m := &Materializer{Root: root}

	dir, err := m.Materialize(descriptor(
		models.ProjectFile{Path: "index.html", Content: "<html></html>"},
		models.ProjectFile{Path: "src/app.js", Content: "console.log('hi')"},
		models.ProjectFile{Path: "src/lib/util.js", Content: "export {}"},
	))
	if err != nil {
		t.Fatalf("materialize failed: %v", err)
	}
	if dir != filepath.Join(root, "demo-app") {
		t.Errorf("project dir = %q", dir)
	}

	for path, want := range map[string]string{
		"index.html":      "<html></html>",
		"src/app.js":      "console.log('hi')",
		"src/lib/util.js": "export {}",
	} {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(path)))
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if string(data) != want {
			t.Errorf("%s = %q, want %q", path, data, want)
		}
	}
}

func TestMaterializeOverwritesSilently(t *testing.T) {
	root := t.TempDir()
	m := &Materializer{Root: root}

	if _, err := m.Materialize(descriptor(models.ProjectFile{Path: "a.txt", Content: "old"})); err != nil {
		t.Fatalf("first materialize failed: %v", err)
	}
	dir, err := m.Materialize(descriptor(models.ProjectFile{Path: "a.txt", Content: "new"}))
	if err != nil {
		t.Fatalf("second materialize failed: %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "a.txt"))
	if string(data) != "new" {
		t.Errorf("content = %q, want overwritten", data)
	}
}

func TestMaterializeRejectsUnsafePaths(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"absolute", "/etc/passwd"},
		{"parent escape", "../outside.txt"},
		{"nested escape", "src/../../outside.txt"},
		{"empty", "   "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			m := &Materializer{Root: root}

			_, err := m.Materialize(descriptor(
				models.ProjectFile{Path: "ok.txt", Content: "fine"},
				models.ProjectFile{Path: tc.path, Content: "bad"},
			))
			if err == nil {
				t.Fatal("expected an error")
			}
			// Validation failures must write nothing, including the valid file.
			if _, serr := os.Stat(filepath.Join(root, "demo-app")); !os.IsNotExist(serr) {
				t.Error("project directory created despite validation failure")
			}
		})
	}
}

func TestMaterializeRejectsDuplicatePaths(t *testing.T) {
	m := &Materializer{Root: t.TempDir()}

	_, err := m.Materialize(descriptor(
		models.ProjectFile{Path: "a.txt", Content: "one"},
		models.ProjectFile{Path: "./a.txt", Content: "two"},
	))
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("got %v, want duplicate path error", err)
	}
}

func TestMaterializeRejectsBadFolderName(t *testing.T) {
	for _, folder := range []string{"", "  ", "/abs", "../up"} {
		m := &Materializer{Root: t.TempDir()}
		desc := descriptor(models.ProjectFile{Path: "a.txt", Content: "x"})
		desc.FolderName = folder
		if _, err := m.Materialize(desc); err == nil {
			t.Errorf("folder %q accepted", folder)
		}
	}
}

func TestFileTree(t *testing.T) {
	desc := descriptor(
		models.ProjectFile{Path: "src/app.js", Content: ""},
		models.ProjectFile{Path: "index.html", Content: ""},
		models.ProjectFile{Path: "src/lib/util.js", Content: ""},
	)

	tree := FileTree(desc)
	if !strings.HasPrefix(tree, "demo-app/\n") {
		t.Errorf("tree does not start with the folder: %q", tree)
	}
	for _, want := range []string{"index.html", "src/", "app.js", "lib/", "util.js"} {
		if !strings.Contains(tree, want) {
			t.Errorf("tree missing %q:\n%s", want, tree)
		}
	}
}
