package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createTestZip(t *testing.T, entries map[string]string) string {
	t.Helper()

	zipPath := filepath.Join(t.TempDir(), "test.zip")
	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer zipFile.Close()

	w := zip.NewWriter(zipFile)
	defer w.Close()

	for name, content := range entries {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create entry %s: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write entry %s: %v", name, err)
		}
	}
	return zipPath
}

func TestWalk(t *testing.T) {
	zipPath := createTestZip(t, map[string]string{
		"text/ch1.html":  "<p>one</p>",
		"text/ch2.html":  "<p>two</p>",
		"images/pic.png": "binary",
		"style.css":      "p {}",
	})

	isHTML := func(name string) bool { return strings.HasSuffix(name, ".html") }

	t.Run("match filters entries", func(t *testing.T) {
		var visited []string
		err := Walk(zipPath, isHTML, func(archive string, file *zip.File) error {
			if archive != zipPath {
				t.Errorf("archive = %s, want %s", archive, zipPath)
			}
			visited = append(visited, file.Name)
			return nil
		})
		if err != nil {
			t.Errorf("Walk() error = %v", err)
		}
		if len(visited) != 2 {
			t.Errorf("visited %v, want 2 HTML entries", visited)
		}
	})

	t.Run("nil match visits everything", func(t *testing.T) {
		var visited int
		if err := Walk(zipPath, nil, func(string, *zip.File) error {
			visited++
			return nil
		}); err != nil {
			t.Errorf("Walk() error = %v", err)
		}
		if visited != 4 {
			t.Errorf("visited %d entries, want 4", visited)
		}
	})

	t.Run("walkFn error stops the walk", func(t *testing.T) {
		stopErr := errors.New("stop walking")
		var visited int
		err := Walk(zipPath, nil, func(string, *zip.File) error {
			visited++
			if visited == 2 {
				return stopErr
			}
			return nil
		})
		if !errors.Is(err, stopErr) {
			t.Errorf("Walk() error = %v, want %v", err, stopErr)
		}
		if visited != 2 {
			t.Errorf("visited %d entries, want 2 (early termination)", visited)
		}
	})
}

func TestWalkSkipsDirectories(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "test.zip")
	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}

	w := zip.NewWriter(zipFile)
	dirHeader := &zip.FileHeader{Name: "mydir/"}
	dirHeader.SetMode(os.ModeDir | 0755)
	if _, err := w.CreateHeader(dirHeader); err != nil {
		t.Fatalf("Failed to create directory entry: %v", err)
	}
	fw, err := w.Create("mydir/file.txt")
	if err != nil {
		t.Fatalf("Failed to create file entry: %v", err)
	}
	fw.Write([]byte("content"))
	w.Close()
	zipFile.Close()

	var visited []string
	if err := Walk(zipPath, nil, func(_ string, file *zip.File) error {
		visited = append(visited, file.Name)
		return nil
	}); err != nil {
		t.Errorf("Walk() error = %v", err)
	}
	if len(visited) != 1 || visited[0] != "mydir/file.txt" {
		t.Errorf("visited %v, want only mydir/file.txt", visited)
	}
}

func TestWalkInvalidArchive(t *testing.T) {
	t.Run("nonexistent file", func(t *testing.T) {
		if err := Walk("/nonexistent/file.zip", nil, func(string, *zip.File) error { return nil }); err == nil {
			t.Error("Expected error for nonexistent file")
		}
	})

	t.Run("not a zip file", func(t *testing.T) {
		invalidZip := filepath.Join(t.TempDir(), "invalid.zip")
		if err := os.WriteFile(invalidZip, []byte("not a zip file"), 0644); err != nil {
			t.Fatalf("Failed to create invalid zip: %v", err)
		}
		if err := Walk(invalidZip, nil, func(string, *zip.File) error { return nil }); err == nil {
			t.Error("Expected error for invalid zip file")
		}
	})
}

func TestReadEntry(t *testing.T) {
	zipPath := createTestZip(t, map[string]string{"doc.html": "<p>payload</p>"})

	err := Walk(zipPath, nil, func(_ string, file *zip.File) error {
		data, err := ReadEntry(file)
		if err != nil {
			return err
		}
		if string(data) != "<p>payload</p>" {
			t.Errorf("content = %q, want %q", data, "<p>payload</p>")
		}
		return nil
	})
	if err != nil {
		t.Errorf("Walk() error = %v", err)
	}
}
