package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsageBytes(t *testing.T) {
	root := t.TempDir()
	db := filepath.Join(root, "catalog.db")
	features := filepath.Join(root, "feature")
	nested := filepath.Join(features, "batch")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]int{
		db:                               10,
		filepath.Join(features, "a.npy"): 128,
		filepath.Join(nested, "b.npy"):   64,
	}
	for p, n := range files {
		if err := os.WriteFile(p, make([]byte, n), 0644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"single file", []string{db}, 10},
		{"directory is recursive", []string{features}, 192},
		{"file and directory", []string{db, features}, 202},
		{"missing path skipped", []string{db, filepath.Join(root, "absent")}, 10},
		{"empty path skipped", []string{"", db}, 10},
		{"nothing", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiskUsageBytes(tt.paths...)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("DiskUsageBytes(%v) = %d, want %d", tt.paths, got, tt.want)
			}
		})
	}
}
