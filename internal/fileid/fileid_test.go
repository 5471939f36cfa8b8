package fileid

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestImageID(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{"deterministic", "/gallery/cat.jpg", "/gallery/cat.jpg", true},
		{"different files", "/gallery/cat.jpg", "/gallery/dog.jpg", false},
		{"same stem other extension", "/gallery/cat.jpg", "/gallery/cat.png", false},
		{"trailing slash", "/gallery/cat", "/gallery/cat/", true},
		{"dot segment", "/gallery/cat.jpg", "/gallery/./cat.jpg", true},
		{"parent segment", "/gallery/cat.jpg", "/gallery/x/../cat.jpg", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := ImageID(tt.a), ImageID(tt.b)
			if (a == b) != tt.same {
				t.Errorf("ImageID(%q)=%q, ImageID(%q)=%q, same=%v", tt.a, a, tt.b, b, tt.same)
			}
			if !strings.HasPrefix(a, prefix) || len(a) != len(prefix)+32 {
				t.Errorf("malformed id %q", a)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	abs, id, err := Resolve("cat.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if abs != filepath.Join(wd, "cat.jpg") {
		t.Errorf("abs = %q", abs)
	}
	if id != ImageID(abs) {
		t.Errorf("id = %q, want %q", id, ImageID(abs))
	}
}
