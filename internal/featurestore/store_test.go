package featurestore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kagami/internal/errortypes"
	"github.com/hyperjump/kagami/internal/models"
)

func writeNpy(t *testing.T, path string, val any) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, npyio.Write(&buf, val))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestWriteReadEmbedding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "a.npy")
	emb := models.Embedding{0.6, 0.8, 0}
	require.NoError(t, WriteEmbedding(path, emb))

	got, err := ReadEmbedding(path)
	require.NoError(t, err)
	assert.Equal(t, emb, got)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestReadEmbedding_Float64(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f8.npy")
	writeNpy(t, path, []float64{0.25, 0.5})
	got, err := ReadEmbedding(path)
	require.NoError(t, err)
	assert.Equal(t, models.Embedding{0.25, 0.5}, got)
}

func TestReadEmbedding_Invalid(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.npy")
	require.NoError(t, os.WriteFile(garbage, []byte("not numpy"), 0o644))
	_, err := ReadEmbedding(garbage)
	assert.ErrorIs(t, err, errortypes.ErrInvalidFeatureFile)

	ints := filepath.Join(dir, "ints.npy")
	writeNpy(t, ints, []int32{1, 2, 3})
	_, err = ReadEmbedding(ints)
	assert.ErrorIs(t, err, errortypes.ErrInvalidFeatureFile)

	_, err = ReadEmbedding(filepath.Join(dir, "missing.npy"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, errortypes.ErrInvalidFeatureFile)
}

func TestStore_LoadSortedWithImagePaths(t *testing.T) {
	featDir := t.TempDir()
	imgDir := t.TempDir()
	s := New(featDir, imgDir, WithConcurrency(2))

	for _, stem := range []string{"c", "a", "b"} {
		_, err := s.Save(stem, models.Embedding{1, 0})
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(imgDir, "b.png"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(featDir, "notes.txt"), []byte("x"), 0o644))

	entries, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].ID)
	assert.Equal(t, "b", entries[1].ID)
	assert.Equal(t, "c", entries[2].ID)
	assert.Equal(t, filepath.Join(imgDir, "a.jpg"), entries[0].ImagePath)
	assert.Equal(t, filepath.Join(imgDir, "b.png"), entries[1].ImagePath)
}

func TestStore_LoadMissingDirIsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent"), t.TempDir())
	entries, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_LoadFailsOnBadFile(t *testing.T) {
	featDir := t.TempDir()
	s := New(featDir, t.TempDir())
	_, err := s.Save("good", models.Embedding{1})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(featDir, "bad.npy"), []byte("junk"), 0o644))

	_, err = s.Load(context.Background())
	assert.ErrorIs(t, err, errortypes.ErrInvalidFeatureFile)
}

func TestStore_Paths(t *testing.T) {
	s := New("/feat", "/img", WithImageExtensions([]string{"PNG", ".webp", " "}))
	assert.Equal(t, []string{".png", ".webp"}, s.ImageExtensions())
	assert.Equal(t, filepath.Join("/feat", "cat.npy"), s.FeaturePath("cat"))
	assert.Equal(t, filepath.Join("/img", "cat.png"), s.ImagePath("cat"))
	assert.True(t, s.IsImage("/x/y.WEBP"))
	assert.False(t, s.IsImage("/x/y.jpg"))
	assert.Equal(t, "cat.v2", Stem("/a/b/cat.v2.jpg"))
}

func TestStore_LoadPrefersLocatedImagePath(t *testing.T) {
	featDir := t.TempDir()
	imgDir := t.TempDir()
	nested := filepath.Join(imgDir, "cats", "tabby.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(nested), 0o755))
	require.NoError(t, os.WriteFile(nested, []byte("x"), 0o644))

	recorded := map[string]string{
		"tabby": nested,
		"gone":  filepath.Join(imgDir, "old", "gone.png"),
	}
	locate := func(_ context.Context, stem string) (string, error) {
		return recorded[stem], nil
	}
	s := New(featDir, imgDir, WithImageExtensions([]string{".png"}), WithImageLocator(locate))
	for _, stem := range []string{"tabby", "gone", "plain"} {
		_, err := s.Save(stem, models.Embedding{1, 0})
		require.NoError(t, err)
	}

	entries, err := s.Load(context.Background())
	require.NoError(t, err)
	paths := map[string]string{}
	for _, e := range entries {
		paths[e.ID] = e.ImagePath
	}
	assert.Equal(t, nested, paths["tabby"])
	assert.Equal(t, filepath.Join(imgDir, "gone.png"), paths["gone"], "missing recorded file falls back to stem")
	assert.Equal(t, filepath.Join(imgDir, "plain.png"), paths["plain"])
}

func TestStore_LoadLocatorError(t *testing.T) {
	featDir := t.TempDir()
	boom := errors.New("catalog closed")
	s := New(featDir, t.TempDir(), WithImageLocator(func(context.Context, string) (string, error) {
		return "", boom
	}))
	_, err := s.Save("a", models.Embedding{1})
	require.NoError(t, err)

	_, err = s.Load(context.Background())
	assert.ErrorIs(t, err, boom)
}
