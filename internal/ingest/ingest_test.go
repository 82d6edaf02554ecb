package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skatehive/docschat/internal/knowledge"
	"github.com/skatehive/docschat/internal/log"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "intro.md", "# Intro")
	writeFile(t, dir, "guides/install.mdx", "# Install")
	writeFile(t, dir, "assets/logo.png", "binary")
	writeFile(t, dir, "notes.txt", "not docs")

	files, err := LoadDir(dir, "https://docs.skatehive.app/docs")
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("loaded %d files, want 2: %+v", len(files), files)
	}

	urls := make(map[string]string, len(files))
	for _, f := range files {
		urls[f.URL] = f.Content
	}
	if urls["https://docs.skatehive.app/docs/intro.md"] != "# Intro" {
		t.Errorf("intro.md missing or wrong: %v", urls)
	}
	if urls["https://docs.skatehive.app/docs/guides/install.mdx"] != "# Install" {
		t.Errorf("nested install.mdx missing or wrong: %v", urls)
	}
}

func TestLoadDirMissing(t *testing.T) {
	if _, err := LoadDir(filepath.Join(t.TempDir(), "nope"), "https://x/"); err == nil {
		t.Error("LoadDir() expected error for missing directory")
	}
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) CreateEmbedding(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	return []float32{0.1, 0.2}, f.err
}

type fakeUpserter struct {
	docs []knowledge.Document
	err  error
}

func (f *fakeUpserter) Upsert(_ context.Context, doc knowledge.Document) error {
	if f.err != nil {
		return f.err
	}
	f.docs = append(f.docs, doc)
	return nil
}

func TestIndexDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "small.md", "short page")
	writeFile(t, dir, "large.md", strings.Repeat("x", knowledge.ChunkSize+100))

	embedder := &fakeEmbedder{}
	store := &fakeUpserter{}
	ix, err := NewIndexer(embedder, store, log.NewNop())
	if err != nil {
		t.Fatalf("NewIndexer() error = %v", err)
	}

	stored, err := ix.IndexDir(context.Background(), dir, "https://docs.skatehive.app/docs/")
	if err != nil {
		t.Fatalf("IndexDir() error = %v", err)
	}
	if stored != 3 {
		t.Errorf("stored = %d, want 3 (1 small + 2 large chunks)", stored)
	}
	if embedder.calls != 3 {
		t.Errorf("embedder calls = %d, want 3", embedder.calls)
	}

	byURL := make(map[string]knowledge.Document, len(store.docs))
	for _, d := range store.docs {
		byURL[d.URL] = d
	}
	// Single-chunk file keeps its bare URL.
	if _, ok := byURL["https://docs.skatehive.app/docs/small.md"]; !ok {
		t.Errorf("small.md stored under wrong URL: %v", keys(byURL))
	}
	// Multi-chunk file gets numbered fragments.
	if _, ok := byURL["https://docs.skatehive.app/docs/large.md#1"]; !ok {
		t.Errorf("large.md first chunk missing: %v", keys(byURL))
	}
	if _, ok := byURL["https://docs.skatehive.app/docs/large.md#2"]; !ok {
		t.Errorf("large.md second chunk missing: %v", keys(byURL))
	}
	for _, d := range store.docs {
		if len(d.Embedding) == 0 {
			t.Errorf("document %s stored without embedding", d.URL)
		}
	}
}

func TestIndexDirEmbedError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page.md", "content")

	errBoom := errors.New("quota exceeded")
	ix, err := NewIndexer(&fakeEmbedder{err: errBoom}, &fakeUpserter{}, log.NewNop())
	if err != nil {
		t.Fatalf("NewIndexer() error = %v", err)
	}

	if _, err := ix.IndexDir(context.Background(), dir, "https://x/"); !errors.Is(err, errBoom) {
		t.Errorf("IndexDir() error = %v, want wrapped %v", err, errBoom)
	}
}

func TestIndexDirSkipsEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.md", "")

	store := &fakeUpserter{}
	ix, err := NewIndexer(&fakeEmbedder{}, store, log.NewNop())
	if err != nil {
		t.Fatalf("NewIndexer() error = %v", err)
	}

	stored, err := ix.IndexDir(context.Background(), dir, "https://x/")
	if err != nil {
		t.Fatalf("IndexDir() error = %v", err)
	}
	if stored != 0 || len(store.docs) != 0 {
		t.Errorf("stored = %d docs = %d, want 0 for empty file", stored, len(store.docs))
	}
}

func keys(m map[string]knowledge.Document) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
