package main

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/hannes/irongate/src/backend/config"
	"github.com/hannes/irongate/src/backend/pii"
)

func TestExtractModelFiles(t *testing.T) {
	t.Parallel()

	modelFS := fstest.MapFS{
		pii.ModelFileName:     {Data: []byte("onnx")},
		pii.TokenizerFileName: {Data: []byte("{}")},
		"nested/ignored.txt":  {Data: []byte("x")},
	}
	dir := filepath.Join(t.TempDir(), "model")

	if err := extractModelFiles(modelFS, dir); err != nil {
		t.Fatalf("extractModelFiles failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, pii.ModelFileName))
	if err != nil {
		t.Fatalf("model file not extracted: %v", err)
	}
	if string(got) != "onnx" {
		t.Errorf("model content = %q, want %q", got, "onnx")
	}
	if _, err := os.Stat(filepath.Join(dir, "nested")); !os.IsNotExist(err) {
		t.Error("nested directories should not be extracted")
	}
}

func TestExtractModelFiles_Empty(t *testing.T) {
	t.Parallel()

	if err := extractModelFiles(fstest.MapFS{}, t.TempDir()); err == nil {
		t.Error("expected error for empty model FS")
	}
}

func TestResolveModelDirectory_KeepsConfiguredModel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, pii.ModelFileName), []byte("onnx"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.ModelDirectory = dir
	embedded := fstest.MapFS{"model/" + pii.ModelFileName: {Data: []byte("embedded")}}

	resolveModelDirectory(cfg, embedded, "model")

	if cfg.ModelDirectory != dir {
		t.Errorf("ModelDirectory = %q, want %q", cfg.ModelDirectory, dir)
	}
}

func TestResolveModelDirectory_NoEmbeddedModel(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.ModelDirectory = filepath.Join(t.TempDir(), "missing")
	want := cfg.ModelDirectory

	resolveModelDirectory(cfg, fstest.MapFS{}, "model")

	if cfg.ModelDirectory != want {
		t.Errorf("ModelDirectory = %q, want %q", cfg.ModelDirectory, want)
	}
}
