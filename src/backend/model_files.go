package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/hannes/irongate/src/backend/config"
	"github.com/hannes/irongate/src/backend/pii"
)

// resolveModelDirectory points cfg at the embedded model when the configured
// directory has no model. The embedded files are extracted once into the XDG
// data directory.
func resolveModelDirectory(cfg *config.Config, modelFS fs.FS, root string) {
	if !cfg.ProducerEnabled("onnx_ner") {
		return
	}
	if _, err := os.Stat(filepath.Join(cfg.ModelDirectory, pii.ModelFileName)); err == nil {
		return
	}

	sub, err := fs.Sub(modelFS, root)
	if err != nil {
		return
	}
	if _, err := fs.Stat(sub, pii.ModelFileName); err != nil {
		// no embedded model in this build
		return
	}

	target := filepath.Join(config.XDGDataDir(), "model")
	log.Println("Extracting embedded model files...")
	if err := extractModelFiles(sub, target); err != nil {
		log.Printf("Warning: Failed to extract model files: %v", err)
		return
	}
	cfg.ModelDirectory = target
}

// extractModelFiles copies the top-level files of modelFS into dir
func extractModelFiles(modelFS fs.FS, dir string) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	entries, err := fs.ReadDir(modelFS, ".")
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return errors.New("no model files to extract")
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		content, err := fs.ReadFile(modelFS, entry.Name())
		if err != nil {
			return err
		}

		targetPath := filepath.Join(dir, entry.Name())
		if err := os.WriteFile(targetPath, content, 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", targetPath, err)
		}
		log.Printf("Extracted: %s (size: %d bytes)", targetPath, len(content))
	}
	return nil
}
