package pii

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/hannes/irongate/src/backend/pii/detectors"
)

// Files a model directory must contain
const (
	ModelFileName     = "model_quantized.onnx"
	TokenizerFileName = "tokenizer.json"
	LabelMapFileName  = "label_mappings.json"
)

// ModelLoader builds a detector from validated model files
type ModelLoader func(cfg detectors.ONNXModelConfig) (detectors.Detector, error)

// ONNXLoader is the default ModelLoader
func ONNXLoader(cfg detectors.ONNXModelConfig) (detectors.Detector, error) {
	d, err := detectors.NewONNXModelDetector(cfg)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ModelManager is the NER producer. It wraps the ONNX detector with thread-safe
// hot reload: a new model is loaded and probed before it replaces the old one.
// While no healthy model is loaded, Detect fails with ErrEngineUnavailable and
// the pipeline records it as a producer failure.
type ModelManager struct {
	mu              sync.RWMutex
	currentDetector detectors.Detector
	modelDirectory  string
	libraryPath     string
	loader          ModelLoader
	isHealthy       bool
	lastError       error
}

// NewModelManager creates a model manager and loads the model in directory.
// A failed initial load leaves the manager unhealthy rather than failing.
func NewModelManager(directory, libraryPath string, loader ModelLoader) *ModelManager {
	if loader == nil {
		loader = ONNXLoader
	}
	mm := &ModelManager{
		modelDirectory: directory,
		libraryPath:    libraryPath,
		loader:         loader,
		lastError:      fmt.Errorf("%w: no model loaded", detectors.ErrEngineUnavailable),
	}

	if err := mm.ReloadModel(directory); err != nil {
		log.Printf("[ModelManager] Warning: Failed to load initial model: %v", err)
		log.Printf("[ModelManager] Model manager created but marked as unhealthy")
	}

	return mm
}

// GetName returns the producer name
func (mm *ModelManager) GetName() string {
	return detectors.DetectorNameONNXModel
}

// Detect runs NER on the current model. The read lock is held for the whole
// inference so a reload never closes a detector that is still in use.
func (mm *ModelManager) Detect(ctx context.Context, input detectors.DetectorInput) (detectors.DetectorOutput, error) {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	if !mm.isHealthy || mm.currentDetector == nil {
		return detectors.DetectorOutput{}, fmt.Errorf("%w: model is unhealthy: %v", detectors.ErrEngineUnavailable, mm.lastError)
	}
	return mm.currentDetector.Detect(ctx, input)
}

// ReloadModel reloads the model from the specified directory with validation
func (mm *ModelManager) ReloadModel(newDirectory string) error {
	log.Printf("[ModelManager] Reloading model from directory: %s", newDirectory)

	cfg, err := validateDirectory(newDirectory)
	if err != nil {
		mm.markUnhealthy(err)
		log.Printf("[ModelManager] Directory validation failed: %v", err)
		return fmt.Errorf("%w: validation failed: %v", detectors.ErrEngineUnavailable, err)
	}
	cfg.LibraryPath = mm.libraryPath

	newDetector, err := mm.loader(cfg)
	if err != nil {
		mm.markUnhealthy(err)
		log.Printf("[ModelManager] Failed to load model: %v", err)
		return fmt.Errorf("%w: failed to load model: %v", detectors.ErrEngineUnavailable, err)
	}

	log.Printf("[ModelManager] Running validation inference")
	if _, err := newDetector.Detect(context.Background(), detectors.DetectorInput{Text: "Test with John Smith"}); err != nil {
		if closeErr := newDetector.Close(); closeErr != nil {
			log.Printf("[ModelManager] Warning: failed to close failed detector: %v", closeErr)
		}
		mm.markUnhealthy(err)
		log.Printf("[ModelManager] Model validation inference failed: %v", err)
		return fmt.Errorf("%w: model validation failed: %v", detectors.ErrEngineUnavailable, err)
	}

	mm.mu.Lock()
	oldDetector := mm.currentDetector
	mm.currentDetector = newDetector
	mm.modelDirectory = newDirectory
	mm.isHealthy = true
	mm.lastError = nil
	mm.mu.Unlock()

	if oldDetector != nil {
		if err := oldDetector.Close(); err != nil {
			log.Printf("[ModelManager] Warning: failed to close old detector: %v", err)
		}
	}

	log.Printf("[ModelManager] Model reload complete for directory: %s", newDirectory)
	return nil
}

func (mm *ModelManager) markUnhealthy(err error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	// a previously loaded model keeps serving
	if mm.currentDetector == nil {
		mm.isHealthy = false
	}
	mm.lastError = err
}

// IsHealthy returns whether a model is loaded and serving
func (mm *ModelManager) IsHealthy() bool {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.isHealthy
}

// GetLastError returns the last error encountered (if any)
func (mm *ModelManager) GetLastError() error {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.lastError
}

// GetInfo returns information about the current model state
func (mm *ModelManager) GetInfo() map[string]interface{} {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	info := map[string]interface{}{
		"directory": mm.modelDirectory,
		"healthy":   mm.isHealthy,
		"error":     nil,
	}
	if mm.lastError != nil {
		info["error"] = mm.lastError.Error()
	}
	return info
}

// validateDirectory checks that the directory exists and contains all required files
func validateDirectory(dir string) (detectors.ONNXModelConfig, error) {
	if dir == "" {
		return detectors.ONNXModelConfig{}, fmt.Errorf("no model directory configured")
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return detectors.ONNXModelConfig{}, fmt.Errorf("directory does not exist: %s", dir)
		}
		return detectors.ONNXModelConfig{}, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return detectors.ONNXModelConfig{}, fmt.Errorf("path is not a directory: %s", dir)
	}

	var missingFiles []string
	for _, filename := range []string{ModelFileName, TokenizerFileName, LabelMapFileName} {
		if _, err := os.Stat(filepath.Join(dir, filename)); os.IsNotExist(err) {
			missingFiles = append(missingFiles, filename)
		}
	}
	if len(missingFiles) > 0 {
		return detectors.ONNXModelConfig{}, fmt.Errorf("missing required files in directory: %v", missingFiles)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		absDir = dir
	}

	return detectors.ONNXModelConfig{
		ModelPath:     filepath.Join(absDir, ModelFileName),
		TokenizerPath: filepath.Join(absDir, TokenizerFileName),
		LabelMapPath:  filepath.Join(absDir, LabelMapFileName),
	}, nil
}

// Close closes the current detector and cleans up resources
func (mm *ModelManager) Close() error {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	mm.isHealthy = false
	mm.lastError = fmt.Errorf("%w: model closed", detectors.ErrEngineUnavailable)
	if mm.currentDetector != nil {
		log.Printf("[ModelManager] Closing current detector")
		err := mm.currentDetector.Close()
		mm.currentDetector = nil
		if err != nil {
			return fmt.Errorf("failed to close detector: %w", err)
		}
	}
	return nil
}
