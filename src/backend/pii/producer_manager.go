package pii

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/hannes/irongate/src/backend/pii/detectors"
)

// ProducerSpec names a producer and how to build it
type ProducerSpec struct {
	Name string
	New  func() (detectors.Detector, error)
}

// ProducerStatus reports whether a configured producer is serving requests
type ProducerStatus struct {
	Name      string                 `json:"name"`
	Available bool                   `json:"available"`
	Error     string                 `json:"error,omitempty"`
	Info      map[string]interface{} `json:"info,omitempty"`
}

// ProducerManager owns the set of entity producers for the lifetime of the service.
// A producer whose constructor fails is excluded and reported as unavailable.
type ProducerManager struct {
	mu          sync.RWMutex
	producers   []detectors.Detector
	unavailable map[string]error
}

// NewProducerManager builds every producer in specs. It never fails: broken
// producers are logged and left out.
func NewProducerManager(specs []ProducerSpec) *ProducerManager {
	pm := &ProducerManager{unavailable: make(map[string]error)}

	for _, spec := range specs {
		if spec.New == nil {
			pm.unavailable[spec.Name] = fmt.Errorf("%w: no constructor", detectors.ErrEngineUnavailable)
			continue
		}

		producer, err := spec.New()
		if err == nil && producer == nil {
			err = errors.New("constructor returned nil")
		}
		if err != nil {
			if !errors.Is(err, detectors.ErrEngineUnavailable) {
				err = fmt.Errorf("%w: %v", detectors.ErrEngineUnavailable, err)
			}
			log.Printf("[ProducerManager] Producer %s unavailable: %v", spec.Name, err)
			pm.unavailable[spec.Name] = err
			continue
		}

		log.Printf("[ProducerManager] Producer %s ready", spec.Name)
		pm.producers = append(pm.producers, producer)
	}

	return pm
}

// Producers returns the active producers
func (pm *ProducerManager) Producers() []detectors.Detector {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	out := make([]detectors.Detector, len(pm.producers))
	copy(out, pm.producers)
	return out
}

// Names returns the names of the active producers in registration order
func (pm *ProducerManager) Names() []string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	names := make([]string, 0, len(pm.producers))
	for _, p := range pm.producers {
		names = append(names, p.GetName())
	}
	return names
}

// Unavailable returns the construction error of every excluded producer
func (pm *ProducerManager) Unavailable() map[string]error {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	out := make(map[string]error, len(pm.unavailable))
	for name, err := range pm.unavailable {
		out[name] = err
	}
	return out
}

// Status lists active producers first, then unavailable ones sorted by name.
// Producers that describe themselves (the ONNX model manager) add their info.
func (pm *ProducerManager) Status() []ProducerStatus {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	status := make([]ProducerStatus, 0, len(pm.producers)+len(pm.unavailable))
	for _, p := range pm.producers {
		st := ProducerStatus{Name: p.GetName(), Available: true}
		if h, ok := p.(interface{ IsHealthy() bool }); ok && !h.IsHealthy() {
			st.Available = false
			if le, ok := p.(interface{ GetLastError() error }); ok && le.GetLastError() != nil {
				st.Error = le.GetLastError().Error()
			}
		}
		if i, ok := p.(interface{ GetInfo() map[string]interface{} }); ok {
			st.Info = i.GetInfo()
		}
		status = append(status, st)
	}

	names := make([]string, 0, len(pm.unavailable))
	for name := range pm.unavailable {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		status = append(status, ProducerStatus{Name: name, Error: pm.unavailable[name].Error()})
	}
	return status
}

// Close releases every producer and returns the first error encountered
func (pm *ProducerManager) Close() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	var firstErr error
	for _, p := range pm.producers {
		if err := detectors.CloseDetector(p); err != nil {
			log.Printf("[ProducerManager] Warning: failed to close %s: %v", p.GetName(), err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	pm.producers = nil
	return firstErr
}
