package detectors

import (
	"context"
)

// Producer names, also used as the Source tag of the entities they emit
const (
	DetectorNamePattern   = "pattern"
	DetectorNameLegal     = "legal"
	DetectorNameSecrets   = "secrets"
	DetectorNamePlugins   = "plugins"
	DetectorNameONNXModel = "onnx_ner"
)

// Detector is an entity producer: given text it returns candidate entities.
// Implementations must be safe for concurrent use.
type Detector interface {
	GetName() string
	Detect(ctx context.Context, input DetectorInput) (DetectorOutput, error)
	Close() error
}

func CloseDetector(detector Detector) error {
	return detector.Close()
}
