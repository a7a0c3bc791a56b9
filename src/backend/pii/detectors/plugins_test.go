package detectors

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const testPluginYAML = `
plugins:
  - name: acme
    patterns:
      - 'ACME-\d{4}'
    entity_types:
      - client code
      - MATTER_NUMBER
  - name: disabled
    is_active: false
    patterns:
      - 'secret'
    entity_types:
      - TRADE_SECRET
  - name: partly-broken
    confidence: 0.6
    patterns:
      - '([a-z'
      - 'Formula-[A-Z]'
    entity_types:
      - PROPRIETARY_FORMULA
`

func TestParsePlugins(t *testing.T) {
	plugins, err := ParsePlugins([]byte(testPluginYAML))
	if err != nil {
		t.Fatalf("ParsePlugins failed: %v", err)
	}
	if len(plugins) != 3 {
		t.Fatalf("Expected 3 plugins, got %d", len(plugins))
	}
	if !plugins[0].Active() {
		t.Error("Expected plugin without is_active to be active")
	}
	if plugins[1].Active() {
		t.Error("Expected disabled plugin to be inactive")
	}
}

func TestParsePlugins_InvalidYAML(t *testing.T) {
	if _, err := ParsePlugins([]byte("plugins: [")); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

func TestLoadPlugins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugins.yaml")
	if err := os.WriteFile(path, []byte(testPluginYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	plugins, err := LoadPlugins(path)
	if err != nil {
		t.Fatalf("LoadPlugins failed: %v", err)
	}
	if plugins[0].Name != "acme" {
		t.Errorf("Expected first plugin 'acme', got %q", plugins[0].Name)
	}

	if _, err := LoadPlugins(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestPluginDetector_Detect(t *testing.T) {
	plugins, err := ParsePlugins([]byte(testPluginYAML))
	if err != nil {
		t.Fatal(err)
	}
	detector := NewPluginDetector(plugins)

	if len(detector.Skipped()) != 1 || !errors.Is(detector.Skipped()[0], ErrBadPattern) {
		t.Errorf("Expected one ErrBadPattern, got %v", detector.Skipped())
	}

	output, err := detector.Detect(context.Background(), DetectorInput{
		Text: "Ref ACME-1234 uses Formula-X and a secret.",
	})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	byLabel := make(map[string]Entity)
	for _, e := range output.Entities {
		byLabel[e.Label] = e
	}
	if len(output.Entities) != 3 {
		t.Fatalf("Expected 3 entities, got %d: %+v", len(output.Entities), output.Entities)
	}

	clientCode, ok := byLabel["CLIENT_CODE"]
	if !ok {
		t.Fatal("Expected CLIENT_CODE entity")
	}
	if clientCode.Source != "plugin:acme" {
		t.Errorf("Expected source plugin:acme, got %s", clientCode.Source)
	}
	if clientCode.Confidence != DefaultPluginConfidence {
		t.Errorf("Expected default confidence, got %f", clientCode.Confidence)
	}
	if _, ok := byLabel[LabelMatterNumber]; !ok {
		t.Error("Expected MATTER_NUMBER entity for the same match")
	}

	formula, ok := byLabel[LabelProprietaryFormula]
	if !ok {
		t.Fatal("Expected PROPRIETARY_FORMULA entity")
	}
	if formula.Confidence != 0.6 || formula.Text != "Formula-X" {
		t.Errorf("Unexpected formula entity %+v", formula)
	}
	if _, ok := byLabel[LabelTradeSecret]; ok {
		t.Error("Disabled plugin should not produce entities")
	}
}

func TestPluginDetector_NoPlugins(t *testing.T) {
	detector := NewPluginDetector(nil)
	if detector.GetName() != DetectorNamePlugins {
		t.Errorf("Expected name %s, got %s", DetectorNamePlugins, detector.GetName())
	}
	output, err := detector.Detect(context.Background(), DetectorInput{Text: "anything"})
	if err != nil || len(output.Entities) != 0 {
		t.Errorf("Expected no entities and no error, got %v, %v", output.Entities, err)
	}
}
