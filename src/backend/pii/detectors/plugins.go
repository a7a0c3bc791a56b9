package detectors

import (
	"context"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPluginConfidence is assigned to plugin matches that do not set one
const DefaultPluginConfidence = 0.85

// Plugin is a firm-specific, pattern-only detection rule set
type Plugin struct {
	Name        string   `yaml:"name"`
	IsActive    *bool    `yaml:"is_active"`
	Patterns    []string `yaml:"patterns"`
	EntityTypes []string `yaml:"entity_types"`
	Confidence  float64  `yaml:"confidence"`
}

// Active reports whether the plugin should run. Plugins are active unless
// explicitly disabled.
func (p Plugin) Active() bool {
	return p.IsActive == nil || *p.IsActive
}

type pluginFile struct {
	Plugins []Plugin `yaml:"plugins"`
}

// ParsePlugins decodes a YAML plugin document
func ParsePlugins(data []byte) ([]Plugin, error) {
	var file pluginFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse plugins: %w", err)
	}
	for i, p := range file.Plugins {
		if p.Name == "" {
			file.Plugins[i].Name = fmt.Sprintf("plugin_%d", i)
		}
	}
	return file.Plugins, nil
}

// LoadPlugins reads plugin definitions from a YAML file
func LoadPlugins(path string) ([]Plugin, error) {
	// #nosec G304 - Plugin file path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin file: %w", err)
	}
	return ParsePlugins(data)
}

type compiledPlugin struct {
	source   string
	patterns []compiledPattern
}

// PluginDetector runs firm plugins. Every match is reported once per entity
// type declared by its plugin, tagged with source "plugin:<name>".
type PluginDetector struct {
	plugins []compiledPlugin
	skipped []error
}

// NewPluginDetector compiles the active plugins. Bad patterns are skipped.
func NewPluginDetector(plugins []Plugin) *PluginDetector {
	d := &PluginDetector{}
	for _, plugin := range plugins {
		if !plugin.Active() {
			continue
		}
		confidence := plugin.Confidence
		if confidence <= 0 || confidence > 1 {
			confidence = DefaultPluginConfidence
		}

		cp := compiledPlugin{source: "plugin:" + plugin.Name}
		for _, expr := range plugin.Patterns {
			for _, entityType := range plugin.EntityTypes {
				pattern, err := compilePattern(PatternSpec{
					Label:      NormalizeLabel(entityType),
					Expr:       expr,
					Confidence: confidence,
				})
				if err != nil {
					log.Printf("[Plugins] Plugin %s: %v", plugin.Name, err)
					d.skipped = append(d.skipped, err)
					break
				}
				cp.patterns = append(cp.patterns, pattern)
			}
		}
		d.plugins = append(d.plugins, cp)
	}
	return d
}

// GetName returns the name of this detector
func (d *PluginDetector) GetName() string {
	return DetectorNamePlugins
}

// Skipped returns the compile errors of patterns that were dropped
func (d *PluginDetector) Skipped() []error {
	return d.skipped
}

// Detect runs every active plugin against the input
func (d *PluginDetector) Detect(ctx context.Context, input DetectorInput) (DetectorOutput, error) {
	entities := []Entity{}
	for _, plugin := range d.plugins {
		if err := ctx.Err(); err != nil {
			return DetectorOutput{}, err
		}
		for _, p := range plugin.patterns {
			entities = append(entities, p.find(input.Text, plugin.source)...)
		}
	}
	return DetectorOutput{Text: input.Text, Entities: entities}, nil
}

// Close implements the Detector interface
func (d *PluginDetector) Close() error {
	return nil
}
