package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/hannes/irongate/src/backend/config"
	"github.com/hannes/irongate/src/backend/pii"
	"github.com/hannes/irongate/src/backend/pii/detectors"
	"github.com/hannes/irongate/src/backend/pii/generators"
	"github.com/hannes/irongate/src/backend/pii/scoring"
	"github.com/hannes/irongate/src/backend/pii/session"
	"github.com/hannes/irongate/src/backend/server"
)

// app holds the wired service and the resources it owns
type app struct {
	cfg       *config.Config
	producers *pii.ProducerManager
	pipeline  *pii.DetectionPipeline
	service   *pii.Service
	audit     pii.AuditDB
}

// loadConfig builds the configuration from defaults, .env, the config file
// and the environment, in that order
func loadConfig(configPath string) (*config.Config, error) {
	config.LoadDotEnv()

	cfg := config.DefaultConfig()
	if configPath == "" {
		configPath = config.DefaultConfigFile()
	}
	if configPath != "" {
		if err := config.LoadFromFile(configPath, cfg); err != nil {
			return nil, err
		}
		log.Printf("Loaded config file %s", configPath)
	}
	config.LoadFromEnv(cfg)

	if err := cfg.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// producerSpecs returns the constructors of every producer enabled in cfg
func producerSpecs(cfg *config.Config) []pii.ProducerSpec {
	all := []pii.ProducerSpec{
		{Name: detectors.DetectorNamePattern, New: func() (detectors.Detector, error) {
			return detectors.NewPatternDetector(), nil
		}},
		{Name: detectors.DetectorNameLegal, New: func() (detectors.Detector, error) {
			return detectors.NewLegalDetector(), nil
		}},
		{Name: detectors.DetectorNameSecrets, New: func() (detectors.Detector, error) {
			return detectors.NewSecretScanner(), nil
		}},
		{Name: detectors.DetectorNamePlugins, New: func() (detectors.Detector, error) {
			plugins, err := detectors.LoadPlugins(cfg.PluginsPath)
			if err != nil {
				return nil, err
			}
			return detectors.NewPluginDetector(plugins), nil
		}},
		{Name: detectors.DetectorNameONNXModel, New: func() (detectors.Detector, error) {
			mm := pii.NewModelManager(cfg.ModelDirectory, cfg.ONNXLibraryPath, nil)
			if !mm.IsHealthy() {
				err := mm.GetLastError()
				if closeErr := mm.Close(); closeErr != nil {
					log.Printf("Warning: failed to close model manager: %v", closeErr)
				}
				return nil, err
			}
			return mm, nil
		}},
	}

	specs := make([]pii.ProducerSpec, 0, len(all))
	for _, spec := range all {
		if cfg.ProducerEnabled(spec.Name) {
			specs = append(specs, spec)
		}
	}
	return specs
}

// newApp wires producers, pipeline, scorer, session store and audit database
func newApp(ctx context.Context, cfg *config.Config, specs []pii.ProducerSpec) (*app, error) {
	audit, err := pii.NewAuditDB(ctx, pii.DatabaseConfig{
		Driver:       cfg.Audit.Driver,
		Path:         cfg.Audit.Path,
		MaxEntries:   cfg.Audit.MaxEntries,
		Host:         cfg.Audit.Host,
		Port:         cfg.Audit.Port,
		Database:     cfg.Audit.Database,
		Username:     cfg.Audit.Username,
		Password:     cfg.Audit.Password,
		SSLMode:      cfg.Audit.SSLMode,
		MaxOpenConns: cfg.Audit.MaxOpenConns,
		MaxIdleConns: cfg.Audit.MaxIdleConns,
		MaxLifetime:  time.Duration(cfg.Audit.MaxLifetime) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	var realistic generators.Realistic
	if cfg.Generator.Realistic {
		realistic = generators.FakerRealistic{}
	}
	generator := generators.NewGenerator(realistic, cfg.GeneratorTimeout())

	producers := pii.NewProducerManager(specs)
	pipeline := pii.NewDetectionPipeline(producers, pii.WithFailureHook(server.ReportProducerFailure))
	sessions := session.NewStore(generator,
		session.WithTTL(cfg.SessionTTL()),
		session.WithEvictionThreshold(cfg.Session.EvictionThreshold),
	)
	service := pii.NewService(pipeline, scoring.NewScorerWithWeights(cfg.Weights), sessions, audit)

	return &app{
		cfg:       cfg,
		producers: producers,
		pipeline:  pipeline,
		service:   service,
		audit:     audit,
	}, nil
}

// Close releases producers and the audit database
func (a *app) Close() {
	if err := a.producers.Close(); err != nil {
		log.Printf("Warning: failed to close producers: %v", err)
	}
	if err := a.audit.Close(); err != nil {
		log.Printf("Warning: failed to close audit database: %v", err)
	}
}

// readInput reads the file at path, or stdin when path is "-"
func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	// #nosec G304 - Scan target is chosen by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
