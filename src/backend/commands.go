package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/hannes/irongate/src/backend/pii"
	"github.com/hannes/irongate/src/backend/report"
	"github.com/hannes/irongate/src/backend/server"
	"github.com/spf13/cobra"
)

// Version information set at build time via ldflags.
var (
	version = ""
	commit  = ""
)

// getVersion returns version string.
// Priority: ldflags > debug.ReadBuildInfo > server.Version
func getVersion() string {
	if version != "" {
		return version
	}
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		if v := buildInfo.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return server.Version
}

// getCommit returns commit hash.
// Priority: ldflags > debug.ReadBuildInfo > "unknown"
func getCommit() string {
	if commit != "" {
		return commit
	}
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range buildInfo.Settings {
			if setting.Key == "vcs.revision" {
				if len(setting.Value) > 7 {
					return setting.Value[:7]
				}
				return setting.Value
			}
		}
	}
	return "unknown"
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "irongate",
		Short: "Sensitive information detection and pseudonymization service",
		Long: `Iron Gate detects personal, legal and secret information in text, scores
how sensitive the text is, and replaces detected values with consistent
session-scoped pseudonyms that can be reversed by an authorized caller.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to JSON config file")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP detection API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			resolveModelDirectory(cfg, modelFiles, modelRoot)

			enabled, err := server.InitSentry(cfg.SentryDSN, getVersion())
			if err != nil {
				log.Printf("Warning: %v", err)
			} else if enabled {
				log.Println("Sentry error reporting enabled")
				defer server.FlushSentry()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, producerSpecs(cfg))
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.NewServer(cfg, a.service, a.producers)
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				log.Println("Shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
}

// NewScanCmd creates the scan command
func NewScanCmd() *cobra.Command {
	var (
		format       string
		pseudonymize bool
	)

	cmd := &cobra.Command{
		Use:   "scan FILE",
		Short: "Scan a file and report its sensitivity",
		Long: `Scan runs the detection pipeline on a file (or stdin with "-") without
starting the API, then prints the score, level, explanation and a table of
detected entities. Matched values are never printed.

Examples:
  # JSON report
  irongate scan contract.txt

  # Markdown report including the pseudonymized text
  irongate scan contract.txt --format markdown --pseudonymize`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			// scans never need a persistent audit trail
			cfg.Audit.Driver = pii.AuditDriverMemory
			resolveModelDirectory(cfg, modelFiles, modelRoot)

			writer, err := report.NewWriter(format, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			text, err := readInput(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, producerSpecs(cfg))
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := runScan(cmd.Context(), a, args[0], text, pseudonymize)
			if err != nil {
				return err
			}
			return writer.Write(r)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", report.FormatJSON, "Output format (json, markdown)")
	cmd.Flags().BoolVar(&pseudonymize, "pseudonymize", false, "Include pseudonyms and the masked text")

	return cmd
}

// runScan detects, scores and optionally pseudonymizes text
func runScan(ctx context.Context, a *app, source, text string, pseudonymize bool) (*report.ScanReport, error) {
	detection, err := a.pipeline.Detect(ctx, pii.DetectRequest{Text: text})
	if err != nil {
		return nil, err
	}

	result, err := a.service.Score(ctx, text, detection.Entities, "")
	if err != nil {
		return nil, err
	}

	if !pseudonymize {
		return report.NewScanReport(source, text, detection, result, nil), nil
	}

	masked, err := a.service.Pseudonymize(ctx, pii.PseudonymizeRequest{Text: text})
	if err != nil {
		return nil, err
	}

	r := report.NewScanReport(source, text, detection, result, masked.PseudonymMap)
	r.SessionID = masked.SessionID
	r.MaskedText = masked.MaskedText
	return r, nil
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "irongate version %s\n", getVersion())
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", getCommit())
		},
	}
}
