package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"sportsuid/internal/app"
	"sportsuid/internal/platform/config"
	"sportsuid/internal/platform/logger"
)

// globals holds the persistent flags shared by every command.
type globals struct {
	backend string
	output  string
	verbose bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "uidctl",
		Short: "Issue and inspect sportsuid identifiers",
		Long: `uidctl talks to the same stores as the sportsuid server, configured by the
same environment variables (DATABASE_URL, REDIS_URL, UID_BACKEND, ...).

Examples:
  # Issue a student identifier for Maharashtra
  uidctl generate --category student --region Maharashtra

  # Decode an identifier
  uidctl parse a00001MH032025

  # Show how far a partition has counted
  uidctl inspect a:MH:03:2025`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&g.backend, "backend", "", "Override UID_BACKEND: memory|postgres|redis|file")
	root.PersistentFlags().StringVarP(&g.output, "output", "o", "text", "Output format: text|json|yaml")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log to stderr")

	root.AddCommand(
		newGenerateCmd(g),
		newEventCmd(g),
		newValidateCmd(g),
		newParseCmd(g),
		newDisplayCmd(g),
		newCertificateCmd(g),
		newOrderCmd(g),
		newInspectCmd(g),
		newMigrateCmd(g),
		newSeedCmd(g),
	)
	return root
}

func (g *globals) config() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if g.backend != "" {
		cfg.Backend = config.Backend(g.backend)
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

func (g *globals) logger(cmd *cobra.Command, cfg config.Config) *slog.Logger {
	if !g.verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg.Log.Format = "text"
	return logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log)
}

// open builds the service against the configured stores. Events are not
// published from the command line.
func (g *globals) open(cmd *cobra.Command) (*app.App, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}
	return app.Build(cmd.Context(), cfg, g.logger(cmd, cfg),
		app.WithRegistry(prometheus.NewRegistry()),
		app.WithoutPublisher(),
	)
}

// print writes v as JSON or YAML, or text via the fallback.
func (g *globals) print(cmd *cobra.Command, v any, text func(w io.Writer) error) error {
	w := cmd.OutOrStdout()
	switch g.output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	case "text", "":
		return text(w)
	default:
		return fmt.Errorf("unknown output format %q", g.output)
	}
}
