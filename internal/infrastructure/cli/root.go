// Package cli contains the latentqa cobra commands.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/latentqa-go/internal/infrastructure/config"
	"github.com/0xcro3dile/latentqa-go/internal/infrastructure/logger"
	"github.com/0xcro3dile/latentqa-go/internal/infrastructure/telemetry"
)

// runtime is the per-invocation state shared by subcommands.
type runtime struct {
	cfgFile string
	version string
	stderr  io.Writer

	cfg      *config.Config
	logger   *slog.Logger
	shutdown telemetry.ShutdownFunc
}

// NewRootCmd builds the latentqa command tree.
func NewRootCmd(version string) *cobra.Command {
	return newRootCmd(&runtime{version: version, stderr: os.Stderr})
}

func newRootCmd(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:   "latentqa",
		Short: "Question answering over the India's Got Latent dataset",
		Long: `latentqa answers questions about the show India's Got Latent using
retrieval over an indexed dataset and an OpenAI-compatible chat model.

Example usage:
  latentqa index build --data data/latent.json   # Embed the dataset
  latentqa serve                                 # Start the chat API
  latentqa classify "who judged episode 3"       # Show the retrieval intent`,
		Version:       rt.version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&rt.cfgFile, "config", "", "config file (default is ./latentqa.yaml)")

	root.AddCommand(
		newServeCmd(rt),
		newIndexCmd(rt),
		newClassifyCmd(),
	)
	return root
}

// Execute runs the CLI with the given version string.
func Execute(version string) error {
	return NewRootCmd(version).Execute()
}

// setup loads configuration and installs logging and telemetry.
func (rt *runtime) setup(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(rt.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	rt.cfg = cfg

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: rt.version,
		Endpoint:       cfg.Telemetry.Endpoint,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return err
	}
	rt.shutdown = shutdown

	rt.logger = logger.New(rt.stderr, logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		OTel:   cfg.Logging.OTel && cfg.Telemetry.Enabled,
		Name:   cfg.Telemetry.ServiceName,
	})
	slog.SetDefault(rt.logger)
	return nil
}

func (rt *runtime) teardown(ctx context.Context) {
	if rt.shutdown == nil {
		return
	}
	if err := rt.shutdown(ctx); err != nil {
		rt.logger.Warn("telemetry shutdown failed", "error", err)
	}
}
