package cli

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evcraddock/safety-report/internal/config"
	"github.com/evcraddock/safety-report/internal/logging"
	"github.com/evcraddock/safety-report/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the HTTP JSON API. Configuration comes from SR_* environment variables and an optional .env file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default: $SR_PORT or 8080)")

	return cmd
}

func runServe(port int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logging.Setup(cfg.DevMode)
	if port > 0 {
		cfg.Port = port
	}

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := newComponents(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.close()

	srv, err := web.NewServer(web.Services{
		Engine:      c.engine,
		Scorer:      c.scorer,
		Classifier:  c.classifier,
		Synthesizer: c.synth,
		Snippets:    c.snippets,
	}, cfg.AlternativesLimit)
	if err != nil {
		return err
	}

	return srv.ListenAndServe(ctx, cfg.Port)
}
