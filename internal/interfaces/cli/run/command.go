// Package run starts the sync core: session watcher, socket, stores and the
// local control surface.
package run

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"leadsync/internal/infrastructure/config"
	"leadsync/internal/shared/biztime"
	"leadsync/internal/shared/logger"
)

var configPath string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sync client",
		Long:  `Follow the signed-in session, keep the ticket caches in sync over the socket and serve the local control API.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the config file (default: ./configs/config.yaml)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := biztime.Init(cfg.Session.Timezone); err != nil {
		return fmt.Errorf("failed to load timezone: %w", err)
	}

	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	log.Infow("starting leadsync",
		"api", cfg.API.BaseURL,
		"control", cfg.Control.Enabled,
		"redis", cfg.Redis.Enabled,
	)
	if err := a.run(ctx); err != nil {
		log.Errorw("leadsync stopped with error", "error", err)
		return err
	}

	log.Infow("leadsync exited gracefully")
	return nil
}
