package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/padelhub/score-service/internal/config"
	"github.com/padelhub/score-service/internal/logging"
	"github.com/padelhub/score-service/internal/server"
)

const appVersion = "dev"

// NewServeCommand creates the serve command, which runs the scoring API
// until interrupted.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "serve",
		Short:         "Run the scoring API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(rootOpts.ConfigFile)
			logger := logging.NewLogger(logging.Config{
				Level:   os.Getenv("LOG_LEVEL"),
				Format:  os.Getenv("LOG_FORMAT"),
				Service: cfg.Metrics.ServiceName,
				Version: appVersion,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := server.New(cfg, logger)
			if err != nil {
				return WrapExitError(ExitCommandError, "server startup failed", err)
			}
			srv.Run(ctx, stop)
			return nil
		},
	}
}
