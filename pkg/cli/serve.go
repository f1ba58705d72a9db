package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shelfd/shelfd/pkg/api"
	"github.com/shelfd/shelfd/pkg/config"
	"github.com/shelfd/shelfd/pkg/logging"
)

// serveFlags holds the flag values for the serve command.
type serveFlags struct {
	configFile string
	listen     string
	logLevel   string
	logFormat  string
}

var serveFlagVals serveFlags

// serveCmd starts the server in the foreground until SIGINT or SIGTERM.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the shelfd server (foreground)",
	Long: `Start the HTTP server and run until interrupted.

Configuration comes from an optional JSON or YAML file; flags override
the listen address and logging settings.`,
	Example: `  # Start with defaults on 127.0.0.1:8080
  shelfd serve

  # Start from a config file
  shelfd serve --config shelfd.yaml

  # Override the listen address and log as JSON
  shelfd serve --listen 0.0.0.0:3000 --log-format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(&serveFlagVals)
	},
}

func initServeCmd() {
	rootCmd.AddCommand(serveCmd)

	f := &serveFlagVals
	serveCmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Path to configuration file (JSON or YAML)")
	serveCmd.Flags().StringVarP(&f.listen, "listen", "l", "", "Listen address (overrides config)")
	serveCmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	serveCmd.Flags().StringVar(&f.logFormat, "log-format", "", "Log format: text or json (overrides config)")
}

func runServe(f *serveFlags) error {
	cfg := config.Default()
	if f.configFile != "" {
		loaded, err := config.Load(f.configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if f.listen != "" {
		cfg.Listen = f.listen
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: logging.ParseFormat(cfg.Log.Format),
	})

	srv, err := api.NewServer(cfg, api.WithLogger(log), api.WithVersion(Version))
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	received := <-sig
	log.Info("signal received", "signal", received.String())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeoutDuration())
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
