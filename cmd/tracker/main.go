package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"tracker/internal/app"
	"tracker/internal/config"
)

var Version = "dev"

type flags struct {
	addr     string
	dbDriver string
	db       string
	static   string
}

func main() {
	var f flags
	rootCmd := &cobra.Command{
		Use:           "tracker",
		Short:         "Tracker - projects, boards, tasks and time logs",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&f.addr, "addr", "", "HTTP listen address (overrides TRACKER_HTTP_HOST/PORT)")
	rootCmd.PersistentFlags().StringVar(&f.dbDriver, "db-driver", "", "database driver: sqlite or postgres")
	rootCmd.PersistentFlags().StringVar(&f.db, "db", "", "database DSN or sqlite file path")
	rootCmd.PersistentFlags().StringVar(&f.static, "static", "", "directory with the built frontend")

	rootCmd.AddCommand(serveCmd(&f))
	rootCmd.AddCommand(migrateCmd(&f))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate the database and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			logger, err := app.NewLogger(cfg.Env, os.Stdout)
			if err != nil {
				return err
			}
			logger.Info().Str("version", Version).Str("env", cfg.Env).Msg("tracker starting")

			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	}
}

func migrateCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			logger, err := app.NewLogger(cfg.Env, os.Stdout)
			if err != nil {
				return err
			}
			return app.Migrate(cfg, logger)
		},
	}
}

// loadConfig reads the environment and applies the command line overrides.
func loadConfig(f *flags) (*config.Config, error) {
	cfg, err := config.Read()
	if err != nil {
		logger := app.DefaultLogger()
		logger.Error().Err(err).Msg("failed to read env")
		return nil, fmt.Errorf("read config: %w", err)
	}

	if f.addr != "" {
		host, rawPort, err := net.SplitHostPort(f.addr)
		if err != nil {
			return nil, fmt.Errorf("invalid --addr: %w", err)
		}
		port, err := strconv.Atoi(rawPort)
		if err != nil {
			return nil, fmt.Errorf("invalid --addr port: %w", err)
		}
		cfg.HTTP.Host, cfg.HTTP.Port = host, port
	}
	if f.dbDriver != "" {
		cfg.DB.Driver = f.dbDriver
	}
	if f.db != "" {
		cfg.DB.DSN = f.db
	}
	if f.static != "" {
		cfg.StaticDir = f.static
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
