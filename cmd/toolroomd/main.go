package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"toolroom-console/config"
	"toolroom-console/internal/logger"
)

// app carries what every subcommand needs once the root has run.
type app struct {
	configPath string
	cfg        *config.Config
	log        *zap.SugaredLogger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "toolroomd",
		Short:         "Tool-room custody live-operations console",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to the YAML config (default $CONFIG_PATH or ./config/config.yaml)")

	rootCmd.AddCommand(newServeCmd(a), newScanCmd(a), newMigrateCmd(a))
	return rootCmd
}

// load reads .env, then the YAML config, then the environment overrides.
func (a *app) load() error {
	a.log = logger.NewLogger()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	path := a.configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "./config/config.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration from %s: %w", path, err)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("TOOLROOM_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("VAPID_PUBLIC_KEY"); v != "" {
		cfg.Push.PublicKey = v
	}
	if v := os.Getenv("VAPID_PRIVATE_KEY"); v != "" {
		cfg.Push.PrivateKey = v
	}

	a.cfg = cfg
	a.log.Infof("configuration loaded from %s", path)
	return nil
}
