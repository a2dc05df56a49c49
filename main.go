// Package main provides the secretgarden CLI: a garden server for the local
// network, and the commands and desktop window people plant flowers with.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/INSANE0777/AIS-GARDEN/internal/config"
	"github.com/INSANE0777/AIS-GARDEN/internal/logging"
	"github.com/INSANE0777/AIS-GARDEN/internal/paths"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Set by persistent flags.
	configFile string
	configDir  string
	dataDir    string
	serverURL  string

	// Initialized by PersistentPreRunE.
	cfg    *config.Config
	logger zerolog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   paths.AppName,
	Short: "A shared garden of hand-drawn flowers",
	Long: `secretgarden runs a small garden server on the local network and lets
everyone on it draw a flower, plant it, and watch the garden grow live.

Start a server with "secretgarden serve", then join from any machine with
"secretgarden desktop" or the join/plant/watch commands.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: $GARDEN_CONFIG or ./garden.yaml)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory holding the saved identity (default: $GARDEN_CONFIG_DIR or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding the sqlite garden (default: $GARDEN_DATA_DIR or the user data dir)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "garden server URL (default: client.server_url or mDNS discovery)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(plantCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(galleryCmd)
	rootCmd.AddCommand(desktopCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", paths.AppName, version)
	},
}

// setup loads the configuration and builds the logger for every command.
func setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	c, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c
	logger = logging.New(paths.AppName, cfg.Log)
	logger.Debug().Str("command", cmd.Name()).Msg("configuration loaded")
	return nil
}

// interruptible returns a context cancelled on SIGINT or SIGTERM.
func interruptible(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
