package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/ballot-registry/internal/app"
	"github.com/joseph-ayodele/ballot-registry/internal/common"
)

var (
	cfgFile  string
	registryFlag string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "ballots",
	Short: "Group scanned owner ballots into documents and keep a voting registry",
	Long: `ballots turns scanned owners' meeting ballots into a registry.

Pages of every uploaded file are recognized by a vision model and grouped
into one document per owner: a start page opens a document, continuation
pages attach to the owner they name (SNILS first, then full name) or to the
document in progress. Uploads into the same registry are consolidated.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./ballots.yaml or ~/.ballots/ballots.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&registryFlag, "registry", "r", "default", "registry name",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "debug logging",
	)

	rootCmd.AddCommand(processCmd, listCmd, verifyCmd, deleteCmd, setCmd, exportCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// openApp loads configuration and wires the services for one command.
func openApp(cmd *cobra.Command, opts app.Options) (*app.App, error) {
	logger := newLogger()
	cfg, err := common.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	return app.Open(cmd.Context(), cfg, logger, opts)
}
