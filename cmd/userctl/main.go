package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	storeKind string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "userctl",
	Short: "Administer chat user accounts directly against the user store",
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		// .envを読み込む
		if err := godotenv.Load(); err != nil {
			slog.Debug(".env not found; using system environment variables")
		}
		setupLogger(cmd.ErrOrStderr(), verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "sql", "user store backend: sql or mongo")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func setupLogger(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
