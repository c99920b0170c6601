package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/weddingsite/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfg        config.Config
	contentDir string
	verbose    bool
	log        *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sitectl",
	Short: "Maintenance tasks for the wedding site content",
	Long: `sitectl checks, exports and scaffolds the page documents the site
serves. Settings come from the same environment variables (and .env file)
as the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		cfg = config.Load()
		if contentDir != "" {
			cfg.ContentDir = contentDir
		}
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&contentDir, "content", "", "page documents directory (default $CONTENT_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log render details")
	rootCmd.AddCommand(validateCmd, exportCmd, newPageCmd)
}
