package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/skapsec/internal/config"
	"github.com/ziadkadry99/skapsec/internal/logger"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "skapsec",
	Short: "Credibility scoring for stock market announcements",
	Long: `SkapSec checks company announcements for signs of pump-and-dump and
other misleading promotion. It talks to a scoring service, renders the
credibility score with its flags and deductions, and can serve the same
dashboard as a web app.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		return logger.Init(level, cfg.Log.File)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
