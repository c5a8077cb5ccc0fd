package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/investor-scout/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "investor-scout",
	Short: "Investor contact email discovery pipeline",
	Long:  "Normalizes investor name lists, searches the public web through a headless browser, scrapes candidate pages, and extracts contact email addresses into batch CSV results.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
