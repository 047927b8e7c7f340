package commands

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayusman/handpose/internal/config"
	"github.com/ayusman/handpose/internal/store"
)

var (
	configPath string
	dataDir    string
	cfg        *config.Config
)

// Execute runs the root command.
func Execute() error {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "handpose",
		Short:        "Real-time hand landmark and gesture detection",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if configPath != "" {
				cfg, err = config.Load(configPath)
				if err != nil {
					return err
				}
			} else {
				cfg = config.Default()
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}
			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "JSON config file")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.handpose)")

	root.AddCommand(runCmd(), classifyCmd(), templatesCmd())
	return root
}

func openStore() (*store.Store, error) {
	st, err := store.New(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	return st, nil
}
