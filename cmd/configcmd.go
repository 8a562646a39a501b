package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mintgrab/mintgrab/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize the config file",
	RunE:  runConfig,
}

func init() {
	configCmd.Flags().Bool("init", false, "write a starter config file")
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	initFlag, _ := cmd.Flags().GetBool("init")

	_, cfgPath, err := config.Paths(flagConfig)
	if err != nil {
		return ExitWithError(ExitUserError, "config path: %v", err)
	}

	if initFlag {
		if _, err := os.Stat(cfgPath); err == nil {
			return ExitWithError(ExitUserError, "config already exists at %s", cfgPath)
		}
		cfg := &config.Config{
			Email:       flagEmail,
			MFAMethod:   flagMFAMethod,
			Headless:    true,
			WaitForSync: true,
		}
		if err := config.Save(cfgPath, cfg); err != nil {
			return ExitWithError(ExitUserError, "writing config: %v", err)
		}
		app.Printer.Info("wrote %s", cfgPath)
		return nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return ExitWithError(ExitUserError, "loading config: %v", err)
	}
	app.Printer.Info("config file: %s", cfgPath)
	return app.Printer.JSON(cfg)
}
