package cmd

import "github.com/spf13/cobra"

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Ask the service to refresh data from financial institutions",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := ensureSession(cmd)
		if err != nil {
			return err
		}
		if err := session.RefreshAccounts(cmd.Context()); err != nil {
			return err
		}
		app.Printer.Info("refresh requested")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
