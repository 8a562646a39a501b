package cmd

import "github.com/spf13/cobra"

var netWorthCmd = &cobra.Command{
	Use:   "networth",
	Short: "Compute net worth across active accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := ensureSession(cmd)
		if err != nil {
			return err
		}
		netWorth, err := session.NetWorth(cmd.Context())
		if err != nil {
			return err
		}
		return app.Printer.JSON(map[string]any{"netWorth": netWorth})
	},
}

func init() {
	rootCmd.AddCommand(netWorthCmd)
}
