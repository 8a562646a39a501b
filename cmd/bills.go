package cmd

import "github.com/spf13/cobra"

var billsCmd = &cobra.Command{
	Use:   "bills",
	Short: "Get upcoming and recent bills",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := ensureSession(cmd)
		if err != nil {
			return err
		}
		bills, err := session.Bills(cmd.Context())
		if err != nil {
			return err
		}
		return app.Printer.Records(bills, app.Format, app.FilePrefix, "bills")
	},
}

func init() {
	rootCmd.AddCommand(billsCmd)
}
