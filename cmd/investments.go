package cmd

import "github.com/spf13/cobra"

var investmentsCmd = &cobra.Command{
	Use:   "investments",
	Short: "Get investment holdings",
	RunE:  runInvestments,
}

func init() {
	investmentsCmd.Flags().Int("limit", 0, "max records per page (0=default)")
	rootCmd.AddCommand(investmentsCmd)
}

func runInvestments(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	session, err := ensureSession(cmd)
	if err != nil {
		return err
	}

	investments, err := session.Investments(cmd.Context(), limit)
	if err != nil {
		return err
	}
	return app.Printer.Records(investments, app.Format, app.FilePrefix, "investments")
}
