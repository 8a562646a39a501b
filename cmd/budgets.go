package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mintgrab/mintgrab/internal/api"
)

var budgetsCmd = &cobra.Command{
	Use:   "budgets",
	Short: "Get budgets",
	RunE:  runBudgets,
}

func init() {
	budgetsCmd.Flags().String("start", "", "start date (YYYY-MM-DD, today, yesterday, -Nd)")
	budgetsCmd.Flags().String("end", "", "end date")
	budgetsCmd.Flags().Int("limit", 0, "max records per page (0=default)")
	rootCmd.AddCommand(budgetsCmd)
}

func runBudgets(cmd *cobra.Command, args []string) error {
	startFlag, _ := cmd.Flags().GetString("start")
	endFlag, _ := cmd.Flags().GetString("end")
	limit, _ := cmd.Flags().GetInt("limit")

	opt := api.BudgetOptions{Limit: limit}
	if startFlag != "" || endFlag != "" {
		start, end, err := parseDatePair(startFlag, endFlag)
		if err != nil {
			return ExitWithError(ExitUserError, "%v", err)
		}
		opt.Start, opt.End = start, end
	}

	session, err := ensureSession(cmd)
	if err != nil {
		return err
	}

	budgets, err := session.Budgets(cmd.Context(), opt)
	if err != nil {
		return err
	}
	return app.Printer.Records(budgets, app.Format, app.FilePrefix, "budgets")
}
