package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mintgrab/mintgrab/internal/api"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Get all accounts",
	RunE:  runAccounts,
}

func init() {
	accountsCmd.Flags().Int("limit", 0, "max records per page (0=default)")
	rootCmd.AddCommand(accountsCmd)
}

func runAccounts(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	session, err := ensureSession(cmd)
	if err != nil {
		return err
	}

	accounts, err := session.Accounts(cmd.Context(), api.AccountOptions{Limit: limit})
	if err != nil {
		return err
	}
	return app.Printer.Records(accounts, app.Format, app.FilePrefix, "accounts")
}
