package cmd

import "github.com/spf13/cobra"

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Get transaction categories",
	RunE:  runCategories,
}

func init() {
	categoriesCmd.Flags().Int("limit", 0, "max records per page (0=default)")
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	session, err := ensureSession(cmd)
	if err != nil {
		return err
	}

	categories, err := session.Categories(cmd.Context(), limit)
	if err != nil {
		return err
	}
	return app.Printer.Records(categories, app.Format, app.FilePrefix, "categories")
}
