package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mintgrab/mintgrab/internal/api"
)

var creditCmd = &cobra.Command{
	Use:   "credit",
	Short: "Get credit report data",
}

var creditScoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Get the current credit score",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := ensureSession(cmd)
		if err != nil {
			return err
		}
		score, err := session.CreditScore(cmd.Context())
		if err != nil {
			return err
		}
		return app.Printer.JSON(map[string]any{"creditScore": score})
	},
}

var creditReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Get the full credit report with sub-reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		limit, _ := f.GetInt("limit")
		excludeInquiries, _ := f.GetBool("exclude-inquiries")
		excludeTradelines, _ := f.GetBool("exclude-tradelines")
		excludeUtilization, _ := f.GetBool("exclude-utilization")

		session, err := ensureSession(cmd)
		if err != nil {
			return err
		}
		report, err := session.CreditReport(cmd.Context(), api.CreditReportOptions{
			Limit:              limit,
			ExcludeInquiries:   excludeInquiries,
			ExcludeTradelines:  excludeTradelines,
			ExcludeUtilization: excludeUtilization,
		})
		if err != nil {
			return err
		}
		return app.Printer.JSON(report)
	},
}

var creditInquiriesCmd = &cobra.Command{
	Use:   "inquiries",
	Short: "Get hard inquiries on the latest report",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := ensureSession(cmd)
		if err != nil {
			return err
		}
		inquiries, err := session.CreditInquiries(cmd.Context())
		if err != nil {
			return err
		}
		return app.Printer.Records(inquiries, app.Format, app.FilePrefix, "credit_inquiries")
	},
}

var creditTradelinesCmd = &cobra.Command{
	Use:   "tradelines",
	Short: "Get tradelines (one per credit account)",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := ensureSession(cmd)
		if err != nil {
			return err
		}
		tradelines, err := session.CreditTradelines(cmd.Context())
		if err != nil {
			return err
		}
		return app.Printer.Records(tradelines, app.Format, app.FilePrefix, "credit_tradelines")
	},
}

var creditUtilizationCmd = &cobra.Command{
	Use:   "utilization",
	Short: "Get flattened credit-utilization history",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := ensureSession(cmd)
		if err != nil {
			return err
		}
		utilization, err := session.CreditUtilization(cmd.Context())
		if err != nil {
			return err
		}
		return app.Printer.Records(utilization, app.Format, app.FilePrefix, "credit_utilization")
	},
}

func init() {
	creditReportCmd.Flags().Int("limit", 2, "max reports to fetch")
	creditReportCmd.Flags().Bool("exclude-inquiries", false, "skip the inquiries sub-call")
	creditReportCmd.Flags().Bool("exclude-tradelines", false, "skip the tradelines sub-call")
	creditReportCmd.Flags().Bool("exclude-utilization", false, "skip the utilization sub-call")

	creditCmd.AddCommand(creditScoreCmd, creditReportCmd, creditInquiriesCmd, creditTradelinesCmd, creditUtilizationCmd)
	rootCmd.AddCommand(creditCmd)
}
