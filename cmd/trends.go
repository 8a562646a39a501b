package cmd

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mintgrab/mintgrab/internal/api"
)

var reportViews = map[string]api.ReportView{
	"spending-time":     api.SpendingTime,
	"spending-category": api.SpendingCategory,
	"spending-merchant": api.SpendingMerchant,
	"spending-tag":      api.SpendingTag,
	"income-time":       api.IncomeTime,
	"income-category":   api.IncomeCategory,
	"income-merchant":   api.IncomeMerchant,
	"income-tag":        api.IncomeTag,
	"assets-time":       api.AssetsTime,
	"assets-type":       api.AssetsType,
	"assets-account":    api.AssetsAccount,
	"debts-time":        api.DebtsTime,
	"debts-type":        api.DebtsType,
	"debts-account":     api.DebtsAccount,
	"net-worth":         api.NetWorthView,
	"net-income":        api.NetIncome,
}

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Get trend report rows",
	RunE:  runTrends,
}

func init() {
	f := trendsCmd.Flags()
	f.String("report", "spending-time", "report view (e.g. spending-category, net-worth)")
	f.String("range", "", "named date range (e.g. this-month, last-7-days, all-time)")
	f.String("start", "", "start date (YYYY-MM-DD, today, yesterday, -Nd)")
	f.String("end", "", "end date")
	f.Int("limit", 0, "page size (0=default)")
	f.Int("offset", 0, "starting offset")
	rootCmd.AddCommand(trendsCmd)
}

func runTrends(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	reportFlag, _ := f.GetString("report")
	rangeFlag, _ := f.GetString("range")
	startFlag, _ := f.GetString("start")
	endFlag, _ := f.GetString("end")
	limit, _ := f.GetInt("limit")
	offset, _ := f.GetInt("offset")

	view, ok := reportViews[strings.ToLower(reportFlag)]
	if !ok {
		return ExitWithError(ExitUserError, "unknown report %q (expected one of %s)", reportFlag, reportNames())
	}
	dateFilter, err := parseDateFilter(rangeFlag, startFlag, endFlag)
	if err != nil {
		return ExitWithError(ExitUserError, "%v", err)
	}

	session, err := ensureSession(cmd)
	if err != nil {
		return err
	}

	trends, err := session.Trends(cmd.Context(), api.TrendOptions{
		ReportView: view,
		DateFilter: dateFilter,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return err
	}
	return app.Printer.Records(trends, app.Format, app.FilePrefix, "trends")
}

func reportNames() string {
	names := make([]string, 0, len(reportViews))
	for name := range reportViews {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
