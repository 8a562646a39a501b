package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mintgrab/mintgrab/internal/api"
)

var transactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "Search transactions",
	RunE:  runTransactions,
}

func init() {
	f := transactionsCmd.Flags()
	f.String("range", "", "named date range (e.g. this-month, last-7-days, all-time)")
	f.String("start", "", "start date (YYYY-MM-DD, today, yesterday, -Nd)")
	f.String("end", "", "end date")
	f.Int("limit", 0, "page size (0=default)")
	f.Int("offset", 0, "starting offset")
	f.Bool("include-pending", false, "keep pending transactions")
	f.Bool("include-investment", false, "keep investment transactions")
	f.StringSlice("account-id", nil, "restrict to account id (repeatable)")
	f.StringSlice("category-id", nil, "restrict to category id (repeatable)")
	f.StringSlice("tag-id", nil, "restrict to tag id (repeatable)")
	f.String("description", "", "restrict to description text")
	f.Bool("include-child-categories", true, "category filters include child categories")
	f.Bool("match-any", false, "match any filter instead of all")
	rootCmd.AddCommand(transactionsCmd)
}

func runTransactions(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	rangeFlag, _ := f.GetString("range")
	startFlag, _ := f.GetString("start")
	endFlag, _ := f.GetString("end")
	limit, _ := f.GetInt("limit")
	offset, _ := f.GetInt("offset")
	includePending, _ := f.GetBool("include-pending")
	includeInvestment, _ := f.GetBool("include-investment")
	matchAny, _ := f.GetBool("match-any")

	dateFilter, err := parseDateFilter(rangeFlag, startFlag, endFlag)
	if err != nil {
		return ExitWithError(ExitUserError, "%v", err)
	}
	filters := buildFilters(cmd)

	session, err := ensureSession(cmd)
	if err != nil {
		return err
	}

	transactions, err := session.Transactions(cmd.Context(), api.TransactionOptions{
		DateFilter:        dateFilter,
		Filters:           filters,
		MatchAny:          matchAny,
		Limit:             limit,
		Offset:            offset,
		IncludePending:    includePending,
		IncludeInvestment: includeInvestment,
	})
	if err != nil {
		return err
	}
	return app.Printer.Records(transactions, app.Format, app.FilePrefix, "transactions")
}

// buildFilters turns the id/name flags into typed search filters.
func buildFilters(cmd *cobra.Command) []api.Filter {
	f := cmd.Flags()
	accountIDs, _ := f.GetStringSlice("account-id")
	categoryIDs, _ := f.GetStringSlice("category-id")
	tagIDs, _ := f.GetStringSlice("tag-id")
	description, _ := f.GetString("description")
	includeChildren, _ := f.GetBool("include-child-categories")

	var filters []api.Filter
	for _, id := range accountIDs {
		filters = append(filters, api.AccountIDFilter{AccountID: id})
	}
	for _, id := range categoryIDs {
		filters = append(filters, api.CategoryIDFilter{CategoryID: id, IncludeChildCategories: includeChildren})
	}
	for _, id := range tagIDs {
		filters = append(filters, api.TagIDFilter{TagID: id})
	}
	if description != "" {
		filters = append(filters, api.DescriptionNameFilter{Description: description})
	}
	return filters
}
