package api

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

const defaultPageLimit = 1000

// AccountOptions shape the accounts call.
type AccountOptions struct {
	Limit int
}

// Accounts returns every account on file.
func (s *Session) Accounts(ctx context.Context, opt AccountOptions) ([]Record, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(orDefault(opt.Limit)))
	records, err := s.Call(ctx, EndpointAccounts, CallOptions{Params: params})
	if err != nil {
		return nil, err
	}
	return liftMetaDates(EndpointAccounts, records), nil
}

// BudgetOptions shape the budgets call. Zero dates default to the trailing
// twelve months through the start of next month.
type BudgetOptions struct {
	Start time.Time
	End   time.Time
	Limit int
}

// Budgets returns budgets overlapping the requested window.
func (s *Session) Budgets(ctx context.Context, opt BudgetOptions) ([]Record, error) {
	start, end := opt.Start, opt.End
	if start.IsZero() || end.IsZero() {
		now := time.Now()
		firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		start = firstOfMonth.AddDate(0, -11, 0)
		end = firstOfMonth.AddDate(0, 1, 0)
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(orDefault(opt.Limit)))
	params.Set("startDate", start.Format(dateLayout))
	params.Set("endDate", end.Format(dateLayout))

	records, err := s.Call(ctx, EndpointBudgets, CallOptions{Params: params})
	if err != nil {
		return nil, err
	}
	return liftMetaDates(EndpointBudgets, records), nil
}

// Bills returns upcoming and recent bills.
func (s *Session) Bills(ctx context.Context) ([]Record, error) {
	records, err := s.Call(ctx, EndpointBills, CallOptions{})
	if err != nil {
		return nil, err
	}
	return liftMetaDates(EndpointBills, records), nil
}

// Categories returns the category tree as a flat list.
func (s *Session) Categories(ctx context.Context, limit int) ([]Record, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(orDefault(limit)))
	records, err := s.Call(ctx, EndpointCategories, CallOptions{Params: params})
	if err != nil {
		return nil, err
	}
	return liftMetaDates(EndpointCategories, records), nil
}

// Investments returns investment holdings.
func (s *Session) Investments(ctx context.Context, limit int) ([]Record, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(orDefault(limit)))
	records, err := s.Call(ctx, EndpointInvestments, CallOptions{Params: params})
	if err != nil {
		return nil, err
	}
	return liftMetaDates(EndpointInvestments, records), nil
}

// TransactionOptions shape a transaction search.
type TransactionOptions struct {
	DateFilter DateFilter
	Filters    []Filter
	// MatchAny routes Filters into the match-any clause instead of match-all.
	MatchAny bool
	Limit    int
	Offset   int
	// The service reports pending and investment transactions alongside
	// settled cash activity; both are dropped unless asked for.
	IncludePending    bool
	IncludeInvestment bool
}

// Transactions searches transactions and filters the result locally.
func (s *Session) Transactions(ctx context.Context, opt TransactionOptions) ([]Record, error) {
	body := &SearchPayload{
		Limit:         orDefault(opt.Limit),
		Offset:        opt.Offset,
		SearchFilters: BuildSearchFilters(opt.Filters, opt.MatchAny),
		DateFilter:    opt.DateFilter,
	}

	records, err := s.Call(ctx, EndpointTransactions, CallOptions{Body: body})
	if err != nil {
		return nil, err
	}
	records = liftMetaDates(EndpointTransactions, records)

	filtered := make([]Record, 0, len(records))
	for _, rec := range records {
		if !opt.IncludePending {
			if pending, _ := rec["isPending"].(bool); pending {
				continue
			}
		}
		if !opt.IncludeInvestment {
			if typ, _ := rec["type"].(string); typ == "InvestmentTransaction" {
				continue
			}
		}
		filtered = append(filtered, rec)
	}
	return filtered, nil
}

// TrendOptions shape a trends report request.
type TrendOptions struct {
	ReportView ReportView
	DateFilter DateFilter
	Filters    []Filter
	MatchAny   bool
	Limit      int
	Offset     int
}

// Trends returns aggregated report rows for the requested view.
func (s *Session) Trends(ctx context.Context, opt TrendOptions) ([]Record, error) {
	view := opt.ReportView
	if view == "" {
		view = SpendingTime
	}
	body := &SearchPayload{
		Limit:         orDefault(opt.Limit),
		Offset:        opt.Offset,
		SearchFilters: BuildSearchFilters(opt.Filters, opt.MatchAny),
		DateFilter:    opt.DateFilter,
		ReportView:    &view,
	}
	records, err := s.Call(ctx, EndpointTrends, CallOptions{Body: body})
	if err != nil {
		return nil, err
	}
	return liftMetaDates(EndpointTrends, records), nil
}

// RefreshAccounts asks the service to re-pull data from upstream financial
// institutions. Fire-and-forget; the response body carries nothing useful.
func (s *Session) RefreshAccounts(ctx context.Context) error {
	_, err := s.execute(ctx, EndpointRefresh.Method, EndpointRefresh.URL(), CallOptions{})
	return err
}

// liftMetaDates applies the metaData contract: where the endpoint declares
// created/updated timestamps, they are lifted from each record's metaData
// blob onto the record itself, and metaData is dropped either way.
func liftMetaDates(ep Endpoint, records []Record) []Record {
	for _, rec := range records {
		md, _ := rec["metaData"].(map[string]any)
		if md != nil {
			if ep.IncludeCreatedDate {
				if v, ok := md["createdDate"]; ok {
					rec["createdDate"] = v
				}
			}
			if ep.IncludeUpdatedDate {
				if v, ok := md["lastUpdatedDate"]; ok {
					rec["lastUpdatedDate"] = v
				}
			}
		}
		delete(rec, "metaData")
	}
	return records
}

func orDefault(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	return limit
}
