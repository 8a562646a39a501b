package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// CreditReports fetches up to limit raw credit report objects.
func (s *Session) CreditReports(ctx context.Context, limit int) (map[string]any, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(orDefault(limit)))
	return s.CallRaw(ctx, EndpointCreditReports, CallOptions{Params: params})
}

// CreditScore extracts the current score from the most recent credit report.
func (s *Session) CreditScore(ctx context.Context) (float64, error) {
	reports, err := s.CreditReports(ctx, 1)
	if err != nil {
		return 0, err
	}
	score, ok := digCreditScore(reports)
	if !ok {
		return 0, fmt.Errorf("credit score missing from report: %w", ErrNotFound)
	}
	return score, nil
}

// digCreditScore walks reports.vendorReports[0].creditReportList[0].creditScore.
func digCreditScore(reports map[string]any) (float64, bool) {
	if inner, ok := reports["reports"].(map[string]any); ok {
		reports = inner
	}
	vendors, ok := reports["vendorReports"].([]any)
	if !ok || len(vendors) == 0 {
		return 0, false
	}
	vendor, ok := vendors[0].(map[string]any)
	if !ok {
		return 0, false
	}
	list, ok := vendor["creditReportList"].([]any)
	if !ok || len(list) == 0 {
		return 0, false
	}
	report, ok := list[0].(map[string]any)
	if !ok {
		return 0, false
	}
	score, ok := report["creditScore"].(float64)
	return score, ok
}

// CreditInquiries returns hard inquiries on the most recent report.
func (s *Session) CreditInquiries(ctx context.Context) ([]Record, error) {
	return s.Call(ctx, EndpointCreditInquiries, CallOptions{})
}

// CreditTradelines returns the report's tradelines (one per credit account).
func (s *Session) CreditTradelines(ctx context.Context) ([]Record, error) {
	return s.Call(ctx, EndpointCreditTradelines, CallOptions{})
}

// CreditUtilization returns the utilization history flattened to one record
// per (creditor, year, month).
func (s *Session) CreditUtilization(ctx context.Context) ([]Record, error) {
	raw, err := s.CallRaw(ctx, EndpointCreditUtilization, CallOptions{})
	if err != nil {
		return nil, err
	}
	return FlattenUtilization(raw), nil
}

// CreditReportOptions select which sub-reports to include.
type CreditReportOptions struct {
	Limit              int
	ExcludeInquiries   bool
	ExcludeTradelines  bool
	ExcludeUtilization bool
}

// CreditReport composes the raw reports with the inquiry, tradeline, and
// utilization sub-calls, each suppressible by flag.
func (s *Session) CreditReport(ctx context.Context, opt CreditReportOptions) (Record, error) {
	reports, err := s.CreditReports(ctx, opt.Limit)
	if err != nil {
		return nil, err
	}
	out := Record{"reports": reports}

	if !opt.ExcludeInquiries {
		inquiries, err := s.CreditInquiries(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching inquiries: %w", err)
		}
		out["inquiries"] = inquiries
	}
	if !opt.ExcludeTradelines {
		tradelines, err := s.CreditTradelines(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching tradelines: %w", err)
		}
		out["tradelines"] = tradelines
	}
	if !opt.ExcludeUtilization {
		utilization, err := s.CreditUtilization(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching utilization history: %w", err)
		}
		out["utilization"] = utilization
	}
	return out, nil
}

// FlattenUtilization turns the nested utilization history (cumulative plus
// per-tradeline, nested year → month) into a flat list of records shaped
// {name, date, utilization}. The cumulative series is named "Total"; dates
// land on the first of each month.
func FlattenUtilization(data map[string]any) []Record {
	out := []Record{}
	if data == nil {
		return out
	}
	if cumulative, ok := data["cumulative"].(map[string]any); ok {
		out = append(out, flattenUtilizationSeries("Total", cumulative)...)
	}
	if tradelines, ok := data["tradelines"].([]any); ok {
		for _, t := range tradelines {
			tradeline, ok := t.(map[string]any)
			if !ok {
				continue
			}
			name, _ := tradeline["creditorName"].(string)
			out = append(out, flattenUtilizationSeries(name, tradeline)...)
		}
	}
	return out
}

func flattenUtilizationSeries(name string, series map[string]any) []Record {
	var out []Record
	years, _ := series["creditUtilization"].([]any)
	for _, y := range years {
		yearEntry, ok := y.(map[string]any)
		if !ok {
			continue
		}
		year, ok := yearEntry["year"].(float64)
		if !ok {
			continue
		}
		months, _ := yearEntry["months"].([]any)
		for _, m := range months {
			monthEntry, ok := m.(map[string]any)
			if !ok {
				continue
			}
			monthName, _ := monthEntry["name"].(string)
			month, err := time.Parse("January", monthName)
			if err != nil {
				continue
			}
			utilization, ok := monthEntry["creditUtilization"].(float64)
			if !ok {
				continue
			}
			date := time.Date(int(year), month.Month(), 1, 0, 0, 0, 0, time.UTC)
			out = append(out, Record{
				"name":        name,
				"date":        date.Format(dateLayout),
				"utilization": utilization,
			})
		}
	}
	return out
}

// Account types whose balances count against net worth.
var liabilityAccountTypes = map[string]bool{
	"LoanAccount":   true,
	"CreditAccount": true,
}

// NetWorth sums current balances across active accounts, subtracting loan and
// credit balances.
func (s *Session) NetWorth(ctx context.Context) (float64, error) {
	accounts, err := s.Accounts(ctx, AccountOptions{})
	if err != nil {
		return 0, err
	}
	return NetWorthFromAccounts(accounts), nil
}

// NetWorthFromAccounts computes net worth from already-fetched accounts.
func NetWorthFromAccounts(accounts []Record) float64 {
	var total float64
	for _, acct := range accounts {
		if active, ok := acct["isActive"].(bool); ok && !active {
			continue
		}
		balance, ok := acct["currentBalance"].(float64)
		if !ok {
			continue
		}
		typ, _ := acct["type"].(string)
		if liabilityAccountTypes[typ] {
			total -= balance
		} else {
			total += balance
		}
	}
	return total
}
