package api

import (
	"encoding/json"
	"fmt"
	"time"
)

// Filter is one typed search filter. Each variant serializes as a tagged JSON
// object with a "type" discriminator matching the service's wire format.
type Filter interface {
	filterType() string
}

// AccountIDFilter matches transactions belonging to one account.
type AccountIDFilter struct {
	AccountID string `json:"accountId"`
}

func (AccountIDFilter) filterType() string { return "AccountIdFilter" }

// CategoryIDFilter matches transactions in a category by id.
type CategoryIDFilter struct {
	CategoryID             string `json:"categoryId"`
	IncludeChildCategories bool   `json:"includeChildCategories"`
}

func (CategoryIDFilter) filterType() string { return "CategoryIdFilter" }

// CategoryNameFilter matches transactions in a category by name.
type CategoryNameFilter struct {
	CategoryName           string `json:"categoryName"`
	IncludeChildCategories bool   `json:"includeChildCategories"`
	Exclude                bool   `json:"exclude"`
}

func (CategoryNameFilter) filterType() string { return "CategoryNameFilter" }

// DescriptionNameFilter matches transactions by description text.
type DescriptionNameFilter struct {
	Description string `json:"description"`
}

func (DescriptionNameFilter) filterType() string { return "DescriptionNameFilter" }

// TagIDFilter matches transactions carrying a tag by id.
type TagIDFilter struct {
	TagID string `json:"tagId"`
}

func (TagIDFilter) filterType() string { return "TagIdFilter" }

// TagNameFilter matches transactions carrying a tag by name.
type TagNameFilter struct {
	TagName string `json:"tagName"`
	Exclude bool   `json:"exclude"`
}

func (TagNameFilter) filterType() string { return "TagNameFilter" }

// The alias types below strip the MarshalJSON method so the discriminator can
// be prepended without recursing.

func (f AccountIDFilter) MarshalJSON() ([]byte, error) {
	type alias AccountIDFilter
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{f.filterType(), alias(f)})
}

func (f CategoryIDFilter) MarshalJSON() ([]byte, error) {
	type alias CategoryIDFilter
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{f.filterType(), alias(f)})
}

func (f CategoryNameFilter) MarshalJSON() ([]byte, error) {
	type alias CategoryNameFilter
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{f.filterType(), alias(f)})
}

func (f DescriptionNameFilter) MarshalJSON() ([]byte, error) {
	type alias DescriptionNameFilter
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{f.filterType(), alias(f)})
}

func (f TagIDFilter) MarshalJSON() ([]byte, error) {
	type alias TagIDFilter
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{f.filterType(), alias(f)})
}

func (f TagNameFilter) MarshalJSON() ([]byte, error) {
	type alias TagNameFilter
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{f.filterType(), alias(f)})
}

// UnmarshalFilter decodes a tagged filter object back into its variant.
func UnmarshalFilter(data []byte) (Filter, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parsing filter: %w", err)
	}

	var (
		f   Filter
		err error
	)
	switch probe.Type {
	case "AccountIdFilter":
		var v AccountIDFilter
		err, f = json.Unmarshal(data, &v), v
	case "CategoryIdFilter":
		var v CategoryIDFilter
		err, f = json.Unmarshal(data, &v), v
	case "CategoryNameFilter":
		var v CategoryNameFilter
		err, f = json.Unmarshal(data, &v), v
	case "DescriptionNameFilter":
		var v DescriptionNameFilter
		err, f = json.Unmarshal(data, &v), v
	case "TagIdFilter":
		var v TagIDFilter
		err, f = json.Unmarshal(data, &v), v
	case "TagNameFilter":
		var v TagNameFilter
		err, f = json.Unmarshal(data, &v), v
	default:
		return nil, fmt.Errorf("unknown filter type %q", probe.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", probe.Type, err)
	}
	return f, nil
}

// DateWindow is a named date range understood by the service.
type DateWindow string

const (
	Last7Days    DateWindow = "LAST_7_DAYS"
	Last14Days   DateWindow = "LAST_14_DAYS"
	ThisMonth    DateWindow = "THIS_MONTH"
	LastMonth    DateWindow = "LAST_MONTH"
	Last3Months  DateWindow = "LAST_3_MONTHS"
	Last6Months  DateWindow = "LAST_6_MONTHS"
	Last12Months DateWindow = "LAST_12_MONTHS"
	ThisYear     DateWindow = "THIS_YEAR"
	LastYear     DateWindow = "LAST_YEAR"
	AllTime      DateWindow = "ALL_TIME"
	Custom       DateWindow = "CUSTOM"
)

const dateLayout = "2006-01-02"

// DateFilter selects a date range: either a named window, or CUSTOM with an
// explicit start/end pair.
type DateFilter struct {
	Window DateWindow
	Start  time.Time
	End    time.Time
}

// CustomDateFilter builds a CUSTOM date filter over [start, end].
func CustomDateFilter(start, end time.Time) DateFilter {
	return DateFilter{Window: Custom, Start: start, End: end}
}

func (d DateFilter) MarshalJSON() ([]byte, error) {
	window := d.Window
	if window == "" {
		window = AllTime
	}
	if window != Custom {
		return json.Marshal(map[string]string{"type": string(window)})
	}
	return json.Marshal(map[string]string{
		"type":      string(Custom),
		"startDate": d.Start.Format(dateLayout),
		"endDate":   d.End.Format(dateLayout),
	})
}

func (d *DateFilter) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type      string `json:"type"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Window = DateWindow(raw.Type)
	if d.Window != Custom {
		return nil
	}
	start, err := time.Parse(dateLayout, raw.StartDate)
	if err != nil {
		return fmt.Errorf("parsing startDate: %w", err)
	}
	end, err := time.Parse(dateLayout, raw.EndDate)
	if err != nil {
		return fmt.Errorf("parsing endDate: %w", err)
	}
	d.Start, d.End = start, end
	return nil
}

// ReportView selects the trends report kind.
type ReportView string

const (
	SpendingTime     ReportView = "SPENDING_TIME"
	SpendingCategory ReportView = "SPENDING_CATEGORY"
	SpendingMerchant ReportView = "SPENDING_MERCHANT"
	SpendingTag      ReportView = "SPENDING_TAG"
	IncomeTime       ReportView = "INCOME_TIME"
	IncomeCategory   ReportView = "INCOME_CATEGORY"
	IncomeMerchant   ReportView = "INCOME_MERCHANT"
	IncomeTag        ReportView = "INCOME_TAG"
	AssetsTime       ReportView = "ASSETS_TIME"
	AssetsType       ReportView = "ASSETS_TYPE"
	AssetsAccount    ReportView = "ASSETS_ACCOUNT"
	DebtsTime        ReportView = "DEBTS_TIME"
	DebtsType        ReportView = "DEBTS_TYPE"
	DebtsAccount     ReportView = "DEBTS_ACCOUNT"
	NetWorthView     ReportView = "NET_WORTH"
	NetIncome        ReportView = "NET_INCOME"
)

func (v ReportView) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"type": string(v)})
}

func (v *ReportView) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = ReportView(raw.Type)
	return nil
}

// FilterClause is one half of the composite search filter: either the
// match-all or the match-any side.
type FilterClause struct {
	MatchAll bool     `json:"matchAll"`
	Filters  []Filter `json:"filters"`
}

func (c *FilterClause) UnmarshalJSON(data []byte) error {
	var raw struct {
		MatchAll bool              `json:"matchAll"`
		Filters  []json.RawMessage `json:"filters"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.MatchAll = raw.MatchAll
	c.Filters = make([]Filter, 0, len(raw.Filters))
	for _, msg := range raw.Filters {
		f, err := UnmarshalFilter(msg)
		if err != nil {
			return err
		}
		c.Filters = append(c.Filters, f)
	}
	return nil
}

// BuildSearchFilters routes a flat list of filters into exactly one of the
// two clauses. Both clauses are always emitted; the other stays empty.
func BuildSearchFilters(filters []Filter, matchAny bool) []FilterClause {
	all := FilterClause{MatchAll: true, Filters: []Filter{}}
	anyOf := FilterClause{MatchAll: false, Filters: []Filter{}}
	if matchAny {
		anyOf.Filters = append(anyOf.Filters, filters...)
	} else {
		all.Filters = append(all.Filters, filters...)
	}
	return []FilterClause{all, anyOf}
}

// SearchPayload is the POST body for the transaction search and trends
// endpoints.
type SearchPayload struct {
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchFilters []FilterClause `json:"searchFilters"`
	DateFilter    DateFilter     `json:"dateFilter"`
	ReportView    *ReportView    `json:"reportView,omitempty"`
}
