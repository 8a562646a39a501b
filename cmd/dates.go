package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mintgrab/mintgrab/internal/api"
)

// namedWindows maps --range values to the service's named date windows.
var namedWindows = map[string]api.DateWindow{
	"last-7-days":    api.Last7Days,
	"last-14-days":   api.Last14Days,
	"this-month":     api.ThisMonth,
	"last-month":     api.LastMonth,
	"last-3-months":  api.Last3Months,
	"last-6-months":  api.Last6Months,
	"last-12-months": api.Last12Months,
	"this-year":      api.ThisYear,
	"last-year":      api.LastYear,
	"all-time":       api.AllTime,
}

// parseDateFilter resolves --range or --start/--end into a DateFilter.
// Explicit dates win and become a CUSTOM window; default is all time.
func parseDateFilter(rangeName, start, end string) (api.DateFilter, error) {
	if start != "" || end != "" {
		if rangeName != "" {
			return api.DateFilter{}, fmt.Errorf("--range cannot be combined with --start/--end")
		}
		startDate, endDate, err := parseDatePair(start, end)
		if err != nil {
			return api.DateFilter{}, err
		}
		return api.CustomDateFilter(startDate, endDate), nil
	}

	if rangeName == "" {
		return api.DateFilter{Window: api.AllTime}, nil
	}
	window, ok := namedWindows[strings.ToLower(rangeName)]
	if !ok {
		return api.DateFilter{}, fmt.Errorf("unknown range %q (expected one of %s)", rangeName, windowNames())
	}
	return api.DateFilter{Window: window}, nil
}

func parseDatePair(start, end string) (time.Time, time.Time, error) {
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--start and --end must be supplied together")
	}
	startDate, err := parseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endDate, err := parseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("--end %s is before --start %s", end, start)
	}
	return startDate, endDate, nil
}

// parseDate handles: "2024-01-15", "today", "yesterday", "-7d", "-30d"
func parseDate(input string) (time.Time, error) {
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	today := truncateToDay(time.Now())

	switch input {
	case "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}

	// Relative: -7d, -30d
	if strings.HasPrefix(input, "-") && strings.HasSuffix(input, "d") {
		daysStr := input[1 : len(input)-1]
		days, err := strconv.Atoi(daysStr)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid relative date %q: %w", input, err)
		}
		return today.AddDate(0, 0, -days), nil
	}

	// Absolute: YYYY-MM-DD
	t, err := time.Parse("2006-01-02", input)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD, today, yesterday, or -Nd): %w", input, err)
	}
	return t, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func windowNames() string {
	names := make([]string, 0, len(namedWindows))
	for name := range namedWindows {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
