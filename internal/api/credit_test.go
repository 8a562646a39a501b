package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"testing"
)

func TestFlattenUtilization(t *testing.T) {
	data := map[string]any{
		"cumulative": map[string]any{
			"creditUtilization": []any{
				map[string]any{
					"year": 2022.0,
					"months": []any{
						map[string]any{"name": "January", "creditUtilization": 0.21},
						map[string]any{"name": "February", "creditUtilization": 0.19},
					},
				},
			},
		},
		"tradelines": []any{
			map[string]any{
				"creditorName": "CAPITAL ONE",
				"creditUtilization": []any{
					map[string]any{
						"year": 2022.0,
						"months": []any{
							map[string]any{"name": "January", "creditUtilization": 0.35},
						},
					},
				},
			},
		},
	}

	got := FlattenUtilization(data)
	want := []Record{
		{"name": "Total", "date": "2022-01-01", "utilization": 0.21},
		{"name": "Total", "date": "2022-02-01", "utilization": 0.19},
		{"name": "CAPITAL ONE", "date": "2022-01-01", "utilization": 0.35},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FlattenUtilization:\n got %v\nwant %v", got, want)
	}

	// Flattening is pure: the same input yields the same output again.
	again := FlattenUtilization(data)
	if !reflect.DeepEqual(got, again) {
		t.Errorf("second call differed:\n got %v\nwant %v", again, got)
	}
}

func TestFlattenUtilization_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
	}{
		{"nil", nil},
		{"empty", map[string]any{}},
		{"unparseable month", map[string]any{
			"cumulative": map[string]any{
				"creditUtilization": []any{
					map[string]any{
						"year":   2022.0,
						"months": []any{map[string]any{"name": "Brumaire", "creditUtilization": 0.5}},
					},
				},
			},
		}},
		{"missing utilization value", map[string]any{
			"cumulative": map[string]any{
				"creditUtilization": []any{
					map[string]any{
						"year":   2022.0,
						"months": []any{map[string]any{"name": "March"}},
					},
				},
			},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlattenUtilization(tt.data)
			if got == nil {
				t.Fatal("want non-nil empty slice")
			}
			if len(got) != 0 {
				t.Errorf("got %v, want empty", got)
			}
		})
	}
}

func TestCreditScore(t *testing.T) {
	report := map[string]any{
		"vendorReports": []any{
			map[string]any{
				"creditReportList": []any{
					map[string]any{"creditScore": 780.0},
				},
			},
		},
	}

	t.Run("top level", func(t *testing.T) {
		session, srv := testSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(report)
		}))
		repoint(t, &EndpointCreditReports, srv)

		score, err := session.CreditScore(context.Background())
		if err != nil {
			t.Fatalf("CreditScore: %v", err)
		}
		if score != 780 {
			t.Errorf("score = %v, want 780", score)
		}
	})

	t.Run("nested under reports", func(t *testing.T) {
		session, srv := testSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"reports": report})
		}))
		repoint(t, &EndpointCreditReports, srv)

		score, err := session.CreditScore(context.Background())
		if err != nil {
			t.Fatalf("CreditScore: %v", err)
		}
		if score != 780 {
			t.Errorf("score = %v, want 780", score)
		}
	})

	t.Run("missing", func(t *testing.T) {
		session, srv := testSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"vendorReports": []any{}})
		}))
		repoint(t, &EndpointCreditReports, srv)

		_, err := session.CreditScore(context.Background())
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestCreditReport_Composition(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/creditreports", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"vendorReports": []any{}})
	})
	mux.HandleFunc("/v1/creditreports/0/tradelines", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"tradelines": []any{
			map[string]any{"creditorName": "CHASE"},
		}})
	})
	mux.HandleFunc("/v1/creditreports/creditutilizationhistory", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"cumulative": map[string]any{}})
	})
	session, srv := testSession(t, mux)
	repoint(t, &EndpointCreditReports, srv)
	repoint(t, &EndpointCreditInquiries, srv)
	repoint(t, &EndpointCreditTradelines, srv)
	repoint(t, &EndpointCreditUtilization, srv)

	out, err := session.CreditReport(context.Background(), CreditReportOptions{
		ExcludeInquiries: true,
	})
	if err != nil {
		t.Fatalf("CreditReport: %v", err)
	}
	if _, ok := out["reports"]; !ok {
		t.Error("missing reports key")
	}
	if _, ok := out["inquiries"]; ok {
		t.Error("inquiries present despite exclusion")
	}
	tradelines, ok := out["tradelines"].([]Record)
	if !ok || len(tradelines) != 1 {
		t.Errorf("tradelines = %v, want one record", out["tradelines"])
	}
	utilization, ok := out["utilization"].([]Record)
	if !ok || len(utilization) != 0 {
		t.Errorf("utilization = %v, want empty slice", out["utilization"])
	}
}

func TestNetWorthFromAccounts(t *testing.T) {
	accounts := []Record{
		{"name": "Checking", "type": "BankAccount", "currentBalance": 5000.0, "isActive": true},
		{"name": "Brokerage", "type": "InvestmentAccount", "currentBalance": 20000.0, "isActive": true},
		{"name": "Visa", "type": "CreditAccount", "currentBalance": 1500.0, "isActive": true},
		{"name": "Mortgage", "type": "LoanAccount", "currentBalance": 12000.0, "isActive": true},
		{"name": "Old savings", "type": "BankAccount", "currentBalance": 9999.0, "isActive": false},
		{"name": "No balance", "type": "BankAccount", "isActive": true},
	}
	got := NetWorthFromAccounts(accounts)
	want := 5000.0 + 20000.0 - 1500.0 - 12000.0
	if got != want {
		t.Errorf("NetWorthFromAccounts = %v, want %v", got, want)
	}
}

func TestNetWorthFromAccounts_Empty(t *testing.T) {
	if got := NetWorthFromAccounts(nil); got != 0 {
		t.Errorf("NetWorthFromAccounts(nil) = %v, want 0", got)
	}
}
