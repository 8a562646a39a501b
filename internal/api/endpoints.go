package api

import "net/http"

const (
	// BaseURL is the primary personal-finance host.
	BaseURL = "https://mint.intuit.com"
	// CreditBaseURL is the sibling credit-data host. Credit endpoints need the
	// browser to have visited this host first so cross-domain cookies exist.
	CreditBaseURL = "https://credit.finance.intuit.com"
	// OverviewURL is where the service lands after a successful sign-in.
	OverviewURL = BaseURL + "/overview"
)

// Endpoint describes one data endpoint of the service: where it lives, which
// JSON field carries the records, and which carries pagination metadata.
type Endpoint struct {
	APIURL      string
	Section     string
	Path        string
	Method      string
	DataKey     string
	MetadataKey string

	// The service buries created/updated timestamps inside each record's
	// metaData blob; these flags say whether to lift them onto the record.
	IncludeCreatedDate bool
	IncludeUpdatedDate bool
}

// URL returns the full request URL for the endpoint.
func (e Endpoint) URL() string {
	return e.APIURL + e.Section + e.Path
}

// Registry of every known endpoint. Static; defined once per resource.
var (
	EndpointAccounts = Endpoint{
		APIURL: BaseURL, Section: "/pfm", Path: "/v1/accounts",
		Method: http.MethodGet, DataKey: "Account", MetadataKey: "metaData",
		IncludeCreatedDate: true, IncludeUpdatedDate: true,
	}
	EndpointBudgets = Endpoint{
		APIURL: BaseURL, Section: "/pfm", Path: "/v1/budgets",
		Method: http.MethodGet, DataKey: "Budget", MetadataKey: "metaData",
		IncludeUpdatedDate: true,
	}
	EndpointBills = Endpoint{
		APIURL: BaseURL, Section: "/bps", Path: "/v2/payer/bills",
		Method: http.MethodGet, DataKey: "bills", MetadataKey: "collectionMetaData",
	}
	EndpointCategories = Endpoint{
		APIURL: BaseURL, Section: "/pfm", Path: "/v1/categories",
		Method: http.MethodGet, DataKey: "Category", MetadataKey: "metaData",
		IncludeCreatedDate: true, IncludeUpdatedDate: true,
	}
	EndpointInvestments = Endpoint{
		APIURL: BaseURL, Section: "/pfm", Path: "/v1/investments",
		Method: http.MethodGet, DataKey: "Investment", MetadataKey: "metaData",
		IncludeCreatedDate: true, IncludeUpdatedDate: true,
	}
	EndpointTransactions = Endpoint{
		APIURL: BaseURL, Section: "/pfm", Path: "/v1/transactions/search",
		Method: http.MethodPost, DataKey: "Transaction", MetadataKey: "metaData",
		IncludeUpdatedDate: true,
	}
	EndpointTrends = Endpoint{
		APIURL: BaseURL, Section: "/pfm", Path: "/v1/trends",
		Method: http.MethodPost, DataKey: "Trend", MetadataKey: "metaData",
	}
	EndpointRefresh = Endpoint{
		APIURL: BaseURL, Path: "/refreshFILogins.xevent",
		Method: http.MethodPost,
	}
	EndpointCreditReports = Endpoint{
		APIURL: CreditBaseURL, Path: "/v1/creditreports",
		Method: http.MethodGet,
	}
	EndpointCreditInquiries = Endpoint{
		APIURL: CreditBaseURL, Path: "/v1/creditreports/0/inquiries",
		Method: http.MethodGet, DataKey: "inquiries",
	}
	EndpointCreditTradelines = Endpoint{
		APIURL: CreditBaseURL, Path: "/v1/creditreports/0/tradelines",
		Method: http.MethodGet, DataKey: "tradelines",
	}
	EndpointCreditUtilization = Endpoint{
		APIURL: CreditBaseURL, Path: "/v1/creditreports/creditutilizationhistory",
		Method: http.MethodGet,
	}
)
