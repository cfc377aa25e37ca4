package cashflow

// Category is one account in the planning chart of accounts. Only
// level 0 store accounts appear here; dynamic calc parents are never
// loaded directly.
type Category struct {
	Code string
	Name string
}

// InflowCategories and OutflowCategories fix the account order used
// everywhere downstream: daily detail maps, monthly aggregation and
// ledger export all iterate these slices so output is deterministic.
var InflowCategories = []Category{
	{Code: "411110", Name: "Rooms Only"},
	{Code: "411120", Name: "Retail Web"},
	{Code: "421100", Name: "Breakfast Food Revenue"},
	{Code: "421200", Name: "Lunch Food Revenue"},
	{Code: "421300", Name: "Dinner Food Revenue"},
}

var OutflowCategories = []Category{
	{Code: "611240", Name: "State Unemployment Insurance"},
	{Code: "611350", Name: "Local Other Payroll Tax"},
	{Code: "611410", Name: "Other Payroll Tax 1"},
	{Code: "612110", Name: "Other Pay"},
	{Code: "612510", Name: "Severance Pay"},
	{Code: "612610", Name: "Sick Pay"},
	{Code: "612710", Name: "Holiday Pay"},
	{Code: "710100", Name: "Agency Fees"},
	{Code: "710110", Name: "Ambience"},
	{Code: "710120", Name: "Athletic Supplies"},
	{Code: "710130", Name: "Audit Charges"},
	{Code: "710140", Name: "Bank Charges"},
	{Code: "710150", Name: "Banquet Expenses"},
	{Code: "710220", Name: "Cleaning Supplies"},
	{Code: "710310", Name: "Credit Card Commissions"},
}

// CategoryName resolves an account code to its display name, falling
// back to the code itself for accounts outside the chart.
func CategoryName(code string) string {
	for _, c := range InflowCategories {
		if c.Code == code {
			return c.Name
		}
	}
	for _, c := range OutflowCategories {
		if c.Code == code {
			return c.Name
		}
	}
	return code
}

// IsInflowAccount reports whether the code belongs to the revenue side
// of the chart.
func IsInflowAccount(code string) bool {
	for _, c := range InflowCategories {
		if c.Code == code {
			return true
		}
	}
	return false
}

// IsOutflowAccount reports whether the code belongs to the expense
// side of the chart.
func IsOutflowAccount(code string) bool {
	for _, c := range OutflowCategories {
		if c.Code == code {
			return true
		}
	}
	return false
}

// === GENERATION TABLES ===

// inflowSplit carves gross room revenue into the revenue accounts.
// Shares intentionally sum above 1.0: food and beverage revenue rides
// on top of the room figure rather than splitting it.
var inflowSplit = []struct {
	Code  string
	Share float64
}{
	{"411110", 0.70},
	{"411120", 0.30},
	{"421100", 0.15},
	{"421200", 0.10},
	{"421300", 0.10},
}

// paySchedule gates an expense account to its days of the month.
type paySchedule int

const (
	payDaily paySchedule = iota
	payFirst
	payFifteenth
	payFirstAndFifteenth
)

func (p paySchedule) due(dayOfMonth int) bool {
	switch p {
	case payFirst:
		return dayOfMonth == 1
	case payFifteenth:
		return dayOfMonth == 15
	case payFirstAndFifteenth:
		return dayOfMonth == 1 || dayOfMonth == 15
	default:
		return true
	}
}

// outflowSchedule maps each expense account to its share of the daily
// expense base and its payment calendar. Payroll and the big vendor
// invoices land on the 1st and 15th; the rest accrues daily. Cleaning
// supplies carry the only stochastic share.
var outflowSchedule = []struct {
	Code   string
	Share  float64
	When   paySchedule
	Jitter float64
}{
	{"611240", 0.05, payFirst, 0},
	{"611350", 0.08, payFirstAndFifteenth, 0},
	{"611410", 0.05, payFirstAndFifteenth, 0},
	{"612110", 0.20, payFirstAndFifteenth, 0},
	{"612510", 0.02, payFifteenth, 0},
	{"612610", 0.03, payDaily, 0},
	{"612710", 0.04, payDaily, 0},
	{"710100", 0.08, payDaily, 0},
	{"710110", 0.03, payDaily, 0},
	{"710120", 0.03, payDaily, 0},
	{"710130", 0.05, payFirst, 0},
	{"710140", 0.04, payDaily, 0},
	{"710150", 0.10, payFirstAndFifteenth, 0},
	{"710220", 0.06, payDaily, 0.2},
	{"710310", 0.10, payDaily, 0},
}
