package core

// UncategorizedName labels expenses without a category and income without a source.
const UncategorizedName = "Uncategorized"

// CategoryAggregate is one group of expenses summed by category.
type CategoryAggregate struct {
	CategoryID *int64 `json:"category_id"`
	Name       string `json:"category_name"`
	Icon       string `json:"icon"`
	Color      string `json:"color"`
	Count      int64  `json:"count"`
	Total      Money  `json:"total"`
}

// CategoryShare adds the average and the share of the period total.
type CategoryShare struct {
	CategoryAggregate
	Average    Money   `json:"average"`
	Percentage float64 `json:"percentage"`
}

type CategoryBreakdown struct {
	StartDate  Date            `json:"start_date"`
	EndDate    Date            `json:"end_date"`
	Categories []CategoryShare `json:"categories"`
	Total      Money           `json:"total"`
}

// SourceAggregate is one group of income summed by income source.
type SourceAggregate struct {
	SourceID *int64 `json:"source_id"`
	Name     string `json:"source_name"`
	Type     string `json:"source_type"`
	Count    int64  `json:"count"`
	Total    Money  `json:"total"`
}

type SourceShare struct {
	SourceAggregate
	Average    Money   `json:"average"`
	Percentage float64 `json:"percentage"`
}

type IncomeBreakdown struct {
	StartDate Date          `json:"start_date"`
	EndDate   Date          `json:"end_date"`
	Sources   []SourceShare `json:"sources"`
	Total     Money         `json:"total"`
}

// TrendPoint is the income and expense total of one calendar month.
type TrendPoint struct {
	Month     string `json:"month"`
	MonthName string `json:"month_name"`
	Income    Money  `json:"income"`
	Expenses  Money  `json:"expenses"`
}

// Summary is the income/expense overview of a date range.
type Summary struct {
	StartDate          Date                `json:"start_date"`
	EndDate            Date                `json:"end_date"`
	TotalIncome        Money               `json:"total_income"`
	TotalExpenses      Money               `json:"total_expenses"`
	NetSavings         Money               `json:"net_savings"`
	ExpensesByCategory []CategoryAggregate `json:"expenses_by_category"`
}

// BreakdownCategories converts aggregates into shares of their combined total.
// The input order is preserved.
func BreakdownCategories(rows []CategoryAggregate) ([]CategoryShare, Money) {
	var total Money
	for _, r := range rows {
		total = total.Add(r.Total)
	}
	shares := make([]CategoryShare, 0, len(rows))
	for _, r := range rows {
		shares = append(shares, CategoryShare{
			CategoryAggregate: r,
			Average:           r.Total.Average(r.Count),
			Percentage:        Share(r.Total, total),
		})
	}
	return shares, total
}

// BreakdownSources is BreakdownCategories for income sources.
func BreakdownSources(rows []SourceAggregate) ([]SourceShare, Money) {
	var total Money
	for _, r := range rows {
		total = total.Add(r.Total)
	}
	shares := make([]SourceShare, 0, len(rows))
	for _, r := range rows {
		shares = append(shares, SourceShare{
			SourceAggregate: r,
			Average:         r.Total.Average(r.Count),
			Percentage:      Share(r.Total, total),
		})
	}
	return shares, total
}
