package models

// ReportData is the payload for tabular report generation. Columns fix
// the output order; each row maps column name to a rendered cell value.
type ReportData struct {
	Title         string              `json:"title"`
	GeneratedDate string              `json:"generated_date,omitempty"`
	PeriodStart   string              `json:"period_start,omitempty"`
	PeriodEnd     string              `json:"period_end,omitempty"`
	Columns       []string            `json:"columns"`
	Rows          []map[string]string `json:"rows"`
	Summary       map[string]string   `json:"summary,omitempty"`
}

// StatementData is the payload for account statements.
type StatementData struct {
	AccountHolder  string          `json:"account_holder"`
	AccountNumber  string          `json:"account_number"`
	PeriodStart    string          `json:"period_start"`
	PeriodEnd      string          `json:"period_end"`
	OpeningBalance float64         `json:"opening_balance"`
	ClosingBalance float64         `json:"closing_balance"`
	Currency       string          `json:"currency,omitempty"`
	Entries        []StatementLine `json:"entries"`
}

type StatementLine struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Balance     float64 `json:"balance"`
}
