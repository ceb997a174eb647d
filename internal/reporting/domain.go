// Package reporting aggregates dashboard figures and assembles the tabular
// reports and invoices handed to the document renderers.
package reporting

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kedai-dimesem/storefront/internal/checkout"
	"github.com/kedai-dimesem/storefront/internal/shared"
)

// Stats holds the admin dashboard aggregates.
type Stats struct {
	TotalTransactions int64           `json:"total_transactions"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalProducts     int64           `json:"total_products"`
	TotalUsers        int64           `json:"total_users"`
}

// ReportType selects the rows of a report.
type ReportType string

const (
	ReportTransactions ReportType = "transactions"
	ReportSales        ReportType = "sales"
	ReportProducts     ReportType = "products"
)

// Period bounds the rows of a report by creation date.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// ParseReportType validates a report type. Blank input is rejected.
func ParseReportType(raw string) (ReportType, error) {
	switch t := ReportType(strings.ToLower(strings.TrimSpace(raw))); t {
	case ReportTransactions, ReportSales, ReportProducts:
		return t, nil
	}
	return "", shared.NewValidationError("unknown report type %q", raw)
}

// ParsePeriod validates a period. Blank input means PeriodAll.
func ParsePeriod(raw string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case "":
		return PeriodAll, nil
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodYear, PeriodAll:
		return p, nil
	}
	return "", shared.NewValidationError("unknown report period %q", raw)
}

// Since returns the inclusive lower bound of p relative to now, or nil for
// PeriodAll. week and month are rolling 7 and 30 day windows; today and year
// start at the calendar boundary in now's location.
func (p Period) Since(now time.Time) *time.Time {
	var from time.Time
	switch p {
	case PeriodToday:
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case PeriodWeek:
		from = now.AddDate(0, 0, -7)
	case PeriodMonth:
		from = now.AddDate(0, 0, -30)
	case PeriodYear:
		from = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return nil
	}
	return &from
}

// Row is one report line.
type Row struct {
	Label       string          `json:"label"`
	Description string          `json:"description"`
	Date        *time.Time      `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
}

// Report is a rendered-ready tabular report.
type Report struct {
	Type        ReportType      `json:"type"`
	Period      Period          `json:"period"`
	GeneratedAt time.Time       `json:"generated_at"`
	Rows        []Row           `json:"rows"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
}

// Filename is the download name without extension.
func (r Report) Filename() string {
	return "laporan-" + string(r.Type) + "-" + string(r.Period)
}

// Invoice is the printable view of one transaction.
type Invoice struct {
	Transaction checkout.Transaction
	Subtotal    decimal.Decimal
	Shipping    decimal.Decimal
	Total       decimal.Decimal
	StatusLabel string
}

// NewInvoice derives the monetary lines of an invoice from the stored total.
func NewInvoice(t checkout.Transaction) Invoice {
	return Invoice{
		Transaction: t,
		Subtotal:    t.Subtotal(),
		Shipping:    checkout.ShippingFee,
		Total:       t.TotalAmount,
		StatusLabel: statusLabel(t.Status),
	}
}

// Filename is the download name without extension.
func (i Invoice) Filename() string {
	return "invoice-" + i.Transaction.Code
}

func statusLabel(s checkout.Status) string {
	switch s {
	case checkout.StatusPaid, checkout.StatusCompleted:
		return "LUNAS"
	case checkout.StatusCancelled:
		return "DIBATALKAN"
	}
	return "PENDING"
}
