// Package export renders the visible ledger as downloadable documents.
// Rendering is pure; delivering the bytes is the caller's job.
package export

import (
	"fmt"
	"time"

	"framex/internal/models"

	"github.com/shopspring/decimal"
)

// DateLayout is the locale-independent date format used in exports.
const DateLayout = "2006-01-02"

// UnknownUser is shown when an entry's paid_by no longer resolves.
const UnknownUser = "Unknown User"

// Format names a supported export document type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps a query value to a Format, defaulting to CSV.
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, true
	case FormatXLSX:
		return FormatXLSX, true
	}
	return "", false
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename suggests a download name such as expense_export_2024-01-31.csv.
func Filename(f Format, now time.Time) string {
	return fmt.Sprintf("expense_export_%s.%s", now.Format(DateLayout), f)
}

// Options controls which columns appear and how dates are rendered.
type Options struct {
	// Role of the requesting user; admins get the extra User column.
	Role models.Role
	// Location for the Date column. Nil means UTC.
	Location *time.Location
}

// table is the column layout shared by every format.
type table struct {
	header     []string
	rows       [][]string
	amounts    []decimal.Decimal // one per row
	paymentCol int
	receiptCol int
}

func buildTable(entries []models.Entry, users []models.User, opts Options) table {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	withUser := opts.Role == models.RoleAdmin

	names := make(map[string]string, len(users))
	for i := range users {
		names[users[i].ID] = users[i].Name
	}

	t := table{header: []string{"Date"}}
	if withUser {
		t.header = append(t.header, "User")
	}
	t.header = append(t.header, "Type", "Paid To / Received From")
	t.paymentCol = len(t.header)
	t.receiptCol = t.paymentCol + 1
	t.header = append(t.header, "Payment", "Receipt", "Cost Center", "Project Code", "Expenses Category", "Nature")

	t.rows = make([][]string, 0, len(entries))
	t.amounts = make([]decimal.Decimal, 0, len(entries))
	for i := range entries {
		e := &entries[i]

		row := make([]string, 0, len(t.header))
		row = append(row, e.CreatedAt.In(loc).Format(DateLayout))
		if withUser {
			name, ok := names[e.PaidBy]
			if !ok {
				name = UnknownUser
			}
			row = append(row, name)
		}

		var payment, receipt string
		amount := e.Amount.StringFixed(2)
		if e.TransactionType == models.TransactionTypePayment {
			payment = amount
		} else {
			receipt = amount
		}

		row = append(row,
			string(e.TransactionType),
			e.Party,
			payment,
			receipt,
			e.CostCenter,
			e.ProjectCode,
			e.ExpensesCategory,
			e.ExpenseNature,
		)
		t.rows = append(t.rows, row)
		t.amounts = append(t.amounts, e.Amount)
	}
	return t
}
