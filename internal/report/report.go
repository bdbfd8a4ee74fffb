// Package report derives the analytics views of the ledger. Every function
// is pure: it reads the entries it is given and never touches storage.
// Receipts are ignored by the chart aggregations; only payments count.
package report

import (
	"slices"
	"time"

	"framex/internal/models"

	"github.com/shopspring/decimal"
)

// MonthLabelLayout renders a month as e.g. "Jan 24".
const MonthLabelLayout = "Jan 06"

// Point is one labelled value of a chart series.
type Point struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// ByCategory sums payment amounts per expenses category, largest first.
// Categories with equal totals keep the order in which they first appear.
func ByCategory(entries []models.Entry) []Point {
	points := []Point{}
	index := make(map[string]int)

	for i := range entries {
		e := &entries[i]
		if !e.IsPayment() {
			continue
		}
		pos, ok := index[e.ExpensesCategory]
		if !ok {
			pos = len(points)
			index[e.ExpensesCategory] = pos
			points = append(points, Point{Label: e.ExpensesCategory, Value: decimal.Zero})
		}
		points[pos].Value = points[pos].Value.Add(e.Amount)
	}

	slices.SortStableFunc(points, func(a, b Point) int {
		return b.Value.Cmp(a.Value)
	})
	return points
}

type monthBucket struct {
	key   int // year*12 + zero-based month
	start time.Time
	total decimal.Decimal
}

// ByMonth sums payment amounts per calendar month of created_at, evaluated
// in loc, oldest month first. Months without payments are omitted.
func ByMonth(entries []models.Entry, loc *time.Location) []Point {
	if loc == nil {
		loc = time.UTC
	}

	var buckets []monthBucket
	index := make(map[int]int)

	for i := range entries {
		e := &entries[i]
		if !e.IsPayment() {
			continue
		}
		t := e.CreatedAt.In(loc)
		key := t.Year()*12 + int(t.Month()) - 1
		pos, ok := index[key]
		if !ok {
			pos = len(buckets)
			index[key] = pos
			buckets = append(buckets, monthBucket{
				key:   key,
				start: time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc),
				total: decimal.Zero,
			})
		}
		buckets[pos].total = buckets[pos].total.Add(e.Amount)
	}

	slices.SortFunc(buckets, func(a, b monthBucket) int {
		return a.key - b.key
	})

	points := make([]Point, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, Point{Label: b.start.Format(MonthLabelLayout), Value: b.total})
	}
	return points
}

// Totals returns the summed payments and receipts of entries.
func Totals(entries []models.Entry) (payments, receipts decimal.Decimal) {
	payments, receipts = decimal.Zero, decimal.Zero
	for i := range entries {
		switch entries[i].TransactionType {
		case models.TransactionTypePayment:
			payments = payments.Add(entries[i].Amount)
		case models.TransactionTypeReceipt:
			receipts = receipts.Add(entries[i].Amount)
		}
	}
	return payments, receipts
}
