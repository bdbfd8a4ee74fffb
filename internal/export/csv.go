package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"framex/internal/models"
)

// CSV renders entries as a comma-separated document: a header row, then
// one row per entry in input order. Fields containing a comma, quote or
// line break are quoted with inner quotes doubled.
func CSV(entries []models.Entry, users []models.User, opts Options) ([]byte, error) {
	t := buildTable(entries, users, opts)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(t.rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
