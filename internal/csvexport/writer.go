package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row.
var columns = []string{
	"Claim ID",
	"Bill ID",
	"Line No",
	"Description",
	"Quantity",
	"Unit Price",
	"Line Total",
	"Total Mismatch",
	"Currency",
}

// Writer wraps csv.Writer for exporting a bill item list as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteItemList converts a bill item list to CSV rows and writes them, one
// row per line item.
func (w *Writer) WriteItemList(list *domain.BillItemList) error {
	for i := range list.Items {
		row := itemToRow(list, i)
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

func itemToRow(list *domain.BillItemList, idx int) []string {
	item := &list.Items[idx]
	row := make([]string, len(columns))

	row[0] = list.ClaimID
	row[1] = list.BillID
	row[2] = strconv.Itoa(idx + 1)
	row[3] = item.Description
	row[4] = strconv.FormatFloat(item.Quantity, 'f', -1, 64)
	row[5] = formatMoney(item.UnitPrice)
	row[6] = formatMoney(item.LineTotal)
	row[7] = formatBool(item.TotalMismatch)
	row[8] = list.Summary.Currency

	return row
}

// formatMoney renders minor currency units as a decimal string with two
// fractional digits, or empty when the amount is absent.
func formatMoney(v *int64) string {
	if v == nil {
		return ""
	}
	n := *v
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return fmt.Sprintf("%s%d.%02d", sign, n/100, n%100)
}

func formatBool(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a claim identifier for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: {sanitized_claim_id}_{YYYY-MM-DD}.csv
func BuildFilename(claimID string) string {
	sanitized := SanitizeFilename(claimID)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.csv", sanitized, date)
}
