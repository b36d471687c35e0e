package billparse

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
)

// Extractor is the Maker: it turns one successfully extracted document into a
// structured bill candidate. Header fields provided by the extraction service
// take precedence; anything missing is recovered from the raw text with
// regex heuristics. It implements port.BillExtractor.
type Extractor struct{}

// NewExtractor creates a structured bill extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

var (
	vendorPattern  = regexp.MustCompile(`(?im)^\s*(?:vendor|seller|billed\s+by|from)\s*[:\-]\s*(.+)$`)
	invoicePattern = regexp.MustCompile(`(?im)(?:invoice|bill)\s*(?:no|number|num|#)\s*[:.\-]?\s*([A-Za-z0-9][A-Za-z0-9\-/]*)`)
	datePattern    = regexp.MustCompile(`(?im)(?:date|dated|bill\s+date|invoice\s+date)\s*[:\-]?\s*([0-9]{4}-[0-9]{2}-[0-9]{2}|[0-9]{1,2}[/\-][0-9]{1,2}[/\-][0-9]{2,4}|[A-Za-z]{3,9}\.?\s+[0-9]{1,2},?\s+[0-9]{4})`)
	totalPattern   = regexp.MustCompile(`(?im)(?:grand\s+total|total\s+amount|amount\s+due|total)\s*[:\-]?\s*(?:[A-Z]{3}|[$₹€£])?\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)

	// line items: description, optional quantity and unit price, trailing amount
	itemFullPattern   = regexp.MustCompile(`^(.{2,}?)\s{2,}([0-9]+(?:\.[0-9]+)?)\s+(?:x\s+|@\s+)?([0-9][0-9,]*(?:\.[0-9]{1,2})?)\s+([0-9][0-9,]*(?:\.[0-9]{1,2})?)$`)
	itemAmountPattern = regexp.MustCompile(`^(.{2,}?)\s{2,}([0-9][0-9,]*\.[0-9]{2})$`)

	// checked in order so symbol detection stays deterministic
	currencySymbols = []struct{ symbol, code string }{
		{"₹", "INR"}, {"$", "USD"}, {"€", "EUR"}, {"£", "GBP"},
	}

	dateLayouts = []string{"2006-01-02", "02/01/2006", "01/02/2006", "02-01-2006", "2/1/2006", "02/01/06", "Jan 2, 2006", "Jan 2 2006", "January 2, 2006"}

	// lines that look like headers or totals, not billable items
	nonItemWords = regexp.MustCompile(`(?i)^(?:sub\s*)?total|^tax|^gst|^vat|^discount|^balance|^amount|^qty|^quantity|^description|^invoice|^bill|^date|^page\b`)
)

// Extract parses header fields and line items from the extracted document.
// Missing optional fields (date, currency, vendor) are not fatal; the only
// fatal condition is a document with neither line items nor a derivable
// total.
func (e *Extractor) Extract(doc *domain.ExtractedDocument) (*domain.BillCandidate, error) {
	if doc.Status != domain.ExtractionSucceeded {
		return nil, fmt.Errorf("document %q was not extracted: %s", doc.Ref.Location, doc.Error)
	}

	candidate := &domain.BillCandidate{Ref: doc.Ref}

	candidate.VendorName = firstNonEmpty(doc.Fields["vendor_name"], matchOne(vendorPattern, doc.Text))
	candidate.InvoiceNumber = firstNonEmpty(doc.Fields["invoice_number"], matchOne(invoicePattern, doc.Text))
	candidate.Currency = firstNonEmpty(doc.Fields["currency"], detectCurrency(doc.Text))
	candidate.BillDate = parseDate(firstNonEmpty(doc.Fields["bill_date"], matchOne(datePattern, doc.Text)))

	if raw, ok := doc.Fields["total_amount"]; ok {
		candidate.Total = parseMoney(raw)
	}
	if candidate.Total == nil {
		candidate.Total = parseMoney(matchOne(totalPattern, doc.Text))
	}

	candidate.Items = parseLineItems(doc.Text)

	if len(candidate.Items) == 0 && candidate.Total == nil {
		return nil, fmt.Errorf("document %q: %w", doc.Ref.Location, domain.ErrNoBillableContent)
	}
	return candidate, nil
}

func parseLineItems(text string) []domain.LineItem {
	var items []domain.LineItem
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || nonItemWords.MatchString(trimmed) {
			continue
		}

		if m := itemFullPattern.FindStringSubmatch(line); m != nil {
			qty, err := strconv.ParseFloat(m[2], 64)
			if err != nil || qty < 0 {
				continue
			}
			item := domain.LineItem{
				Description: strings.TrimSpace(m[1]),
				Quantity:    qty,
				UnitPrice:   parseMoney(m[3]),
				LineTotal:   parseMoney(m[4]),
			}
			// derived total is qty x unit price; disagreement is tolerated but recorded
			if item.UnitPrice != nil && item.LineTotal != nil {
				derived := int64(math.Round(item.Quantity * float64(*item.UnitPrice)))
				if derived != *item.LineTotal {
					item.TotalMismatch = true
				}
			}
			items = append(items, item)
			continue
		}

		if m := itemAmountPattern.FindStringSubmatch(line); m != nil {
			items = append(items, domain.LineItem{
				Description: strings.TrimSpace(m[1]),
				Quantity:    1,
				LineTotal:   parseMoney(m[2]),
			})
		}
	}
	return items
}

// parseMoney converts a decimal amount string to minor currency units,
// rounding half-up beyond two decimal places. Returns nil when the string is
// not a parsable amount.
func parseMoney(s string) *int64 {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimLeft(s, "-$₹€£ ")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return nil
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	major, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || major < 0 {
		return nil
	}
	var minor int64
	if frac != "" {
		roundUp := len(frac) > 2 && frac[2] >= '5'
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		minor, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return nil
		}
		if roundUp {
			minor++
		}
	}
	v := major*100 + minor
	if neg {
		v = -v
	}
	return &v
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(strings.ReplaceAll(s, ".", ""))
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func detectCurrency(text string) string {
	for _, c := range currencySymbols {
		if strings.Contains(text, c.symbol) {
			return c.code
		}
	}
	return ""
}

func matchOne(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
