package dedup

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
)

// unknownToken stands in for a missing header field. Absence is part of the
// canonical form, not an error: two bills that both lack a date still compare
// equal on that field.
const unknownToken = "unknown"

var (
	punctPattern = regexp.MustCompile(`[^\pL\pN\s]+`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// normalizeText case-folds, strips punctuation, and collapses runs of
// whitespace so that formatting noise from extraction never reaches the hash.
func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = punctPattern.ReplaceAllString(s, " ")
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func normalizeDate(c *domain.BillCandidate) string {
	if c.BillDate == nil {
		return unknownToken
	}
	return c.BillDate.UTC().Format("2006-01-02")
}

func normalizeAmount(v *int64) string {
	if v == nil {
		return unknownToken
	}
	return strconv.FormatInt(*v, 10)
}

// itemTuple is one canonicalized line item.
type itemTuple struct {
	desc  string
	qty   string
	price string
	total string
}

// CanonicalBytes deterministically serializes a candidate's canonical form:
// normalized header fields followed by line-item tuples sorted by normalized
// description then price, so extraction-order differences never change the
// result. It fails only when the candidate has no computable fields at all.
func CanonicalBytes(c *domain.BillCandidate) ([]byte, error) {
	vendor := normalizeText(c.VendorName)
	invoice := normalizeText(c.InvoiceNumber)
	date := normalizeDate(c)
	total := normalizeAmount(c.Total)

	if vendor == "" && invoice == "" && date == unknownToken && total == unknownToken && len(c.Items) == 0 {
		return nil, &FingerprintError{Ref: c.Ref, Reason: "no canonicalizable fields"}
	}

	tuples := make([]itemTuple, 0, len(c.Items))
	for i := range c.Items {
		item := &c.Items[i]
		tuples = append(tuples, itemTuple{
			desc:  normalizeText(item.Description),
			qty:   strconv.FormatFloat(item.Quantity, 'f', -1, 64),
			price: normalizeAmount(item.UnitPrice),
			total: normalizeAmount(item.LineTotal),
		})
	}
	sort.Slice(tuples, func(i, j int) bool {
		if tuples[i].desc != tuples[j].desc {
			return tuples[i].desc < tuples[j].desc
		}
		if tuples[i].price != tuples[j].price {
			return tuples[i].price < tuples[j].price
		}
		return tuples[i].total < tuples[j].total
	})

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "vendor=%s\n", vendor)
	fmt.Fprintf(&buf, "invoice=%s\n", invoice)
	fmt.Fprintf(&buf, "date=%s\n", date)
	fmt.Fprintf(&buf, "total=%s\n", total)
	fmt.Fprintf(&buf, "currency=%s\n", normalizeText(c.Currency))
	for _, t := range tuples {
		fmt.Fprintf(&buf, "item=%s|%s|%s|%s\n", t.desc, t.qty, t.price, t.total)
	}
	return buf.Bytes(), nil
}
