// Package export builds downloadable claim bundles from processed claim
// outputs.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
)

const (
	sheetFinalBill  = "Final Bill"
	sheetLineItems  = "Line Items"
	sheetSupporting = "Supporting Docs"
	sheetAuditLog   = "Audit Log"
)

// WriteBundle renders claim outputs as an .xlsx workbook with one sheet per
// output artifact. Sheets for absent artifacts carry only their header row.
func WriteBundle(claimID string, outputs *domain.ClaimOutputs) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetFinalBill); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetLineItems, sheetSupporting, sheetAuditLog} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	if err := writeFinalBillSheet(f, claimID, outputs.FinalBill); err != nil {
		return nil, err
	}
	if err := writeItemsSheet(f, outputs.BillItemList); err != nil {
		return nil, err
	}
	if err := writeSupportingSheet(f, outputs.SupportingDocMap); err != nil {
		return nil, err
	}
	if err := writeAuditSheet(f, outputs.AuditLog); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeFinalBillSheet(f *excelize.File, claimID string, bill *domain.FinalBill) error {
	rows := [][]any{
		{"Claim ID", claimID},
	}
	if bill != nil {
		rows = append(rows,
			[]any{"Bill ID", bill.BillID},
			[]any{"Document", bill.Ref.Location},
			[]any{"Vendor", bill.VendorName},
			[]any{"Invoice Number", bill.InvoiceNumber},
			[]any{"Bill Date", formatDate(bill.BillDate)},
			[]any{"Currency", bill.Summary.Currency},
			[]any{"Item Count", bill.Summary.ItemCount},
			[]any{"Total", minorUnits(bill.Summary.Total)},
			[]any{"Claimed Total", formatOptMoney(bill.Summary.ClaimedTotal)},
			[]any{"Total Mismatch", bill.Summary.TotalMismatch},
			[]any{"Selected Reason", bill.SelectedReason},
		)
		if bill.DuplicateFlags != nil {
			rows = append(rows,
				[]any{"Has Duplicates", bill.DuplicateFlags.HasDuplicates},
				[]any{"Duplicate Count", bill.DuplicateFlags.DuplicateCount},
			)
		}
	} else {
		rows = append(rows, []any{"Bill ID", "none selected"})
	}
	return writeRows(f, sheetFinalBill, rows)
}

func writeItemsSheet(f *excelize.File, list *domain.BillItemList) error {
	rows := [][]any{
		{"Line No", "Description", "Quantity", "Unit Price", "Line Total", "Total Mismatch"},
	}
	if list != nil {
		for i := range list.Items {
			item := &list.Items[i]
			rows = append(rows, []any{
				i + 1,
				item.Description,
				item.Quantity,
				formatOptMoney(item.UnitPrice),
				formatOptMoney(item.LineTotal),
				item.TotalMismatch,
			})
		}
	}
	return writeRows(f, sheetLineItems, rows)
}

func writeSupportingSheet(f *excelize.File, docMap domain.SupportingDocMap) error {
	rows := [][]any{
		{"Location", "File Name", "Label", "Status", "Duplicate Of", "Detail"},
	}
	for _, entry := range docMap.Ordered() {
		duplicateOf := ""
		if entry.DuplicateOf != nil {
			duplicateOf = entry.DuplicateOf.Location
		}
		rows = append(rows, []any{
			entry.Ref.Location,
			entry.Ref.FileName,
			string(entry.Label),
			string(entry.Status),
			duplicateOf,
			entry.Detail,
		})
	}
	return writeRows(f, sheetSupporting, rows)
}

func writeAuditSheet(f *excelize.File, events []domain.AuditEvent) error {
	rows := [][]any{
		{"Seq", "Timestamp", "Stage", "Subject", "Outcome", "Message"},
	}
	for i := range events {
		ev := &events[i]
		rows = append(rows, []any{
			ev.Seq,
			ev.Timestamp.Format(time.RFC3339),
			string(ev.Stage),
			ev.Subject,
			string(ev.Outcome),
			ev.Message,
		})
	}
	return writeRows(f, sheetAuditLog, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name for row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d on %s: %w", i+1, sheet, err)
		}
	}
	return nil
}

func minorUnits(v int64) float64 {
	return float64(v) / 100
}

func formatOptMoney(v *int64) any {
	if v == nil {
		return ""
	}
	return minorUnits(*v)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
