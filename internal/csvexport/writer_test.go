package csvexport

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
)

func money(v int64) *int64 { return &v }

func sampleList() *domain.BillItemList {
	return &domain.BillItemList{
		ClaimID: "CLM001",
		BillID:  "BILL_CLM001_abcd1234",
		Items: []domain.LineItem{
			{Description: "Consultation Fee", Quantity: 2, UnitPrice: money(50000), LineTotal: money(100000)},
			{Description: "X-Ray Chest", Quantity: 1, LineTotal: money(35000), TotalMismatch: true},
		},
		Summary: domain.BillSummary{Currency: "INR"},
	}
}

func TestWriter_HeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteItemList(sampleList()))
	w.Flush()
	require.NoError(t, w.Error())

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, columns, records[0])
	assert.Equal(t, []string{
		"CLM001", "BILL_CLM001_abcd1234", "1", "Consultation Fee",
		"2", "500.00", "1000.00", "No", "INR",
	}, records[1])
	assert.Equal(t, []string{
		"CLM001", "BILL_CLM001_abcd1234", "2", "X-Ray Chest",
		"1", "", "350.00", "Yes", "INR",
	}, records[2])
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name     string
		input    *int64
		expected string
	}{
		{"nil", nil, ""},
		{"zero", money(0), "0.00"},
		{"whole units", money(150000), "1500.00"},
		{"sub-unit", money(5), "0.05"},
		{"negative", money(-150050), "-1500.50"},
		{"small negative", money(-7), "-0.07"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatMoney(tt.input))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean name unchanged", "CLM-2026_001", "CLM-2026_001"},
		{"special chars replaced", "claim #42 (final)", "claim_42_final"},
		{"consecutive underscores collapsed", "a///b", "a_b"},
		{"leading and trailing trimmed", "/claim/", "claim"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}

	long := strings.Repeat("a", 150)
	assert.Len(t, SanitizeFilename(long), 100)
}

func TestBuildFilename(t *testing.T) {
	got := BuildFilename("CLM 001")
	assert.Equal(t, "CLM_001_"+time.Now().Format("2006-01-02")+".csv", got)
}
