package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/quotify/rfq-extractor/internal/llm"
)

func TestRenderXLSX(t *testing.T) {
	fields := llm.RFQFields{
		Title:                  "Conference furniture",
		Description:            "Seating for the annual conference",
		SubmissionDeadlineDate: "2026-03-01",
		SubmissionDeadlineTime: "17:00",
		BudgetMin:              5000,
		BudgetMax:              8000,
		CurrencyCode:           "EUR",
		RequesterEmail:         "buyer@example.com",
		RequestedProducts: []llm.LineItem{
			{Name: "Folding chair", Quantity: 300, Unit: "pcs", Category: "Furniture"},
			{Name: "Stage podium", Quantity: 1, Specification: "2x1m, wheelchair accessible"},
		},
		Confidence: llm.Confidence{Overall: 0.91},
	}

	out, err := NewService(nil).RenderXLSX(fields)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.ElementsMatch(t, []string{"Summary", "Line Items"}, f.GetSheetList())

	rows, err := f.GetRows("Line Items")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Item", rows[0][0])
	assert.Equal(t, "Folding chair", rows[1][0])
	assert.Equal(t, "300", rows[1][1])
	assert.Equal(t, "Stage podium", rows[2][0])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	found := map[string]string{}
	for _, r := range summary {
		if len(r) >= 2 {
			found[r[0]] = r[1]
		}
	}
	assert.Equal(t, "Conference furniture", found["Title"])
	assert.Equal(t, "2026-03-01 17:00", found["Submission Deadline"])
	assert.Equal(t, "5000.00 - 8000.00 EUR", found["Budget"])
}

func TestRenderXLSXEmptyResult(t *testing.T) {
	out, err := NewService(nil).RenderXLSX(llm.EmptyFields())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Line Items")
	require.NoError(t, err)
	// Header row only.
	require.Len(t, rows, 1)
}
