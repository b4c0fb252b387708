// Package export renders a consolidated extraction as an XLSX workbook:
// a summary sheet with the scalar RFQ fields and a line-item sheet vendors
// can quote against.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/quotify/rfq-extractor/internal/llm"
)

type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

const (
	summarySheet = "Summary"
	itemsSheet   = "Line Items"
)

// RenderXLSX returns an XLSX workbook (as bytes) for one extraction result.
func (s *Service) RenderXLSX(fields llm.RFQFields) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}()

	// excelize creates "Sheet1"; rename it instead of leaving it dangling.
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}

	if err := s.writeSummary(f, fields); err != nil {
		return nil, err
	}
	if err := s.writeLineItems(f, fields.RequestedProducts); err != nil {
		return nil, err
	}

	idx, _ := f.GetSheetIndex(summarySheet)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"items", len(fields.RequestedProducts),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) writeSummary(f *excelize.File, fields llm.RFQFields) error {
	rows := [][2]string{
		{"Title", fields.Title},
		{"Description", fields.Description},
		{"Requirements", fields.Requirements},
		{"Submission Deadline", joinDateTime(fields.SubmissionDeadlineDate, fields.SubmissionDeadlineTime)},
		{"Decision Date", fields.DecisionDate},
		{"Delivery", joinDateTime(fields.DeliveryDate, fields.DeliveryTime)},
		{"Budget", formatBudget(fields.BudgetMin, fields.BudgetMax, fields.CurrencyCode)},
		{"Event Location", fields.EventLocation},
		{"Delivery Address", fields.DeliveryAddress},
		{"Requester", fields.RequesterName},
		{"Email", fields.RequesterEmail},
		{"Phone", fields.RequesterPhone},
		{"Company", fields.CompanyName},
		{"Confidence", fmt.Sprintf("%.2f", fields.Confidence.Overall)},
	}

	row := 1
	for _, kv := range rows {
		if kv[1] == "" {
			continue
		}
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), kv[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), kv[1]); err != nil {
			return err
		}
		row++
	}

	if len(fields.EvaluationCriteria) > 0 {
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), "Evaluation Criteria"); err != nil {
			return err
		}
		for i, c := range fields.EvaluationCriteria {
			if err := f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row+i), c); err != nil {
				return err
			}
		}
	}

	_ = f.SetColWidth(summarySheet, "A", "A", 22)
	_ = f.SetColWidth(summarySheet, "B", "B", 64)
	return nil
}

func (s *Service) writeLineItems(f *excelize.File, items []llm.LineItem) error {
	headers := []string{"Item", "Quantity", "Unit", "Specification", "Category", "Unit Cost"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(itemsSheet, cell, h); err != nil {
			return err
		}
	}

	for r, item := range items {
		values := []any{item.Name, item.Quantity, item.Unit, item.Specification, item.Category, item.UnitCost}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(itemsSheet, cell, v); err != nil {
				return err
			}
		}
	}

	_ = f.SetColWidth(itemsSheet, "A", "A", 32)
	_ = f.SetColWidth(itemsSheet, "B", "C", 10)
	_ = f.SetColWidth(itemsSheet, "D", "D", 48)
	_ = f.SetColWidth(itemsSheet, "E", "E", 18)
	_ = f.SetColWidth(itemsSheet, "F", "F", 12)
	return nil
}

func joinDateTime(date, t string) string {
	switch {
	case date == "":
		return ""
	case t == "":
		return date
	default:
		return date + " " + t
	}
}

func formatBudget(minV, maxV float64, currency string) string {
	if minV == 0 && maxV == 0 {
		return ""
	}
	cur := currency
	if cur != "" {
		cur = " " + cur
	}
	if minV > 0 && maxV > 0 && minV != maxV {
		return fmt.Sprintf("%.2f - %.2f%s", minV, maxV, cur)
	}
	v := maxV
	if v == 0 {
		v = minV
	}
	return fmt.Sprintf("%.2f%s", v, cur)
}
