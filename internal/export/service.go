// Package export renders the needs-review queue into formats reviewers can
// work from offline.
package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/troyfry/workorder-reconciler/constants"
	"github.com/troyfry/workorder-reconciler/internal/repository"
)

const sheetName = "Review Queue"

var headers = []string{
	"Created At", "File Hash", "Sender", "Reason", "Detail",
	"Trust Score", "Confidence", "Pass Agreement", "Candidates", "Raw Text",
}

// Service builds XLSX exports of the review queue.
type Service struct {
	reviews repository.ReviewRepository
	logger  *slog.Logger
}

func NewService(reviews repository.ReviewRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{reviews: reviews, logger: logger}
}

// ReviewQueueXLSX exports up to limit pending review items, newest first.
func (s *Service) ReviewQueueXLSX(ctx context.Context, limit int) ([]byte, error) {
	items, err := s.reviews.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list review items: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_failed", "error", err)
		}
	}()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		s.logger.Warn("export.xlsx.delete_default_sheet_failed", "error", err)
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
	}

	widths := []float64{20, 44, 16, 22, 36, 11, 11, 14, 28, 60}
	for col, w := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, name, name, w); err != nil {
			return nil, err
		}
	}

	for row, it := range items {
		info := constants.Reasons[it.ReasonCode]
		agreement := ""
		if it.PassAgreement != nil {
			agreement = fmt.Sprintf("%t", *it.PassAgreement)
		}
		values := []any{
			it.CreatedAt.Format(time.RFC3339),
			it.FileHash,
			it.SenderKey,
			string(it.ReasonCode),
			info.Message,
			it.TrustScore,
			it.Confidence,
			agreement,
			strings.Join(it.Candidates, ", "),
			truncate(it.RawText, 500),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export.xlsx.ok", "rows", len(items), "bytes", buf.Len())
	return buf.Bytes(), nil
}

// truncate caps s at n runes. OCR raw text is arbitrary UTF-8, so the cut must
// land on a rune boundary or the cell holds invalid bytes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
