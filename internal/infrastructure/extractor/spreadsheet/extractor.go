// Package spreadsheet extracts text from xlsx workbooks, one segment per
// sheet with the sheet name as the segment title.
package spreadsheet

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sachinkm/notebook-assistant/internal/core/domain"
	"github.com/sachinkm/notebook-assistant/internal/core/ports"
)

type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, src *domain.Source) ([]domain.ExtractedSegment, error) {
	reader, err := e.storage.Open(ctx, src.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open source payload: %w", err)
	}
	defer reader.Close()

	workbook, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("parse workbook %s: %w", src.Filename, err)
	}
	defer workbook.Close()

	var segments []domain.ExtractedSegment
	for _, sheet := range workbook.GetSheetList() {
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}

		var lines []string
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " | "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			continue
		}
		segments = append(segments, domain.ExtractedSegment{
			Text:  strings.Join(lines, "\n"),
			Title: sheet,
		})
	}
	return segments, nil
}
