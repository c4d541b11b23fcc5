package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gamexpress/storefront/internal/api"
	"github.com/gamexpress/storefront/internal/app/model"
	"github.com/gamexpress/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Column order of the import sheet. The first row is a header.
const (
	colName = iota
	colSlug
	colPrice
	colStock
	colStatus
	colDescription
	colCategoryID
	colImages
)

// ImportReport summarizes a bulk product import.
type ImportReport struct {
	Rows     int      `json:"rows" yaml:"rows"`
	Created  int      `json:"created" yaml:"created"`
	Skipped  int      `json:"skipped" yaml:"skipped"`
	Failed   int      `json:"failed" yaml:"failed"`
	Problems []string `json:"problems,omitempty" yaml:"problems,omitempty"`
}

type importRow struct {
	line   int
	form   api.ProductForm
	images []string
}

func (s *adminService) ImportProducts(ctx context.Context, path string) (*ImportReport, error) {
	if err := s.requireRole(catalogManagers); err != nil {
		return nil, err
	}

	rows, report, err := readProductsFromXLSX(path)
	if err != nil {
		s.log.Error("Failed to read import file", err, logger.Fields{"path": path})
		return nil, err
	}

	s.log.Info("Importing products", logger.Fields{
		"path":    path,
		"rows":    report.Rows,
		"valid":   len(rows),
		"skipped": report.Skipped,
	})

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.CreateProduct(ctx, row.form, row.images); err != nil {
			report.Failed++
			report.Problems = append(report.Problems, fmt.Sprintf("row %d: %v", row.line, err))
			continue
		}
		report.Created++
	}

	s.log.Info("Product import finished", logger.Fields{
		"created": report.Created,
		"skipped": report.Skipped,
		"failed":  report.Failed,
	})
	return report, nil
}

func readProductsFromXLSX(path string) ([]importRow, *ImportReport, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("no data found in XLSX file")
	}

	report := &ImportReport{}
	var out []importRow
	for i, row := range rows {
		if i == 0 {
			continue
		}
		report.Rows++

		parsed, problem := parseImportRow(row)
		if problem != "" {
			report.Skipped++
			report.Problems = append(report.Problems, fmt.Sprintf("row %d: %s", i+1, problem))
			continue
		}
		parsed.line = i + 1
		out = append(out, parsed)
	}
	return out, report, nil
}

func parseImportRow(row []string) (importRow, string) {
	cell := func(col int) string {
		if col < len(row) {
			return strings.TrimSpace(row[col])
		}
		return ""
	}

	name := cell(colName)
	if name == "" {
		return importRow{}, "missing name"
	}

	price, err := decimal.NewFromString(cell(colPrice))
	if err != nil {
		return importRow{}, "invalid price"
	}

	stock, err := strconv.Atoi(cell(colStock))
	if err != nil {
		return importRow{}, "invalid stock"
	}

	status := model.ProductStatus(cell(colStatus))
	if status == "" {
		status = model.StatusAvailable
		if stock <= 0 {
			status = model.StatusOutOfStock
		}
	}

	categoryID, err := strconv.ParseUint(cell(colCategoryID), 10, 32)
	if err != nil || categoryID == 0 {
		return importRow{}, "invalid category_id"
	}

	var images []string
	for _, ref := range strings.Split(cell(colImages), ";") {
		if ref = strings.TrimSpace(ref); ref != "" {
			images = append(images, ref)
		}
	}

	return importRow{
		form: api.ProductForm{
			Name:        name,
			Slug:        cell(colSlug),
			Price:       price,
			Stock:       stock,
			Status:      status,
			Description: cell(colDescription),
			CategoryID:  uint(categoryID),
		},
		images: images,
	}, ""
}
