package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/copanier-next/internal/logger"
	"github.com/copanier-next/internal/models"
	"github.com/copanier-next/internal/storage"

	"github.com/xuri/excelize/v2"
)

// 目录导入的必需列；其余列可选
var requiredColumns = []string{"ref", "name", "price"}

// ImportService 目录批量导入：解析 CSV / XLSX，整表校验通过后
// 一次性替换配送目录。任何一行失败都不产生部分写入。
type ImportService struct {
	store *storage.DeliveryStore
	staff []string
}

// NewImportService 创建导入服务
func NewImportService(store *storage.DeliveryStore, staff []string) *ImportService {
	return &ImportService{store: store, staff: staff}
}

// ImportProducts 解析并导入目录。format 为 "csv" 或 "xlsx"。
// 刷新所有商品的报价时间为当前时刻。
func (s *ImportService) ImportProducts(actor models.Person, deliveryID string, format string, r io.Reader) (*models.Delivery, error) {
	if !actor.IsStaff(s.staff) {
		return nil, ErrPermissionDenied
	}
	delivery, err := s.store.Load(deliveryID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrDeliveryNotFound
		}
		return nil, err
	}

	var products []models.Product
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		products, err = ParseProductsCSV(r)
	case "xlsx":
		products, err = ParseProductsXLSX(r)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrUnreadableFile, format)
	}
	if err != nil {
		return nil, err
	}

	delivery.Products = products
	if err := s.store.Persist(delivery); err != nil {
		return nil, err
	}
	logger.Infow("products_imported",
		"delivery_id", delivery.ID,
		"format", format,
		"count", len(products),
		"actor", actor.Email,
	)
	return delivery, nil
}

// ParseProductsCSV 解析分号分隔的目录文件，首行为表头
func ParseProductsCSV(r io.Reader) ([]models.Product, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	return buildProducts(rows)
}

// ParseProductsXLSX 解析 XLSX 目录文件的第一个工作表，首行为表头
func ParseProductsXLSX(r io.Reader) ([]models.Product, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer file.Close()

	sheet := file.GetSheetName(0)
	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	return buildProducts(rows)
}

// buildProducts 把表格行转换成商品列表；表头列名不区分大小写
func buildProducts(rows [][]string) ([]models.Product, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnreadableFile)
	}
	header := map[string]int{}
	for i, name := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, column := range requiredColumns {
		if _, ok := header[column]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumns, column)
		}
	}

	cell := func(row []string, column string) string {
		idx, ok := header[column]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	now := time.Now()
	products := make([]models.Product, 0, len(rows)-1)
	for lineNo, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		price, err := models.ParsePrice(cell(row, "price"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", lineNo+2, err)
		}
		product := models.Product{
			Ref:         cell(row, "ref"),
			Name:        cell(row, "name"),
			Price:       price,
			Unit:        cell(row, "unit"),
			Description: cell(row, "description"),
			Producer:    cell(row, "producer"),
			Rupture:     cell(row, "rupture"),
			LastUpdate:  now,
		}
		if raw := cell(row, "packing"); raw != "" {
			packing, err := strconv.Atoi(raw)
			if err != nil || packing < 0 {
				return nil, fmt.Errorf("row %d: %w", lineNo+2,
					&models.FieldError{Field: "packing", Value: raw, Err: models.ErrInvalidPacking})
			}
			product.Packing = packing
		}
		if err := product.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", lineNo+2, err)
		}
		products = append(products, product)
	}
	return products, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
