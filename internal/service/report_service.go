package service

import (
	"errors"
	"fmt"
	"sort"

	"github.com/copanier-next/internal/models"
	"github.com/copanier-next/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ReportService 报表导出：汇总表、分单矩阵、收款对账表和可回导的目录表，
// 全部输出 XLSX。金额在报表边界才舍入到 2 位小数。
type ReportService struct {
	store *storage.DeliveryStore
}

// NewReportService 创建报表服务
func NewReportService(store *storage.DeliveryStore) *ReportService {
	return &ReportService{store: store}
}

func (s *ReportService) load(deliveryID string) (*models.Delivery, error) {
	delivery, err := s.store.Load(deliveryID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrDeliveryNotFound
		}
		return nil, err
	}
	return delivery, nil
}

// Summary 汇总表：每个商品的最终订购总量与金额。
// 订购未截止或仍待整件校正时不可用。
func (s *ReportService) Summary(deliveryID string) ([]byte, error) {
	delivery, err := s.load(deliveryID)
	if err != nil {
		return nil, err
	}
	if !delivery.CanGenerateReports() {
		return nil, ErrReportsNotReady
	}

	file := excelize.NewFile()
	defer file.Close()
	sheet := file.GetSheetName(0)

	if err := file.SetSheetRow(sheet, "A1", &[]interface{}{
		"ref", "product", "producer", "unit", "price", "wanted", "total",
	}); err != nil {
		return nil, err
	}
	row := 2
	for _, product := range delivery.Products {
		wanted := delivery.ProductWanted(product)
		if wanted == 0 {
			continue
		}
		lineTotal := models.NewMoney(product.Price.Decimal.Mul(decimal.NewFromInt(int64(wanted)))).Rounded()
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := file.SetSheetRow(sheet, cell, &[]interface{}{
			product.Ref,
			product.Name,
			product.Producer,
			product.Unit,
			moneyCell(product.Price),
			wanted,
			moneyCell(lineTotal),
		}); err != nil {
			return nil, err
		}
		row++
	}
	cell, _ := excelize.CoordinatesToCellName(1, row+1)
	if err := file.SetSheetRow(sheet, cell, &[]interface{}{
		"total", "", "", "", "", "", moneyCell(delivery.Total()),
	}); err != nil {
		return nil, err
	}

	return writeWorkbook(file)
}

// FullMatrix 分单矩阵：行是商品，列是买家，交叉格是最终数量
func (s *ReportService) FullMatrix(deliveryID string) ([]byte, error) {
	delivery, err := s.load(deliveryID)
	if err != nil {
		return nil, err
	}
	if !delivery.CanGenerateReports() {
		return nil, ErrReportsNotReady
	}

	buyerIDs := make([]string, 0, len(delivery.Orders))
	for buyerID := range delivery.Orders {
		buyerIDs = append(buyerIDs, buyerID)
	}
	sort.Strings(buyerIDs)

	file := excelize.NewFile()
	defer file.Close()
	sheet := file.GetSheetName(0)

	header := []interface{}{"ref", "product", "price"}
	for _, buyerID := range buyerIDs {
		header = append(header, buyerID)
	}
	header = append(header, "wanted")
	if err := file.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	row := 2
	for _, product := range delivery.Products {
		line := []interface{}{product.Ref, product.Name, moneyCell(product.Price)}
		for _, buyerID := range buyerIDs {
			line = append(line, delivery.Orders[buyerID].Get(product.Ref).Quantity())
		}
		line = append(line, delivery.ProductWanted(product))
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := file.SetSheetRow(sheet, cell, &line); err != nil {
			return nil, err
		}
		row++
	}

	footer := []interface{}{"total", "", ""}
	for _, buyerID := range buyerIDs {
		footer = append(footer, moneyCell(delivery.TotalFor(buyerID)))
	}
	footer = append(footer, moneyCell(delivery.Total()))
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := file.SetSheetRow(sheet, cell, &footer); err != nil {
		return nil, err
	}

	return writeWorkbook(file)
}

// Balance 收款对账表：每个买家的应付金额与付款状态
func (s *ReportService) Balance(deliveryID string) ([]byte, error) {
	delivery, err := s.load(deliveryID)
	if err != nil {
		return nil, err
	}

	buyerIDs := make([]string, 0, len(delivery.Orders))
	for buyerID := range delivery.Orders {
		buyerIDs = append(buyerIDs, buyerID)
	}
	sort.Strings(buyerIDs)

	file := excelize.NewFile()
	defer file.Close()
	sheet := file.GetSheetName(0)

	if err := file.SetSheetRow(sheet, "A1", &[]interface{}{"buyer", "amount", "paid"}); err != nil {
		return nil, err
	}
	for i, buyerID := range buyerIDs {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := file.SetSheetRow(sheet, cell, &[]interface{}{
			buyerID,
			moneyCell(delivery.TotalFor(buyerID)),
			delivery.Orders[buyerID].Paid,
		}); err != nil {
			return nil, err
		}
	}

	return writeWorkbook(file)
}

// Products 目录导出；列名与导入格式一致，可直接回导
func (s *ReportService) Products(deliveryID string) ([]byte, error) {
	delivery, err := s.load(deliveryID)
	if err != nil {
		return nil, err
	}

	file := excelize.NewFile()
	defer file.Close()
	sheet := file.GetSheetName(0)

	if err := file.SetSheetRow(sheet, "A1", &[]interface{}{
		"ref", "name", "price", "unit", "description", "packing", "producer", "rupture",
	}); err != nil {
		return nil, err
	}
	for i, product := range delivery.Products {
		var packing interface{}
		if product.HasPacking() {
			packing = product.Packing
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := file.SetSheetRow(sheet, cell, &[]interface{}{
			product.Ref,
			product.Name,
			moneyCell(product.Price),
			product.Unit,
			product.Description,
			packing,
			product.Producer,
			product.Rupture,
		}); err != nil {
			return nil, err
		}
	}

	return writeWorkbook(file)
}

// moneyCell 金额以浮点数写入单元格，便于表格软件直接求和
func moneyCell(m models.Money) float64 {
	value, _ := m.Rounded().Float64()
	return value
}

func writeWorkbook(file *excelize.File) ([]byte, error) {
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook failed: %w", err)
	}
	return buf.Bytes(), nil
}
