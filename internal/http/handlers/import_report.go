package handlers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/copanier-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ImportProducts 批量导入目录（multipart 上传 CSV / XLSX）
func (h *Handler) ImportProducts(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "缺少上传文件")
		return
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileHeader.Filename)), ".")
	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "上传文件无法读取")
		return
	}
	defer file.Close()

	delivery, err := h.ImportService.ImportProducts(actor, c.Param("id"), format, file)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, newDeliveryView(delivery))
}

// DownloadReport 下载报表；kind 取 summary / matrix / balance / products
func (h *Handler) DownloadReport(c *gin.Context) {
	deliveryID := resolveDeliveryID(c)
	kind := c.Param("kind")

	var (
		data []byte
		err  error
	)
	switch kind {
	case "summary":
		data, err = h.ReportService.Summary(deliveryID)
	case "matrix":
		data, err = h.ReportService.FullMatrix(deliveryID)
	case "balance":
		data, err = h.ReportService.Balance(deliveryID)
	case "products":
		data, err = h.ReportService.Products(deliveryID)
	default:
		response.BadRequest(c, "未知报表类型")
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("%s-%s.xlsx", strings.ReplaceAll(deliveryID, "/", "-"), kind)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(200, xlsxContentType, data)
}
