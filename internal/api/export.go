package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"labpulse/internal/exporter"
	"labpulse/internal/ranking"
)

const exportTTL = 10 * time.Minute

// ExportRequest 导出请求
type ExportRequest struct {
	selectorParams
	Metric         string   `json:"metric"`
	ComplianceSort string   `json:"complianceSort"`
	Views          []string `json:"views"` // dashboard / rankings / compliance，为空时全部导出
}

// ExportResponse 导出结果
type ExportResponse struct {
	Token       string `json:"token"`
	Filename    string `json:"filename"`
	DownloadURL string `json:"downloadUrl"`
	ExpiresIn   int    `json:"expiresIn"` // 秒
}

func (r ExportRequest) wants(view string) bool {
	if len(r.Views) == 0 {
		return true
	}
	for _, v := range r.Views {
		if strings.EqualFold(v, view) {
			return true
		}
	}
	return false
}

// Export 生成工作簿并返回一次性下载 token
// POST /api/export
func (h *Handler) Export(c *gin.Context) {
	var body ExportRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req, err := body.request(h.dashboard.DefaultPeriod())
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	var opts exporter.ExportOptions
	var label string

	if body.wants("dashboard") {
		if opts.Dashboard, err = h.dashboard.Dashboard(ctx, req); err != nil {
			respondError(c, err)
			return
		}
		label = opts.Dashboard.Period.Label
	}
	if body.wants("rankings") {
		metric := body.Metric
		if metric == "" {
			metric = ranking.MetricRevenue
		}
		if opts.Ranking, err = h.dashboard.Rankings(ctx, metric, req); err != nil {
			respondError(c, err)
			return
		}
	}
	if body.wants("compliance") {
		if opts.Compliance, err = h.dashboard.Compliance(ctx, body.ComplianceSort, req.Filter); err != nil {
			respondError(c, err)
			return
		}
	}

	f, err := h.exporter.Export(opts, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	if err := os.MkdirAll(h.exportDir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to prepare export directory"})
		return
	}
	filePath := filepath.Join(h.exportDir, fmt.Sprintf("labpulse_export_%s.xlsx", uuid.NewString()))
	if err := f.SaveAs(filePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write workbook"})
		return
	}

	filename := exportFilename(label)
	token := h.downloads.put(filePath, filename, exportTTL)
	c.JSON(http.StatusOK, ExportResponse{
		Token:       token,
		Filename:    filename,
		DownloadURL: "/api/export/download/" + token,
		ExpiresIn:   int(exportTTL.Seconds()),
	})
}

// DownloadExport 下载导出文件（token 一次有效）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}

	item, ok := h.downloads.get(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "download link expired"})
		return
	}
	if _, err := os.Stat(item.filePath); err != nil {
		h.downloads.delete(token)
		c.JSON(http.StatusNotFound, gin.H{"error": "export file not found"})
		return
	}

	c.Header("Content-Disposition", buildExportContentDisposition(item.filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.File(item.filePath)

	h.downloads.delete(token)
	_ = os.Remove(item.filePath)
}

// exportFilename 由时间段标签生成文件名
func exportFilename(label string) string {
	if label == "" {
		return "labpulse-report.xlsx"
	}
	return fmt.Sprintf("labpulse-%s.xlsx", label)
}

func buildExportContentDisposition(filename string) string {
	ascii := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		}
		return -1
	}, filename)
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", ascii, url.PathEscape(filename))
}
