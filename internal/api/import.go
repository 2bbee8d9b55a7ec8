package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"labpulse/internal/importer"
	"labpulse/internal/model"
)

// importTypes 路由参数到导入类型
var importTypes = map[string]model.ImportType{
	"weekly":     model.ImportWeeklyVolume,
	"offices":    model.ImportOffices,
	"financials": model.ImportFinancials,
	"auto":       model.ImportAuto,
}

// Import 导入 Excel 数据
// POST /api/import/:type（weekly / offices / financials / auto）
//
// stream=true 时以 SSE 推送进度事件，否则返回最终导入报告。
func (h *Handler) Import(c *gin.Context) {
	importType, ok := importTypes[c.Param("type")]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown import type %q", c.Param("type"))})
		return
	}

	uploadedFile, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing upload file"})
		return
	}

	// 保存到临时目录
	tempFilePath := filepath.Join(os.TempDir(), fmt.Sprintf("labpulse_import_%d_%s", time.Now().UnixNano(), filepath.Base(uploadedFile.Filename)))
	if err := c.SaveUploadedFile(uploadedFile, tempFilePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save upload"})
		return
	}
	defer os.Remove(tempFilePath)

	opts := importer.ImportOptions{
		FilePath: tempFilePath,
		Filename: uploadedFile.Filename,
		Type:     importType,
	}

	if c.Query("stream") != "true" {
		report, err := h.importer.Run(c.Request.Context(), opts)
		h.metrics.ObserveImport(string(importType), err == nil)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, report)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	// SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	success := false
	for event := range h.importer.Import(c.Request.Context(), opts) {
		if event.Type == "done" {
			success = true
		}
		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}
		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
	h.metrics.ObserveImport(string(importType), success)
}
