package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"labpulse/internal/model"
	"labpulse/internal/store"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized  bool                `json:"initialized"` // 是否已导入诊所目录
	DBPath       string              `json:"dbPath"`
	Counts       store.TableCounts   `json:"counts"`
	LastImportID string              `json:"lastImportId,omitempty"`
	Settings     map[string]string   `json:"settings"`
	RecentImport *model.ImportReport `json:"recentImport,omitempty"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	counts, err := h.store.GetTableCounts()
	if err != nil {
		respondError(c, err)
		return
	}

	resp := StatusResponse{
		Initialized: counts.Offices > 0,
		DBPath:      h.store.Path(),
		Counts:      counts,
	}
	settings, err := h.store.GetAllSettings()
	if err != nil {
		respondError(c, err)
		return
	}
	resp.Settings = settings
	resp.LastImportID = settings[store.SettingLastImport]
	if logs, err := h.store.ListImportLogs(c.Request.Context(), 1); err == nil && len(logs) > 0 {
		resp.RecentImport = &logs[0]
	}

	c.JSON(http.StatusOK, resp)
}

// ListOffices 诊所目录
// GET /api/offices
func (h *Handler) ListOffices(c *gin.Context) {
	offices, err := h.store.ListOffices(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	type officeItem struct {
		model.Office
		State string `json:"state"`
	}
	items := make([]officeItem, 0, len(offices))
	for _, o := range offices {
		items = append(items, officeItem{Office: o, State: o.State()})
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

// ListWeeklyVolume 诊所某年的周业务量明细
// GET /api/offices/:id/weekly?year=
func (h *Handler) ListWeeklyVolume(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid office id"})
		return
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year is required"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.GetOffice(ctx, id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	weeks, err := h.store.ListWeeklyVolume(ctx, id, year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": model.WeeklyVolumeColumns, "items": weeklyItems(weeks)})
}

type weeklyItem struct {
	model.WeeklyVolume
	Month           int `json:"month"`
	BacklogInLab    int `json:"backlogInLab"`
	BacklogInClinic int `json:"backlogInClinic"`
	TotalUnits      int `json:"totalUnits"`
}

func weeklyItems(weeks []model.WeeklyVolume) []weeklyItem {
	items := make([]weeklyItem, 0, len(weeks))
	for _, w := range weeks {
		lab, clinic, units := model.Totals(w.Counts)
		items = append(items, weeklyItem{
			WeeklyVolume:    w,
			Month:           model.MonthOfWeek(w.Week),
			BacklogInLab:    lab,
			BacklogInClinic: clinic,
			TotalUnits:      units,
		})
	}
	return items
}

// GetFilters 可选筛选值
// GET /api/filters
func (h *Handler) GetFilters(c *gin.Context) {
	values, err := h.dashboard.FilterValues(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, values)
}

// ListImports 最近导入记录
// GET /api/imports
func (h *Handler) ListImports(c *gin.Context) {
	logs, err := h.store.ListImportLogs(c.Request.Context(), 20)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": logs})
}
