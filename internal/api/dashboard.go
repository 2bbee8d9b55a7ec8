package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"labpulse/internal/ranking"
)

// ResolvePeriod 解析时间段
// GET /api/period?period=&year=&month=
func (h *Handler) ResolvePeriod(c *gin.Context) {
	req, err := h.bindRequest(c)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := h.dashboard.ResolvePeriod(req.Selector)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetDashboard 看板数据
// GET /api/dashboard?period=&year=&month=&state=&dfo=&model=&completeness=
func (h *Handler) GetDashboard(c *gin.Context) {
	req, err := h.bindRequest(c)
	if err != nil {
		respondError(c, err)
		return
	}
	d, err := h.dashboard.Dashboard(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GetRankings 指标排名
// GET /api/rankings?metric=&period=...
func (h *Handler) GetRankings(c *gin.Context) {
	req, err := h.bindRequest(c)
	if err != nil {
		respondError(c, err)
		return
	}
	metric := c.DefaultQuery("metric", ranking.MetricRevenue)
	rv, err := h.dashboard.Rankings(c.Request.Context(), metric, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rv)
}

// GetCompliance 周提交合规
// GET /api/compliance?sort=current_streak|compliance_rate
func (h *Handler) GetCompliance(c *gin.Context) {
	req, err := h.bindRequest(c)
	if err != nil {
		respondError(c, err)
		return
	}
	cv, err := h.dashboard.Compliance(c.Request.Context(), c.Query("sort"), req.Filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cv)
}

// ListRankingMetrics 可排名指标（方向与展示格式）
// GET /api/rankings/metrics
func (h *Handler) ListRankingMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": ranking.Metrics})
}
