package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"labpulse/internal/exporter"
	"labpulse/internal/importer"
	"labpulse/internal/metrics"
	"labpulse/internal/period"
	"labpulse/internal/ranking"
	"labpulse/internal/service/dashboard"
	"labpulse/internal/store"
)

// Handler API 处理器
type Handler struct {
	store     *store.Store
	dashboard *dashboard.Service
	importer  *importer.Coordinator
	exporter  *exporter.Exporter
	metrics   *metrics.Metrics
	exportDir string
	downloads *exportDownloadStore
}

// Options 处理器依赖
type Options struct {
	Store     *store.Store
	Dashboard *dashboard.Service
	Metrics   *metrics.Metrics
	ExportDir string
}

// NewHandler 创建 API 处理器
func NewHandler(opts Options) *Handler {
	return &Handler{
		store:     opts.Store,
		dashboard: opts.Dashboard,
		importer:  importer.NewCoordinator(opts.Store),
		exporter:  exporter.NewExporter(),
		metrics:   opts.Metrics,
		exportDir: opts.ExportDir,
		downloads: newExportDownloadStore(),
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 诊所目录
	router.GET("/offices", h.ListOffices)
	router.GET("/offices/:id/weekly", h.ListWeeklyVolume)
	router.GET("/filters", h.GetFilters)

	// 看板
	router.GET("/period", h.ResolvePeriod)
	router.GET("/dashboard", h.GetDashboard)
	router.GET("/rankings", h.GetRankings)
	router.GET("/rankings/metrics", h.ListRankingMetrics)
	router.GET("/compliance", h.GetCompliance)

	// 数据导入
	router.POST("/import/:type", h.Import)
	router.GET("/imports", h.ListImports)

	// 数据导出
	router.POST("/export", h.Export)
	router.GET("/export/download/:token", h.DownloadExport)
}

// errBadRequest 请求参数错误
var errBadRequest = errors.New("bad request")

// respondError 参数、选择器、指标错误返回 400，其余 500
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, errBadRequest) || errors.Is(err, period.ErrInvalidPeriodSelector) || errors.Is(err, ranking.ErrUnknownMetric) {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
