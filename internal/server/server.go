package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"labpulse/internal/api"
	"labpulse/internal/config"
	"labpulse/internal/metrics"
	"labpulse/internal/period"
	"labpulse/internal/service/dashboard"
	"labpulse/internal/store"
)

// Server HTTP服务器
type Server struct {
	cfg     *config.AppConfig
	dataDir string
	router  *gin.Engine
	store   *store.Store
	metrics *metrics.Metrics
	api     *api.Handler
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig) (*Server, error) {
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		log.Printf("创建数据目录失败，使用配置路径: %v", err)
		dataDir = cfg.Data.DataDir
	}

	sqliteStore, err := store.New(filepath.Join(dataDir, "labpulse.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	defaultPeriod, err := period.ParseKind(cfg.Dashboard.DefaultPeriod, period.CurrentMonth)
	if err != nil {
		sqliteStore.Close()
		return nil, fmt.Errorf("invalid dashboard.default_period: %w", err)
	}

	m := metrics.New()
	svc := dashboard.New(sqliteStore, sqliteStore, dashboard.Options{
		MaxParallel:      cfg.Dashboard.MaxParallel,
		ComplianceWindow: cfg.Dashboard.ComplianceWindow,
		DefaultPeriod:    defaultPeriod,
		Recorder:         m,
	})

	s := &Server{
		cfg:     cfg,
		dataDir: dataDir,
		router:  gin.New(),
		store:   sqliteStore,
		metrics: m,
		api: api.NewHandler(api.Options{
			Store:     sqliteStore,
			Dashboard: svc,
			Metrics:   m,
			ExportDir: config.ExportDir(cfg),
		}),
	}

	s.setupRoutes(devMode)

	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(devMode bool) {
	s.router.Use(gin.Logger(), gin.Recovery(), s.metrics.Middleware())

	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	apiGroup := s.router.Group("/api")
	{
		s.api.RegisterRoutes(apiGroup)
	}

	if devMode {
		// 开发模式：代理到前端开发服务器
		s.router.NoRoute(func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, "http://localhost:5173"+c.Request.URL.Path)
		})
		return
	}

	s.router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    "labpulse",
			"api":     "/api",
			"metrics": "/metrics",
		})
	})
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// Handler 返回 HTTP 处理器（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close 退出前备份（auto_backup）并关闭数据库
func (s *Server) Close(ctx context.Context) error {
	if s.cfg.Data.AutoBackup {
		path, err := s.store.Backup(ctx, filepath.Join(s.dataDir, "backups"))
		if err != nil {
			log.Printf("退出前备份失败: %v", err)
		} else {
			log.Printf("数据库已备份: %s", path)
		}
	}
	return s.store.Close()
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
