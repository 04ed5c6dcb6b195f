package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"minestats/pkg/card"
	"minestats/pkg/logger"
	"minestats/pkg/version"
)

// SVGContentType SVG 卡片的响应类型
const SVGContentType = "image/svg+xml; charset=utf-8"

// Options 服务器选项
type Options struct {
	Mode       string       // gin 模式：debug, release, test
	AllowUsers []string     // 为空时不限制
	Themes     *card.Themes // 为 nil 时只有内置主题
}

// Server HTTP 服务
type Server struct {
	svc     *Service
	themes  *card.Themes
	allow   map[string]struct{}
	engine  *gin.Engine
	started time.Time
	log     *logrus.Entry

	mu         sync.Mutex
	httpServer *http.Server
}

// New 创建服务器并注册路由
func New(svc *Service, opts Options) *Server {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	if opts.Themes == nil {
		opts.Themes = card.NewThemes(nil, "")
	}

	s := &Server{
		svc:     svc,
		themes:  opts.Themes,
		started: time.Now(),
		log:     logger.WithComponent("server"),
	}
	if len(opts.AllowUsers) > 0 {
		s.allow = make(map[string]struct{}, len(opts.AllowUsers))
		for _, u := range opts.AllowUsers {
			s.allow[strings.ToLower(u)] = struct{}{}
		}
	}

	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(accessLog(s.log))
	router.Use(bodyLimit(MaxBodyBytes))
	router.Use(corsMiddleware())

	router.GET("/health", s.healthCheck)
	router.GET("/ip", s.getIP)
	router.GET("/themes", s.getThemes)
	router.GET("/cache/keys", s.getCacheKeys)

	stats := router.Group("/stats")
	{
		stats.GET("", s.getStatsCard)
		stats.GET("/top-langs", s.getTopLangsCard)
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/status", s.getStatus)
	}

	router.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "nothing to see here")
	})

	return router
}

// Handler 返回 http.Handler，测试中直接使用
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start 在指定网络与地址上监听，服务在后台 goroutine 中运行
func (s *Server) Start(network, address string) error {
	ln, err := net.Listen(network, address)
	if err != nil {
		return fmt.Errorf("listen %s %s: %w", network, address, err)
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"network": network,
		"address": ln.Addr().String(),
	}).Info("Starting HTTP server...")

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("HTTP server stopped unexpectedly")
		}
	}()
	return nil
}

// Stop 优雅关闭
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		s.log.WithError(err).Error("Failed to gracefully shutdown server")
		return err
	}
	return nil
}

func (s *Server) allowed(login string) bool {
	if s.allow == nil {
		return true
	}
	_, ok := s.allow[strings.ToLower(login)]
	return ok
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getIP(c *gin.Context) {
	c.String(http.StatusOK, c.ClientIP())
}

func (s *Server) getThemes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"items":   s.themes.Items(),
		"count":   s.themes.Len(),
		"default": s.themes.Default().Name,
	})
}

func (s *Server) getCacheKeys(c *gin.Context) {
	keys := s.svc.CacheKeys()
	c.JSON(http.StatusOK, gin.H{
		"items": keys,
		"count": len(keys),
	})
}

// StatusResponse /api/v1/status 响应
type StatusResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Hostname  string `json:"hostname"`
	Uptime    string `json:"uptime"`
	CacheSize int    `json:"cache_size"`
	Breaker   string `json:"breaker"`
}

func (s *Server) getStatus(c *gin.Context) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	c.JSON(http.StatusOK, StatusResponse{
		Name:      version.Name,
		Version:   version.Version,
		Hostname:  hostname,
		Uptime:    time.Since(s.started).Truncate(time.Second).String(),
		CacheSize: s.svc.CacheSize(),
		Breaker:   s.svc.BreakerState(),
	})
}
