package dashboard

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tradeflow/config"
	"tradeflow/internal/app"
	"tradeflow/internal/metrics"
	"tradeflow/internal/sheet"
	"tradeflow/logger"
)

//go:embed templates/*.tmpl
var embeddedFS embed.FS

// gridSheet is the surface the HTTP layer needs from the raw and end-of-day
// tabs: paged display rows plus the view controls.
type gridSheet interface {
	sheet.Sheet
	PageRows(offset, limit int) sheet.Page
	ToggleSort(column string)
	SetFilter(column, state string)
	SetColumns(names []string)
}

// Server hosts the Gin-powered dashboard: the sheet grids, the report
// builder, and the monitoring endpoints.
type Server struct {
	cfg               config.DashboardConfig
	log               *logger.Log
	app               *app.App
	report            *sheet.ReportSheet
	grids             map[string]gridSheet
	metricStore       *metricStore
	logStore          *logStore
	metricHandler     metrics.MetricHandlerID
	httpServer        *http.Server
	refreshIntervalMs int
	resourceSampler   *resourceSampler
}

// NewServer constructs a dashboard server when the dashboard feature is enabled.
// When the dashboard is disabled the returned server will be nil.
func NewServer(cfg config.DashboardConfig, log *logger.Log, a *app.App, report *sheet.ReportSheet, grids ...gridSheet) (*Server, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	cfg.Address = normalizeAddress(cfg.Address)

	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 5 * time.Second
	}
	if cfg.LogHistory <= 0 {
		cfg.LogHistory = 200
	}
	if cfg.MetricsHistory <= 0 {
		cfg.MetricsHistory = 200
	}

	metricStore := newMetricStore(cfg.MetricsHistory)
	handlerID := metrics.RegisterMetricHandler(metricStore.handle)

	logStore := newLogStore(cfg.LogHistory)
	log.AddHook(logStore)

	sampler := newResourceSampler(cfg.MetricsHistory, cfg.RefreshInterval, "/", log)

	byID := make(map[string]gridSheet, len(grids))
	for _, g := range grids {
		byID[g.ID()] = g
	}

	server := &Server{
		cfg:               cfg,
		log:               log,
		app:               a,
		report:            report,
		grids:             byID,
		metricStore:       metricStore,
		logStore:          logStore,
		metricHandler:     handlerID,
		refreshIntervalMs: int(cfg.RefreshInterval / time.Millisecond),
		resourceSampler:   sampler,
	}

	if server.refreshIntervalMs <= 0 {
		server.refreshIntervalMs = int((5 * time.Second) / time.Millisecond)
	}

	return server, nil
}

// Run starts the dashboard HTTP server and blocks until the provided context is
// cancelled or the underlying HTTP server exits with an error.
func (s *Server) Run(ctx context.Context, appName string) error {
	if s == nil {
		return nil
	}

	defer s.cleanup()

	router, err := s.buildRouter(appName)
	if err != nil {
		return err
	}

	if s.resourceSampler != nil {
		s.resourceSampler.start(ctx)
	}

	s.httpServer = &http.Server{
		Addr:    s.cfg.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err == nil {
			return nil
		}
		return err
	}
}

func (s *Server) cleanup() {
	metrics.UnregisterMetricHandler(s.metricHandler)
	if s.logStore != nil {
		s.logStore.close()
	}
	if s.resourceSampler != nil {
		s.resourceSampler.stop()
	}
}

// Address reports the network address the dashboard server listens on.
func (s *Server) Address() string {
	if s == nil {
		return ""
	}
	return s.cfg.Address
}

func (s *Server) buildRouter(appName string) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	// Allow running behind load balancers and accessing the dashboard from
	// public networks by trusting all proxies by default. Users can
	// override Gin's trusted proxy list via the GIN_TRUSTED_PROXIES
	// environment variable if needed.
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	tmpl := template.Must(template.New("dashboard").ParseFS(embeddedFS, "templates/index.tmpl"))
	router.SetHTMLTemplate(tmpl)

	router.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.tmpl", gin.H{
			"AppName":           appName,
			"RefreshIntervalMs": s.refreshIntervalMs,
		})
	})

	s.registerSheetRoutes(router)
	s.registerReportRoutes(router)
	s.registerMonitoringRoutes(router)

	return router, nil
}

func (s *Server) registerSheetRoutes(router *gin.Engine) {
	router.GET("/api/status", func(c *gin.Context) {
		snap := s.app.Snapshot()
		sheets := make([]gin.H, 0, len(s.app.Sheets()))
		for _, sh := range s.app.Sheets() {
			sheets = append(sheets, gin.H{"id": sh.ID(), "title": sh.Title()})
		}
		c.JSON(http.StatusOK, gin.H{
			"status": snap.Status,
			"rows":   snap.Rows,
			"from":   snap.From,
			"to":     snap.To,
			"seq":    snap.Seq,
			"sheets": sheets,
		})
	})

	router.POST("/api/load", func(c *gin.Context) {
		var req struct {
			From string `json:"from"`
			To   string `json:"to"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opID, err := s.app.Load(c.Request.Context(), req.From, req.To)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"op_id": opID})
	})

	router.GET("/api/sheet/:id", func(c *gin.Context) {
		g, ok := s.grids[c.Param("id")]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown sheet"})
			return
		}
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
		c.JSON(http.StatusOK, g.PageRows(offset, limit))
	})

	router.POST("/api/sheet/:id/sort", func(c *gin.Context) {
		g, ok := s.grids[c.Param("id")]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown sheet"})
			return
		}
		var req struct {
			Column string `json:"column"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Column == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "column is required"})
			return
		}
		g.ToggleSort(req.Column)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	router.POST("/api/sheet/:id/filter", func(c *gin.Context) {
		g, ok := s.grids[c.Param("id")]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown sheet"})
			return
		}
		var req struct {
			Column string `json:"column"`
			State  string `json:"state"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Column == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "column is required"})
			return
		}
		g.SetFilter(req.Column, req.State)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	router.POST("/api/sheet/:id/columns", func(c *gin.Context) {
		g, ok := s.grids[c.Param("id")]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown sheet"})
			return
		}
		var req struct {
			Columns []string `json:"columns"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		g.SetColumns(req.Columns)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
}

func (s *Server) registerReportRoutes(router *gin.Engine) {
	router.GET("/api/report", func(c *gin.Context) {
		result, summary := s.report.Result()
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))

		payload := gin.H{
			"params":  s.report.Params(),
			"status":  result.Status,
			"summary": summary,
			"page":    s.report.Page(offset, limit),
		}
		if result.KPIs != nil {
			payload["kpis"] = gin.H{
				"top_sum":    result.KPIs.TopSum,
				"bottom_sum": result.KPIs.BottomSum,
				"total_sum":  result.KPIs.TotalSum,
				"net":        result.KPIs.Net,
			}
		}
		c.JSON(http.StatusOK, payload)
	})

	router.POST("/api/report/apply", func(c *gin.Context) {
		var params sheet.ReportParams
		if err := c.ShouldBindJSON(&params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := s.report.Apply(params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, _ := s.report.Result()
		c.JSON(http.StatusOK, gin.H{"status": result.Status, "rows": result.Table.NumRows()})
	})

	router.POST("/api/report/export/html", func(c *gin.Context) {
		path, err := s.report.ExportHTML(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"path": path})
	})

	router.POST("/api/report/export/parquet", func(c *gin.Context) {
		path, err := s.report.ExportParquet(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"path": path})
	})

	router.GET("/api/report/presets", func(c *gin.Context) {
		names, err := s.report.ListPresets()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if names == nil {
			names = []string{}
		}
		c.JSON(http.StatusOK, gin.H{"presets": names})
	})

	router.POST("/api/report/presets/:name/save", func(c *gin.Context) {
		if err := s.report.SavePreset(c.Param("name")); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	router.POST("/api/report/presets/:name/load", func(c *gin.Context) {
		params, err := s.report.LoadPreset(c.Param("name"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"params": params})
	})
}

func (s *Server) registerMonitoringRoutes(router *gin.Engine) {
	router.GET("/api/metrics", func(c *gin.Context) {
		metricsSnapshot := s.metricStore.snapshot()
		payload := make([]gin.H, 0, len(metricsSnapshot))
		for _, m := range metricsSnapshot {
			payload = append(payload, gin.H{
				"timestamp": m.Timestamp.Format(time.RFC3339Nano),
				"component": m.Component,
				"name":      m.Name,
				"value":     m.Value,
				"type":      m.Type,
				"fields":    m.Fields,
			})
		}
		c.JSON(http.StatusOK, gin.H{"metrics": payload})
	})

	router.GET("/api/logs", func(c *gin.Context) {
		logsSnapshot := s.logStore.snapshot()
		payload := make([]gin.H, 0, len(logsSnapshot))
		for _, l := range logsSnapshot {
			payload = append(payload, gin.H{
				"timestamp": l.Timestamp.Format(time.RFC3339Nano),
				"level":     l.Level,
				"component": l.Component,
				"message":   l.Message,
				"fields":    l.Fields,
			})
		}
		c.JSON(http.StatusOK, gin.H{"logs": payload})
	})

	router.GET("/api/resources", func(c *gin.Context) {
		snapshots := s.resourceSampler.snapshot()
		payload := make([]gin.H, 0, len(snapshots))
		for _, snap := range snapshots {
			payload = append(payload, gin.H{
				"timestamp":      snap.Timestamp.Format(time.RFC3339Nano),
				"cpu_percent":    snap.CPUPercent,
				"memory_used":    snap.MemoryUsed,
				"memory_total":   snap.MemoryTotal,
				"memory_percent": snap.MemoryPct,
				"disk_used":      snap.DiskUsed,
				"disk_total":     snap.DiskTotal,
				"disk_percent":   snap.DiskPct,
			})
		}
		c.JSON(http.StatusOK, gin.H{"resources": payload})
	})
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)

	if addr == "" {
		return "0.0.0.0:8080"
	}

	if strings.Contains(addr, "://") {
		if parsed, err := url.Parse(addr); err == nil {
			if host := parsed.Host; host != "" {
				addr = host
			} else if parsed.Opaque != "" {
				addr = parsed.Opaque
			}
		}
	}

	if strings.HasPrefix(addr, ":") {
		if len(addr) > 1 && addr[1] >= '0' && addr[1] <= '9' {
			return "0.0.0.0" + addr
		}
	}

	host, port, err := net.SplitHostPort(addr)
	if err == nil {
		if host == "" || host == "*" {
			host = "0.0.0.0"
		}
		if port == "" {
			port = "8080"
		}
		return net.JoinHostPort(host, port)
	}

	if ip := net.ParseIP(addr); ip != nil {
		return net.JoinHostPort(addr, "8080")
	}

	if !strings.Contains(addr, ":") {
		return net.JoinHostPort(addr, "8080")
	}

	return addr
}
