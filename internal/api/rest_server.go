package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/voxel-streamer/internal/logging"
	"github.com/annel0/voxel-streamer/internal/middleware"
	"github.com/annel0/voxel-streamer/internal/render"
	"github.com/annel0/voxel-streamer/internal/vec"
	"github.com/annel0/voxel-streamer/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// ChunkSource - то, что отладочный API читает у менеджера чанков
type ChunkSource interface {
	Stats() world.Stats
	GetChunk(coord vec.Vec2) (*world.Slot, bool)
}

// PublisherSource отдаёт счётчики публикатора (необязателен)
type PublisherSource interface {
	Stats() render.PublisherStats
}

// RestServer - отладочный HTTP-сервер стримера
type RestServer struct {
	router     *gin.Engine
	httpServer *http.Server
	chunks     ChunkSource
	publisher  PublisherSource
	metrics    *ProcessMetrics
	logger     *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port       string                // адрес для запуска сервера, например ":8088"
	Chunks     ChunkSource           // менеджер чанков (обязателен)
	Publisher  PublisherSource       // публикатор сеток
	Registerer prometheus.Registerer // регистр HTTP-метрик; nil - дефолтный
	Gatherer   prometheus.Gatherer   // источник /metrics; nil - дефолтный
	Logger     *logging.Logger
}

// GenericResponse - общий формат ответа
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ChunkInfo - описание резидентного чанка
type ChunkInfo struct {
	X           int    `json:"x"`
	Z           int    `json:"z"`
	Generation  uint64 `json:"generation"`
	State       string `json:"state"`
	SolidBlocks int    `json:"solid_blocks"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}
	if config.Logger == nil {
		config.Logger = logging.Default()
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("voxel_streamer_debug"))
	router.Use(middleware.NewRequestLogger(config.Logger).Handler())

	promMw := middleware.NewPrometheusMiddleware("debug_api", config.Registerer, config.Gatherer)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:    router,
		chunks:    config.Chunks,
		publisher: config.Publisher,
		metrics:   NewProcessMetrics(),
		logger:    config.Logger,
	}
	server.httpServer = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	server.setupRoutes()
	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	api := rs.router.Group("/api")
	{
		api.GET("/stats", rs.handleStats)
		api.GET("/server", rs.handleServerInfo)
		api.GET("/chunks/:x/:z", rs.handleChunk)
	}

	// Health check
	rs.router.GET("/health", rs.handleHealth)
}

// Handler возвращает http.Handler сервера (для тестов и встраивания)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// handleStats возвращает статистику конвейера чанков
func (rs *RestServer) handleStats(c *gin.Context) {
	stats := map[string]interface{}{
		"chunks": rs.chunks.Stats(),
	}
	if rs.publisher != nil {
		stats["publisher"] = rs.publisher.Stats()
	}
	stats["memory"] = rs.metrics.HeapStats()

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// handleServerInfo возвращает информацию о процессе
func (rs *RestServer) handleServerInfo(c *gin.Context) {
	rssMB, _ := rs.metrics.GetRSS()
	cpuPercent, _ := rs.metrics.GetCPUUsage()

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о процессе",
		Data: map[string]interface{}{
			"name":        "voxel-streamer",
			"status":      "running",
			"uptime":      rs.metrics.GetUptime(),
			"rss_mb":      fmt.Sprintf("%.1f", rssMB),
			"cpu_percent": fmt.Sprintf("%.1f", cpuPercent),
		},
	})
}

// handleChunk возвращает состояние резидентного чанка
func (rs *RestServer) handleChunk(c *gin.Context) {
	x, errX := strconv.Atoi(c.Param("x"))
	z, errZ := strconv.Atoi(c.Param("z"))
	if errX != nil || errZ != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Координаты чанка должны быть целыми числами",
		})
		return
	}

	coord := vec.Vec2{X: x, Z: z}
	slot, ok := rs.chunks.GetChunk(coord)
	if !ok {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: fmt.Sprintf("Чанк (%d, %d) вне окна", x, z),
		})
		return
	}

	snap := slot.Snapshot()
	info := ChunkInfo{
		X:          snap.Coord.X,
		Z:          snap.Coord.Z,
		Generation: snap.Generation,
		State:      snap.State.String(),
	}
	if snap.State >= world.StateGenerated && snap.Data != nil {
		info.SolidBlocks = snap.Data.CountSolid()
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Чанк найден",
		Data:    info,
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Start запускает REST сервер и блокируется до Stop
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 Отладочный API доступен по адресу %s", rs.httpServer.Addr)
	if err := rs.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop корректно останавливает REST сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.httpServer.Shutdown(ctx)
}
