package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/drivesynth/internal/config"
	"github.com/langchou/drivesynth/internal/service"
	"github.com/langchou/drivesynth/pkg/ws"
)

// Handler HTTP 处理器
type Handler struct {
	logger     *zap.Logger
	runService *service.RunService
	wsHub      *ws.Hub
	upgrader   websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	cfg *config.Config,
	runService *service.RunService,
	wsHub *ws.Hub,
) *Handler {
	h := &Handler{
		logger:     logger,
		runService: runService,
		wsHub:      wsHub,
	}
	// 调试模式允许所有来源，否则使用同源检查
	if cfg.Debug {
		h.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}
	return h
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// API 路由
	api := r.Group("/api")
	{
		// 车型与工况
		api.GET("/vehicles", h.ListVehicles)

		// 生成任务
		api.POST("/runs", h.CreateRun)
		api.GET("/runs", h.ListRuns)
		api.GET("/runs/:id", h.GetRun)
		api.GET("/runs/:id/samples", h.GetRunSamples)
		api.GET("/runs/:id/csv", h.DownloadRunCSV)
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)
}

// HandleWebSocket WebSocket 处理
// 可通过 ?run_id= 只订阅单个任务
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn, c.Query("run_id"))
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"ws_clients": h.wsHub.ClientCount(),
	})
}

// pagination 解析分页参数
func pagination(c *gin.Context, defaultPerPage, maxPerPage int) (page, perPage, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > maxPerPage {
		perPage = defaultPerPage
	}
	// 防止 offset 溢出
	if page > math.MaxInt/perPage {
		page = math.MaxInt / perPage
	}
	return page, perPage, (page - 1) * perPage
}
