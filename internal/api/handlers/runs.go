package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/drivesynth/internal/export"
	"github.com/langchou/drivesynth/internal/generator"
	"github.com/langchou/drivesynth/internal/models"
	"github.com/langchou/drivesynth/internal/service"
	"github.com/langchou/drivesynth/internal/vehicle"
)

// createRunRequest 创建任务请求
type createRunRequest struct {
	Duration    float64 `json:"duration" binding:"required"`
	ProfileType string  `json:"profile_type" binding:"required"`
	VehicleType string  `json:"vehicle_type" binding:"required"`
	Seed        *uint64 `json:"seed"`
}

// ListVehicles 获取车型参数和可用工况
func (h *Handler) ListVehicles(c *gin.Context) {
	vehicles := make(map[string]models.VehicleParameters)
	for _, t := range vehicle.Types() {
		vehicles[t], _ = vehicle.Lookup(t)
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"vehicles": vehicles,
			"profiles": vehicle.Profiles(),
		},
	})
}

// CreateRun 创建并执行生成任务
// POST /api/runs
func (h *Handler) CreateRun(c *gin.Context) {
	var req createRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	run, err := h.runService.Submit(c.Request.Context(), models.Scenario{
		ProfileType: req.ProfileType,
		VehicleType: req.VehicleType,
		Duration:    req.Duration,
		Seed:        req.Seed,
	})
	switch {
	case errors.Is(err, generator.ErrInvalidScenario):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.Error("Failed to run generation", zap.Error(err))
		body := gin.H{"error": err.Error()}
		if run != nil {
			body["data"] = run
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": run})
}

// ListRuns 获取任务列表
func (h *Handler) ListRuns(c *gin.Context) {
	page, perPage, offset := pagination(c, 20, 100)

	runs, total, err := h.runService.List(c.Request.Context(), perPage, offset)
	if err != nil {
		h.logger.Error("Failed to list runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": runs,
		"pagination": gin.H{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}

// GetRun 获取任务详情
func (h *Handler) GetRun(c *gin.Context) {
	run, err := h.runService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": run})
}

// GetRunSamples 分页获取任务采样数据
func (h *Handler) GetRunSamples(c *gin.Context) {
	page, perPage, offset := pagination(c, 1000, 10000)

	samples, total, err := h.runService.Samples(c.Request.Context(), c.Param("id"), perPage, offset)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": samples,
		"pagination": gin.H{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}

// DownloadRunCSV 以 CSV 下载任务结果
func (h *Handler) DownloadRunCSV(c *gin.Context) {
	table, err := h.runService.Table(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, table.TestID()))
	c.Status(http.StatusOK)
	if err := export.WriteCSV(c.Writer, table); err != nil {
		h.logger.Error("Failed to write csv", zap.String("run_id", c.Param("id")), zap.Error(err))
	}
}

func (h *Handler) respondLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRunNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
	case errors.Is(err, service.ErrRunNotReady):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Failed to load run", zap.String("run_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load run"})
	}
}
