package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/elton-creator/crm-system-v2/internal/model"
	"github.com/elton-creator/crm-system-v2/pkg/database"
	"github.com/elton-creator/crm-system-v2/pkg/logger"
	"github.com/elton-creator/crm-system-v2/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// FunnelRequest defines the structure for funnel creation/update requests
type FunnelRequest struct {
	Name   string          `json:"name"`
	Stages model.StageList `json:"stages"`
}

// ListFunnels returns the tenant's funnels ordered by name.
func ListFunnels(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("funnel", "list")

	sc, ok := requestScope(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var funnels []model.Funnel
	result := database.GetDB().
		Where("client_id = ?", sc.TenantID()).
		Order("name").
		Find(&funnels)
	if result.Error != nil {
		log.Error("Failed to retrieve funnels", zap.Uint("client_id", sc.TenantID()), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve funnels"})
	}

	return c.JSON(http.StatusOK, funnels)
}

// GetFunnel returns one funnel; rows of other tenants are not found.
func GetFunnel(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("funnel", "get")

	sc, ok := requestScope(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid funnel ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var funnel model.Funnel
	result := database.GetDB().
		Where("id = ? AND client_id = ?", uint(id), sc.TenantID()).
		First(&funnel)
	if result.Error != nil {
		log.Warn("Funnel not found",
			zap.Uint64("funnel_id", id),
			zap.Uint("client_id", sc.TenantID()))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "funnel not found"})
	}

	return c.JSON(http.StatusOK, funnel)
}

// CreateFunnel creates a user-defined funnel with the supplied stages. User
// funnels are never defaults; the seeded default funnel stays unique.
func CreateFunnel(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("funnel", "create")

	sc, ok := requestScope(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req FunnelRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	funnel := model.Funnel{
		ClientID:  sc.TenantID(),
		Name:      req.Name,
		Stages:    req.Stages,
		IsDefault: false,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&funnel); result.Error != nil {
		log.Error("Failed to create funnel",
			zap.String("name", req.Name),
			zap.Uint("client_id", sc.TenantID()),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create funnel"})
	}

	log.Info("Funnel created",
		zap.Uint("funnel_id", funnel.ID),
		zap.String("name", funnel.Name),
		zap.Int("stages", len(funnel.Stages)),
		zap.Uint("client_id", funnel.ClientID))
	return c.JSON(http.StatusCreated, funnel)
}

// UpdateFunnel replaces a funnel's name and stage list. Leads referencing a
// stage removed here become stale; no migration is performed.
func UpdateFunnel(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("funnel", "update")

	sc, ok := requestScope(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid funnel ID"})
	}

	var req FunnelRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	var funnel model.Funnel
	result := database.GetDB().
		Where("id = ? AND client_id = ?", uint(id), sc.TenantID()).
		First(&funnel)
	if result.Error != nil {
		log.Warn("Funnel not found",
			zap.Uint64("funnel_id", id),
			zap.Uint("client_id", sc.TenantID()))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "funnel not found"})
	}

	funnel.Name = req.Name
	funnel.Stages = req.Stages

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&funnel); result.Error != nil {
		log.Error("Failed to update funnel", zap.Uint64("funnel_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update funnel"})
	}

	log.Info("Funnel updated",
		zap.Uint("funnel_id", funnel.ID),
		zap.String("name", funnel.Name),
		zap.Int("stages", len(funnel.Stages)))
	return c.JSON(http.StatusOK, funnel)
}

// DeleteFunnel removes a user-defined funnel. The default funnel and other
// tenants' funnels surface as the same not found; a funnel still referenced
// by leads is a conflict.
func DeleteFunnel(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("funnel", "delete")

	sc, ok := requestScope(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid funnel ID"})
	}

	var leadCount int64
	if err := database.GetDB().Model(&model.Lead{}).
		Where("funnel_id = ? AND client_id = ?", uint(id), sc.TenantID()).
		Count(&leadCount).Error; err != nil {
		log.Error("Failed to check funnel usage", zap.Uint64("funnel_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete funnel"})
	}
	if leadCount > 0 {
		log.Warn("Funnel still referenced by leads",
			zap.Uint64("funnel_id", id),
			zap.Int64("leads", leadCount))
		return c.JSON(http.StatusConflict, echo.Map{"error": "funnel still has leads"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().
		Where("id = ? AND client_id = ? AND is_default = ?", uint(id), sc.TenantID(), false).
		Delete(&model.Funnel{})
	if result.Error != nil {
		log.Error("Failed to delete funnel", zap.Uint64("funnel_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete funnel"})
	}
	if result.RowsAffected == 0 {
		log.Warn("Funnel not found or not deletable",
			zap.Uint64("funnel_id", id),
			zap.Uint("client_id", sc.TenantID()))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "funnel not found or cannot be deleted"})
	}

	log.Info("Funnel deleted", zap.Uint64("funnel_id", id), zap.Uint("client_id", sc.TenantID()))
	return c.JSON(http.StatusOK, echo.Map{"message": "funnel deleted successfully"})
}
