package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/elton-creator/crm-system-v2/internal/model"
	"github.com/elton-creator/crm-system-v2/pkg/database"
	"github.com/elton-creator/crm-system-v2/pkg/logger"
	"github.com/elton-creator/crm-system-v2/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OriginRequest defines the structure for origin creation/update requests
type OriginRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ListOrigins returns the tenant's origins ordered by name.
func ListOrigins(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("origin", "list")

	sc, ok := requestScope(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var origins []model.Origin
	result := database.GetDB().
		Where("client_id = ?", sc.TenantID()).
		Order("name").
		Find(&origins)
	if result.Error != nil {
		log.Error("Failed to retrieve origins", zap.Uint("client_id", sc.TenantID()), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve origins"})
	}

	return c.JSON(http.StatusOK, origins)
}

// CreateOrigin creates a user-defined origin. The (client_id, name) pair is
// unique; a duplicate is a conflict, and user-created origins are never
// defaults.
func CreateOrigin(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("origin", "create")

	sc, ok := requestScope(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req OriginRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	origin := model.Origin{
		ClientID:  sc.TenantID(),
		Name:      req.Name,
		Color:     req.Color,
		IsDefault: false,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&origin); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			log.Warn("Origin already exists",
				zap.String("name", req.Name),
				zap.Uint("client_id", sc.TenantID()))
			return c.JSON(http.StatusConflict, echo.Map{"error": "origin already exists"})
		}
		log.Error("Failed to create origin",
			zap.String("name", req.Name),
			zap.Uint("client_id", sc.TenantID()),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create origin"})
	}

	log.Info("Origin created",
		zap.Uint("origin_id", origin.ID),
		zap.String("name", origin.Name),
		zap.Uint("client_id", origin.ClientID))
	return c.JSON(http.StatusCreated, origin)
}

// UpdateOrigin renames or recolors an origin. Defaults may be edited, just
// not deleted.
func UpdateOrigin(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("origin", "update")

	sc, ok := requestScope(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid origin ID"})
	}

	var req OriginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	var origin model.Origin
	result := database.GetDB().
		Where("id = ? AND client_id = ?", uint(id), sc.TenantID()).
		First(&origin)
	if result.Error != nil {
		log.Warn("Origin not found",
			zap.Uint64("origin_id", id),
			zap.Uint("client_id", sc.TenantID()))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "origin not found"})
	}

	origin.Name = req.Name
	origin.Color = req.Color

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&origin); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "origin already exists"})
		}
		log.Error("Failed to update origin", zap.Uint64("origin_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update origin"})
	}

	log.Info("Origin updated",
		zap.Uint("origin_id", origin.ID),
		zap.String("name", origin.Name))
	return c.JSON(http.StatusOK, origin)
}

// DeleteOrigin removes a user-defined origin. The delete predicate excludes
// defaults and other tenants' rows alike, so both cases surface as the same
// not found. Existing leads keep their denormalized origin string.
func DeleteOrigin(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("origin", "delete")

	sc, ok := requestScope(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid origin ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().
		Where("id = ? AND client_id = ? AND is_default = ?", uint(id), sc.TenantID(), false).
		Delete(&model.Origin{})
	if result.Error != nil {
		log.Error("Failed to delete origin", zap.Uint64("origin_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete origin"})
	}
	if result.RowsAffected == 0 {
		log.Warn("Origin not found or not deletable",
			zap.Uint64("origin_id", id),
			zap.Uint("client_id", sc.TenantID()))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "origin not found or cannot be deleted"})
	}

	log.Info("Origin deleted", zap.Uint64("origin_id", id), zap.Uint("client_id", sc.TenantID()))
	return c.JSON(http.StatusOK, echo.Map{"message": "origin deleted successfully"})
}
