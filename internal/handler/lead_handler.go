package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/elton-creator/crm-system-v2/internal/model"
	"github.com/elton-creator/crm-system-v2/internal/scope"
	"github.com/elton-creator/crm-system-v2/pkg/database"
	"github.com/elton-creator/crm-system-v2/pkg/logger"
	"github.com/elton-creator/crm-system-v2/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LeadRequest defines the structure for lead creation/update requests.
// Updates are a full replace: optional fields left out of the request become
// null on the row, they are not preserved.
type LeadRequest struct {
	FunnelID uint             `json:"funnel_id"`
	Name     string           `json:"name"`
	Email    *string          `json:"email"`
	Phone    *string          `json:"phone"`
	Origin   string           `json:"origin"`
	Stage    string           `json:"stage"`
	Tags     model.StringList `json:"tags"`
	Notes    *string          `json:"notes"`
}

// updateRetries bounds the optimistic-concurrency loop in UpdateLead.
const updateRetries = 3

// ListLeads returns the tenant's leads newest first, each carrying its
// funnel's display name.
func ListLeads(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("lead", "list")

	sc, ok := requestScope(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var leads []model.LeadRow
	result := database.GetDB().
		Table("leads").
		Select("leads.*, funnels.name AS funnel_name").
		Joins("JOIN funnels ON funnels.id = leads.funnel_id").
		Where("leads.client_id = ?", sc.TenantID()).
		Order("leads.created_at DESC, leads.id DESC").
		Scan(&leads)
	if result.Error != nil {
		log.Error("Failed to retrieve leads", zap.Uint("client_id", sc.TenantID()), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve leads"})
	}
	if leads == nil {
		leads = []model.LeadRow{}
	}

	return c.JSON(http.StatusOK, leads)
}

// GetLead returns one lead; absent and out-of-scope rows are the same 404.
func GetLead(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("lead", "get")

	sc, ok := requestScope(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lead ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var lead model.LeadRow
	result := database.GetDB().
		Table("leads").
		Select("leads.*, funnels.name AS funnel_name").
		Joins("JOIN funnels ON funnels.id = leads.funnel_id").
		Where("leads.id = ? AND leads.client_id = ?", uint(id), sc.TenantID()).
		Scan(&lead)
	if result.Error != nil {
		log.Error("Failed to retrieve lead", zap.Uint64("lead_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve lead"})
	}
	if result.RowsAffected == 0 {
		log.Warn("Lead not found",
			zap.Uint64("lead_id", id),
			zap.Uint("client_id", sc.TenantID()))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "lead not found"})
	}

	return c.JSON(http.StatusOK, lead)
}

// CreateLead persists a new lead and its initial ledger entry in one
// transaction. The target funnel must belong to the tenant and define the
// requested stage.
func CreateLead(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("lead", "create")

	sc, ok := requestScope(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req LeadRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Name == "" || req.FunnelID == 0 || req.Stage == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, funnel_id and stage are required"})
	}

	funnel, ok := funnelForStage(c, sc, req.FunnelID, req.Stage)
	if !ok {
		return nil
	}

	if req.Tags == nil {
		req.Tags = model.StringList{}
	}

	lead := model.Lead{
		ClientID: sc.TenantID(),
		FunnelID: funnel.ID,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Origin:   req.Origin,
		Stage:    req.Stage,
		Tags:     req.Tags,
		Notes:    req.Notes,
	}

	actorID := sc.ActorID()

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&lead).Error; err != nil {
			return err
		}
		// Initial ledger entry: from_stage is null on creation
		return tx.Create(&model.LeadHistory{
			LeadID:    lead.ID,
			ToStage:   lead.Stage,
			ChangedBy: &actorID,
		}).Error
	})
	if err != nil {
		log.Error("Failed to create lead",
			zap.String("name", req.Name),
			zap.Uint("client_id", sc.TenantID()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create lead"})
	}

	prometheus.RecordStageTransition("", lead.Stage)
	log.Info("Lead created",
		zap.Uint("lead_id", lead.ID),
		zap.String("name", lead.Name),
		zap.String("stage", lead.Stage),
		zap.Uint("client_id", lead.ClientID))
	return c.JSON(http.StatusCreated, lead)
}

// UpdateLead replaces a lead's mutable fields and, when the stage changed,
// appends the transition to the ledger in the same transaction. The write is
// guarded on the stage read beforehand so concurrent updates serialize: a
// lost guard means another update got in between, and the read-validate-write
// cycle runs again against the new state.
func UpdateLead(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("lead", "update")

	sc, ok := requestScope(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lead ID"})
	}

	var req LeadRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Name == "" || req.Stage == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and stage are required"})
	}
	if req.Tags == nil {
		req.Tags = model.StringList{}
	}

	actorID := sc.ActorID()

	defer prometheus.TrackDBOperation("update")(time.Now())
	for attempt := 0; attempt < updateRetries; attempt++ {
		var current model.Lead
		result := database.GetDB().
			Where("id = ? AND client_id = ?", uint(id), sc.TenantID()).
			First(&current)
		if result.Error != nil {
			log.Warn("Lead not found",
				zap.Uint64("lead_id", id),
				zap.Uint("client_id", sc.TenantID()))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lead not found"})
		}

		if _, ok := funnelForStage(c, sc, current.FunnelID, req.Stage); !ok {
			return nil
		}

		updated := false
		err := database.GetDB().Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&model.Lead{}).
				Where("id = ? AND client_id = ? AND stage = ?", uint(id), sc.TenantID(), current.Stage).
				Updates(map[string]interface{}{
					"name":       req.Name,
					"email":      req.Email,
					"phone":      req.Phone,
					"origin":     req.Origin,
					"stage":      req.Stage,
					"tags":       req.Tags,
					"notes":      req.Notes,
					"updated_at": time.Now(),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Stage guard lost against a concurrent update; retry
				return nil
			}
			updated = true

			if req.Stage != current.Stage {
				fromStage := current.Stage
				return tx.Create(&model.LeadHistory{
					LeadID:    uint(id),
					FromStage: &fromStage,
					ToStage:   req.Stage,
					ChangedBy: &actorID,
				}).Error
			}
			return nil
		})
		if err != nil {
			log.Error("Failed to update lead", zap.Uint64("lead_id", id), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update lead"})
		}

		if !updated {
			continue
		}

		if req.Stage != current.Stage {
			prometheus.RecordStageTransition(current.Stage, req.Stage)
			log.Info("Lead stage changed",
				zap.Uint64("lead_id", id),
				zap.String("from_stage", current.Stage),
				zap.String("to_stage", req.Stage))
		}

		var lead model.Lead
		if result := database.GetDB().
			Where("id = ? AND client_id = ?", uint(id), sc.TenantID()).
			First(&lead); result.Error != nil {
			log.Error("Failed to reload lead", zap.Uint64("lead_id", id), zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update lead"})
		}
		return c.JSON(http.StatusOK, lead)
	}

	log.Warn("Lead update kept losing the stage guard",
		zap.Uint64("lead_id", id),
		zap.Int("attempts", updateRetries))
	return c.JSON(http.StatusConflict, echo.Map{"error": "lead was modified concurrently, retry"})
}

// DeleteLead hard-deletes a lead together with its ledger rows.
func DeleteLead(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("lead", "delete")

	sc, ok := requestScope(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lead ID"})
	}

	deleted := false
	defer prometheus.TrackDBOperation("delete")(time.Now())
	txErr := database.GetDB().Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND client_id = ?", uint(id), sc.TenantID()).
			Delete(&model.Lead{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		// Ledger rows share the lead's lifetime: no orphaned history
		return tx.Where("lead_id = ?", uint(id)).Delete(&model.LeadHistory{}).Error
	})
	if txErr != nil {
		log.Error("Failed to delete lead", zap.Uint64("lead_id", id), zap.Error(txErr))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete lead"})
	}
	if !deleted {
		log.Warn("Lead not found",
			zap.Uint64("lead_id", id),
			zap.Uint("client_id", sc.TenantID()))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "lead not found"})
	}

	log.Info("Lead deleted", zap.Uint64("lead_id", id), zap.Uint("client_id", sc.TenantID()))
	return c.JSON(http.StatusOK, echo.Map{"message": "lead deleted successfully"})
}

// GetLeadHistory returns the lead's ledger newest first, each entry carrying
// the display name of the user who made the change (null if that user was
// deleted).
func GetLeadHistory(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("lead", "history")

	sc, ok := requestScope(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lead ID"})
	}

	// Scope the ledger through the owning lead so cross-tenant history can
	// never leak
	var lead model.Lead
	if result := database.GetDB().
		Where("id = ? AND client_id = ?", uint(id), sc.TenantID()).
		First(&lead); result.Error != nil {
		log.Warn("Lead not found",
			zap.Uint64("lead_id", id),
			zap.Uint("client_id", sc.TenantID()))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "lead not found"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var entries []model.LeadHistoryRow
	result := database.GetDB().
		Table("lead_history").
		Select("lead_history.*, users.name AS changed_by_name").
		Joins("LEFT JOIN users ON users.id = lead_history.changed_by").
		Where("lead_history.lead_id = ?", uint(id)).
		Order("lead_history.created_at DESC, lead_history.id DESC").
		Scan(&entries)
	if result.Error != nil {
		log.Error("Failed to retrieve lead history", zap.Uint64("lead_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve history"})
	}
	if entries == nil {
		entries = []model.LeadHistoryRow{}
	}

	return c.JSON(http.StatusOK, entries)
}

// funnelForStage loads the funnel when it belongs to the scope's tenant and
// defines the given stage. On failure it writes the error response itself
// and reports false; the calling handler must return nil then.
func funnelForStage(c echo.Context, sc scope.Scope, funnelID uint, stage string) (*model.Funnel, bool) {
	log := logger.FromContext(c)

	var funnel model.Funnel
	result := database.GetDB().
		Where("id = ? AND client_id = ?", funnelID, sc.TenantID()).
		First(&funnel)
	if result.Error != nil {
		log.Warn("Funnel not found for lead operation",
			zap.Uint("funnel_id", funnelID),
			zap.Uint("client_id", sc.TenantID()))
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "funnel not found for this account"})
		return nil, false
	}

	if !funnel.Stages.Contains(stage) {
		log.Warn("Stage not defined by funnel",
			zap.Uint("funnel_id", funnelID),
			zap.String("stage", stage))
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "stage does not belong to the funnel"})
		return nil, false
	}

	return &funnel, true
}
