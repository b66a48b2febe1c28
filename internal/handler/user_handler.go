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
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User management endpoints. All of them sit behind RequireAdmin and run
// unscoped: admins see every account.

// ListUsers returns all users, newest first.
func ListUsers(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("user", "list")

	defer prometheus.TrackDBOperation("query")(time.Now())
	var users []model.User
	result := database.GetDB().Order("created_at DESC").Find(&users)
	if result.Error != nil {
		log.Error("Failed to retrieve users", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve users"})
	}

	return c.JSON(http.StatusOK, users)
}

// CreateUser creates a new account with a bcrypt-hashed password.
func CreateUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("user", "create")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Role     string `json:"role"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}
	if !model.ValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be admin or client"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create user"})
	}

	user := model.User{
		Email:    req.Email,
		Password: string(hashed),
		Name:     req.Name,
		Role:     req.Role,
		Status:   model.StatusActive,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&user); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			log.Warn("Email already registered", zap.String("email", req.Email))
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		log.Error("Failed to create user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create user"})
	}

	log.Info("User created",
		zap.Uint("user_id", user.ID),
		zap.String("email", user.Email),
		zap.String("role", user.Role))
	return c.JSON(http.StatusCreated, user)
}

// UpdateUserStatus toggles an account between active and inactive.
func UpdateUserStatus(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("user", "update_status")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if !model.ValidStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be active or inactive"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var user model.User
	result := database.GetDB().First(&user, uint(id))
	if result.Error != nil {
		log.Warn("User not found", zap.Uint64("user_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	user.Status = req.Status
	if result := database.GetDB().Save(&user); result.Error != nil {
		log.Error("Failed to update user status", zap.Uint64("user_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update status"})
	}

	log.Info("User status updated",
		zap.Uint("user_id", user.ID),
		zap.String("status", user.Status))
	return c.JSON(http.StatusOK, user)
}

// DeleteUser removes an account outright.
func DeleteUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("user", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Delete(&model.User{}, uint(id))
	if result.Error != nil {
		log.Error("Failed to delete user", zap.Uint64("user_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete user"})
	}
	if result.RowsAffected == 0 {
		log.Warn("User not found", zap.Uint64("user_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	log.Info("User deleted", zap.Uint64("user_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted successfully"})
}
