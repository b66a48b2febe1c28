package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/elton-creator/crm-system-v2/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserEndpointsRequireAdmin(t *testing.T) {
	e, db := setupServer(t)
	client, _ := seedDefaults(t, db)

	rec := doRequest(t, e, http.MethodGet, "/api/users", tokenFor(t, client), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, e, http.MethodPost, "/api/users", tokenFor(t, client), map[string]interface{}{
		"email": "novo@empresa.com", "password": "x", "role": "client",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListUsers(t *testing.T) {
	e, db := setupServer(t)
	seedDefaults(t, db)
	admin := adminUser(t, db)

	rec := doRequest(t, e, http.MethodGet, "/api/users", tokenFor(t, admin), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var users []model.User
	decodeJSON(t, rec, &users)
	// Seed creates the admin and João
	assert.GreaterOrEqual(t, len(users), 2)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestCreateUser(t *testing.T) {
	e, db := setupServer(t)
	seedDefaults(t, db)
	admin := adminUser(t, db)
	token := tokenFor(t, admin)

	t.Run("creates an active client account", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodPost, "/api/users", token, map[string]interface{}{
			"email":    "ana@empresa.com",
			"password": "segredo1",
			"name":     "Ana Costa",
			"role":     "client",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var user model.User
		decodeJSON(t, rec, &user)
		assert.Equal(t, model.StatusActive, user.Status)

		var stored model.User
		require.NoError(t, db.Where("email = ?", "ana@empresa.com").First(&stored).Error)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("segredo1")))
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodPost, "/api/users", token, map[string]interface{}{
			"email":    "joao@empresa.com",
			"password": "outra",
			"role":     "client",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodPost, "/api/users", token, map[string]interface{}{
			"email":    "root@empresa.com",
			"password": "x",
			"role":     "superuser",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("email and password are required", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodPost, "/api/users", token, map[string]interface{}{
			"email": "semsegredo@empresa.com",
			"role":  "client",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateUserStatus(t *testing.T) {
	e, db := setupServer(t)
	client, _ := seedDefaults(t, db)
	admin := adminUser(t, db)
	token := tokenFor(t, admin)

	rec := doRequest(t, e, http.MethodPatch, fmt.Sprintf("/api/users/%d/status", client.ID), token, map[string]interface{}{
		"status": "inactive",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var stored model.User
	require.NoError(t, db.First(&stored, client.ID).Error)
	assert.Equal(t, model.StatusInactive, stored.Status)

	t.Run("invalid status is rejected", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodPatch, fmt.Sprintf("/api/users/%d/status", client.ID), token, map[string]interface{}{
			"status": "banned",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodPatch, "/api/users/99999/status", token, map[string]interface{}{
			"status": "active",
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteUser(t *testing.T) {
	e, db := setupServer(t)
	seedDefaults(t, db)
	admin := adminUser(t, db)
	token := tokenFor(t, admin)
	victim := createClient(t, db, "temp@empresa.com")

	rec := doRequest(t, e, http.MethodDelete, fmt.Sprintf("/api/users/%d", victim.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", victim.ID).Count(&count).Error)
	assert.Zero(t, count)

	t.Run("deleting again is not found", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodDelete, fmt.Sprintf("/api/users/%d", victim.ID), token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
