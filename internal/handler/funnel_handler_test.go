package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/elton-creator/crm-system-v2/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFunnelInvariant(t *testing.T) {
	e, db := setupServer(t)
	client, funnel := seedDefaults(t, db)
	token := tokenFor(t, client)

	t.Run("exactly one default funnel after provisioning", func(t *testing.T) {
		var count int64
		require.NoError(t, db.Model(&model.Funnel{}).
			Where("client_id = ? AND is_default = ?", client.ID, true).
			Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("deleting the default funnel always fails", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodDelete, fmt.Sprintf("/api/funnels/%d", funnel.ID), token, nil)
		// The seeded sample leads reference the default funnel
		assert.Equal(t, http.StatusConflict, rec.Code)

		require.NoError(t, db.Where("lead_id IN (SELECT id FROM leads WHERE funnel_id = ?)", funnel.ID).
			Delete(&model.LeadHistory{}).Error)
		require.NoError(t, db.Where("funnel_id = ?", funnel.ID).Delete(&model.Lead{}).Error)

		rec = doRequest(t, e, http.MethodDelete, fmt.Sprintf("/api/funnels/%d", funnel.ID), token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		var still model.Funnel
		assert.NoError(t, db.First(&still, funnel.ID).Error)
	})
}

func TestCreateFunnel(t *testing.T) {
	e, db := setupServer(t)
	client, _ := seedDefaults(t, db)
	token := tokenFor(t, client)

	rec := doRequest(t, e, http.MethodPost, "/api/funnels", token, map[string]interface{}{
		"name": "Funil B2B",
		"stages": []map[string]string{
			{"id": "prospeccao", "name": "Prospecção", "color": "#111111"},
			{"id": "reuniao", "name": "Reunião", "color": "#222222"},
			{"id": "ganho", "name": "Ganho", "color": "#333333"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var funnel model.Funnel
	decodeJSON(t, rec, &funnel)
	assert.Equal(t, client.ID, funnel.ClientID)
	assert.False(t, funnel.IsDefault)
	require.Len(t, funnel.Stages, 3)
	assert.Equal(t, "prospeccao", funnel.Stages[0].ID)
	assert.Equal(t, "ganho", funnel.Stages[2].ID)
}

func TestGetFunnel(t *testing.T) {
	e, db := setupServer(t)
	client, funnel := seedDefaults(t, db)

	t.Run("own funnel", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodGet, fmt.Sprintf("/api/funnels/%d", funnel.ID), tokenFor(t, client), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got model.Funnel
		decodeJSON(t, rec, &got)
		assert.Equal(t, funnel.ID, got.ID)
		assert.Len(t, got.Stages, 7)
	})

	t.Run("cross-tenant funnel is not found", func(t *testing.T) {
		other := createClient(t, db, "carla@empresa.com")
		rec := doRequest(t, e, http.MethodGet, fmt.Sprintf("/api/funnels/%d", funnel.ID), tokenFor(t, other), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUpdateFunnel(t *testing.T) {
	e, db := setupServer(t)
	client, funnel := seedDefaults(t, db)
	token := tokenFor(t, client)

	rec := doRequest(t, e, http.MethodPut, fmt.Sprintf("/api/funnels/%d", funnel.ID), token, map[string]interface{}{
		"name": "Funil Principal",
		"stages": []map[string]string{
			{"id": "novo", "name": "Novo", "color": "#3b82f6"},
			{"id": "fechado", "name": "Fechado", "color": "#22c55e"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated model.Funnel
	decodeJSON(t, rec, &updated)
	assert.Equal(t, "Funil Principal", updated.Name)
	// Full replace of the stage list
	require.Len(t, updated.Stages, 2)
	assert.True(t, updated.IsDefault)
}

func TestDeleteFunnel(t *testing.T) {
	e, db := setupServer(t)
	client, funnel := seedDefaults(t, db)
	token := tokenFor(t, client)

	t.Run("user-created funnel without leads is deleted", func(t *testing.T) {
		created := doRequest(t, e, http.MethodPost, "/api/funnels", token, map[string]interface{}{
			"name":   "Temporário",
			"stages": []map[string]string{{"id": "a", "name": "A", "color": "#000"}},
		})
		require.Equal(t, http.StatusCreated, created.Code)
		var temp model.Funnel
		decodeJSON(t, created, &temp)

		rec := doRequest(t, e, http.MethodDelete, fmt.Sprintf("/api/funnels/%d", temp.ID), token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var count int64
		require.NoError(t, db.Model(&model.Funnel{}).Where("id = ?", temp.ID).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("funnel with leads is a conflict", func(t *testing.T) {
		created := doRequest(t, e, http.MethodPost, "/api/funnels", token, map[string]interface{}{
			"name":   "Com Leads",
			"stages": []map[string]string{{"id": "inicio", "name": "Início", "color": "#000"}},
		})
		require.Equal(t, http.StatusCreated, created.Code)
		var withLeads model.Funnel
		decodeJSON(t, created, &withLeads)

		lead := doRequest(t, e, http.MethodPost, "/api/leads", token, map[string]interface{}{
			"funnel_id": withLeads.ID,
			"name":      "Preso",
			"origin":    "Google Ads",
			"stage":     "inicio",
		})
		require.Equal(t, http.StatusCreated, lead.Code)

		rec := doRequest(t, e, http.MethodDelete, fmt.Sprintf("/api/funnels/%d", withLeads.ID), token, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("cross-tenant delete is not found", func(t *testing.T) {
		other := createClient(t, db, "davi@empresa.com")
		rec := doRequest(t, e, http.MethodDelete, fmt.Sprintf("/api/funnels/%d", funnel.ID), tokenFor(t, other), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
