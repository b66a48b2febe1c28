package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/elton-creator/crm-system-v2/internal/model"
	"github.com/elton-creator/crm-system-v2/pkg/config"
	"github.com/elton-creator/crm-system-v2/pkg/database"
	"github.com/elton-creator/crm-system-v2/pkg/jwtutil"
	"github.com/elton-creator/crm-system-v2/prometheus"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testInitOnce guards process-wide state: the prometheus registry and the
// JWT signing key.
var testInitOnce sync.Once

// setupServer builds an echo instance with all routes registered against a
// fresh in-memory database. The pool is capped at one connection so every
// statement shares the same sqlite memory database.
func setupServer(t *testing.T) (*echo.Echo, *gorm.DB) {
	t.Helper()

	testInitOnce.Do(func() {
		cfg := &config.Config{
			JWT:     config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1},
			Metrics: config.MetricsConfig{Prefix: "crm_test"},
		}
		jwtutil.Initialize(&cfg.JWT)
		prometheus.InitMetrics(cfg)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	database.DB = db

	e := echo.New()
	Register(e)
	return e, db
}

// seedDefaults provisions the default accounts, origins, funnel and sample
// leads, returning the client user and its default funnel.
func seedDefaults(t *testing.T, db *gorm.DB) (model.User, model.Funnel) {
	t.Helper()

	require.NoError(t, database.Seed(db, zap.NewNop()))

	var client model.User
	require.NoError(t, db.Where("email = ?", "joao@empresa.com").First(&client).Error)

	var funnel model.Funnel
	require.NoError(t, db.Where("client_id = ? AND is_default = ?", client.ID, true).First(&funnel).Error)

	return client, funnel
}

func adminUser(t *testing.T, db *gorm.DB) model.User {
	t.Helper()
	var admin model.User
	require.NoError(t, db.Where("email = ?", "admin@crm.com").First(&admin).Error)
	return admin
}

// createClient provisions an additional active client user together with
// its default origins and funnel.
func createClient(t *testing.T, db *gorm.DB, email string) model.User {
	t.Helper()

	user := model.User{
		Email:    email,
		Password: "unused-hash",
		Name:     email,
		Role:     model.RoleClient,
		Status:   model.StatusActive,
	}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, database.ProvisionClient(db, user.ID))
	return user
}

func tokenFor(t *testing.T, u model.User) string {
	t.Helper()
	token, err := jwtutil.GenerateToken(u.ID, u.Email, u.Role)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, e *echo.Echo, method, target, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}
