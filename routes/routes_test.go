package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"motocosmos-telemetry/config"
	"motocosmos-telemetry/database"
	"motocosmos-telemetry/middleware"
	"motocosmos-telemetry/models"
	"motocosmos-telemetry/repositories"
	"motocosmos-telemetry/services"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := database.Initialize("sqlite", dsn, "silent")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, true))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	require.NoError(t, db.Create(&models.Motorcycle{
		ID: "bike-1", UserID: "rider-1", Brand: "Yamaha", Model: "MT-07", Year: "2022", Class: "naked",
	}).Error)

	cfg := &config.Config{JWTSecret: testSecret, RateLimitPerMinute: 600, RateLimitBurst: 100}
	svc := services.NewRideService(repositories.NewStore(db), repositories.NewMotorcycleRepository(db),
		services.RideServiceOptions{MaxBatchSize: 100})

	return &apiClient{t: t, router: NewRouter(cfg, svc)}
}

func (a *apiClient) do(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		token, err := middleware.GenerateToken(testSecret, userID, userID+"@example.com", time.Hour)
		require.NoError(a.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func telemetryBatch(start time.Time, coords ...[2]float64) gin.H {
	samples := make([]gin.H, len(coords))
	for i, c := range coords {
		samples[i] = gin.H{
			"timestamp": start.Add(time.Duration(i) * time.Second).Format(time.RFC3339),
			"latitude":  c[0],
			"longitude": c[1],
			"speed":     40,
			"rpm":       4500,
		}
	}
	return gin.H{"samples": samples}
}

func TestPing(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRideLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	w := api.do(http.MethodPost, "/api/v1/rides/start", "rider-1", gin.H{"motorcycle_id": "bike-1", "start_time": start})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var ride models.RideSession
	decode(t, w, &ride)
	assert.Equal(t, models.RideStatusActive, ride.Status)

	w = api.do(http.MethodPost, "/api/v1/rides/"+ride.ID+"/telemetry", "rider-1",
		telemetryBatch(start.Add(time.Minute), [2]float64{0, 0}, [2]float64{0, 0.5}, [2]float64{0, 1}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var ingest models.IngestTelemetryResponse
	decode(t, w, &ingest)
	assert.Equal(t, 3, ingest.AcceptedCount)

	w = api.do(http.MethodGet, "/api/v1/rides/"+ride.ID+"/analytics", "rider-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodPut, "/api/v1/rides/"+ride.ID+"/end", "rider-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ended models.RideSession
	decode(t, w, &ended)
	assert.Equal(t, models.RideStatusCompleted, ended.Status)
	assert.InDelta(t, 111.19, ended.TotalDistance, 0.01)

	w = api.do(http.MethodPut, "/api/v1/rides/"+ride.ID+"/end", "rider-1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	var errBody map[string]interface{}
	decode(t, w, &errBody)
	assert.Equal(t, "Conflict", errBody["error"])
	assert.EqualValues(t, http.StatusConflict, errBody["code"])

	w = api.do(http.MethodGet, "/api/v1/rides/"+ride.ID+"/telemetry", "rider-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var points []models.TelemetryPoint
	decode(t, w, &points)
	assert.Len(t, points, 3)

	w = api.do(http.MethodGet, "/api/v1/rides/"+ride.ID+"/analytics", "rider-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var analytics models.RideAnalytics
	decode(t, w, &analytics)
	assert.Equal(t, ride.ID, analytics.RideID)
	assert.Equal(t, 3, models.TotalCount(analytics.SpeedDistribution))

	w = api.do(http.MethodGet, "/api/v1/rides/"+ride.ID+"/safety-events", "rider-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var events []models.SafetyEvent
	decode(t, w, &events)
	assert.Empty(t, events)

	w = api.do(http.MethodPost, "/api/v1/rides/"+ride.ID+"/recompute", "rider-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/api/v1/rides/?page=1&limit=5", "rider-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Data  []models.RideSession `json:"data"`
		Total int64                `json:"total"`
		Limit int                  `json:"limit"`
	}
	decode(t, w, &page)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 5, page.Limit)
	require.Len(t, page.Data, 1)
	assert.Equal(t, ride.ID, page.Data[0].ID)
}

func TestErrorStatusMapping(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/v1/rides/start", "rider-1", gin.H{"motorcycle_id": "bike-404"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodPost, "/api/v1/rides/start", "rider-1", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/api/v1/rides/start", "rider-1", gin.H{"motorcycle_id": "bike-1"})
	require.Equal(t, http.StatusCreated, w.Code)
	var ride models.RideSession
	decode(t, w, &ride)

	w = api.do(http.MethodGet, "/api/v1/rides/"+ride.ID, "rider-2", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPut, "/api/v1/rides/"+ride.ID+"/end", "rider-2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodPost, "/api/v1/rides/"+ride.ID+"/telemetry", "rider-1", gin.H{"samples": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/api/v1/rides/"+ride.ID+"/telemetry", "rider-1",
		telemetryBatch(time.Now(), [2]float64{45, 7}, [2]float64{45, 200}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errBody map[string]interface{}
	decode(t, w, &errBody)
	assert.Contains(t, errBody["message"], "invalid sample 1")

	w = api.do(http.MethodPut, "/api/v1/rides/"+ride.ID+"/end", "rider-1", gin.H{"status": "interrupted"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/api/v1/rides/"+ride.ID+"/recompute", "rider-1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestIngestRejectsOversizedBody(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/v1/rides/start", "rider-1", gin.H{"motorcycle_id": "bike-1"})
	require.Equal(t, http.StatusCreated, w.Code)
	var ride models.RideSession
	decode(t, w, &ride)

	batch := telemetryBatch(time.Now(), [2]float64{45, 7})
	batch["samples"].([]gin.H)[0]["raw_data"] = gin.H{"dump": strings.Repeat("x", 1<<20)}

	w = api.do(http.MethodPost, "/api/v1/rides/"+ride.ID+"/telemetry", "rider-1", batch)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = api.do(http.MethodGet, "/api/v1/rides/"+ride.ID+"/telemetry", "rider-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var points []models.TelemetryPoint
	decode(t, w, &points)
	assert.Empty(t, points)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/v1/rides/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rides/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIngestRequiresJSONContentType(t *testing.T) {
	api := newTestAPI(t)
	token, err := middleware.GenerateToken(testSecret, "rider-1", "rider-1@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rides/ride-1/telemetry", bytes.NewBufferString("samples=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
