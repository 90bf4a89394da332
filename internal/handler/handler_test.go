package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"account_service/internal/config"
	"account_service/internal/observability"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestHandler(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, *observability.Metrics) {
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	cfg := &config.Config{RabbitMQ: config.RabbitMQConfig{UserEventsQueue: "user_events"}}

	return SetupHandler(db, nil, nil, cfg, metrics), mock, metrics
}

func TestHealth_OK(t *testing.T) {
	router, mock, _ := setupTestHandler(t)
	mock.ExpectPing()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealth_DatabaseDown(t *testing.T) {
	router, mock, _ := setupTestHandler(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUsersRoute_ListsFromStore(t *testing.T) {
	router, mock, metrics := setupTestHandler(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "username", "password", "token", "status", "logged_in", "birthday", "created_at"}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/users", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/users", "200")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersRoute_RegisterConflict(t *testing.T) {
	router, mock, _ := setupTestHandler(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = $1")).
		WithArgs("ann1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "username", "password", "token", "status", "logged_in", "birthday", "created_at"}).
			AddRow(1, "Ann", "ann1", "p", "t", "ONLINE", true, nil, time.Now()))
	mock.ExpectRollback()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name":"Ann","username":"ann1","password":"p"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRoute_ListsFromStore(t *testing.T) {
	router, mock, _ := setupTestHandler(t)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM user_activity")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "event_type", "username", "occurred_at", "recorded_at"}).
			AddRow(1, 1, "user.registered", "ann1", now, now))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/users/1/activity", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"type":"user.registered"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricsRoute(t *testing.T) {
	router, _, _ := setupTestHandler(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
