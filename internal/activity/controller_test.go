package activity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockActivityService is a mock implementation of ActivityServiceInterface
type MockActivityService struct {
	mock.Mock
}

func (m *MockActivityService) ListUserActivity(ctx context.Context, userID int64) ([]*Activity, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Activity), args.Error(1)
}

func setupTestRouter(service ActivityServiceInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	NewActivityController(service).SetupRoutes(router)

	return router
}

func TestGetUserActivity_Success(t *testing.T) {
	mockService := new(MockActivityService)
	router := setupTestRouter(mockService)

	occurred := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mockService.On("ListUserActivity", int64(4)).Return([]*Activity{
		{ID: 2, UserID: 4, EventType: EventUserLoggedOut, Username: "ann1", OccurredAt: occurred, RecordedAt: occurred},
	}, nil)

	req, _ := http.NewRequest(http.MethodGet, "/users/4/activity", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, "user.logged_out", response[0]["type"])
	assert.Equal(t, float64(4), response[0]["userId"])
	assert.Equal(t, "2026-03-01T10:00:00Z", response[0]["occurredAt"])
	mockService.AssertExpectations(t)
}

func TestGetUserActivity_InvalidID(t *testing.T) {
	mockService := new(MockActivityService)
	router := setupTestRouter(mockService)

	req, _ := http.NewRequest(http.MethodGet, "/users/abc/activity", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "ListUserActivity", mock.Anything)
}

func TestGetUserActivity_InternalError(t *testing.T) {
	mockService := new(MockActivityService)
	router := setupTestRouter(mockService)

	mockService.On("ListUserActivity", int64(4)).Return(nil, errors.New("db down"))

	req, _ := http.NewRequest(http.MethodGet, "/users/4/activity", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestActivityService_EmptyIsNotNull(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sqlMock.ExpectQuery(regexp.QuoteMeta("FROM user_activity")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "event_type", "username", "occurred_at", "recorded_at"}))

	activities, err := NewActivityService(NewActivityRepository(), db).ListUserActivity(context.Background(), 9)

	require.NoError(t, err)
	assert.NotNil(t, activities)
	assert.Empty(t, activities)

	data, err := json.Marshal(activities)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
