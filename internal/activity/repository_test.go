package activity

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	occurred := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	event := &UserEvent{Type: EventUserLoggedIn, UserID: 4, Username: "ann1", OccurredAt: occurred}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO user_activity")).
		WithArgs(int64(4), "user.logged_in", "ann1", occurred).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	id, err := NewActivityRepository().Create(context.Background(), db, event)

	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepository_Create_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO user_activity")).
		WillReturnError(errors.New("fk violation"))

	_, err = NewActivityRepository().Create(context.Background(), db, &UserEvent{Type: EventUserRegistered, UserID: 1})

	assert.ErrorContains(t, err, "failed to insert activity")
}

func TestActivityRepository_GetByUserID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "event_type", "username", "occurred_at", "recorded_at"}).
		AddRow(2, 4, "user.logged_out", "ann1", now, now).
		AddRow(1, 4, "user.registered", "ann1", now.Add(-time.Minute), now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM user_activity")).
		WithArgs(int64(4)).
		WillReturnRows(rows)

	activities, err := NewActivityRepository().GetByUserID(context.Background(), db, 4)

	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, EventUserLoggedOut, activities[0].EventType)
	assert.Equal(t, EventUserRegistered, activities[1].EventType)
}

func TestEventType_Valid(t *testing.T) {
	assert.True(t, EventUserRegistered.Valid())
	assert.True(t, EventUserProfileUpdated.Valid())
	assert.False(t, EventType("user.deleted").Valid())
	assert.False(t, EventType("").Valid())
}
