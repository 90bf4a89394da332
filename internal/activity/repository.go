package activity

import (
	"context"
	"fmt"

	"account_service/internal/utils"
)

type ActivityRepository struct{}

type ActivityRepositoryInterface interface {
	Create(ctx context.Context, q utils.DBTX, event *UserEvent) (int64, error)
	GetByUserID(ctx context.Context, q utils.DBTX, userID int64) ([]*Activity, error)
}

func NewActivityRepository() ActivityRepositoryInterface {
	return &ActivityRepository{}
}

func (r *ActivityRepository) Create(
	ctx context.Context,
	q utils.DBTX,
	event *UserEvent,
) (int64, error) {
	query := `
		INSERT INTO user_activity (
			user_id, event_type, username, occurred_at, recorded_at
		)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id
	`

	var id int64
	err := q.QueryRowContext(
		ctx,
		query,
		event.UserID,
		string(event.Type),
		event.Username,
		event.OccurredAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert activity: %w", err)
	}

	return id, nil
}

func (r *ActivityRepository) GetByUserID(
	ctx context.Context,
	q utils.DBTX,
	userID int64,
) ([]*Activity, error) {
	query := `
		SELECT id, user_id, event_type, username, occurred_at, recorded_at
		FROM user_activity
		WHERE user_id = $1
		ORDER BY occurred_at DESC, id DESC
	`

	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.EventType,
			&a.Username,
			&a.OccurredAt,
			&a.RecordedAt,
		); err != nil {
			return nil, err
		}
		activities = append(activities, &a)
	}

	return activities, rows.Err()
}
