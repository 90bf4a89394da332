package activity

import (
	"context"
	"database/sql"
)

type ActivityService struct {
	repo ActivityRepositoryInterface
	db   *sql.DB
}

type ActivityServiceInterface interface {
	ListUserActivity(ctx context.Context, userID int64) ([]*Activity, error)
}

func NewActivityService(repo ActivityRepositoryInterface, db *sql.DB) ActivityServiceInterface {
	return &ActivityService{
		repo: repo,
		db:   db,
	}
}

// ListUserActivity returns the recorded events of a user, newest first.
// Users without events, known or not, get an empty list.
func (s *ActivityService) ListUserActivity(ctx context.Context, userID int64) ([]*Activity, error) {
	activities, err := s.repo.GetByUserID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if activities == nil {
		activities = []*Activity{}
	}
	return activities, nil
}
