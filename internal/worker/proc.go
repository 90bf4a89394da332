package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"account_service/internal/activity"
	"account_service/internal/observability"
	"account_service/internal/utils"

	"github.com/sirupsen/logrus"
)

// ErrInvalidEvent marks a message that can never be processed and must not be retried.
var ErrInvalidEvent = errors.New("invalid user event")

type EventHandler interface {
	Process(ctx context.Context, body []byte) (*activity.UserEvent, error)
}

// EventProcessor records user events in the activity table.
type EventProcessor struct {
	db      *sql.DB
	repo    activity.ActivityRepositoryInterface
	metrics *observability.Metrics
}

func NewEventProcessor(db *sql.DB, repo activity.ActivityRepositoryInterface, metrics *observability.Metrics) *EventProcessor {
	return &EventProcessor{
		db:      db,
		repo:    repo,
		metrics: metrics,
	}
}

func decodeEvent(body []byte) (*activity.UserEvent, error) {
	var event activity.UserEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	if !event.Type.Valid() {
		return &event, fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, event.Type)
	}
	if event.UserID <= 0 {
		return &event, fmt.Errorf("%w: missing user id", ErrInvalidEvent)
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	return &event, nil
}

// Process decodes body and stores it. The returned event is nil only when
// body is not JSON at all.
func (p *EventProcessor) Process(ctx context.Context, body []byte) (*activity.UserEvent, error) {
	event, err := decodeEvent(body)
	if err != nil {
		return event, err
	}

	start := time.Now()
	err = utils.WithTransaction(ctx, p.db, func(tx *sql.Tx) error {
		id, err := p.repo.Create(ctx, tx, event)
		if err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"activity_id": id,
			"user_id":     event.UserID,
			"event_type":  event.Type,
		}).Debug("User activity recorded")
		return nil
	})
	p.metrics.ObserveActivity(string(event.Type), start, err)

	return event, err
}
