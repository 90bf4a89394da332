package activity

import "time"

type EventType string

const (
	EventUserRegistered     EventType = "user.registered"
	EventUserLoggedIn       EventType = "user.logged_in"
	EventUserLoggedOut      EventType = "user.logged_out"
	EventUserProfileUpdated EventType = "user.profile_updated"
)

func (t EventType) Valid() bool {
	switch t {
	case EventUserRegistered, EventUserLoggedIn, EventUserLoggedOut, EventUserProfileUpdated:
		return true
	}
	return false
}

// UserEvent is the message published to the user events queue.
type UserEvent struct {
	Type       EventType `json:"type"`
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Activity is one recorded UserEvent.
type Activity struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	EventType  EventType `json:"type"`
	Username   string    `json:"username"`
	OccurredAt time.Time `json:"occurredAt"`
	RecordedAt time.Time `json:"recordedAt"`
}
