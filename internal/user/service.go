package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"account_service/internal/activity"
	"account_service/internal/auth"
	"account_service/internal/cache"
	"account_service/internal/observability"
	"account_service/internal/utils"

	"github.com/sirupsen/logrus"
)

// UserCacheInterface is the subset of cache.UserCache the service needs.
type UserCacheInterface interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data interface{}) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher delivers user lifecycle events to the activity worker.
type EventPublisher interface {
	Publish(ctx context.Context, payload interface{}) error
}

type UserService struct {
	repo      UserRepositoryInterface
	db        *sql.DB
	cache     UserCacheInterface
	publisher EventPublisher
	metrics   *observability.Metrics
	now       func() time.Time
}

type UserServiceInterface interface {
	RegisterUser(ctx context.Context, input *CreateUserInput) (*User, error)
	AuthenticateUser(ctx context.Context, input *LoginInput) (*User, error)
	EndSession(ctx context.Context, id int64) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	UpdateProfile(ctx context.Context, id int64, input *UpdateUserInput) error
}

// NewUserService builds the account service. userCache and publisher may be nil,
// in which case reads always go to the store and no events are emitted.
func NewUserService(
	repo UserRepositoryInterface,
	db *sql.DB,
	userCache UserCacheInterface,
	publisher EventPublisher,
	metrics *observability.Metrics,
) UserServiceInterface {
	return &UserService{
		repo:      repo,
		db:        db,
		cache:     userCache,
		publisher: publisher,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RegisterUser creates an ONLINE user with a fresh token.
func (s *UserService) RegisterUser(ctx context.Context, input *CreateUserInput) (*User, error) {
	user := &User{
		Name:      input.Name,
		Username:  input.Username,
		Password:  input.Password,
		Token:     auth.NewToken(),
		Status:    StatusOnline,
		LoggedIn:  true,
		CreatedAt: s.now(),
	}

	err := utils.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.ensureUsernameFree(ctx, tx, input.Username); err != nil {
			return err
		}
		return s.save(ctx, tx, user)
	})
	s.observe("register", err)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User registered")

	s.afterWrite(ctx, user, activity.EventUserRegistered)
	return user, nil
}

// AuthenticateUser marks the user ONLINE when username and password match.
// Unknown usernames and wrong passwords are both reported as ErrUnauthorized.
func (s *UserService) AuthenticateUser(ctx context.Context, input *LoginInput) (*User, error) {
	var user *User

	err := utils.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		u, err := s.repo.FindByUsername(ctx, tx, input.Username)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return ErrUnauthorized
			}
			return err
		}

		if !auth.ComparePassword(u.Password, input.Password) {
			return ErrUnauthorized
		}

		u.Status = StatusOnline
		u.LoggedIn = true
		if err := s.save(ctx, tx, u); err != nil {
			return err
		}

		user = u
		return nil
	})
	s.observe("login", err)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			logrus.WithField("username", input.Username).Warn("Login rejected")
		}
		return nil, err
	}

	s.afterWrite(ctx, user, activity.EventUserLoggedIn)
	return user, nil
}

// EndSession marks the user OFFLINE and writes the change explicitly.
func (s *UserService) EndSession(ctx context.Context, id int64) (*User, error) {
	var user *User

	err := utils.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		u, err := s.findByID(ctx, tx, id)
		if err != nil {
			return err
		}

		u.Status = StatusOffline
		u.LoggedIn = false
		if err := s.save(ctx, tx, u); err != nil {
			return err
		}

		user = u
		return nil
	})
	s.observe("logout", err)
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, user, activity.EventUserLoggedOut)
	return user, nil
}

// GetUser reads through the cache. Cache failures fall back to the store.
func (s *UserService) GetUser(ctx context.Context, id int64) (*User, error) {
	key := cache.UserKey(id)

	if s.cache != nil {
		data, err := s.cache.Get(ctx, key)
		if err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Failed to read user from cache")
		}
		if data != nil {
			var cached User
			if err := json.Unmarshal(data, &cached); err == nil {
				s.metrics.ObserveCache("user", true)
				s.observe("get", nil)
				return &cached, nil
			}
			logrus.WithField("key", key).Warn("Discarding unreadable cache entry")
		}
		s.metrics.ObserveCache("user", false)
	}

	user, err := s.findByID(ctx, s.db, id)
	s.observe("get", err)
	if err != nil {
		return nil, err
	}

	s.cacheUser(ctx, user)
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*User, error) {
	users, err := s.repo.FindAll(ctx, s.db)
	s.observe("list", err)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*User{}
	}
	return users, nil
}

// UpdateProfile replaces the username (when given) and the birthday (always).
// Any existing user holding the requested username, the target included,
// makes the update fail with ErrConflict.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, input *UpdateUserInput) error {
	var user *User

	err := utils.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		u, err := s.findByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := s.ensureUsernameFree(ctx, tx, input.Username); err != nil {
			return err
		}

		if input.Username != "" {
			u.Username = input.Username
		}
		u.Birthday = input.Birthday

		if err := s.save(ctx, tx, u); err != nil {
			return err
		}

		user = u
		return nil
	})
	s.observe("update", err)
	if err != nil {
		return err
	}

	s.afterWrite(ctx, user, activity.EventUserProfileUpdated)
	return nil
}

func (s *UserService) findByID(ctx context.Context, q utils.DBTX, id int64) (*User, error) {
	u, err := s.repo.FindByID(ctx, q, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// ensureUsernameFree fails with ErrConflict when any user already has username.
// No user can have an empty username, so the lookup is skipped for "".
func (s *UserService) ensureUsernameFree(ctx context.Context, q utils.DBTX, username string) error {
	if username == "" {
		return nil
	}

	_, err := s.repo.FindByUsername(ctx, q, username)
	switch {
	case err == nil:
		return ErrConflict
	case errors.Is(err, ErrUserNotFound):
		return nil
	default:
		return err
	}
}

func (s *UserService) save(ctx context.Context, q utils.DBTX, u *User) error {
	err := s.repo.Save(ctx, q, u)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrUsernameTaken):
		return ErrConflict
	case errors.Is(err, ErrUserNotFound):
		return ErrNotFound
	default:
		return err
	}
}

// sideEffectTimeout bounds the post-commit cache eviction and event publish.
const sideEffectTimeout = 3 * time.Second

// afterWrite runs the post-commit side effects. None of them can fail the call.
// They run detached from the request context: once the write is committed a
// client disconnect must not leave the old cache entry in place.
func (s *UserService) afterWrite(ctx context.Context, u *User, eventType activity.EventType) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	s.evictUser(ctx, u.ID)

	if s.publisher == nil {
		return
	}

	event := activity.UserEvent{
		Type:       eventType,
		UserID:     u.ID,
		Username:   u.Username,
		OccurredAt: s.now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":    u.ID,
			"event_type": eventType,
		}).Warn("Failed to publish user event")
	}
}

// evictUser drops the cached copy so the next GetUser reloads it from the
// store. Writes never populate the cache: concurrent writers could otherwise
// land their Set calls out of commit order.
func (s *UserService) evictUser(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	key := cache.UserKey(id)
	if err := s.cache.Delete(ctx, key); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Failed to evict user from cache")
	}
}

func (s *UserService) cacheUser(ctx context.Context, u *User) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, cache.UserKey(u.ID), u); err != nil {
		logrus.WithError(err).WithField("user_id", u.ID).Warn("Failed to cache user")
	}
}

func (s *UserService) observe(operation string, err error) {
	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case errors.Is(err, ErrConflict):
		result = "conflict"
	case errors.Is(err, ErrUnauthorized):
		result = "unauthorized"
	default:
		result = "error"
	}
	s.metrics.ObserveUserOperation(operation, result)
}
