package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"account_service/internal/observability"
	"account_service/internal/utils"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

const uniqueViolationCode = "23505"

const userColumns = `id, name, username, password, token, status, logged_in, birthday, created_at`

type UserRepository struct {
	metrics *observability.Metrics
}

type UserRepositoryInterface interface {
	FindAll(ctx context.Context, q utils.DBTX) ([]*User, error)
	FindByID(ctx context.Context, q utils.DBTX, id int64) (*User, error)
	FindByUsername(ctx context.Context, q utils.DBTX, username string) (*User, error)
	Save(ctx context.Context, q utils.DBTX, user *User) error
}

func NewUserRepository(metrics *observability.Metrics) UserRepositoryInterface {
	return &UserRepository{metrics: metrics}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var birthday sql.NullTime

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Username,
		&u.Password,
		&u.Token,
		&u.Status,
		&u.LoggedIn,
		&birthday,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if birthday.Valid {
		d := NewDate(birthday.Time.Year(), birthday.Time.Month(), birthday.Time.Day())
		u.Birthday = &d
	}

	return &u, nil
}

// FindAll returns every user ordered by id.
func (r *UserRepository) FindAll(ctx context.Context, q utils.DBTX) ([]*User, error) {
	defer r.metrics.ObserveDBQuery("SELECT", time.Now())

	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (r *UserRepository) FindByID(ctx context.Context, q utils.DBTX, id int64) (*User, error) {
	defer r.metrics.ObserveDBQuery("SELECT", time.Now())

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, q utils.DBTX, username string) (*User, error) {
	defer r.metrics.ObserveDBQuery("SELECT", time.Now())

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	u, err := scanUser(q.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return u, nil
}

// Save inserts the user when it has no id yet, and updates every mutable
// column otherwise. On insert the store-assigned id is written back to user.
func (r *UserRepository) Save(ctx context.Context, q utils.DBTX, user *User) error {
	if user.ID == 0 {
		return r.insert(ctx, q, user)
	}
	return r.update(ctx, q, user)
}

func (r *UserRepository) insert(ctx context.Context, q utils.DBTX, user *User) error {
	defer r.metrics.ObserveDBQuery("INSERT", time.Now())

	query := `
		INSERT INTO users (
			name, username, password, token, status, logged_in, birthday, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := q.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.Username,
		user.Password,
		user.Token,
		string(user.Status),
		user.LoggedIn,
		birthdayValue(user.Birthday),
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		logrus.WithError(err).WithField("username", user.Username).Error("Failed to create user")
		return mapError(err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User created successfully")

	return nil
}

func (r *UserRepository) update(ctx context.Context, q utils.DBTX, user *User) error {
	defer r.metrics.ObserveDBQuery("UPDATE", time.Now())

	query := `
		UPDATE users
		SET name = $2, username = $3, password = $4, token = $5,
			status = $6, logged_in = $7, birthday = $8
		WHERE id = $1
	`

	result, err := q.ExecContext(
		ctx,
		query,
		user.ID,
		user.Name,
		user.Username,
		user.Password,
		user.Token,
		string(user.Status),
		user.LoggedIn,
		birthdayValue(user.Birthday),
	)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to update user")
		return mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func birthdayValue(d *Date) sql.NullTime {
	if d == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: d.Time, Valid: true}
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return fmt.Errorf("%w: %s", ErrUsernameTaken, pgErr.ConstraintName)
	}
	return err
}
