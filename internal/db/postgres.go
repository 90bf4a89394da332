package db

import (
	"context"
	"database/sql"
	"time"

	"account_service/internal/config"
	"account_service/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
)

const pingTimeout = 3 * time.Second

// Open connects to Postgres through the pgx driver, retrying the initial
// ping, and applies the pool limits.
func Open(ctx context.Context, cfg *config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, err
	}

	err = utils.Retry(ctx, utils.DefaultRetry("postgres"), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	logrus.WithFields(logrus.Fields{
		"host": cfg.Host,
		"db":   cfg.Name,
	}).Info("Database connection established successfully")
	return db, nil
}

// Init is Open for the binaries: failure to connect is fatal.
func Init(cfg *config.DBConfig) *sql.DB {
	db, err := Open(context.Background(), cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	return db
}
