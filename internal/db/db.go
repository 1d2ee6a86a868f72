package db

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Options tune the connection pool.
type Options struct {
	URL           string
	MaxOpenConns  int
	SlowThreshold time.Duration
	LogSQL        bool
}

func Connect(opts Options) (*gorm.DB, error) {
	if opts.URL == "" {
		return nil, eris.New("db: DATABASE_URL is empty")
	}
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 20
	}
	if opts.SlowThreshold <= 0 {
		opts.SlowThreshold = 100 * time.Millisecond
	}

	level := logger.Warn
	if opts.LogSQL {
		level = logger.Info
	}
	lg := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             opts.SlowThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	d, err := gorm.Open(postgres.Open(opts.URL), &gorm.Config{
		Logger:                 lg,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, eris.Wrap(err, "db: connect")
	}

	sqlDB, err := d.DB()
	if err != nil {
		return nil, eris.Wrap(err, "db: get sql.DB")
	}

	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	DB = d
	zap.L().Info("connected to database", zap.String("component", "db"))
	return d, nil
}

// OpenPool opens a pgx pool for the raw spatial queries that bypass gorm.
func OpenPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, eris.Wrap(err, "db: open pgx pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "db: ping pgx pool")
	}
	return pool, nil
}
