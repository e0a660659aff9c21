// Package database opens the MySQL pool behind the product store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/01moynul/keyu-storefront/internal/config"
	"github.com/01moynul/keyu-storefront/pkg/retry"
)

// DSN returns cfg.DSN when set, otherwise a DSN built from the discrete
// fields. Either way parseTime is on and affected-row counts report matched
// rows, so an update that changes nothing is not mistaken for a missing id.
func DSN(cfg config.Database) (string, error) {
	var mc *mysql.Config
	if cfg.DSN != "" {
		parsed, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return "", fmt.Errorf("database: parse dsn: %w", err)
		}
		mc = parsed
	} else {
		mc = mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		mc.DBName = cfg.Name
	}
	mc.ParseTime = true
	mc.ClientFoundRows = true
	mc.Loc = time.UTC
	return mc.FormatDSN(), nil
}

// OpenDB opens the pool, applies the pool limits and waits for the server
// to answer a ping.
func OpenDB(ctx context.Context, cfg config.Database) (*sql.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	return OpenDBWithDSN(ctx, dsn, cfg)
}

func OpenDBWithDSN(ctx context.Context, dsn string, cfg config.Database) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	err = retry.Do(ctx, retry.RetryConfig{
		MaxAttempts: 5,
		Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
	}, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			slog.Warn("database ping failed", "op", "database.OpenDB", "err", err)
			return err
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	slog.Info("database connection pool established", "op", "database.OpenDB",
		"max_open_conns", cfg.MaxOpenConns)
	return db, nil
}

// OpenGorm wraps an open pool in gorm without opening new connections.
func OpenGorm(db *sql.DB) (*gorm.DB, error) {
	gdb, err := gorm.Open(gormmysql.New(gormmysql.Config{Conn: db}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Warn),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("database: gorm: %w", err)
	}
	return gdb, nil
}
