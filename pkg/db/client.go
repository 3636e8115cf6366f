package db

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"

	"github.com/blossomshop/cart-client/pkg/config"
	"github.com/blossomshop/cart-client/pkg/db/models"
	"github.com/blossomshop/cart-client/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Client wraps the GORM connection to the per-device profile database.
type Client struct {
	conn *gorm.DB
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New opens the profile database at the configured path, creating the schema
// when auto-migration is enabled.
func New(ctx context.Context, cfg config.ProfileConfig, logg *logger.Logger) (*Client, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("profile database path is required")
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	gormCfg := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	}

	conn, err := gorm.Open(sqlite.Open(cfg.Path), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("opening profile database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := conn.WithContext(ctx).AutoMigrate(&models.ProfileEntry{}); err != nil {
			return nil, fmt.Errorf("migrating profile schema: %w", err)
		}
	}

	if logg != nil {
		logg.Info(ctx, "profile database opened")
	}

	return &Client{conn: conn}, nil
}

// DB returns the underlying GORM connection.
func (c *Client) DB() *gorm.DB {
	return c.conn
}

// Ping verifies the datasource is reachable.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close shuts down the pooled connections.
func (c *Client) Close() error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTx executes fn inside a transaction, rolling back on error/panic.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := c.conn.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("rolling back: %v (original: %w)", rbErr, err)
		}
		return err
	}

	return tx.Commit().Error
}
