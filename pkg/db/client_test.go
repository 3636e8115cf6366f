package db

import (
	"context"
	"errors"
	"testing"

	"github.com/blossomshop/cart-client/pkg/config"
	"github.com/blossomshop/cart-client/pkg/db/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.ProfileEntry{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestNewMigratesProfileSchema(t *testing.T) {
	client, err := New(context.Background(), config.ProfileConfig{
		Path:        "file::memory:",
		AutoMigrate: true,
	}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	entry := models.ProfileEntry{Key: models.ProfileKeyCart, Value: "[]"}
	if err := client.DB().Create(&entry).Error; err != nil {
		t.Fatalf("expected profile_entries table to exist: %v", err)
	}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestNewRequiresPath(t *testing.T) {
	if _, err := New(context.Background(), config.ProfileConfig{}, nil); err == nil {
		t.Fatal("expected missing path to error")
	}
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&models.ProfileEntry{Key: "a", Value: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&models.ProfileEntry{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&models.ProfileEntry{Key: "b", Value: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&models.ProfileEntry{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to keep 1 record, got %d", count)
	}
}
