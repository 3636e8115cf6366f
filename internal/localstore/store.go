package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/blossomshop/cart-client/internal/cart"
	"github.com/blossomshop/cart-client/pkg/db"
	"github.com/blossomshop/cart-client/pkg/db/models"
	"github.com/blossomshop/cart-client/pkg/logger"
	"gorm.io/gorm"
)

// dirty flag key: set when a local mutation never reached the marketplace.
// Kept separate so the cart key stays a plain line-item array, the same
// layout the web client wrote to localStorage.
const profileKeyCartDirty = "cart_dirty"

// Store persists the shopper's cart and session credential in the device
// profile, standing in for the browser's localStorage.
type Store struct {
	db   *db.Client
	logg *logger.Logger
}

// New wires the store to the profile database.
func New(dbClient *db.Client, logg *logger.Logger) (*Store, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("profile database client required")
	}
	return &Store{db: dbClient, logg: logg}, nil
}

// LoadCart reads the persisted cart. A missing or malformed value loads as
// an empty cart: local state is best-effort and must never block startup.
func (s *Store) LoadCart(ctx context.Context) cart.Cart {
	raw, ok, err := s.get(ctx, models.ProfileKeyCart)
	if err != nil {
		s.warn(ctx, "reading persisted cart failed", err)
		return cart.Cart{}
	}
	if !ok {
		return cart.Cart{}
	}

	var items []cart.LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.warn(ctx, "persisted cart is malformed, starting empty", err)
		return cart.Cart{}
	}

	loaded := cart.Cart{Items: sanitize(items)}
	if dirty, ok, err := s.get(ctx, profileKeyCartDirty); err == nil && ok && dirty == "1" {
		loaded.PendingSync = true
	}
	return loaded
}

// SaveCart overwrites the persisted cart and its dirty flag atomically.
func (s *Store) SaveCart(ctx context.Context, c cart.Cart) error {
	encoded, err := json.Marshal(c.Items)
	if err != nil {
		return fmt.Errorf("encoding cart: %w", err)
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Save(&models.ProfileEntry{Key: models.ProfileKeyCart, Value: string(encoded)}).Error; err != nil {
			return fmt.Errorf("persisting cart: %w", err)
		}
		if c.PendingSync {
			return tx.Save(&models.ProfileEntry{Key: profileKeyCartDirty, Value: "1"}).Error
		}
		return tx.Delete(&models.ProfileEntry{}, "key = ?", profileKeyCartDirty).Error
	})
}

// ClearCart removes the persisted cart.
func (s *Store) ClearCart(ctx context.Context) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Delete(&models.ProfileEntry{}, "key IN ?", []string{models.ProfileKeyCart, profileKeyCartDirty}).Error
	})
}

// Token returns the stored session credential, empty when signed out.
func (s *Store) Token(ctx context.Context) (string, error) {
	raw, ok, err := s.get(ctx, models.ProfileKeyToken)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return strings.TrimSpace(raw), nil
}

// SaveToken stores the session credential issued at login.
func (s *Store) SaveToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token is empty")
	}
	return s.set(ctx, models.ProfileKeyToken, token)
}

// User returns the cached user record (raw JSON), empty when absent.
func (s *Store) User(ctx context.Context) (string, error) {
	raw, ok, err := s.get(ctx, models.ProfileKeyUser)
	if err != nil || !ok {
		return "", err
	}
	return raw, nil
}

// SaveUser caches the user record alongside the token.
func (s *Store) SaveUser(ctx context.Context, raw string) error {
	return s.set(ctx, models.ProfileKeyUser, raw)
}

// ClearSession wipes credential, user, and cart in one transaction: logout
// must leave no trace of the account on the device.
func (s *Store) ClearSession(ctx context.Context) error {
	keys := []string{models.ProfileKeyToken, models.ProfileKeyUser, models.ProfileKeyCart, profileKeyCartDirty}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Delete(&models.ProfileEntry{}, "key IN ?", keys).Error
	})
}

func (s *Store) get(ctx context.Context, key string) (string, bool, error) {
	var entry models.ProfileEntry
	err := s.db.DB().WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (s *Store) set(ctx context.Context, key, value string) error {
	return s.db.DB().WithContext(ctx).Save(&models.ProfileEntry{Key: key, Value: value}).Error
}

func (s *Store) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(ctx, msg+": "+err.Error())
}

// sanitize drops structurally invalid lines instead of failing the whole
// load; a single bad record must not take the cart down with it.
func sanitize(items []cart.LineItem) []cart.LineItem {
	out := items[:0]
	for _, item := range items {
		if item.FlowerID == "" || item.Quantity <= 0 {
			continue
		}
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
