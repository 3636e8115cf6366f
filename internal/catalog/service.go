package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/blossomshop/cart-client/internal/gateway"
	"github.com/blossomshop/cart-client/pkg/config"
	pkgerrors "github.com/blossomshop/cart-client/pkg/errors"
	"github.com/blossomshop/cart-client/pkg/logger"
)

type flowerSource interface {
	GetFlower(ctx context.Context, flowerID string) (*gateway.FlowerDetail, error)
	SearchFlowers(ctx context.Context, name string) ([]gateway.FlowerDetail, error)
}

// Service exposes catalog lookups backed by the marketplace, with a stock
// snapshot cache in front.
type Service interface {
	Flower(ctx context.Context, flowerID string) (*Snapshot, error)
	SearchByName(ctx context.Context, name string) ([]Snapshot, error)
	CheckPurchasable(snap *Snapshot, quantity int) error
	Invalidate(ctx context.Context, flowerID string)
}

type service struct {
	source flowerSource
	cache  StockCache
	cfg    config.CatalogConfig
	logg   *logger.Logger
	clock  func() time.Time
}

// NewService builds the catalog service.
func NewService(source flowerSource, cache StockCache, cfg config.CatalogConfig, logg *logger.Logger) (Service, error) {
	if source == nil {
		return nil, fmt.Errorf("flower source required")
	}
	if cache == nil {
		return nil, fmt.Errorf("stock cache required")
	}
	return &service{
		source: source,
		cache:  cache,
		cfg:    cfg,
		logg:   logg,
		clock:  time.Now,
	}, nil
}

// Flower returns the cached snapshot when fresh, otherwise fetches from the
// marketplace and refreshes the cache.
func (s *service) Flower(ctx context.Context, flowerID string) (*Snapshot, error) {
	flowerID = strings.TrimSpace(flowerID)
	if flowerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "flower id is required")
	}

	if cached, err := s.cache.Get(ctx, flowerID); err == nil && cached != nil {
		return cached, nil
	} else if err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithFlowerID(ctx, flowerID), "stock cache read failed: "+err.Error())
	}

	detail, err := s.source.GetFlower(ctx, flowerID)
	if err != nil {
		return nil, err
	}

	snap := snapshotFromDetail(detail, s.clock())
	if err := s.cache.Put(ctx, snap); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithFlowerID(ctx, flowerID), "stock cache write failed: "+err.Error())
	}
	return snap, nil
}

// SearchByName queries the marketplace and warms the cache with every hit,
// the way the storefront header search primed product cards.
func (s *service) SearchByName(ctx context.Context, name string) ([]Snapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search name is required")
	}

	details, err := s.source.SearchFlowers(ctx, name)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	snaps := make([]Snapshot, 0, len(details))
	for i := range details {
		snap := snapshotFromDetail(&details[i], now)
		snaps = append(snaps, *snap)
		if err := s.cache.Put(ctx, snap); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithFlowerID(ctx, snap.FlowerID), "stock cache write failed: "+err.Error())
		}
	}
	return snaps, nil
}

// CheckPurchasable applies the storefront listing rules before any cart
// mutation: real price, unexpired listing, and stock covering the request.
func (s *service) CheckPurchasable(snap *Snapshot, quantity int) error {
	if snap == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "flower not found")
	}
	if !snap.Priced() {
		return pkgerrors.New(pkgerrors.CodeRejected, "price on request, contact the seller")
	}
	if snap.Expired(s.clock(), s.cfg.ListingZoneOffset, s.cfg.ListingWindow) {
		return pkgerrors.New(pkgerrors.CodeRejected, "this listing has expired")
	}
	if snap.AvailableStock <= 0 {
		return pkgerrors.New(pkgerrors.CodeStockExceeded, snap.FlowerName+" is out of stock")
	}
	if quantity > snap.AvailableStock {
		return pkgerrors.New(pkgerrors.CodeStockExceeded,
			fmt.Sprintf("only %d of %s available", snap.AvailableStock, snap.FlowerName))
	}
	return nil
}

// Invalidate drops the cached snapshot, forcing the next lookup to refetch.
func (s *service) Invalidate(ctx context.Context, flowerID string) {
	if err := s.cache.Forget(ctx, flowerID); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithFlowerID(ctx, flowerID), "stock cache invalidation failed: "+err.Error())
	}
}

func snapshotFromDetail(detail *gateway.FlowerDetail, now time.Time) *Snapshot {
	return &Snapshot{
		FlowerID:       detail.FlowerID,
		FlowerName:     detail.FlowerName,
		Price:          detail.Price,
		AvailableStock: detail.Quantity,
		CategoryID:     detail.CategoryID,
		ListingDate:    detail.ListingDate,
		FetchedAt:      now,
	}
}
