package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/blossomshop/cart-client/internal/gateway"
	"github.com/blossomshop/cart-client/pkg/config"
	pkgerrors "github.com/blossomshop/cart-client/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	flowers map[string]gateway.FlowerDetail
	calls   int
}

func (s *stubSource) GetFlower(ctx context.Context, flowerID string) (*gateway.FlowerDetail, error) {
	s.calls++
	detail, ok := s.flowers[flowerID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "resource not found")
	}
	return &detail, nil
}

func (s *stubSource) SearchFlowers(ctx context.Context, name string) ([]gateway.FlowerDetail, error) {
	s.calls++
	var out []gateway.FlowerDetail
	for _, detail := range s.flowers {
		out = append(out, detail)
	}
	return out, nil
}

func testCatalogConfig() config.CatalogConfig {
	return config.CatalogConfig{
		StockTTL:          2 * time.Minute,
		ListingWindow:     72 * time.Hour,
		ListingZoneOffset: 7 * time.Hour,
	}
}

func newTestService(t *testing.T, source *stubSource) Service {
	t.Helper()
	svc, err := NewService(source, NewMemoryStockCache(2*time.Minute), testCatalogConfig(), nil)
	require.NoError(t, err)
	return svc
}

func freshDetail(id string) gateway.FlowerDetail {
	return gateway.FlowerDetail{
		FlowerID:    id,
		FlowerName:  "Red Rose",
		Price:       decimal.NewFromInt(150000),
		Quantity:    5,
		ListingDate: time.Now().Add(-time.Hour),
	}
}

func TestFlowerCachesSecondLookup(t *testing.T) {
	source := &stubSource{flowers: map[string]gateway.FlowerDetail{"f-1": freshDetail("f-1")}}
	svc := newTestService(t, source)
	ctx := context.Background()

	first, err := svc.Flower(ctx, "f-1")
	require.NoError(t, err)
	require.Equal(t, 5, first.AvailableStock)

	second, err := svc.Flower(ctx, "f-1")
	require.NoError(t, err)
	require.Equal(t, first.FlowerID, second.FlowerID)
	require.Equal(t, 1, source.calls, "second lookup must be served from cache")
}

func TestFlowerValidatesID(t *testing.T) {
	svc := newTestService(t, &stubSource{})
	_, err := svc.Flower(context.Background(), "  ")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestFlowerNotFoundPassesThrough(t *testing.T) {
	svc := newTestService(t, &stubSource{flowers: map[string]gateway.FlowerDetail{}})
	_, err := svc.Flower(context.Background(), "missing")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestInvalidateForcesRefetch(t *testing.T) {
	source := &stubSource{flowers: map[string]gateway.FlowerDetail{"f-1": freshDetail("f-1")}}
	svc := newTestService(t, source)
	ctx := context.Background()

	_, err := svc.Flower(ctx, "f-1")
	require.NoError(t, err)

	svc.Invalidate(ctx, "f-1")

	_, err = svc.Flower(ctx, "f-1")
	require.NoError(t, err)
	require.Equal(t, 2, source.calls)
}

func TestSearchByNameWarmsCache(t *testing.T) {
	source := &stubSource{flowers: map[string]gateway.FlowerDetail{"f-1": freshDetail("f-1")}}
	svc := newTestService(t, source)
	ctx := context.Background()

	results, err := svc.SearchByName(ctx, "rose")
	require.NoError(t, err)
	require.Len(t, results, 1)

	_, err = svc.Flower(ctx, "f-1")
	require.NoError(t, err)
	require.Equal(t, 1, source.calls, "lookup after search must hit the cache")
}

func TestSearchByNameRequiresTerm(t *testing.T) {
	svc := newTestService(t, &stubSource{})
	_, err := svc.SearchByName(context.Background(), "")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestCheckPurchasable(t *testing.T) {
	svc := newTestService(t, &stubSource{})
	now := time.Now()

	healthy := &Snapshot{
		FlowerID:       "f-1",
		FlowerName:     "Red Rose",
		Price:          decimal.NewFromInt(150000),
		AvailableStock: 5,
		ListingDate:    now.Add(-time.Hour),
	}
	require.NoError(t, svc.CheckPurchasable(healthy, 3))

	require.True(t, pkgerrors.HasCode(svc.CheckPurchasable(nil, 1), pkgerrors.CodeNotFound))

	unpriced := *healthy
	unpriced.Price = decimal.Zero
	err := svc.CheckPurchasable(&unpriced, 1)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeRejected))
	require.Contains(t, pkgerrors.As(err).Message(), "contact the seller")

	soldOut := *healthy
	soldOut.AvailableStock = 0
	require.True(t, pkgerrors.HasCode(svc.CheckPurchasable(&soldOut, 1), pkgerrors.CodeStockExceeded))

	require.True(t, pkgerrors.HasCode(svc.CheckPurchasable(healthy, 6), pkgerrors.CodeStockExceeded))
}

func TestCheckPurchasableExpiredListing(t *testing.T) {
	svc := newTestService(t, &stubSource{})

	expired := &Snapshot{
		FlowerID:       "f-1",
		FlowerName:     "Red Rose",
		Price:          decimal.NewFromInt(150000),
		AvailableStock: 5,
		// Zone offset (7h) plus window (72h) passed two hours ago.
		ListingDate: time.Now().Add(-(7*time.Hour + 72*time.Hour + 2*time.Hour)),
	}
	require.True(t, pkgerrors.HasCode(svc.CheckPurchasable(expired, 1), pkgerrors.CodeRejected))
}

func TestSnapshotExpiryMath(t *testing.T) {
	listed := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	snap := Snapshot{ListingDate: listed}

	expires := snap.ExpiresAt(7*time.Hour, 72*time.Hour)
	require.Equal(t, time.Date(2026, 3, 13, 19, 0, 0, 0, time.UTC), expires)

	require.False(t, snap.Expired(expires.Add(-time.Second), 7*time.Hour, 72*time.Hour))
	require.True(t, snap.Expired(expires, 7*time.Hour, 72*time.Hour))
}

func TestSnapshotZeroListingDateNeverExpires(t *testing.T) {
	snap := Snapshot{}
	require.False(t, snap.Expired(time.Now().Add(1000*time.Hour), 7*time.Hour, 72*time.Hour))
}

func TestMemoryCacheExpiresEntries(t *testing.T) {
	now := time.Now()
	cache := NewMemoryStockCache(time.Minute).(*memoryStockCache)
	cache.clock = func() time.Time { return now }

	snap := &Snapshot{FlowerID: "f-1", FlowerName: "Red Rose"}
	require.NoError(t, cache.Put(context.Background(), snap))

	got, err := cache.Get(context.Background(), "f-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	now = now.Add(2 * time.Minute)
	got, err = cache.Get(context.Background(), "f-1")
	require.NoError(t, err)
	require.Nil(t, got)
}
