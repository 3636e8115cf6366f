package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is the client's last-known view of a flower listing. Stock and
// price here are advisory; the backend re-validates on every cart push.
type Snapshot struct {
	FlowerID       string          `json:"flowerId"`
	FlowerName     string          `json:"flowerName"`
	Price          decimal.Decimal `json:"price"`
	AvailableStock int             `json:"availableStock"`
	CategoryID     string          `json:"categoryId,omitempty"`
	ListingDate    time.Time       `json:"listingDate"`
	FetchedAt      time.Time       `json:"fetchedAt"`
}

// ExpiresAt computes when the listing stops being purchasable: the listing
// date shifted into the shop's zone plus the configured window.
func (s Snapshot) ExpiresAt(zoneOffset, window time.Duration) time.Time {
	return s.ListingDate.Add(zoneOffset).Add(window)
}

// Expired reports whether the listing window has passed at the given instant.
func (s Snapshot) Expired(now time.Time, zoneOffset, window time.Duration) bool {
	if s.ListingDate.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt(zoneOffset, window))
}

// Priced reports whether the flower carries a real price. Zero-priced
// listings mean "contact the seller" and cannot be carted.
func (s Snapshot) Priced() bool {
	return s.Price.IsPositive()
}
