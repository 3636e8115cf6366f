package gateway

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddItemRequest is the Cart/add-item body. Field casing follows the
// marketplace API contract.
type AddItemRequest struct {
	FlowerID      string          `json:"FlowerId" validate:"required"`
	Quantity      int             `json:"Quantity" validate:"gt=0"`
	Price         decimal.Decimal `json:"Price"`
	IsCustomOrder bool            `json:"IsCustomOrder"`
}

// UpdateQuantityRequest is the Cart/update-quantity body.
type UpdateQuantityRequest struct {
	FlowerID string `json:"FlowerId" validate:"required"`
	Quantity int    `json:"Quantity" validate:"gte=0"`
}

// Envelope is the backend's uniform response wrapper.
type Envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	ItemCount int    `json:"itemCount,omitempty"`
}

// CartSummary reports the server-side cart state after a mutation.
type CartSummary struct {
	ItemCount int
	Message   string
}

// RemoteLine is one line of the authoritative server cart.
type RemoteLine struct {
	FlowerID      string          `json:"flowerId"`
	FlowerName    string          `json:"flowerName"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	IsCustomOrder bool            `json:"isCustomOrder"`
}

// FlowerDetail is the catalog view of a flower. Quantity is the available
// stock as the backend last knew it.
type FlowerDetail struct {
	FlowerID    string          `json:"flowerId"`
	FlowerName  string          `json:"flowerName"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	CategoryID  string          `json:"categoryId,omitempty"`
	ListingDate time.Time       `json:"listingDate"`
}
