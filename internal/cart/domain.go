package cart

import (
	"github.com/shopspring/decimal"
)

// LineItem is one flower entry in the cart. Price is captured at add time
// and deliberately not reconciled against later catalog changes.
type LineItem struct {
	FlowerID       string          `json:"flowerId"`
	FlowerName     string          `json:"flowerName"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int             `json:"quantity"`
	AvailableStock int             `json:"availableStock"`
	IsCustomOrder  bool            `json:"isCustomOrder"`
}

// Cart is the ordered line list, unique by flower id. PendingSync marks a
// local mutation that never reached the marketplace.
type Cart struct {
	Items       []LineItem `json:"items"`
	PendingSync bool       `json:"pendingSync,omitempty"`
}

// UnitCount is the derived badge count: total units across all lines.
func (c Cart) UnitCount() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// DistinctCount returns the number of distinct flowers in the cart.
func (c Cart) DistinctCount() int {
	return len(c.Items)
}

// IsEmpty reports whether the cart holds no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// IndexOf returns the position of the line for the given flower, or -1.
func (c Cart) IndexOf(flowerID string) int {
	for i, item := range c.Items {
		if item.FlowerID == flowerID {
			return i
		}
	}
	return -1
}

// Find returns the line for the given flower when present.
func (c Cart) Find(flowerID string) (LineItem, bool) {
	if i := c.IndexOf(flowerID); i >= 0 {
		return c.Items[i], true
	}
	return LineItem{}, false
}

// Clone deep-copies the cart so rollback snapshots cannot alias live state.
func (c Cart) Clone() Cart {
	out := Cart{PendingSync: c.PendingSync}
	if len(c.Items) > 0 {
		out.Items = make([]LineItem, len(c.Items))
		copy(out.Items, c.Items)
	}
	return out
}

// upsertLine adds quantity to an existing line or appends a new one,
// preserving insertion order. Stock checks belong to the caller.
func (c *Cart) upsertLine(line LineItem) {
	if i := c.IndexOf(line.FlowerID); i >= 0 {
		c.Items[i].Quantity += line.Quantity
		c.Items[i].AvailableStock = line.AvailableStock
		return
	}
	c.Items = append(c.Items, line)
}

// setQuantity replaces the quantity for a line, dropping the line entirely
// when the new quantity is zero. Returns false when the flower is absent.
func (c *Cart) setQuantity(flowerID string, quantity int) bool {
	i := c.IndexOf(flowerID)
	if i < 0 {
		return false
	}
	if quantity == 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return true
	}
	c.Items[i].Quantity = quantity
	return true
}

// removeLine drops the line for the flower. Returns false when absent.
func (c *Cart) removeLine(flowerID string) bool {
	i := c.IndexOf(flowerID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}
