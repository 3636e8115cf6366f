package cart

import (
	"strings"

	pkgerrors "github.com/blossomshop/cart-client/pkg/errors"
	"github.com/shopspring/decimal"
)

// AddItemInput carries everything the product surface knows about a flower
// at the moment of the add click. AvailableStock is the advisory stock from
// the listing; the guard rejects rather than clamps when it is exceeded.
type AddItemInput struct {
	FlowerID       string
	FlowerName     string
	Price          decimal.Decimal
	Quantity       int
	AvailableStock int
	IsCustomOrder  bool
}

func (in AddItemInput) validate() error {
	if strings.TrimSpace(in.FlowerID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "flower id is required")
	}
	if in.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be a positive amount")
	}
	return nil
}
