package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blossomshop/cart-client/internal/gateway"
	pkgerrors "github.com/blossomshop/cart-client/pkg/errors"
	"github.com/blossomshop/cart-client/pkg/logger"
	"github.com/blossomshop/cart-client/pkg/metrics"
)

// ProfileStore persists cart state across sessions.
type ProfileStore interface {
	LoadCart(ctx context.Context) Cart
	SaveCart(ctx context.Context, c Cart) error
	ClearSession(ctx context.Context) error
}

// Service is the device-side cart. Every mutation applies locally first and
// then pushes to the marketplace: a rejection rolls the local change back, an
// unreachable shop keeps it and marks the cart pending sync.
type Service interface {
	AddItem(ctx context.Context, in AddItemInput) error
	UpdateQuantity(ctx context.Context, flowerID string, quantity int) error
	RemoveItem(ctx context.Context, flowerID string) error
	Rehydrate(ctx context.Context)
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	Items() []LineItem
	Count() int
	PendingSync() bool
	LocalOnly() bool
	Subscribe(fn func(count int)) func()
}

type service struct {
	mu sync.Mutex
	// generation counts line-content versions; the pending flag does not
	// bump it, so a late gateway outcome can still settle its own mutation.
	generation uint64
	state      Cart
	// localOnly marks a mutation that stayed on the device because no
	// session credential was present. Cleared once a push lands.
	localOnly bool

	store       ProfileStore
	gw          gateway.Client
	notifier    *Notifier
	logg        *logger.Logger
	cartMetrics *metrics.CartMetrics
}

// NewService loads the persisted cart and wires the reconciler.
func NewService(ctx context.Context, store ProfileStore, gw gateway.Client, logg *logger.Logger, cartMetrics *metrics.CartMetrics) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("profile store required")
	}
	if gw == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	return &service{
		state:       store.LoadCart(ctx),
		store:       store,
		gw:          gw,
		notifier:    NewNotifier(),
		logg:        logg,
		cartMetrics: cartMetrics,
	}, nil
}

func (s *service) AddItem(ctx context.Context, in AddItemInput) error {
	ctx = s.opCtx(ctx, "add_item", in.FlowerID)
	if err := in.validate(); err != nil {
		s.cartMetrics.IncMutation("add_item", guardOutcome(err))
		return err
	}

	return s.mutate(ctx, "add_item",
		func(c *Cart) error {
			held := 0
			if line, ok := c.Find(in.FlowerID); ok {
				held = line.Quantity
			}
			// Custom orders are made to order and carry no stock to guard.
			if !in.IsCustomOrder {
				if in.AvailableStock <= 0 {
					return pkgerrors.New(pkgerrors.CodeStockExceeded, in.FlowerName+" is out of stock")
				}
				if held+in.Quantity > in.AvailableStock {
					return pkgerrors.New(pkgerrors.CodeStockExceeded,
						fmt.Sprintf("only %d of %s available", in.AvailableStock, in.FlowerName))
				}
			}
			c.upsertLine(LineItem{
				FlowerID:       in.FlowerID,
				FlowerName:     in.FlowerName,
				Price:          in.Price,
				Quantity:       in.Quantity,
				AvailableStock: in.AvailableStock,
				IsCustomOrder:  in.IsCustomOrder,
			})
			return nil
		},
		func(ctx context.Context) error {
			_, err := s.gw.AddItem(ctx, gateway.AddItemRequest{
				FlowerID:      in.FlowerID,
				Quantity:      in.Quantity,
				Price:         in.Price,
				IsCustomOrder: in.IsCustomOrder,
			})
			return err
		})
}

func (s *service) UpdateQuantity(ctx context.Context, flowerID string, quantity int) error {
	ctx = s.opCtx(ctx, "update_quantity", flowerID)
	if strings.TrimSpace(flowerID) == "" {
		s.cartMetrics.IncMutation("update_quantity", "invalid")
		return pkgerrors.New(pkgerrors.CodeValidation, "flower id is required")
	}
	if quantity < 0 {
		s.cartMetrics.IncMutation("update_quantity", "invalid")
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must not be negative")
	}

	return s.mutate(ctx, "update_quantity",
		func(c *Cart) error {
			line, ok := c.Find(flowerID)
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "flower is not in the cart")
			}
			// Stock is advisory and may be unknown after a server refresh;
			// only guard when we actually hold a figure.
			if !line.IsCustomOrder && line.AvailableStock > 0 && quantity > line.AvailableStock {
				return pkgerrors.New(pkgerrors.CodeStockExceeded,
					fmt.Sprintf("only %d of %s available", line.AvailableStock, line.FlowerName))
			}
			c.setQuantity(flowerID, quantity)
			return nil
		},
		func(ctx context.Context) error {
			_, err := s.gw.UpdateQuantity(ctx, gateway.UpdateQuantityRequest{
				FlowerID: flowerID,
				Quantity: quantity,
			})
			return err
		})
}

func (s *service) RemoveItem(ctx context.Context, flowerID string) error {
	ctx = s.opCtx(ctx, "remove_item", flowerID)
	if strings.TrimSpace(flowerID) == "" {
		s.cartMetrics.IncMutation("remove_item", "invalid")
		return pkgerrors.New(pkgerrors.CodeValidation, "flower id is required")
	}

	return s.mutate(ctx, "remove_item",
		func(c *Cart) error {
			if !c.removeLine(flowerID) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "flower is not in the cart")
			}
			return nil
		},
		func(ctx context.Context) error {
			return s.gw.RemoveItem(ctx, flowerID)
		})
}

// Rehydrate re-reads the persisted cart into memory, picking up external
// changes to the profile store (another process clearing it, for instance).
// In-flight gateway outcomes for the replaced state are discarded.
func (s *service) Rehydrate(ctx context.Context) {
	ctx = s.opCtx(ctx, "rehydrate", "")
	loaded := s.store.LoadCart(ctx)

	s.mu.Lock()
	s.state = loaded
	s.generation++
	s.mu.Unlock()

	s.notifier.Notify(loaded.UnitCount())
}

// Refresh re-hydrates from the profile store, then replaces the cart with
// the authoritative server cart. Signed out shoppers keep their local cart.
func (s *service) Refresh(ctx context.Context) error {
	ctx = s.opCtx(ctx, "refresh", "")
	s.Rehydrate(ctx)

	lines, err := s.gw.FetchCart(ctx)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeUnauthenticated) {
			return nil
		}
		return err
	}

	next := Cart{}
	for _, line := range lines {
		next.Items = append(next.Items, LineItem{
			FlowerID:      line.FlowerID,
			FlowerName:    line.FlowerName,
			Price:         line.Price,
			Quantity:      line.Quantity,
			IsCustomOrder: line.IsCustomOrder,
		})
	}

	s.mu.Lock()
	if err := s.store.SaveCart(ctx, next); err != nil {
		s.mu.Unlock()
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting refreshed cart")
	}
	s.state = next
	s.generation++
	s.localOnly = false
	s.mu.Unlock()

	s.notifier.Notify(next.UnitCount())
	return nil
}

// Logout wipes the device profile and empties the cart.
func (s *service) Logout(ctx context.Context) error {
	ctx = s.opCtx(ctx, "logout", "")
	if err := s.store.ClearSession(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing session")
	}

	s.mu.Lock()
	s.state = Cart{}
	s.generation++
	s.localOnly = false
	s.mu.Unlock()

	s.notifier.Notify(0)
	return nil
}

func (s *service) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone().Items
}

func (s *service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.UnitCount()
}

func (s *service) PendingSync() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.PendingSync
}

// LocalOnly reports whether the latest pushed mutation stayed on the device
// because the shopper is signed out.
func (s *service) LocalOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localOnly
}

func (s *service) Subscribe(fn func(count int)) func() {
	return s.notifier.Subscribe(fn)
}

// mutate runs one reconciled cart change: apply and persist locally under the
// lock, notify, then push to the marketplace and settle the outcome. If the
// caller's context ends while the push is in flight, the mutation returns as
// pending and the outcome settles later, gated on the generation so it cannot
// clobber a newer cart.
func (s *service) mutate(ctx context.Context, op string, apply func(*Cart) error, push func(context.Context) error) error {
	s.mu.Lock()
	snapshot := s.state.Clone()
	next := s.state.Clone()
	if err := apply(&next); err != nil {
		s.mu.Unlock()
		s.cartMetrics.IncMutation(op, guardOutcome(err))
		return err
	}
	if err := s.store.SaveCart(ctx, next); err != nil {
		s.mu.Unlock()
		s.cartMetrics.IncMutation(op, "persist_failed")
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting cart")
	}
	s.state = next
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	s.notifier.Notify(next.UnitCount())

	pushCtx := context.WithoutCancel(ctx)
	outcome := make(chan error, 1)
	go func() { outcome <- push(pushCtx) }()

	select {
	case err := <-outcome:
		return s.settle(pushCtx, op, gen, snapshot, err)
	case <-ctx.Done():
		// Flag before handing off to the late settle, so its success path
		// cannot observe the flag as still unset.
		s.flagPending(pushCtx, gen)
		go func() { _ = s.settle(pushCtx, op, gen, snapshot, <-outcome) }()
		s.cartMetrics.IncMutation(op, "pending")
		return nil
	}
}

// settle applies the gateway outcome of a mutation.
func (s *service) settle(ctx context.Context, op string, gen uint64, snapshot Cart, pushErr error) error {
	if pushErr == nil {
		s.clearPending(ctx, gen)
		s.setLocalOnly(false)
		s.cartMetrics.IncMutation(op, "ok")
		return nil
	}

	switch pkgerrors.CodeOf(pushErr) {
	case pkgerrors.CodeUnauthenticated:
		// Guest shopping: the cart lives on the device only. Surfaced via
		// LocalOnly so callers can prompt the shopper to sign in.
		s.setLocalOnly(true)
		s.cartMetrics.IncMutation(op, "local_only")
		return nil

	case pkgerrors.CodeNotFound:
		// The server cart never had the line; the local change stands.
		s.clearPending(ctx, gen)
		s.setLocalOnly(false)
		s.cartMetrics.IncMutation(op, "ok")
		return nil

	case pkgerrors.CodeRejected, pkgerrors.CodeValidation, pkgerrors.CodeStockExceeded, pkgerrors.CodeInvalidQuantity:
		s.cartMetrics.IncMutation(op, "rejected")
		if !s.restore(ctx, snapshot, gen) {
			s.warn(ctx, "discarding stale rejection for superseded cart state", pushErr)
		}
		return pushErr

	default:
		s.flagPending(ctx, gen)
		s.cartMetrics.IncMutation(op, "pending")
		s.warn(ctx, "cart change kept locally, sync pending", pushErr)
		return nil
	}
}

func (s *service) setLocalOnly(value bool) {
	s.mu.Lock()
	s.localOnly = value
	s.mu.Unlock()
}

// flagPending marks the cart dirty if the mutation's state is still current.
func (s *service) flagPending(ctx context.Context, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.state.PendingSync {
		return
	}
	next := s.state.Clone()
	next.PendingSync = true
	if err := s.store.SaveCart(ctx, next); err != nil {
		s.warn(ctx, "persisting pending flag failed", err)
	}
	s.state = next
}

func (s *service) clearPending(ctx context.Context, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || !s.state.PendingSync {
		return
	}
	next := s.state.Clone()
	next.PendingSync = false
	if err := s.store.SaveCart(ctx, next); err != nil {
		s.warn(ctx, "persisting synced flag failed", err)
	}
	s.state = next
}

// restore rolls the cart back to the pre-mutation snapshot. Returns false
// when a newer mutation already replaced the state.
func (s *service) restore(ctx context.Context, snapshot Cart, gen uint64) bool {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return false
	}
	if err := s.store.SaveCart(ctx, snapshot); err != nil {
		s.warn(ctx, "persisting rollback failed", err)
	}
	s.state = snapshot
	s.generation++
	s.mu.Unlock()

	s.notifier.Notify(snapshot.UnitCount())
	return true
}

func (s *service) opCtx(ctx context.Context, op, flowerID string) context.Context {
	if s.logg == nil {
		return ctx
	}
	ctx = s.logg.WithMutation(ctx, op)
	if flowerID != "" {
		ctx = s.logg.WithFlowerID(ctx, flowerID)
	}
	return ctx
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	s.logg.Warn(ctx, msg)
}

func guardOutcome(err error) string {
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeStockExceeded:
		return "stock_exceeded"
	case pkgerrors.CodeNotFound:
		return "not_in_cart"
	default:
		return "invalid"
	}
}
