package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/blossomshop/cart-client/internal/cart"
	"github.com/blossomshop/cart-client/internal/catalog"
	"github.com/blossomshop/cart-client/internal/gateway"
	"github.com/blossomshop/cart-client/internal/localstore"
	"github.com/blossomshop/cart-client/pkg/config"
	"github.com/blossomshop/cart-client/pkg/db"
	pkgerrors "github.com/blossomshop/cart-client/pkg/errors"
	"github.com/blossomshop/cart-client/pkg/logger"
	"github.com/blossomshop/cart-client/pkg/metrics"
	"github.com/blossomshop/cart-client/pkg/redis"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	ctx := context.Background()
	// bootstrap logger early (then re-init after config load)
	logg := logger.New(logger.Options{ServiceName: "cartcli"})

	_ = godotenv.Load()

	// Flags
	cmd := flag.String("cmd", "list", "command: add|update|remove|list|count|refresh|flower|search|login|logout")
	flowerID := flag.String("flower", "", "flower id (for add, update, remove, flower)")
	qty := flag.Int("qty", 1, "quantity (for add, update)")
	name := flag.String("name", "", "search term (for search)")
	token := flag.String("token", "", "session credential (for login)")

	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "cartcli",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx = logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
	})
	ctx = logg.WithRequestID(ctx, uuid.NewString())

	dbClient, err := db.New(ctx, cfg.Profile, logg)
	requireResource(ctx, logg, "profile database", err)
	defer dbClient.Close()

	store, err := localstore.New(dbClient, logg)
	requireResource(ctx, logg, "profile store", err)

	cartMetrics := metrics.NewCartMetrics(prometheus.NewRegistry())

	gatewayClient, err := gateway.NewClient(cfg.Gateway, store, logg, cartMetrics)
	requireResource(ctx, logg, "marketplace gateway", err)

	stockCache := buildStockCache(ctx, cfg, logg)

	catalogSvc, err := catalog.NewService(gatewayClient, stockCache, cfg.Catalog, logg)
	requireResource(ctx, logg, "catalog service", err)

	cartSvc, err := cart.NewService(ctx, store, gatewayClient, logg, cartMetrics)
	requireResource(ctx, logg, "cart service", err)

	switch *cmd {
	case "add":
		runAdd(ctx, catalogSvc, cartSvc, *flowerID, *qty)
	case "update":
		runMutation(cartSvc.UpdateQuantity(ctx, *flowerID, *qty))
		printCart(cartSvc)
	case "remove":
		runMutation(cartSvc.RemoveItem(ctx, *flowerID))
		printCart(cartSvc)
	case "list":
		printCart(cartSvc)
	case "count":
		fmt.Println(cartSvc.Count())
	case "refresh":
		runMutation(cartSvc.Refresh(ctx))
		printCart(cartSvc)
	case "flower":
		runFlower(ctx, catalogSvc, *flowerID)
	case "search":
		runSearch(ctx, catalogSvc, *name)
	case "login":
		if strings.TrimSpace(*token) == "" {
			fmt.Fprintln(os.Stderr, "missing -token for login")
			os.Exit(1)
		}
		runMutation(store.SaveToken(ctx, *token))
		fmt.Println("signed in")
	case "logout":
		runMutation(cartSvc.Logout(ctx))
		fmt.Println("signed out, cart cleared")
	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}
}

// buildStockCache prefers redis when configured and falls back to the
// in-process cache otherwise.
func buildStockCache(ctx context.Context, cfg *config.Config, logg *logger.Logger) catalog.StockCache {
	if !cfg.Redis.Enabled() {
		return catalog.NewMemoryStockCache(cfg.Catalog.StockTTL)
	}
	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Warn(ctx, "redis unavailable, using in-memory stock cache: "+err.Error())
		return catalog.NewMemoryStockCache(cfg.Catalog.StockTTL)
	}
	cache, err := catalog.NewRedisStockCache(redisClient, cfg.Catalog.StockTTL)
	if err != nil {
		logg.Warn(ctx, "redis stock cache rejected config, using in-memory: "+err.Error())
		return catalog.NewMemoryStockCache(cfg.Catalog.StockTTL)
	}
	return cache
}

func runAdd(ctx context.Context, catalogSvc catalog.Service, cartSvc cart.Service, flowerID string, qty int) {
	snap, err := catalogSvc.Flower(ctx, flowerID)
	if err != nil {
		fail(err)
	}
	if err := catalogSvc.CheckPurchasable(snap, qty); err != nil {
		fail(err)
	}

	runMutation(cartSvc.AddItem(ctx, cart.AddItemInput{
		FlowerID:       snap.FlowerID,
		FlowerName:     snap.FlowerName,
		Price:          snap.Price,
		Quantity:       qty,
		AvailableStock: snap.AvailableStock,
	}))
	printCart(cartSvc)
}

func runFlower(ctx context.Context, catalogSvc catalog.Service, flowerID string) {
	snap, err := catalogSvc.Flower(ctx, flowerID)
	if err != nil {
		fail(err)
	}
	fmt.Printf("%s  %s  price=%s  stock=%d\n", snap.FlowerID, snap.FlowerName, snap.Price.StringFixed(2), snap.AvailableStock)
}

func runSearch(ctx context.Context, catalogSvc catalog.Service, name string) {
	snaps, err := catalogSvc.SearchByName(ctx, name)
	if err != nil {
		fail(err)
	}
	if len(snaps) == 0 {
		fmt.Println("no flowers found")
		return
	}
	for _, snap := range snaps {
		fmt.Printf("%s  %s  price=%s  stock=%d\n", snap.FlowerID, snap.FlowerName, snap.Price.StringFixed(2), snap.AvailableStock)
	}
}

func runMutation(err error) {
	if err != nil {
		fail(err)
	}
}

func printCart(cartSvc cart.Service) {
	items := cartSvc.Items()
	if len(items) == 0 {
		fmt.Println("cart is empty")
		return
	}
	for _, item := range items {
		fmt.Printf("%s  %s  x%d  @%s\n", item.FlowerID, item.FlowerName, item.Quantity, item.Price.StringFixed(2))
	}
	fmt.Printf("total units: %d\n", cartSvc.Count())
	if cartSvc.PendingSync() {
		fmt.Println("note: latest change is saved on this device and will sync when the shop is reachable")
	}
	if cartSvc.LocalOnly() {
		fmt.Println("note: sign in to save your cart to your account")
	}
}

func fail(err error) {
	if typed := pkgerrors.As(err); typed != nil {
		fmt.Fprintln(os.Stderr, typed.UserMessage())
	} else {
		fmt.Fprintln(os.Stderr, err.Error())
	}
	os.Exit(1)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
