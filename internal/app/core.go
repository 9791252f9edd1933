package app

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/orderdesk/internal/seed"
	"github.com/xenking/orderdesk/internal/service"
	"github.com/xenking/orderdesk/internal/storage/memory"
	"github.com/xenking/orderdesk/pkg/health"
)

// Core is the wired order and product core: both stores and the services
// that guard them.
type Core struct {
	Orders   *service.OrderService
	Products *service.ProductService

	orderStore   *memory.OrderStore
	productStore *memory.ProductStore
}

// NewCore wires empty stores into services sharing one lock.
func NewCore(tel *service.Telemetry) *Core {
	var (
		orderStore   = memory.NewOrderStore()
		productStore = memory.NewProductStore()
		lock         = service.NewLock()
	)
	orders := service.NewOrderService(orderStore, productStore, lock, tel)
	return &Core{
		Orders:       orders,
		Products:     service.NewProductService(productStore, orders, lock, tel),
		orderStore:   orderStore,
		productStore: productStore,
	}
}

// Seed reads the seed files concurrently and applies them in order.
func (c *Core) Seed(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	sets, err := seed.ReadFiles(ctx, paths)
	if err != nil {
		return errors.Wrap(err, "read seed files")
	}
	res, err := seed.Apply(ctx, c.Orders, c.Products, sets...)
	if err != nil {
		return errors.Wrapf(err, "apply seed run %s", res.RunID)
	}

	zctx.From(ctx).Info("Seeded",
		zap.Strings("files", paths),
		zap.Int("products", res.Products),
		zap.Int("orders", res.Orders),
	)
	return nil
}

// RegisterChecks adds the core's probes to h.
func (c *Core) RegisterChecks(h *health.Health, cfg HealthConfig) {
	h.Add(health.Liveness, "goroutines", health.GoroutineCount(cfg.MaxGoroutines))
	h.Add(health.Liveness, "order_watchers",
		health.MaxCount("order watcher", c.orderStore.Watchers, cfg.MaxWatchers))
	h.Add(health.Liveness, "product_watchers",
		health.MaxCount("product watcher", c.productStore.Watchers, cfg.MaxWatchers))
	h.Add(health.Readiness, "stores", func(ctx context.Context) error {
		if _, err := c.Orders.ListOrders(ctx); err != nil {
			return err
		}
		_, err := c.Products.ListProducts(ctx)
		return err
	}, health.WithTimeout(5*time.Second))
}
