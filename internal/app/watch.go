package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/xenking/orderdesk/internal/domain/order"
	"github.com/xenking/orderdesk/internal/domain/product"
)

type orderSummary struct {
	Total  int
	Open   int
	Closed int
	Linked int
}

func summarizeOrders(orders []order.Order) orderSummary {
	s := orderSummary{Total: len(orders)}
	for _, o := range orders {
		if o.IsClosed {
			s.Closed++
		} else {
			s.Open++
		}
		s.Linked += len(o.Products)
	}
	return s
}

// watchOrders logs every order snapshot until the stream is closed.
func watchOrders(ctx context.Context, lg *zap.Logger, snapshots <-chan []order.Order) {
	for orders := range snapshots {
		s := summarizeOrders(orders)
		lg.Info("Orders snapshot",
			zap.Int("total", s.Total),
			zap.Int("open", s.Open),
			zap.Int("closed", s.Closed),
			zap.Int("linked_products", s.Linked),
		)
	}
	lg.Debug("Order stream closed", zap.Error(ctx.Err()))
}

// watchProducts logs every catalog snapshot until the stream is closed.
func watchProducts(ctx context.Context, lg *zap.Logger, snapshots <-chan []product.Product) {
	for products := range snapshots {
		lg.Info("Products snapshot", zap.Int("total", len(products)))
	}
	lg.Debug("Product stream closed", zap.Error(ctx.Err()))
}
