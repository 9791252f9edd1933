package seed

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/orderdesk/internal/domain/order"
	"github.com/xenking/orderdesk/internal/domain/product"
)

// Orders is the part of the order service a seed run needs.
type Orders interface {
	CreateOrder(ctx context.Context, draft order.Order) (order.Order, error)
	AddProductToOrder(ctx context.Context, orderID, productID int64) (order.Order, error)
	CloseOrder(ctx context.Context, id int64) (order.Order, error)
}

// Products is the part of the product service a seed run needs.
type Products interface {
	CreateProduct(ctx context.Context, draft product.Draft) (product.Product, error)
}

// Result summarizes a seed run.
type Result struct {
	RunID    uuid.UUID
	Products int
	Orders   int
}

// Apply creates the products and orders of every data set through the
// services, so all business rules apply to seeded state. Data sets are
// applied in order and it stops at the first rejection. Nothing is rolled
// back: products and orders created before the rejection stay committed.
func Apply(ctx context.Context, orders Orders, products Products, sets ...Data) (Result, error) {
	res := Result{RunID: uuid.New()}
	ctx = zctx.With(ctx, zap.Stringer("seed_run", res.RunID))
	lg := zctx.From(ctx)

	for i, data := range sets {
		ids := make([]int64, len(data.Products))
		for j, p := range data.Products {
			created, err := products.CreateProduct(ctx, product.Draft{Name: p.Name, Price: p.Price})
			if err != nil {
				return res, errors.Wrapf(err, "set %d: product %d", i, j)
			}
			ids[j] = created.ID
			res.Products++
		}

		for j, o := range data.Orders {
			if err := applyOrder(ctx, orders, o, ids); err != nil {
				return res, errors.Wrapf(err, "set %d: order %d", i, j)
			}
			res.Orders++
		}
	}

	lg.Info("Seed applied",
		zap.Int("sets", len(sets)),
		zap.Int("products", res.Products),
		zap.Int("orders", res.Orders),
	)
	return res, nil
}

func applyOrder(ctx context.Context, orders Orders, o Order, ids []int64) error {
	created, err := orders.CreateOrder(ctx, order.Order{CustomerName: o.CustomerName})
	if err != nil {
		return err
	}

	for _, idx := range o.Products {
		if idx < 0 || idx >= len(ids) {
			return errors.Errorf("product index %d out of range [0, %d)", idx, len(ids))
		}
		if _, err := orders.AddProductToOrder(ctx, created.ID, ids[idx]); err != nil {
			return err
		}
	}

	if o.Closed {
		if _, err := orders.CloseOrder(ctx, created.ID); err != nil {
			return err
		}
	}
	return nil
}
