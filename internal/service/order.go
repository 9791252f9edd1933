package service

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xenking/orderdesk/internal/domain/order"
	"github.com/xenking/orderdesk/internal/domain/product"
)

// Line is one product link of an order resolved against the catalog.
// Resolved is false when the linked product is not in the catalog.
type Line struct {
	ProductID int64
	Name      string
	Price     decimal.Decimal
	Resolved  bool
}

// Lines is an order with its links resolved and totalled.
type Lines struct {
	Order order.Order
	Items []Line
	// Total is the sum of resolved prices.
	Total decimal.Decimal
}

// OrderService enforces the order lifecycle and the rule that a product is
// linked to at most one order.
type OrderService struct {
	orders   order.Repository
	products product.Repository
	lock     *Lock
	tel      *Telemetry
}

// NewOrderService creates an OrderService. lock must be the Lock shared with
// the ProductService.
func NewOrderService(
	orders order.Repository,
	products product.Repository,
	lock *Lock,
	tel *Telemetry,
) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		lock:     lock,
		tel:      tel,
	}
}

// GetAllOrders streams order snapshots until ctx is done.
func (s *OrderService) GetAllOrders(ctx context.Context) <-chan []order.Order {
	return s.orders.Watch(ctx)
}

// ListOrders returns the current order snapshot.
func (s *OrderService) ListOrders(ctx context.Context) ([]order.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// GetOrderByID returns a single order.
func (s *OrderService) GetOrderByID(ctx context.Context, id int64) (order.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// CreateOrder validates the customer name and stores draft as a new open
// order. Products carried by the draft must not be linked to any other order.
func (s *OrderService) CreateOrder(ctx context.Context, draft order.Order) (_ order.Order, rerr error) {
	ctx, span := s.tel.start(ctx, "OrderService.CreateOrder")
	defer func() { s.tel.end(ctx, span, rerr) }()

	lg := zctx.From(ctx)
	if err := order.ValidateCustomerName(draft.CustomerName); err != nil {
		logRejected(lg, "Order rejected", err)
		return order.Order{}, err
	}

	var created order.Order
	err := s.lock.Do(func() error {
		if len(draft.Products) > 0 {
			orders, err := s.orders.List(ctx)
			if err != nil {
				return errors.Wrap(err, "list orders")
			}
			for _, op := range draft.Products {
				if holder, ok := order.Holder(orders, op.ProductID, 0); ok {
					return &order.LinkError{
						ProductID: op.ProductID,
						HolderID:  holder.ID,
						Err:       order.ErrProductInAnotherOrder,
					}
				}
			}
		}

		o, err := s.orders.Create(ctx, draft)
		if err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		logRejected(lg, "Order rejected", err)
		return order.Order{}, err
	}

	s.tel.ordersCreated.Add(ctx, 1)
	lg.Info("Order created",
		zap.Int64("order_id", created.ID),
		zap.Int("products", len(created.Products)),
	)
	return created, nil
}

// CloseOrder closes an order that has at least one product. The products
// check runs on every call, including for orders that are already closed.
func (s *OrderService) CloseOrder(ctx context.Context, id int64) (_ order.Order, rerr error) {
	ctx, span := s.tel.start(ctx, "OrderService.CloseOrder", attribute.Int64("order.id", id))
	defer func() { s.tel.end(ctx, span, rerr) }()

	lg := zctx.From(ctx).With(zap.Int64("order_id", id))

	var closed order.Order
	err := s.lock.Do(func() error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := order.ValidateProductsBeforeClosing(o.Products); err != nil {
			return err
		}

		closed, err = s.orders.Close(ctx, id)
		return err
	})
	if err != nil {
		logRejected(lg, "Close rejected", err)
		return order.Order{}, err
	}

	s.tel.ordersClosed.Add(ctx, 1)
	lg.Info("Order closed", zap.Int("products", len(closed.Products)))
	return closed, nil
}

// AddProductToOrder links productID to the order unless another order
// already holds it. The store rejects a product linked twice to one order.
func (s *OrderService) AddProductToOrder(ctx context.Context, orderID, productID int64) (_ order.Order, rerr error) {
	ctx, span := s.tel.start(ctx, "OrderService.AddProductToOrder",
		attribute.Int64("order.id", orderID),
		attribute.Int64("product.id", productID),
	)
	defer func() { s.tel.end(ctx, span, rerr) }()

	lg := zctx.From(ctx).With(zap.Int64("order_id", orderID), zap.Int64("product_id", productID))

	var updated order.Order
	err := s.lock.Do(func() error {
		orders, err := s.orders.List(ctx)
		if err != nil {
			return errors.Wrap(err, "list orders")
		}
		if holder, ok := order.Holder(orders, productID, orderID); ok {
			return &order.LinkError{
				OrderID:   orderID,
				ProductID: productID,
				HolderID:  holder.ID,
				Err:       order.ErrProductInAnotherOrder,
			}
		}

		updated, err = s.orders.AddProduct(ctx, orderID, productID)
		return err
	})
	if err != nil {
		logRejected(lg, "Add product rejected", err)
		return order.Order{}, err
	}

	lg.Info("Product added to order")
	return updated, nil
}

// RemoveProductFromOrder unlinks productID from the order. Removing a product
// the order does not hold succeeds without changes.
func (s *OrderService) RemoveProductFromOrder(ctx context.Context, orderID, productID int64) (_ order.Order, rerr error) {
	ctx, span := s.tel.start(ctx, "OrderService.RemoveProductFromOrder",
		attribute.Int64("order.id", orderID),
		attribute.Int64("product.id", productID),
	)
	defer func() { s.tel.end(ctx, span, rerr) }()

	lg := zctx.From(ctx).With(zap.Int64("order_id", orderID), zap.Int64("product_id", productID))

	var updated order.Order
	err := s.lock.Do(func() error {
		var err error
		updated, err = s.orders.RemoveProduct(ctx, orderID, productID)
		return err
	})
	if err != nil {
		logRejected(lg, "Remove product rejected", err)
		return order.Order{}, err
	}

	lg.Info("Product removed from order")
	return updated, nil
}

// OrderLines resolves the products linked to an order against the catalog
// and totals their prices. Links to products missing from the catalog are
// reported unresolved.
func (s *OrderService) OrderLines(ctx context.Context, orderID int64) (Lines, error) {
	var (
		o       order.Order
		catalog []product.Product
	)
	err := s.lock.Do(func() error {
		var err error
		if o, err = s.orders.GetByID(ctx, orderID); err != nil {
			return err
		}
		if catalog, err = s.products.List(ctx); err != nil {
			return errors.Wrap(err, "list products")
		}
		return nil
	})
	if err != nil {
		return Lines{}, err
	}

	byID := make(map[int64]product.Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	lines := Lines{
		Order: o,
		Items: make([]Line, 0, len(o.Products)),
		Total: decimal.Zero,
	}
	for _, op := range o.Products {
		p, ok := byID[op.ProductID]
		if !ok {
			lines.Items = append(lines.Items, Line{ProductID: op.ProductID})
			continue
		}
		lines.Items = append(lines.Items, Line{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Resolved:  true,
		})
		lines.Total = lines.Total.Add(p.Price)
	}

	return lines, nil
}

// logRejected logs business rule rejections at debug level and anything
// else as an error.
func logRejected(lg *zap.Logger, msg string, err error) {
	if reason := rejectionReason(err); reason != "" {
		lg.Debug(msg, zap.String("reason", reason), zap.Error(err))
		return
	}
	lg.Error(msg, zap.Error(err))
}
