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

// ProductService validates catalog changes and blocks deleting products that
// an order still links.
type ProductService struct {
	products product.Repository
	orders   *OrderService
	lock     *Lock
	tel      *Telemetry
}

// NewProductService creates a ProductService. Order snapshots are read
// through orders; lock must be the Lock that orders uses.
func NewProductService(
	products product.Repository,
	orders *OrderService,
	lock *Lock,
	tel *Telemetry,
) *ProductService {
	return &ProductService{
		products: products,
		orders:   orders,
		lock:     lock,
		tel:      tel,
	}
}

// GetAllProducts streams catalog snapshots until ctx is done.
func (s *ProductService) GetAllProducts(ctx context.Context) <-chan []product.Product {
	return s.products.Watch(ctx)
}

// ListProducts returns the current catalog.
func (s *ProductService) ListProducts(ctx context.Context) ([]product.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return products, nil
}

// GetProductByID returns a single product.
func (s *ProductService) GetProductByID(ctx context.Context, id int64) (product.Product, error) {
	return s.products.GetByID(ctx, id)
}

// CreateProduct validates draft and adds it to the catalog.
func (s *ProductService) CreateProduct(ctx context.Context, draft product.Draft) (_ product.Product, rerr error) {
	ctx, span := s.tel.start(ctx, "ProductService.CreateProduct")
	defer func() { s.tel.end(ctx, span, rerr) }()

	lg := zctx.From(ctx)
	if err := product.ValidateName(draft.Name); err != nil {
		logRejected(lg, "Product rejected", err)
		return product.Product{}, err
	}
	if err := product.ValidatePrice(draft.Price); err != nil {
		logRejected(lg, "Product rejected", err)
		return product.Product{}, err
	}

	var created product.Product
	err := s.lock.Do(func() error {
		var err error
		created, err = s.products.Create(ctx, product.Product{
			Name:  draft.Name,
			Price: decimal.NewFromFloat(*draft.Price),
		})
		return err
	})
	if err != nil {
		logRejected(lg, "Product rejected", err)
		return product.Product{}, err
	}

	s.tel.productsCreated.Add(ctx, 1)
	lg.Info("Product created",
		zap.Int64("product_id", created.ID),
		zap.String("price", created.Price.String()),
	)
	return created, nil
}

// DeleteProduct removes a product that no order links.
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) (rerr error) {
	ctx, span := s.tel.start(ctx, "ProductService.DeleteProduct", attribute.Int64("product.id", id))
	defer func() { s.tel.end(ctx, span, rerr) }()

	lg := zctx.From(ctx).With(zap.Int64("product_id", id))

	err := s.lock.Do(func() error {
		orders, err := s.orders.ListOrders(ctx)
		if err != nil {
			return err
		}
		if err := product.ValidateProductInUse(id, orders); err != nil {
			return err
		}
		return s.products.Delete(ctx, id)
	})
	if err != nil {
		logRejected(lg, "Delete rejected", err)
		return err
	}

	s.tel.productsDeleted.Add(ctx, 1)
	lg.Info("Product deleted")
	return nil
}

// AvailableProducts returns the products not linked to any order.
func (s *ProductService) AvailableProducts(ctx context.Context) ([]product.Product, error) {
	var (
		catalog []product.Product
		orders  []order.Order
	)
	err := s.lock.Do(func() error {
		var err error
		if catalog, err = s.products.List(ctx); err != nil {
			return errors.Wrap(err, "list products")
		}
		orders, err = s.orders.ListOrders(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	available := make([]product.Product, 0, len(catalog))
	for _, p := range catalog {
		if _, held := order.Holder(orders, p.ID, 0); !held {
			available = append(available, p)
		}
	}
	return available, nil
}
