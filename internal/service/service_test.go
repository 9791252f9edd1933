package service

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/orderdesk/internal/domain/order"
	"github.com/xenking/orderdesk/internal/domain/product"
	"github.com/xenking/orderdesk/internal/storage/memory"
)

// --- Spy implementations ---

// spyOrderRepo counts mutations that reach the store.
type spyOrderRepo struct {
	order.Repository
	creates, closes, adds, removes int
}

func (s *spyOrderRepo) Create(ctx context.Context, draft order.Order) (order.Order, error) {
	s.creates++
	return s.Repository.Create(ctx, draft)
}

func (s *spyOrderRepo) Close(ctx context.Context, id int64) (order.Order, error) {
	s.closes++
	return s.Repository.Close(ctx, id)
}

func (s *spyOrderRepo) AddProduct(ctx context.Context, orderID, productID int64) (order.Order, error) {
	s.adds++
	return s.Repository.AddProduct(ctx, orderID, productID)
}

func (s *spyOrderRepo) RemoveProduct(ctx context.Context, orderID, productID int64) (order.Order, error) {
	s.removes++
	return s.Repository.RemoveProduct(ctx, orderID, productID)
}

// spyProductRepo counts mutations that reach the store.
type spyProductRepo struct {
	product.Repository
	creates, deletes int
}

func (s *spyProductRepo) Create(ctx context.Context, p product.Product) (product.Product, error) {
	s.creates++
	return s.Repository.Create(ctx, p)
}

func (s *spyProductRepo) Delete(ctx context.Context, id int64) error {
	s.deletes++
	return s.Repository.Delete(ctx, id)
}

// brokenOrderRepo fails every snapshot read.
type brokenOrderRepo struct {
	order.Repository
	err error
}

func (b *brokenOrderRepo) List(context.Context) ([]order.Order, error) {
	return nil, b.err
}

var errStoreDown = errors.New("store down")

// --- Helpers ---

type fixture struct {
	orders      *OrderService
	products    *ProductService
	orderRepo   *spyOrderRepo
	productRepo *spyProductRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, NopTelemetry())
}

func newFixtureWith(t *testing.T, tel *Telemetry) *fixture {
	t.Helper()
	orderRepo := &spyOrderRepo{Repository: memory.NewOrderStore()}
	productRepo := &spyProductRepo{Repository: memory.NewProductStore()}
	lock := NewLock()

	orders := NewOrderService(orderRepo, productRepo, lock, tel)
	return &fixture{
		orders:      orders,
		products:    NewProductService(productRepo, orders, lock, tel),
		orderRepo:   orderRepo,
		productRepo: productRepo,
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	return zctx.Base(t.Context(), zaptest.NewLogger(t))
}

func price(v float64) *float64 {
	return &v
}
