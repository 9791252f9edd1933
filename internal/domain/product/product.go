package product

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/orderdesk/internal/domain"
)

// MaxNameLength is the longest product name accepted, in characters.
const MaxNameLength = 50

// ErrInUse is returned when deleting a product that an order still links.
var ErrInUse = errors.New("product is in use by an order")

// Product represents a catalog item that orders can link.
type Product struct {
	ID    int64
	Name  string
	Price decimal.Decimal
}

// Draft is the caller input for creating a product. Price is a pointer so a
// missing price can be told apart from zero.
type Draft struct {
	Name  string
	Price *float64
}

// InUseError reports a delete blocked by an order that links the product.
type InUseError struct {
	ProductID int64
	OrderID   int64
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("product %d is in use by order %d", e.ProductID, e.OrderID)
}

// Is matches both ErrInUse and the shared conflict kind.
func (e *InUseError) Is(target error) bool {
	return target == ErrInUse || target == domain.ErrConflict
}

// NotFound returns the lookup error for a missing product id.
func NotFound(id int64) error {
	return &domain.NotFoundError{Entity: "product", ID: id}
}

// Repository owns the canonical product catalog. Every mutation is committed
// as a new snapshot and broadcast to watchers.
type Repository interface {
	// Watch delivers the current snapshot immediately and every committed
	// snapshot afterwards. The channel is closed when ctx is done; a ctx
	// without cancellation keeps the watcher registered for good.
	Watch(ctx context.Context) <-chan []Product
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id int64) error
}
