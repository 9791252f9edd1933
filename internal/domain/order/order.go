package order

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-faster/errors"

	"github.com/xenking/orderdesk/internal/domain"
)

// Status is the lifecycle state of an order. Open is the initial state and
// Closed is terminal.
type Status string

const (
	// StatusOpen accepts product links and can be closed.
	StatusOpen Status = "open"
	// StatusClosed never reverts to open.
	StatusClosed Status = "closed"
)

// Sentinel errors for product links.
var (
	// ErrDuplicateProduct is returned when a product is linked to the same
	// order twice.
	ErrDuplicateProduct = errors.New("product is already in this order")
	// ErrProductInAnotherOrder is returned when a product is already linked
	// to a different order.
	ErrProductInAnotherOrder = errors.New("product is already in another order")
)

// OrderProduct links a product to an order. A product id appears in at most
// one order at any time.
type OrderProduct struct {
	OrderID   int64
	ProductID int64
}

// Order is a customer's purchase aggregate.
type Order struct {
	ID           int64
	CustomerName string
	IsClosed     bool
	Products     []OrderProduct
}

// Status returns the lifecycle state derived from IsClosed.
func (o Order) Status() Status {
	if o.IsClosed {
		return StatusClosed
	}
	return StatusOpen
}

// HasProduct reports whether the order links productID.
func (o Order) HasProduct(productID int64) bool {
	return slices.ContainsFunc(o.Products, func(op OrderProduct) bool {
		return op.ProductID == productID
	})
}

// ProductIDs returns the linked product ids in link order.
func (o Order) ProductIDs() []int64 {
	ids := make([]int64, len(o.Products))
	for i, op := range o.Products {
		ids[i] = op.ProductID
	}
	return ids
}

// Clone returns a deep copy so the product slice is never shared.
func (o Order) Clone() Order {
	o.Products = slices.Clone(o.Products)
	if o.Products == nil {
		o.Products = []OrderProduct{}
	}
	return o
}

// Holder returns the first order in orders, other than exceptID, that links
// productID. Pass 0 as exceptID to consider every order.
func Holder(orders []Order, productID, exceptID int64) (Order, bool) {
	for _, o := range orders {
		if o.ID != exceptID && o.HasProduct(productID) {
			return o, true
		}
	}
	return Order{}, false
}

// LinkError reports a rejected product link. Err is ErrDuplicateProduct or
// ErrProductInAnotherOrder; HolderID is set for the latter.
type LinkError struct {
	OrderID   int64
	ProductID int64
	HolderID  int64
	Err       error
}

func (e *LinkError) Error() string {
	if e.HolderID != 0 {
		return fmt.Sprintf("order %d: product %d is held by order %d: %s", e.OrderID, e.ProductID, e.HolderID, e.Err)
	}
	return fmt.Sprintf("order %d: product %d: %s", e.OrderID, e.ProductID, e.Err)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

// NotFound returns the lookup error for a missing order id.
func NotFound(id int64) error {
	return &domain.NotFoundError{Entity: "order", ID: id}
}

// Repository owns the canonical order collection. Implementations commit
// each mutation as a new snapshot and broadcast it to watchers; they do not
// enforce business rules beyond same-order duplicate links.
type Repository interface {
	// Watch delivers the current snapshot immediately and every committed
	// snapshot afterwards. The channel is closed when ctx is done; a ctx
	// without cancellation keeps the watcher registered for good.
	Watch(ctx context.Context) <-chan []Order
	List(ctx context.Context) ([]Order, error)
	GetByID(ctx context.Context, id int64) (Order, error)
	Create(ctx context.Context, draft Order) (Order, error)
	Close(ctx context.Context, id int64) (Order, error)
	AddProduct(ctx context.Context, orderID, productID int64) (Order, error)
	RemoveProduct(ctx context.Context, orderID, productID int64) (Order, error)
}
