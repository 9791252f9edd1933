package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/orderdesk/internal/domain/order"
)

var _ order.Repository = (*OrderStore)(nil)

// OrderStore implements order.Repository in memory. It only rejects links
// that would duplicate a product within one order; cross-order rules belong
// to the order service.
type OrderStore struct {
	mu     sync.Mutex
	orders []order.Order
	lastID int64
	feed   *feed[order.Order]
}

// NewOrderStore returns an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: []order.Order{},
		feed:   newFeed(cloneOrders),
	}
}

// Watch streams the order collection, starting with the current snapshot.
func (s *OrderStore) Watch(ctx context.Context) <-chan []order.Order {
	return s.feed.watch(ctx)
}

// Watchers returns the number of active Watch subscriptions.
func (s *OrderStore) Watchers() int {
	return s.feed.watchers()
}

// List returns a deep copy of every order in creation order.
func (s *OrderStore) List(ctx context.Context) ([]order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneOrders(s.orders), nil
}

// GetByID returns the order with the given id.
func (s *OrderStore) GetByID(ctx context.Context, id int64) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return order.Order{}, order.NotFound(id)
	}
	return s.orders[i].Clone(), nil
}

// Create stores draft as a new open order. The draft id and closed flag are
// ignored and any draft links are re-keyed to the assigned id.
func (s *OrderStore) Create(ctx context.Context, draft order.Order) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.lastID + 1
	o := order.Order{
		ID:           id,
		CustomerName: draft.CustomerName,
		Products:     make([]order.OrderProduct, 0, len(draft.Products)),
	}
	for _, op := range draft.Products {
		if o.HasProduct(op.ProductID) {
			return order.Order{}, &order.LinkError{
				OrderID:   id,
				ProductID: op.ProductID,
				Err:       order.ErrDuplicateProduct,
			}
		}
		o.Products = append(o.Products, order.OrderProduct{OrderID: id, ProductID: op.ProductID})
	}

	s.lastID = id
	next := make([]order.Order, 0, len(s.orders)+1)
	next = append(next, s.orders...)
	next = append(next, o)
	s.commit(next)

	return o.Clone(), nil
}

// Close marks the order as closed. Preconditions are checked by the caller.
func (s *OrderStore) Close(ctx context.Context, id int64) (order.Order, error) {
	return s.update(id, func(o *order.Order) error {
		o.IsClosed = true
		return nil
	})
}

// AddProduct links productID to the order.
func (s *OrderStore) AddProduct(ctx context.Context, orderID, productID int64) (order.Order, error) {
	return s.update(orderID, func(o *order.Order) error {
		if o.HasProduct(productID) {
			return &order.LinkError{
				OrderID:   orderID,
				ProductID: productID,
				Err:       order.ErrDuplicateProduct,
			}
		}
		o.Products = append(o.Products, order.OrderProduct{OrderID: orderID, ProductID: productID})
		return nil
	})
}

// RemoveProduct unlinks productID from the order. Removing a product that is
// not linked still commits the unchanged order.
func (s *OrderStore) RemoveProduct(ctx context.Context, orderID, productID int64) (order.Order, error) {
	return s.update(orderID, func(o *order.Order) error {
		o.Products = slices.DeleteFunc(o.Products, func(op order.OrderProduct) bool {
			return op.ProductID == productID
		})
		return nil
	})
}

// update applies fn to a copy of the order and commits the result. Nothing is
// committed when fn fails.
func (s *OrderStore) update(id int64, fn func(o *order.Order) error) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return order.Order{}, order.NotFound(id)
	}

	o := s.orders[i].Clone()
	if err := fn(&o); err != nil {
		return order.Order{}, err
	}

	next := slices.Clone(s.orders)
	next[i] = o
	s.commit(next)

	return o.Clone(), nil
}

func (s *OrderStore) index(id int64) int {
	return slices.IndexFunc(s.orders, func(o order.Order) bool {
		return o.ID == id
	})
}

func (s *OrderStore) commit(next []order.Order) {
	s.orders = next
	s.feed.publish(next)
}

func cloneOrders(orders []order.Order) []order.Order {
	out := make([]order.Order, len(orders))
	for i, o := range orders {
		out[i] = o.Clone()
	}
	return out
}
