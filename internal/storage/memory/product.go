package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/orderdesk/internal/domain/product"
)

var _ product.Repository = (*ProductStore)(nil)

// ProductStore implements product.Repository in memory.
type ProductStore struct {
	mu       sync.Mutex
	products []product.Product
	lastID   int64
	feed     *feed[product.Product]
}

// NewProductStore returns an empty ProductStore.
func NewProductStore() *ProductStore {
	return &ProductStore{
		products: []product.Product{},
		feed:     newFeed(cloneProducts),
	}
}

// Watch streams the catalog, starting with the current snapshot.
func (s *ProductStore) Watch(ctx context.Context) <-chan []product.Product {
	return s.feed.watch(ctx)
}

// Watchers returns the number of active Watch subscriptions.
func (s *ProductStore) Watchers() int {
	return s.feed.watchers()
}

// List returns a copy of the current catalog in creation order.
func (s *ProductStore) List(ctx context.Context) ([]product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProducts(s.products), nil
}

// GetByID returns the product with the given id.
func (s *ProductStore) GetByID(ctx context.Context, id int64) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return product.Product{}, product.NotFound(id)
	}
	return s.products[i], nil
}

// Create assigns the next id to p and commits it. Ids are never reused, even
// after the product holding the highest id is deleted.
func (s *ProductStore) Create(ctx context.Context, p product.Product) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	p.ID = s.lastID

	next := make([]product.Product, 0, len(s.products)+1)
	next = append(next, s.products...)
	next = append(next, p)
	s.commit(next)

	return p, nil
}

// Delete removes the product with the given id.
func (s *ProductStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return product.NotFound(id)
	}

	next := make([]product.Product, 0, len(s.products)-1)
	next = append(next, s.products[:i]...)
	next = append(next, s.products[i+1:]...)
	s.commit(next)

	return nil
}

func (s *ProductStore) index(id int64) int {
	return slices.IndexFunc(s.products, func(p product.Product) bool {
		return p.ID == id
	})
}

func (s *ProductStore) commit(next []product.Product) {
	s.products = next
	s.feed.publish(next)
}

func cloneProducts(products []product.Product) []product.Product {
	out := make([]product.Product, len(products))
	copy(out, products)
	return out
}
