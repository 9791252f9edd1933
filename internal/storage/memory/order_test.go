package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/orderdesk/internal/domain"
	"github.com/xenking/orderdesk/internal/domain/order"
)

func createOrder(t *testing.T, s *OrderStore, name string) order.Order {
	t.Helper()
	o, err := s.Create(t.Context(), order.Order{CustomerName: name})
	require.NoError(t, err)
	return o
}

func TestOrderStore_CreateNormalizesDraft(t *testing.T) {
	ctx := t.Context()
	s := NewOrderStore()

	o, err := s.Create(ctx, order.Order{
		ID:           42,
		CustomerName: "Ana",
		IsClosed:     true,
		Products:     []order.OrderProduct{{OrderID: 9, ProductID: 3}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), o.ID)
	assert.False(t, o.IsClosed)
	assert.Equal(t, []order.OrderProduct{{OrderID: 1, ProductID: 3}}, o.Products)

	empty := createOrder(t, s, "Bia")
	assert.Equal(t, int64(2), empty.ID)
	require.NotNil(t, empty.Products)
	assert.Empty(t, empty.Products)
}

func TestOrderStore_CreateRejectsDuplicateDraftLinks(t *testing.T) {
	ctx := t.Context()
	s := NewOrderStore()

	_, err := s.Create(ctx, order.Order{
		CustomerName: "Ana",
		Products:     []order.OrderProduct{{ProductID: 3}, {ProductID: 3}},
	})
	assert.ErrorIs(t, err, order.ErrDuplicateProduct)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	// The rejected draft does not consume an id.
	assert.Equal(t, int64(1), createOrder(t, s, "Bia").ID)
}

func TestOrderStore_Close(t *testing.T) {
	ctx := t.Context()
	s := NewOrderStore()
	o := createOrder(t, s, "Ana")

	closed, err := s.Close(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, closed.IsClosed)

	got, err := s.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusClosed, got.Status())

	_, err = s.Close(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderStore_AddAndRemoveProduct(t *testing.T) {
	ctx := t.Context()
	s := NewOrderStore()
	o := createOrder(t, s, "Ana")

	got, err := s.AddProduct(ctx, o.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, got.ProductIDs())

	_, err = s.AddProduct(ctx, o.ID, 5)
	var le *order.LinkError
	require.ErrorAs(t, err, &le)
	assert.ErrorIs(t, err, order.ErrDuplicateProduct)
	assert.Equal(t, o.ID, le.OrderID)

	got, err = s.AddProduct(ctx, o.ID, 6)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6}, got.ProductIDs())

	got, err = s.RemoveProduct(ctx, o.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{6}, got.ProductIDs())

	got, err = s.RemoveProduct(ctx, o.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{6}, got.ProductIDs())

	_, err = s.AddProduct(ctx, 99, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.RemoveProduct(ctx, 99, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderStore_ReturnedValuesAreIsolated(t *testing.T) {
	ctx := t.Context()
	s := NewOrderStore()
	o := createOrder(t, s, "Ana")
	_, err := s.AddProduct(ctx, o.ID, 5)
	require.NoError(t, err)

	got, err := s.GetByID(ctx, o.ID)
	require.NoError(t, err)
	got.Products[0].ProductID = 100

	list, err := s.List(ctx)
	require.NoError(t, err)
	list[0].Products = append(list[0].Products, order.OrderProduct{OrderID: o.ID, ProductID: 7})

	again, err := s.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, again.ProductIDs())
}

func TestOrderStore_WatchBroadcastsCommits(t *testing.T) {
	ctx := t.Context()
	s := NewOrderStore()
	ch := s.Watch(ctx)
	assert.Empty(t, receive(t, ch))

	o := createOrder(t, s, "Ana")
	snap := receive(t, ch)
	require.Len(t, snap, 1)
	assert.Equal(t, o.ID, snap[0].ID)

	_, err := s.AddProduct(ctx, o.ID, 3)
	require.NoError(t, err)
	snap = receive(t, ch)
	assert.Equal(t, []int64{3}, snap[0].ProductIDs())

	// A rejected mutation does not broadcast.
	_, err = s.AddProduct(ctx, o.ID, 3)
	require.Error(t, err)
	select {
	case v := <-ch:
		t.Fatalf("unexpected snapshot after rejected mutation: %v", v)
	default:
	}
}

func TestOrderStore_WatchClosesOnCancel(t *testing.T) {
	s := NewOrderStore()
	ctx, cancel := context.WithCancel(t.Context())
	ch := s.Watch(ctx)

	cancel()
	waitClosed(t, ch)
	assert.Equal(t, 0, s.Watchers())
}

func TestOrderStore_ConcurrentCreatesGetUniqueIDs(t *testing.T) {
	ctx := t.Context()
	s := NewOrderStore()

	const n = 50
	var wg sync.WaitGroup
	for range n {
		wg.Go(func() {
			_, err := s.Create(ctx, order.Order{CustomerName: "Ana"})
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, n)

	seen := make(map[int64]bool, n)
	for _, o := range list {
		assert.False(t, seen[o.ID], "duplicate id %d", o.ID)
		seen[o.ID] = true
	}
}
