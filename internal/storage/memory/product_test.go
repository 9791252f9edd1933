package memory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/orderdesk/internal/domain"
	"github.com/xenking/orderdesk/internal/domain/product"
)

func TestProductStore_CreateAssignsSequentialIDs(t *testing.T) {
	ctx := t.Context()
	s := NewProductStore()

	a, err := s.Create(ctx, product.Product{Name: "Widget", Price: decimal.NewFromInt(10)})
	require.NoError(t, err)
	b, err := s.Create(ctx, product.Product{ID: 77, Name: "Gadget", Price: decimal.NewFromInt(5)})
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	got, err := s.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Gadget", got.Name)
	assert.True(t, decimal.NewFromInt(5).Equal(got.Price))
}

func TestProductStore_IDsNotReusedAfterDelete(t *testing.T) {
	ctx := t.Context()
	s := NewProductStore()

	_, err := s.Create(ctx, product.Product{Name: "A", Price: decimal.NewFromInt(1)})
	require.NoError(t, err)
	b, err := s.Create(ctx, product.Product{Name: "B", Price: decimal.NewFromInt(1)})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, b.ID))

	c, err := s.Create(ctx, product.Product{Name: "C", Price: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.ID)
}

func TestProductStore_NotFound(t *testing.T) {
	ctx := t.Context()
	s := NewProductStore()

	_, err := s.GetByID(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = s.Delete(ctx, 1)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "product", nf.Entity)
	assert.Equal(t, int64(1), nf.ID)
}

func TestProductStore_ListIsACopy(t *testing.T) {
	ctx := t.Context()
	s := NewProductStore()
	_, err := s.Create(ctx, product.Product{Name: "Widget", Price: decimal.NewFromInt(10)})
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	list[0].Name = "changed"

	got, err := s.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)
}

func TestProductStore_WatchBroadcastsCommits(t *testing.T) {
	ctx := t.Context()
	s := NewProductStore()
	ch := s.Watch(ctx)
	assert.Empty(t, receive(t, ch))

	p, err := s.Create(ctx, product.Product{Name: "Widget", Price: decimal.NewFromInt(10)})
	require.NoError(t, err)
	snap := receive(t, ch)
	require.Len(t, snap, 1)
	assert.Equal(t, p.ID, snap[0].ID)

	require.NoError(t, s.Delete(ctx, p.ID))
	assert.Empty(t, receive(t, ch))

	// A late watcher only sees the latest snapshot.
	late := s.Watch(ctx)
	assert.Empty(t, receive(t, late))
	assert.Equal(t, 2, s.Watchers())
}
