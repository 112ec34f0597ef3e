package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
)

type stubStore struct {
	cartsByToken map[string]*Cart
	cartsByUser  map[uint]*Cart
	products     map[uint]*catalog.Product
	variants     map[uint]*catalog.ProductVariant
}

func newStubStore() *stubStore {
	return &stubStore{
		cartsByToken: make(map[string]*Cart),
		cartsByUser:  make(map[uint]*Cart),
		products:     make(map[uint]*catalog.Product),
		variants:     make(map[uint]*catalog.ProductVariant),
	}
}

func (s *stubStore) FindCartByToken(_ context.Context, token string) (*Cart, error) {
	return s.cartsByToken[token], nil
}

func (s *stubStore) FindCartByUser(_ context.Context, userID uint) (*Cart, error) {
	return s.cartsByUser[userID], nil
}

func (s *stubStore) FindProduct(_ context.Context, id uint) (*catalog.Product, error) {
	return s.products[id], nil
}

func (s *stubStore) FindVariant(_ context.Context, id uint) (*catalog.ProductVariant, error) {
	return s.variants[id], nil
}

func (s *stubStore) addProduct(p *catalog.Product) *catalog.Product {
	s.products[p.ID] = p
	return p
}

func (s *stubStore) addVariant(v *catalog.ProductVariant) *catalog.ProductVariant {
	s.variants[v.ID] = v
	return v
}

func uintPtr(v uint) *uint { return &v }

func TestResolveCartAuthoritative(t *testing.T) {
	store := newStubStore()
	store.addProduct(&catalog.Product{ID: 1, Name: "Sweater", Price: 12900, IsActive: true, Brand: &catalog.Brand{Name: "Northwind"}})
	store.cartsByToken["tok"] = &Cart{
		ID:    1,
		Token: "tok",
		Items: []CartItem{
			{ID: 10, CartID: 1, ProductID: 1, Quantity: 2, Price: 12900, Name: "Sweater"},
		},
	}
	resolver := NewResolver(store)

	t.Run("stored rows win over client prices", func(t *testing.T) {
		items, err := resolver.Resolve(context.Background(), "tok", nil, []ClaimedItem{
			{CartItemID: uintPtr(10), Quantity: 99, Price: 1}, // tampered
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, int64(12900), items[0].Price)
		assert.Equal(t, 2, items[0].Quantity)
		assert.Equal(t, "Northwind", items[0].Brand)
		require.NotNil(t, items[0].CartItemID)
		assert.Equal(t, uint(10), *items[0].CartItemID)
	})

	t.Run("unknown cart item ids fall through to legacy", func(t *testing.T) {
		items, err := resolver.Resolve(context.Background(), "tok", nil, []ClaimedItem{
			{CartItemID: uintPtr(999), ProductID: uintPtr(1), Quantity: 1},
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		// Legacy pass resolved via the product id, not the stored row
		assert.Nil(t, items[0].CartItemID)
		assert.Equal(t, int64(12900), items[0].Price)
	})

	t.Run("postponed line aborts the cart pass", func(t *testing.T) {
		store.cartsByToken["tok2"] = &Cart{
			ID:    2,
			Token: "tok2",
			Items: []CartItem{
				{ID: 20, CartID: 2, ProductID: 1, Quantity: 1, Price: 12900, Postponed: true},
			},
		}

		items, err := resolver.Resolve(context.Background(), "tok2", nil, []ClaimedItem{
			{CartItemID: uintPtr(20), ProductID: uintPtr(1), Quantity: 1},
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Nil(t, items[0].CartItemID, "postponed rows must not be resolved from the cart")
	})
}

func TestResolveLegacy(t *testing.T) {
	store := newStubStore()
	prod := store.addProduct(&catalog.Product{ID: 1, Name: "Dress", Price: 48900, IsPremium: true, IsActive: true})
	store.addVariant(&catalog.ProductVariant{ID: 5, ProductID: 1, SizeLabel: "M", IsActive: true})
	store.addVariant(&catalog.ProductVariant{ID: 6, ProductID: 1, SizeLabel: "L", Price: 49900, IsActive: true})
	store.addProduct(&catalog.Product{ID: 2, Name: "Retired", Price: 100, IsActive: false})
	resolver := NewResolver(store)

	t.Run("variant id resolves through its product", func(t *testing.T) {
		items, err := resolver.Resolve(context.Background(), "", nil, []ClaimedItem{
			{ProductVariantID: uintPtr(5), Quantity: 1},
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, prod.ID, items[0].ProductID)
		assert.Equal(t, int64(48900), items[0].Price, "variant without own price inherits the product price")
		assert.Equal(t, "M", items[0].SizeLabel)
		assert.True(t, items[0].IsPremium)
	})

	t.Run("variant price overrides product price", func(t *testing.T) {
		items, err := resolver.Resolve(context.Background(), "", nil, []ClaimedItem{
			{ProductVariantID: uintPtr(6), Quantity: 1},
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, int64(49900), items[0].Price)
	})

	t.Run("client price used when positive", func(t *testing.T) {
		items, err := resolver.Resolve(context.Background(), "", nil, []ClaimedItem{
			{ProductID: uintPtr(1), Quantity: 1, Price: 40000},
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, int64(40000), items[0].Price)
	})

	t.Run("unresolvable and inactive lines are dropped", func(t *testing.T) {
		items, err := resolver.Resolve(context.Background(), "", nil, []ClaimedItem{
			{ProductID: uintPtr(999), Quantity: 1},
			{ProductID: uintPtr(2), Quantity: 1}, // inactive
			{ProductID: uintPtr(1), Quantity: 1},
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, uint(1), items[0].ProductID)
	})

	t.Run("zero quantity becomes one", func(t *testing.T) {
		items, err := resolver.Resolve(context.Background(), "", nil, []ClaimedItem{
			{ProductID: uintPtr(1), Quantity: 0},
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 1, items[0].Quantity)
	})

	t.Run("explicit size label wins over variant", func(t *testing.T) {
		items, err := resolver.Resolve(context.Background(), "", nil, []ClaimedItem{
			{ProductVariantID: uintPtr(5), Quantity: 1, SizeLabel: "custom"},
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "custom", items[0].SizeLabel)
	})
}

func TestResolveWholeCartFallback(t *testing.T) {
	store := newStubStore()
	store.addProduct(&catalog.Product{ID: 1, Name: "Tee", Price: 3900, IsActive: true})
	resolver := NewResolver(store)

	t.Run("empty claims fall back to the token cart", func(t *testing.T) {
		store.cartsByToken["tok"] = &Cart{
			ID:    1,
			Token: "tok",
			Items: []CartItem{
				{ID: 10, CartID: 1, ProductID: 1, Quantity: 2, Price: 3900},
				{ID: 11, CartID: 1, ProductID: 1, Quantity: 1, Price: 3900, Postponed: true},
			},
		}

		items, err := resolver.Resolve(context.Background(), "tok", nil, nil)
		require.NoError(t, err)
		require.Len(t, items, 1, "postponed lines are excluded")
		assert.Equal(t, uint(10), *items[0].CartItemID)
	})

	t.Run("user cart found when no token", func(t *testing.T) {
		store.cartsByUser[4] = &Cart{
			ID:     2,
			UserID: uintPtr(4),
			Items: []CartItem{
				{ID: 20, CartID: 2, ProductID: 1, Quantity: 1, Price: 3900},
			},
		}

		items, err := resolver.Resolve(context.Background(), "", uintPtr(4), nil)
		require.NoError(t, err)
		require.Len(t, items, 1)
	})

	t.Run("nothing resolvable", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), "", nil, nil)
		assert.ErrorIs(t, err, ErrNoResolvableItems)
	})

	t.Run("all claims unresolvable with empty cart", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), "", nil, []ClaimedItem{
			{ProductID: uintPtr(999), Quantity: 1},
		})
		assert.ErrorIs(t, err, ErrNoResolvableItems)
	})
}

func TestResolveSizeLabel(t *testing.T) {
	assert.Equal(t, "explicit", resolveSizeLabel("explicit", "stored", "variant"))
	assert.Equal(t, "stored", resolveSizeLabel("", "stored", "variant"))
	assert.Equal(t, "variant", resolveSizeLabel("", "", "variant"))
	assert.Equal(t, "", resolveSizeLabel("", "", ""))
}
