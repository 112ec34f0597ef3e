// internal/domain/cart/resolver.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/domain/catalog"
)

// Resolver errors
var (
	// ErrNoResolvableItems means no claimed line survived any resolution pass
	ErrNoResolvableItems = errors.New("cart is empty or contains invalid items")
)

// ClaimedItem is a single client-submitted checkout line. Exactly one of
// CartItemID, ProductVariantID or ProductID must reference something real;
// lines that reference nothing resolvable are dropped.
type ClaimedItem struct {
	CartItemID       *uint  `json:"cart_item_id"`
	ProductID        *uint  `json:"product_id"`
	ProductVariantID *uint  `json:"product_variant_id"`
	Quantity         int    `json:"quantity"`
	Price            int64  `json:"price"`
	SizeLabel        string `json:"size_label"`
}

// Store is the persistence surface the resolver needs
type Store interface {
	FindCartByToken(ctx context.Context, token string) (*Cart, error)
	FindCartByUser(ctx context.Context, userID uint) (*Cart, error)
	FindProduct(ctx context.Context, id uint) (*catalog.Product, error)
	FindVariant(ctx context.Context, id uint) (*catalog.ProductVariant, error)
}

// Resolver turns client-claimed checkout lines into canonical priced items.
// In cart-authoritative mode the stored cart rows win over anything the
// client submitted, which is what makes checkout tamper-resistant.
type Resolver struct {
	store Store
}

// NewResolver creates a new resolver
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve produces the order-candidate items for a checkout request.
// Resolution passes, in order:
//  1. cart-authoritative: cart token + cart item ids, priced from the store
//  2. legacy: per-line lookup by variant id, then product id
//  3. last resort: every non-postponed line of the caller's cart
func (r *Resolver) Resolve(ctx context.Context, cartToken string, userID *uint, claims []ClaimedItem) ([]ItemForCreate, error) {
	var activeCart *Cart
	if cartToken != "" {
		c, err := r.store.FindCartByToken(ctx, cartToken)
		if err != nil {
			return nil, fmt.Errorf("failed to look up cart by token: %w", err)
		}
		activeCart = c
	}

	if activeCart != nil && hasCartItemRefs(claims) {
		items, ok, err := r.resolveFromCart(ctx, activeCart, claims)
		if err != nil {
			return nil, err
		}
		if ok {
			return items, nil
		}
	}

	items, err := r.resolveLegacy(ctx, claims)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		return items, nil
	}

	items, err = r.resolveFromWholeCart(ctx, activeCart, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoResolvableItems
	}
	return items, nil
}

// resolveFromCart is the cart-authoritative pass. It reports ok=false when
// none of the requested ids belong to the cart or when any requested line is
// postponed, in which case the caller falls back to legacy resolution.
func (r *Resolver) resolveFromCart(ctx context.Context, c *Cart, claims []ClaimedItem) ([]ItemForCreate, bool, error) {
	byID := make(map[uint]*CartItem, len(c.Items))
	for i := range c.Items {
		byID[c.Items[i].ID] = &c.Items[i]
	}

	var matched []*CartItem
	for _, claim := range claims {
		if claim.CartItemID == nil {
			continue
		}
		ci, ok := byID[*claim.CartItemID]
		if !ok {
			continue
		}
		if ci.Postponed {
			return nil, false, nil
		}
		matched = append(matched, ci)
	}
	if len(matched) == 0 {
		return nil, false, nil
	}

	items := make([]ItemForCreate, 0, len(matched))
	for _, ci := range matched {
		item, err := r.itemFromCartRow(ctx, ci)
		if err != nil {
			return nil, false, err
		}
		items = append(items, item)
	}
	return items, true, nil
}

// resolveLegacy resolves each claim directly against the catalog. Lines that
// reference nothing are dropped, not rejected.
func (r *Resolver) resolveLegacy(ctx context.Context, claims []ClaimedItem) ([]ItemForCreate, error) {
	var items []ItemForCreate
	for _, claim := range claims {
		var (
			prod    *catalog.Product
			variant *catalog.ProductVariant
		)

		if claim.ProductVariantID != nil {
			v, err := r.store.FindVariant(ctx, *claim.ProductVariantID)
			if err != nil {
				return nil, fmt.Errorf("failed to look up product variant: %w", err)
			}
			if v != nil {
				variant = v
				p, err := r.store.FindProduct(ctx, v.ProductID)
				if err != nil {
					return nil, fmt.Errorf("failed to look up product: %w", err)
				}
				prod = p
			}
		}
		if prod == nil && claim.ProductID != nil {
			p, err := r.store.FindProduct(ctx, *claim.ProductID)
			if err != nil {
				return nil, fmt.Errorf("failed to look up product: %w", err)
			}
			prod = p
		}
		if prod == nil || !prod.IsActive {
			continue
		}

		price := claim.Price
		if price <= 0 {
			if variant != nil {
				price = variant.EffectivePrice(prod)
			} else {
				price = prod.Price
			}
		}

		quantity := claim.Quantity
		if quantity < 1 {
			quantity = 1
		}

		var variantID *uint
		variantSize := ""
		if variant != nil {
			variantID = &variant.ID
			variantSize = variant.SizeLabel
		}

		items = append(items, ItemForCreate{
			ProductID:        prod.ID,
			ProductVariantID: variantID,
			Quantity:         quantity,
			Price:            price,
			Name:             prod.Name,
			ImageURL:         prod.ImageURL,
			SizeLabel:        resolveSizeLabel(claim.SizeLabel, "", variantSize),
			Brand:            prod.BrandName(),
			IsPremium:        prod.IsPremium,
		})
	}
	return items, nil
}

// resolveFromWholeCart takes every non-postponed line of the cart verbatim
func (r *Resolver) resolveFromWholeCart(ctx context.Context, c *Cart, userID *uint) ([]ItemForCreate, error) {
	if c == nil && userID != nil {
		found, err := r.store.FindCartByUser(ctx, *userID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up cart by user: %w", err)
		}
		c = found
	}
	if c == nil {
		return nil, nil
	}

	var items []ItemForCreate
	for i := range c.Items {
		if c.Items[i].Postponed {
			continue
		}
		item, err := r.itemFromCartRow(ctx, &c.Items[i])
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// itemFromCartRow builds a canonical line from a stored cart row. The cart
// row's cached price, name and image are used as-is; the catalog is consulted
// only for brand and premium flags and as a fallback for missing fields.
func (r *Resolver) itemFromCartRow(ctx context.Context, ci *CartItem) (ItemForCreate, error) {
	prod, err := r.store.FindProduct(ctx, ci.ProductID)
	if err != nil {
		return ItemForCreate{}, fmt.Errorf("failed to look up product: %w", err)
	}

	name := ci.Name
	image := ci.ImageURL
	brand := ""
	premium := false
	if prod != nil {
		if name == "" {
			name = prod.Name
		}
		if image == "" {
			image = prod.ImageURL
		}
		brand = prod.BrandName()
		premium = prod.IsPremium
	}

	variantSize := ""
	if ci.ProductVariantID != nil {
		variant, err := r.store.FindVariant(ctx, *ci.ProductVariantID)
		if err != nil {
			return ItemForCreate{}, fmt.Errorf("failed to look up product variant: %w", err)
		}
		if variant != nil {
			variantSize = variant.SizeLabel
		}
	}

	itemID := ci.ID
	quantity := ci.Quantity
	if quantity < 1 {
		quantity = 1
	}

	return ItemForCreate{
		ProductID:        ci.ProductID,
		ProductVariantID: ci.ProductVariantID,
		CartItemID:       &itemID,
		Quantity:         quantity,
		Price:            ci.Price,
		Name:             name,
		ImageURL:         image,
		SizeLabel:        resolveSizeLabel("", ci.SizeLabel, variantSize),
		Brand:            brand,
		IsPremium:        premium,
	}, nil
}

func hasCartItemRefs(claims []ClaimedItem) bool {
	for _, claim := range claims {
		if claim.CartItemID != nil {
			return true
		}
	}
	return false
}

// resolveSizeLabel picks the first non-empty label: the explicit
// client-submitted one, the cached cart-row one, then the variant's own
func resolveSizeLabel(explicit, stored, variant string) string {
	if explicit != "" {
		return explicit
	}
	if stored != "" {
		return stored
	}
	return variant
}
