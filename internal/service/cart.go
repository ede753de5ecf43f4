package service

import (
	"context"
	"fmt"

	"github.com/howlrs/pos-qr-go/internal/cache"
	"github.com/howlrs/pos-qr-go/internal/client"
	"github.com/howlrs/pos-qr-go/internal/models"
)

func checkQuantity(quantity int) error {
	if quantity < models.MinItemQuantity || quantity > models.MaxItemQuantity {
		return fmt.Errorf("%w: %d not in %d-%d", ErrQuantityOutOfRange,
			quantity, models.MinItemQuantity, models.MaxItemQuantity)
	}
	return nil
}

// AddItem adds quantity of a menu item to the cart and returns the refetched
// cart. Unknown or unavailable items and quantities outside 1-99 are refused
// without calling the server. Adds of the same menu item are applied in the
// order they were issued, and so are adds and edits of the line they merge into.
func (s *OrderSession) AddItem(ctx context.Context, menuItemID string, quantity int, instructions string) (*models.Cart, error) {
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}

	ctx, done, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	if _, err := s.usable(ctx); err != nil {
		return nil, err
	}
	menu, err := s.menu(ctx)
	if err != nil {
		return nil, err
	}
	item, ok := menu.Item(menuItemID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMenuItemNotFound, menuItemID)
	}
	if !item.IsAvailable {
		return nil, fmt.Errorf("%w: %s", ErrItemUnavailable, item.Name)
	}

	req := models.AddToCartRequest{
		MenuItemID:          menuItemID,
		Quantity:            quantity,
		SpecialInstructions: instructions,
	}
	return s.mutate(ctx, s.addKey(menuItemID, instructions), func(ctx context.Context, out *models.CartResponse) error {
		return s.api.Post(ctx, client.CartPath(s.id), req, out)
	})
}

// addKey is the serializer key of an add. The server merges an add into the
// line with the same item and instructions, so once that line is known the
// add queues behind updates and removals of it.
func (s *OrderSession) addKey(menuItemID, instructions string) string {
	if cart, ok := cache.PeekAs[*models.Cart](s.cache, s.key(ResourceCart)); ok && cart != nil {
		for _, line := range cart.Items {
			if line.MenuItemID == menuItemID && line.SpecialInstructions == instructions {
				return "line:" + line.ID
			}
		}
	}
	return "menu:" + menuItemID
}

// UpdateItem sets the quantity of a cart line. A quantity of zero or less
// removes the line.
func (s *OrderSession) UpdateItem(ctx context.Context, itemID string, quantity int, instructions string) (*models.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, itemID)
	}
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}

	ctx, done, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	if _, err := s.usable(ctx); err != nil {
		return nil, err
	}

	req := models.UpdateCartItemRequest{Quantity: quantity, SpecialInstructions: instructions}
	return s.mutate(ctx, "line:"+itemID, func(ctx context.Context, out *models.CartResponse) error {
		return s.api.Put(ctx, client.CartItemPath(s.id, itemID), req, out)
	})
}

// RemoveItem deletes a cart line
func (s *OrderSession) RemoveItem(ctx context.Context, itemID string) (*models.Cart, error) {
	ctx, done, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	if _, err := s.usable(ctx); err != nil {
		return nil, err
	}

	return s.mutate(ctx, "line:"+itemID, func(ctx context.Context, out *models.CartResponse) error {
		return s.api.Delete(ctx, client.CartItemPath(s.id, itemID), out)
	})
}

// Clear empties the cart. Clearing a cart already known to be empty returns
// it without calling the server.
func (s *OrderSession) Clear(ctx context.Context) (*models.Cart, error) {
	ctx, done, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	if _, err := s.usable(ctx); err != nil {
		return nil, err
	}
	if cart, ok := cache.PeekAs[*models.Cart](s.cache, s.key(ResourceCart)); ok && cart.IsEmpty() {
		s.logger.Debug("Cart is already empty")
		return cart, nil
	}

	return s.mutate(ctx, "clear", func(ctx context.Context, out *models.CartResponse) error {
		return s.api.Delete(ctx, client.CartPath(s.id), out)
	})
}

// mutate sends one cart write, serialized on key, then invalidates and
// refetches the cart. Writes are never retried. A failed write leaves the
// cached cart untouched.
func (s *OrderSession) mutate(ctx context.Context, key string, send func(context.Context, *models.CartResponse) error) (*models.Cart, error) {
	var resp models.CartResponse
	err := s.serial.Do(ctx, key, func() error {
		if err := send(ctx, &resp); err != nil {
			return err
		}
		s.cache.Invalidate(s.key(ResourceCart))
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("op", key).Warn("Cart update failed")
		return nil, fmt.Errorf("update cart: %w", err)
	}

	cart, err := s.cart(ctx)
	if err != nil {
		// The write was acknowledged; the next read refetches.
		s.logger.WithError(err).Warn("Cart refetch after update failed")
		return &resp.Cart, nil
	}
	return cart, nil
}
