package cart

import (
	"context"

	domcart "example.com/food-ordering/internal/domain/cart"
	"example.com/food-ordering/internal/domain/failure"
)

type Service struct {
	repo domcart.Repository
}

func NewService(repo domcart.Repository) *Service {
	return &Service{repo: repo}
}

// AddItem adds one unit of itemID to the user's cart.
func (s *Service) AddItem(ctx context.Context, userID string, itemID domcart.ItemID) error {
	if itemID == "" {
		return domcart.ErrInvalidItem
	}

	if counter, ok := s.repo.(domcart.Counter); ok {
		return failure.Wrap(failure.KindPersistence, "add to cart", counter.Increment(ctx, userID, itemID, 1))
	}

	c, err := s.repo.Get(ctx, userID)
	if err != nil {
		return failure.Wrap(failure.KindPersistence, "load cart", err)
	}
	if err := c.Add(itemID); err != nil {
		return err
	}
	return failure.Wrap(failure.KindPersistence, "save cart", s.repo.Save(ctx, c))
}

// RemoveItem takes one unit of itemID out of the user's cart. Removing an
// item that is not in the cart succeeds without writing.
func (s *Service) RemoveItem(ctx context.Context, userID string, itemID domcart.ItemID) error {
	if itemID == "" {
		return domcart.ErrInvalidItem
	}

	if counter, ok := s.repo.(domcart.Counter); ok {
		return failure.Wrap(failure.KindPersistence, "remove from cart", counter.Decrement(ctx, userID, itemID))
	}

	c, err := s.repo.Get(ctx, userID)
	if err != nil {
		return failure.Wrap(failure.KindPersistence, "load cart", err)
	}
	if !c.Remove(itemID) {
		return nil
	}
	return failure.Wrap(failure.KindPersistence, "save cart", s.repo.Save(ctx, c))
}

// GetCart returns the user's cart contents. A user without cart activity
// gets an empty, non-nil map.
func (s *Service) GetCart(ctx context.Context, userID string) (map[domcart.ItemID]int, error) {
	c, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, failure.Wrap(failure.KindPersistence, "load cart", err)
	}
	if c == nil {
		return map[domcart.ItemID]int{}, nil
	}
	return c.Items(), nil
}
