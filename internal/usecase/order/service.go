package order

import (
	"context"
	"time"

	"go.uber.org/zap"

	"example.com/food-ordering/internal/domain/failure"
	domorder "example.com/food-ordering/internal/domain/order"
)

type Service struct {
	repo   domorder.Repository
	events domorder.EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo domorder.Repository, events domorder.EventPublisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, events: events, logger: logger, now: time.Now}
}

// ListUserOrders returns the caller's orders, newest first.
func (s *Service) ListUserOrders(ctx context.Context, userID string) ([]*domorder.Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, failure.Wrap(failure.KindPersistence, "list user orders", err)
	}
	if orders == nil {
		orders = []*domorder.Order{}
	}
	return orders, nil
}

// ListAllOrders returns every order, newest first.
func (s *Service) ListAllOrders(ctx context.Context) ([]*domorder.Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, failure.Wrap(failure.KindPersistence, "list orders", err)
	}
	if orders == nil {
		orders = []*domorder.Order{}
	}
	return orders, nil
}

// AdvanceStatus moves a paid order forward to status. The write is
// conditional on the status read here, so a concurrent change surfaces as
// ErrStatusConflict instead of being overwritten.
func (s *Service) AdvanceStatus(ctx context.Context, id string, status domorder.Status) (*domorder.Order, error) {
	if !status.IsValid() {
		return nil, domorder.ErrInvalidStatus
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, failure.Wrap(failure.KindPersistence, "load order", err)
	}
	if err := o.CheckAdvance(status); err != nil {
		return nil, err
	}

	from := o.Status
	if err := s.repo.UpdateStatus(ctx, id, from, status); err != nil {
		return nil, failure.Wrap(failure.KindPersistence, "update order status", err)
	}
	o.Status = status

	s.logger.Info("order status updated",
		zap.String("order_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(status)))

	if s.events != nil {
		if err := s.events.Publish(ctx, domorder.NewEvent(domorder.EventStatusChanged, o, s.now())); err != nil {
			s.logger.Error("failed to publish order event",
				zap.String("order_id", id),
				zap.String("event_type", string(domorder.EventStatusChanged)),
				zap.Error(err))
		}
	}
	return o, nil
}
