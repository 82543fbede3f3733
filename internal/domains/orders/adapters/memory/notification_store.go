package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-tracking/internal/domains/orders/ports"
)

var _ ports.NotificationRepository = (*NotificationStore)(nil)

// NotificationStore keeps inbox entries per recipient.
type NotificationStore struct {
	mu          sync.Mutex
	byID        map[string]*domain.Notification
	byRecipient map[string][]*domain.Notification
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		byID:        map[string]*domain.Notification{},
		byRecipient: map[string][]*domain.Notification{},
	}
}

func (s *NotificationStore) Create(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[n.ID]; ok {
		return nil
	}
	stored := n
	s.byID[n.ID] = &stored
	s.byRecipient[n.RecipientID] = append(s.byRecipient[n.RecipientID], &stored)
	return nil
}

func (s *NotificationStore) List(_ context.Context, recipientID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Notification, 0, len(s.byRecipient[recipientID]))
	for _, n := range s.byRecipient[recipientID] {
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, *n)
	}
	// Entries arrive in commit order; reverse first so equal timestamps keep newest first.
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b domain.Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *NotificationStore) MarkRead(_ context.Context, id, recipientID string) (domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[id]
	if !ok || n.RecipientID != recipientID {
		return domain.Notification{}, ports.ErrNotificationNotFound
	}
	n.Read = true
	return *n, nil
}
