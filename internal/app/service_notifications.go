package app

import (
	"context"
	"errors"
	"net/http"

	"plantpal/api/internal/store"
)

const notificationPageSize = 50

// Notifications returns the caller's newest notifications.
func (s *Service) Notifications(ctx context.Context, caller Session) ([]store.Notification, error) {
	items, err := s.store.NotificationsFor(ctx, caller.Email, notificationPageSize)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []store.Notification{}
	}
	return items, nil
}

func (s *Service) UnreadNotificationCount(ctx context.Context, caller Session) (int64, error) {
	return s.store.CountUnreadNotifications(ctx, caller.Email)
}

// MarkNotificationRead marks one of the caller's notifications read and
// returns the updated record. Another user's notification is absent.
func (s *Service) MarkNotificationRead(ctx context.Context, caller Session, id string) (store.Notification, error) {
	updated, err := s.store.MarkNotificationRead(ctx, id, caller.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Notification{}, domainError(http.StatusNotFound, "NOT_FOUND", "Notification not found", nil)
		}
		return store.Notification{}, err
	}
	return updated, nil
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, caller Session) error {
	return s.store.MarkAllNotificationsRead(ctx, caller.Email)
}

func (s *Service) DeleteNotification(ctx context.Context, caller Session, id string) error {
	if err := s.store.DeleteNotification(ctx, id, caller.Email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainError(http.StatusNotFound, "NOT_FOUND", "Notification not found", nil)
		}
		return err
	}
	return nil
}

// ClearNotifications deletes every notification of the caller and reports how
// many were removed.
func (s *Service) ClearNotifications(ctx context.Context, caller Session) (int64, error) {
	return s.store.ClearNotifications(ctx, caller.Email)
}
