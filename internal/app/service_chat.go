package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"plantpal/api/internal/store"
)

// Conversation is one row of the caller's inbox: the most recent message per
// partner plus that partner's unread count.
type Conversation struct {
	PartnerEmail string    `json:"partnerEmail"`
	PartnerName  string    `json:"partnerName"`
	LastMessage  string    `json:"lastMessage"`
	Timestamp    time.Time `json:"timestamp"`
	Outgoing     bool      `json:"outgoing"`
	UnreadCount  int64     `json:"unreadCount"`
}

// SendMessage persists a direct message and schedules the directed
// notification fan-out. The send succeeds even if fan-out later fails.
func (s *Service) SendMessage(ctx context.Context, caller Session, receiverEmail, message string) (store.ChatMessage, error) {
	receiverEmail = strings.ToLower(strings.TrimSpace(receiverEmail))
	message = strings.TrimSpace(message)
	if receiverEmail == "" || message == "" {
		return store.ChatMessage{}, domainError(http.StatusBadRequest, "INVALID_ARGUMENT", "receiverEmail and message are required", nil)
	}

	if _, err := s.store.GetUserByEmail(ctx, receiverEmail); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ChatMessage{}, domainError(http.StatusNotFound, "NOT_FOUND", "Receiver not found", nil)
		}
		return store.ChatMessage{}, err
	}

	saved, err := s.store.InsertChat(ctx, store.ChatMessage{
		SenderEmail:   caller.Email,
		ReceiverEmail: receiverEmail,
		Message:       message,
		Timestamp:     time.Now(),
		Read:          false,
	})
	if err != nil {
		return store.ChatMessage{}, err
	}

	s.notifier.MessageCreatedAsync(saved, caller.Name)
	return saved, nil
}

// Thread returns the pairwise history with one partner, oldest first, and
// marks the partner's inbound messages read.
func (s *Service) Thread(ctx context.Context, caller Session, partnerEmail string) ([]store.ChatMessage, error) {
	partnerEmail = strings.ToLower(strings.TrimSpace(partnerEmail))
	if partnerEmail == "" {
		return nil, domainError(http.StatusBadRequest, "INVALID_ARGUMENT", "partner email is required", nil)
	}

	messages, err := s.store.ChatsBetween(ctx, caller.Email, partnerEmail)
	if err != nil {
		return nil, err
	}
	if err := s.store.MarkChatsRead(ctx, partnerEmail, caller.Email); err != nil {
		log.Printf("chat: mark read %s -> %s: %v", partnerEmail, caller.Email, err)
	}
	if messages == nil {
		messages = []store.ChatMessage{}
	}
	return messages, nil
}

// Conversations builds the inbox from a single descending scan of every
// message touching the caller: the first message seen per partner is the most
// recent one.
func (s *Service) Conversations(ctx context.Context, caller Session) ([]Conversation, error) {
	messages, err := s.store.ChatsTouching(ctx, caller.Email)
	if err != nil {
		return nil, err
	}

	conversations := []Conversation{}
	seen := map[string]struct{}{}
	for _, msg := range messages {
		partner := msg.SenderEmail
		outgoing := false
		if partner == caller.Email {
			partner = msg.ReceiverEmail
			outgoing = true
		}
		if _, ok := seen[partner]; ok {
			continue
		}
		seen[partner] = struct{}{}

		unread, err := s.store.CountUnreadChats(ctx, partner, caller.Email)
		if err != nil {
			return nil, err
		}

		name := partner
		if user, err := s.store.GetUserByEmail(ctx, partner); err == nil {
			name = user.Name
		}

		conversations = append(conversations, Conversation{
			PartnerEmail: partner,
			PartnerName:  name,
			LastMessage:  msg.Message,
			Timestamp:    msg.Timestamp,
			Outgoing:     outgoing,
			UnreadCount:  unread,
		})
	}
	return conversations, nil
}

// ChatUsers lists every other account as a potential conversation partner.
func (s *Service) ChatUsers(ctx context.Context, caller Session) ([]store.User, error) {
	users, err := s.store.ListUsersExcept(ctx, caller.Email)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []store.User{}
	}
	return users, nil
}
