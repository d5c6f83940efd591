// Package notify builds and delivers notification records for qualifying
// state changes. Persistence always precedes live emission: a notification is
// never pushed before its durable record is committed, and a persistence
// failure suppresses emission entirely.
package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"plantpal/api/internal/hub"
	"plantpal/api/internal/store"
)

var (
	persistedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plantpal_notifications_persisted_total",
		Help: "Notification records committed to the store, by kind.",
	}, []string{"kind"})
	emittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plantpal_notifications_emitted_total",
		Help: "Live notification events pushed to the event bus.",
	})
	failuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plantpal_notifications_failures_total",
		Help: "Fan-out attempts that failed before emission.",
	})
	fanoutRecipients = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "plantpal_notification_fanout_recipients",
		Help:    "Recipient count per broadcast fan-out.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
)

// RecordStore is the slice of the durable store the engine needs.
type RecordStore interface {
	InsertNotification(ctx context.Context, n store.Notification) (store.Notification, error)
	InsertNotifications(ctx context.Context, batch []store.Notification) ([]store.Notification, error)
	ListUsersExcept(ctx context.Context, email string) ([]store.User, error)
}

// EventBus delivers a named event to every live connection of one identity.
type EventBus interface {
	EmitTo(identity, event string, data any)
}

type Engine struct {
	store RecordStore
	bus   EventBus

	// dispatch schedules the async variants; replaced in tests to run inline.
	dispatch func(task func())
}

func NewEngine(recordStore RecordStore, bus EventBus) *Engine {
	return &Engine{
		store:    recordStore,
		bus:      bus,
		dispatch: func(task func()) { go task() },
	}
}

const asyncTimeout = 30 * time.Second

// MessageCreated runs the directed shape: exactly one notification for the
// receiver of a persisted chat message. A message to oneself produces nothing.
func (e *Engine) MessageCreated(ctx context.Context, msg store.ChatMessage, senderName string) error {
	if msg.SenderEmail == msg.ReceiverEmail {
		return nil
	}
	if senderName == "" {
		senderName = msg.SenderEmail
	}

	notification := store.Notification{
		UserID:       msg.ReceiverEmail,
		Kind:         store.KindMessage,
		Title:        "New Message",
		Message:      fmt.Sprintf("%s: %s", senderName, truncate(msg.Message, 50)),
		RelatedID:    msg.ID.Hex(),
		RelatedEmail: msg.SenderEmail,
		Timestamp:    time.Now(),
	}

	saved, err := e.store.InsertNotification(ctx, notification)
	if err != nil {
		failuresTotal.Inc()
		return fmt.Errorf("persist message notification: %w", err)
	}
	persistedTotal.WithLabelValues(string(store.KindMessage)).Inc()

	e.bus.EmitTo(saved.UserID, hub.EventNotificationNew, saved)
	emittedTotal.Inc()
	return nil
}

// PostCreated runs the broadcast shape: one notification per registered
// identity except the author, bulk-persisted and then emitted per recipient
// with that recipient's own record. The cost is O(number of identities) per
// post; callers run it through Async so the post response never waits on it.
func (e *Engine) PostCreated(ctx context.Context, post store.Post, authorName string) error {
	if authorName == "" {
		authorName = post.Email
	}

	recipients, err := e.store.ListUsersExcept(ctx, post.Email)
	if err != nil {
		failuresTotal.Inc()
		return fmt.Errorf("resolve broadcast recipients: %w", err)
	}
	if len(recipients) == 0 {
		return nil
	}
	fanoutRecipients.Observe(float64(len(recipients)))

	now := time.Now()
	body := fmt.Sprintf("%s shared a new post: %s", authorName, truncate(post.Caption, 50))
	batch := make([]store.Notification, 0, len(recipients))
	for _, recipient := range recipients {
		batch = append(batch, store.Notification{
			UserID:       recipient.Email,
			Kind:         store.KindPost,
			Title:        "New Post",
			Message:      body,
			RelatedID:    post.ID.Hex(),
			RelatedEmail: post.Email,
			Timestamp:    now,
		})
	}

	saved, err := e.store.InsertNotifications(ctx, batch)
	if err != nil {
		failuresTotal.Inc()
		return fmt.Errorf("persist post notifications: %w", err)
	}
	persistedTotal.WithLabelValues(string(store.KindPost)).Add(float64(len(saved)))

	for _, n := range saved {
		e.bus.EmitTo(n.UserID, hub.EventNotificationNew, n)
		emittedTotal.Inc()
	}
	return nil
}

// MessageCreatedAsync schedules the directed fan-out after the chat write has
// committed. Failures land in the log, never in the sender's response.
func (e *Engine) MessageCreatedAsync(msg store.ChatMessage, senderName string) {
	e.dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
		defer cancel()
		if err := e.MessageCreated(ctx, msg, senderName); err != nil {
			log.Printf("notify: message fan-out: %v", err)
		}
	})
}

// PostCreatedAsync schedules the broadcast fan-out after the post write has
// committed.
func (e *Engine) PostCreatedAsync(post store.Post, authorName string) {
	e.dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
		defer cancel()
		if err := e.PostCreated(ctx, post, authorName); err != nil {
			log.Printf("notify: post fan-out: %v", err)
		}
	})
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
