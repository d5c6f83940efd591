package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"plantpal/api/internal/hub"
	"plantpal/api/internal/store"
)

type fakeRecordStore struct {
	insertNotificationFn  func(ctx context.Context, n store.Notification) (store.Notification, error)
	insertNotificationsFn func(ctx context.Context, batch []store.Notification) ([]store.Notification, error)
	listUsersExceptFn     func(ctx context.Context, email string) ([]store.User, error)
}

func (f *fakeRecordStore) InsertNotification(ctx context.Context, n store.Notification) (store.Notification, error) {
	if f.insertNotificationFn != nil {
		return f.insertNotificationFn(ctx, n)
	}
	n.ID = primitive.NewObjectID()
	return n, nil
}

func (f *fakeRecordStore) InsertNotifications(ctx context.Context, batch []store.Notification) ([]store.Notification, error) {
	if f.insertNotificationsFn != nil {
		return f.insertNotificationsFn(ctx, batch)
	}
	for i := range batch {
		batch[i].ID = primitive.NewObjectID()
	}
	return batch, nil
}

func (f *fakeRecordStore) ListUsersExcept(ctx context.Context, email string) ([]store.User, error) {
	if f.listUsersExceptFn != nil {
		return f.listUsersExceptFn(ctx, email)
	}
	return nil, nil
}

type emittedEvent struct {
	identity string
	event    string
	data     any
}

type fakeBus struct {
	events []emittedEvent
}

func (f *fakeBus) EmitTo(identity, event string, data any) {
	f.events = append(f.events, emittedEvent{identity: identity, event: event, data: data})
}

func newTestEngine(rs RecordStore, bus EventBus) *Engine {
	e := NewEngine(rs, bus)
	e.dispatch = func(task func()) { task() }
	return e
}

func TestMessageCreatedPersistsThenEmits(t *testing.T) {
	var persisted *store.Notification
	fs := &fakeRecordStore{
		insertNotificationFn: func(_ context.Context, n store.Notification) (store.Notification, error) {
			n.ID = primitive.NewObjectID()
			persisted = &n
			return n, nil
		},
	}
	bus := &fakeBus{}
	e := newTestEngine(fs, bus)

	msg := store.ChatMessage{
		ID:            primitive.NewObjectID(),
		SenderEmail:   "ann@example.com",
		ReceiverEmail: "bob@example.com",
		Message:       "your monstera needs water",
	}
	if err := e.MessageCreated(context.Background(), msg, "Ann"); err != nil {
		t.Fatalf("MessageCreated: %v", err)
	}

	if persisted == nil {
		t.Fatal("expected a notification record to be persisted")
	}
	if persisted.UserID != "bob@example.com" {
		t.Errorf("expected recipient bob@example.com, got %q", persisted.UserID)
	}
	if persisted.Kind != store.KindMessage {
		t.Errorf("expected kind message, got %q", persisted.Kind)
	}
	if persisted.RelatedID != msg.ID.Hex() {
		t.Errorf("expected relatedId %q, got %q", msg.ID.Hex(), persisted.RelatedID)
	}
	if persisted.RelatedEmail != "ann@example.com" {
		t.Errorf("expected relatedEmail ann@example.com, got %q", persisted.RelatedEmail)
	}
	if !strings.HasPrefix(persisted.Message, "Ann: ") {
		t.Errorf("expected body to lead with sender name, got %q", persisted.Message)
	}

	if len(bus.events) != 1 {
		t.Fatalf("expected exactly 1 live event, got %d", len(bus.events))
	}
	ev := bus.events[0]
	if ev.identity != "bob@example.com" || ev.event != hub.EventNotificationNew {
		t.Errorf("unexpected emission: %+v", ev)
	}
	if got, ok := ev.data.(store.Notification); !ok || got.ID != persisted.ID {
		t.Errorf("emitted payload must be the persisted record, got %+v", ev.data)
	}
}

func TestMessageToSelfProducesNothing(t *testing.T) {
	inserted := 0
	fs := &fakeRecordStore{
		insertNotificationFn: func(_ context.Context, n store.Notification) (store.Notification, error) {
			inserted++
			return n, nil
		},
	}
	bus := &fakeBus{}
	e := newTestEngine(fs, bus)

	msg := store.ChatMessage{SenderEmail: "ann@example.com", ReceiverEmail: "ann@example.com", Message: "note to self"}
	if err := e.MessageCreated(context.Background(), msg, "Ann"); err != nil {
		t.Fatalf("MessageCreated: %v", err)
	}
	if inserted != 0 || len(bus.events) != 0 {
		t.Fatalf("self-message must produce zero records and zero events, got %d/%d", inserted, len(bus.events))
	}
}

func TestMessagePersistFailureSuppressesEmission(t *testing.T) {
	fs := &fakeRecordStore{
		insertNotificationFn: func(_ context.Context, _ store.Notification) (store.Notification, error) {
			return store.Notification{}, errors.New("store rejected write")
		},
	}
	bus := &fakeBus{}
	e := newTestEngine(fs, bus)

	msg := store.ChatMessage{SenderEmail: "ann@example.com", ReceiverEmail: "bob@example.com", Message: "hi"}
	if err := e.MessageCreated(context.Background(), msg, "Ann"); err == nil {
		t.Fatal("expected error from persist failure")
	}
	if len(bus.events) != 0 {
		t.Fatalf("no event may fire before its record is committed, got %d", len(bus.events))
	}
}

func TestPostCreatedFansOutToAllOtherUsers(t *testing.T) {
	others := []store.User{
		{Email: "bob@example.com"},
		{Email: "carol@example.com"},
		{Email: "dave@example.com"},
	}
	var batch []store.Notification
	fs := &fakeRecordStore{
		listUsersExceptFn: func(_ context.Context, email string) ([]store.User, error) {
			if email != "ann@example.com" {
				t.Errorf("expected author exclusion for ann@example.com, got %q", email)
			}
			return others, nil
		},
		insertNotificationsFn: func(_ context.Context, b []store.Notification) ([]store.Notification, error) {
			for i := range b {
				b[i].ID = primitive.NewObjectID()
			}
			batch = b
			return b, nil
		},
	}
	bus := &fakeBus{}
	e := newTestEngine(fs, bus)

	post := store.Post{ID: primitive.NewObjectID(), Email: "ann@example.com", Caption: "new fiddle leaf fig"}
	if err := e.PostCreated(context.Background(), post, "Ann"); err != nil {
		t.Fatalf("PostCreated: %v", err)
	}

	if len(batch) != len(others) {
		t.Fatalf("expected %d notification records, got %d", len(others), len(batch))
	}
	seen := map[string]bool{}
	for _, n := range batch {
		if seen[n.UserID] {
			t.Errorf("duplicate recipient %q", n.UserID)
		}
		seen[n.UserID] = true
		if n.UserID == "ann@example.com" {
			t.Error("author must not receive a notification")
		}
		if n.Kind != store.KindPost {
			t.Errorf("expected kind post, got %q", n.Kind)
		}
		if n.RelatedID != post.ID.Hex() {
			t.Errorf("expected relatedId %q, got %q", post.ID.Hex(), n.RelatedID)
		}
	}

	if len(bus.events) != len(others) {
		t.Fatalf("expected %d live events, got %d", len(others), len(bus.events))
	}
	for _, ev := range bus.events {
		n, ok := ev.data.(store.Notification)
		if !ok {
			t.Fatalf("expected notification payload, got %T", ev.data)
		}
		if n.UserID != ev.identity {
			t.Errorf("recipient %q received someone else's record (%q)", ev.identity, n.UserID)
		}
	}
}

func TestPostCreatedWithNoOtherUsersIsSilent(t *testing.T) {
	inserted := false
	fs := &fakeRecordStore{
		insertNotificationsFn: func(_ context.Context, b []store.Notification) ([]store.Notification, error) {
			inserted = true
			return b, nil
		},
	}
	bus := &fakeBus{}
	e := newTestEngine(fs, bus)

	if err := e.PostCreated(context.Background(), store.Post{Email: "ann@example.com"}, "Ann"); err != nil {
		t.Fatalf("PostCreated: %v", err)
	}
	if inserted || len(bus.events) != 0 {
		t.Fatal("no recipients means no records and no events")
	}
}

func TestPostPersistFailureSuppressesEmission(t *testing.T) {
	fs := &fakeRecordStore{
		listUsersExceptFn: func(_ context.Context, _ string) ([]store.User, error) {
			return []store.User{{Email: "bob@example.com"}}, nil
		},
		insertNotificationsFn: func(_ context.Context, _ []store.Notification) ([]store.Notification, error) {
			return nil, errors.New("store rejected write")
		},
	}
	bus := &fakeBus{}
	e := newTestEngine(fs, bus)

	if err := e.PostCreated(context.Background(), store.Post{Email: "ann@example.com"}, "Ann"); err == nil {
		t.Fatal("expected error from persist failure")
	}
	if len(bus.events) != 0 {
		t.Fatalf("no event may fire before its batch is committed, got %d", len(bus.events))
	}
}

func TestAsyncVariantsSwallowFailures(t *testing.T) {
	fs := &fakeRecordStore{
		listUsersExceptFn: func(_ context.Context, _ string) ([]store.User, error) {
			return nil, errors.New("store down")
		},
		insertNotificationFn: func(_ context.Context, _ store.Notification) (store.Notification, error) {
			return store.Notification{}, errors.New("store down")
		},
	}
	e := newTestEngine(fs, &fakeBus{})

	// Both must log and return without surfacing anything to the caller.
	e.PostCreatedAsync(store.Post{Email: "ann@example.com"}, "Ann")
	e.MessageCreatedAsync(store.ChatMessage{SenderEmail: "ann@example.com", ReceiverEmail: "bob@example.com"}, "Ann")
}

func TestTruncateKeepsShortBodiesIntact(t *testing.T) {
	if got := truncate("short", 50); got != "short" {
		t.Errorf("expected untouched string, got %q", got)
	}
	long := strings.Repeat("x", 60)
	if got := truncate(long, 50); got != strings.Repeat("x", 50)+"..." {
		t.Errorf("unexpected truncation: %q", got)
	}
}
