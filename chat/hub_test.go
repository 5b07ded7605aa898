package chat

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/afras1234/futsal-booking-system/models"
)

// fakeStore хранит сообщения в памяти, имитируя сервис чата.
type fakeStore struct {
	messages []models.Message
	nextID   int
	saveErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1}
}

func (f *fakeStore) Save(_ context.Context, senderID, receiverID int, text string) (*models.Message, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	m := models.Message{ID: f.nextID, SenderID: senderID, ReceiverID: receiverID, Text: text}
	f.nextID++
	f.messages = append(f.messages, m)
	return &m, nil
}

func (f *fakeStore) MarkRead(_ context.Context, ids []int) ([]models.Message, error) {
	var updated []models.Message
	for i := range f.messages {
		for _, id := range ids {
			if f.messages[i].ID == id && !f.messages[i].IsRead {
				f.messages[i].IsRead = true
				updated = append(updated, f.messages[i])
			}
		}
	}
	return updated, nil
}

func (f *fakeStore) MarkConversationRead(_ context.Context, readerID, peerID int) ([]models.Message, error) {
	var updated []models.Message
	for i := range f.messages {
		m := &f.messages[i]
		if m.ReceiverID == readerID && m.SenderID == peerID && !m.IsRead {
			m.IsRead = true
			updated = append(updated, *m)
		}
	}
	return updated, nil
}

// connect регистрирует клиента напрямую, без Run-горутины: все операции
// хаба синхронны, и тест остаётся детерминированным.
func connect(h *Hub, userID int) *Client {
	client := NewClient(h, nil, userID)
	h.addClient(client)
	return client
}

// drainEvents вычитывает всё, что уже лежит в канале клиента. trySend не
// блокируется, поэтому после синхронного вызова события либо в канале,
// либо потеряны.
func drainEvents(t *testing.T, c *Client) []Event {
	t.Helper()
	var events []Event
	for {
		select {
		case data := <-c.Send:
			var event Event
			if err := json.Unmarshal(data, &event); err != nil {
				t.Fatalf("malformed event on wire: %v", err)
			}
			events = append(events, event)
		default:
			return events
		}
	}
}

func findEvent(events []Event, eventType string) (Event, bool) {
	for _, e := range events {
		if e.Type == eventType {
			return e, true
		}
	}
	return Event{}, false
}

func TestPresence(t *testing.T) {
	hub := NewHub(newFakeStore())

	first := connect(hub, 1)
	second := connect(hub, 2)
	// Второе соединение того же пользователя.
	extra := connect(hub, 1)

	if got := hub.OnlineUsers(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("OnlineUsers() = %v, want [1 2]", got)
	}

	// Пока живо хотя бы одно соединение, пользователь онлайн.
	hub.removeClient(first)
	if got := hub.OnlineUsers(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("OnlineUsers() after closing one of two connections = %v, want [1 2]", got)
	}

	hub.removeClient(extra)
	if got := hub.OnlineUsers(); !reflect.DeepEqual(got, []int{2}) {
		t.Fatalf("OnlineUsers() after closing both connections = %v, want [2]", got)
	}

	// Оставшийся клиент должен был получить userStatusChanged offline.
	events := drainEvents(t, second)
	var sawOffline bool
	for _, e := range events {
		if e.Type != "userStatusChanged" {
			continue
		}
		var p struct {
			UserID int  `json:"user_id"`
			Online bool `json:"online"`
		}
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			t.Fatalf("malformed userStatusChanged payload: %v", err)
		}
		if p.UserID == 1 && !p.Online {
			sawOffline = true
		}
	}
	if !sawOffline {
		t.Error("no offline userStatusChanged for user 1 delivered to remaining client")
	}
}

func TestPrivateMessageDelivery(t *testing.T) {
	store := newFakeStore()
	hub := NewHub(store)

	sender := connect(hub, 1)
	receiver := connect(hub, 2)
	drainEvents(t, sender)
	drainEvents(t, receiver)

	raw := []byte(`{"type":"privateMessage","payload":{"ack_id":"a1","receiver_id":2,"text":"hello"}}`)
	hub.handleEvent(sender, raw)

	if len(store.messages) != 1 || store.messages[0].Text != "hello" {
		t.Fatalf("message not persisted: %+v", store.messages)
	}

	received, ok := findEvent(drainEvents(t, receiver), "privateMessage")
	if !ok {
		t.Fatal("receiver did not get privateMessage event")
	}
	var delivered models.Message
	if err := json.Unmarshal(received.Payload, &delivered); err != nil {
		t.Fatalf("malformed delivered message: %v", err)
	}
	if delivered.SenderID != 1 || delivered.Text != "hello" {
		t.Errorf("delivered message = %+v", delivered)
	}

	ack, ok := findEvent(drainEvents(t, sender), "privateMessageAck")
	if !ok {
		t.Fatal("sender did not get privateMessageAck")
	}
	var ackBody struct {
		AckID   string          `json:"ack_id"`
		Message *models.Message `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(ack.Payload, &ackBody); err != nil {
		t.Fatalf("malformed ack payload: %v", err)
	}
	if ackBody.AckID != "a1" || ackBody.Error != "" || ackBody.Message == nil {
		t.Errorf("ack payload = %+v", ackBody)
	}
}

func TestPrivateMessageSaveFailure(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errors.New("db down")
	hub := NewHub(store)

	sender := connect(hub, 1)
	receiver := connect(hub, 2)
	drainEvents(t, sender)
	drainEvents(t, receiver)

	hub.handleEvent(sender, []byte(`{"type":"privateMessage","payload":{"ack_id":"a2","receiver_id":2,"text":"x"}}`))

	if _, ok := findEvent(drainEvents(t, receiver), "privateMessage"); ok {
		t.Error("message delivered despite failed save")
	}

	ack, ok := findEvent(drainEvents(t, sender), "privateMessageAck")
	if !ok {
		t.Fatal("sender did not get failure ack")
	}
	var ackBody struct {
		AckID string `json:"ack_id"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(ack.Payload, &ackBody); err != nil {
		t.Fatalf("malformed ack payload: %v", err)
	}
	if ackBody.AckID != "a2" || ackBody.Error == "" {
		t.Errorf("ack payload = %+v, want non-empty error", ackBody)
	}
}

func TestMarkAsReadNotifiesSenders(t *testing.T) {
	store := newFakeStore()
	hub := NewHub(store)

	reader := connect(hub, 3)
	senderA := connect(hub, 1)
	senderB := connect(hub, 2)

	// Два отправителя написали читателю.
	store.messages = []models.Message{
		{ID: 10, SenderID: 1, ReceiverID: 3, Text: "a"},
		{ID: 11, SenderID: 2, ReceiverID: 3, Text: "b"},
		{ID: 12, SenderID: 1, ReceiverID: 3, Text: "c"},
	}
	store.nextID = 13

	drainEvents(t, reader)
	drainEvents(t, senderA)
	drainEvents(t, senderB)

	hub.handleEvent(reader, []byte(`{"type":"markAsRead","payload":{"message_ids":[10,11,12]}}`))

	checkNotification := func(c *Client, wantIDs []int) {
		t.Helper()
		event, ok := findEvent(drainEvents(t, c), "messageRead")
		if !ok {
			t.Fatalf("user %d did not get messageRead", c.UserID)
		}
		var p struct {
			ReaderID   int   `json:"reader_id"`
			MessageIDs []int `json:"message_ids"`
		}
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			t.Fatalf("malformed messageRead payload: %v", err)
		}
		sort.Ints(p.MessageIDs)
		if p.ReaderID != 3 || !reflect.DeepEqual(p.MessageIDs, wantIDs) {
			t.Errorf("messageRead for user %d = %+v, want ids %v", c.UserID, p, wantIDs)
		}
	}

	checkNotification(senderA, []int{10, 12})
	checkNotification(senderB, []int{11})

	for _, m := range store.messages {
		if !m.IsRead {
			t.Errorf("message %d not marked read", m.ID)
		}
	}
}

func TestViewChatMarksConversation(t *testing.T) {
	store := newFakeStore()
	hub := NewHub(store)

	reader := connect(hub, 3)
	sender := connect(hub, 1)

	store.messages = []models.Message{
		{ID: 20, SenderID: 1, ReceiverID: 3, Text: "a"},
		// Обратное направление не трогается.
		{ID: 21, SenderID: 3, ReceiverID: 1, Text: "b"},
		// Другой собеседник не трогается.
		{ID: 22, SenderID: 2, ReceiverID: 3, Text: "c"},
	}
	store.nextID = 23

	drainEvents(t, reader)
	drainEvents(t, sender)

	hub.handleEvent(reader, []byte(`{"type":"viewChat","payload":{"with_user_id":1}}`))

	if !store.messages[0].IsRead {
		t.Error("incoming message from viewed peer not marked read")
	}
	if store.messages[1].IsRead || store.messages[2].IsRead {
		t.Error("viewChat touched messages outside the conversation")
	}

	if _, ok := findEvent(drainEvents(t, sender), "messageRead"); !ok {
		t.Error("peer did not get messageRead notification")
	}
}

func TestMalformedEventIgnored(t *testing.T) {
	hub := NewHub(newFakeStore())
	client := connect(hub, 1)
	drainEvents(t, client)

	// Не должно паниковать и не должно ничего отправлять.
	hub.handleEvent(client, []byte(`not json`))
	hub.handleEvent(client, []byte(`{"type":"unknownThing","payload":{}}`))

	if events := drainEvents(t, client); len(events) != 0 {
		t.Errorf("unexpected events after malformed input: %+v", events)
	}
}
