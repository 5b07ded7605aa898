package chat

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/afras1234/futsal-booking-system/models"
)

const storeTimeout = 5 * time.Second

// MessageStore отделяет hub от слоя персистентности сообщений.
type MessageStore interface {
	Save(ctx context.Context, senderID, receiverID int, text string) (*models.Message, error)
	MarkRead(ctx context.Context, ids []int) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, readerID, peerID int) ([]models.Message, error)
}

// Event — конверт всех сообщений по сокету, в обе стороны.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type privateMessagePayload struct {
	AckID      string `json:"ack_id,omitempty"`
	ReceiverID int    `json:"receiver_id"`
	Text       string `json:"text"`
}

type markAsReadPayload struct {
	MessageIDs []int `json:"message_ids"`
}

type viewChatPayload struct {
	WithUserID int `json:"with_user_id"`
}

// Hub держит присутствие: какие пользователи сейчас подключены и какими
// соединениями. Один пользователь может держать несколько соединений;
// оффлайн он становится только после закрытия последнего. Состояние
// процесс-локально: второй инстанс сервера видел бы своё собственное.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	store MessageStore

	mu       sync.RWMutex
	presence map[int]map[*Client]bool
}

func NewHub(store MessageStore) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		store:      store,
		presence:   make(map[int]map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	wasOnline := len(h.presence[client.UserID]) > 0
	if h.presence[client.UserID] == nil {
		h.presence[client.UserID] = make(map[*Client]bool)
	}
	h.presence[client.UserID][client] = true
	h.mu.Unlock()

	if !wasOnline {
		h.broadcast(Event{Type: "userStatusChanged"}, map[string]interface{}{
			"user_id": client.UserID,
			"online":  true,
		})
	}
	h.broadcastOnlineUsers()
	log.Printf("chat: user %d connected, connections for user: %d", client.UserID, h.connectionCount(client.UserID))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	clients, ok := h.presence[client.UserID]
	if ok {
		if _, okClient := clients[client]; okClient {
			client.closeSend()
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.presence, client.UserID)
			}
		}
	}
	stillOnline := len(h.presence[client.UserID]) > 0
	h.mu.Unlock()

	if ok && !stillOnline {
		h.broadcast(Event{Type: "userStatusChanged"}, map[string]interface{}{
			"user_id": client.UserID,
			"online":  false,
		})
		h.broadcastOnlineUsers()
		log.Printf("chat: user %d disconnected", client.UserID)
	}
}

// OnlineUsers возвращает отсортированный список подключённых пользователей.
func (h *Hub) OnlineUsers() []int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]int, 0, len(h.presence))
	for userID := range h.presence {
		users = append(users, userID)
	}
	sort.Ints(users)
	return users
}

func (h *Hub) connectionCount(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.presence[userID])
}

func (h *Hub) broadcastOnlineUsers() {
	h.broadcast(Event{Type: "onlineUsers"}, h.OnlineUsers())
}

func (h *Hub) broadcast(event Event, payload interface{}) {
	data, err := marshalEvent(event.Type, payload)
	if err != nil {
		log.Printf("chat: failed to marshal %s broadcast: %v", event.Type, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.presence {
		for client := range clients {
			client.trySend(data)
		}
	}
}

// sendToUser доставляет событие во все активные соединения пользователя.
// Оффлайн-получатель просто не получает ничего: сообщение уже в базе и
// придёт через выборку истории.
func (h *Hub) sendToUser(userID int, eventType string, payload interface{}) {
	data, err := marshalEvent(eventType, payload)
	if err != nil {
		log.Printf("chat: failed to marshal %s event: %v", eventType, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.presence[userID] {
		client.trySend(data)
	}
}

// handleEvent разбирает входящее событие от клиента.
func (h *Hub) handleEvent(client *Client, raw []byte) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		log.Printf("chat: malformed event from user %d: %v", client.UserID, err)
		return
	}

	switch event.Type {
	case "privateMessage":
		h.handlePrivateMessage(client, event.Payload)
	case "markAsRead":
		h.handleMarkAsRead(client, event.Payload)
	case "viewChat":
		h.handleViewChat(client, event.Payload)
	default:
		log.Printf("chat: unknown event type %q from user %d", event.Type, client.UserID)
	}
}

func (h *Hub) handlePrivateMessage(client *Client, payload json.RawMessage) {
	var p privateMessagePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		client.sendAck(p.AckID, nil, "malformed privateMessage payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	message, err := h.store.Save(ctx, client.UserID, p.ReceiverID, p.Text)
	if err != nil {
		client.sendAck(p.AckID, nil, err.Error())
		return
	}

	h.sendToUser(p.ReceiverID, "privateMessage", message)
	client.sendAck(p.AckID, message, "")
}

func (h *Hub) handleMarkAsRead(client *Client, payload json.RawMessage) {
	var p markAsReadPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Printf("chat: malformed markAsRead payload from user %d: %v", client.UserID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	updated, err := h.store.MarkRead(ctx, p.MessageIDs)
	if err != nil {
		log.Printf("chat: markAsRead failed for user %d: %v", client.UserID, err)
		return
	}
	h.notifyRead(client.UserID, updated)
}

func (h *Hub) handleViewChat(client *Client, payload json.RawMessage) {
	var p viewChatPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Printf("chat: malformed viewChat payload from user %d: %v", client.UserID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	updated, err := h.store.MarkConversationRead(ctx, client.UserID, p.WithUserID)
	if err != nil {
		log.Printf("chat: viewChat failed for user %d: %v", client.UserID, err)
		return
	}
	h.notifyRead(client.UserID, updated)
}

// notifyRead сообщает отправителям, что их сообщения прочитаны.
func (h *Hub) notifyRead(readerID int, updated []models.Message) {
	if len(updated) == 0 {
		return
	}

	bySender := make(map[int][]int)
	for _, m := range updated {
		bySender[m.SenderID] = append(bySender[m.SenderID], m.ID)
	}
	for senderID, ids := range bySender {
		h.sendToUser(senderID, "messageRead", map[string]interface{}{
			"reader_id":   readerID,
			"message_ids": ids,
		})
	}
}

// NotifyRead позволяет HTTP-ручке POST /chat/read переиспользовать ту же
// рассылку уведомлений, что и сокет-событие markAsRead.
func (h *Hub) NotifyRead(readerID int, updated []models.Message) {
	h.notifyRead(readerID, updated)
}

func marshalEvent(eventType string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Type: eventType, Payload: body})
}
