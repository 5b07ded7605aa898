package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/afras1234/futsal-booking-system/chat"
	"github.com/afras1234/futsal-booking-system/middleware"
	"github.com/afras1234/futsal-booking-system/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Фронтенд живёт на другом origin, проверку делегируем CORS-слою.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type ChatHandler struct {
	chatService *services.ChatService
	hub         *chat.Hub
	logger      *slog.Logger
}

func NewChatHandler(chatService *services.ChatService, hub *chat.Hub, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chatService: chatService, hub: hub, logger: logger}
}

// History отдаёт переписку двух пользователей в хронологическом порядке.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, err := readIntParam(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	receiverID, err := readIntParam(r, "receiverID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	messages, err := h.chatService.History(r.Context(), userID, receiverID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"messages": messages}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type markReadInput struct {
	MessageIDs []int `json:"message_ids" validate:"required,min=1"`
}

// MarkRead помечает сообщения прочитанными и рассылает уведомления отправителям.
func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	readerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input markReadInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if fields := validateInput(input); fields != nil {
		failedValidationResponse(w, r, fields)
		return
	}

	updated, err := h.chatService.MarkRead(r.Context(), input.MessageIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.hub.NotifyRead(readerID, updated)

	if err := writeJSON(w, http.StatusOK, jsonResponse{"updated": updated}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ServeWS апгрейдит соединение и запускает насосы чтения/записи клиента.
func (h *ChatHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(r.URL.Query().Get("user_id"))
	if err != nil || userID <= 0 {
		badRequestResponse(w, r, errInvalidUserIDParam)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := chat.NewClient(h.hub, conn, userID)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
