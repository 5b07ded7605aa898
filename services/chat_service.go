package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/afras1234/futsal-booking-system/models"
	"github.com/afras1234/futsal-booking-system/repositories"
)

var ErrMessageTextRequired = errors.New("message text is required")

// ChatService сохраняет сообщения и отдаёт историю; доставкой по
// соединениям занимается chat.Hub.
type ChatService struct {
	messageRepo repositories.MessageRepository
	userRepo    repositories.UserRepository
}

func NewChatService(messageRepo repositories.MessageRepository, userRepo repositories.UserRepository) *ChatService {
	return &ChatService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
	}
}

func (s *ChatService) Save(ctx context.Context, senderID, receiverID int, text string) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrMessageTextRequired
	}
	if _, err := s.userRepo.GetByID(ctx, receiverID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to check message receiver: %w", err)
	}

	message := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		IsRead:     false,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}
	return message, nil
}

func (s *ChatService) MarkRead(ctx context.Context, ids []int) ([]models.Message, error) {
	return s.messageRepo.MarkRead(ctx, ids)
}

func (s *ChatService) MarkConversationRead(ctx context.Context, readerID, peerID int) ([]models.Message, error) {
	return s.messageRepo.MarkConversationRead(ctx, readerID, peerID)
}

func (s *ChatService) History(ctx context.Context, userA, userB int) ([]models.Message, error) {
	return s.messageRepo.ListBetween(ctx, userA, userB)
}
