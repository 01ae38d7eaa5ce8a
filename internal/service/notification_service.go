package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-playbook-be/internal/model"
	"ai-playbook-be/internal/pkg/logger"
	"ai-playbook-be/internal/repository"
	"ai-playbook-be/pkg/events"
	pkgNats "ai-playbook-be/pkg/nats"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NotificationDelivery pushes real-time updates, typically the WebSocket hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, notification model.Notification)
}

// notificationTitles maps event codes to inbox titles. Events without an
// entry are ignored by the notification worker.
var notificationTitles = map[string]string{
	events.TypeInterviewCompleted: "Interview completed",
	events.TypeDocumentShared:     "Document shared",
	events.TypePlaybookReady:      "Playbook ready",
	events.TypePlaybookFailed:     "Playbook generation failed",
}

type NotificationService struct {
	repo       repository.NotificationRepository
	subscriber *pkgNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(repo repository.NotificationRepository, sub *pkgNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		repo:       repo,
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe("events.>", "notif-service-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	title, known := notificationTitles[event.EventType()]
	if !known {
		s.logger.Info("NotificationService", fmt.Sprintf("Ignoring event without notification mapping: %s", event.EventType()), nil)
		return nil
	}

	payload := event.Payload()

	uidStr, ok := payload["user_id"].(string)
	if !ok {
		s.logger.Warn("NotificationService", fmt.Sprintf("Event %s has no user_id, skipping", event.EventType()), nil)
		return nil
	}
	userID, err := uuid.Parse(uidStr)
	if err != nil {
		s.logger.Warn("NotificationService", fmt.Sprintf("Event %s has malformed user_id %q", event.EventType(), uidStr), nil)
		return nil
	}

	message, _ := payload["message"].(string)
	if message == "" {
		message = title
	}

	metaJSON, _ := json.Marshal(payload)

	notif := model.Notification{
		Id:        uuid.New(),
		UserId:    userID,
		TypeCode:  event.EventType(),
		Title:     title,
		Message:   message,
		Metadata:  datatypes.JSON(metaJSON),
		CreatedAt: time.Now(),
		IsRead:    false,
	}

	if err := s.repo.CreateNotification(ctx, &notif); err != nil {
		s.logger.Error("NotificationService", fmt.Sprintf("Error saving notification for user %s", userID), map[string]interface{}{"error": err})
		return err // redelivered by NATS
	}

	if s.delivery != nil {
		s.delivery.Send(userID, notif)
	}

	return nil
}

// GetNotifications fetches notifications for a user.
func (s *NotificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int64, error) {
	return s.repo.GetNotificationsByUserID(ctx, userID, limit, offset)
}

// GetUnreadCount fetches unread count.
func (s *NotificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

// MarkAsRead marks a notification as read.
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all notifications as read for a user.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}
