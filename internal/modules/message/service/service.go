package message

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"anoa.com/teamcommonapp/internal/entity"
	application "anoa.com/teamcommonapp/internal/modules/application/service"
	"anoa.com/teamcommonapp/internal/modules/message/dto"
	"anoa.com/teamcommonapp/internal/modules/message/repository"
	notification "anoa.com/teamcommonapp/internal/modules/notification/service"
	team "anoa.com/teamcommonapp/internal/modules/team/service"
	"anoa.com/teamcommonapp/pkg/apperror"
	"anoa.com/teamcommonapp/pkg/metrics"
	"anoa.com/teamcommonapp/pkg/pubsub"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MaxBodyLength = 2000

type MessageService interface {
	ListMessages(ctx context.Context, userID, applicationID uuid.UUID) ([]*entity.Message, error)
	SendMessage(ctx context.Context, userID, applicationID uuid.UUID, input dto.SendMessageInput) (*entity.Message, error)
}

type messageService struct {
	repo     repository.MessageRepository
	apps     application.ApplicationService
	broker   pubsub.Broker
	notifier notification.Notifier
	log      *zap.Logger
}

func NewMessageService(repo repository.MessageRepository, apps application.ApplicationService, broker pubsub.Broker, notifier notification.Notifier, log *zap.Logger) MessageService {
	if broker == nil {
		broker = pubsub.Noop{}
	}
	if notifier == nil {
		notifier = notification.NoopNotifier{}
	}
	return &messageService{
		repo:     repo,
		apps:     apps,
		broker:   broker,
		notifier: notifier,
		log:      log,
	}
}

// ListMessages returns the thread oldest first.
func (s *messageService) ListMessages(ctx context.Context, userID, applicationID uuid.UUID) ([]*entity.Message, error) {
	if _, err := s.apps.Authorize(ctx, userID, applicationID); err != nil {
		return nil, err
	}
	return s.repo.FindByApplication(ctx, applicationID)
}

func (s *messageService) SendMessage(ctx context.Context, userID, applicationID uuid.UUID, input dto.SendMessageInput) (*entity.Message, error) {
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, fmt.Errorf("Message cannot be empty: %w", apperror.ErrInvalidInput)
	}
	if utf8.RuneCountInString(body) > MaxBodyLength {
		return nil, fmt.Errorf("Message cannot exceed 2000 characters: %w", apperror.ErrInvalidInput)
	}

	access, err := s.apps.Authorize(ctx, userID, applicationID)
	if err != nil {
		return nil, err
	}

	var senderType string
	var kind notification.Kind
	switch {
	case access.Applicant:
		senderType = entity.SenderApplicant
		kind = notification.KindMessageToTeam
	case access.Role == team.RoleOwner:
		senderType = entity.SenderTeam
		kind = notification.KindMessageToApplicant
	default:
		return nil, fmt.Errorf("Not authorized to send messages on this application: %w", apperror.ErrForbidden)
	}

	msg := &entity.Message{
		ApplicationID: applicationID,
		SenderID:      userID,
		SenderType:    senderType,
		Body:          body,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	metrics.RecordMessage(senderType)

	if err := s.broker.Publish(ctx, pubsub.MessageChannel(applicationID), msg.ID.String()); err != nil {
		s.log.Warn("failed to publish message event",
			zap.String("application_id", applicationID.String()),
			zap.Error(err),
		)
	}

	s.notifier.Notify(notification.Event{
		Kind:          kind,
		ApplicationID: applicationID,
		Body:          body,
	})

	return msg, nil
}
