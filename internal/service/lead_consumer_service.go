package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"ai-salesbot-be/internal/dto"
	"ai-salesbot-be/internal/pkg/logger"
	"ai-salesbot-be/internal/pkg/mailer"
	"ai-salesbot-be/pkg/events"
	"ai-salesbot-be/pkg/leadstore"
)

type ILeadConsumerService interface {
	Consume(ctx context.Context) error
}

// EventPublisher is the outbound bus for lead events. Satisfied by the
// NATS publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type leadConsumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	emailService   mailer.IEmailService
	eventPublisher EventPublisher
	logger         logger.ILogger
}

func NewLeadConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	emailService mailer.IEmailService,
	eventPublisher EventPublisher,
	log logger.ILogger,
) ILeadConsumerService {
	return &leadConsumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		emailService:   emailService,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (cs *leadConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *leadConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.LeadCapturedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("LeadConsumerService", "Failed to unmarshal lead message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.logger.Info("LeadConsumerService", "Processing captured lead", map[string]interface{}{"session_id": payload.SessionID})

	if cs.emailService != nil {
		lead := &leadstore.Lead{
			SessionID: payload.SessionID,
			Name:      payload.Name,
			Phone:     payload.Phone,
			Email:     payload.Email,
			Question:  payload.Question,
		}
		if err := cs.emailService.SendLeadAlert(lead); err != nil {
			cs.logger.Error("LeadConsumerService", "Failed to send lead alert email", map[string]interface{}{"error": err.Error(), "session_id": payload.SessionID})
		}
	}

	if cs.eventPublisher != nil {
		evt := events.NewLeadCaptured(payload.SessionID, payload.Name, payload.Phone, payload.Email, payload.Question)
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			cs.logger.Error("LeadConsumerService", "Failed to publish lead event", map[string]interface{}{"error": err.Error(), "session_id": payload.SessionID})
		}
	}

	msg.Ack()
}
