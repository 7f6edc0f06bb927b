package service

import (
	"context"
	"encoding/json"

	"ai-salesbot-be/internal/dto"
	"ai-salesbot-be/internal/pkg/logger"
	"ai-salesbot-be/pkg/leadstore"
	"ai-salesbot-be/pkg/rag/flow"
)

// leadNotifier bridges completed leads onto the internal message bus. A
// publish failure is logged and swallowed so the chat turn never blocks
// on downstream delivery.
type leadNotifier struct {
	publisher IPublisherService
	logger    logger.ILogger
}

func NewLeadNotifier(publisher IPublisherService, log logger.ILogger) flow.Notifier {
	return &leadNotifier{
		publisher: publisher,
		logger:    log,
	}
}

func (n *leadNotifier) LeadCaptured(ctx context.Context, lead *leadstore.Lead) {
	payload, err := json.Marshal(dto.LeadCapturedMessage{
		SessionID: lead.SessionID,
		Name:      lead.Name,
		Phone:     lead.Phone,
		Email:     lead.Email,
		Question:  lead.Question,
	})
	if err != nil {
		n.logger.Error("LeadNotifier", "Failed to marshal lead message", map[string]interface{}{"error": err.Error(), "session_id": lead.SessionID})
		return
	}

	if err := n.publisher.Publish(ctx, payload); err != nil {
		n.logger.Error("LeadNotifier", "Failed to publish lead message", map[string]interface{}{"error": err.Error(), "session_id": lead.SessionID})
		return
	}

	n.logger.Info("LeadNotifier", "Lead pushed to message bus", map[string]interface{}{"session_id": lead.SessionID})
}
