package events

import "time"

const TypeLeadCaptured = "LEAD_CAPTURED"

// NewLeadCaptured builds the event emitted when a sales lead reaches the
// complete status.
func NewLeadCaptured(sessionID, name, phone, email, question string) Event {
	return BaseEvent{
		Type: TypeLeadCaptured,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"name":       name,
			"phone":      phone,
			"email":      email,
			"question":   question,
		},
		OccurredAt: time.Now().UTC(),
	}
}
