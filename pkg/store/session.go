package store

import "time"

// LeadStep enumerates the steps of the lead collection subflow.
// Name is collected before the subflow starts, so the first step is always phone.
type LeadStep string

const (
	LeadStepPhone LeadStep = "phone"
	LeadStepEmail LeadStep = "email"
)

// NameCollectionState tracks whether we are waiting for the visitor's name.
type NameCollectionState struct {
	WaitingForName bool      `json:"waiting_for_name"`
	NameCollected  bool      `json:"name_collected"`
	StartedAt      time.Time `json:"started_at"`
}

// LeadCollectionState is the in-flight state of a pricing lead capture.
// It is removed from the session when the email step completes (fail-open on
// persistence errors: the state is still removed so the visitor is never
// re-prompted within the same session).
type LeadCollectionState struct {
	OriginalQuestion string    `json:"original_question"`
	CurrentStep      LeadStep  `json:"current_step"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email"`
	StartedAt        time.Time `json:"started_at"`
}

// ConversationContext holds the short-lived memory of the last exchange.
// Entries older than ContextTTL are treated as absent on next access.
type ConversationContext struct {
	LastQuestion            string    `json:"last_question"`
	LastAnswer              string    `json:"last_answer"`
	OriginalPricingQuestion string    `json:"original_pricing_question"`
	LeadCollected           bool      `json:"lead_collected"`
	Phone                   string    `json:"phone"`
	Email                   string    `json:"email"`
	Timestamp               time.Time `json:"timestamp"`
}

// ContextTTL is the idle lifetime of a conversation context entry.
const ContextTTL = 600 * time.Second

// Expired reports whether the context entry has been idle past its TTL.
func (c *ConversationContext) Expired(now time.Time) bool {
	return now.Sub(c.Timestamp) >= ContextTTL
}

// Session is one logical conversation thread, identified by an opaque string.
// Sessions live for the process lifetime; only the conversation context expires.
type Session struct {
	ID       string `json:"id"`
	Username string `json:"username"`

	NameCollection *NameCollectionState `json:"name_collection,omitempty"`
	LeadCollection *LeadCollectionState `json:"lead_collection,omitempty"`
	Context        *ConversationContext `json:"context,omitempty"`

	// Snippets of the passages behind the last generated answer,
	// truncated and capped for transport.
	LastSources []string `json:"last_sources,omitempty"`
}

// Passage is a retrieved document with its provisional relevance score.
// The score is a true vector distance for embedding passes and a heuristic
// weight for text passes; it only lives within one chat turn.
type Passage struct {
	Document string  `json:"document"`
	Score    float64 `json:"score"`
}
