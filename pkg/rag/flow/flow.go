package flow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"ai-salesbot-be/pkg/leadstore"
	"ai-salesbot-be/pkg/store"
)

var pricingKeywords = []string{"price", "cost", "pricing", "quote", "rates", "how much"}

// IsPricingInquiry reports whether the question mentions pricing.
func IsPricingInquiry(question string) bool {
	lower := strings.ToLower(question)
	for _, keyword := range pricingKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// Notifier is told when a lead reaches the complete status. Failures are
// the notifier's problem; the conversation never blocks on it.
type Notifier interface {
	LeadCaptured(ctx context.Context, lead *leadstore.Lead)
}

// Manager drives the name collection and lead collection subflows for a
// session. Persistence is fail-open: a storage error never re-prompts the
// visitor or fails the turn.
type Manager struct {
	leads    leadstore.Store
	notifier Notifier
	logger   *log.Logger
}

func NewManager(leads leadstore.Store, notifier Notifier, logger *log.Logger) *Manager {
	return &Manager{
		leads:    leads,
		notifier: notifier,
		logger:   logger,
	}
}

// ShouldAskForName reports whether the session still needs a name prompt.
func (m *Manager) ShouldAskForName(sess *store.Session) bool {
	if sess.Username != "" {
		return false
	}
	if nc := sess.NameCollection; nc != nil {
		if nc.NameCollected || nc.WaitingForName {
			return false
		}
	}
	return true
}

// StartNameCollection puts the session into the waiting-for-name state and
// returns the prompt.
func (m *Manager) StartNameCollection(sess *store.Session) string {
	sess.NameCollection = &store.NameCollectionState{
		WaitingForName: true,
		StartedAt:      time.Now(),
	}
	return "Before we continue, may I have your name please?"
}

// ProcessNameCollection treats the input as the visitor's name, persists a
// partial lead right away and greets the visitor.
func (m *Manager) ProcessNameCollection(ctx context.Context, sess *store.Session, input string) string {
	name := strings.TrimSpace(input)
	sess.Username = name

	if m.leads != nil {
		err := m.leads.Insert(ctx, &leadstore.Lead{
			SessionID: sess.ID,
			Name:      name,
			Question:  "Name collection",
			Status:    leadstore.StatusPartial,
		})
		if err != nil {
			m.logger.Printf("[WARN] Failed to save name-only lead: %v", err)
		}
	}

	sess.NameCollection.NameCollected = true
	sess.NameCollection.WaitingForName = false

	return fmt.Sprintf("Hey there %s! What would you like to know about?", name)
}

// StartLeadCollection begins the pricing lead subflow. The name was
// collected earlier, so the first step is always the phone number.
func (m *Manager) StartLeadCollection(sess *store.Session, originalQuestion string) {
	sess.LeadCollection = &store.LeadCollectionState{
		OriginalQuestion: originalQuestion,
		CurrentStep:      store.LeadStepPhone,
		Name:             sess.Username,
		StartedAt:        time.Now(),
	}
}

// LeadPrompt returns the question for the subflow's current step.
func (m *Manager) LeadPrompt(sess *store.Session) string {
	state := sess.LeadCollection
	if state == nil {
		return "Error: Lead collection not initialized."
	}

	switch state.CurrentStep {
	case store.LeadStepPhone:
		if state.Name != "" {
			return fmt.Sprintf("I'd be happy to help with pricing, %s! Could you please provide your phone number?", state.Name)
		}
		return "I'd be happy to help with pricing! Could you please provide your phone number?"
	case store.LeadStepEmail:
		if state.Name != "" {
			return fmt.Sprintf("Perfect %s! Finally, what's your email address?", state.Name)
		}
		return "Perfect! Finally, what's your email address?"
	default:
		return "I'd be happy to help with pricing! What's your name?"
	}
}

// ProcessLeadStep consumes one subflow answer. done is true when the flow
// reached its terminal step; the state is always removed at that point even
// when persistence failed.
func (m *Manager) ProcessLeadStep(ctx context.Context, sess *store.Session, input string) (done bool, reply string) {
	state := sess.LeadCollection
	if state == nil {
		return false, "Lead collection not initialized for this session."
	}

	switch state.CurrentStep {
	case store.LeadStepPhone:
		state.Phone = strings.TrimSpace(input)
		state.CurrentStep = store.LeadStepEmail
		return false, m.LeadPrompt(sess)

	case store.LeadStepEmail:
		state.Email = strings.TrimSpace(input)
		reply := m.persistCompletedLead(ctx, sess, state)
		m.context(sess).LeadCollected = true
		sess.LeadCollection = nil
		return true, reply

	default:
		return false, "Please try again."
	}
}

func (m *Manager) persistCompletedLead(ctx context.Context, sess *store.Session, state *store.LeadCollectionState) string {
	lead := &leadstore.Lead{
		SessionID: sess.ID,
		Name:      state.Name,
		Phone:     state.Phone,
		Email:     state.Email,
		Question:  state.OriginalQuestion,
		Status:    leadstore.StatusComplete,
	}

	if m.leads == nil {
		return "Thank you! We'll follow up soon."
	}

	existing, err := m.leads.FindBySession(ctx, sess.ID)
	if err != nil {
		m.logger.Printf("[ERROR] Lead lookup failed: %v", err)
		return "Thank you! We'll follow up soon."
	}

	if existing != nil {
		if err := m.leads.UpdatePhone(ctx, sess.ID, state.Phone); err != nil {
			m.logger.Printf("[WARN] Phone update failed: %v", err)
		}
		if err := m.leads.UpdateEmail(ctx, sess.ID, state.Email); err != nil {
			m.logger.Printf("[ERROR] Lead update failed: %v", err)
			return "Thank you! We'll follow up soon."
		}
	} else {
		if err := m.leads.Insert(ctx, lead); err != nil {
			m.logger.Printf("[ERROR] Lead insert failed: %v", err)
			return "Thank you! We'll follow up soon."
		}
	}

	m.notify(ctx, lead)

	if state.Name != "" {
		return fmt.Sprintf("Thank you %s! Your information has been saved. We'll follow up soon regarding your pricing inquiry.", state.Name)
	}
	return "Thank you! Your information has been saved. We'll follow up soon regarding your pricing inquiry."
}

// HandleSuppliedPhone records a phone number the visitor volunteered
// outside the guided subflow and asks for the email next.
func (m *Manager) HandleSuppliedPhone(ctx context.Context, sess *store.Session, phone string) string {
	pricingQuestion := m.pricingQuestion(sess)

	if m.leads != nil {
		if err := m.leads.UpdatePhone(ctx, sess.ID, phone); err != nil {
			m.logger.Printf("[WARN] Failed to update lead with phone: %v", err)
		}
	}

	m.context(sess).Phone = phone
	m.logger.Printf("[DEBUG] Stored supplied phone for session %s (question %q)", sess.ID, pricingQuestion)
	return "Great! I've saved your phone number. Could you please provide your email address?"
}

// HandleSuppliedEmail records a volunteered email, marks the lead complete
// and closes the collection for this visit.
func (m *Manager) HandleSuppliedEmail(ctx context.Context, sess *store.Session, email string) string {
	if m.leads != nil {
		if err := m.leads.UpdateEmail(ctx, sess.ID, email); err != nil {
			m.logger.Printf("[WARN] Failed to update lead with email: %v", err)
		} else if lead, err := m.leads.FindBySession(ctx, sess.ID); err == nil && lead != nil {
			m.notify(ctx, lead)
		}
	}

	c := m.context(sess)
	c.LeadCollected = true
	c.Email = email
	return "Perfect! I've saved your email address. We will contact you soon regarding your queries"
}

func (m *Manager) notify(ctx context.Context, lead *leadstore.Lead) {
	if m.notifier != nil {
		m.notifier.LeadCaptured(ctx, lead)
	}
}

func (m *Manager) pricingQuestion(sess *store.Session) string {
	if c := sess.Context; c != nil && c.OriginalPricingQuestion != "" {
		return c.OriginalPricingQuestion
	}
	return ""
}

func (m *Manager) context(sess *store.Session) *store.ConversationContext {
	if sess.Context == nil {
		sess.Context = &store.ConversationContext{Timestamp: time.Now()}
	}
	return sess.Context
}
