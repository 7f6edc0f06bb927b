package flow

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-salesbot-be/pkg/leadstore"
	"ai-salesbot-be/pkg/store"
)

type fakeLeadStore struct {
	inserted []*leadstore.Lead
	phones   map[string]string
	emails   map[string]string
	failAll  bool
}

func newFakeLeadStore() *fakeLeadStore {
	return &fakeLeadStore{
		phones: make(map[string]string),
		emails: make(map[string]string),
	}
}

func (f *fakeLeadStore) Insert(_ context.Context, lead *leadstore.Lead) error {
	if f.failAll {
		return errors.New("storage down")
	}
	f.inserted = append(f.inserted, lead)
	return nil
}

func (f *fakeLeadStore) FindBySession(_ context.Context, sessionID string) (*leadstore.Lead, error) {
	if f.failAll {
		return nil, errors.New("storage down")
	}
	for _, lead := range f.inserted {
		if lead.SessionID == sessionID {
			return lead, nil
		}
	}
	return nil, nil
}

func (f *fakeLeadStore) UpdatePhone(_ context.Context, sessionID, phone string) error {
	if f.failAll {
		return errors.New("storage down")
	}
	f.phones[sessionID] = phone
	return nil
}

func (f *fakeLeadStore) UpdateEmail(_ context.Context, sessionID, email string) error {
	if f.failAll {
		return errors.New("storage down")
	}
	f.emails[sessionID] = email
	return nil
}

func (f *fakeLeadStore) Complete(_ context.Context, _ string) error { return nil }

func (f *fakeLeadStore) All(_ context.Context) ([]leadstore.Lead, error) { return nil, nil }

func (f *fakeLeadStore) Count(_ context.Context) (int64, error) {
	return int64(len(f.inserted)), nil
}

func (f *fakeLeadStore) Close(_ context.Context) error { return nil }

type fakeNotifier struct {
	captured []*leadstore.Lead
}

func (n *fakeNotifier) LeadCaptured(_ context.Context, lead *leadstore.Lead) {
	n.captured = append(n.captured, lead)
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestIsPricingInquiry(t *testing.T) {
	tests := []struct {
		question string
		want     bool
	}{
		{"What is the price of your product?", true},
		{"How much does it cost?", true},
		{"Can I get a quote?", true},
		{"Tell me your RATES", true},
		{"What does your company do?", false},
		{"Where is your office?", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPricingInquiry(tt.question), tt.question)
	}
}

func TestNameCollection(t *testing.T) {
	leads := newFakeLeadStore()
	m := NewManager(leads, nil, testLogger())
	sess := &store.Session{ID: "s1"}

	require.True(t, m.ShouldAskForName(sess))

	prompt := m.StartNameCollection(sess)
	assert.Equal(t, "Before we continue, may I have your name please?", prompt)
	require.NotNil(t, sess.NameCollection)
	assert.True(t, sess.NameCollection.WaitingForName)
	assert.False(t, m.ShouldAskForName(sess))

	greeting := m.ProcessNameCollection(context.Background(), sess, "  Alice  ")
	assert.Equal(t, "Hey there Alice! What would you like to know about?", greeting)
	assert.Equal(t, "Alice", sess.Username)
	assert.True(t, sess.NameCollection.NameCollected)
	assert.False(t, sess.NameCollection.WaitingForName)

	require.Len(t, leads.inserted, 1)
	assert.Equal(t, "Alice", leads.inserted[0].Name)
	assert.Equal(t, leadstore.StatusPartial, leads.inserted[0].Status)
	assert.Equal(t, "s1", leads.inserted[0].SessionID)
}

func TestNameCollectionSurvivesStorageFailure(t *testing.T) {
	leads := newFakeLeadStore()
	leads.failAll = true
	m := NewManager(leads, nil, testLogger())
	sess := &store.Session{ID: "s1"}

	m.StartNameCollection(sess)
	greeting := m.ProcessNameCollection(context.Background(), sess, "Bob")

	assert.Equal(t, "Hey there Bob! What would you like to know about?", greeting)
	assert.Equal(t, "Bob", sess.Username)
}

func TestLeadSubflowSequence(t *testing.T) {
	leads := newFakeLeadStore()
	notifier := &fakeNotifier{}
	m := NewManager(leads, notifier, testLogger())

	sess := &store.Session{ID: "s1", Username: "Alice"}
	m.StartNameCollection(sess)
	m.ProcessNameCollection(context.Background(), sess, "Alice")

	m.StartLeadCollection(sess, "How much does the premium plan cost?")
	require.NotNil(t, sess.LeadCollection)
	assert.Equal(t, store.LeadStepPhone, sess.LeadCollection.CurrentStep)
	assert.Equal(t, "I'd be happy to help with pricing, Alice! Could you please provide your phone number?", m.LeadPrompt(sess))

	done, reply := m.ProcessLeadStep(context.Background(), sess, " 555-123-4567 ")
	assert.False(t, done)
	assert.Equal(t, "Perfect Alice! Finally, what's your email address?", reply)
	assert.Equal(t, store.LeadStepEmail, sess.LeadCollection.CurrentStep)
	assert.Equal(t, "555-123-4567", sess.LeadCollection.Phone)

	done, reply = m.ProcessLeadStep(context.Background(), sess, "alice@example.com")
	assert.True(t, done)
	assert.Equal(t, "Thank you Alice! Your information has been saved. We'll follow up soon regarding your pricing inquiry.", reply)

	// Terminal transition removes the subflow state and marks the visit.
	assert.Nil(t, sess.LeadCollection)
	require.NotNil(t, sess.Context)
	assert.True(t, sess.Context.LeadCollected)

	// Existing partial lead was updated, not duplicated.
	assert.Equal(t, "555-123-4567", leads.phones["s1"])
	assert.Equal(t, "alice@example.com", leads.emails["s1"])
	assert.Len(t, leads.inserted, 1)

	require.Len(t, notifier.captured, 1)
	assert.Equal(t, "alice@example.com", notifier.captured[0].Email)
}

func TestLeadSubflowInsertsWhenNoPartialLead(t *testing.T) {
	leads := newFakeLeadStore()
	m := NewManager(leads, nil, testLogger())

	sess := &store.Session{ID: "s2", Username: "Carol"}
	m.StartLeadCollection(sess, "pricing please")
	m.ProcessLeadStep(context.Background(), sess, "+1 (212) 555-0100")
	done, _ := m.ProcessLeadStep(context.Background(), sess, "carol@example.com")

	require.True(t, done)
	require.Len(t, leads.inserted, 1)
	lead := leads.inserted[0]
	assert.Equal(t, leadstore.StatusComplete, lead.Status)
	assert.Equal(t, "carol@example.com", lead.Email)
	assert.Equal(t, "pricing please", lead.Question)
}

func TestLeadSubflowFailOpen(t *testing.T) {
	leads := newFakeLeadStore()
	leads.failAll = true
	m := NewManager(leads, nil, testLogger())

	sess := &store.Session{ID: "s3", Username: "Dan"}
	m.StartLeadCollection(sess, "quote")
	m.ProcessLeadStep(context.Background(), sess, "5551234567")
	done, reply := m.ProcessLeadStep(context.Background(), sess, "dan@example.com")

	assert.True(t, done)
	assert.Equal(t, "Thank you! We'll follow up soon.", reply)

	// Even on failure the visitor is never re-prompted this session.
	assert.Nil(t, sess.LeadCollection)
	require.NotNil(t, sess.Context)
	assert.True(t, sess.Context.LeadCollected)
}

func TestHandleSuppliedPhoneThenEmail(t *testing.T) {
	leads := newFakeLeadStore()
	notifier := &fakeNotifier{}
	m := NewManager(leads, notifier, testLogger())

	sess := &store.Session{ID: "s4", Username: "Eve"}
	leads.inserted = append(leads.inserted, &leadstore.Lead{SessionID: "s4", Name: "Eve", Status: leadstore.StatusPartial})

	reply := m.HandleSuppliedPhone(context.Background(), sess, "555-867-5309")
	assert.Equal(t, "Great! I've saved your phone number. Could you please provide your email address?", reply)
	assert.Equal(t, "555-867-5309", leads.phones["s4"])
	require.NotNil(t, sess.Context)
	assert.False(t, sess.Context.LeadCollected)

	reply = m.HandleSuppliedEmail(context.Background(), sess, "eve@example.com")
	assert.Equal(t, "Perfect! I've saved your email address. We will contact you soon regarding your queries", reply)
	assert.Equal(t, "eve@example.com", leads.emails["s4"])
	assert.True(t, sess.Context.LeadCollected)
	assert.Len(t, notifier.captured, 1)
}
