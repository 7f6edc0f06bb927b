package rag

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-salesbot-be/internal/repository/memory"
	"ai-salesbot-be/pkg/contact"
	"ai-salesbot-be/pkg/embedding"
	"ai-salesbot-be/pkg/leadstore"
	"ai-salesbot-be/pkg/llm"
	"ai-salesbot-be/pkg/rag/answer"
	"ai-salesbot-be/pkg/rag/flow"
	"ai-salesbot-be/pkg/rag/rerank"
	"ai-salesbot-be/pkg/rag/search"
	"ai-salesbot-be/pkg/vectorindex"
)

type memLeadStore struct {
	leads map[string]*leadstore.Lead
}

func newMemLeadStore() *memLeadStore {
	return &memLeadStore{leads: make(map[string]*leadstore.Lead)}
}

func (m *memLeadStore) Insert(_ context.Context, lead *leadstore.Lead) error {
	m.leads[lead.SessionID] = lead
	return nil
}

func (m *memLeadStore) FindBySession(_ context.Context, sessionID string) (*leadstore.Lead, error) {
	return m.leads[sessionID], nil
}

func (m *memLeadStore) UpdatePhone(_ context.Context, sessionID, phone string) error {
	if lead, ok := m.leads[sessionID]; ok {
		lead.Phone = phone
		lead.Status = leadstore.StatusPhoneCollected
	}
	return nil
}

func (m *memLeadStore) UpdateEmail(_ context.Context, sessionID, email string) error {
	if lead, ok := m.leads[sessionID]; ok {
		lead.Email = email
		lead.Status = leadstore.StatusComplete
	}
	return nil
}

func (m *memLeadStore) Complete(_ context.Context, sessionID string) error {
	if lead, ok := m.leads[sessionID]; ok {
		lead.Status = leadstore.StatusComplete
	}
	return nil
}

func (m *memLeadStore) All(_ context.Context) ([]leadstore.Lead, error) {
	out := make([]leadstore.Lead, 0, len(m.leads))
	for _, lead := range m.leads {
		out = append(out, *lead)
	}
	return out, nil
}

func (m *memLeadStore) Count(_ context.Context) (int64, error) {
	return int64(len(m.leads)), nil
}

func (m *memLeadStore) Close(_ context.Context) error { return nil }

type staticIndex struct {
	docs []string
}

func (s *staticIndex) QueryByVector(_ context.Context, _ []float32, _ int) ([]vectorindex.Result, error) {
	out := make([]vectorindex.Result, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, vectorindex.Result{Document: d, Distance: 0.2})
	}
	return out, nil
}

func (s *staticIndex) QueryByText(_ context.Context, _ string, _ int) ([]vectorindex.Result, error) {
	return nil, nil
}

func (s *staticIndex) Count(_ context.Context) (int, error) { return len(s.docs), nil }

func (s *staticIndex) Close() error { return nil }

type staticEmbedder struct{}

func (s *staticEmbedder) Generate(_ string, _ string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0}}}, nil
}

type staticLLM struct {
	answer string
}

func (s *staticLLM) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	return s.answer, nil
}

func (s *staticLLM) Generate(_ context.Context, _ string, _ ...llm.Option) (string, error) {
	return s.answer, nil
}

func newTestEngine(index vectorindex.Index, leads leadstore.Store) *Engine {
	quiet := log.New(io.Discard, "", 0)
	aggregator := search.NewAggregator(index, &staticEmbedder{}, quiet)

	return NewEngine(EngineDeps{
		Sessions:    memory.NewSessionRepository(),
		Flow:        flow.NewManager(leads, nil, quiet),
		Aggregator:  aggregator,
		Reranker:    rerank.NewReranker(nil, 40),
		Synthesizer: answer.NewSynthesizer(&staticLLM{answer: "Our product ships worldwide."}, quiet),
		Extractor:   contact.NewExtractor(),
		Leads:       leads,
		Index:       index,
		Logger:      quiet,
	})
}

// Drives a session past the name gate.
func introduce(t *testing.T, e *Engine, sessionID, name string) {
	t.Helper()
	reply := e.Chat(context.Background(), "Hello there, what do you sell to customers?", sessionID)
	require.Equal(t, "Before we continue, may I have your name please?", reply)
	reply = e.Chat(context.Background(), name, sessionID)
	require.Contains(t, reply, "Hey there "+name)
}

func TestChatAsksForNameFirst(t *testing.T) {
	e := newTestEngine(&staticIndex{}, newMemLeadStore())

	reply := e.Chat(context.Background(), "What do you sell?", "sess-1")
	assert.Equal(t, "Before we continue, may I have your name please?", reply)
}

func TestChatNameThenAnswer(t *testing.T) {
	index := &staticIndex{docs: []string{"We sell widgets worldwide."}}
	e := newTestEngine(index, newMemLeadStore())

	introduce(t, e, "sess-2", "Alice")

	reply := e.Chat(context.Background(), "Where do you ship?", "sess-2")
	assert.Equal(t, "Our product ships worldwide.", reply)

	sources := e.GetRecentSources("sess-2")
	require.NotEmpty(t, sources)
	assert.Equal(t, "We sell widgets worldwide.", sources[0])
}

func TestChatPricingTriggersLeadSubflow(t *testing.T) {
	leads := newMemLeadStore()
	e := newTestEngine(&staticIndex{}, leads)

	introduce(t, e, "sess-3", "Bob")

	reply := e.Chat(context.Background(), "How much does it cost?", "sess-3")
	assert.Equal(t, "I'd be happy to help with pricing, Bob! Could you please provide your phone number?", reply)

	// The phone answer is caught by the contact-supplied gate.
	reply = e.Chat(context.Background(), "555-123-4567", "sess-3")
	assert.Equal(t, "Great! I've saved your phone number. Could you please provide your email address?", reply)

	reply = e.Chat(context.Background(), "bob@example.com", "sess-3")
	assert.Equal(t, "Perfect! I've saved your email address. We will contact you soon regarding your queries", reply)

	lead := leads.leads["sess-3"]
	require.NotNil(t, lead)
	assert.Equal(t, leadstore.StatusComplete, lead.Status)
	assert.Equal(t, "555-123-4567", lead.Phone)
	assert.Equal(t, "bob@example.com", lead.Email)
}

func TestChatPricingAfterLeadCollectedFallsThrough(t *testing.T) {
	e := newTestEngine(&staticIndex{docs: []string{"Plans start at $10."}}, newMemLeadStore())

	introduce(t, e, "sess-4", "Carol")
	e.Chat(context.Background(), "what is the price", "sess-4")
	e.Chat(context.Background(), "555-123-4567", "sess-4")
	e.Chat(context.Background(), "carol@example.com", "sess-4")

	// With the lead captured, pricing questions get a normal answer.
	reply := e.Chat(context.Background(), "what is the price", "sess-4")
	assert.Equal(t, "Our product ships worldwide.", reply)
}

func TestChatPhoneBeforeEmailInSameMessage(t *testing.T) {
	leads := newMemLeadStore()
	e := newTestEngine(&staticIndex{}, leads)

	introduce(t, e, "sess-5", "Dan")

	reply := e.Chat(context.Background(), "Reach me at 555-123-4567 or dan@example.com", "sess-5")
	assert.Equal(t, "Great! I've saved your phone number. Could you please provide your email address?", reply)

	lead := leads.leads["sess-5"]
	require.NotNil(t, lead)
	assert.Equal(t, leadstore.StatusPhoneCollected, lead.Status)
	assert.Empty(t, lead.Email)
}

func TestConversationContextExpiry(t *testing.T) {
	e := newTestEngine(&staticIndex{docs: []string{"doc"}}, newMemLeadStore())

	introduce(t, e, "sess-6", "Eve")
	e.Chat(context.Background(), "Where do you ship?", "sess-6")

	sess, found := e.sessions.Get("sess-6")
	require.True(t, found)
	require.NotNil(t, sess.Context)

	// Age the context past its idle lifetime.
	sess.Context.Timestamp = time.Now().Add(-11 * time.Minute)
	e.sessions.Save(sess)

	e.Chat(context.Background(), "Where do you ship?", "sess-6")

	sess, _ = e.sessions.Get("sess-6")
	require.NotNil(t, sess.Context)
	assert.WithinDuration(t, time.Now(), sess.Context.Timestamp, time.Minute)
}

func TestHandleContactQueryFallsBackToFocusedSearch(t *testing.T) {
	e := newTestEngine(&staticIndex{}, newMemLeadStore())

	reply := e.HandleContactQuery(context.Background(), "what is your email address", []string{"no contacts here"})
	assert.Contains(t, reply, "couldn't find any email addresses")
}

func TestHandleContactQueryExtractsFromDocs(t *testing.T) {
	e := newTestEngine(&staticIndex{}, newMemLeadStore())

	docs := []string{"Reach our support team at support@acme.com for help."}
	reply := e.HandleContactQuery(context.Background(), "what is your email address", docs)
	assert.Contains(t, reply, "support@acme.com")
}

func TestSourceSnippetsTruncateOnRuneBoundaries(t *testing.T) {
	long := strings.Repeat("ü", 300)
	snippets := sourceSnippets([]string{long, "short"})

	require.Len(t, snippets, 2)
	assert.True(t, utf8.ValidString(snippets[0]))
	assert.Equal(t, 243, utf8.RuneCountInString(snippets[0]))
	assert.True(t, strings.HasSuffix(snippets[0], "..."))
	assert.Equal(t, "short", snippets[1])
}
