package rag

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"ai-salesbot-be/internal/repository/memory"
	"ai-salesbot-be/pkg/contact"
	"ai-salesbot-be/pkg/leadstore"
	"ai-salesbot-be/pkg/rag/answer"
	"ai-salesbot-be/pkg/rag/flow"
	"ai-salesbot-be/pkg/rag/rerank"
	"ai-salesbot-be/pkg/rag/search"
	"ai-salesbot-be/pkg/store"
	"ai-salesbot-be/pkg/vectorindex"
)

const (
	sourceLimit   = 5
	snippetMaxLen = 240
	recentSources = 3
)

// Engine answers chat turns for one tenant. Session state mutations run
// under the engine lock; the retrieval pipeline runs outside it.
type Engine struct {
	sessions    *memory.SessionRepository
	flow        *flow.Manager
	aggregator  *search.Aggregator
	reranker    *rerank.Reranker
	synthesizer *answer.Synthesizer
	extractor   *contact.Extractor
	leads       leadstore.Store
	index       vectorindex.Index
	logger      *log.Logger

	mu sync.Mutex
}

type EngineDeps struct {
	Sessions    *memory.SessionRepository
	Flow        *flow.Manager
	Aggregator  *search.Aggregator
	Reranker    *rerank.Reranker
	Synthesizer *answer.Synthesizer
	Extractor   *contact.Extractor
	Leads       leadstore.Store
	Index       vectorindex.Index
	Logger      *log.Logger
}

func NewEngine(deps EngineDeps) *Engine {
	return &Engine{
		sessions:    deps.Sessions,
		flow:        deps.Flow,
		aggregator:  deps.Aggregator,
		reranker:    deps.Reranker,
		synthesizer: deps.Synthesizer,
		extractor:   deps.Extractor,
		leads:       deps.Leads,
		index:       deps.Index,
		logger:      deps.Logger,
	}
}

// Chat processes one turn. It always returns a user-visible answer; any
// pipeline failure degrades to an apologetic message.
func (e *Engine) Chat(ctx context.Context, question, sessionID string) string {
	e.logger.Printf("[INFO] CHAT: %.50s | Session: %s", question, sessionID)

	e.mu.Lock()
	sess := e.sessions.LoadOrCreate(sessionID)
	sess.LastSources = nil

	// Idle contexts expire lazily on next access.
	if sess.Context != nil && sess.Context.Expired(time.Now()) {
		sess.Context = nil
	}

	// Priority 1: the previous turn asked for the visitor's name.
	if nc := sess.NameCollection; nc != nil && nc.WaitingForName {
		reply := e.flow.ProcessNameCollection(ctx, sess, question)
		e.saveAndUnlock(sess)
		return reply
	}

	// Remember the first pricing question of the visit for the lead record.
	if flow.IsPricingInquiry(question) {
		c := e.ensureContext(sess)
		if c.OriginalPricingQuestion == "" {
			c.OriginalPricingQuestion = question
		}
	}

	// Priority 2: the message itself carries contact details.
	info := e.extractor.Extract(question)
	if info.HasContact {
		if len(info.Phones) > 0 {
			reply := e.flow.HandleSuppliedPhone(ctx, sess, info.Phones[0])
			e.saveAndUnlock(sess)
			return reply
		}
		if len(info.Emails) > 0 {
			reply := e.flow.HandleSuppliedEmail(ctx, sess, info.Emails[0])
			e.saveAndUnlock(sess)
			return reply
		}
	}

	// Priority 3: new session without a name yet.
	if e.flow.ShouldAskForName(sess) {
		reply := e.flow.StartNameCollection(sess)
		e.saveAndUnlock(sess)
		return reply
	}

	// Priority 4: pricing inquiries feed the lead subflow until a lead
	// has been captured for the visit.
	if flow.IsPricingInquiry(question) && !e.leadCollected(sess) {
		if sess.LeadCollection != nil {
			_, reply := e.flow.ProcessLeadStep(ctx, sess, question)
			e.saveAndUnlock(sess)
			return reply
		}
		e.flow.StartLeadCollection(sess, question)
		reply := e.flow.LeadPrompt(sess)
		e.saveAndUnlock(sess)
		return reply
	}

	e.saveAndUnlock(sess)

	// Priority 5: full retrieval pipeline, outside the session lock.
	answerText, err := e.answerWithRetrieval(ctx, sess, question)
	if err != nil {
		e.logger.Printf("[ERROR] Chat turn failed: %v", err)
		return fmt.Sprintf("I apologize, but I encountered an error while processing your question: %v", err)
	}
	return answerText
}

func (e *Engine) answerWithRetrieval(ctx context.Context, sess *store.Session, question string) (string, error) {
	analysis, err := e.aggregator.Analyze(question)
	if err != nil {
		return "", err
	}

	docs := e.aggregator.RetrieveDiverse(ctx, analysis)

	normalized := strings.TrimRight(question, "?.!,;")
	reranked, err := e.reranker.Rerank(ctx, normalized, docs)
	if err != nil {
		return "", err
	}

	top := make([]string, 0, len(reranked))
	for _, r := range reranked {
		top = append(top, r.Document)
	}

	answerText := e.synthesizer.Synthesize(ctx, question, top)

	e.mu.Lock()
	sess.LastSources = sourceSnippets(top)
	c := e.ensureContext(sess)
	c.LastQuestion = question
	c.LastAnswer = answerText
	c.Timestamp = time.Now()
	e.saveAndUnlock(sess)

	return answerText, nil
}

// HandleContactQuery answers a contact-information question from already
// retrieved documents, falling back to a focused contact search.
func (e *Engine) HandleContactQuery(ctx context.Context, question string, docs []string) string {
	info := e.extractFromDocs(docs)
	if len(info.Emails) > 0 || len(info.Phones) > 0 || len(info.Addresses) > 0 {
		return e.extractor.FormatResponse(info, question)
	}

	contactDocs := e.aggregator.SearchContactContent(ctx, question)
	if len(contactDocs) > 0 {
		info = e.extractFromDocs(contactDocs)
		if len(info.Emails) > 0 || len(info.Phones) > 0 || len(info.Addresses) > 0 {
			return e.extractor.FormatResponse(info, question)
		}
	}

	return e.extractor.FormatResponse(contact.Info{}, question)
}

// ContactInfo runs the focused contact search and aggregates everything
// the extractor recognizes.
func (e *Engine) ContactInfo(ctx context.Context) (contact.Info, string) {
	docs := e.aggregator.SearchContactContent(ctx, "contact information")
	info := e.extractFromDocs(docs)
	return info, e.extractor.FormatResponse(info, "contact information")
}

func (e *Engine) extractFromDocs(docs []string) contact.Info {
	var merged contact.Info
	for _, doc := range docs {
		if strings.TrimSpace(doc) == "" {
			continue
		}
		merged = contact.MergeInfo(merged, e.extractor.Extract(doc))
	}
	return merged
}

// GetRecentSources returns the snippets behind the session's last answer.
func (e *Engine) GetRecentSources(sessionID string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess, found := e.sessions.Get(sessionID)
	if !found {
		return nil
	}
	sources := sess.LastSources
	if len(sources) > recentSources {
		sources = sources[:recentSources]
	}
	return sources
}

func (e *Engine) AllLeads(ctx context.Context) ([]leadstore.Lead, error) {
	if e.leads == nil {
		return nil, nil
	}
	return e.leads.All(ctx)
}

func (e *Engine) LeadsCount(ctx context.Context) (int64, error) {
	if e.leads == nil {
		return 0, nil
	}
	return e.leads.Count(ctx)
}

// Close releases the tenant's backends.
func (e *Engine) Close(ctx context.Context) error {
	var firstErr error
	if e.index != nil {
		if err := e.index.Close(); err != nil {
			firstErr = err
		}
	}
	if e.leads != nil {
		if err := e.leads.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (e *Engine) leadCollected(sess *store.Session) bool {
	return sess.Context != nil && sess.Context.LeadCollected
}

func (e *Engine) ensureContext(sess *store.Session) *store.ConversationContext {
	if sess.Context == nil {
		sess.Context = &store.ConversationContext{Timestamp: time.Now()}
	}
	return sess.Context
}

func (e *Engine) saveAndUnlock(sess *store.Session) {
	e.sessions.Save(sess)
	e.mu.Unlock()
}

func sourceSnippets(docs []string) []string {
	var snippets []string
	for _, doc := range docs {
		if len(snippets) >= sourceLimit {
			break
		}
		snippet := strings.TrimSpace(doc)
		if snippet == "" {
			continue
		}
		if utf8.RuneCountInString(snippet) > snippetMaxLen {
			// Truncate on rune boundaries so multibyte content stays
			// valid UTF-8.
			runes := []rune(snippet)
			snippet = strings.TrimRight(string(runes[:snippetMaxLen]), " ") + "..."
		}
		snippets = append(snippets, snippet)
	}
	return snippets
}
