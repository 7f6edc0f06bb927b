package search

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"ai-salesbot-be/pkg/embedding"
	"ai-salesbot-be/pkg/vectorindex"
)

// Aggregator runs layered retrieval strategies over one tenant's index
// and merges the results with order-preserving deduplication.
type Aggregator struct {
	index    vectorindex.Index
	embedder embedding.EmbeddingProvider
	logger   *log.Logger
}

func NewAggregator(index vectorindex.Index, embedder embedding.EmbeddingProvider, logger *log.Logger) *Aggregator {
	return &Aggregator{
		index:    index,
		embedder: embedder,
		logger:   logger,
	}
}

// Analysis is the per-question breakdown shared by the retrieval passes.
type Analysis struct {
	Original  string
	Embedding []float32
	Keywords  []string // lowercased words longer than 2 chars
	Entities  []string // capitalized multi-character tokens
}

// Analyze embeds the question once and extracts the lexical features the
// retrieval passes reuse.
func (a *Aggregator) Analyze(question string) (*Analysis, error) {
	resp, err := a.embedder.Generate(question, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	analysis := &Analysis{
		Original:  question,
		Embedding: resp.Embedding.Values,
	}
	for _, word := range strings.Fields(question) {
		if len(word) > 2 {
			analysis.Keywords = append(analysis.Keywords, strings.ToLower(strings.TrimSpace(word)))
			runes := []rune(word)
			if unicode.IsUpper(runes[0]) {
				analysis.Entities = append(analysis.Entities, word)
			}
		}
	}
	return analysis, nil
}

// Retrieve is the wide single-pass strategy: primary embedding search plus
// per-word, expansion-term and question-variation text queries. Scores for
// text hits are heuristic weights rather than true distances.
func (a *Aggregator) Retrieve(ctx context.Context, analysis *Analysis) ([]string, []float64, error) {
	var docs []string
	var scores []float64

	results, err := a.index.QueryByVector(ctx, analysis.Embedding, 50)
	if err != nil {
		return nil, nil, fmt.Errorf("primary embedding search failed: %w", err)
	}
	for _, r := range results {
		docs = append(docs, r.Document)
		scores = append(scores, r.Distance)
	}

	for _, word := range analysis.Keywords {
		wordResults, err := a.index.QueryByText(ctx, word, 25)
		if err != nil {
			a.logger.Printf("[WARN] Word search failed for %q: %v", word, err)
			continue
		}
		for _, r := range wordResults {
			docs = append(docs, r.Document)
			scores = append(scores, 0.7)
		}
	}

	for _, term := range a.expansionTerms(analysis) {
		if len(term) <= 1 {
			continue
		}
		termResults, err := a.index.QueryByText(ctx, term, 20)
		if err != nil {
			a.logger.Printf("[WARN] Expanded search failed for %q: %v", term, err)
			continue
		}
		for _, r := range termResults {
			docs = append(docs, r.Document)
			scores = append(scores, 0.8)
		}
	}

	for _, variation := range questionVariations(analysis) {
		if len(variation) <= 3 {
			continue
		}
		varResults, err := a.index.QueryByText(ctx, variation, 40)
		if err != nil {
			a.logger.Printf("[WARN] Variation search failed for %q: %v", variation, err)
			continue
		}
		for _, r := range varResults {
			docs = append(docs, r.Document)
			scores = append(scores, 0.9)
		}
	}

	uniqueDocs, uniqueScores := dedupeWithScores(docs, scores)
	if len(uniqueDocs) > 100 {
		uniqueDocs = uniqueDocs[:100]
		uniqueScores = uniqueScores[:100]
	}

	a.logger.Printf("[DEBUG] Retrieved %d unique documents for %q", len(uniqueDocs), analysis.Original)
	return uniqueDocs, uniqueScores, nil
}

// RetrieveDiverse unions three independent query formulations. Each pass
// may fail without sinking the others. The union is deduplicated in
// first-seen order and left uncapped for the reranker.
func (a *Aggregator) RetrieveDiverse(ctx context.Context, analysis *Analysis) []string {
	var all []string
	seen := make(map[string]bool)

	collect := func(docs []string) {
		for _, doc := range docs {
			if doc == "" || strings.TrimSpace(doc) == "" {
				continue
			}
			if !seen[doc] {
				all = append(all, doc)
				seen[doc] = true
			}
		}
	}

	results, err := a.index.QueryByVector(ctx, analysis.Embedding, 50)
	if err != nil {
		a.logger.Printf("[WARN] Embedding pass failed: %v", err)
	} else {
		docs := make([]string, 0, len(results))
		for _, r := range results {
			docs = append(docs, r.Document)
		}
		collect(docs)
	}

	normalized := strings.TrimRight(analysis.Original, "?.!,;")
	textResults, err := a.index.QueryByText(ctx, normalized, 60)
	if err != nil {
		a.logger.Printf("[WARN] Text pass failed: %v", err)
	} else {
		docs := make([]string, 0, len(textResults))
		for _, r := range textResults {
			docs = append(docs, r.Document)
		}
		collect(docs)
	}

	if len(analysis.Entities) > 0 {
		entities := analysis.Entities
		if len(entities) > 5 {
			entities = entities[:5]
		}
		entityResults, err := a.index.QueryByText(ctx, strings.Join(entities, " "), 40)
		if err != nil {
			a.logger.Printf("[WARN] Entity pass failed: %v", err)
		} else {
			docs := make([]string, 0, len(entityResults))
			for _, r := range entityResults {
				docs = append(docs, r.Document)
			}
			collect(docs)
		}
	}

	a.logger.Printf("[DEBUG] %d unique documents from all passes", len(all))
	return all
}

// SearchContactContent issues contact-oriented text queries chosen by the
// channel the visitor asked about.
func (a *Aggregator) SearchContactContent(ctx context.Context, question string) []string {
	lower := strings.ToLower(question)

	var terms []string
	switch {
	case strings.Contains(lower, "email"):
		terms = []string{
			"email", "e-mail", "contact email", "email address", "send email",
			"contact us", "customer service", "support email",
		}
	case strings.Contains(lower, "phone") || strings.Contains(lower, "call") ||
		strings.Contains(lower, "telephone") || strings.Contains(lower, "mobile"):
		terms = []string{
			"phone", "telephone", "call", "mobile", "phone number", "contact number",
			"customer service", "support phone", "call us",
		}
	default:
		terms = []string{
			"contact information", "contact us", "customer service", "support",
			"phone number", "email address", "office location", "headquarters",
			"get in touch", "reach us", "customer care", "help desk", "contact details",
		}
	}

	var docs []string
	seen := make(map[string]bool)
	for _, term := range terms {
		results, err := a.index.QueryByText(ctx, term, 40)
		if err != nil {
			a.logger.Printf("[WARN] Contact search failed for %q: %v", term, err)
			continue
		}
		for _, r := range results {
			if r.Document == "" || strings.TrimSpace(r.Document) == "" {
				continue
			}
			if !seen[r.Document] {
				docs = append(docs, r.Document)
				seen[r.Document] = true
			}
		}
	}

	a.logger.Printf("[DEBUG] Found %d unique contact documents", len(docs))
	if len(docs) > 25 {
		docs = docs[:25]
	}
	return docs
}

// expansionTerms widens the query with synonym groups triggered by the
// question's wording, plus the question's own keywords.
func (a *Aggregator) expansionTerms(analysis *Analysis) []string {
	lower := strings.ToLower(analysis.Original)
	var terms []string

	containsAny := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}

	if containsAny("founded", "establish", "start", "began", "create") {
		terms = append(terms, "founded", "established", "started", "began", "created", "inception", "formation")
	}
	if containsAny("year", "when", "date", "time") {
		currentYear := time.Now().Year()
		for year := currentYear - 20; year <= currentYear; year++ {
			terms = append(terms, fmt.Sprintf("%d", year))
		}
	}
	if containsAny("company", "business", "organization") {
		terms = append(terms, "company", "business", "organization", "corporation", "firm")
	}
	if containsAny("head", "ceo", "leader", "manager", "director") {
		terms = append(terms, "CEO", "head", "director", "manager", "leader", "president", "founder")
	}

	terms = append(terms, analysis.Keywords...)
	return terms
}

func questionVariations(analysis *Analysis) []string {
	stripped := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(analysis.Original, "was", ""), "is", ""))
	return []string{
		analysis.Original,
		stripped,
		strings.Join(analysis.Keywords, " "),
	}
}

func dedupeWithScores(docs []string, scores []float64) ([]string, []float64) {
	var uniqueDocs []string
	var uniqueScores []float64
	seen := make(map[string]bool)

	for i, doc := range docs {
		if doc == "" || strings.TrimSpace(doc) == "" {
			continue
		}
		if seen[doc] {
			continue
		}
		uniqueDocs = append(uniqueDocs, doc)
		uniqueScores = append(uniqueScores, scores[i])
		seen[doc] = true
	}
	return uniqueDocs, uniqueScores
}
