package rerank

import (
	"context"
	"sort"
	"strings"
)

// CrossScorer scores query/document pairs with a cross-encoder.
type CrossScorer interface {
	// Score returns relevance scores for each document against the query,
	// in document order.
	Score(ctx context.Context, query string, documents []string) ([]float64, error)
}

// Scored pairs a document with its final hybrid score.
type Scored struct {
	Document string
	Score    float64
}

const keywordBonusWeight = 0.3

// Reranker combines cross-encoder relevance with a keyword overlap bonus.
// Ties keep retrieval order.
type Reranker struct {
	scorer CrossScorer
	topK   int
}

func NewReranker(scorer CrossScorer, topK int) *Reranker {
	if topK <= 0 {
		topK = 10
	}
	return &Reranker{scorer: scorer, topK: topK}
}

// Rerank scores every document and returns the best topK. A scorer
// failure falls back to keyword bonus alone so retrieval order still
// mostly survives.
func (r *Reranker) Rerank(ctx context.Context, query string, documents []string) ([]Scored, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	semantic := make([]float64, len(documents))
	if r.scorer != nil {
		scores, err := r.scorer.Score(ctx, query, documents)
		if err == nil && len(scores) == len(documents) {
			semantic = scores
		}
	}

	keywords := queryKeywords(query)
	scored := make([]Scored, len(documents))
	for i, doc := range documents {
		scored[i] = Scored{
			Document: doc,
			Score:    semantic[i] + keywordBonusWeight*keywordOverlap(doc, keywords),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > r.topK {
		scored = scored[:r.topK]
	}
	return scored, nil
}

// queryKeywords keeps words longer than three characters, lowercased.
func queryKeywords(query string) []string {
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, "?.!,;:")
		if len(word) > 3 {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

func keywordOverlap(document string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(document)
	var hits float64
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	return hits
}
