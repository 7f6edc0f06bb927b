package rerank

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScorer struct {
	scores []float64
	err    error
}

func (s *stubScorer) Score(_ context.Context, _ string, docs []string) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.scores[:len(docs)], nil
}

func TestRerankOrdersBySemanticScore(t *testing.T) {
	r := NewReranker(&stubScorer{scores: []float64{0.1, 0.9, 0.5}}, 10)

	docs := []string{"alpha", "bravo", "charlie"}
	scored, err := r.Rerank(context.Background(), "unrelated", docs)
	require.NoError(t, err)
	require.Len(t, scored, 3)

	assert.Equal(t, "bravo", scored[0].Document)
	assert.Equal(t, "charlie", scored[1].Document)
	assert.Equal(t, "alpha", scored[2].Document)
}

func TestRerankKeywordBonusBreaksEvenScores(t *testing.T) {
	r := NewReranker(&stubScorer{scores: []float64{0.5, 0.5}}, 10)

	docs := []string{
		"nothing relevant here",
		"our pricing plans start at ten dollars",
	}
	scored, err := r.Rerank(context.Background(), "what are your pricing plans", docs)
	require.NoError(t, err)

	assert.Equal(t, "our pricing plans start at ten dollars", scored[0].Document)
	assert.Greater(t, scored[0].Score, scored[1].Score)
}

func TestRerankStableOnTies(t *testing.T) {
	r := NewReranker(&stubScorer{scores: []float64{0.5, 0.5, 0.5}}, 10)

	docs := []string{"first", "second", "third"}
	scored, err := r.Rerank(context.Background(), "zz", docs)
	require.NoError(t, err)

	// Equal scores keep retrieval order.
	assert.Equal(t, []string{"first", "second", "third"},
		[]string{scored[0].Document, scored[1].Document, scored[2].Document})
}

func TestRerankTruncatesToTopK(t *testing.T) {
	r := NewReranker(&stubScorer{scores: []float64{0.1, 0.2, 0.3, 0.4}}, 2)

	scored, err := r.Rerank(context.Background(), "q", []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	require.Len(t, scored, 2)
	assert.Equal(t, "d", scored[0].Document)
	assert.Equal(t, "c", scored[1].Document)
}

func TestRerankFallsBackWhenScorerFails(t *testing.T) {
	r := NewReranker(&stubScorer{err: errors.New("api down")}, 10)

	docs := []string{
		"no overlap at all",
		"pricing details inside",
	}
	scored, err := r.Rerank(context.Background(), "tell me about pricing", docs)
	require.NoError(t, err)
	require.Len(t, scored, 2)

	// Keyword overlap alone decides the order.
	assert.Equal(t, "pricing details inside", scored[0].Document)
}

func TestRerankEmptyInput(t *testing.T) {
	r := NewReranker(nil, 10)

	scored, err := r.Rerank(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, scored)
}
