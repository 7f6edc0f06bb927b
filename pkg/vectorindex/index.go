package vectorindex

import "context"

// Result is one retrieved passage. Distance is the cosine distance
// reported by the backend (0 identical, 2 opposite).
type Result struct {
	Document string
	Distance float64
}

// Index is a read path over a tenant's vector collection.
type Index interface {
	// QueryByVector returns the k nearest documents to the given embedding.
	QueryByVector(ctx context.Context, embedding []float32, k int) ([]Result, error)

	// QueryByText embeds the query text on the backend (or via a configured
	// embedding provider) and returns the k nearest documents.
	QueryByText(ctx context.Context, text string, k int) ([]Result, error)

	// Count reports the number of documents in the collection.
	Count(ctx context.Context) (int, error)

	Close() error
}
