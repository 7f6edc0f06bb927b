package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ai-salesbot-be/pkg/embedding"
	"ai-salesbot-be/pkg/vectorindex"
)

// ContentChunk is one embedded passage of tenant content.
type ContentChunk struct {
	Id        int64           `gorm:"primaryKey;autoIncrement"`
	TenantKey string          `gorm:"type:varchar(255);not null;index"`
	Document  string          `gorm:"type:text"`
	Metadata  datatypes.JSON  `gorm:"type:jsonb"`
	Embedding pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004 uses 768 dimensions
	CreatedAt time.Time       `gorm:"autoCreateTime"`
}

func (ContentChunk) TableName() string {
	return "content_chunks"
}

// Store serves vector queries for one tenant out of a shared Postgres
// table, scoped by tenant key. Text queries are embedded through the
// configured provider before hitting the database.
type Store struct {
	db        *gorm.DB
	tenantKey string
	embedder  embedding.EmbeddingProvider
}

func Open(dsn, tenantKey string, embedder embedding.EmbeddingProvider) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.AutoMigrate(&ContentChunk{}); err != nil {
		return nil, fmt.Errorf("failed to migrate content_chunks: %w", err)
	}
	return &Store{db: db, tenantKey: tenantKey, embedder: embedder}, nil
}

func New(db *gorm.DB, tenantKey string, embedder embedding.EmbeddingProvider) *Store {
	return &Store{db: db, tenantKey: tenantKey, embedder: embedder}
}

func (s *Store) QueryByVector(ctx context.Context, emb []float32, k int) ([]vectorindex.Result, error) {
	queryVector := pgvector.NewVector(emb)

	var rows []struct {
		Document string
		Distance float64
	}

	// Cosine distance via pgvector: embedding <=> query_vector.
	err := s.db.WithContext(ctx).
		Model(&ContentChunk{}).
		Select("document, embedding <=> ? as distance", queryVector).
		Where("tenant_key = ?", s.tenantKey).
		Order("distance ASC").
		Limit(k).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	results := make([]vectorindex.Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, vectorindex.Result{
			Document: row.Document,
			Distance: row.Distance,
		})
	}
	return results, nil
}

func (s *Store) QueryByText(ctx context.Context, text string, k int) ([]vectorindex.Result, error) {
	resp, err := s.embedder.Generate(text, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return s.QueryByVector(ctx, resp.Embedding.Values, k)
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&ContentChunk{}).
		Where("tenant_key = ?", s.tenantKey).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return int(count), nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
