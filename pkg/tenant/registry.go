package tenant

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"ai-salesbot-be/pkg/rag"
)

// EngineFactory builds a fully wired engine for one tenant's storage
// location and lead database.
type EngineFactory func(ctx context.Context, storagePath, databaseURI string) (*rag.Engine, error)

// Registry caches one engine per tenant. Engine construction is expensive
// (backend connections, index warm-up), so lookups use a double-checked
// lock: the read path takes only the read lock, and construction re-checks
// under the write lock before building.
type Registry struct {
	factory EngineFactory
	logger  *log.Logger

	mu      sync.RWMutex
	engines map[string]*rag.Engine
}

func NewRegistry(factory EngineFactory, logger *log.Logger) *Registry {
	return &Registry{
		factory: factory,
		logger:  logger,
		engines: make(map[string]*rag.Engine),
	}
}

// Get returns the engine for the given tenant coordinates, constructing it
// on first use. Concurrent callers for the same tenant receive the same
// instance.
func (r *Registry) Get(ctx context.Context, storagePath, databaseURI string) (*rag.Engine, error) {
	key, err := r.cacheKey(storagePath, databaseURI)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	engine, ok := r.engines[key]
	r.mu.RUnlock()
	if ok {
		return engine, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if engine, ok := r.engines[key]; ok {
		return engine, nil
	}

	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to prepare storage path %q: %w", storagePath, err)
	}

	engine, err = r.factory(ctx, storagePath, databaseURI)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tenant engine: %w", err)
	}

	r.engines[key] = engine
	r.logger.Printf("[INFO] Initialized tenant engine for %s", key)
	return engine, nil
}

// cacheKey resolves the storage path to its absolute form so two spellings
// of the same directory share one engine.
func (r *Registry) cacheKey(storagePath, databaseURI string) (string, error) {
	abs, err := filepath.Abs(storagePath)
	if err != nil {
		return "", fmt.Errorf("invalid storage path %q: %w", storagePath, err)
	}
	return abs + "::" + databaseURI, nil
}

// Len reports how many tenant engines are currently cached.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}

// CloseAll shuts down every cached engine and empties the registry.
func (r *Registry) CloseAll(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, engine := range r.engines {
		if err := engine.Close(ctx); err != nil {
			r.logger.Printf("[WARN] Failed to close engine %s: %v", key, err)
		}
	}
	r.engines = make(map[string]*rag.Engine)
}
