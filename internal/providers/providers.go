// Package providers runs a state's external data providers. Providers are
// independent and run concurrently; a failure is recorded on the result,
// never raised, so a transition can still commit while the failed entry
// stays visible for downstream gates to check.
package providers

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"caseflow/internal/domain"
	"caseflow/internal/template"
)

type cacheKey struct {
	ApplicationID string
	ProviderKey   string
	EnteredAt     string
}

// Gate orchestrates provider fetches for one process. Cacheable provider
// results are kept per (application, provider, state entry); re-entering
// a state changes the entry timestamp and thereby invalidates the cache.
type Gate struct {
	Now func() time.Time

	mu    sync.RWMutex
	cache map[cacheKey]domain.ExternalDataEntry
}

func NewGate() *Gate {
	return &Gate{
		Now:   time.Now,
		cache: map[cacheKey]domain.ExternalDataEntry{},
	}
}

func (g *Gate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// Run fetches every provider in specs for the application and returns one
// entry per provider key. All fetches are awaited before returning; the
// caller merges results into the application and commits.
func (g *Gate) Run(ctx context.Context, app domain.Application, specs []template.Provider, enteredAt string) map[string]domain.ExternalDataEntry {
	results := make(map[string]domain.ExternalDataEntry, len(specs))
	if len(specs) == 0 {
		return results
	}
	var mu sync.Mutex
	grp, ctx := errgroup.WithContext(ctx)
	for _, spec := range specs {
		grp.Go(func() error {
			entry := g.fetchOne(ctx, app, spec, enteredAt)
			mu.Lock()
			results[spec.Key] = entry
			mu.Unlock()
			return nil
		})
	}
	_ = grp.Wait()
	return results
}

func (g *Gate) fetchOne(ctx context.Context, app domain.Application, spec template.Provider, enteredAt string) domain.ExternalDataEntry {
	key := cacheKey{ApplicationID: app.ID, ProviderKey: spec.Key, EnteredAt: enteredAt}
	if spec.Cacheable {
		g.mu.RLock()
		cached, ok := g.cache[key]
		g.mu.RUnlock()
		if ok {
			return cached
		}
	}
	entry := domain.ExternalDataEntry{
		Date: g.now().UTC().Format(time.RFC3339),
	}
	data, err := spec.Fetch(ctx, app)
	if err != nil {
		entry.Status = domain.ExternalDataFailure
		entry.Reason = err.Error()
		return entry
	}
	entry.Status = domain.ExternalDataSuccess
	entry.Data = data
	if spec.Cacheable {
		g.mu.Lock()
		g.cache[key] = entry
		g.mu.Unlock()
	}
	return entry
}

// Satisfied reports whether every required provider key has a successful
// entry on the application.
func Satisfied(app domain.Application, required []string) (missing []string) {
	for _, key := range required {
		entry, ok := app.ExternalData[key]
		if !ok || entry.Status != domain.ExternalDataSuccess {
			missing = append(missing, key)
		}
	}
	return missing
}
