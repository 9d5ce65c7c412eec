package marvel

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"heroscope/internal/domain"
)

//go:embed catalog.json
var catalogJSON []byte

// Catalog is an in-memory character store that answers page queries the way
// the remote API does: case-insensitive name prefix match, ordered by name.
type Catalog struct {
	mu      sync.RWMutex
	heroes  []domain.Hero
	latency time.Duration
}

// NewCatalog creates a catalog holding the given characters
func NewCatalog(heroes []domain.Hero, latency time.Duration) *Catalog {
	c := &Catalog{latency: latency}
	c.Replace(heroes)
	return c
}

// NewDemoCatalog loads the bundled sample characters
func NewDemoCatalog(latency time.Duration) (*Catalog, error) {
	var heroes []domain.Hero
	if err := json.Unmarshal(catalogJSON, &heroes); err != nil {
		return nil, fmt.Errorf("failed to parse demo catalog: %w", err)
	}
	return NewCatalog(heroes, latency), nil
}

// Replace swaps the catalog contents
func (c *Catalog) Replace(heroes []domain.Hero) {
	sorted := append([]domain.Hero(nil), heroes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.heroes = sorted
}

// Len returns the number of characters in the catalog
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.heroes)
}

// FetchPage returns one page of characters whose names start with search
func (c *Catalog) FetchPage(ctx context.Context, search string, offset, limit int) (domain.FetchResult, error) {
	if c.latency > 0 {
		select {
		case <-time.After(c.latency):
		case <-ctx.Done():
			return domain.FetchResult{}, ctx.Err()
		}
	}
	if offset < 0 || limit <= 0 {
		return domain.FetchResult{}, fmt.Errorf("invalid page offset=%d limit=%d", offset, limit)
	}

	prefix := strings.ToLower(search)

	c.mu.RLock()
	defer c.mu.RUnlock()

	matches := make([]domain.Hero, 0, len(c.heroes))
	for _, h := range c.heroes {
		if strings.HasPrefix(strings.ToLower(h.Name), prefix) {
			matches = append(matches, h)
		}
	}

	items := []domain.Hero{}
	if offset < len(matches) {
		end := offset + limit
		if end > len(matches) {
			end = len(matches)
		}
		items = append(items, matches[offset:end]...)
	}

	return domain.FetchResult{Items: items, Total: len(matches)}, nil
}
