// Package history is the browsing history the page reports to the backend.
package history

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type Item struct {
	URL        string    `json:"url"`
	Title      string    `json:"title,omitempty"`
	VisitCount int       `json:"visitCount"`
	LastVisit  time.Time `json:"lastVisit"`
}

// Searcher finds visited URLs matching a text query.
type Searcher interface {
	Search(ctx context.Context, query string, max int) ([]Item, error)
}

const DefaultCapacity = 5000

// Memory is an in-process Searcher fed by Record. The least recently
// visited item is evicted once capacity is reached.
type Memory struct {
	// mu guards the Item values; the cache locks itself.
	mu    sync.RWMutex
	items *lru.Cache[string, *Item]
}

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	items, err := lru.New[string, *Item](capacity)
	if err != nil {
		panic(err)
	}
	return &Memory{items: items}
}

// Record counts one visit to url.
func (m *Memory) Record(url, title string, at time.Time) {
	if url == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items.Get(url)
	if !ok {
		item = &Item{URL: url}
		m.items.Add(url, item)
	}
	item.VisitCount++
	if title != "" {
		item.Title = title
	}
	if at.After(item.LastVisit) {
		item.LastVisit = at
	}
}

// Search matches query against URL and title, most visited first.
func (m *Memory) Search(ctx context.Context, query string, max int) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := strings.ToLower(query)

	m.mu.RLock()
	var out []Item
	for _, it := range m.items.Values() {
		if strings.Contains(strings.ToLower(it.URL), q) || strings.Contains(strings.ToLower(it.Title), q) {
			out = append(out, *it)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b Item) int {
		if c := cmp.Compare(b.VisitCount, a.VisitCount); c != 0 {
			return c
		}
		return cmp.Compare(a.URL, b.URL)
	})
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out, nil
}

func (m *Memory) Len() int {
	return m.items.Len()
}
