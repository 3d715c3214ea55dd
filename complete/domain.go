package complete

import (
	"cmp"
	"context"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"webterm/history"
)

const (
	DefaultDomainTTL       = 5 * time.Minute
	DefaultDomainCacheSize = 50

	domainSearchMax = 200
	domainResults   = 8
)

type domainHit struct {
	host   string
	visits int
}

// DomainProvider offers hostnames from browsing history in command position,
// ranked by visits and then alphabetically. Answers are cached per query for
// a while; the least recently used entries go once the cache is full.
type DomainProvider struct {
	base
	history history.Searcher
	cache   *expirable.LRU[string, []domainHit]
}

func NewDomainProvider(h history.Searcher, ttl time.Duration, size int) *DomainProvider {
	if ttl <= 0 {
		ttl = DefaultDomainTTL
	}
	if size <= 0 {
		size = DefaultDomainCacheSize
	}
	return &DomainProvider{
		base:    base{"domain", PriorityDomain},
		history: h,
		cache:   expirable.NewLRU[string, []domainHit](size, nil, ttl),
	}
}

func (p *DomainProvider) CanComplete(c *Context) bool {
	return c.IsCommand && len(c.Current) >= 2 && !strings.ContainsAny(c.Current, " \t")
}

func (p *DomainProvider) Complete(ctx context.Context, c *Context) ([]Completion, error) {
	query := strings.ToLower(c.Current)
	hits, err := p.lookup(ctx, query)
	if err != nil {
		return nil, err
	}

	var out []Completion
	for _, h := range hits {
		if !strings.HasPrefix(h.host, query) {
			continue
		}
		out = append(out, Completion{Value: h.host, Description: visitLabel(h.visits), Kind: "domain"})
		if len(out) == domainResults {
			break
		}
	}
	return out, nil
}

func (p *DomainProvider) lookup(ctx context.Context, query string) ([]domainHit, error) {
	if hits, ok := p.cache.Get(query); ok {
		return hits, nil
	}

	items, err := p.history.Search(ctx, query, domainSearchMax)
	if err != nil {
		return nil, fmt.Errorf("search history: %w", err)
	}
	hits := rankDomains(items)
	p.cache.Add(query, hits)
	return hits, nil
}

func rankDomains(items []history.Item) []domainHit {
	visits := map[string]int{}
	for _, item := range items {
		host := hostOf(item.URL)
		if host == "" || internalHost(host) {
			continue
		}
		visits[host] += max(item.VisitCount, 1)
	}

	hits := make([]domainHit, 0, len(visits))
	for host, n := range visits {
		hits = append(hits, domainHit{host: host, visits: n})
	}
	slices.SortFunc(hits, func(a, b domainHit) int {
		if c := cmp.Compare(b.visits, a.visits); c != 0 {
			return c
		}
		return strings.Compare(a.host, b.host)
	})
	return hits
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func internalHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") ||
		strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".internal") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified()
	}
	return !strings.Contains(host, ".")
}

func visitLabel(n int) string {
	if n == 1 {
		return "1 visit"
	}
	return fmt.Sprintf("%d visits", n)
}
