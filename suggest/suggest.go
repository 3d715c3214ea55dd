// Package suggest fetches search-as-you-type suggestions from a remote
// endpoint.
package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"webterm/metrics"
)

const (
	DefaultEndpoint = "https://suggestqueries.google.com/complete/search?client=firefox&q="
	DefaultTimeout  = 2 * time.Second
	MaxSuggestions  = 5

	maxBody = 64 << 10
)

var ErrBadResponse = errors.New("malformed suggestion response")

type Client struct {
	endpoint string
	http     *http.Client
	log      *zap.SugaredLogger
}

// NewClient queries endpoint, which must end where the escaped query goes.
func NewClient(endpoint string, timeout time.Duration, log *zap.SugaredLogger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}
}

// Fetch returns at most MaxSuggestions remote suggestions for query.
func (c *Client) Fetch(ctx context.Context, query string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+url.QueryEscape(query), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("suggestion endpoint returned %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	return parse(body)
}

// parse decodes the ["query", ["s1", "s2", ...], ...] response shape.
func parse(body []byte) ([]string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || len(raw) < 2 {
		return nil, ErrBadResponse
	}
	var list []string
	if err := json.Unmarshal(raw[1], &list); err != nil {
		return nil, ErrBadResponse
	}
	if len(list) > MaxSuggestions {
		list = list[:MaxSuggestions]
	}
	return list, nil
}

// Suggest returns remote suggestions, or the static Fallback list when the
// endpoint fails for any reason.
func (c *Client) Suggest(ctx context.Context, query string) []string {
	list, err := c.Fetch(ctx, query)
	if err != nil {
		c.log.Debugf("suggestions for %q unavailable, using fallback: %v", query, err)
		metrics.RecordSuggestFallback()
		return Fallback(query)
	}
	return list
}

var keywordSuggestions = map[string][]string{
	"weather": {"weather today", "weather tomorrow", "weather this weekend"},
	"news":    {"news today", "tech news", "world news"},
	"how":     {"how to", "how does", "how many"},
	"what":    {"what is", "what time is it", "what does"},
	"golang":  {"golang tutorial", "golang generics", "golang context"},
	"python":  {"python tutorial", "python list comprehension", "python virtualenv"},
	"recipe":  {"recipe ideas", "easy dinner recipe", "vegetarian recipe"},
}

// Fallback builds a small keyword-based suggestion list without any
// network access.
func Fallback(query string) []string {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}
	lower := strings.ToLower(q)

	var out []string
	seen := map[string]bool{lower: true}
	add := func(s string) {
		if len(out) < MaxSuggestions && !seen[strings.ToLower(s)] {
			seen[strings.ToLower(s)] = true
			out = append(out, s)
		}
	}

	for _, word := range strings.Fields(lower) {
		for _, s := range keywordSuggestions[word] {
			add(s)
		}
	}
	for _, pattern := range []string{"%s tutorial", "%s documentation", "%s examples", "how to %s", "what is %s"} {
		add(fmt.Sprintf(pattern, q))
	}
	return out
}
