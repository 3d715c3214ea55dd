// Package search builds result URLs for the web search engines the
// terminal knows about.
package search

import (
	"fmt"
	"net/url"
	"strings"
)

const DefaultEngine = "google"

type Engine struct {
	Name        string
	DisplayName string
	// Template holds a single %s for the escaped query.
	Template string
}

func (e Engine) URL(query string) string {
	return fmt.Sprintf(e.Template, url.QueryEscape(strings.TrimSpace(query)))
}

var engines = []Engine{
	{Name: "google", DisplayName: "Google", Template: "https://www.google.com/search?q=%s"},
	{Name: "bing", DisplayName: "Bing", Template: "https://www.bing.com/search?q=%s"},
	{Name: "duckduckgo", DisplayName: "DuckDuckGo", Template: "https://duckduckgo.com/?q=%s"},
	{Name: "youtube", DisplayName: "YouTube", Template: "https://www.youtube.com/results?search_query=%s"},
	{Name: "github", DisplayName: "GitHub", Template: "https://github.com/search?q=%s"},
	{Name: "stackoverflow", DisplayName: "Stack Overflow", Template: "https://stackoverflow.com/search?q=%s"},
	{Name: "wikipedia", DisplayName: "Wikipedia", Template: "https://en.wikipedia.org/w/index.php?search=%s"},
}

// Engines returns every engine in display order.
func Engines() []Engine {
	return append([]Engine(nil), engines...)
}

func Names() []string {
	names := make([]string, len(engines))
	for i, e := range engines {
		names[i] = e.Name
	}
	return names
}

// Lookup finds an engine by name, case-insensitively.
func Lookup(name string) (Engine, bool) {
	for _, e := range engines {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Engine{}, false
}
