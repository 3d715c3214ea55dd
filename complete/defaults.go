package complete

import (
	"time"

	"webterm/command"
	"webterm/history"
	"webterm/theme"
	"webterm/vfs"
)

// Sources are the collaborators the built-in providers read from. Nil
// sources leave their provider out.
type Sources struct {
	Registry  *command.Registry
	FS        *vfs.FileSystem
	Themes    *theme.Store
	History   history.Searcher
	Suggester Suggester

	DomainTTL       time.Duration
	DomainCacheSize int
}

// DefaultProviders returns the built-in providers for src.
func DefaultProviders(src Sources) []Provider {
	providers := []Provider{
		NewChoiceProvider(),
		NewSearchEngineProvider(),
		NewConfigProvider(),
		NewBooleanProvider(),
		NewURLProvider(),
	}
	if src.Registry != nil {
		providers = append(providers, NewCommandProvider(src.Registry))
	}
	if src.FS != nil {
		providers = append(providers, NewFileProvider(src.FS))
	}
	if src.Themes != nil {
		providers = append(providers, NewThemeProvider(src.Themes))
	}
	if src.History != nil {
		providers = append(providers, NewDomainProvider(src.History, src.DomainTTL, src.DomainCacheSize))
	}
	if src.Suggester != nil {
		providers = append(providers, NewSuggestionProvider(src.Suggester))
	}
	return providers
}
