package main

import (
	"context"
	"fmt"
	"os"

	"webterm/command"
	"webterm/commands"
	"webterm/complete"
	"webterm/config"
	"webterm/events"
	"webterm/history"
	"webterm/logging"
	"webterm/prefs"
	"webterm/storage"
	"webterm/suggest"
	"webterm/theme"
	"webterm/vfs"
	"webterm/websocket/service/terminal"
)

// app is the composition root: one of each process-wide collaborator.
type app struct {
	store    storage.Store
	fs       *vfs.FileSystem
	themes   *theme.Store
	prefs    *prefs.Store
	registry *command.Registry
	history  *history.Memory
	engine   *complete.Engine
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := storage.Open(cfg.StorageConfig(), logging.Named("storage"))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a := &app{store: store}

	a.fs = vfs.New(store, vfs.Options{Quota: cfg.FS.Quota, Logger: logging.Named("vfs")})
	if err := a.fs.Initialize(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("initialize file system: %w", err)
	}
	if a.themes, err = theme.NewStore(ctx, store, logging.Named("theme")); err != nil {
		a.Close()
		return nil, fmt.Errorf("load themes: %w", err)
	}
	if a.prefs, err = prefs.NewStore(ctx, store, logging.Named("prefs")); err != nil {
		a.Close()
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	a.registry = command.NewRegistry(logging.Named("command"))
	if err := commands.Register(a.registry); err != nil {
		a.Close()
		return nil, err
	}

	a.history = history.NewMemory(history.DefaultCapacity)
	a.engine = complete.NewEngine(a.registry, logging.Named("complete"), complete.DefaultProviders(complete.Sources{
		Registry:        a.registry,
		FS:              a.fs,
		Themes:          a.themes,
		History:         a.history,
		Suggester:       suggest.NewClient(cfg.Suggest.Endpoint, cfg.Suggest.Timeout, logging.Named("suggest")),
		DomainTTL:       cfg.History.CacheTTL,
		DomainCacheSize: cfg.History.CacheSize,
	})...)
	return a, nil
}

func (a *app) terminalDeps(cfg *config.Config) terminal.Deps {
	return terminal.Deps{
		Registry: a.registry,
		Engine:   a.engine,
		Env: command.Env{
			FS:       a.fs,
			Themes:   a.themes,
			Prefs:    a.prefs,
			Events:   events.Discard,
			Registry: a.registry,
			User:     defaultUser(),
			Log:      logging.Named("command"),
		},
		Debounce: cfg.Complete.Debounce,
	}
}

func (a *app) Close() error {
	return a.store.Close()
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "user"
}
