// Package app assembles the application core behind a single facade. The UI
// shell embeds an App and drives its screens; nothing here renders anything.
package app

import (
	"context"

	"github.com/joaquin771/rentalia/internal/auth"
	"github.com/joaquin771/rentalia/internal/catalog"
	"github.com/joaquin771/rentalia/internal/config"
	"github.com/joaquin771/rentalia/internal/dashboard"
	"github.com/joaquin771/rentalia/internal/media"
	"github.com/joaquin771/rentalia/internal/prefs"
	"github.com/joaquin771/rentalia/internal/profile"
	"github.com/joaquin771/rentalia/internal/session"
	"github.com/joaquin771/rentalia/internal/store"
)

// App bundles every screen service over the shared boundaries.
type App struct {
	Ctx         *session.AppContext
	Auth        auth.Provider
	Catalog     *catalog.Subscriber
	Coordinator *catalog.Coordinator
	Dashboard   *dashboard.Service
	Profile     *profile.Service
}

// New wires the screen services. confirm is the UI's confirmation dialog,
// consulted before destructive actions.
func New(cfg *config.Config, provider auth.Provider, docs store.DocumentStore,
	uploader media.Uploader, prefStore prefs.Store, confirm catalog.ConfirmFunc) *App {

	userID := func() string {
		if u := provider.Current(); u != nil {
			return u.UID
		}
		return ""
	}

	return &App{
		Ctx:         session.NewAppContext(prefStore, provider),
		Auth:        provider,
		Catalog:     catalog.NewSubscriber(docs),
		Coordinator: catalog.NewCoordinator(docs, uploader, cfg.MediaUploadPreset, confirm, userID),
		Dashboard:   dashboard.NewService(docs),
		Profile:     profile.NewService(provider, prefStore, uploader, cfg.MediaUploadPreset),
	}
}

// Start opens the catalog subscription. Non-fatal on failure: the caller
// surfaces the error once and the list stays empty.
func (a *App) Start(ctx context.Context) error {
	return a.Catalog.Start(ctx)
}

// Close releases the subscription and the app context.
func (a *App) Close() {
	a.Catalog.Close()
	a.Ctx.Close()
}
