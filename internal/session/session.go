// Package session holds the cross-screen app context: theme preference and the
// signed-in user, initialized once at process start, read by every screen, and
// mutated only through its setters (which also persist to the local preference
// store).
package session

import (
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/joaquin771/rentalia/internal/auth"
	"github.com/joaquin771/rentalia/internal/prefs"
)

// State is the snapshot handed to observers.
type State struct {
	TemaOscuro bool
	Usuario    *auth.Usuario
}

// AppContext holds the cross-screen state. Consumers read; only the setters
// and the auth subscription mutate.
type AppContext struct {
	prefs prefs.Store

	mu         sync.Mutex
	temaOscuro bool
	usuario    *auth.Usuario
	observers  map[int]func(State)
	nextObs    int

	unsubscribe func()
}

// NewAppContext restores the persisted theme and mirrors the provider's auth
// state. Call Close on shutdown to release the auth subscription.
func NewAppContext(store prefs.Store, provider auth.Provider) *AppContext {
	c := &AppContext{
		prefs:     store,
		observers: make(map[int]func(State)),
	}

	if v, ok, err := store.Get(prefs.KeyDarkMode); err == nil && ok {
		c.temaOscuro, _ = strconv.ParseBool(v)
	}

	c.unsubscribe = provider.SubscribeAuthState(func(u *auth.Usuario) {
		c.mu.Lock()
		c.usuario = u
		c.mu.Unlock()
		c.notify()
	})
	return c
}

func (c *AppContext) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{TemaOscuro: c.temaOscuro, Usuario: c.usuario}
}

// SetTemaOscuro flips the theme and persists the choice.
func (c *AppContext) SetTemaOscuro(oscuro bool) {
	c.mu.Lock()
	c.temaOscuro = oscuro
	c.mu.Unlock()

	if err := c.prefs.Set(prefs.KeyDarkMode, strconv.FormatBool(oscuro)); err != nil {
		log.Error().Err(err).Msg("no se pudo persistir el tema")
	}
	c.notify()
}

// Subscribe registers an observer and returns its disposer. The observer is
// invoked immediately with the current state.
func (c *AppContext) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.mu.Unlock()

	fn(c.Snapshot())

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.observers, id)
			c.mu.Unlock()
		})
	}
}

func (c *AppContext) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

func (c *AppContext) notify() {
	c.mu.Lock()
	fns := make([]func(State), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	state := c.Snapshot()
	for _, fn := range fns {
		fn(state)
	}
}
