package testutil

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clientflow/clientflow/internal/api"
	"github.com/clientflow/clientflow/internal/clients"
	"github.com/clientflow/clientflow/internal/config"
	"github.com/clientflow/clientflow/internal/infrastructure/sqlite"
	"github.com/clientflow/clientflow/internal/lookup"
	"github.com/clientflow/clientflow/internal/mockapi"
	"github.com/clientflow/clientflow/internal/mode"
	"github.com/clientflow/clientflow/internal/registry"
	"github.com/clientflow/clientflow/internal/session"
)

// Debounce is the quiet period used by environments built here. It keeps
// form tests fast while still exercising the timer.
const Debounce = 20 * time.Millisecond

// Builder accumulates seed data for the mock API.
type Builder struct {
	t       *testing.T
	seed    mockapi.Seed
	latency time.Duration
}

// NewBuilder creates a builder with an empty collection.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t, seed: mockapi.Seed{PostalCodes: map[string]mockapi.Address{}}}
}

// WithClient adds a stored client with optional configuration.
func (b *Builder) WithClient(id string, opts ...ClientOption) *Builder {
	c := defaultClient(id)
	for _, opt := range opts {
		opt(&c)
	}
	b.seed.Clients = append(b.seed.Clients, c)
	return b
}

// WithPostalCode makes the lookup endpoint answer for code.
func (b *Builder) WithPostalCode(code, street, city, state string) *Builder {
	b.seed.PostalCodes[code] = mockapi.Address{Street: street, City: city, State: state}
	return b
}

// WithLatency delays every mock API response.
func (b *Builder) WithLatency(d time.Duration) *Builder {
	b.latency = d
	return b
}

// Env is a running set of services.
type Env struct {
	Server   *mockapi.Server
	HTTP     *httptest.Server // close it to simulate an unreachable API
	URL      string
	API      *api.Client
	Store    *registry.Store
	Resolver lookup.Resolver
	DB       *sqlite.DB
	Sessions *session.Manager
	Config   *config.Config
}

// Build starts the mock API and wires everything to it. All resources are
// released when the test ends.
func (b *Builder) Build() *Env {
	b.t.Helper()

	server := mockapi.New(b.seed, mockapi.WithLatency(b.latency))
	srv := httptest.NewServer(server.Handler())
	b.t.Cleanup(srv.Close)

	cfg := config.Defaults()
	cfg.API.BaseURL = srv.URL
	cfg.API.Timeout = 5 * time.Second
	cfg.Lookup.BaseURL = srv.URL + "/cep"
	cfg.Lookup.Debounce = Debounce
	cfg.Lookup.Cache.Backend = config.CacheNone

	client := api.New(cfg.API.BaseURL)
	store := registry.New(client)
	b.t.Cleanup(store.Close)

	db := NewTestDB(b.t)
	cfg.Session.Path = db.Path()
	cfg.Session.Watch = false

	return &Env{
		Server:   server,
		HTTP:     srv,
		URL:      srv.URL,
		API:      client,
		Store:    store,
		Resolver: lookup.NewHTTPResolver(cfg.Lookup.BaseURL, cfg.Lookup.Timeout),
		DB:       db,
		Sessions: session.NewManager(db.LocalStorage(), ""),
		Config:   &cfg,
	}
}

// Services returns the env as the screens see it.
func (e *Env) Services() mode.Services {
	return mode.Services{
		Store:    e.Store,
		Resolver: e.Resolver,
		Sessions: e.Sessions,
		Config:   e.Config,
	}
}

// Client returns the seeded record with id, or false.
func (e *Env) Client(id string) (clients.Client, bool) {
	for _, c := range e.Server.Clients() {
		if c.ID.String() == id {
			return c, true
		}
	}
	return clients.Client{}, false
}
