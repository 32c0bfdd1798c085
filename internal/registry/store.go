// Package registry holds the in-memory snapshot of client records and keeps
// it consistent with the remote collection. The snapshot changes only after
// a remote call succeeds; a failed call leaves it untouched.
package registry

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/clientflow/clientflow/internal/clients"
	"github.com/clientflow/clientflow/internal/log"
	"github.com/clientflow/clientflow/internal/pubsub"
)

// Remote is the client collection the store mirrors.
type Remote interface {
	List(ctx context.Context) ([]clients.Client, error)
	Create(ctx context.Context, in clients.Input) (clients.Client, error)
	Update(ctx context.Context, id clients.ID, in clients.Input) (clients.Client, error)
	Delete(ctx context.Context, id clients.ID) error
}

// Change is published after every applied mutation. Client is the zero value
// for deletes and list replacements.
type Change struct {
	ID     clients.ID
	Client clients.Client
	Count  int // snapshot size after the change
}

// Store owns the snapshot. Only List, Create, Update and Delete mutate it.
type Store struct {
	remote Remote
	broker *pubsub.Broker[Change]

	mu       sync.RWMutex
	snapshot []clients.Client
	loaded   bool
}

// New creates an empty, not yet loaded store.
func New(remote Remote) *Store {
	return &Store{
		remote: remote,
		broker: pubsub.NewBroker[Change](),
	}
}

// Broker exposes snapshot changes for views that need to re-render.
func (s *Store) Broker() *pubsub.Broker[Change] {
	return s.broker
}

// Close shuts down the change broker.
func (s *Store) Close() {
	s.broker.Close()
}

// List fetches the remote collection and replaces the snapshot with it.
func (s *Store) List(ctx context.Context) ([]clients.Client, error) {
	fetched, err := s.remote.List(ctx)
	if err != nil {
		log.ErrorErr(log.CatRegistry, "List failed, keeping snapshot", err)
		return nil, fmt.Errorf("listing clients: %w", err)
	}

	s.mu.Lock()
	s.snapshot = dedupe(fetched)
	s.loaded = true
	out := slices.Clone(s.snapshot)
	s.mu.Unlock()

	log.Debug(log.CatRegistry, "Snapshot replaced", "count", len(out))
	s.broker.Publish(pubsub.ReplacedEvent, Change{Count: len(out)})
	return out, nil
}

// Create submits a draft and appends the server record.
func (s *Store) Create(ctx context.Context, in clients.Input) (clients.Client, error) {
	if err := in.Validate(); err != nil {
		return clients.Client{}, err
	}

	created, err := s.remote.Create(ctx, in)
	if err != nil {
		log.ErrorErr(log.CatRegistry, "Create failed, keeping snapshot", err)
		return clients.Client{}, fmt.Errorf("creating client: %w", err)
	}

	s.mu.Lock()
	s.snapshot = applyCreate(s.snapshot, created)
	n := len(s.snapshot)
	s.mu.Unlock()

	log.Info(log.CatRegistry, "Client created", "id", created.ID)
	s.broker.Publish(pubsub.CreatedEvent, Change{ID: created.ID, Client: created, Count: n})
	return created, nil
}

// Update submits a draft for id and replaces the matching entry with the
// server record. If the snapshot holds no entry with that id the snapshot is
// left as is and the server record is still returned.
func (s *Store) Update(ctx context.Context, id clients.ID, in clients.Input) (clients.Client, error) {
	if err := in.Validate(); err != nil {
		return clients.Client{}, err
	}

	updated, err := s.remote.Update(ctx, id, in)
	if err != nil {
		log.ErrorErr(log.CatRegistry, "Update failed, keeping snapshot", err, "id", id)
		return clients.Client{}, fmt.Errorf("updating client %s: %w", id, err)
	}
	if updated.ID == "" {
		updated.ID = id
	}

	s.mu.Lock()
	var found bool
	s.snapshot, found = applyUpdate(s.snapshot, updated)
	n := len(s.snapshot)
	s.mu.Unlock()

	if !found {
		log.Warn(log.CatRegistry, "Updated client not in snapshot", "id", id)
		return updated, nil
	}

	log.Info(log.CatRegistry, "Client updated", "id", id)
	s.broker.Publish(pubsub.UpdatedEvent, Change{ID: id, Client: updated, Count: n})
	return updated, nil
}

// Delete removes id remotely and then from the snapshot. Removing an id the
// snapshot does not hold is a no-op.
func (s *Store) Delete(ctx context.Context, id clients.ID) error {
	if err := s.remote.Delete(ctx, id); err != nil {
		log.ErrorErr(log.CatRegistry, "Delete failed, keeping snapshot", err, "id", id)
		return fmt.Errorf("deleting client %s: %w", id, err)
	}

	s.mu.Lock()
	var removed bool
	s.snapshot, removed = applyDelete(s.snapshot, id)
	n := len(s.snapshot)
	s.mu.Unlock()

	if removed {
		log.Info(log.CatRegistry, "Client deleted", "id", id)
		s.broker.Publish(pubsub.DeletedEvent, Change{ID: id, Count: n})
	}
	return nil
}

// Snapshot returns a copy of the current records in order.
func (s *Store) Snapshot() []clients.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snapshot)
}

// Find looks up a record. Identifiers compare as strings, so "7" finds a
// record the server encoded as the number 7.
func (s *Store) Find(id string) (clients.Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.snapshot, clients.ID(id)); i >= 0 {
		return s.snapshot[i], true
	}
	return clients.Client{}, false
}

// Loaded reports whether a List has ever succeeded.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Len returns the snapshot size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshot)
}

func indexOf(list []clients.Client, id clients.ID) int {
	return slices.IndexFunc(list, func(c clients.Client) bool { return c.ID == id })
}

// dedupe keeps the first position and the last value of each id.
func dedupe(in []clients.Client) []clients.Client {
	out := make([]clients.Client, 0, len(in))
	pos := make(map[clients.ID]int, len(in))
	for _, c := range in {
		if i, ok := pos[c.ID]; ok {
			out[i] = c
			continue
		}
		pos[c.ID] = len(out)
		out = append(out, c)
	}
	return out
}

func applyCreate(list []clients.Client, c clients.Client) []clients.Client {
	if i := indexOf(list, c.ID); i >= 0 {
		list[i] = c
		return list
	}
	return append(list, c)
}

func applyUpdate(list []clients.Client, c clients.Client) ([]clients.Client, bool) {
	i := indexOf(list, c.ID)
	if i < 0 {
		return list, false
	}
	list[i] = c
	return list, true
}

func applyDelete(list []clients.Client, id clients.ID) ([]clients.Client, bool) {
	i := indexOf(list, id)
	if i < 0 {
		return list, false
	}
	return slices.Delete(list, i, i+1), true
}
