package lookup

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/clientflow/clientflow/internal/clients"
	"github.com/clientflow/clientflow/internal/log"
)

// DefaultQuietPeriod is how long the postal code must stay unchanged before
// a lookup is issued.
const DefaultQuietPeriod = 800 * time.Millisecond

// Toast texts for lookups that did not fill the form.
const (
	MsgNotFound = "ZIP code not found"
	MsgFailed   = "Error fetching address"
)

// SettledMsg fires when the quiet period after a change has elapsed.
type SettledMsg struct {
	Owner   string
	Version int
	Code    string
}

// ResultMsg carries the answer of an issued lookup.
type ResultMsg struct {
	Owner   string
	Version int
	Code    string
	Address Address
	Err     error
}

// Outcome classifies a completed lookup.
type Outcome int

const (
	OutcomeFound Outcome = iota
	OutcomeNotFound
	OutcomeFailed
)

// Outcome of the result.
func (m ResultMsg) Outcome() Outcome {
	switch {
	case m.Err == nil:
		return OutcomeFound
	case errors.Is(m.Err, clients.ErrNotFound):
		return OutcomeNotFound
	default:
		return OutcomeFailed
	}
}

// Apply writes the outcome into a draft: found fills address, city and state,
// not found clears them, and a failure leaves the draft as is.
func (m ResultMsg) Apply(in clients.Input) clients.Input {
	switch m.Outcome() {
	case OutcomeFound:
		in.Address = m.Address.Street
		in.City = m.Address.City
		in.State = m.Address.State
	case OutcomeNotFound:
		in.Address, in.City, in.State = "", "", ""
	}
	return in
}

// Message is the toast text for the outcome, empty when found.
func (m ResultMsg) Message() string {
	switch m.Outcome() {
	case OutcomeNotFound:
		return MsgNotFound
	case OutcomeFailed:
		return MsgFailed
	}
	return ""
}

// Bridge debounces postal code edits of a single form instance. It is not
// safe for concurrent use; it lives inside a Bubble Tea model and is only
// touched from Update.
type Bridge struct {
	owner    string
	resolver Resolver
	quiet    time.Duration
	timeout  time.Duration
	original string

	version int
	cancel  context.CancelFunc
	loading bool
	closed  bool
}

type BridgeOption func(*Bridge)

// WithQuietPeriod overrides DefaultQuietPeriod.
func WithQuietPeriod(d time.Duration) BridgeOption {
	return func(b *Bridge) {
		if d > 0 {
			b.quiet = d
		}
	}
}

// WithTimeout bounds each issued lookup.
func WithTimeout(d time.Duration) BridgeOption {
	return func(b *Bridge) { b.timeout = d }
}

// NewBridge creates a bridge for one form. original is the postal code of the
// record being edited ("" for a new record); typing it back issues no lookup.
func NewBridge(resolver Resolver, original string, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		owner:    uuid.NewString(),
		resolver: resolver,
		quiet:    DefaultQuietPeriod,
		original: original,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Owner identifies the form instance in every message the bridge emits.
func (b *Bridge) Owner() string { return b.owner }

// Loading reports whether a lookup is in flight.
func (b *Bridge) Loading() bool { return b.loading }

// Change supersedes whatever is pending and schedules a new lookup when code
// qualifies.
func (b *Bridge) Change(code string) tea.Cmd {
	b.supersede()
	if b.closed || b.resolver == nil {
		return nil
	}
	if utf8.RuneCountInString(code) != CodeLength || code == b.original {
		return nil
	}

	owner, version := b.owner, b.version
	return tea.Tick(b.quiet, func(time.Time) tea.Msg {
		return SettledMsg{Owner: owner, Version: version, Code: code}
	})
}

// Settle issues the lookup if msg belongs to the latest change.
func (b *Bridge) Settle(msg SettledMsg) tea.Cmd {
	if !b.current(msg.Owner, msg.Version) {
		return nil
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if b.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), b.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	b.cancel = cancel
	b.loading = true

	resolver := b.resolver
	owner, version, code := b.owner, b.version, msg.Code
	log.Debug(log.CatLookup, "Issuing lookup", "code", code, "owner", owner)
	return func() tea.Msg {
		addr, err := resolver.Resolve(ctx, code)
		return ResultMsg{Owner: owner, Version: version, Code: code, Address: addr, Err: err}
	}
}

// Complete accepts msg if it answers the latest issued lookup. A false return
// means the result is stale and must not touch the form.
func (b *Bridge) Complete(msg ResultMsg) bool {
	if !b.current(msg.Owner, msg.Version) || !b.loading {
		log.Debug(log.CatLookup, "Discarding stale lookup result", "code", msg.Code)
		return false
	}
	b.loading = false
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	return true
}

// Close cancels any pending or in-flight lookup. Nothing the bridge emitted
// before Close is accepted afterwards.
func (b *Bridge) Close() {
	b.supersede()
	b.closed = true
}

func (b *Bridge) supersede() {
	b.version++
	b.loading = false
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}

func (b *Bridge) current(owner string, version int) bool {
	return !b.closed && owner == b.owner && version == b.version
}
