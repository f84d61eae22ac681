// Package tracker holds the inventory, removal history and activity log of
// one working session and applies the mutations the presentation layer asks
// for. After each successful mutation it persists all three collections and
// asks the active view to re-render.
package tracker

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/erazemk/stockroom/internal/model"
)

// Store loads and saves the three collections.
//
// Load may return partial results together with an error; whatever it
// returns becomes the session state. Save failures never undo a mutation.
type Store interface {
	Load(ctx context.Context) (model.Snapshot, error)
	Save(ctx context.Context, snap model.Snapshot) error
}

// Session owns the in-memory collections. It is not safe for concurrent use.
type Session struct {
	store     Store
	state     model.Snapshot
	page      View
	refresher Refresher
	stores    []string
	now       func() time.Time
	logger    *slog.Logger

	dirty   bool
	saveErr error
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithRefresher sets the hook that re-renders the active page.
func WithRefresher(r Refresher) Option {
	return func(s *Session) { s.refresher = r }
}

// WithPage sets the initially active page.
func WithPage(v View) Option {
	return func(s *Session) { s.page = v }
}

// WithStores restricts removal destinations to the given store names.
// An empty list accepts any non-empty name.
func WithStores(stores []string) Option {
	return func(s *Session) { s.stores = slices.Clone(stores) }
}

// WithState seeds the session with existing collections instead of loading.
func WithState(snap model.Snapshot) Option {
	return func(s *Session) { s.state = snap.Clone() }
}

// NewSession creates a session backed by store. Call Load to fetch state.
func NewSession(store Store, opts ...Option) *Session {
	s := &Session{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the session state with what the store returns and renders
// the active page. A load error is logged and returned, but the partial
// state is kept so the presentation layer can carry on.
func (s *Session) Load(ctx context.Context) error {
	snap, err := s.store.Load(ctx)
	s.state = snap.Clone()
	if err != nil {
		s.logger.Warn("could not load all collections", "error", err)
	}
	s.refresh(s.page)
	return err
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() model.Snapshot {
	return s.state.Clone()
}

// Page returns the active page.
func (s *Session) Page() View {
	return s.page
}

// SetPage changes the active page.
func (s *Session) SetPage(v View) {
	s.page = v
}

// Dirty reports whether the last save failed and state has not been
// persisted since.
func (s *Session) Dirty() bool {
	return s.dirty
}

// SaveError returns the error of the last failed save, or nil.
func (s *Session) SaveError() error {
	return s.saveErr
}

// Flush retries persisting the state if the last save failed.
func (s *Session) Flush(ctx context.Context) error {
	if !s.dirty {
		return nil
	}
	s.persist(ctx)
	return s.saveErr
}

// persist saves all three collections. Failures are logged and remembered;
// the in-memory state stays authoritative.
func (s *Session) persist(ctx context.Context) {
	if err := s.store.Save(ctx, s.state.Clone()); err != nil {
		s.dirty = true
		s.saveErr = err
		s.logger.Error("failed to save collections", "error", err)
		return
	}
	s.dirty = false
	s.saveErr = nil
}

// refresh re-renders the active page if it is one of touched.
func (s *Session) refresh(touched ...View) {
	if s.refresher == nil || s.page == ViewNone {
		return
	}
	if !slices.Contains(touched, s.page) {
		return
	}
	s.refresher.Refresh(s.page, s.state.Clone())
}

// itemIndex returns the index of the item with the given UPC.
func (s *Session) itemIndex(upc string) (int, error) {
	i := model.FindItem(s.state.Inventory, upc)
	if i < 0 {
		return -1, &notFoundError{upc: upc}
	}
	return i, nil
}
