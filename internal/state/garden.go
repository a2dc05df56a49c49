package state

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Garden is the ordered, duplicate-free collection of flowers shown for one
// session. It merges three sources: the initial load, the session's own
// optimistic inserts and inserts pushed by the live channel.
//
// All entry points take the same lock, so the Garden may be driven from the
// UI thread, the persist goroutines and the push consumer at once.
type Garden struct {
	mu      sync.Mutex
	session *Session
	log     zerolog.Logger

	loaded  bool
	flowers []Flower
	durable map[string]struct{}
	// pending maps a submission fingerprint to the placeholder IDs still
	// waiting for their durable record, oldest first.
	pending map[string][]string
	// queued holds pushed inserts that arrived before LoadAll.
	queued []Flower

	onChange func()
	now      func() time.Time
}

// NewGarden creates an empty, not yet loaded garden bound to session.
func NewGarden(session *Session, log zerolog.Logger) *Garden {
	return &Garden{
		session: session,
		log:     log.With().Str("component", "garden").Logger(),
		durable: make(map[string]struct{}),
		pending: make(map[string][]string),
		now:     time.Now,
	}
}

// OnChange registers fn to be called after every mutation that changes the
// visible collection. fn runs outside the garden lock.
func (g *Garden) OnChange(fn func()) {
	g.mu.Lock()
	g.onChange = fn
	g.mu.Unlock()
}

// LoadAll replaces the collection with flowers, keeping their order. Pushed
// inserts received before the load are replayed afterwards. Optimistic
// entries the load already contains are dropped; confirmed entries the load
// is missing (it was read before their insert committed) are kept.
func (g *Garden) LoadAll(flowers []Flower) {
	g.mu.Lock()

	previous := g.flowers
	g.flowers = make([]Flower, 0, len(flowers))
	g.durable = make(map[string]struct{}, len(flowers))
	g.pending = make(map[string][]string)

	loadedPrints := make(map[string]int)
	for _, f := range flowers {
		f.Durable = true
		if err := f.Validate(); err != nil {
			g.log.Warn().Err(err).Str("flower_id", f.ID).Msg("dropping invalid flower from load")
			continue
		}
		if _, dup := g.durable[f.ID]; dup {
			continue
		}
		g.durable[f.ID] = struct{}{}
		g.flowers = append(g.flowers, f)
		loadedPrints[f.Fingerprint()]++
	}

	for _, f := range previous {
		if f.Durable {
			if _, ok := g.durable[f.ID]; !ok {
				g.durable[f.ID] = struct{}{}
				g.flowers = append(g.flowers, f)
			}
			continue
		}
		fp := f.Fingerprint()
		if loadedPrints[fp] > 0 {
			loadedPrints[fp]--
			continue
		}
		g.flowers = append(g.flowers, f)
		g.pending[fp] = append(g.pending[fp], f.ID)
	}

	g.loaded = true
	queued := g.queued
	g.queued = nil
	for _, f := range queued {
		g.applyRemoteLocked(f)
	}

	g.log.Debug().Int("flowers", len(g.flowers)).Int("replayed", len(queued)).Msg("garden loaded")
	g.unlockAndNotify()
}

// ApplyOptimistic appends a flower planted by this session before the store
// confirms it. Missing identifier and author fields are filled in from the
// session identity.
func (g *Garden) ApplyOptimistic(f Flower) (Flower, error) {
	identity, ok := g.session.Identity()
	if !ok {
		return Flower{}, ErrNotIdentified
	}
	if f.ID == "" {
		f.ID = NewPlaceholderID(g.now())
	}
	if f.AuthorID == "" {
		f.AuthorID = identity.ID
	}
	if f.Author == "" {
		f.Author = identity.Name
	}
	f.Durable = false
	if err := f.Validate(); err != nil {
		return Flower{}, err
	}

	g.mu.Lock()
	if slices.ContainsFunc(g.flowers, func(existing Flower) bool {
		return !existing.Durable && existing.ID == f.ID
	}) {
		g.mu.Unlock()
		return Flower{}, fmt.Errorf("%w: placeholder %s already planted", ErrInvalidFlower, f.ID)
	}
	g.flowers = append(g.flowers, f)
	fp := f.Fingerprint()
	g.pending[fp] = append(g.pending[fp], f.ID)
	g.log.Debug().Str("placeholder", f.ID).Msg("optimistic flower planted")
	g.unlockAndNotify()
	return f, nil
}

// ApplyRemote merges a durably created flower reported by the live channel.
// Deliveries are at-least-once, so a durable ID already present is ignored.
// An echo of this session's own insert replaces the matching optimistic
// entry in place instead of adding a second one.
func (g *Garden) ApplyRemote(f Flower) error {
	f.Durable = true
	if err := f.Validate(); err != nil {
		err = fmt.Errorf("%w: %w", ErrMalformedRecord, err)
		g.log.Warn().Err(err).Str("flower_id", f.ID).Msg("dropping pushed flower")
		return err
	}

	g.mu.Lock()
	if !g.loaded {
		g.queued = append(g.queued, f)
		g.log.Debug().Str("flower_id", f.ID).Msg("queued push received before load")
		g.mu.Unlock()
		return nil
	}
	if !g.applyRemoteLocked(f) {
		g.mu.Unlock()
		return nil
	}
	g.unlockAndNotify()
	return nil
}

func (g *Garden) applyRemoteLocked(f Flower) bool {
	if _, ok := g.durable[f.ID]; ok {
		g.log.Debug().Str("flower_id", f.ID).Msg("duplicate push ignored")
		return false
	}
	g.durable[f.ID] = struct{}{}

	fp := f.Fingerprint()
	if ids := g.pending[fp]; len(ids) > 0 {
		if idx := g.placeholderIndex(ids[0]); idx >= 0 {
			g.dropPending(fp, ids[0])
			g.log.Debug().Str("placeholder", ids[0]).Str("flower_id", f.ID).Msg("echo reconciled with optimistic flower")
			g.flowers[idx] = f
			return true
		}
		g.dropPending(fp, ids[0])
	}

	g.flowers = append(g.flowers, f)
	return true
}

// Confirm records that the store persisted the optimistic flower placeholderID
// as durable. The entry keeps its place in the collection. If the push echo
// already reconciled the submission, Confirm does nothing.
func (g *Garden) Confirm(placeholderID string, durable Flower) error {
	durable.Durable = true
	if err := durable.Validate(); err != nil {
		return err
	}

	g.mu.Lock()
	if _, ok := g.durable[durable.ID]; ok {
		g.mu.Unlock()
		return nil
	}

	fp := durable.Fingerprint()
	idx := g.placeholderIndex(placeholderID)
	if idx >= 0 {
		g.dropPending(g.flowers[idx].Fingerprint(), placeholderID)
	} else if ids := g.pending[fp]; len(ids) > 0 {
		// An earlier echo took this placeholder's slot; take the one left.
		idx = g.placeholderIndex(ids[0])
		g.dropPending(fp, ids[0])
	}

	g.durable[durable.ID] = struct{}{}
	if idx >= 0 {
		g.flowers[idx] = durable
	} else {
		g.flowers = append(g.flowers, durable)
	}
	g.log.Debug().Str("placeholder", placeholderID).Str("flower_id", durable.ID).Msg("flower confirmed")
	g.unlockAndNotify()
	return nil
}

// Reset empties the garden and forgets queued pushes. Only used when the
// session identity changes.
func (g *Garden) Reset() {
	g.mu.Lock()
	g.loaded = false
	g.flowers = nil
	g.queued = nil
	g.durable = make(map[string]struct{})
	g.pending = make(map[string][]string)
	g.unlockAndNotify()
}

// Run feeds pushed inserts from events into ApplyRemote until ctx is done or
// the channel is closed. Malformed events are logged and skipped.
func (g *Garden) Run(ctx context.Context, events <-chan Flower) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-events:
			if !ok {
				return nil
			}
			if err := g.ApplyRemote(f); err != nil && !errors.Is(err, ErrMalformedRecord) {
				g.log.Error().Err(err).Msg("apply pushed flower")
			}
		}
	}
}

// Flowers returns a copy of the collection in display order.
func (g *Garden) Flowers() []Flower {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.flowers)
}

// Len returns the number of visible flowers.
func (g *Garden) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.flowers)
}

// Loaded reports whether LoadAll has run since creation or the last Reset.
func (g *Garden) Loaded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loaded
}

// Pending returns the number of optimistic flowers not yet durable.
func (g *Garden) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, ids := range g.pending {
		n += len(ids)
	}
	return n
}

func (g *Garden) placeholderIndex(id string) int {
	return slices.IndexFunc(g.flowers, func(f Flower) bool {
		return !f.Durable && f.ID == id
	})
}

func (g *Garden) dropPending(fp, id string) {
	ids := slices.DeleteFunc(g.pending[fp], func(p string) bool { return p == id })
	if len(ids) == 0 {
		delete(g.pending, fp)
		return
	}
	g.pending[fp] = ids
}

func (g *Garden) unlockAndNotify() {
	fn := g.onChange
	g.mu.Unlock()
	if fn != nil {
		fn()
	}
}
