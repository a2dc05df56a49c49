// Package garden drives one person's session: identity capture, the
// initial load and live subscription, and planting with optimistic display.
package garden

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/INSANE0777/AIS-GARDEN/internal/api"
	"github.com/INSANE0777/AIS-GARDEN/internal/canvas"
	"github.com/INSANE0777/AIS-GARDEN/internal/state"
)

// AnonymousAuthor is shown in the gallery for flowers without a known author.
const AnonymousAuthor = "Anonymous"

var (
	// ErrNotAFlower is returned when a drawing has too little ink to plant.
	ErrNotAFlower = errors.New(canvas.RejectMessage)
	ErrEmptyName  = errors.New("name is empty")
)

// Backend is the authoritative store as seen by a client.
type Backend interface {
	CreateUser(ctx context.Context, name string) (state.Identity, error)
	CreateFlower(ctx context.Context, sub state.Submission) (state.Flower, error)
	ListFlowers(ctx context.Context, order api.Order) ([]state.Flower, error)
	Subscribe(ctx context.Context) (<-chan state.Flower, error)
}

// IdentityStore keeps the identity across runs.
type IdentityStore interface {
	Load() (state.Identity, error)
	Save(state.Identity) error
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Option configures a Client.
type Option func(*Client)

// WithRand sets the source used for random placement.
func WithRand(r state.Intn) Option {
	return func(c *Client) { c.rand = r }
}

// Client is the session controller behind every surface (CLI and desktop).
type Client struct {
	backend Backend
	ids     IdentityStore
	session *state.Session
	garden  *state.Garden
	log     zerolog.Logger
	rand    state.Intn

	wg       sync.WaitGroup
	persists sync.WaitGroup
}

// New creates a client with a fresh session and an empty garden.
func New(backend Backend, ids IdentityStore, log zerolog.Logger, opts ...Option) *Client {
	session := state.NewSession()
	c := &Client{
		backend: backend,
		ids:     ids,
		session: session,
		garden:  state.NewGarden(session, log),
		log:     log.With().Str("component", "client").Logger(),
		rand:    globalRand{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Garden() *state.Garden   { return c.garden }
func (c *Client) Session() *state.Session { return c.session }

// Restore loads a saved identity into the session. It reports whether the
// session is identified afterwards.
func (c *Client) Restore() (bool, error) {
	if _, ok := c.session.Identity(); ok {
		return true, nil
	}
	id, err := c.ids.Load()
	if err != nil {
		return false, fmt.Errorf("restore identity: %w", err)
	}
	if id.Empty() {
		return false, nil
	}
	if err := c.session.Identify(id); err != nil {
		return false, fmt.Errorf("restore identity: %w", err)
	}
	c.log.Info().Str("user", id.Name).Msg("identity restored")
	return true, nil
}

// Identify registers name with the store, binds the session to the new
// identity and saves it locally. The name is trimmed; an empty name fails
// with ErrEmptyName and leaves the session untouched.
func (c *Client) Identify(ctx context.Context, name string) (state.Identity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return state.Identity{}, ErrEmptyName
	}
	if current, ok := c.session.Identity(); ok {
		if current.Name == name {
			return current, nil
		}
		return state.Identity{}, state.ErrSessionImmutable
	}

	id, err := c.backend.CreateUser(ctx, name)
	if err != nil {
		return state.Identity{}, fmt.Errorf("create user: %w", err)
	}
	if err := c.session.Identify(id); err != nil {
		return state.Identity{}, err
	}
	if err := c.ids.Save(id); err != nil {
		c.log.Warn().Err(err).Msg("could not save identity; it will be asked for again next time")
	}
	c.log.Info().Str("user", id.Name).Str("user_id", id.ID).Msg("identified")
	return id, nil
}

// Start subscribes to the live channel, loads the garden and activates the
// session. Subscription happens before the load so no insert falls between
// them; pushes that arrive first are queued by the garden. Load and
// subscription failures are logged and the session continues without them.
func (c *Client) Start(ctx context.Context) error {
	if _, ok := c.session.Identity(); !ok {
		return state.ErrNotIdentified
	}

	events, err := c.backend.Subscribe(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("live updates unavailable")
	}

	flowers, err := c.backend.ListFlowers(ctx, api.OrderAsc)
	if err != nil {
		c.log.Warn().Err(err).Msg("could not load the garden")
	}
	c.garden.LoadAll(flowers)

	if events != nil {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if err := c.garden.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
				c.log.Warn().Err(err).Msg("live updates stopped")
			}
		}()
	}

	if err := c.session.Activate(); err != nil {
		return err
	}
	c.log.Info().Int("flowers", c.garden.Len()).Msg("garden ready")
	return nil
}

// Plant plants the pad's drawing at a random position.
func (c *Client) Plant(ctx context.Context, pad *canvas.Pad, color state.Color) (state.Flower, error) {
	return c.PlantAt(ctx, pad, color, state.RandomPosition(c.rand))
}

// PlantAt validates the pad's drawing and, if it is a flower, shows it in
// the garden immediately, clears the pad and persists it in the background.
// A rejected drawing is left on the pad with the rejection message and
// ErrNotAFlower is returned. A failed persist is logged and the flower stays
// on screen unconfirmed.
func (c *Client) PlantAt(ctx context.Context, pad *canvas.Pad, color state.Color, pos state.Position) (state.Flower, error) {
	v, image, err := pad.Accept()
	if err != nil {
		return state.Flower{}, fmt.Errorf("snapshot drawing: %w", err)
	}
	if !v.Accepted {
		return state.Flower{}, ErrNotAFlower
	}

	f, err := c.garden.ApplyOptimistic(state.Flower{Image: image, Position: pos, Color: color})
	if err != nil {
		return state.Flower{}, err
	}
	pad.Clear()

	c.persists.Add(1)
	go func() {
		defer c.persists.Done()
		c.persist(ctx, f)
	}()
	return f, nil
}

func (c *Client) persist(ctx context.Context, f state.Flower) {
	durable, err := c.backend.CreateFlower(ctx, state.Submission{
		AuthorID: f.AuthorID,
		Image:    f.Image,
		Position: f.Position,
		Color:    f.Color,
	})
	if err != nil {
		c.log.Error().Err(err).Str("placeholder", f.ID).Msg("could not save flower")
		return
	}
	if err := c.garden.Confirm(f.ID, durable); err != nil {
		c.log.Error().Err(err).Str("placeholder", f.ID).Msg("confirm flower")
	}
}

// Gallery fetches every flower newest first. It is a fresh query each time
// and never reuses the garden's collection. Unknown authors are shown as
// AnonymousAuthor.
func (c *Client) Gallery(ctx context.Context) ([]state.Flower, error) {
	flowers, err := c.backend.ListFlowers(ctx, api.OrderDesc)
	if err != nil {
		return nil, fmt.Errorf("load gallery: %w", err)
	}
	for i := range flowers {
		if flowers[i].Author == "" || flowers[i].Author == state.UnknownAuthor {
			flowers[i].Author = AnonymousAuthor
		}
	}
	return flowers, nil
}

// Settle blocks until every background persist has finished.
func (c *Client) Settle() {
	c.persists.Wait()
}

// Wait blocks until background persists and the live consumer have finished.
// The live consumer only stops once the Start context is done.
func (c *Client) Wait() {
	c.persists.Wait()
	c.wg.Wait()
}

// CounterText is the garden footer.
func CounterText(n int) string {
	return fmt.Sprintf("%d flowers in the garden", n)
}

// Welcome is the greeting shown under the title.
func Welcome(name string) string {
	return fmt.Sprintf("Welcome, %s!", name)
}
