package state

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIdentity = Identity{ID: "user-1", Name: "Ada"}

func newTestGarden(t *testing.T) *Garden {
	t.Helper()
	s := NewSession()
	require.NoError(t, s.Identify(testIdentity))
	return NewGarden(s, zerolog.Nop())
}

func durableFlower(id, authorID, author string, x, y float64, c Color) Flower {
	return Flower{
		ID:       id,
		Durable:  true,
		AuthorID: authorID,
		Author:   author,
		Image:    "data:image/png;base64," + id,
		Position: Position{X: x, Y: y},
		Color:    c,
	}
}

func ids(flowers []Flower) []string {
	out := make([]string, len(flowers))
	for i, f := range flowers {
		out[i] = f.ID
	}
	return out
}

func TestGarden_LoadAllPreservesOrder(t *testing.T) {
	g := newTestGarden(t)
	source := []Flower{
		durableFlower("c", "u2", "Bo", 20, 30, Red),
		durableFlower("a", "u3", "Cy", 40, 50, Green),
		durableFlower("b", "u2", "Bo", 60, 70, Yellow),
	}

	g.LoadAll(source)

	assert.True(t, g.Loaded())
	assert.Equal(t, source, g.Flowers())
}

func TestGarden_LoadAllDropsInvalidAndDuplicateRows(t *testing.T) {
	g := newTestGarden(t)
	bad := durableFlower("bad", "u2", "Bo", 120, 30, Red)
	g.LoadAll([]Flower{
		durableFlower("a", "u2", "Bo", 20, 30, Red),
		bad,
		durableFlower("a", "u2", "Bo", 20, 30, Red),
	})

	assert.Equal(t, []string{"a"}, ids(g.Flowers()))
}

func TestGarden_OptimisticThenEcho(t *testing.T) {
	g := newTestGarden(t)
	g.LoadAll(nil)

	local, err := g.ApplyOptimistic(Flower{Image: "data:image/png;base64,ink", Position: Position{X: 42, Y: 17}, Color: Pink})
	require.NoError(t, err)
	assert.True(t, IsPlaceholderID(local.ID))
	assert.Equal(t, testIdentity.ID, local.AuthorID)
	assert.Equal(t, testIdentity.Name, local.Author)

	echo := local
	echo.ID = "9f0c"
	echo.Durable = true
	require.NoError(t, g.ApplyRemote(echo))

	flowers := g.Flowers()
	require.Len(t, flowers, 1)
	assert.Equal(t, "9f0c", flowers[0].ID)
	assert.True(t, flowers[0].Durable)
	assert.Equal(t, 0, g.Pending())
}

func TestGarden_EchoThenConfirm(t *testing.T) {
	g := newTestGarden(t)
	g.LoadAll(nil)

	local, err := g.ApplyOptimistic(Flower{Image: "data:image/png;base64,ink", Position: Position{X: 10, Y: 89}, Color: Red})
	require.NoError(t, err)

	durable := local
	durable.ID = "d-1"
	require.NoError(t, g.ApplyRemote(durable))
	require.NoError(t, g.Confirm(local.ID, durable))

	assert.Equal(t, []string{"d-1"}, ids(g.Flowers()))
}

func TestGarden_ConfirmThenEcho(t *testing.T) {
	g := newTestGarden(t)
	g.LoadAll([]Flower{durableFlower("old", "u2", "Bo", 50, 50, Green)})

	local, err := g.ApplyOptimistic(Flower{Image: "data:image/png;base64,ink", Position: Position{X: 33, Y: 44}, Color: Orange})
	require.NoError(t, err)

	durable := local
	durable.ID = "d-1"
	require.NoError(t, g.Confirm(local.ID, durable))
	require.NoError(t, g.ApplyRemote(durable))
	require.NoError(t, g.ApplyRemote(durable))

	assert.Equal(t, []string{"old", "d-1"}, ids(g.Flowers()))
}

func TestGarden_IdenticalPlantsEchoedOutOfOrder(t *testing.T) {
	g := newTestGarden(t)
	g.LoadAll(nil)

	base := Flower{Image: "data:image/png;base64,same", Position: Position{X: 20, Y: 20}, Color: Yellow}
	first, err := g.ApplyOptimistic(base)
	require.NoError(t, err)
	second, err := g.ApplyOptimistic(base)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	d1, d2 := first, second
	d1.ID, d2.ID = "d-1", "d-2"

	require.NoError(t, g.ApplyRemote(d2))
	require.NoError(t, g.Confirm(first.ID, d1))
	require.NoError(t, g.Confirm(second.ID, d2))
	require.NoError(t, g.ApplyRemote(d1))

	assert.ElementsMatch(t, []string{"d-1", "d-2"}, ids(g.Flowers()))
	assert.Equal(t, 0, g.Pending())
}

func TestGarden_RemoteFromOtherAuthorKeepsLocalEntry(t *testing.T) {
	g := newTestGarden(t)
	g.LoadAll(nil)

	local, err := g.ApplyOptimistic(Flower{Image: "data:image/png;base64,mine", Position: Position{X: 25, Y: 75}, Color: Pink})
	require.NoError(t, err)

	other := durableFlower("x-1", "u9", "Zed", 25, 75, Pink)
	require.NoError(t, g.ApplyRemote(other))

	flowers := g.Flowers()
	require.Len(t, flowers, 2)
	assert.Equal(t, local, flowers[0])
	assert.Equal(t, "x-1", flowers[1].ID)
}

func TestGarden_DuplicatePushIgnored(t *testing.T) {
	g := newTestGarden(t)
	g.LoadAll([]Flower{durableFlower("a", "u2", "Bo", 20, 30, Red)})

	calls := 0
	g.OnChange(func() { calls++ })

	require.NoError(t, g.ApplyRemote(durableFlower("a", "u2", "Bo", 20, 30, Red)))
	require.NoError(t, g.ApplyRemote(durableFlower("b", "u2", "Bo", 21, 31, Red)))
	require.NoError(t, g.ApplyRemote(durableFlower("b", "u2", "Bo", 21, 31, Red)))

	assert.Equal(t, []string{"a", "b"}, ids(g.Flowers()))
	assert.Equal(t, 1, calls)
}

func TestGarden_PushBeforeLoadIsQueued(t *testing.T) {
	g := newTestGarden(t)

	require.NoError(t, g.ApplyRemote(durableFlower("late", "u2", "Bo", 20, 30, Red)))
	require.NoError(t, g.ApplyRemote(durableFlower("both", "u2", "Bo", 40, 30, Red)))
	assert.Empty(t, g.Flowers())

	g.LoadAll([]Flower{
		durableFlower("first", "u3", "Cy", 10, 10, Green),
		durableFlower("both", "u2", "Bo", 40, 30, Red),
	})

	assert.Equal(t, []string{"first", "both", "late"}, ids(g.Flowers()))
}

func TestGarden_LoadAllAbsorbsOptimisticEntries(t *testing.T) {
	g := newTestGarden(t)

	persisted, err := g.ApplyOptimistic(Flower{Image: "data:image/png;base64,p", Position: Position{X: 11, Y: 12}, Color: Red})
	require.NoError(t, err)
	unsaved, err := g.ApplyOptimistic(Flower{Image: "data:image/png;base64,u", Position: Position{X: 13, Y: 14}, Color: Red})
	require.NoError(t, err)

	durable := persisted
	durable.ID = "d-1"
	durable.Durable = true
	g.LoadAll([]Flower{durable})

	assert.Equal(t, []string{"d-1", unsaved.ID}, ids(g.Flowers()))
	assert.Equal(t, 1, g.Pending())
}

func TestGarden_MalformedPushDropped(t *testing.T) {
	g := newTestGarden(t)
	g.LoadAll(nil)

	tests := []struct {
		name   string
		flower Flower
	}{
		{"missing id", durableFlower("", "u2", "Bo", 20, 30, Red)},
		{"bad color", durableFlower("a", "u2", "Bo", 20, 30, Color("blue"))},
		{"position out of range", durableFlower("b", "u2", "Bo", -1, 30, Red)},
		{"missing image", Flower{ID: "c", Author: "Bo", Position: Position{X: 1, Y: 1}, Color: Red}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.ApplyRemote(tt.flower)
			assert.ErrorIs(t, err, ErrMalformedRecord)
			assert.ErrorIs(t, err, ErrInvalidFlower)
		})
	}
	assert.Empty(t, g.Flowers())
}

func TestGarden_OptimisticRequiresIdentity(t *testing.T) {
	g := NewGarden(NewSession(), zerolog.Nop())
	_, err := g.ApplyOptimistic(Flower{Image: "x", Position: Position{X: 1, Y: 1}, Color: Red})
	assert.ErrorIs(t, err, ErrNotIdentified)
}

func TestGarden_OptimisticRejectsInvalid(t *testing.T) {
	g := newTestGarden(t)
	_, err := g.ApplyOptimistic(Flower{Image: "x", Position: Position{X: 1, Y: 101}, Color: Red})
	assert.ErrorIs(t, err, ErrInvalidFlower)
	assert.Empty(t, g.Flowers())
}

func TestGarden_Reset(t *testing.T) {
	g := newTestGarden(t)
	g.LoadAll([]Flower{durableFlower("a", "u2", "Bo", 20, 30, Red)})
	g.Reset()

	assert.False(t, g.Loaded())
	assert.Empty(t, g.Flowers())

	require.NoError(t, g.ApplyRemote(durableFlower("a", "u2", "Bo", 20, 30, Red)))
	assert.Empty(t, g.Flowers(), "push after reset waits for the next load")
}

func TestGarden_Run(t *testing.T) {
	g := newTestGarden(t)
	g.LoadAll(nil)

	events := make(chan Flower, 8)
	for i := range 3 {
		events <- durableFlower(fmt.Sprintf("r-%d", i), "u2", "Bo", float64(10+i), 50, Green)
	}
	events <- durableFlower("r-1", "u2", "Bo", 11, 50, Green)
	events <- durableFlower("broken", "u2", "Bo", 10, 500, Green)
	close(events)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, g.Run(ctx, events))

	assert.Equal(t, []string{"r-0", "r-1", "r-2"}, ids(g.Flowers()))
}

func TestGarden_RunStopsOnCancel(t *testing.T) {
	g := newTestGarden(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, g.Run(ctx, make(chan Flower)), context.Canceled)
}

func TestGarden_ConfirmedBeforeStaleLoadIsKept(t *testing.T) {
	g := newTestGarden(t)
	opt, err := g.ApplyOptimistic(Flower{Image: "data:image/png;base64,mine", Position: Position{X: 30, Y: 30}, Color: Pink})
	require.NoError(t, err)
	mine := durableFlower("d-mine", testIdentity.ID, testIdentity.Name, 30, 30, Pink)
	mine.Image = opt.Image
	require.NoError(t, g.Confirm(opt.ID, mine))

	g.LoadAll([]Flower{durableFlower("d-old", "u2", "Bo", 10, 10, Red)})

	assert.Equal(t, []string{"d-old", "d-mine"}, ids(g.Flowers()))
	assert.Zero(t, g.Pending())

	// A later echo of the kept flower is a duplicate.
	require.NoError(t, g.ApplyRemote(mine))
	assert.Equal(t, 2, g.Len())
}

func TestGarden_ConfirmedThenLoadContainingItIsNotDuplicated(t *testing.T) {
	g := newTestGarden(t)
	opt, err := g.ApplyOptimistic(Flower{Image: "data:image/png;base64,mine", Position: Position{X: 30, Y: 30}, Color: Pink})
	require.NoError(t, err)
	mine := durableFlower("d-mine", testIdentity.ID, testIdentity.Name, 30, 30, Pink)
	mine.Image = opt.Image
	require.NoError(t, g.Confirm(opt.ID, mine))

	g.LoadAll([]Flower{durableFlower("d-old", "u2", "Bo", 10, 10, Red), mine})

	assert.Equal(t, []string{"d-old", "d-mine"}, ids(g.Flowers()))
}
