package store

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/INSANE0777/AIS-GARDEN/internal/api"
	"github.com/INSANE0777/AIS-GARDEN/internal/canvas"
	"github.com/INSANE0777/AIS-GARDEN/internal/config"
)

func openTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(context.Background(), config.DatabaseConfig{Driver: config.DriverSQLite, MaxOpenConns: 1}, dir, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func drawing(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.NRGBA{R: 0xEF, G: 0x44, B: 0x44, A: 0xFF})
	url, err := canvas.EncodeDataURL(img)
	require.NoError(t, err)
	return url
}

func TestCreateUser(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "  Ada  ")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)
	assert.NotEmpty(t, u.ID)

	_, err = s.CreateUser(ctx, "   ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateFlower_AndList(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	u, err := s.CreateUser(ctx, "Ada")
	require.NoError(t, err)

	img := drawing(t)
	var ids []string
	for _, c := range []string{"red", "#F97316", "pink"} {
		row, err := s.CreateFlower(ctx, api.CreateFlowerRequest{
			AuthorID: u.ID, DrawingData: img, X: 10, Y: 89, Color: c,
		})
		require.NoError(t, err)
		assert.Equal(t, "Ada", row.AuthorName)
		ids = append(ids, row.ID)
	}

	asc, err := s.ListFlowers(ctx, api.OrderAsc)
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, ids, []string{asc[0].ID, asc[1].ID, asc[2].ID})
	assert.Equal(t, "#EF4444", asc[0].Color)
	assert.Equal(t, "#F97316", asc[1].Color)
	assert.Equal(t, "#F472B6", asc[2].Color)
	assert.True(t, asc[0].CreatedAt.Before(asc[1].CreatedAt), "frozen clock still yields increasing stamps")

	desc, err := s.ListFlowers(ctx, api.OrderDesc)
	require.NoError(t, err)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{desc[0].ID, desc[1].ID, desc[2].ID})

	for _, r := range asc {
		f, err := r.Flower()
		require.NoError(t, err)
		assert.Equal(t, u.ID, f.AuthorID)
	}
}

func TestCreateFlower_Rejects(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	ctx := context.Background()
	u, err := s.CreateUser(ctx, "Ada")
	require.NoError(t, err)
	img := drawing(t)

	tests := []struct {
		name string
		req  api.CreateFlowerRequest
		want error
	}{
		{"unknown author", api.CreateFlowerRequest{AuthorID: "ghost", DrawingData: img, X: 50, Y: 50, Color: "red"}, ErrNotFound},
		{"missing author", api.CreateFlowerRequest{DrawingData: img, X: 50, Y: 50, Color: "red"}, ErrValidation},
		{"not a data url", api.CreateFlowerRequest{AuthorID: u.ID, DrawingData: "hello", X: 50, Y: 50, Color: "red"}, ErrValidation},
		{"out of range", api.CreateFlowerRequest{AuthorID: u.ID, DrawingData: img, X: 101, Y: 50, Color: "red"}, ErrValidation},
		{"off palette", api.CreateFlowerRequest{AuthorID: u.ID, DrawingData: img, X: 50, Y: 50, Color: "#000000"}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateFlower(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	rows, err := s.ListFlowers(ctx, api.OrderAsc)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSchemaConstraintsMapToErrors(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	ctx := context.Background()
	u, err := s.CreateUser(ctx, "Ada")
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO planted_flowers (id, user_id, drawing_data, x, y, color, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"f1", u.ID, "d", 150.0, 10.0, "#EF4444", 1)
	assert.ErrorIs(t, mapError(err, "flower", "f1"), ErrValidation)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO planted_flowers (id, user_id, drawing_data, x, y, color, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"f2", "ghost", "d", 10.0, 10.0, "#EF4444", 1)
	assert.ErrorIs(t, mapError(err, "flower", "f2"), ErrNotFound)

	_, err = s.db.ExecContext(ctx, `INSERT INTO users (id, name, created_at) VALUES (?, ?, ?)`, u.ID, "Copy", 1)
	assert.ErrorIs(t, mapError(err, "user", u.ID), ErrAlreadyExists)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := openTestStore(t, dir)
	u, err := first.CreateUser(ctx, "Ada")
	require.NoError(t, err)
	_, err = first.CreateFlower(ctx, api.CreateFlowerRequest{AuthorID: u.ID, DrawingData: drawing(t), X: 20, Y: 30, Color: "yellow"})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := openTestStore(t, dir)
	require.NoError(t, second.Ping(ctx))
	rows, err := second.ListFlowers(ctx, api.OrderDesc)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ada", rows[0].AuthorName)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "mysql"}, t.TempDir(), zerolog.Nop())
	require.Error(t, err)
}
