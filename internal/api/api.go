// Package api holds the JSON shapes exchanged between garden clients and the
// garden server, and the strict conversion of pushed rows into flowers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/INSANE0777/AIS-GARDEN/internal/state"
)

// Live channel event constants.
const (
	EventInsert  = "INSERT"
	TableFlowers = "planted_flowers"
)

// Order selects the sort direction of a flower listing by creation time.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// ParseOrder accepts "", "asc" or "desc"; empty means ascending.
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderAsc:
		return OrderAsc, nil
	case OrderDesc:
		return OrderDesc, nil
	}
	return "", fmt.Errorf("order %q: want asc or desc", s)
}

type CreateUserRequest struct {
	Name string `json:"name"`
}

type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CreateFlowerRequest struct {
	AuthorID    string  `json:"author_id"`
	DrawingData string  `json:"drawing_data"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Color       string  `json:"color"`
}

// NewCreateFlowerRequest builds the wire request for a submission.
func NewCreateFlowerRequest(s state.Submission) CreateFlowerRequest {
	return CreateFlowerRequest{
		AuthorID:    s.AuthorID,
		DrawingData: s.Image,
		X:           s.Position.X,
		Y:           s.Position.Y,
		Color:       s.Color.Hex(),
	}
}

// FlowerRow is a persisted flower joined with its author's name.
type FlowerRow struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"author_id"`
	AuthorName  string    `json:"author_name"`
	DrawingData string    `json:"drawing_data"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
}

// Flower converts the row into a durable garden flower. A row without an
// author name is attributed to state.UnknownAuthor.
func (r FlowerRow) Flower() (state.Flower, error) {
	c, err := state.ParseColor(r.Color)
	if err != nil {
		return state.Flower{}, fmt.Errorf("%w: %w", state.ErrMalformedRecord, err)
	}
	author := strings.TrimSpace(r.AuthorName)
	if author == "" {
		author = state.UnknownAuthor
	}
	f := state.Flower{
		ID:        r.ID,
		Durable:   true,
		AuthorID:  r.AuthorID,
		Author:    author,
		Image:     r.DrawingData,
		Position:  state.Position{X: r.X, Y: r.Y},
		Color:     c,
		CreatedAt: r.CreatedAt,
	}
	if f.AuthorID == "" {
		return state.Flower{}, fmt.Errorf("%w: missing author_id", state.ErrMalformedRecord)
	}
	if err := f.Validate(); err != nil {
		return state.Flower{}, fmt.Errorf("%w: %w", state.ErrMalformedRecord, err)
	}
	return f, nil
}

// Event is one message on the live channel.
type Event struct {
	Type   string          `json:"type"`
	Table  string          `json:"table"`
	Record json.RawMessage `json:"record"`
}

// NewInsertEvent wraps row in an INSERT event for the flowers table.
func NewInsertEvent(row FlowerRow) (Event, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: EventInsert, Table: TableFlowers, Record: raw}, nil
}

// ErrIgnoredEvent marks a well-formed event that is not a flower insert.
var ErrIgnoredEvent = errors.New("event is not a flower insert")

// wireRow mirrors FlowerRow with pointers so missing fields are detectable.
type wireRow struct {
	ID          *string    `json:"id"`
	AuthorID    *string    `json:"author_id"`
	AuthorName  *string    `json:"author_name"`
	DrawingData *string    `json:"drawing_data"`
	X           *float64   `json:"x"`
	Y           *float64   `json:"y"`
	Color       *string    `json:"color"`
	CreatedAt   *time.Time `json:"created_at"`
}

// DecodeEvent parses a live channel message and returns the inserted flower.
// Every field except author_name and created_at must be present. Events for
// other tables or types return ErrIgnoredEvent; anything unparseable returns
// an error wrapping state.ErrMalformedRecord.
func DecodeEvent(data []byte) (state.Flower, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return state.Flower{}, fmt.Errorf("%w: %v", state.ErrMalformedRecord, err)
	}
	if ev.Type != EventInsert || ev.Table != TableFlowers {
		return state.Flower{}, fmt.Errorf("%w: %s on %s", ErrIgnoredEvent, ev.Type, ev.Table)
	}
	if len(ev.Record) == 0 || string(ev.Record) == "null" {
		return state.Flower{}, fmt.Errorf("%w: missing record", state.ErrMalformedRecord)
	}

	var w wireRow
	if err := json.Unmarshal(ev.Record, &w); err != nil {
		return state.Flower{}, fmt.Errorf("%w: %v", state.ErrMalformedRecord, err)
	}
	var missing []string
	if w.ID == nil {
		missing = append(missing, "id")
	}
	if w.AuthorID == nil {
		missing = append(missing, "author_id")
	}
	if w.DrawingData == nil {
		missing = append(missing, "drawing_data")
	}
	if w.X == nil {
		missing = append(missing, "x")
	}
	if w.Y == nil {
		missing = append(missing, "y")
	}
	if w.Color == nil {
		missing = append(missing, "color")
	}
	if len(missing) > 0 {
		return state.Flower{}, fmt.Errorf("%w: missing %s", state.ErrMalformedRecord, strings.Join(missing, ", "))
	}

	row := FlowerRow{
		ID:          *w.ID,
		AuthorID:    *w.AuthorID,
		DrawingData: *w.DrawingData,
		X:           *w.X,
		Y:           *w.Y,
		Color:       *w.Color,
	}
	if w.AuthorName != nil {
		row.AuthorName = *w.AuthorName
	}
	if w.CreatedAt != nil {
		row.CreatedAt = *w.CreatedAt
	}
	return row.Flower()
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
