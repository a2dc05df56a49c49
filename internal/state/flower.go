package state

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"
)

// UnknownAuthor is shown for garden rows whose author cannot be resolved.
const UnknownAuthor = "Unknown"

// Position is a point in the garden, in percent of the display area.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Valid reports whether both coordinates lie in [0,100].
func (p Position) Valid() bool {
	return inPercent(p.X) && inPercent(p.Y)
}

func inPercent(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 100
}

// Flower is one planted drawing.
//
// ID is a client placeholder while Durable is false and the store-assigned
// identifier once Durable is true. The two are never compared with each other.
type Flower struct {
	ID        string
	Durable   bool
	AuthorID  string
	Author    string
	Image     string
	Position  Position
	Color     Color
	CreatedAt time.Time
}

// Validate checks the fields every flower in the garden must carry.
func (f Flower) Validate() error {
	switch {
	case f.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidFlower)
	case f.Image == "":
		return fmt.Errorf("%w: missing image", ErrInvalidFlower)
	case strings.TrimSpace(f.Author) == "":
		return fmt.Errorf("%w: missing author", ErrInvalidFlower)
	case !f.Position.Valid():
		return fmt.Errorf("%w: position (%g,%g) outside [0,100]", ErrInvalidFlower, f.Position.X, f.Position.Y)
	case !f.Color.Valid():
		return fmt.Errorf("%w: color %q not in palette", ErrInvalidFlower, f.Color)
	}
	return nil
}

// Submission is what a client sends to the store to plant a flower.
type Submission struct {
	AuthorID string
	Image    string
	Position Position
	Color    Color
}

// Fingerprint identifies the logical submission behind a record, independent
// of which identifier namespace the record currently carries.
func (f Flower) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%g\x00%g\x00%s\x00", f.AuthorID, f.Position.X, f.Position.Y, f.Color)
	h.Write([]byte(f.Image))
	return hex.EncodeToString(h.Sum(nil))
}

// Identity is the (name, id) pair captured once per session.
type Identity struct {
	ID   string `mapstructure:"garden_user_id"`
	Name string `mapstructure:"garden_user_name"`
}

// Empty reports whether no identity has been captured.
func (i Identity) Empty() bool {
	return i.ID == "" && i.Name == ""
}
