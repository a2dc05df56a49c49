// Package canvas holds the raster a flower is drawn on, the stroke renderer
// and the check that decides whether a drawing counts as a flower.
package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

const (
	// DefaultSize is the width and height of the drawing pad in pixels.
	DefaultSize = 280
	// StrokeWidth is the pen width used for every stroke.
	StrokeWidth = 6

	capSegments = 24
)

// Point is a pixel position on the buffer.
type Point struct {
	X, Y float32
}

// Buffer is a fixed-size RGBA raster that only stroke operations mutate.
// A Buffer is owned by one drawing session and is not safe for concurrent use.
type Buffer struct {
	img      *image.RGBA
	raster   *vector.Rasterizer
	ink      *image.Uniform
	last     Point
	stroking bool
}

// NewBuffer returns a transparent w x h buffer.
func NewBuffer(w, h int) *Buffer {
	return &Buffer{
		img:    image.NewRGBA(image.Rect(0, 0, w, h)),
		raster: vector.NewRasterizer(w, h),
		ink:    image.NewUniform(color.Black),
	}
}

// FromImage scales src onto a DefaultSize buffer, keeping its transparency.
func FromImage(src image.Image) *Buffer {
	b := NewBuffer(DefaultSize, DefaultSize)
	xdraw.CatmullRom.Scale(b.img, b.img.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return b
}

// Image exposes the backing raster. Callers must not retain it across strokes.
func (b *Buffer) Image() *image.RGBA {
	return b.img
}

// Clone returns an independent copy of the current raster.
func (b *Buffer) Clone() *image.RGBA {
	out := image.NewRGBA(b.img.Bounds())
	copy(out.Pix, b.img.Pix)
	return out
}

// Bounds returns the buffer rectangle.
func (b *Buffer) Bounds() image.Rectangle {
	return b.img.Bounds()
}

// BeginStroke moves the pen to p with ink c without marking the buffer.
func (b *Buffer) BeginStroke(p Point, c color.Color) {
	b.ink = image.NewUniform(c)
	b.last = p
	b.stroking = true
}

// StrokeTo draws a round-capped line from the pen to p. It does nothing when
// no stroke is in progress.
func (b *Buffer) StrokeTo(p Point) {
	if !b.stroking {
		return
	}
	b.segment(b.last, p)
	b.last = p
}

// EndStroke lifts the pen.
func (b *Buffer) EndStroke() {
	b.stroking = false
}

// Stroking reports whether the pen is down.
func (b *Buffer) Stroking() bool {
	return b.stroking
}

// Clear erases the buffer back to full transparency.
func (b *Buffer) Clear() {
	draw.Draw(b.img, b.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
	b.stroking = false
}

func (b *Buffer) segment(p, q Point) {
	r := float32(StrokeWidth) / 2
	b.fill(func(z *vector.Rasterizer) { circle(z, p, r) })
	b.fill(func(z *vector.Rasterizer) { circle(z, q, r) })

	dx, dy := q.X-p.X, q.Y-p.Y
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 {
		return
	}
	nx, ny := -dy/length*r, dx/length*r
	b.fill(func(z *vector.Rasterizer) {
		z.MoveTo(p.X+nx, p.Y+ny)
		z.LineTo(q.X+nx, q.Y+ny)
		z.LineTo(q.X-nx, q.Y-ny)
		z.LineTo(p.X-nx, p.Y-ny)
		z.ClosePath()
	})
}

// fill rasterizes one closed shape at a time so overlapping shapes of
// opposite winding never cancel out.
func (b *Buffer) fill(shape func(z *vector.Rasterizer)) {
	bounds := b.img.Bounds()
	b.raster.Reset(bounds.Dx(), bounds.Dy())
	shape(b.raster)
	b.raster.Draw(b.img, bounds, b.ink, image.Point{})
}

func circle(z *vector.Rasterizer, c Point, r float32) {
	z.MoveTo(c.X+r, c.Y)
	for i := 1; i < capSegments; i++ {
		a := 2 * math.Pi * float64(i) / capSegments
		z.LineTo(c.X+r*float32(math.Cos(a)), c.Y+r*float32(math.Sin(a)))
	}
	z.ClosePath()
}
