package ui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	ink "github.com/INSANE0777/AIS-GARDEN/internal/canvas"
	"github.com/INSANE0777/AIS-GARDEN/internal/state"
)

// DrawingPad is the 280x280 surface flowers are drawn on.
type DrawingPad struct {
	widget.BaseWidget
	pad   *ink.Pad
	color func() state.Color

	// OnStrokeStart runs when the pen goes down.
	OnStrokeStart func()
}

var (
	_ fyne.Widget       = (*DrawingPad)(nil)
	_ fyne.Draggable    = (*DrawingPad)(nil)
	_ desktop.Mouseable = (*DrawingPad)(nil)
)

// NewDrawingPad wraps pad. color is asked for the current palette color at
// the start of every stroke.
func NewDrawingPad(pad *ink.Pad, color func() state.Color) *DrawingPad {
	d := &DrawingPad{pad: pad, color: color}
	d.ExtendBaseWidget(d)
	return d
}

// padPoint maps a widget position to pad pixel coordinates.
func padPoint(pos fyne.Position, size fyne.Size) ink.Point {
	if size.Width <= 0 || size.Height <= 0 {
		return ink.Point{X: pos.X, Y: pos.Y}
	}
	return ink.Point{
		X: pos.X * ink.DefaultSize / size.Width,
		Y: pos.Y * ink.DefaultSize / size.Height,
	}
}

func (d *DrawingPad) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	d.pad.BeginStroke(padPoint(e.Position, d.Size()), d.color().RGBA())
	if d.OnStrokeStart != nil {
		d.OnStrokeStart()
	}
	d.Refresh()
}

func (d *DrawingPad) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	d.pad.EndStroke()
	d.Refresh()
}

func (d *DrawingPad) Dragged(e *fyne.DragEvent) {
	d.pad.StrokeTo(padPoint(e.Position, d.Size()))
	d.Refresh()
}

func (d *DrawingPad) DragEnd() {
	d.pad.EndStroke()
}

func (d *DrawingPad) MinSize() fyne.Size {
	return fyne.NewSize(ink.DefaultSize, ink.DefaultSize)
}

func (d *DrawingPad) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.White)
	bg.StrokeColor = color.NRGBA{R: 0xCB, G: 0xD5, B: 0xE1, A: 0xFF}
	bg.StrokeWidth = 2
	bg.CornerRadius = 8
	raster := canvas.NewRaster(func(int, int) image.Image { return d.pad.Image() })
	raster.ScaleMode = canvas.ImageScaleSmooth
	return &drawingRenderer{d: d, bg: bg, raster: raster}
}

type drawingRenderer struct {
	d      *DrawingPad
	bg     *canvas.Rectangle
	raster *canvas.Raster
}

func (r *drawingRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.raster.Resize(size)
}

func (r *drawingRenderer) MinSize() fyne.Size { return r.d.MinSize() }

func (r *drawingRenderer) Refresh() {
	r.raster.Refresh()
}

func (r *drawingRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.bg, r.raster}
}

func (r *drawingRenderer) Destroy() {}
