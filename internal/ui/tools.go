package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/INSANE0777/AIS-GARDEN/internal/state"
)

const swatchSize = 44

var (
	ringSelected = color.NRGBA{R: 0x94, G: 0xA3, B: 0xB8, A: 0xFF}
	ringIdle     = color.NRGBA{R: 0xE2, G: 0xE8, B: 0xF0, A: 0xFF}
)

// colorSwatch is one round palette button.
type colorSwatch struct {
	widget.BaseWidget
	swatch   state.Swatch
	selected bool
	OnTapped func(state.Color)
}

func newColorSwatch(s state.Swatch, tapped func(state.Color)) *colorSwatch {
	cs := &colorSwatch{swatch: s, OnTapped: tapped}
	cs.ExtendBaseWidget(cs)
	return cs
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	dot := canvas.NewCircle(s.swatch.Color.RGBA())
	dot.StrokeWidth = 3
	dot.StrokeColor = ringIdle
	bg := canvas.NewRectangle(color.Transparent)
	bg.SetMinSize(fyne.NewSize(swatchSize, swatchSize))
	return &swatchRenderer{s: s, dot: dot, objects: []fyne.CanvasObject{bg, dot}}
}

func (s *colorSwatch) Tapped(*fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.swatch.Color)
	}
}

func (s *colorSwatch) setSelected(on bool) {
	s.selected = on
	s.Refresh()
}

type swatchRenderer struct {
	s       *colorSwatch
	dot     *canvas.Circle
	objects []fyne.CanvasObject
}

func (r *swatchRenderer) Layout(size fyne.Size) {
	r.objects[0].Resize(size)
	inset := float32(4)
	if r.s.selected {
		inset = 0
	}
	r.dot.Move(fyne.NewPos(inset, inset))
	r.dot.Resize(fyne.NewSize(size.Width-2*inset, size.Height-2*inset))
}

func (r *swatchRenderer) MinSize() fyne.Size { return fyne.NewSize(swatchSize, swatchSize) }

func (r *swatchRenderer) Refresh() {
	r.dot.StrokeColor = ringIdle
	if r.s.selected {
		r.dot.StrokeColor = ringSelected
	}
	r.Layout(r.s.Size())
	r.dot.Refresh()
}

func (r *swatchRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *swatchRenderer) Destroy()                     {}

// newPaletteBar lays out the palette swatches with initial selected.
func newPaletteBar(initial state.Color, onSelect func(state.Color)) fyne.CanvasObject {
	swatches := make([]*colorSwatch, 0, len(state.Palette))
	objs := make([]fyne.CanvasObject, 0, len(state.Palette))
	pick := func(c state.Color) {
		for _, s := range swatches {
			s.setSelected(s.swatch.Color == c)
		}
		onSelect(c)
	}
	for _, sw := range state.Palette {
		cs := newColorSwatch(sw, pick)
		cs.selected = sw.Color == initial
		swatches = append(swatches, cs)
		objs = append(objs, cs)
	}
	return container.NewCenter(container.NewHBox(objs...))
}
