package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"

	ink "github.com/INSANE0777/AIS-GARDEN/internal/canvas"
	"github.com/INSANE0777/AIS-GARDEN/internal/state"
)

func TestPadPoint_ScalesToPadPixels(t *testing.T) {
	got := padPoint(fyne.NewPos(280, 140), fyne.NewSize(560, 560))
	assert.Equal(t, ink.Point{X: 140, Y: 70}, got)

	got = padPoint(fyne.NewPos(12, 34), fyne.Size{})
	assert.Equal(t, ink.Point{X: 12, Y: 34}, got)
}

func TestFlowerRect_CentersOnPosition(t *testing.T) {
	pos, size := flowerRect(state.Position{X: 50, Y: 25}, fyne.NewSize(600, 400))
	assert.Equal(t, fyne.NewSize(80, 80), size)
	assert.Equal(t, fyne.NewPos(260, 60), pos)
}

func TestDrawingPad_DrawsStrokes(t *testing.T) {
	test.NewTempApp(t)

	pad := ink.NewPad()
	starts := 0
	d := NewDrawingPad(pad, func() state.Color { return state.Green })
	d.OnStrokeStart = func() { starts++ }
	d.Resize(fyne.NewSize(ink.DefaultSize, ink.DefaultSize))

	press := &desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(40, 140)}, Button: desktop.MouseButtonPrimary}
	d.MouseDown(press)
	d.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(240, 140)}})
	d.MouseUp(press)

	assert.Equal(t, 1, starts)
	assert.GreaterOrEqual(t, ink.CountInk(pad.Image()), ink.MinInkPixels)

	// Dragging with the pen up draws nothing.
	pad.Clear()
	d.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(100, 200)}})
	assert.Zero(t, ink.CountInk(pad.Image()))

	// Secondary button is ignored.
	d.MouseDown(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(10, 10)}, Button: desktop.MouseButtonSecondary})
	assert.Equal(t, 1, starts)
}

func TestGardenDisplay_TapReportsPercentPosition(t *testing.T) {
	test.NewTempApp(t)

	g := NewGardenDisplay()
	g.Resize(fyne.NewSize(560, 560))
	var got state.Position
	g.OnTapped = func(p state.Position) { got = p }
	g.Tapped(&fyne.PointEvent{Position: fyne.NewPos(140, 280)})
	assert.Equal(t, state.Position{X: 25, Y: 50}, got)
}

func TestGardenDisplay_SkipsUndecodableFlowers(t *testing.T) {
	test.NewTempApp(t)

	g := NewGardenDisplay()
	g.SetFlowers([]state.Flower{{
		ID: "f", Durable: true, AuthorID: "u", Author: "Ada",
		Image: "not a data url", Position: state.Position{X: 1, Y: 1}, Color: state.Red,
	}})
	assert.Empty(t, g.images)
}
