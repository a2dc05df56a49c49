package ui

import (
	"image"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	ink "github.com/INSANE0777/AIS-GARDEN/internal/canvas"
	"github.com/INSANE0777/AIS-GARDEN/internal/state"
)

var (
	islandColor = color.NRGBA{R: 0x98, G: 0xCA, B: 0x7A, A: 0xFF}
	soilColor   = color.NRGBA{R: 0x8B, G: 0x6B, B: 0x4A, A: 0xFF}
)

// flowerScale is the rendered flower side relative to the shorter display side.
const flowerScale = 0.2

// GardenDisplay draws every flower at its percentage position.
type GardenDisplay struct {
	widget.BaseWidget

	mu      sync.Mutex
	flowers []state.Flower
	images  map[string]image.Image

	// OnTapped receives the garden position of a tap.
	OnTapped func(state.Position)
}

func NewGardenDisplay() *GardenDisplay {
	g := &GardenDisplay{images: make(map[string]image.Image)}
	g.ExtendBaseWidget(g)
	return g
}

// SetFlowers replaces what is shown. Call from the UI goroutine.
func (g *GardenDisplay) SetFlowers(flowers []state.Flower) {
	g.mu.Lock()
	g.flowers = flowers
	keep := make(map[string]image.Image, len(flowers))
	for _, f := range flowers {
		key := f.Fingerprint()
		if img, ok := g.images[key]; ok {
			keep[key] = img
			continue
		}
		img, err := ink.DecodeDataURL(f.Image)
		if err != nil {
			continue
		}
		keep[key] = img
	}
	g.images = keep
	g.mu.Unlock()
	g.Refresh()
}

func (g *GardenDisplay) Tapped(e *fyne.PointEvent) {
	if g.OnTapped == nil {
		return
	}
	size := g.Size()
	g.OnTapped(state.PositionFromPoint(float64(e.Position.X), float64(e.Position.Y),
		float64(size.Width), float64(size.Height)))
}

func (g *GardenDisplay) MinSize() fyne.Size { return fyne.NewSize(560, 560) }

// flowerRect returns the square a flower occupies, centered on its position.
func flowerRect(p state.Position, size fyne.Size) (fyne.Position, fyne.Size) {
	side := min(size.Width, size.Height) * flowerScale
	cx := float32(p.X/100) * size.Width
	cy := float32(p.Y/100) * size.Height
	return fyne.NewPos(cx-side/2, cy-side/2), fyne.NewSize(side, side)
}

func (g *GardenDisplay) CreateRenderer() fyne.WidgetRenderer {
	island := canvas.NewCircle(islandColor)
	island.StrokeColor = soilColor
	island.StrokeWidth = 6
	return &gardenRenderer{g: g, island: island}
}

type gardenRenderer struct {
	g       *GardenDisplay
	island  *canvas.Circle
	sprites []*flowerSprite
}

func (r *gardenRenderer) Layout(size fyne.Size) {
	r.island.Move(fyne.NewPos(size.Width*0.05, size.Height*0.15))
	r.island.Resize(fyne.NewSize(size.Width*0.9, size.Height*0.8))
	for _, s := range r.sprites {
		pos, sz := flowerRect(s.flower.Position, size)
		s.Move(pos)
		s.Resize(sz)
	}
}

func (r *gardenRenderer) MinSize() fyne.Size { return r.g.MinSize() }

func (r *gardenRenderer) Refresh() {
	r.g.mu.Lock()
	sprites := make([]*flowerSprite, 0, len(r.g.flowers))
	for _, f := range r.g.flowers {
		img, ok := r.g.images[f.Fingerprint()]
		if !ok {
			continue
		}
		sprites = append(sprites, newFlowerSprite(f, img))
	}
	r.g.mu.Unlock()

	r.sprites = sprites
	r.Layout(r.g.Size())
	canvas.Refresh(r.g)
}

func (r *gardenRenderer) Objects() []fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, 0, len(r.sprites)+1)
	objs = append(objs, r.island)
	for _, s := range r.sprites {
		objs = append(objs, s)
	}
	return objs
}

func (r *gardenRenderer) Destroy() {}

// flowerSprite shows one flower and its author's name while hovered.
type flowerSprite struct {
	widget.BaseWidget
	flower state.Flower
	image  *canvas.Image
	label  *widget.Label
}

var _ desktop.Hoverable = (*flowerSprite)(nil)

func newFlowerSprite(f state.Flower, img image.Image) *flowerSprite {
	ci := canvas.NewImageFromImage(img)
	ci.FillMode = canvas.ImageFillContain
	label := widget.NewLabel(f.Author)
	label.Importance = widget.HighImportance
	label.Hide()
	s := &flowerSprite{flower: f, image: ci, label: label}
	s.ExtendBaseWidget(s)
	return s
}

func (s *flowerSprite) MouseIn(*desktop.MouseEvent) {
	s.label.Show()
}

func (s *flowerSprite) MouseMoved(*desktop.MouseEvent) {}

func (s *flowerSprite) MouseOut() {
	s.label.Hide()
}

func (s *flowerSprite) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewStack(s.image, container.NewVBox(s.label)))
}
