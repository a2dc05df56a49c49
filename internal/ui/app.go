// Package ui is the desktop surface of the garden.
package ui

import (
	"context"
	"errors"
	"image/color"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	ink "github.com/INSANE0777/AIS-GARDEN/internal/canvas"
	"github.com/INSANE0777/AIS-GARDEN/internal/garden"
	"github.com/INSANE0777/AIS-GARDEN/internal/state"
)

const (
	AppID       = "com.ais.secretgarden"
	WindowTitle = "AIS SECRET GARDEN"
)

var (
	titleColor   = color.NRGBA{R: 0x98, G: 0xCA, B: 0x7A, A: 0xFF}
	subtleColor  = color.NRGBA{R: 0x64, G: 0x74, B: 0x8b, A: 0xFF}
	messageColor = color.NRGBA{R: 0xDC, G: 0x26, B: 0x26, A: 0xFF}
)

// gardenWindow holds the widgets of the main window.
type gardenWindow struct {
	ctx    context.Context
	app    fyne.App
	win    fyne.Window
	client *garden.Client
	log    zerolog.Logger

	mu       sync.Mutex
	selected state.Color

	pad     *ink.Pad
	drawing *DrawingPad
	display *GardenDisplay
	counter *canvas.Text
	message *canvas.Text
}

// Run opens the garden window and blocks until it is closed. A saved
// identity is restored; otherwise the name prompt is shown first.
func Run(ctx context.Context, client *garden.Client, log zerolog.Logger) error {
	a := app.NewWithID(AppID)
	w := a.NewWindow(WindowTitle)
	w.Resize(fyne.NewSize(1100, 780))

	gw := &gardenWindow{
		ctx:      ctx,
		app:      a,
		win:      w,
		client:   client,
		log:      log.With().Str("component", "ui").Logger(),
		selected: state.DefaultColor,
		pad:      ink.NewPad(),
	}

	identified, err := client.Restore()
	if err != nil {
		gw.log.Warn().Err(err).Msg("could not restore identity")
	}
	if identified {
		gw.start()
	} else {
		w.SetContent(container.NewCenter(widget.NewLabel("Welcome to the garden")))
		gw.promptName()
	}

	w.ShowAndRun()
	return nil
}

// promptName asks for a display name until a valid one is registered.
func (gw *gardenWindow) promptName() {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("Your name")
	entry.Validator = func(s string) error {
		if strings.TrimSpace(s) == "" {
			return garden.ErrEmptyName
		}
		return nil
	}

	items := []*widget.FormItem{widget.NewFormItem("Name", entry)}
	dialog.ShowForm("What should we call you?", "Enter the garden", "Quit", items, func(ok bool) {
		if !ok {
			gw.app.Quit()
			return
		}
		name := entry.Text
		go func() {
			_, err := gw.client.Identify(gw.ctx, name)
			fyne.Do(func() {
				if err != nil {
					gw.log.Error().Err(err).Msg("identify")
					dialog.ShowError(err, gw.win)
					gw.promptName()
					return
				}
				gw.start()
			})
		}()
	}, gw.win)
}

// start builds the garden view and loads the garden in the background.
func (gw *gardenWindow) start() {
	gw.win.SetContent(gw.build())

	gw.client.Garden().OnChange(func() {
		flowers := gw.client.Garden().Flowers()
		fyne.Do(func() {
			gw.display.SetFlowers(flowers)
			gw.counter.Text = garden.CounterText(len(flowers))
			gw.counter.Refresh()
		})
	})

	go func() {
		if err := gw.client.Start(gw.ctx); err != nil {
			gw.log.Error().Err(err).Msg("start garden")
			fyne.Do(func() { dialog.ShowError(err, gw.win) })
		}
	}()
}

func (gw *gardenWindow) color() state.Color {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	return gw.selected
}

func (gw *gardenWindow) setColor(c state.Color) {
	gw.mu.Lock()
	gw.selected = c
	gw.mu.Unlock()
}

func (gw *gardenWindow) build() fyne.CanvasObject {
	id, _ := gw.client.Session().Identity()

	title := canvas.NewText(WindowTitle, titleColor)
	title.TextSize = 40
	title.TextStyle = fyne.TextStyle{Bold: true}
	title.Alignment = fyne.TextAlignCenter
	welcome := canvas.NewText(garden.Welcome(id.Name), subtleColor)
	welcome.Alignment = fyne.TextAlignCenter

	gw.display = NewGardenDisplay()
	gw.display.OnTapped = gw.plantAt

	gw.counter = canvas.NewText(garden.CounterText(0), titleColor)
	gw.counter.Alignment = fyne.TextAlignCenter

	gw.message = canvas.NewText("", messageColor)
	gw.message.Alignment = fyne.TextAlignCenter

	gw.drawing = NewDrawingPad(gw.pad, gw.color)
	gw.drawing.OnStrokeStart = func() { gw.showMessage("") }

	prompt := canvas.NewText("ADD FLOWERS TO OUR GARDEN?", subtleColor)
	prompt.Alignment = fyne.TextAlignCenter

	// CLEAR only wipes the pad, the garden is never touched
	clearBtn := widget.NewButton("CLEAR", func() {
		gw.pad.Clear()
		gw.showMessage("")
		gw.drawing.Refresh()
	})
	// PLANT drops the flower somewhere random. Tapping the garden picks the spot.
	plantBtn := widget.NewButton("PLANT", func() {
		_, err := gw.client.Plant(gw.ctx, gw.pad, gw.color())
		gw.planted(err)
	})
	plantBtn.Importance = widget.HighImportance
	gallery := widget.NewButton("See Flower Gallery", func() {
		showGallery(gw.ctx, gw.app, gw.client, gw.log)
	})

	side := container.NewVBox(
		prompt,
		container.NewCenter(gw.drawing),
		gw.message,
		container.NewCenter(container.NewHBox(clearBtn, plantBtn)),
		newPaletteBar(gw.selected, gw.setColor),
		container.NewCenter(gallery),
	)

	header := container.NewVBox(title, welcome)
	body := container.NewBorder(nil, nil, nil, side, gw.display)
	return container.NewBorder(header, container.NewPadded(gw.counter), nil, nil,
		container.New(layout.NewPaddedLayout(), body))
}

func (gw *gardenWindow) showMessage(text string) {
	gw.message.Text = text
	gw.message.Refresh()
}

func (gw *gardenWindow) planted(err error) {
	switch {
	case errors.Is(err, garden.ErrNotAFlower):
		gw.showMessage(gw.pad.Message())
	case err != nil:
		gw.log.Error().Err(err).Msg("plant")
		gw.showMessage(err.Error())
	default:
		gw.showMessage("")
	}
	gw.drawing.Refresh()
}

// plantAt plants at a tapped garden position when the pad has a drawing.
func (gw *gardenWindow) plantAt(pos state.Position) {
	if ink.CountInk(gw.pad.Image()) == 0 {
		return // blank pad, the tap was just a tap
	}
	_, err := gw.client.PlantAt(gw.ctx, gw.pad, gw.color(), pos)
	gw.planted(err)
}
