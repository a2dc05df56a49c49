package ui

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	ink "github.com/INSANE0777/AIS-GARDEN/internal/canvas"
	"github.com/INSANE0777/AIS-GARDEN/internal/export"
	"github.com/INSANE0777/AIS-GARDEN/internal/garden"
	"github.com/INSANE0777/AIS-GARDEN/internal/state"
)

var galleryTitleColor = color.NRGBA{R: 0x04, G: 0x78, B: 0x57, A: 0xFF}

// showGallery opens a window listing every flower newest first. The list is
// queried fresh each time the window opens.
func showGallery(ctx context.Context, a fyne.App, client *garden.Client, log zerolog.Logger) {
	w := a.NewWindow("Flower Gallery")
	w.Resize(fyne.NewSize(900, 700))

	title := canvas.NewText(export.Title, galleryTitleColor)
	title.TextSize = 32
	title.TextStyle = fyne.TextStyle{Bold: true}

	var flowers []state.Flower
	exportBtn := widget.NewButton("Export PDF", func() {
		saveGalleryPDF(w, flowers, log)
	})
	exportBtn.Disable()
	back := widget.NewButton("Back to Garden", w.Close)

	body := container.NewStack(container.NewCenter(widget.NewLabel("Loading gallery...")))
	header := container.NewBorder(nil, nil, title, container.NewHBox(exportBtn, back))
	w.SetContent(container.NewBorder(container.NewPadded(header), nil, nil, nil, body))
	w.Show()

	go func() {
		loaded, err := client.Gallery(ctx)
		fyne.Do(func() {
			if err != nil {
				log.Error().Err(err).Msg("load gallery")
				body.Objects = []fyne.CanvasObject{container.NewCenter(widget.NewLabel("Could not load the gallery."))}
				body.Refresh()
				return
			}
			flowers = loaded
			exportBtn.Enable()
			body.Objects = []fyne.CanvasObject{galleryGrid(loaded)}
			body.Refresh()
		})
	}()
}

func galleryGrid(flowers []state.Flower) fyne.CanvasObject {
	if len(flowers) == 0 {
		return container.NewCenter(widget.NewLabel(export.EmptyText))
	}
	cards := make([]fyne.CanvasObject, 0, len(flowers))
	for _, f := range flowers {
		cards = append(cards, galleryCard(f))
	}
	return container.NewVScroll(container.NewGridWrap(fyne.NewSize(240, 280), cards...))
}

func galleryCard(f state.Flower) fyne.CanvasObject {
	var pic fyne.CanvasObject = widget.NewLabel("drawing unavailable")
	if img, err := ink.DecodeDataURL(f.Image); err == nil {
		ci := canvas.NewImageFromImage(img)
		ci.FillMode = canvas.ImageFillContain
		ci.SetMinSize(fyne.NewSize(180, 180))
		pic = ci
	}

	author := widget.NewLabelWithStyle(f.Author, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	date := widget.NewLabel("")
	if !f.CreatedAt.IsZero() {
		date.SetText(f.CreatedAt.Local().Format(time.DateOnly))
	}
	dot := canvas.NewCircle(f.Color.RGBA())
	dotBox := container.NewGridWrap(fyne.NewSize(18, 18), dot)

	bg := canvas.NewRectangle(color.White)
	bg.CornerRadius = 8
	return container.NewStack(bg, container.NewPadded(container.NewVBox(pic, author, date, dotBox)))
}

func saveGalleryPDF(w fyne.Window, flowers []state.Flower, log zerolog.Logger) {
	save := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if writer == nil {
			return
		}
		defer writer.Close()
		if err := export.WriteGallery(writer, flowers, time.Now()); err != nil {
			log.Error().Err(err).Msg("export gallery")
			dialog.ShowError(err, w)
			return
		}
		dialog.ShowInformation("Gallery exported", fmt.Sprintf("Saved %d flowers to %s", len(flowers), writer.URI().Name()), w)
	}, w)
	save.SetFileName("flower-gallery.pdf")
	save.Show()
}
