// Package export renders the flower gallery as a printable PDF.
package export

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/INSANE0777/AIS-GARDEN/internal/canvas"
	"github.com/INSANE0777/AIS-GARDEN/internal/state"
)

// Page geometry in millimetres (A4 portrait).
const (
	pageW   = 210.0
	pageH   = 297.0
	margin  = 15.0
	columns = 3
	gap     = 6.0
	cardW   = (pageW - 2*margin - (columns-1)*gap) / columns
	imageH  = 48.0
	cardH   = imageH + 26
)

const (
	Title      = "FLOWER GALLERY"
	EmptyText  = "No flowers planted yet. Start drawing and planting!"
	dateLayout = "2006-01-02"
)

// WriteGallery renders flowers, in the order given, as a card grid and
// writes the PDF to w.
func WriteGallery(w io.Writer, flowers []state.Flower, generated time.Time) error {
	pdf := galleryDoc(flowers, generated)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render gallery pdf: %w", err)
	}
	return nil
}

// WriteGalleryFile is WriteGallery into a file at path.
func WriteGalleryFile(path string, flowers []state.Flower, generated time.Time) error {
	pdf := galleryDoc(flowers, generated)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write gallery pdf %s: %w", path, err)
	}
	return nil
}

func galleryDoc(flowers []state.Flower, generated time.Time) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("AIS Secret Garden - "+Title, true)
	pdf.SetCreator("secretgarden", true)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Times", "B", 28)
	pdf.SetTextColor(0x04, 0x78, 0x57)
	pdf.CellFormat(0, 14, Title, "", 1, "L", false, 0, "")
	pdf.SetFont("Times", "", 10)
	pdf.SetTextColor(0x64, 0x74, 0x8b)
	pdf.CellFormat(0, 6, fmt.Sprintf("%d flowers, exported %s", len(flowers), generated.Format(dateLayout)), "", 1, "L", false, 0, "")

	top := pdf.GetY() + 6
	if len(flowers) == 0 {
		pdf.SetY(top + 20)
		pdf.SetFont("Times", "", 14)
		pdf.CellFormat(0, 10, EmptyText, "", 1, "C", false, 0, "")
		return pdf
	}

	y := top
	for i, f := range flowers {
		col := i % columns
		if col == 0 && i > 0 {
			y += cardH + gap
		}
		if y+cardH > pageH-margin {
			pdf.AddPage()
			y = margin
		}
		x := margin + float64(col)*(cardW+gap)
		drawCard(pdf, tr, f, i, x, y)
	}
	return pdf
}

func drawCard(pdf *gofpdf.Fpdf, tr func(string) string, f state.Flower, idx int, x, y float64) {
	pdf.SetDrawColor(0xE2, 0xE8, 0xF0)
	pdf.SetFillColor(0xEC, 0xFD, 0xF5)
	pdf.Rect(x, y, cardW, imageH, "FD")
	pdf.SetFillColor(0xFF, 0xFF, 0xFF)
	pdf.Rect(x, y+imageH, cardW, cardH-imageH, "FD")

	if name, ok := registerDrawing(pdf, f, idx); ok {
		side := imageH - 8
		pdf.ImageOptions(name, x+(cardW-side)/2, y+4, side, side, false,
			gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	} else {
		pdf.SetFont("Times", "I", 9)
		pdf.SetTextColor(0x94, 0xA3, 0xB8)
		pdf.SetXY(x, y+imageH/2-3)
		pdf.CellFormat(cardW, 6, "drawing unavailable", "", 0, "C", false, 0, "")
	}

	pdf.SetXY(x+3, y+imageH+3)
	pdf.SetFont("Times", "B", 12)
	pdf.SetTextColor(0x04, 0x78, 0x57)
	pdf.CellFormat(cardW-6, 6, tr(f.Author), "", 2, "L", false, 0, "")
	pdf.SetFont("Times", "", 10)
	pdf.SetTextColor(0x47, 0x55, 0x69)
	date := ""
	if !f.CreatedAt.IsZero() {
		date = f.CreatedAt.Local().Format(dateLayout)
	}
	pdf.CellFormat(cardW-6, 5, date, "", 2, "L", false, 0, "")

	c := f.Color.RGBA()
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
	pdf.Circle(x+6, y+cardH-6, 3, "F")
}

// registerDrawing loads the flower's PNG into the document. Drawings that
// do not decode are skipped so one bad row cannot fail the whole export.
func registerDrawing(pdf *gofpdf.Fpdf, f state.Flower, idx int) (string, bool) {
	raw, err := canvas.DataURLBytes(f.Image)
	if err != nil {
		return "", false
	}
	if _, err := png.DecodeConfig(bytes.NewReader(raw)); err != nil {
		return "", false
	}
	name := fmt.Sprintf("flower-%d", idx)
	pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(raw))
	return name, pdf.Ok()
}
