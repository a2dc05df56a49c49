package canvas

import "image"

const (
	// MinInkPixels is how many non-transparent pixels a drawing needs on a
	// DefaultSize pad before it is accepted as a flower.
	MinInkPixels = 50
	// RejectMessage is shown when a drawing is too sparse to plant.
	RejectMessage = "This is not a flower"
)

// Verdict is the outcome of Validate.
type Verdict struct {
	Accepted bool
	Reason   string
	Ink      int
}

// Validate counts pixels with any alpha and accepts the drawing iff there are
// at least MinInkPixels of them. It does not modify img.
func Validate(img image.Image) Verdict {
	ink := CountInk(img)
	if ink < MinInkPixels {
		return Verdict{Reason: RejectMessage, Ink: ink}
	}
	return Verdict{Accepted: true, Ink: ink}
}

// CountInk returns the number of pixels whose alpha is above zero.
func CountInk(img image.Image) int {
	n := 0
	switch m := img.(type) {
	case *image.RGBA:
		for i := 3; i < len(m.Pix); i += 4 {
			if m.Pix[i] > 0 {
				n++
			}
		}
	case *image.NRGBA:
		for i := 3; i < len(m.Pix); i += 4 {
			if m.Pix[i] > 0 {
				n++
			}
		}
	default:
		r := img.Bounds()
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
					n++
				}
			}
		}
	}
	return n
}
