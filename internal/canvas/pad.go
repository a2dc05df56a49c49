package canvas

import (
	"image"
	"image/color"
	"sync"
)

// Pad is one drawing session: the buffer being drawn on plus the message
// shown under it. A rejected plant sets the message; the next stroke clears it.
type Pad struct {
	mu      sync.Mutex
	buf     *Buffer
	message string
}

// NewPad returns an empty DefaultSize pad.
func NewPad() *Pad {
	return &Pad{buf: NewBuffer(DefaultSize, DefaultSize)}
}

// NewPadFromImage returns a pad preloaded with img, scaled to DefaultSize.
func NewPadFromImage(img image.Image) *Pad {
	return &Pad{buf: FromImage(img)}
}

func (p *Pad) BeginStroke(pt Point, c color.Color) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.message = ""
	p.buf.BeginStroke(pt, c)
}

func (p *Pad) StrokeTo(pt Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buf.StrokeTo(pt)
}

func (p *Pad) EndStroke() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buf.EndStroke()
}

// Clear wipes the drawing.
func (p *Pad) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buf.Clear()
}

// Accept validates the drawing and, if it is a flower, encodes it as a PNG
// data URL under the same lock, so the submitted image is the one checked.
// A rejected drawing returns an empty image and sets the pad message.
func (p *Pad) Accept() (Verdict, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	img := p.buf.Image()
	v := Validate(img)
	if !v.Accepted {
		p.message = v.Reason
		return v, "", nil
	}
	data, err := EncodeDataURL(img)
	if err != nil {
		return v, "", err
	}
	return v, data, nil
}

// Image returns a copy of the drawing for display.
func (p *Pad) Image() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Clone()
}

// Message returns the text to show under the pad, if any.
func (p *Pad) Message() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.message
}
