package export

import (
	"bytes"
	"image"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/INSANE0777/AIS-GARDEN/internal/canvas"
	"github.com/INSANE0777/AIS-GARDEN/internal/state"
)

func flowerImage(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for i := range 16 {
		img.Set(i, i, color.NRGBA{R: 0xF4, G: 0x72, B: 0xB6, A: 0xFF})
	}
	url, err := canvas.EncodeDataURL(img)
	require.NoError(t, err)
	return url
}

func flowers(t *testing.T, n int) []state.Flower {
	img := flowerImage(t)
	out := make([]state.Flower, n)
	for i := range out {
		out[i] = state.Flower{
			ID:        "f",
			Durable:   true,
			AuthorID:  "u",
			Author:    "Zoë",
			Image:     img,
			Position:  state.Position{X: 50, Y: 50},
			Color:     state.Palette[i%len(state.Palette)].Color,
			CreatedAt: time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC),
		}
	}
	return out
}

func TestWriteGallery(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGallery(&buf, flowers(t, 4), time.Now()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWriteGallery_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGallery(&buf, nil, time.Now()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestGalleryDoc_Paginates(t *testing.T) {
	assert.Equal(t, 1, galleryDoc(flowers(t, 6), time.Now()).PageNo())
	assert.Greater(t, galleryDoc(flowers(t, 20), time.Now()).PageNo(), 1)
}

func TestGalleryDoc_SkipsBrokenDrawings(t *testing.T) {
	fs := flowers(t, 3)
	fs[1].Image = "data:image/png;base64,bm90IGEgcG5n"
	fs[2].Image = "not a data url"

	pdf := galleryDoc(fs, time.Now())
	require.NoError(t, pdf.Error())

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
}

func TestWriteGalleryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gallery.pdf")
	require.NoError(t, WriteGalleryFile(path, flowers(t, 2), time.Now()))
	assert.FileExists(t, path)
}
