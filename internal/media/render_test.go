package media

import (
	"bytes"
	"image"
	_ "image/jpeg"
	"testing"

	"postdeck/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_DownscalesImages(t *testing.T) {
	r := NewRenderer(16)
	content := pngBytes(t, 64, 32)

	out, err := r.Render(item("a"), content, "jpeg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", out.ContentType)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out.Content))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 16, cfg.Width)
	assert.Equal(t, 8, cfg.Height)
}

func TestRenderer_WebP(t *testing.T) {
	r := NewRenderer(0)
	out, err := r.Render(item("a"), pngBytes(t, 8, 8), "webp")
	require.NoError(t, err)
	assert.Equal(t, "image/webp", out.ContentType)
	assert.NotEmpty(t, out.Content)
}

func TestRenderer_PassThrough(t *testing.T) {
	r := NewRenderer(0)
	clip := models.MediaItem{ID: "v", Filename: "v.mp4", ContentType: "video/mp4", Kind: models.MediaKindVideo}

	out, err := r.Render(clip, []byte("video"), "webp")
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", out.ContentType)
	assert.Equal(t, []byte("video"), out.Content)

	pic := pngBytes(t, 2, 2)
	out, err = r.Render(item("a"), pic, "")
	require.NoError(t, err)
	assert.Equal(t, pic, out.Content)
}

func TestRenderer_CorruptImage(t *testing.T) {
	_, err := NewRenderer(0).Render(item("a"), []byte("not an image"), "jpeg")
	assert.Error(t, err)
}

func TestNormalizeFormat(t *testing.T) {
	assert.Equal(t, FormatWebP, NormalizeFormat(" WEBP "))
	assert.Equal(t, FormatJPEG, NormalizeFormat("jpg"))
	assert.Equal(t, FormatOriginal, NormalizeFormat("tiff"))
}
