package imagery

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPreprocess(t *testing.T) {
	src := encodePNG(t, 40, 20, color.RGBA{R: 200, A: 255})

	img, err := Preprocess("roof.png", bytes.NewReader(src), 64)
	require.NoError(t, err)
	assert.Equal(t, "roof.png", img.Name)
	assert.Equal(t, 64, img.Width)
	assert.Equal(t, 64, img.Height)
	assert.Len(t, img.Digest, 64)
	assert.Equal(t, Digest(img.Data), img.Digest)

	decoded, err := png.Decode(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), decoded.Bounds())

	again, err := Preprocess("other.png", bytes.NewReader(src), 64)
	require.NoError(t, err)
	assert.Equal(t, img.Digest, again.Digest, "same pixels give the same digest")
}

func TestPreprocess_defaultSizeAndJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8)), nil))

	img, err := Preprocess("roof.jpg", &buf, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Width)
	assert.False(t, img.Empty())
	assert.True(t, strings.HasPrefix(img.DataURL(), "data:image/png;base64,"))
}

func TestPreprocess_undecodable(t *testing.T) {
	_, err := Preprocess("roof.png", strings.NewReader("not an image"), 32)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode roof.png")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roof.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, 4, 4, color.White), 0o600))

	img, err := LoadFile(path, 16)
	require.NoError(t, err)
	assert.Equal(t, "roof.png", img.Name)
	assert.Equal(t, 16, img.Width)

	_, err = LoadFile(filepath.Join(dir, "missing.png"), 16)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadLimited(t *testing.T) {
	data, err := ReadLimited(strings.NewReader("12345"), 5)
	require.NoError(t, err)
	assert.Equal(t, "12345", string(data))

	_, err = ReadLimited(strings.NewReader("123456"), 5)
	assert.ErrorIs(t, err, ErrTooLarge)

	data, err = ReadLimited(strings.NewReader("123456"), 0)
	require.NoError(t, err)
	assert.Len(t, data, 6)
}
