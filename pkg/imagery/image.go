package imagery

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	"image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

// DefaultSize is the edge length, in pixels, of preprocessed images.
const DefaultSize = 512

var (
	// ErrNotFound is returned when a local image file does not exist.
	ErrNotFound = errors.New("imagery: image file not found")
	// ErrNoSource is returned when neither a file nor an address was given.
	ErrNoSource = errors.New("imagery: no address or image file provided")
	// ErrTooLarge is returned when an upload exceeds the configured limit.
	ErrTooLarge = errors.New("imagery: image exceeds upload limit")
)

// Image is a preprocessed rooftop photo, PNG encoded.
type Image struct {
	Name   string
	Data   []byte
	Width  int
	Height int
	Digest string
}

// DataURL returns the image as a base64 data URL suitable for vision APIs.
func (i Image) DataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Empty reports whether the image carries no pixel data.
func (i Image) Empty() bool { return len(i.Data) == 0 }

// Preprocess decodes r, converts it to RGBA, scales it to size×size and
// re-encodes it as PNG. A non-positive size selects DefaultSize.
func Preprocess(name string, r io.Reader, size int) (Image, error) {
	if size <= 0 {
		size = DefaultSize
	}
	src, format, err := image.Decode(r)
	if err != nil {
		return Image{}, fmt.Errorf("imagery: decode %s: %w", name, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return Image{}, fmt.Errorf("imagery: encode %s (from %s): %w", name, format, err)
	}
	data := buf.Bytes()
	return Image{
		Name:   name,
		Data:   data,
		Width:  size,
		Height: size,
		Digest: Digest(data),
	}, nil
}

// LoadFile reads and preprocesses a local image.
func LoadFile(path string, size int) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Image{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Image{}, fmt.Errorf("imagery: open %s: %w", path, err)
	}
	defer f.Close()
	return Preprocess(filepath.Base(path), f, size)
}

// ReadLimited reads at most limit bytes from r, failing with ErrTooLarge when
// more are available. A non-positive limit disables the check.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}

// Digest returns the hex sha256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
