package imagery

import (
	"context"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
)

// Input names where a rooftop image comes from. A file wins over an address.
type Input struct {
	ImageFile string
	Address   string
}

// Acquirer loads local images or fetches satellite imagery.
type Acquirer struct {
	size    int
	fetcher Fetcher
}

// NewAcquirer returns an Acquirer; fetcher may be nil when only local files
// are expected.
func NewAcquirer(size int, fetcher Fetcher) *Acquirer {
	return &Acquirer{size: size, fetcher: fetcher}
}

// Acquire returns a preprocessed image for in.
func (a *Acquirer) Acquire(ctx context.Context, in Input) (Image, error) {
	switch {
	case strings.TrimSpace(in.ImageFile) != "":
		img, err := LoadFile(in.ImageFile, a.size)
		if err != nil {
			return Image{}, err
		}
		logx.WithContext(ctx).Infof("loaded local image: %s", in.ImageFile)
		return img, nil
	case strings.TrimSpace(in.Address) != "":
		if a.fetcher == nil {
			return Image{}, ErrNoSource
		}
		img, err := a.fetcher.Fetch(ctx, in.Address)
		if err != nil {
			return Image{}, err
		}
		logx.WithContext(ctx).Infof("fetched satellite image for address: %s", in.Address)
		return img, nil
	default:
		return Image{}, ErrNoSource
	}
}
