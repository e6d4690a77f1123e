package imagery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	defaultMapboxBaseURL = "https://api.mapbox.com"
	defaultMapboxStyle   = "mapbox/satellite-v9"
	envMapboxToken       = "MAPBOX_ACCESS_TOKEN"
)

// Config controls image acquisition.
type Config struct {
	Size           int          `json:",default=512"`
	MaxUploadBytes int64        `json:",default=10485760"`
	Mapbox         MapboxConfig `json:",optional"`
}

// MapboxConfig locates the static satellite imagery API.
type MapboxConfig struct {
	BaseURL string `json:",optional"`
	Style   string `json:",optional"`
	Token   string `json:",optional"`
	Timeout string `json:",default=15s"`
}

// Fetcher retrieves a satellite image for an address.
type Fetcher interface {
	Fetch(ctx context.Context, address string) (Image, error)
}

// SatelliteFetcher downloads satellite tiles from the Mapbox static images API.
type SatelliteFetcher struct {
	baseURL    string
	style      string
	token      string
	size       int
	httpClient *http.Client
}

// NewSatelliteFetcher builds a fetcher. The access token falls back to
// MAPBOX_ACCESS_TOKEN; a nil httpClient gets one with the configured timeout.
func NewSatelliteFetcher(cfg MapboxConfig, size int, httpClient *http.Client) *SatelliteFetcher {
	if size <= 0 {
		size = DefaultSize
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultMapboxBaseURL
	}
	style := strings.Trim(strings.TrimSpace(cfg.Style), "/")
	if style == "" {
		style = defaultMapboxStyle
	}
	token := strings.TrimSpace(os.ExpandEnv(cfg.Token))
	if token == "" {
		token = os.Getenv(envMapboxToken)
	}
	if httpClient == nil {
		timeout, err := time.ParseDuration(cfg.Timeout)
		if err != nil || timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &SatelliteFetcher{
		baseURL:    base,
		style:      style,
		token:      token,
		size:       size,
		httpClient: httpClient,
	}
}

// Fetch downloads and preprocesses the satellite image centred on address.
func (f *SatelliteFetcher) Fetch(ctx context.Context, address string) (Image, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Image{}, errors.New("imagery: address is empty")
	}
	if f.token == "" {
		return Image{}, errors.New("imagery: mapbox access token is not configured")
	}

	endpoint := fmt.Sprintf("%s/styles/v1/%s/static/%s/auto/%dx%d?access_token=%s",
		f.baseURL, f.style, url.PathEscape(address), f.size, f.size, url.QueryEscape(f.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Image{}, fmt.Errorf("imagery: build satellite request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("imagery: fetch satellite image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Image{}, fmt.Errorf("imagery: satellite api returned http %d", resp.StatusCode)
	}

	data, err := ReadLimited(resp.Body, 0)
	if err != nil {
		return Image{}, fmt.Errorf("imagery: read satellite image: %w", err)
	}
	return Preprocess("satellite:"+address, bytes.NewReader(data), f.size)
}
