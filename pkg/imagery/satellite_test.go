package imagery

import (
	"context"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSatelliteFetcher_Fetch(t *testing.T) {
	tile := encodePNG(t, 32, 32, color.RGBA{G: 120, A: 255})
	var gotPath, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotToken = r.URL.Query().Get("access_token")
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(tile)
	}))
	defer srv.Close()

	f := NewSatelliteFetcher(MapboxConfig{BaseURL: srv.URL + "/", Token: "pk.test"}, 64, srv.Client())
	img, err := f.Fetch(context.Background(), "1 Main St")
	require.NoError(t, err)

	assert.Equal(t, "/styles/v1/mapbox/satellite-v9/static/1%20Main%20St/auto/64x64", gotPath)
	assert.Equal(t, "pk.test", gotToken)
	assert.Equal(t, "satellite:1 Main St", img.Name)
	assert.Equal(t, 64, img.Width)
}

func TestSatelliteFetcher_errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	t.Setenv(envMapboxToken, "")
	noToken := NewSatelliteFetcher(MapboxConfig{BaseURL: srv.URL}, 64, srv.Client())
	_, err := noToken.Fetch(context.Background(), "1 Main St")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access token")

	t.Setenv(envMapboxToken, "pk.env")
	f := NewSatelliteFetcher(MapboxConfig{BaseURL: srv.URL}, 64, srv.Client())
	_, err = f.Fetch(context.Background(), "1 Main St")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 403")

	_, err = f.Fetch(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "address is empty"))
}
