package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapOpener map[string][]byte

func (m mapOpener) Open(id string) (io.ReadCloser, error) {
	data, ok := m[id]
	if !ok {
		return nil, errors.New("asset not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestProbe_References(t *testing.T) {
	img := pngBytes(t, 40, 20)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chair.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(img)
	}))
	defer srv.Close()

	p := NewProber(mapOpener{"chair": img})

	tests := []struct {
		name    string
		ref     string
		wantErr bool
	}{
		{"asset", "asset:chair", false},
		{"data url", "data:image/png;base64," + base64.StdEncoding.EncodeToString(img), false},
		{"http", srv.URL + "/chair.png", false},
		{"http 404", srv.URL + "/missing.png", true},
		{"missing asset", "asset:nope", true},
		{"not an image", "data:text/plain,hello", true},
		{"unknown scheme", "ftp://example.com/a.png", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, err := p.Probe(context.Background(), tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 40, w)
			assert.Equal(t, 20, h)
		})
	}
}

func TestProbe_UnsupportedRef(t *testing.T) {
	_, _, err := NewProber(nil).Probe(context.Background(), "asset:x")
	assert.ErrorIs(t, err, ErrUnsupportedRef)
	_, _, err = NewProber(nil).Probe(context.Background(), "/tmp/chair.png")
	assert.ErrorIs(t, err, ErrUnsupportedRef)
	_, _, err = NewProber(nil, WithRemoteImages(false)).Probe(context.Background(), "https://example.com/chair.png")
	assert.ErrorIs(t, err, ErrUnsupportedRef)
}

func TestProbe_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err := NewProber(nil).Probe(ctx, srv.URL+"/slow.png")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestDecodeDataURL(t *testing.T) {
	data, err := DecodeDataURL("data:text/plain,hello%20world")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	data, err = DecodeDataURL("data:;base64,aGk=")
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))

	_, err = DecodeDataURL("data:image/png;base64")
	assert.Error(t, err)
}
