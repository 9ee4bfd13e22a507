package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func photoSearchServer(t *testing.T, photos []photoResult) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/photos/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("safe") != "1" {
			t.Error("search request missing safe filter")
		}
		if r.URL.Query().Get("license") == "" {
			t.Error("search request missing license filter")
		}
		json.NewEncoder(w).Encode(photoSearchResponse{Photos: photos})
	})
	return httptest.NewServer(mux)
}

func TestFindPhotoPicksFirstFitting(t *testing.T) {
	srv := photoSearchServer(t, []photoResult{
		{ID: "1", Title: "too wide", URL: "http://img/1", Width: 2000, Height: 900},
		{ID: "2", Title: "too short", URL: "http://img/2", Width: 1000, Height: 300},
		{ID: "3", Title: "just right", URL: "http://img/3", Width: 1024, Height: 768},
		{ID: "4", Title: "also fits", URL: "http://img/4", Width: 900, Height: 700},
	})
	defer srv.Close()

	c := NewPhotoClient(srv.Client(), srv.URL, "key")
	photo := c.FindPhoto(context.Background(), time.Now())
	if photo == nil {
		t.Fatal("FindPhoto() = nil, want a photo")
	}
	if photo.Title != "just right" {
		t.Errorf("FindPhoto() picked %q, want first fitting result", photo.Title)
	}
	if photo.Width != 1024 || photo.Height != 768 {
		t.Errorf("photo dimensions = %dx%d", photo.Width, photo.Height)
	}
}

func TestFindPhotoNoneQualify(t *testing.T) {
	srv := photoSearchServer(t, []photoResult{
		{ID: "1", URL: "http://img/1", Width: 100, Height: 100},
	})
	defer srv.Close()

	c := NewPhotoClient(srv.Client(), srv.URL, "key")
	if photo := c.FindPhoto(context.Background(), time.Now()); photo != nil {
		t.Errorf("FindPhoto() = %+v, want nil", photo)
	}
}

func TestFindPhotoSearchFailureIsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewPhotoClient(srv.Client(), srv.URL, "key")
	if photo := c.FindPhoto(context.Background(), time.Now()); photo != nil {
		t.Errorf("FindPhoto() on API failure = %+v, want nil", photo)
	}
}

func TestFindPhotoUnconfigured(t *testing.T) {
	c := NewPhotoClient(nil, "", "")
	if photo := c.FindPhoto(context.Background(), time.Now()); photo != nil {
		t.Errorf("FindPhoto() with no base URL = %+v, want nil", photo)
	}
}

func TestFindPhotoProbesMissingDimensions(t *testing.T) {
	// Encode a real 1000x700 PNG for the probe to decode.
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1000, 700))); err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/rendition.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(buf.Bytes())
	})
	imgSrv := httptest.NewServer(mux)
	defer imgSrv.Close()

	srv := photoSearchServer(t, []photoResult{
		{ID: "1", Title: "undimensioned", URL: fmt.Sprintf("%s/rendition.png", imgSrv.URL)},
	})
	defer srv.Close()

	c := NewPhotoClient(srv.Client(), srv.URL, "key")
	photo := c.FindPhoto(context.Background(), time.Now())
	if photo == nil {
		t.Fatal("FindPhoto() = nil, want probed photo")
	}
	if photo.Width != 1000 || photo.Height != 700 {
		t.Errorf("probed dimensions = %dx%d, want 1000x700", photo.Width, photo.Height)
	}
}
