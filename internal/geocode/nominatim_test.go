package geocode

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaimegago/geoai/internal/geo"
)

const bangkokSearch = `[{"place_id":1,"lat":"13.7563","lon":"100.5018","display_name":"Bangkok, Thailand"}]`

const bangkokReverse = `{"place_id":2,"lat":"13.7563309","lon":"100.5017651","display_name":"Phra Nakhon District, Bangkok, 10200, Thailand"}`

// newTestClient starts a server answering every request with handler and
// counts the requests it receives.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL, UserAgent: "geoai_test", Timeout: 2 * time.Second},
		WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c, &calls
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "defaults", cfg: Config{}},
		{name: "custom base URL", cfg: Config{BaseURL: "http://localhost:8080/"}},
		{name: "unsupported scheme", cfg: Config{BaseURL: "ftp://example.com"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if c.cfg.UserAgent == "" || c.cfg.Timeout != DefaultTimeout {
				t.Errorf("New() did not apply defaults: %+v", c.cfg)
			}
		})
	}
}

func TestForward(t *testing.T) {
	var gotPath, gotQuery, gotAgent string
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		gotAgent = r.Header.Get("User-Agent")
		if r.URL.Query().Get("format") != "jsonv2" || r.URL.Query().Get("limit") != "1" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(bangkokSearch))
	})

	place, err := c.Forward(context.Background(), "  Bangkok ")
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("made %d requests, want 1", calls.Load())
	}
	if gotPath != "/search" || gotQuery != "Bangkok" {
		t.Errorf("request = %s?q=%s, want /search?q=Bangkok", gotPath, gotQuery)
	}
	if gotAgent != "geoai_test" {
		t.Errorf("User-Agent = %q, want geoai_test", gotAgent)
	}
	if !place.Found() {
		t.Fatal("Forward() returned empty place")
	}
	if math.Abs(place.Coordinates().Lat()-13.7563) > 0.01 || math.Abs(place.Coordinates().Lon()-100.5018) > 0.01 {
		t.Errorf("Forward() coordinates = %v", place.Coordinates())
	}
	if place.Name() != "Bangkok, Thailand" {
		t.Errorf("Forward() name = %q", place.Name())
	}
}

func TestForward_BlankNameMakesNoRequest(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(bangkokSearch))
	})

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := c.Forward(context.Background(), name)
		if !errors.Is(err, geo.ErrInvalidInput) {
			t.Errorf("Forward(%q) error = %v, want ErrInvalidInput", name, err)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("made %d requests, want 0", calls.Load())
	}
}

func TestForward_NoMatch(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	place, err := c.Forward(context.Background(), "Atlantis")
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if place.Found() {
		t.Errorf("Forward() = %+v, want empty place", place)
	}
}

func TestForward_ServiceFailures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "overloaded", http.StatusServiceUnavailable)
			},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>not json</html>`))
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "unparseable latitude",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[{"lat":"north","lon":"1","display_name":"x"}]`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, tt.handler)

			_, err := c.Forward(context.Background(), "Bangkok")
			if !errors.Is(err, geo.ErrServiceUnavailable) {
				t.Fatalf("Forward() error = %v, want ErrServiceUnavailable", err)
			}
			if errors.Is(err, geo.ErrInvalidInput) {
				t.Errorf("service failure should not match ErrInvalidInput: %v", err)
			}
			var svcErr *ServiceError
			if !errors.As(err, &svcErr) {
				t.Fatalf("error %T is not a *ServiceError", err)
			}
			if svcErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", svcErr.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestForward_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = c.Forward(context.Background(), "Bangkok")
	if !errors.Is(err, geo.ErrServiceUnavailable) {
		t.Errorf("Forward() error = %v, want ErrServiceUnavailable", err)
	}
}

func TestReverse(t *testing.T) {
	var gotLat, gotLon string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("path = %s, want /reverse", r.URL.Path)
		}
		gotLat = r.URL.Query().Get("lat")
		gotLon = r.URL.Query().Get("lon")
		w.Write([]byte(bangkokReverse))
	})

	place, err := c.Reverse(context.Background(), geo.MustCoordinates(13.7563, 100.5018))
	if err != nil {
		t.Fatalf("Reverse() error = %v", err)
	}
	if gotLat != "13.7563" || gotLon != "100.5018" {
		t.Errorf("query lat=%s lon=%s", gotLat, gotLon)
	}
	if !strings.Contains(place.Name(), "Bangkok") {
		t.Errorf("Reverse() name = %q, want it to contain Bangkok", place.Name())
	}
}

func TestReverse_UnableToGeocode(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"Unable to geocode"}`))
	})

	place, err := c.Reverse(context.Background(), geo.MustCoordinates(0, 0))
	if err != nil {
		t.Fatalf("Reverse() error = %v", err)
	}
	if place.Found() {
		t.Errorf("Reverse() = %+v, want empty place", place)
	}
}

func TestReverse_LanguageParameter(t *testing.T) {
	var gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.URL.Query().Get("accept-language")
		w.Write([]byte(bangkokReverse))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, Language: "fr"}, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := c.Reverse(context.Background(), geo.MustCoordinates(13.7563, 100.5018)); err != nil {
		t.Fatalf("Reverse() error = %v", err)
	}
	if gotLang != "fr" {
		t.Errorf("accept-language = %q, want fr", gotLang)
	}
}
