package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseNominatimItems(t *testing.T) {
	items := []nominatimItem{
		{
			Lat:         "38.7077",
			Lon:         "-9.1365",
			DisplayName: "Rua Augusta, Lisboa, Portugal",
			Importance:  0.72,
		},
	}
	res, err := parseNominatimItems(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Lat != 38.7077 || res.Lon != -9.1365 {
		t.Fatalf("unexpected coordinates: %+v", res)
	}
	if res.Confidence != 0.72 {
		t.Fatalf("unexpected confidence: %f", res.Confidence)
	}
}

func TestParseNominatimItemsEmpty(t *testing.T) {
	if _, err := parseNominatimItems(nil); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNominatimGeocoderCaches(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		fmt.Fprint(w, `[{"lat":"38.7","lon":"-9.1","display_name":"Lisbon","importance":0.5}]`)
	}))
	defer srv.Close()

	g := &NominatimGeocoder{BaseURL: srv.URL, UserAgent: "test-agent", Client: srv.Client()}
	for i := 0; i < 2; i++ {
		res, err := g.Geocode(context.Background(), "Lisbon")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.DisplayName != "Lisbon" {
			t.Fatalf("unexpected result: %+v", res)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one upstream call, got %d", calls)
	}
}

func TestNewNominatimGeocoderDefaults(t *testing.T) {
	g := NewNominatimGeocoder("", "")
	if g.Client == nil || g.BaseURL != "https://nominatim.openstreetmap.org" || g.UserAgent != "hotelops-backend" || g.MinInterval != time.Second {
		t.Fatalf("defaults not applied: %+v", g)
	}
}

func TestNominatimGeocoderConcurrentFirstUse(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("User-Agent") != "hotelops-backend" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		fmt.Fprintf(w, `[{"lat":"38.7","lon":"-9.1","display_name":%q,"importance":0.5}]`, r.URL.Query().Get("q"))
	}))
	defer srv.Close()

	g := &NominatimGeocoder{BaseURL: srv.URL, MinInterval: time.Millisecond}
	queries := []string{"Lisbon", "Porto", "Faro", "Braga"}
	var wg sync.WaitGroup
	errs := make(chan error, len(queries))
	for _, q := range queries {
		wg.Add(1)
		go func(q string) {
			defer wg.Done()
			res, err := g.Geocode(context.Background(), q)
			if err == nil && res.DisplayName != q {
				err = fmt.Errorf("query %s answered with %s", q, res.DisplayName)
			}
			errs <- err
		}(q)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if int(calls.Load()) != len(queries) {
		t.Fatalf("expected %d upstream calls, got %d", len(queries), calls.Load())
	}
}
