package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"inventory_feed/pkg/core/config"
)

func TestLocateFromListingPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a href="/help">Help</a>
			<a href="/reports/download/2024-03-15.xlsx">Daily Warehouse Stocks</a>
			<a href="/reports/download/2024-03-14.xlsx">Previous Day</a>
		</body></html>`)
	}))
	defer ts.Close()

	c := testClient(t, config.PortalConfig{ListingURL: ts.URL + "/reports"})
	ref, err := c.LocateLatestReport(context.Background())
	if err != nil {
		t.Fatalf("LocateLatestReport failed: %v", err)
	}

	if ref.Title != "Daily Warehouse Stocks" {
		t.Errorf("Title = %q, want first candidate in document order", ref.Title)
	}
	want := ts.URL + "/reports/download/2024-03-15.xlsx"
	if ref.URL != want {
		t.Errorf("URL = %q, want %q", ref.URL, want)
	}
}

func TestLocateFallsBackToListingAPI(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/reports", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="/help">Help</a></body></html>`)
	})
	mux.HandleFunc("/api/reports", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"reports":[{"id":42,"title":"Latest Stocks"},{"id":41,"title":"Older"}]}`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := testClient(t, config.PortalConfig{
		ListingURL:          ts.URL + "/reports",
		ListingAPIURL:       ts.URL + "/api/reports",
		DownloadURLTemplate: ts.URL + "/reports/download/{id}",
	})
	ref, err := c.LocateLatestReport(context.Background())
	if err != nil {
		t.Fatalf("LocateLatestReport failed: %v", err)
	}

	if ref.Title != "Latest Stocks" {
		t.Errorf("Title = %q, want first API entry", ref.Title)
	}
	want := ts.URL + "/reports/download/42"
	if ref.URL != want {
		t.Errorf("URL = %q, want %q", ref.URL, want)
	}
}

func TestLocateStringIdentifiers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/reports", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body></body></html>`)
	})
	mux.HandleFunc("/api/reports", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"reports":[{"id":"abc-123","title":"Latest"}]}`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := testClient(t, config.PortalConfig{
		ListingURL:          ts.URL + "/reports",
		ListingAPIURL:       ts.URL + "/api/reports",
		DownloadURLTemplate: ts.URL + "/dl/{id}",
	})
	ref, err := c.LocateLatestReport(context.Background())
	if err != nil {
		t.Fatalf("LocateLatestReport failed: %v", err)
	}
	if want := ts.URL + "/dl/abc-123"; ref.URL != want {
		t.Errorf("URL = %q, want %q", ref.URL, want)
	}
}

func TestLocateNoReportFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/reports", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="/about">About</a></body></html>`)
	})
	mux.HandleFunc("/api/reports", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"reports":[]}`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := testClient(t, config.PortalConfig{
		ListingURL:          ts.URL + "/reports",
		ListingAPIURL:       ts.URL + "/api/reports",
		DownloadURLTemplate: ts.URL + "/dl/{id}",
	})
	_, err := c.LocateLatestReport(context.Background())
	if !errors.Is(err, ErrNoReport) {
		t.Fatalf("error = %v, want ErrNoReport", err)
	}
}

func TestLocateFatalOnListingError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer ts.Close()

	c := testClient(t, config.PortalConfig{
		ListingURL:    ts.URL + "/reports",
		ListingAPIURL: ts.URL + "/api/reports",
	})
	_, err := c.LocateLatestReport(context.Background())
	if err == nil || errors.Is(err, ErrNoReport) {
		t.Fatalf("listing page transport failure must be fatal, got %v", err)
	}
}
