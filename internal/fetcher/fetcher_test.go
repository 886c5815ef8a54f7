package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
)

// mockClient returns a canned response (or error) and records the request.
type mockClient struct {
	status int
	body   string
	err    error

	lastReq *http.Request
}

func (m *mockClient) Do(req *http.Request) (*http.Response, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.status,
		Body:       io.NopCloser(strings.NewReader(m.body)),
	}, nil
}

func feedXML(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile("../../testdata/sample.xml")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return string(b)
}

func TestFetch(t *testing.T) {
	client := &mockClient{status: http.StatusOK, body: feedXML(t)}
	f := New(client, "https://www.ss.lv/lv/real-estate/flats/riga/rss/", "https://www.ss.lv/lv/real-estate/flats/riga/")

	items, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	if got := client.lastReq.URL.String(); got != "https://www.ss.lv/lv/real-estate/flats/riga/rss/" {
		t.Errorf("request URL = %q", got)
	}
	if ua := client.lastReq.Header.Get("User-Agent"); ua == "" {
		t.Error("expected User-Agent header")
	}

	first := items[0]
	if first.Link == "" || first.Title == "" || first.Description == "" {
		t.Errorf("incomplete item: %+v", first)
	}
	if first.PubDate == nil {
		t.Error("expected parsed pub date")
	}
}

func TestFetchErrorStatus(t *testing.T) {
	client := &mockClient{status: http.StatusServiceUnavailable, body: "down"}
	f := New(client, "https://example.test/rss/", "https://example.test/")

	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestFetchNetworkError(t *testing.T) {
	client := &mockClient{err: errors.New("connection refused")}
	f := New(client, "https://example.test/rss/", "https://example.test/")

	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for transport failure")
	}
}

func TestFetchMalformedFeed(t *testing.T) {
	client := &mockClient{status: http.StatusOK, body: "<html>not a feed</html>"}
	f := New(client, "https://example.test/rss/", "https://example.test/")

	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for malformed feed")
	}
}

func TestFetchDistrictURL(t *testing.T) {
	priceMin := int64(50000)
	priceMax := int64(150000)
	roomsMin := 2.0

	tests := []struct {
		name      string
		district  string
		bounds    Bounds
		wantPath  string
		wantQuery map[string]string
	}{
		{
			name:      "no bounds",
			district:  "centre",
			bounds:    Bounds{},
			wantPath:  "/lv/real-estate/flats/riga/centre/rss/",
			wantQuery: map[string]string{},
		},
		{
			name:     "price and rooms bounds",
			district: "teika",
			bounds:   Bounds{PriceMin: &priceMin, PriceMax: &priceMax, RoomsMin: &roomsMin},
			wantPath: "/lv/real-estate/flats/riga/teika/rss/",
			wantQuery: map[string]string{
				"topt[8][min]": "50000",
				"topt[8][max]": "150000",
				"topt[1][min]": "2",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{status: http.StatusOK, body: feedXML(t)}
			f := New(client, "https://www.ss.lv/lv/real-estate/flats/riga/rss/", "https://www.ss.lv/lv/real-estate/flats/riga/")

			if _, err := f.FetchDistrict(context.Background(), tt.district, tt.bounds); err != nil {
				t.Fatalf("fetch district: %v", err)
			}

			u := client.lastReq.URL
			if u.Path != tt.wantPath {
				t.Errorf("path = %q, want %q", u.Path, tt.wantPath)
			}
			q := u.Query()
			if len(q) != len(tt.wantQuery) {
				t.Errorf("query params = %v, want %v", q, tt.wantQuery)
			}
			for k, want := range tt.wantQuery {
				if got := q.Get(k); got != want {
					t.Errorf("query %q = %q, want %q", k, got, want)
				}
			}
		})
	}
}
