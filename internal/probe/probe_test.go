package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHeadDoesNotFollowRedirects(t *testing.T) {
	t.Parallel()
	var targetHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/manifest", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		http.Redirect(w, r, "/editions/2024-05-10/manifest.json", http.StatusFound)
	})
	mux.HandleFunc("/editions/", func(w http.ResponseWriter, r *http.Request) {
		targetHits.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(WithTimeout(time.Second))
	resp, err := c.Head(context.Background(), srv.URL+"/manifest")
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("StatusCode = %d, want %d", resp.StatusCode, http.StatusFound)
	}
	if got := resp.Header.Get("Location"); got != "/editions/2024-05-10/manifest.json" {
		t.Fatalf("Location = %q", got)
	}
	if n := targetHits.Load(); n != 0 {
		t.Fatalf("redirect target hit %d times, want 0", n)
	}
}

func TestHeadSendsUserAgent(t *testing.T) {
	t.Parallel()
	var ua atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.UserAgent())
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(WithUserAgent("pubcheck-test"), WithTimeout(0))
	resp, err := c.Head(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("StatusCode = %d", resp.StatusCode)
	}
	if got, _ := ua.Load().(string); got != "pubcheck-test" {
		t.Fatalf("User-Agent = %q, want pubcheck-test", got)
	}
}

func TestHeadTimesOut(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(WithTimeout(50 * time.Millisecond))
	start := time.Now()
	if _, err := c.Head(context.Background(), srv.URL); err == nil {
		t.Fatal("Head() error = nil, want timeout")
	}
	if took := time.Since(start); took > 5*time.Second {
		t.Fatalf("Head took %s, timeout not applied", took)
	}
}

func TestHeadConnectionError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := New().Head(context.Background(), url); err == nil {
		t.Fatal("Head() against closed server = nil error")
	}
}
