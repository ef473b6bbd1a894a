package httpfetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"rentcomps/internal/adapters/httpfetch"
	"rentcomps/internal/domain"
)

func TestClient_Get_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			w.WriteHeader(200)
			_, _ = w.Write([]byte(`{"listings":[]}`))
		}
	}))
	defer ts.Close()

	cl := httpfetch.New(100, time.Second, "test-agent") // high RPS for tests
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	got, err := cl.Get(ctx, "test", domain.FetchRequest{URL: ts.URL})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if string(got) != `{"listings":[]}` {
		t.Fatalf("unexpected payload: %s", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_Get_404(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl := httpfetch.New(100, time.Second, "")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := cl.Get(ctx, "test", domain.FetchRequest{URL: ts.URL})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_Get_SendsHeaders(t *testing.T) {
	var gotKey, gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(200)
	}))
	defer ts.Close()

	cl := httpfetch.New(100, time.Second, "compscan/test")
	_, err := cl.Get(context.Background(), "test", domain.FetchRequest{
		URL:     ts.URL,
		Headers: map[string]string{"X-Api-Key": "k"},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if gotKey != "k" || gotUA != "compscan/test" {
		t.Fatalf("headers not forwarded: key=%q ua=%q", gotKey, gotUA)
	}
}

func TestClient_Get_StatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("nope"))
	}))
	defer ts.Close()

	cl := httpfetch.New(100, time.Second, "")
	_, err := cl.Get(context.Background(), "test", domain.FetchRequest{URL: ts.URL})
	var se *httpfetch.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusTeapot || se.Body != "nope" {
		t.Fatalf("expected StatusError 418, got %v", err)
	}
}

func TestClient_FetchAll_KeepsOrderAndIsolatesFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("A")) })
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) })
	mux.HandleFunc("/c", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		_, _ = w.Write([]byte("C"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	cl := httpfetch.New(100, time.Second, "")
	out := cl.FetchAll(context.Background(), "test", []domain.FetchRequest{
		{URL: ts.URL + "/c"}, {URL: ts.URL + "/b"}, {URL: ts.URL + "/a"},
	})
	if len(out) != 3 {
		t.Fatalf("want 3 payloads, got %d", len(out))
	}
	if string(out[0].Body) != "C" || out[0].Err != nil {
		t.Fatalf("slot 0: %+v", out[0])
	}
	if !errors.Is(out[1].Err, domain.ErrNotFound) {
		t.Fatalf("slot 1 should be not found, got %v", out[1].Err)
	}
	if string(out[2].Body) != "A" || out[2].URL != ts.URL+"/a" {
		t.Fatalf("slot 2: %+v", out[2])
	}
}
