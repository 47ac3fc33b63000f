package releasefilter_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"lmbridge/internal/provider"
	"lmbridge/internal/releasefilter"
)

type recordingPoster struct {
	mu    sync.Mutex
	urls  []string
	fail  error
	calls int
}

func (p *recordingPoster) Post(_ context.Context, url string, _ []byte, contentType string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if contentType != releasefilter.ContentType {
		return errors.New("unexpected content type " + contentType)
	}
	if p.fail != nil {
		return p.fail
	}
	p.urls = append(p.urls, url)
	return nil
}

func samplePayload(enabled bool) releasefilter.Payload {
	def := bridgeDefinition(enabled, &provider.BridgeSettings{SourceURL: "http://bridge"})
	payload, _ := releasefilter.Build(def, "2.9.6", "")
	return payload
}

func TestDispatchDebouncesUnchangedPayload(t *testing.T) {
	poster := &recordingPoster{}
	dispatcher := releasefilter.NewDispatcher(poster)
	ctx := context.Background()

	res, err := dispatcher.Dispatch(ctx, "http://bridge:5001//", samplePayload(true), false)
	if err != nil || !res.Sent {
		t.Fatalf("first dispatch: %+v err=%v", res, err)
	}
	if res.Endpoint != "http://bridge:5001/config/release-filter" {
		t.Fatalf("endpoint = %s", res.Endpoint)
	}

	res, err = dispatcher.Dispatch(ctx, "http://bridge:5001", samplePayload(true), false)
	if err != nil || res.Sent || !res.Skipped {
		t.Fatalf("expected debounce skip, got %+v err=%v", res, err)
	}
	if poster.calls != 1 {
		t.Fatalf("expected 1 post, got %d", poster.calls)
	}

	if res, _ := dispatcher.Dispatch(ctx, "http://bridge:5001", samplePayload(true), true); !res.Sent {
		t.Fatal("forced dispatch must post even when unchanged")
	}
	if res, _ := dispatcher.Dispatch(ctx, "http://bridge:5001", samplePayload(false), false); !res.Sent {
		t.Fatal("changed payload must post")
	}
	if poster.calls != 3 {
		t.Fatalf("expected 3 posts, got %d", poster.calls)
	}
}

func TestDispatchFailureKeepsCache(t *testing.T) {
	poster := &recordingPoster{fail: errors.New("connection refused")}
	dispatcher := releasefilter.NewDispatcher(poster)
	ctx := context.Background()

	if _, err := dispatcher.Dispatch(ctx, "http://bridge", samplePayload(true), false); err == nil {
		t.Fatal("expected dispatch error")
	}
	if dispatcher.Last() != "" {
		t.Fatalf("cache updated after failure: %q", dispatcher.Last())
	}

	poster.fail = nil
	res, err := dispatcher.Dispatch(ctx, "http://bridge", samplePayload(true), false)
	if err != nil || !res.Sent {
		t.Fatalf("expected retry to post, got %+v err=%v", res, err)
	}
}

func TestDispatchSkipsBlankURL(t *testing.T) {
	poster := &recordingPoster{}
	res, err := releasefilter.NewDispatcher(poster).Dispatch(context.Background(), "  ", samplePayload(true), true)
	if err != nil || !res.Skipped || poster.calls != 0 {
		t.Fatalf("expected blank url skip, got %+v calls=%d err=%v", res, poster.calls, err)
	}
}

func TestClientPostsJSON(t *testing.T) {
	var (
		gotBody []byte
		gotType string
		gotPath string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := releasefilter.NewClient(time.Second, "lmbridge/test")
	dispatcher := releasefilter.NewDispatcher(client)
	res, err := dispatcher.Dispatch(context.Background(), server.URL+"/", samplePayload(true), false)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if gotPath != releasefilter.EndpointPath {
		t.Fatalf("path = %s", gotPath)
	}
	if gotType != releasefilter.ContentType {
		t.Fatalf("content type = %s", gotType)
	}
	if string(gotBody) != res.Body {
		t.Fatalf("body = %s, want %s", gotBody, res.Body)
	}
}

func TestClientTreatsErrorStatusAsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	defer server.Close()

	client := releasefilter.NewClient(time.Second, "")
	if err := client.Post(context.Background(), releasefilter.Endpoint(server.URL), []byte("{}"), releasefilter.ContentType); err == nil {
		t.Fatal("expected error for 400 response")
	}
}
