package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"lmbridge/internal/provider"
	"lmbridge/internal/store"
)

type fakeDefinitions struct {
	defs      []*provider.Definition
	updates   []*provider.Definition
	allErr    error
	updateErr error
}

func (f *fakeDefinitions) All(context.Context) ([]*provider.Definition, error) {
	if f.allErr != nil {
		return nil, f.allErr
	}
	out := make([]*provider.Definition, 0, len(f.defs))
	for _, def := range f.defs {
		out = append(out, def.Clone())
	}
	return out, nil
}

func (f *fakeDefinitions) Update(_ context.Context, def *provider.Definition) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, def.Clone())
	for i, existing := range f.defs {
		if existing.ID == def.ID {
			f.defs[i] = def.Clone()
			return nil
		}
	}
	return errors.New("definition not found")
}

func (f *fakeDefinitions) get(id int64) *provider.Definition {
	for _, def := range f.defs {
		if def.ID == id {
			return def.Clone()
		}
	}
	return nil
}

type fakeSlot struct {
	value    string
	writes   []string
	readErr  error
	writeErr error
}

func (f *fakeSlot) MetadataSource(context.Context) (string, error) {
	if f.readErr != nil {
		return "", f.readErr
	}
	return f.value, nil
}

func (f *fakeSlot) SetMetadataSource(_ context.Context, value string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, value)
	f.value = value
	return nil
}

type fakeMarkers struct {
	present  map[string]string
	writes   int
	writeErr error
}

func newFakeMarkers() *fakeMarkers {
	return &fakeMarkers{present: map[string]string{}}
}

func (f *fakeMarkers) Exists(path string) bool {
	_, ok := f.present[path]
	return ok
}

func (f *fakeMarkers) EnsureDirectory(string) error { return nil }

func (f *fakeMarkers) WriteText(path, content string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes++
	f.present[path] = content
	return nil
}

type postedRequest struct {
	url  string
	body string
}

type fakePoster struct {
	posts []postedRequest
	err   error
}

func (f *fakePoster) Post(_ context.Context, url string, body []byte, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.posts = append(f.posts, postedRequest{url: url, body: string(body)})
	return nil
}

type fakeLibrary struct {
	albums  []store.Album
	batches [][]store.RefreshCommand
	listErr error
	pushErr error
}

func (f *fakeLibrary) ListAlbums(context.Context) ([]store.Album, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.albums, nil
}

func (f *fakeLibrary) PushMany(_ context.Context, commands []store.RefreshCommand) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.batches = append(f.batches, commands)
	return nil
}

// recordingHandler keeps every log record so tests can assert on warnings.
type recordingHandler struct {
	mu      sync.Mutex
	records *[]slog.Record
}

func newRecordingLogger() (*slog.Logger, *[]slog.Record) {
	records := &[]slog.Record{}
	return slog.New(&recordingHandler{records: records}), records
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	*h.records = append(*h.records, r.Clone())
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

func warningTypes(records []slog.Record) []string {
	var out []string
	for _, r := range records {
		if r.Level != slog.LevelWarn {
			continue
		}
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == "event_type" {
				out = append(out, a.Value.String())
			}
			return true
		})
	}
	return out
}
