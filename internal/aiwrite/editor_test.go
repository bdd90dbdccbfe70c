package aiwrite

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/stickytab/internal/notes"
	"github.com/xaenox/stickytab/internal/storage"
	"go.uber.org/zap"
)

type recorder struct {
	mu    sync.Mutex
	texts []string
	seen  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{seen: make(chan struct{}, 64)}
}

func (r *recorder) ShowText(_, text string) {
	r.mu.Lock()
	r.texts = append(r.texts, text)
	r.mu.Unlock()
	r.seen <- struct{}{}
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func frame(delta string) string {
	data, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"delta": map[string]any{"content": delta}}},
	})
	return "data: " + string(data) + "\n\n"
}

type relayStub struct {
	mu       sync.Mutex
	requests []openai.ChatCompletionRequest
}

func (s *relayStub) record(t *testing.T, r *http.Request) {
	var req openai.ChatCompletionRequest
	assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
}

func (s *relayStub) got() []openai.ChatCompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]openai.ChatCompletionRequest(nil), s.requests...)
}

func streamServer(t *testing.T, stub *relayStub, frames ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/openrouter", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("t"))
		stub.record(t, r)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, f := range frames {
			fmt.Fprint(w, f)
			w.(http.Flusher).Flush()
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newFixture(t *testing.T, baseURL string, debounce time.Duration) (*Editor, *notes.Repository, *recorder) {
	t.Helper()
	repo := notes.NewRepository(storage.NewMemoryStorage(), zap.NewNop())
	t.Cleanup(func() { repo.Close() })
	rec := newRecorder()
	client := NewClient(baseURL, nil, zap.NewNop())
	editor := NewEditor(client, repo, rec, Config{Debounce: debounce}, zap.NewNop())
	return editor, repo, rec
}

func content(t *testing.T, repo *notes.Repository, id string) string {
	t.Helper()
	n, ok := repo.Get(id)
	require.True(t, ok)
	return n.Content
}

func TestSubmitStreamsIntoSelection(t *testing.T) {
	stub := &relayStub{}
	srv := streamServer(t, stub, frame("Hello "), frame("world"), "data: [DONE]\n\n")
	editor, repo, rec := newFixture(t, srv.URL, 10*time.Millisecond)

	n := repo.Create()
	repo.Update(n.ID, notes.FieldContent, "Intro draft end")

	require.NoError(t, editor.Start(n.ID, 6, "draft"))
	assert.Equal(t, StateComposing, editor.State())

	require.NoError(t, editor.Submit(context.Background(), "expand"))

	assert.Equal(t, []string{"Intro \nHello  end", "Intro \nHello world end"}, rec.all())
	assert.Equal(t, "Intro \nHello world end", content(t, repo, n.ID))
	assert.Equal(t, StateIdle, editor.State())

	// Later debounced writes must not overwrite the final content.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, "Intro \nHello world end", content(t, repo, n.ID))

	requests := stub.got()
	require.Len(t, requests, 1)
	req := requests[0]
	assert.True(t, req.Stream)
	assert.Equal(t, DefaultModel, req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, `The user selected: "draft"`)
	assert.Contains(t, req.Messages[0].Content, "CHECKBOX FORMAT")
	assert.Equal(t, `expand: "draft"`, req.Messages[1].Content)
}

func TestSubmitInsertsAtCursorAndNormalizesCheckboxes(t *testing.T) {
	stub := &relayStub{}
	srv := streamServer(t, stub, ": keep-alive\n\n", "data: {broken\n\n", frame("buy [] milk"), frame("\n[x] bread"))
	editor, repo, _ := newFixture(t, srv.URL, 10*time.Millisecond)

	n := repo.Create()
	repo.Update(n.ID, notes.FieldTitle, "Shopping")
	repo.Update(n.ID, notes.FieldContent, "List")

	require.NoError(t, editor.Start(n.ID, 4, ""))
	require.NoError(t, editor.Submit(context.Background(), "  make a checklist  "))

	assert.Equal(t, "List\n\nbuy ☐ milk\n☑ bread", content(t, repo, n.ID))

	requests := stub.got()
	require.Len(t, requests, 1)
	req := requests[0]
	assert.Contains(t, req.Messages[0].Content, "Title: Shopping\n\nList")
	assert.Equal(t, "make a checklist", req.Messages[1].Content)
}

func TestSubmitWithEmptyResultLeavesNoteUntouched(t *testing.T) {
	srv := streamServer(t, &relayStub{}, frame(""), "data: [DONE]\n\n")
	editor, repo, rec := newFixture(t, srv.URL, 10*time.Millisecond)

	n := repo.Create()
	repo.Update(n.ID, notes.FieldContent, "keep")
	before, _ := repo.Get(n.ID)

	require.NoError(t, editor.Start(n.ID, 0, ""))
	require.NoError(t, editor.Submit(context.Background(), "write"))

	after, _ := repo.Get(n.ID)
	assert.Equal(t, before, after)
	assert.Empty(t, rec.all())
	assert.Equal(t, StateIdle, editor.State())
}

func hangingServer(t *testing.T, first string, released chan struct{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, frame(first))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
		close(released)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCancelMidStreamDropsPendingWrite(t *testing.T) {
	released := make(chan struct{})
	srv := hangingServer(t, "partial", released)
	editor, repo, rec := newFixture(t, srv.URL, time.Hour)

	n := repo.Create()
	repo.Update(n.ID, notes.FieldContent, "original")
	require.NoError(t, editor.Start(n.ID, 8, ""))

	errCh := make(chan error, 1)
	go func() { errCh <- editor.Submit(context.Background(), "continue") }()

	<-rec.seen
	assert.Equal(t, StateStreaming, editor.State())
	editor.Cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrCanceled)
		assert.Empty(t, UserMessage(err))
	case <-time.After(5 * time.Second):
		t.Fatal("submit did not return after cancel")
	}
	select {
	case <-released:
	case <-time.After(5 * time.Second):
		t.Fatal("request was not aborted")
	}

	assert.Equal(t, "original", content(t, repo, n.ID))
	assert.Equal(t, StateIdle, editor.State())
	editor.Cancel() // no-op from idle
}

func TestCancelKeepsWhatWasAlreadyPersisted(t *testing.T) {
	released := make(chan struct{})
	srv := hangingServer(t, "partial", released)
	editor, repo, rec := newFixture(t, srv.URL, 5*time.Millisecond)

	n := repo.Create()
	require.NoError(t, editor.Start(n.ID, 0, ""))

	errCh := make(chan error, 1)
	go func() { errCh <- editor.Submit(context.Background(), "go") }()

	<-rec.seen
	require.Eventually(t, func() bool {
		return content(t, repo, n.ID) == "partial"
	}, 2*time.Second, 5*time.Millisecond)

	editor.CancelNote("some-other-note")
	assert.Equal(t, StateStreaming, editor.State())

	editor.CancelNote(n.ID)
	assert.ErrorIs(t, <-errCh, ErrCanceled)
	<-released
	assert.Equal(t, "partial", content(t, repo, n.ID))
}

func TestStartOnAnotherNoteCancelsActiveStream(t *testing.T) {
	released := make(chan struct{})
	srv := hangingServer(t, "x", released)
	editor, repo, rec := newFixture(t, srv.URL, time.Hour)

	a := repo.Create()
	b := repo.Create()
	require.NoError(t, editor.Start(a.ID, 0, ""))

	errCh := make(chan error, 1)
	go func() { errCh <- editor.Submit(context.Background(), "go") }()
	<-rec.seen

	require.NoError(t, editor.Start(b.ID, 0, ""))
	assert.ErrorIs(t, <-errCh, ErrCanceled)
	<-released

	active, ok := editor.Active()
	require.True(t, ok)
	assert.Equal(t, b.ID, active.NoteID)
	assert.Equal(t, StateComposing, active.State)
}

func TestSubmitPreconditions(t *testing.T) {
	editor, repo, _ := newFixture(t, "http://relay.invalid", 0)
	n := repo.Create()

	assert.ErrorIs(t, editor.Submit(context.Background(), "go"), ErrNoSession)
	assert.ErrorIs(t, editor.Start("missing", 0, ""), ErrNoteNotFound)

	require.NoError(t, editor.Start(n.ID, 0, ""))
	assert.ErrorIs(t, editor.Submit(context.Background(), "   "), ErrEmptyPrompt)
	assert.Equal(t, StateComposing, editor.State())

	repo.Delete(n.ID)
	assert.ErrorIs(t, editor.Submit(context.Background(), "go"), ErrNoteNotFound)
	assert.Equal(t, StateIdle, editor.State())
}

func TestSubmitWithoutRelayConfigured(t *testing.T) {
	editor, repo, _ := newFixture(t, "  ", 0)
	n := repo.Create()
	require.NoError(t, editor.Start(n.ID, 0, ""))

	err := editor.Submit(context.Background(), "go")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Contains(t, UserMessage(err), "not configured")
}

func TestSubmitCategorizesRelayStatus(t *testing.T) {
	tests := []struct {
		status   int
		body     string
		category Category
		message  string
	}{
		{http.StatusInternalServerError, `{"error":"Server not configured"}`, CategoryConfiguration, "Proxy not configured"},
		{http.StatusUnauthorized, `{"error":"bad key"}`, CategoryAuthorization, "Unauthorized (OpenRouter): bad key"},
		{http.StatusBadGateway, `{"error":"Proxy error"}`, CategoryUpstream, "502 Upstream error"},
		{http.StatusTooManyRequests, `not json`, CategoryUpstream, "429"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			editor, repo, _ := newFixture(t, srv.URL, 0)
			n := repo.Create()
			require.NoError(t, editor.Start(n.ID, 0, ""))

			err := editor.Submit(context.Background(), "go")
			var aiErr *Error
			require.ErrorAs(t, err, &aiErr)
			assert.Equal(t, tt.category, aiErr.Category)
			assert.Equal(t, tt.status, aiErr.Status)
			assert.Contains(t, UserMessage(err), tt.message)
			assert.Equal(t, StateIdle, editor.State())
		})
	}
}

func TestSubmitTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	editor, repo, _ := newFixture(t, url, 0)
	n := repo.Create()
	require.NoError(t, editor.Start(n.ID, 0, ""))

	err := editor.Submit(context.Background(), "go")
	var aiErr *Error
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, CategoryTransport, aiErr.Category)
	assert.Contains(t, UserMessage(err), "Network or stream error")
}

type countingStore struct {
	*notes.Repository
	mu     sync.Mutex
	writes []string
}

func (c *countingStore) Update(id string, field notes.Field, value string) bool {
	c.mu.Lock()
	c.writes = append(c.writes, value)
	c.mu.Unlock()
	return c.Repository.Update(id, field, value)
}

func (c *countingStore) written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.writes...)
}

func TestStreamedWritesCoalescePerDebounceWindow(t *testing.T) {
	finish := make(chan struct{})
	deltas := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, d := range deltas {
			fmt.Fprint(w, frame(d))
		}
		w.(http.Flusher).Flush()
		select {
		case <-finish:
		case <-time.After(5 * time.Second):
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)

	repo := notes.NewRepository(storage.NewMemoryStorage(), zap.NewNop())
	t.Cleanup(func() { repo.Close() })
	n := repo.Create()
	store := &countingStore{Repository: repo}
	rec := newRecorder()
	editor := NewEditor(NewClient(srv.URL, nil, zap.NewNop()), store, rec, Config{}, zap.NewNop())

	require.NoError(t, editor.Start(n.ID, 0, ""))
	errCh := make(chan error, 1)
	go func() { errCh <- editor.Submit(context.Background(), "letters") }()

	for range deltas {
		<-rec.seen
	}
	require.Eventually(t, func() bool { return len(store.written()) == 1 },
		time.Second, 10*time.Millisecond)
	time.Sleep(2 * DefaultDebounce)
	assert.Equal(t, []string{"abcdefghij"}, store.written())

	close(finish)
	require.NoError(t, <-errCh)
	assert.Equal(t, []string{"abcdefghij", "abcdefghij"}, store.written())
	assert.Equal(t, "abcdefghij", content(t, repo, n.ID))
}
