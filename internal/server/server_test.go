// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pdiddy/litreview/internal/pipeline"
	"github.com/pdiddy/litreview/pkg/types"
)

// fakeRunner emits a canned event sequence and returns a canned state.
type fakeRunner struct {
	events []pipeline.StageEvent
	err    error

	mu   sync.Mutex
	runs int
}

func (f *fakeRunner) Run(_ context.Context, query string, emit pipeline.EventSink) (*pipeline.State, error) {
	f.mu.Lock()
	f.runs++
	f.mu.Unlock()
	for _, ev := range f.events {
		if err := emit(ev); err != nil {
			return nil, err
		}
	}
	if f.err != nil {
		// Mirror the pipeline: the error event is emitted before returning.
		emit(pipeline.StageEvent{Stage: pipeline.StageError, Status: f.err.Error()})
		return nil, f.err
	}
	return &pipeline.State{
		UserQuery:      query,
		FinalDocument:  "## Document",
		FilteredPapers: []types.Paper{{ID: "p1", Title: "Paper"}},
	}, nil
}

type fakeArchiver struct {
	mu    sync.Mutex
	saved int
	query string
}

func (f *fakeArchiver) Save(_ context.Context, query, _ string, _ []types.Paper) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved++
	f.query = query
	return nil
}

func (f *fakeArchiver) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved
}

func (f *fakeRunner) runCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/research"
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) pipeline.StageEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading event: %v", err)
	}
	var ev pipeline.StageEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("unmarshaling event %q: %v", msg, err)
	}
	return ev
}

func completedRunEvents() []pipeline.StageEvent {
	return []pipeline.StageEvent{
		{Stage: pipeline.StageQueryProcessing, Status: "Processing query..."},
		{Stage: pipeline.StageQueryProcessing, Status: pipeline.StatusComplete},
		{Stage: pipeline.StageComplete, Status: "Research complete"},
	}
}

func TestServerStreamsEvents(t *testing.T) {
	runner := &fakeRunner{events: completedRunEvents()}
	archiver := &fakeArchiver{}
	srv := New(runner, archiver, types.ServerConfig{ReceiveTimeout: time.Minute}, nil)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"query": "transformers"}); err != nil {
		t.Fatalf("sending query: %v", err)
	}

	for i, want := range completedRunEvents() {
		ev := readEvent(t, conn)
		if ev.Stage != want.Stage || ev.Status != want.Status {
			t.Errorf("event[%d] = %+v, want %+v", i, ev, want)
		}
	}

	// Archiving happens after the terminal event; the connection stays
	// open for the next query.
	conn.Close()
	waitFor(t, func() bool { return archiver.savedCount() == 1 })
	archiver.mu.Lock()
	query := archiver.query
	archiver.mu.Unlock()
	if query != "transformers" {
		t.Errorf("archived query = %q", query)
	}
}

func TestServerSecondQueryReusesConnection(t *testing.T) {
	runner := &fakeRunner{events: completedRunEvents()}
	srv := New(runner, nil, types.ServerConfig{ReceiveTimeout: time.Minute}, nil)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)
	defer conn.Close()

	for run := 0; run < 2; run++ {
		if err := conn.WriteJSON(map[string]string{"query": fmt.Sprintf("query %d", run)}); err != nil {
			t.Fatalf("sending query %d: %v", run, err)
		}
		for range completedRunEvents() {
			readEvent(t, conn)
		}
	}
	if runner.runCount() != 2 {
		t.Errorf("runs = %d, want 2", runner.runCount())
	}
}

func TestServerMalformedMessageGetsErrorEvent(t *testing.T) {
	srv := New(&fakeRunner{}, nil, types.ServerConfig{ReceiveTimeout: time.Minute}, nil)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("sending: %v", err)
	}

	ev := readEvent(t, conn)
	if ev.Stage != pipeline.StageError {
		t.Fatalf("event = %+v, want error event", ev)
	}

	// The server closes the connection after the error event.
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("connection should be closed after a malformed message")
	}
}

func TestServerEmptyQueryGetsErrorEvent(t *testing.T) {
	srv := New(&fakeRunner{}, nil, types.ServerConfig{ReceiveTimeout: time.Minute}, nil)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"query": "  "}); err != nil {
		t.Fatalf("sending: %v", err)
	}
	ev := readEvent(t, conn)
	if ev.Stage != pipeline.StageError {
		t.Fatalf("event = %+v, want error event", ev)
	}
}

func TestServerReceiveTimeoutClosesSilently(t *testing.T) {
	runner := &fakeRunner{}
	srv := New(runner, nil, types.ServerConfig{ReceiveTimeout: 100 * time.Millisecond}, nil)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)
	defer conn.Close()

	// Send nothing. The server must close the connection without sending
	// any event.
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected closed connection, got message %q", msg)
	}
	if runner.runCount() != 0 {
		t.Errorf("runs = %d, want 0", runner.runCount())
	}
}

func TestServerRunFailureClosesAfterErrorEvent(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("ranking failed")}
	archiver := &fakeArchiver{}
	srv := New(runner, archiver, types.ServerConfig{ReceiveTimeout: time.Minute}, nil)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"query": "q"}); err != nil {
		t.Fatalf("sending: %v", err)
	}

	ev := readEvent(t, conn)
	if ev.Stage != pipeline.StageError || !strings.Contains(ev.Status, "ranking failed") {
		t.Fatalf("event = %+v, want error event", ev)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("connection should be closed after a failed run")
	}
	if archiver.savedCount() != 0 {
		t.Errorf("failed run should not be archived, saved = %d", archiver.savedCount())
	}
}

func TestServerIndexBanner(t *testing.T) {
	srv := New(&fakeRunner{}, nil, types.ServerConfig{}, nil)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding banner: %v", err)
	}
	if body["message"] == "" {
		t.Error("banner should carry a message")
	}
}

// waitFor polls cond for up to two seconds.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
