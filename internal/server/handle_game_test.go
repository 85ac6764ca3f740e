package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/beasthike/internal/game"
	"github.com/playperu/beasthike/internal/geo"
)

var testCourse = game.Course{
	BeastStart: geo.P(42.935364120997065, -85.58024314902549),
	HikerStart: geo.P(42.93281267847854, -85.58172657791411),
}

type testServer struct {
	router *chi.Mux
	store  *DocStore
	broker *Broker
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	catalogue, err := game.DefaultCatalogue()
	if err != nil {
		t.Fatalf("catalogue: %v", err)
	}
	planner, err := game.NewPlanner(catalogue, game.DefaultBeasts, rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatalf("planner: %v", err)
	}

	ts := &testServer{store: setupStore(t), broker: NewBroker()}
	engine := game.NewEngine(ctx, logger, ts.store, planner, game.Options{
		Course:   testCourse,
		Notifier: ts.broker,
	})

	ts.router = chi.NewRouter()
	addRoutes(ts.router, logger, engine, ts.broker, opts)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "text/plain")
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) state(t *testing.T, playerID string) game.State {
	t.Helper()
	w := ts.do(t, http.MethodGet, "/gameState/"+playerID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("gameState: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var st game.State
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatalf("decoding state: %v", err)
	}
	return st
}

func (ts *testServer) join(t *testing.T, id, name, prefers string) {
	t.Helper()
	body, _ := json.Marshal(game.JoinRequest{ID: id, Name: name, Prefers: game.Preference(prefers)})
	w := ts.do(t, http.MethodPost, "/join", string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("join %s: expected 200, got %d: %s", id, w.Code, w.Body.String())
	}
}

func TestJoinAndGameState(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.join(t, "p1", "Maria", "hiker")

	st := ts.state(t, "p1")
	if st.Phase != game.PhaseInactive {
		t.Errorf("phase = %q, want inactive", st.Phase)
	}
	if len(st.Players) != 1 || st.Players[0].Name != "Maria" {
		t.Errorf("players = %+v, want Maria", st.Players)
	}
	if st.Messages == nil {
		t.Error("messages should encode as an empty list")
	}

	saved, err := ts.store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(saved.Players) != 1 {
		t.Errorf("join was not persisted")
	}
}

func TestJoinMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "{id: p1"},
		{name: "trailing garbage", body: `{"id":"p1","name":"Ana"} trailing`},
		{name: "two objects", body: `{"id":"p1","name":"Ana"}{"id":"p2","name":"Bo"}`},
		{name: "missing name", body: `{"id":"p1"}`},
		{name: "bad preference", body: `{"id":"p1","name":"Ana","prefers":"wolf"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, Options{})
			w := ts.do(t, http.MethodPost, "/join", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			var resp ErrorResponse
			json.NewDecoder(w.Body).Decode(&resp)
			if resp.Error == "" {
				t.Error("expected an error message")
			}
			if st := ts.state(t, "0"); len(st.Players) != 0 {
				t.Errorf("malformed join added %d players", len(st.Players))
			}
		})
	}
}

func TestPosition(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.join(t, "p1", "Maria", "any")

	tests := []struct {
		name string
		path string
		want int
	}{
		{name: "valid", path: "/pos/p1/42.9328/-85.5817/1.2/6", want: http.StatusOK},
		{name: "unknown player", path: "/pos/ghost/42.9328/-85.5817/1.2/6", want: http.StatusOK},
		{name: "non-numeric latitude", path: "/pos/p1/north/-85.5817/1.2/6", want: http.StatusBadRequest},
		{name: "null speed", path: "/pos/p1/42.9328/-85.5817/null/6", want: http.StatusBadRequest},
		{name: "NaN accuracy", path: "/pos/p1/42.9328/-85.5817/0/NaN", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, tt.path, "")
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}

	p := ts.state(t, "p1").Players[0]
	if p.Coords != geo.P(42.9328, -85.5817) || p.Speed != 1.2 || p.Accuracy != 6 {
		t.Errorf("player = %+v, want the valid fix only", p)
	}
}

func TestRoundFlow(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.join(t, "a", "Ana", "beast")
	ts.join(t, "b", "Bo", "hiker")

	if w := ts.do(t, http.MethodPost, "/start", ""); w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d", w.Code)
	}
	st := ts.state(t, "a")
	if st.Phase != game.PhaseHiding {
		t.Fatalf("phase = %q, want hiding", st.Phase)
	}
	if len(st.Generators) != game.GeneratorsPerRound {
		t.Fatalf("got %d generators", len(st.Generators))
	}

	ts.do(t, http.MethodPost, "/pos/a/42.935364120997065/-85.58024314902549/0/5", "")
	ts.do(t, http.MethodPost, "/pos/b/42.93281267847854/-85.58172657791411/0/5", "")

	st = ts.state(t, "b")
	if st.Phase != game.PhaseActive {
		t.Fatalf("phase = %q, want active", st.Phase)
	}
	if len(st.Messages) != 1 {
		t.Fatalf("b got %d messages, want 1", len(st.Messages))
	}
	if again := ts.state(t, "b"); len(again.Messages) != 0 {
		t.Fatalf("repeat poll returned %d messages", len(again.Messages))
	}

	for _, path := range []string{"/use-safety/b", "/activate/b", "/deactivate/b", "/reset-safety/b", "/attack/ghost"} {
		if w := ts.do(t, http.MethodGet, path, ""); w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
	}

	// The beast walks up to the moving hiker.
	ts.do(t, http.MethodPost, "/pos/b/42.9330/-85.5817/1/5", "")
	ts.do(t, http.MethodPost, "/pos/a/42.9330/-85.5817/1/5", "")
	ts.do(t, http.MethodGet, "/attack/a", "")

	st = ts.state(t, "0")
	if st.Phase != game.PhaseGameOver || st.Winner != game.WinnerBeast {
		t.Fatalf("phase = %q winner = %q, want gameover/beast", st.Phase, st.Winner)
	}

	if w := ts.do(t, http.MethodGet, "/reset", ""); w.Code != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d", w.Code)
	}
	st = ts.state(t, "0")
	if st.Phase != game.PhaseInactive || len(st.Players) != 0 {
		t.Fatalf("after reset phase = %q with %d players", st.Phase, len(st.Players))
	}
}

func TestLines(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		ts := newTestServer(t, Options{})
		w := ts.do(t, http.MethodGet, "/lines", "")
		if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
			t.Fatalf("got %d %q, want 200 []", w.Code, w.Body.String())
		}
	})

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lines.json")
		overlay := `[[[42.93,-85.58],[42.94,-85.58]]]`
		if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
			t.Fatal(err)
		}
		ts := newTestServer(t, Options{LinesPath: path})
		w := ts.do(t, http.MethodGet, "/lines", "")
		if w.Code != http.StatusOK || w.Body.String() != overlay {
			t.Fatalf("got %d %q, want the file contents", w.Code, w.Body.String())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		ts := newTestServer(t, Options{LinesPath: filepath.Join(t.TempDir(), "nope.json")})
		if w := ts.do(t, http.MethodGet, "/lines", ""); w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
	})
}

func TestScale(t *testing.T) {
	ts := newTestServer(t, Options{Scale: geo.ScaleAt(testCourse.HikerStart.Lat())})
	w := ts.do(t, http.MethodGet, "/scale", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var s geo.Scale
	if err := json.NewDecoder(w.Body).Decode(&s); err != nil {
		t.Fatal(err)
	}
	if s.FeetPerDegLong <= 0 || s.ReferenceLatitude != testCourse.HikerStart.Lat() {
		t.Fatalf("scale = %+v", s)
	}
}

func TestStaticClient(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>beast</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "script.js"), []byte("poll()"), 0o644); err != nil {
		t.Fatal(err)
	}
	ts := newTestServer(t, Options{StaticDir: dir})

	if w := ts.do(t, http.MethodGet, "/", ""); w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("beast")) {
		t.Fatalf("index: got %d %q", w.Code, w.Body.String())
	}
	if w := ts.do(t, http.MethodGet, "/script.js", ""); w.Code != http.StatusOK {
		t.Fatalf("script: expected 200, got %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/missing.js", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing: expected 404, got %d", w.Code)
	}
}

func TestActionsPublishEvents(t *testing.T) {
	ts := newTestServer(t, Options{})
	ch := ts.broker.Subscribe()
	defer ts.broker.Unsubscribe(ch)

	ts.join(t, "p1", "Maria", "any")

	select {
	case data := <-ch:
		var ev game.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatal(err)
		}
		if ev.Type != "join" || ev.Phase != game.PhaseInactive {
			t.Fatalf("event = %+v, want join/inactive", ev)
		}
	default:
		t.Fatal("join published no event")
	}
}
