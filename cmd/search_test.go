package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"compotube/internal/auth"
	"compotube/internal/core"
	"compotube/internal/db"
	"compotube/internal/model"
)

func newTestEnv(t *testing.T, accounts []auth.Account, handler http.HandlerFunc) *environment {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := db.OpenStore(db.BackendSQLite, filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	search := defaultSearchConfig()
	search.BaseURL = srv.URL
	search.Retries = 1
	return &environment{
		config: &Config{
			APIKey: "key",
			Search: search,
		},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		store:      store,
		credential: auth.UsingOAuth2(accounts),
	}
}

func serveResults(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(`{"items":[{"id":{"videoId":"abc123"},"snippet":{"title":"Cats compilation","channelTitle":"Cat Channel","publishedAt":"2024-03-01T12:00:00Z"}}]}`))
}

func TestRunHeadlessSearch(t *testing.T) {
	env := newTestEnv(t, []auth.Account{{Name: "alice@example.com"}}, serveResults)
	var out, errOut bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := runHeadless(ctx, env, headlessOptions{query: "cats", grant: true, out: &out, errOut: &errOut})
	if err != nil {
		t.Fatalf("runHeadless: %v", err)
	}

	for _, want := range []string{`1 result for "cats"`, "Cats compilation", "https://www.youtube.com/watch?v=abc123"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output does not contain %q:\n%s", want, out.String())
		}
	}
	for _, want := range []string{"» Account chosen: alice@example.com", "» Query sent: cats", "» Received 1 results"} {
		if !strings.Contains(errOut.String(), want) {
			t.Errorf("toasts do not contain %q:\n%s", want, errOut.String())
		}
	}

	// The session is persisted, so the next run starts logged in.
	value, err := env.store.LoadString(context.Background(), model.PrefKey, nil)
	if err != nil || value == nil {
		t.Fatalf("persisted model missing: %v", err)
	}
	if want := `{"accountName":"alice@example.com","query":"cats"}`; *value != want {
		t.Errorf("persisted %s, want %s", *value, want)
	}
}

func TestRunHeadlessWithoutAccount(t *testing.T) {
	env := newTestEnv(t, nil, serveResults)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := runHeadless(ctx, env, headlessOptions{query: "cats", grant: true, out: io.Discard, errOut: io.Discard})
	if !errors.Is(err, errNoAccount) {
		t.Errorf("runHeadless = %v, want errNoAccount", err)
	}
}

func TestRunHeadlessPermissionDenied(t *testing.T) {
	env := newTestEnv(t, nil, func(w http.ResponseWriter, r *http.Request) {
		t.Error("searched although permission was denied")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := runHeadless(ctx, env, headlessOptions{
		query:   "cats",
		account: "bob@example.com",
		grant:   false,
		out:     io.Discard,
		errOut:  io.Discard,
	})
	if !errors.Is(err, errPermissionDenied) {
		t.Errorf("runHeadless = %v, want errPermissionDenied", err)
	}
}

func TestRunHeadlessSearchError(t *testing.T) {
	env := newTestEnv(t, []auth.Account{{Name: "alice@example.com"}}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"quotaExceeded"}}`))
	})
	var errOut bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := runHeadless(ctx, env, headlessOptions{query: "cats", grant: true, out: io.Discard, errOut: &errOut})
	if err == nil || !strings.Contains(err.Error(), "quotaExceeded") {
		t.Errorf("runHeadless = %v, want the API error", err)
	}
	if !strings.Contains(errOut.String(), "» Received 0 results") {
		t.Errorf("toasts:\n%s", errOut.String())
	}
}

func TestObserverDeliversEveryEvent(t *testing.T) {
	obs := newObserver()
	update := obs.wrap(core.Update)

	const n = 100
	go func() {
		m := model.Model{}
		for i := 0; i < n; i++ {
			m = update(m, model.QueryChanged{Value: strings.Repeat("a", i+1)}).Model
		}
		update(m, model.ResponseReceived{Query: "a"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got, err := waitFor(ctx, obs.events, func(e model.Event) bool {
		_, ok := e.(model.ResponseReceived)
		return ok
	})
	if err != nil {
		t.Fatalf("ResponseReceived not observed after %d events: %v", n, err)
	}
	if got.model.Query != strings.Repeat("a", n) {
		t.Errorf("observed model query has length %d, want %d", len(got.model.Query), n)
	}
}

func TestObserverCloseReleasesUpdate(t *testing.T) {
	obs := newObserver()
	update := obs.wrap(core.Update)
	obs.close()
	obs.close()

	done := make(chan model.Change, 1)
	go func() { done <- update(model.Model{}, model.QueryChanged{Value: "cats"}) }()

	select {
	case change := <-done:
		if change.Model.Query != "cats" {
			t.Errorf("Query = %q, want cats", change.Model.Query)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("update blocked after the observer was closed")
	}
}
