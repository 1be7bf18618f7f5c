package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"compotube/internal/model"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
)

type fakeDispatcher struct {
	model  model.Model
	events []model.Event
}

func (d *fakeDispatcher) Dispatch(e model.Event) bool {
	d.events = append(d.events, e)
	return true
}

func (d *fakeDispatcher) Model() model.Model { return d.model }

type recordingSender struct {
	msgs []tea.Msg
}

func (s *recordingSender) Send(msg tea.Msg) { s.msgs = append(s.msgs, msg) }

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	got, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return got, cmd
}

func loggedInModel() model.Model {
	return model.Model{AccountName: model.StringPtr("alice@example.com")}
}

func TestLoginKeyDispatchesLoginRequested(t *testing.T) {
	d := &fakeDispatcher{}
	m := New(d, NewHost())

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if diff := cmp.Diff([]model.Event{model.LoginRequested{}}, d.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if m.currentScreen() != ScreenLogin {
		t.Errorf("screen = %d, want login", m.currentScreen())
	}
}

func TestTypingDispatchesQueryChanges(t *testing.T) {
	d := &fakeDispatcher{model: loggedInModel()}
	m := New(d, NewHost())

	m, _ = step(t, m, keyRunes("c"))
	m, _ = step(t, m, keyRunes("a"))
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	want := []model.Event{
		model.QueryChanged{Value: "c"},
		model.QueryChanged{Value: "ca"},
		model.QuerySent{},
	}
	if diff := cmp.Diff(want, d.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if m.currentScreen() != ScreenFinder {
		t.Errorf("screen = %d, want finder", m.currentScreen())
	}
}

func TestLateCommitsDoNotClobberTyping(t *testing.T) {
	d := &fakeDispatcher{model: loggedInModel()}
	m := New(d, NewHost())

	m, _ = step(t, m, keyRunes("c"))
	m, _ = step(t, m, keyRunes("a"))

	committed := loggedInModel().WithQuery("c")
	m, _ = step(t, m, modelMsg{model: committed})
	if got := m.input.Value(); got != "ca" {
		t.Fatalf("input = %q after a late commit, want ca", got)
	}

	m, _ = step(t, m, modelMsg{model: committed.WithQuery("ca")})
	m, _ = step(t, m, modelMsg{model: committed.WithQuery("restored")})
	if got := m.input.Value(); got != "restored" {
		t.Errorf("input = %q, want the committed query once typing has settled", got)
	}
}

func TestChooserCompletesThroughHost(t *testing.T) {
	host := NewHost()
	m := New(&fakeDispatcher{}, host)

	m, _ = step(t, m, chooseAccountMsg{request: model.ChooseAccountRequest{
		Accounts: []string{"alice@example.com", "bob@example.com"},
	}})
	if m.currentScreen() != ScreenChooser {
		t.Fatalf("screen = %d, want chooser", m.currentScreen())
	}

	m, _ = step(t, m, keyRunes("j"))
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.chooser != nil {
		t.Error("chooser still open after choosing")
	}
	if cmd == nil {
		t.Fatal("choosing returned no command")
	}
	cmd()

	select {
	case res := <-host.Results():
		if name := res.AccountName(); name == nil || *name != "bob@example.com" {
			t.Errorf("chosen account = %s, want bob@example.com", model.DisplayName(name))
		}
	default:
		t.Fatal("no chooser result delivered")
	}
}

func TestChooserManualEntry(t *testing.T) {
	c := NewChooserModel(model.ChooseAccountRequest{})
	if !c.manual {
		t.Fatal("chooser without accounts should start with manual entry")
	}
	for _, r := range "me@example.com" {
		c.Update(keyRunes(string(r)))
	}
	done, res, _ := c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !done {
		t.Fatal("enter did not complete the chooser")
	}
	if name := res.AccountName(); name == nil || *name != "me@example.com" {
		t.Errorf("chosen = %s, want me@example.com", model.DisplayName(name))
	}

	c = NewChooserModel(model.ChooseAccountRequest{})
	done, res, _ = c.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !done || !res.Cancelled {
		t.Errorf("esc = (%v, %s), want a cancelled result", done, res)
	}
}

func TestPromptAnswersReply(t *testing.T) {
	m := New(&fakeDispatcher{model: loggedInModel()}, NewHost())
	reply := make(chan bool, 1)

	m, _ = step(t, m, promptMsg{permission: model.PermissionGetAccounts, reply: reply})
	if m.currentScreen() != ScreenPrompt {
		t.Fatalf("screen = %d, want prompt", m.currentScreen())
	}
	m, _ = step(t, m, keyRunes("y"))

	select {
	case granted := <-reply:
		if !granted {
			t.Error("y answered deny")
		}
	default:
		t.Fatal("prompt did not answer")
	}
	if m.currentScreen() != ScreenFinder {
		t.Errorf("screen = %d after answering, want finder", m.currentScreen())
	}
}

func TestToastExpiresOnlyForLatest(t *testing.T) {
	m := New(&fakeDispatcher{}, NewHost())

	m, _ = step(t, m, toastMsg{text: "first"})
	m, _ = step(t, m, toastMsg{text: "second"})
	m, _ = step(t, m, toastExpiredMsg{id: 1})
	if m.toast != "second" {
		t.Errorf("toast = %q, want second to survive the first expiry", m.toast)
	}
	m, _ = step(t, m, toastExpiredMsg{id: 2})
	if m.toast != "" {
		t.Errorf("toast = %q, want it cleared", m.toast)
	}
}

func TestViewShowsResults(t *testing.T) {
	m := New(&fakeDispatcher{model: loggedInModel()}, NewHost())
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m, _ = step(t, m, searchStartedMsg{query: "cats"})
	if !m.searching {
		t.Fatal("searchStartedMsg did not start the spinner")
	}
	m, _ = step(t, m, resultsMsg{query: "cats", items: []model.SearchItem{
		{VideoID: "a", Title: "Cats compilation", ChannelTitle: "Cat Channel"},
	}})

	view := m.View()
	for _, want := range []string{"compotube", "alice@example.com", "Cats compilation", `1 result for "cats"`} {
		if !strings.Contains(view, want) {
			t.Errorf("view does not contain %q", want)
		}
	}
}

func TestHostSendsToAttachedProgram(t *testing.T) {
	host := NewHost()
	sender := &recordingSender{}
	host.Attach(sender)

	host.Toast("hello")
	host.Render(loggedInModel())

	if len(sender.msgs) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sender.msgs))
	}
	if msg, ok := sender.msgs[0].(toastMsg); !ok || msg.text != "hello" {
		t.Errorf("first message = %#v, want toast", sender.msgs[0])
	}
	if _, ok := sender.msgs[1].(modelMsg); !ok {
		t.Errorf("second message = %#v, want model", sender.msgs[1])
	}
}

func TestDetachedHost(t *testing.T) {
	host := NewHost()

	host.Launch(model.ChooseAccountRequest{})
	select {
	case res := <-host.Results():
		if !res.Cancelled {
			t.Errorf("detached Launch = %s, want cancelled", res)
		}
	default:
		t.Fatal("detached Launch delivered nothing")
	}

	if _, err := host.Prompt(context.Background(), "p"); !errors.Is(err, ErrDetached) {
		t.Errorf("detached Prompt = %v, want ErrDetached", err)
	}
}

type stubSearcher struct {
	items []model.SearchItem
	err   error
}

func (s stubSearcher) Search(ctx context.Context, query string) ([]model.SearchItem, error) {
	return s.items, s.err
}

func TestSearchObserverReportsResults(t *testing.T) {
	host := NewHost()
	sender := &recordingSender{}
	host.Attach(sender)

	items := []model.SearchItem{{VideoID: "a"}}
	got, err := host.ObserveSearch(stubSearcher{items: items}).Search(context.Background(), "cats")
	if err != nil || len(got) != 1 {
		t.Fatalf("Search = (%v, %v)", got, err)
	}

	if len(sender.msgs) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sender.msgs))
	}
	if msg, ok := sender.msgs[0].(searchStartedMsg); !ok || msg.query != "cats" {
		t.Errorf("first message = %#v", sender.msgs[0])
	}
	if msg, ok := sender.msgs[1].(resultsMsg); !ok || msg.query != "cats" || len(msg.items) != 1 {
		t.Errorf("second message = %#v", sender.msgs[1])
	}
}

func TestViewShowsToastAndPrompt(t *testing.T) {
	m := New(&fakeDispatcher{model: loggedInModel()}, NewHost())
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = step(t, m, toastMsg{text: "Query sent: cats"})
	m, _ = step(t, m, promptMsg{permission: model.PermissionGetAccounts, reply: make(chan bool, 1)})

	view := m.View()
	for _, want := range []string{"Query sent: cats", "Permission required", model.PermissionGetAccounts} {
		if !strings.Contains(view, want) {
			t.Errorf("view does not contain %q", want)
		}
	}
}
