package ui

import (
	"context"
	"errors"
	"sync"

	"compotube/internal/model"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrDetached is returned when the host has no running program to talk to.
var ErrDetached = errors.New("presentation not attached")

// Sender delivers messages to a running Bubble Tea program.
type Sender interface {
	Send(msg tea.Msg)
}

// Host exposes the terminal UI as platform collaborators: it shows toasts,
// renders models, runs the account chooser and answers permission prompts.
type Host struct {
	mu      sync.RWMutex
	sender  Sender
	results chan model.AccountResult
}

// NewHost creates a host; Attach must be called before the program runs.
func NewHost() *Host {
	return &Host{results: make(chan model.AccountResult, 4)}
}

// Attach connects the host to a program.
func (h *Host) Attach(s Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sender = s
}

func (h *Host) send(msg tea.Msg) bool {
	h.mu.RLock()
	s := h.sender
	h.mu.RUnlock()
	if s == nil {
		return false
	}
	s.Send(msg)
	return true
}

// Toast shows text in the notification banner.
func (h *Host) Toast(text string) {
	h.send(toastMsg{text: text})
}

// Render shows a newly committed model.
func (h *Host) Render(m model.Model) {
	h.send(modelMsg{model: m})
}

// Launch opens the account chooser dialog. The choice arrives on Results.
func (h *Host) Launch(req model.ChooseAccountRequest) {
	if !h.send(chooseAccountMsg{request: req}) {
		h.results <- model.AccountResult{Cancelled: true}
	}
}

// Results delivers account chooser outcomes.
func (h *Host) Results() <-chan model.AccountResult {
	return h.results
}

// complete returns a command handing a chooser outcome back to the runner.
func (h *Host) complete(res model.AccountResult) tea.Cmd {
	return func() tea.Msg {
		h.results <- res
		return nil
	}
}

// Prompt asks the user to grant permission and blocks until answered.
func (h *Host) Prompt(ctx context.Context, permission string) (bool, error) {
	reply := make(chan bool, 1)
	if !h.send(promptMsg{permission: permission, reply: reply}) {
		return false, ErrDetached
	}
	select {
	case granted := <-reply:
		return granted, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Searcher runs search queries.
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.SearchItem, error)
}

// SearchObserver passes results of a Searcher to the result list as they arrive.
type SearchObserver struct {
	next Searcher
	host *Host
}

// ObserveSearch wraps s so the result list shows what it returns.
func (h *Host) ObserveSearch(s Searcher) *SearchObserver {
	return &SearchObserver{next: s, host: h}
}

// Search delegates to the wrapped searcher.
func (o *SearchObserver) Search(ctx context.Context, query string) ([]model.SearchItem, error) {
	o.host.send(searchStartedMsg{query: query})
	items, err := o.next.Search(ctx, query)
	o.host.send(resultsMsg{query: query, items: items, err: err})
	return items, err
}
