package cmd

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeProgram struct {
	once    sync.Once
	exit    chan struct{}
	err     error
	started atomic.Bool
	quits   atomic.Int32
}

func newFakeProgram() *fakeProgram {
	return &fakeProgram{exit: make(chan struct{})}
}

func (p *fakeProgram) Run() (tea.Model, error) {
	p.started.Store(true)
	<-p.exit
	return nil, p.err
}

func (p *fakeProgram) Quit() {
	p.quits.Add(1)
	p.close()
}

func (p *fakeProgram) close() {
	p.once.Do(func() { close(p.exit) })
}

type fakeLifecycle struct {
	startErr error
	stopErr  error
	ctx      context.Context
	stops    atomic.Int32
}

func (l *fakeLifecycle) Start(ctx context.Context) error {
	l.ctx = ctx
	return l.startErr
}

func (l *fakeLifecycle) Stop() error {
	l.stops.Add(1)
	return l.stopErr
}

func runSessionAsync(ctx context.Context, p program, l lifecycle, detached *atomic.Bool) <-chan error {
	errc := make(chan error, 1)
	go func() {
		errc <- runSession(ctx, p, l, func() { detached.Store(true) })
	}()
	return errc
}

func waitSession(t *testing.T, errc <-chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end")
		return nil
	}
}

func TestRunSessionStopsRunnerWhenProgramExits(t *testing.T) {
	p := newFakeProgram()
	l := &fakeLifecycle{}
	var detached atomic.Bool

	errc := runSessionAsync(context.Background(), p, l, &detached)
	p.close()

	if err := waitSession(t, errc); err != nil {
		t.Fatalf("runSession: %v", err)
	}
	if n := l.stops.Load(); n != 1 {
		t.Errorf("Stop called %d times, want 1", n)
	}
	if l.ctx.Err() == nil {
		t.Error("runner context still live after the program exited")
	}
	if !detached.Load() {
		t.Error("host not detached")
	}
}

func TestRunSessionQuitsProgramOnCancel(t *testing.T) {
	p := newFakeProgram()
	l := &fakeLifecycle{}
	var detached atomic.Bool

	ctx, cancel := context.WithCancel(context.Background())
	errc := runSessionAsync(ctx, p, l, &detached)
	cancel()

	if err := waitSession(t, errc); err != nil {
		t.Fatalf("runSession: %v", err)
	}
	if p.quits.Load() == 0 {
		t.Error("program was not told to quit")
	}
	if n := l.stops.Load(); n != 1 {
		t.Errorf("Stop called %d times, want 1", n)
	}
}

func TestRunSessionProgramError(t *testing.T) {
	p := newFakeProgram()
	p.err = errors.New("terminal gone")
	l := &fakeLifecycle{}
	var detached atomic.Bool

	errc := runSessionAsync(context.Background(), p, l, &detached)
	p.close()

	if err := waitSession(t, errc); !errors.Is(err, p.err) {
		t.Errorf("runSession = %v, want %v", err, p.err)
	}
	if n := l.stops.Load(); n != 1 {
		t.Errorf("Stop called %d times, want 1", n)
	}
}

func TestRunSessionKilledByCancelIsClean(t *testing.T) {
	p := newFakeProgram()
	p.err = tea.ErrProgramKilled
	l := &fakeLifecycle{}
	var detached atomic.Bool

	ctx, cancel := context.WithCancel(context.Background())
	errc := runSessionAsync(ctx, p, l, &detached)
	cancel()

	if err := waitSession(t, errc); err != nil {
		t.Errorf("runSession = %v, want nil after cancellation", err)
	}
}

func TestRunSessionReportsStopError(t *testing.T) {
	p := newFakeProgram()
	l := &fakeLifecycle{stopErr: errors.New("save failed")}
	var detached atomic.Bool

	errc := runSessionAsync(context.Background(), p, l, &detached)
	p.close()

	if err := waitSession(t, errc); !errors.Is(err, l.stopErr) {
		t.Errorf("runSession = %v, want %v", err, l.stopErr)
	}
}

func TestRunSessionStartError(t *testing.T) {
	p := newFakeProgram()
	l := &fakeLifecycle{startErr: errors.New("missing collaborator")}

	err := runSession(context.Background(), p, l, func() {})
	if !errors.Is(err, l.startErr) {
		t.Errorf("runSession = %v, want %v", err, l.startErr)
	}
	if p.started.Load() {
		t.Error("program ran although the runner failed to start")
	}
}
