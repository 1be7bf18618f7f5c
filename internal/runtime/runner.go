// Package runtime drives events through the Update function and executes the
// resulting effects against platform collaborators.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"compotube/internal/core"
	"compotube/internal/model"

	"github.com/google/uuid"
)

// State is the lifecycle state of a Runner.
type State int

const (
	StateUninitialized State = iota
	StateCreated             // started, waiting for the persisted model
	StateInteractive
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateCreated:
		return "created"
	case StateInteractive:
		return "interactive"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrAlreadyStarted is returned by Start when called more than once.
	ErrAlreadyStarted = errors.New("runner already started")
	// ErrNotStarted is returned by Stop when Start was never called.
	ErrNotStarted = errors.New("runner not started")
)

// UpdateFunc computes the next Change for an event.
type UpdateFunc func(m model.Model, e model.Event) model.Change

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used for Log effects and runner diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithInitialModel sets the Model held before the persisted one is loaded.
func WithInitialModel(m model.Model) Option {
	return func(r *Runner) {
		r.initial = m
	}
}

// WithUpdate replaces the update function.
func WithUpdate(fn UpdateFunc) Option {
	return func(r *Runner) {
		if fn != nil {
			r.update = fn
		}
	}
}

// WithQueueSize sets the initial capacity of the event queue.
func WithQueueSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.queue = newQueue(n)
		}
	}
}

// Runner owns the current Model. It is the only code that replaces it.
type Runner struct {
	platform Platform
	update   UpdateFunc
	logger   *slog.Logger
	session  string
	initial  model.Model

	current atomic.Pointer[model.Model]
	queue   *queue

	mu      sync.Mutex
	state   State
	closing bool // the Start context is done; the loop takes no new events

	ctx      context.Context
	cancel   context.CancelFunc
	quit     chan struct{}
	loopDone chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a Runner executing effects against p.
func New(p Platform, opts ...Option) *Runner {
	r := &Runner{
		platform: p,
		update:   core.Update,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		session:  uuid.NewString(),
		queue:    newQueue(32),
		quit:     make(chan struct{}),
		loopDone: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("session", r.session)

	initial := r.initial
	r.current.Store(&initial)
	return r
}

// Start begins processing events and enqueues LifecycleCreated.
func (r *Runner) Start(ctx context.Context) error {
	if err := r.platform.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	if r.state != StateUninitialized {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.state = StateCreated
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.queue.push(task{event: model.LifecycleCreated{}})
	r.mu.Unlock()

	r.logger.Debug("runner started")
	go r.loop()
	go r.forwardAccountResults(r.ctx, r.platform.Chooser.Results())
	return nil
}

// Stop evaluates LifecycleDestroyed on the calling goroutine, after the loop has
// processed every event accepted before the call. Its effects, including
// persisting the model, have completed when Stop returns. Stop is terminal.
func (r *Runner) Stop() error {
	var err error
	r.stopOnce.Do(func() {
		r.mu.Lock()
		prev := r.state
		r.state = StateDestroyed
		r.mu.Unlock()

		if prev == StateUninitialized {
			close(r.done)
			err = ErrNotStarted
			return
		}

		close(r.quit)
		<-r.loopDone
		r.cancel()

		r.handle(context.Background(), model.LifecycleDestroyed{})
		r.logger.Debug("runner stopped")
		close(r.done)
	})
	return err
}

// Dispatch enqueues an event. It never blocks. It returns false before Start,
// and once Stop has been called or the context passed to Start is done.
func (r *Runner) Dispatch(e model.Event) bool {
	return r.enqueue(task{event: e})
}

// Model returns the last committed Model.
func (r *Runner) Model() model.Model {
	return *r.current.Load()
}

// State returns the lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Session identifies this runner in log records.
func (r *Runner) Session() string {
	return r.session
}

// Done is closed once Stop has completed.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

func (r *Runner) enqueue(t task) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.closing:
		if t.event != nil {
			r.logger.Debug("event dropped", "event", t.event.String(), "reason", "context done")
		}
		return false
	case r.state == StateCreated, r.state == StateInteractive:
		r.queue.push(t)
		return true
	default:
		if t.event != nil {
			r.logger.Debug("event dropped", "event", t.event.String(), "state", r.state.String())
		}
		return false
	}
}

func (r *Runner) loop() {
	defer close(r.loopDone)
	for {
		select {
		case <-r.queue.ready:
			r.drain()
		case <-r.quit:
			r.drain()
			return
		case <-r.ctx.Done():
			// Refuse new events, then finish the ones already accepted.
			r.mu.Lock()
			r.closing = true
			r.mu.Unlock()
			r.drain()
			return
		}
	}
}

func (r *Runner) drain() {
	for {
		t, ok := r.queue.pop()
		if !ok {
			return
		}
		if t.direct {
			for _, eff := range t.effects {
				r.execute(r.ctx, t.event, eff)
			}
			continue
		}
		r.handle(r.ctx, t.event)
	}
}

func (r *Runner) handle(ctx context.Context, e model.Event) {
	change := r.apply(e)
	r.commit(e, change.Model)
	if _, ok := e.(model.StrPrefLoaded); ok {
		r.advance(StateCreated, StateInteractive)
	}
	for _, eff := range change.Effects {
		r.execute(ctx, e, eff)
	}
}

func (r *Runner) apply(e model.Event) (change model.Change) {
	m := r.Model()
	defer func() {
		if v := recover(); v != nil {
			change = core.Failure(m, e, fmt.Errorf("panic: %v", v))
		}
	}()
	return r.update(m, e)
}

func (r *Runner) commit(e model.Event, m model.Model) {
	r.current.Store(&m)
	if r.platform.Renderer == nil {
		return
	}
	defer func() {
		if v := recover(); v != nil {
			r.notify(e, fmt.Errorf("panic rendering model: %v", v))
		}
	}()
	r.platform.Renderer.Render(m)
}

func (r *Runner) advance(from, to State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == from {
		r.state = to
	}
}

func (r *Runner) execute(ctx context.Context, origin model.Event, eff model.Effect) {
	defer func() {
		if v := recover(); v != nil {
			r.notify(origin, fmt.Errorf("panic executing %s: %v", eff, v))
		}
	}()

	switch eff := eff.(type) {
	case model.Toast:
		r.platform.Toaster.Toast(eff.Text)
	case model.Log:
		r.log(eff)
	case model.LoadPref:
		r.async(ctx, origin, func(ctx context.Context) (model.Event, error) {
			value, err := r.platform.Prefs.LoadString(ctx, eff.Name, eff.Default)
			if err != nil {
				return model.StrPrefLoaded{Value: eff.Default}, fmt.Errorf("load pref %s: %w", eff.Name, err)
			}
			return model.StrPrefLoaded{Value: value}, nil
		})
	case model.SavePref:
		if err := r.platform.Prefs.SaveString(ctx, eff.Name, eff.Value); err != nil {
			r.notify(origin, fmt.Errorf("save pref %s: %w", eff.Name, err))
		}
	case model.ChooseAccount:
		r.platform.Chooser.Launch(r.platform.Credential.NewChooseAccountRequest())
	case model.SelectAccount:
		r.platform.Credential.SelectAccount(eff.Name)
	case model.CheckPermission:
		result, err := r.platform.Permissions.Check(ctx, eff.Permission)
		if err != nil {
			r.notify(origin, fmt.Errorf("check permission %s: %w", eff.Permission, err))
			return
		}
		r.deliver(ctx, model.PermissionChecked{Permission: eff.Permission, Result: result})
	case model.RequestPermission:
		r.async(ctx, origin, func(ctx context.Context) (model.Event, error) {
			result, err := r.platform.Permissions.Request(ctx, eff.Permission)
			if err != nil {
				err = fmt.Errorf("request permission %s: %w", eff.Permission, err)
			}
			return model.PermissionRequested{Permission: eff.Permission, Result: result}, err
		})
	case model.Search:
		r.async(ctx, origin, func(ctx context.Context) (model.Event, error) {
			items, err := r.platform.Searcher.Search(ctx, eff.Query)
			return model.ResponseReceived{Query: eff.Query, Items: items, Err: err}, nil
		})
	default:
		r.notify(origin, fmt.Errorf("unknown effect type %T", eff))
	}
}

// async runs fn off the loop. Its error is reported before its event is delivered.
func (r *Runner) async(ctx context.Context, origin model.Event, fn func(ctx context.Context) (model.Event, error)) {
	go func() {
		defer func() {
			if v := recover(); v != nil {
				r.report(ctx, origin, fmt.Errorf("panic: %v", v))
			}
		}()
		e, err := fn(ctx)
		if err != nil {
			r.report(ctx, origin, err)
		}
		if e != nil {
			r.deliver(ctx, e)
		}
	}()
}

// deliver enqueues the result of an effect unless ctx has been cancelled.
func (r *Runner) deliver(ctx context.Context, e model.Event) {
	if ctx.Err() != nil {
		r.logger.Debug("discarding stale result", "event", e.String())
		return
	}
	r.Dispatch(e)
}

// report queues failure notifications raised off the loop.
func (r *Runner) report(ctx context.Context, origin model.Event, err error) {
	if ctx.Err() != nil {
		r.logger.Debug("discarding stale failure", "error", err)
		return
	}
	change := core.Failure(r.Model(), origin, err)
	r.enqueue(task{event: origin, effects: change.Effects, direct: true})
}

// notify runs failure notifications immediately on the current goroutine.
func (r *Runner) notify(origin model.Event, err error) {
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("failure notification failed", "error", err, "panic", v)
		}
	}()
	for _, eff := range core.Failure(r.Model(), origin, err).Effects {
		switch eff := eff.(type) {
		case model.Toast:
			r.platform.Toaster.Toast(eff.Text)
		case model.Log:
			r.log(eff)
		}
	}
}

func (r *Runner) log(eff model.Log) {
	if eff.Err != nil {
		r.logger.Warn(eff.Text, "tag", eff.Tag, "error", eff.Err)
		return
	}
	r.logger.Debug(eff.Text, "tag", eff.Tag)
}

func (r *Runner) forwardAccountResults(ctx context.Context, results <-chan model.AccountResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case res, ok := <-results:
			if !ok {
				return
			}
			r.deliver(ctx, model.AccountChosen{Result: res})
		}
	}
}
