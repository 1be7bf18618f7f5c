package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"compotube/internal/core"
	"compotube/internal/db"
	"compotube/internal/model"
	"compotube/internal/runtime"
	"compotube/internal/util"

	"github.com/spf13/cobra"
)

var (
	errNoAccount        = errors.New("no account chosen; add one under accounts in the config file or pass --account")
	errPermissionDenied = errors.New("permission denied")
)

func newSearchCmd(flags *flagValues) *cobra.Command {
	var (
		account string
		grant   bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run one search without the TUI and print the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withEnv(cmd, *flags, false, func(env *environment) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
				defer cancel()
				return runHeadless(ctx, env, headlessOptions{
					query:   query,
					account: account,
					grant:   grant,
					out:     cmd.OutOrStdout(),
					errOut:  cmd.ErrOrStderr(),
				})
			})
		},
	}

	cmd.Flags().StringVarP(&account, "account", "a", "", "Account to log in with when none is selected")
	cmd.Flags().BoolVar(&grant, "grant", true, "Answer permission prompts with allow")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Give up after this long")
	return cmd
}

type headlessOptions struct {
	query   string
	account string
	grant   bool
	out     io.Writer
	errOut  io.Writer
}

// observed is an event together with the model Update produced for it.
type observed struct {
	event model.Event
	model model.Model
}

// runHeadless drives the runner through login and one search, printing toasts
// to errOut and results to out.
func runHeadless(ctx context.Context, env *environment, opts headlessOptions) error {
	obs := newObserver()
	defer obs.close()

	chooser := newAutoChooser(opts.account)
	runner := runtime.New(runtime.Platform{
		Toaster:     &lineToaster{w: opts.errOut},
		Prefs:       env.store,
		Credential:  env.credential,
		Chooser:     chooser,
		Permissions: db.NewPermissions(env.store, db.StaticPrompter(opts.grant)),
		Searcher:    env.newSearchClient(),
	}, runtime.WithLogger(env.logger), runtime.WithUpdate(obs.wrap(core.Update)))

	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start runner: %w", err)
	}
	result, err := driveSearch(ctx, runner, obs.events, opts.query)
	// Nobody reads observations any more; Stop must not wait for a reader.
	obs.close()
	// Stop drains every event handled so far, so their toasts are printed.
	if stopErr := runner.Stop(); stopErr != nil && err == nil {
		err = stopErr
	}
	if err != nil {
		return err
	}
	if result.Err != nil {
		return fmt.Errorf("search %q: %w", result.Query, result.Err)
	}

	printResults(opts.out, result)
	return nil
}

// observer hands every evaluated event to driveSearch. Sends block until the
// event is read or the observer is closed, so no observation is lost.
type observer struct {
	events chan observed
	done   chan struct{}
	once   sync.Once
}

func newObserver() *observer {
	return &observer{
		events: make(chan observed),
		done:   make(chan struct{}),
	}
}

func (o *observer) wrap(update runtime.UpdateFunc) runtime.UpdateFunc {
	return func(m model.Model, e model.Event) model.Change {
		change := update(m, e)
		select {
		case o.events <- observed{event: e, model: change.Model}:
		case <-o.done:
		}
		return change
	}
}

func (o *observer) close() {
	o.once.Do(func() { close(o.done) })
}

func driveSearch(ctx context.Context, runner *runtime.Runner, events <-chan observed, query string) (model.ResponseReceived, error) {
	loaded, err := waitFor(ctx, events, func(e model.Event) bool {
		_, ok := e.(model.StrPrefLoaded)
		return ok
	})
	if err != nil {
		return model.ResponseReceived{}, err
	}

	if !loaded.model.IsLoggedIn() {
		runner.Dispatch(model.LoginRequested{})
		chosen, err := waitFor(ctx, events, func(e model.Event) bool {
			_, ok := e.(model.AccountChosen)
			return ok
		})
		if err != nil {
			return model.ResponseReceived{}, err
		}
		if !chosen.model.IsLoggedIn() {
			return model.ResponseReceived{}, errNoAccount
		}
	}

	runner.Dispatch(model.QueryChanged{Value: query})
	runner.Dispatch(model.QuerySent{})

	done, err := waitFor(ctx, events, func(e model.Event) bool {
		switch e := e.(type) {
		case model.ResponseReceived:
			return true
		case model.PermissionRequested:
			return e.Result == model.PermissionDenied
		}
		return false
	})
	if err != nil {
		return model.ResponseReceived{}, err
	}
	if denied, ok := done.event.(model.PermissionRequested); ok {
		return model.ResponseReceived{}, fmt.Errorf("%w: %s", errPermissionDenied, denied.Permission)
	}
	return done.event.(model.ResponseReceived), nil
}

func waitFor(ctx context.Context, events <-chan observed, match func(model.Event) bool) (observed, error) {
	for {
		select {
		case <-ctx.Done():
			return observed{}, ctx.Err()
		case o := <-events:
			if match(o.event) {
				return o, nil
			}
		}
	}
}

func printResults(w io.Writer, result model.ResponseReceived) {
	printf(w, "%s for %q\n", util.FormatCount(len(result.Items), "result"), result.Query)
	for i, item := range result.Items {
		printf(w, "%2d. %s\n", i+1, util.FormatResultLine(item, 0))
		if url := util.VideoURL(item.VideoID); url != "" {
			printf(w, "    %s  (%s)\n", url, util.FormatPublishedDate(item.PublishedAt))
		}
	}
}

// lineToaster prints each toast on its own line.
type lineToaster struct {
	mu sync.Mutex
	w  io.Writer
}

func (t *lineToaster) Toast(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	printf(t.w, "» %s\n", text)
}

// autoChooser answers the account chooser without asking: the preferred
// account, else the selected one, else the first offered.
type autoChooser struct {
	preferred string
	results   chan model.AccountResult
}

func newAutoChooser(preferred string) *autoChooser {
	return &autoChooser{
		preferred: strings.TrimSpace(preferred),
		results:   make(chan model.AccountResult, 1),
	}
}

func (c *autoChooser) Launch(req model.ChooseAccountRequest) {
	c.results <- pickAccount(c.preferred, req)
}

func (c *autoChooser) Results() <-chan model.AccountResult {
	return c.results
}

func pickAccount(preferred string, req model.ChooseAccountRequest) model.AccountResult {
	switch {
	case preferred != "":
		return model.ChosenAccount(preferred)
	case req.Selected != nil:
		return model.ChosenAccount(*req.Selected)
	case len(req.Accounts) > 0:
		return model.ChosenAccount(req.Accounts[0])
	default:
		return model.AccountResult{Cancelled: true}
	}
}
