package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"compotube/internal/db"
	"compotube/internal/runtime"
	"compotube/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"
)

var errNotTerminal = errors.New("stdin is not a terminal; use `compotube search <query>` instead")

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func runTUI(ctx context.Context, env *environment) error {
	if !isTerminal(os.Stdin) {
		return errNotTerminal
	}

	host := ui.NewHost()
	runner := runtime.New(runtime.Platform{
		Toaster:     host,
		Prefs:       env.store,
		Credential:  env.credential,
		Chooser:     host,
		Permissions: db.NewPermissions(env.store, host),
		Searcher:    host.ObserveSearch(env.newSearchClient()),
		Renderer:    host,
	}, runtime.WithLogger(env.logger))

	p := tea.NewProgram(ui.New(runner, host), tea.WithAltScreen(), tea.WithContext(ctx))
	// Attach before starting so the first committed model reaches the program.
	host.Attach(p)

	err := runSession(ctx, p, runner, func() { host.Attach(nil) })
	if err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	env.logger.Info("session ended", "session", runner.Session())
	return nil
}

// program is the part of tea.Program a session drives.
type program interface {
	Run() (tea.Model, error)
	Quit()
}

// lifecycle is the part of runtime.Runner a session drives.
type lifecycle interface {
	Start(ctx context.Context) error
	Stop() error
}

// runSession runs the program and the runner side by side. When either one
// ends, or ctx is cancelled, the program quits and the runner is stopped.
// detach is called once the program can no longer receive messages.
func runSession(ctx context.Context, p program, runner lifecycle, detach func()) error {
	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancelRun := context.WithCancel(gctx)
	defer cancelRun()

	if err := runner.Start(runCtx); err != nil {
		return fmt.Errorf("failed to start runner: %w", err)
	}

	g.Go(func() error {
		defer cancelRun()
		_, err := p.Run()
		detach()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-runCtx.Done()
		p.Quit()
		return runner.Stop()
	})
	return g.Wait()
}
