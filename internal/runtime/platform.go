package runtime

import (
	"context"
	"errors"
	"strings"

	"compotube/internal/model"
)

// Toaster shows transient notifications. It may be called from any goroutine.
type Toaster interface {
	Toast(text string)
}

// PrefStore persists named strings.
type PrefStore interface {
	LoadString(ctx context.Context, name string, def *string) (*string, error)
	SaveString(ctx context.Context, name, value string) error
}

// Credential holds the account used for authenticated searches.
type Credential interface {
	NewChooseAccountRequest() model.ChooseAccountRequest
	SelectAccount(name *string)
}

// AccountChooser runs the account selection interaction. Its results arrive on
// Results, not as return values of Launch.
type AccountChooser interface {
	Launch(req model.ChooseAccountRequest)
	Results() <-chan model.AccountResult
}

// Permissions checks and requests permission grants. Request blocks until the
// user answers. Its result is used even when it also returns an error, so a
// grant that could not be recorded still counts.
type Permissions interface {
	Check(ctx context.Context, permission string) (model.PermissionResult, error)
	Request(ctx context.Context, permission string) (model.PermissionResult, error)
}

// Searcher runs search queries against the network.
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.SearchItem, error)
}

// Renderer is notified with every committed Model.
type Renderer interface {
	Render(m model.Model)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(m model.Model)

// Render calls f(m).
func (f RendererFunc) Render(m model.Model) { f(m) }

// Platform bundles the collaborators effects are executed against.
type Platform struct {
	Toaster     Toaster
	Prefs       PrefStore
	Credential  Credential
	Chooser     AccountChooser
	Permissions Permissions
	Searcher    Searcher
	Renderer    Renderer // optional
}

func (p Platform) validate() error {
	var missing []string
	if p.Toaster == nil {
		missing = append(missing, "toaster")
	}
	if p.Prefs == nil {
		missing = append(missing, "prefs")
	}
	if p.Credential == nil {
		missing = append(missing, "credential")
	}
	if p.Chooser == nil {
		missing = append(missing, "chooser")
	}
	if p.Permissions == nil {
		missing = append(missing, "permissions")
	}
	if p.Searcher == nil {
		missing = append(missing, "searcher")
	}
	if len(missing) > 0 {
		return errors.New("missing platform collaborators: " + strings.Join(missing, ", "))
	}
	return nil
}
