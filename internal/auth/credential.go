// Package auth holds the account credential used for YouTube requests.
package auth

import (
	"errors"
	"sync"

	"compotube/internal/model"

	"golang.org/x/oauth2"
)

// ScopeYouTubeReadonly grants read-only access to YouTube data.
const ScopeYouTubeReadonly = "https://www.googleapis.com/auth/youtube.readonly"

// ErrNoAccount is returned when no account has been selected.
var ErrNoAccount = errors.New("no account selected")

// Account is a known account and its OAuth access token, if any.
type Account struct {
	Name  string
	Token string
}

// Credential tracks the selected account. It is safe for concurrent use.
type Credential struct {
	mu       sync.RWMutex
	scopes   []string
	accounts []Account
	sources  map[string]oauth2.TokenSource
	selected *string
}

// UsingOAuth2 creates a credential over the given accounts and scopes.
func UsingOAuth2(accounts []Account, scopes ...string) *Credential {
	if len(scopes) == 0 {
		scopes = []string{ScopeYouTubeReadonly}
	}
	c := &Credential{
		scopes:   append([]string(nil), scopes...),
		accounts: append([]Account(nil), accounts...),
		sources:  make(map[string]oauth2.TokenSource),
	}
	for _, a := range c.accounts {
		if a.Token == "" {
			continue
		}
		c.sources[a.Name] = oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: a.Token,
			TokenType:   "Bearer",
		})
	}
	return c
}

// NewChooseAccountRequest describes the accounts the chooser should offer.
func (c *Credential) NewChooseAccountRequest() model.ChooseAccountRequest {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.accounts))
	for i, a := range c.accounts {
		names[i] = a.Name
	}
	req := model.ChooseAccountRequest{
		Accounts: names,
		Scopes:   append([]string(nil), c.scopes...),
	}
	if c.selected != nil {
		req.Selected = model.StringPtr(*c.selected)
	}
	return req
}

// SelectAccount sets the account used by subsequent requests. nil clears it.
func (c *Credential) SelectAccount(name *string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name == nil {
		c.selected = nil
		return
	}
	c.selected = model.StringPtr(*name)
}

// SelectedAccountName returns the selected account, nil when none.
func (c *Credential) SelectedAccountName() *string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selected == nil {
		return nil
	}
	return model.StringPtr(*c.selected)
}

// TokenSource returns the selected account and the source of its access
// token. The source is nil when the account has no token configured.
func (c *Credential) TokenSource() (string, oauth2.TokenSource, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selected == nil {
		return "", nil, ErrNoAccount
	}
	return *c.selected, c.sources[*c.selected], nil
}

// Scopes returns the OAuth scopes requested for this credential.
func (c *Credential) Scopes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.scopes...)
}
