package model

import (
	"fmt"
	"strings"
	"time"
)

// PrefKey is the single persisted slot holding the serialized Model.
const PrefKey = "compotube.core.Main"

// PermissionGetAccounts is the permission required before searching.
const PermissionGetAccounts = "android.permission.GET_ACCOUNTS"

// KeyAccountName is the account-chooser result extra carrying the chosen account.
const KeyAccountName = "authAccount"

// Model is an immutable snapshot of application state. Models built through
// WithQuery and WithAccountName hold valid UTF-8 only, so they survive
// Serialize and Deserialize unchanged.
type Model struct {
	Query       string
	AccountName *string // nil when not logged in
}

// IsLoggedIn reports whether an account has been chosen.
func (m Model) IsLoggedIn() bool {
	return m.AccountName != nil
}

// WithQuery returns a copy of m with the query replaced.
func (m Model) WithQuery(query string) Model {
	m.Query = validUTF8(query)
	return m
}

// WithAccountName returns a copy of m with the account replaced.
func (m Model) WithAccountName(name *string) Model {
	m.AccountName = cloneString(name)
	if m.AccountName != nil {
		*m.AccountName = validUTF8(*m.AccountName)
	}
	return m
}

// validUTF8 replaces invalid byte sequences the way encoding/json would.
func validUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// Equal reports whether two models hold the same values.
func (m Model) Equal(other Model) bool {
	if m.Query != other.Query {
		return false
	}
	if (m.AccountName == nil) != (other.AccountName == nil) {
		return false
	}
	return m.AccountName == nil || *m.AccountName == *other.AccountName
}

func (m Model) String() string {
	return fmt.Sprintf("Model(query=%q, accountName=%s)", m.Query, DisplayName(m.AccountName))
}

// DisplayName renders an optional account name, "none" when absent.
func DisplayName(name *string) string {
	if name == nil {
		return "none"
	}
	return *name
}

// StringPtr returns a pointer to a copy of s.
func StringPtr(s string) *string {
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// PermissionResult is the outcome of a permission check or request.
type PermissionResult int

const (
	PermissionGranted PermissionResult = 0
	PermissionDenied  PermissionResult = -1
)

func (r PermissionResult) String() string {
	switch r {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return fmt.Sprintf("PermissionResult(%d)", int(r))
	}
}

// ChooseAccountRequest is the opaque request handed to the account chooser.
type ChooseAccountRequest struct {
	Accounts []string
	Scopes   []string
	Selected *string
}

// AccountResult is the raw result returned by the account chooser.
type AccountResult struct {
	Extras    map[string]string
	Cancelled bool
}

// AccountName extracts the chosen account name, nil when cancelled or missing.
func (r AccountResult) AccountName() *string {
	if r.Cancelled || r.Extras == nil {
		return nil
	}
	name, ok := r.Extras[KeyAccountName]
	if !ok {
		return nil
	}
	return &name
}

func (r AccountResult) String() string {
	if r.Cancelled {
		return "AccountResult(cancelled)"
	}
	return fmt.Sprintf("AccountResult(%s=%s)", KeyAccountName, DisplayName(r.AccountName()))
}

// ChosenAccount builds the result the chooser returns for a selected account.
func ChosenAccount(name string) AccountResult {
	return AccountResult{Extras: map[string]string{KeyAccountName: name}}
}

// SearchItem is a single search result.
type SearchItem struct {
	VideoID      string
	Title        string
	ChannelTitle string
	Description  string
	PublishedAt  time.Time
}

func (i SearchItem) String() string {
	return fmt.Sprintf("%s (%s)", i.Title, i.VideoID)
}

// FormatItems renders items for log output.
func FormatItems(items []SearchItem) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
