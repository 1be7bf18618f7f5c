package model

import "fmt"

// Effect is a request for the outside world to do something.
// Update only returns effects; the runner performs them.
type Effect interface {
	isEffect()
	fmt.Stringer
}

// Toast shows a transient notification.
type Toast struct {
	Text string
}

// Log writes a log record.
type Log struct {
	Tag  string
	Text string
	Err  error
}

// LoadPref reads a persisted string.
type LoadPref struct {
	Name    string
	Default *string
}

// SavePref writes a persisted string.
type SavePref struct {
	Name  string
	Value string
}

// ChooseAccount opens the account chooser.
type ChooseAccount struct{}

// SelectAccount commits an account to the credential used for searches.
type SelectAccount struct {
	Name *string
}

// CheckPermission reads the grant state of a permission.
type CheckPermission struct {
	Permission string
}

// RequestPermission prompts the user for a permission.
type RequestPermission struct {
	Permission string
}

// Search runs a search query.
type Search struct {
	Query string
}

func (Toast) isEffect()             {}
func (Log) isEffect()               {}
func (LoadPref) isEffect()          {}
func (SavePref) isEffect()          {}
func (ChooseAccount) isEffect()     {}
func (SelectAccount) isEffect()     {}
func (CheckPermission) isEffect()   {}
func (RequestPermission) isEffect() {}
func (Search) isEffect()            {}

func (e Toast) String() string { return fmt.Sprintf("Toast(%q)", e.Text) }

func (e Log) String() string {
	if e.Err != nil {
		return fmt.Sprintf("Log(tag=%s, text=%q, err=%v)", e.Tag, e.Text, e.Err)
	}
	return fmt.Sprintf("Log(tag=%s, text=%q)", e.Tag, e.Text)
}

func (e LoadPref) String() string {
	return fmt.Sprintf("LoadPref(name=%s, default=%s)", e.Name, DisplayName(e.Default))
}

func (e SavePref) String() string {
	return fmt.Sprintf("SavePref(name=%s, value=%q)", e.Name, e.Value)
}

func (ChooseAccount) String() string { return "ChooseAccount" }

func (e SelectAccount) String() string {
	return fmt.Sprintf("SelectAccount(%s)", DisplayName(e.Name))
}

func (e CheckPermission) String() string {
	return fmt.Sprintf("CheckPermission(%s)", e.Permission)
}

func (e RequestPermission) String() string {
	return fmt.Sprintf("RequestPermission(%s)", e.Permission)
}

func (e Search) String() string { return fmt.Sprintf("Search(%q)", e.Query) }

// Change is the result of one Update call: the next Model and the effects to run, in order.
type Change struct {
	Model   Model
	Effects []Effect
}

// NewChange builds a Change.
func NewChange(m Model, effects ...Effect) Change {
	return Change{Model: m, Effects: effects}
}
