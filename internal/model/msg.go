package model

import "fmt"

// Event is something that happened and is fed into Update.
// The set of variants is closed: only types in this package implement it.
type Event interface {
	isEvent()
	fmt.Stringer
}

// LifecycleCreated is sent once when the screen becomes active.
type LifecycleCreated struct{}

// LifecycleDestroyed is evaluated inline when the screen becomes inactive.
type LifecycleDestroyed struct{}

// StrPrefLoaded carries the persisted string, nil when absent.
type StrPrefLoaded struct {
	Value *string
}

// LoginRequested is sent when the user asks to log in.
type LoginRequested struct{}

// AccountChosen carries the account chooser's raw result.
type AccountChosen struct {
	Result AccountResult
}

// QueryChanged is sent when the query text changes.
type QueryChanged struct {
	Value string
}

// QuerySent is sent when the user submits the query.
type QuerySent struct{}

// PermissionChecked carries the current grant state of a permission.
type PermissionChecked struct {
	Permission string
	Result     PermissionResult
}

// PermissionRequested carries the user's answer to a permission prompt.
type PermissionRequested struct {
	Permission string
	Result     PermissionResult
}

// ResponseReceived carries search results, or the error that replaced them.
type ResponseReceived struct {
	Query string
	Items []SearchItem
	Err   error
}

func (LifecycleCreated) isEvent()    {}
func (LifecycleDestroyed) isEvent()  {}
func (StrPrefLoaded) isEvent()       {}
func (LoginRequested) isEvent()      {}
func (AccountChosen) isEvent()       {}
func (QueryChanged) isEvent()        {}
func (QuerySent) isEvent()           {}
func (PermissionChecked) isEvent()   {}
func (PermissionRequested) isEvent() {}
func (ResponseReceived) isEvent()    {}

func (LifecycleCreated) String() string   { return "LifecycleCreated" }
func (LifecycleDestroyed) String() string { return "LifecycleDestroyed" }
func (LoginRequested) String() string     { return "LoginRequested" }
func (QuerySent) String() string          { return "QuerySent" }

func (e StrPrefLoaded) String() string {
	if e.Value == nil {
		return "StrPrefLoaded(value=null)"
	}
	return fmt.Sprintf("StrPrefLoaded(value=%q)", *e.Value)
}

func (e AccountChosen) String() string {
	return fmt.Sprintf("AccountChosen(result=%s)", e.Result)
}

func (e QueryChanged) String() string {
	return fmt.Sprintf("QueryChanged(value=%q)", e.Value)
}

func (e PermissionChecked) String() string {
	return fmt.Sprintf("PermissionChecked(permission=%s, result=%s)", e.Permission, e.Result)
}

func (e PermissionRequested) String() string {
	return fmt.Sprintf("PermissionRequested(permission=%s, result=%s)", e.Permission, e.Result)
}

func (e ResponseReceived) String() string {
	if e.Err != nil {
		return fmt.Sprintf("ResponseReceived(query=%q, err=%v)", e.Query, e.Err)
	}
	return fmt.Sprintf("ResponseReceived(query=%q, items=%d)", e.Query, len(e.Items))
}
