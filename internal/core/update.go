// Package core holds the pure state-transition function of the app.
package core

import (
	"errors"
	"fmt"

	"compotube/internal/model"
)

// Tag is the log tag attached to effects emitted by Update.
const Tag = "Main"

// ErrNilEvent is reported when Update receives no event.
var ErrNilEvent = errors.New("nil event")

// Update computes the next Model and the effects needed to realize e.
// It never performs I/O and returns the same Change for the same inputs.
func Update(m model.Model, e model.Event) model.Change {
	switch e := e.(type) {
	case model.LifecycleCreated:
		return model.NewChange(m, model.LoadPref{Name: model.PrefKey})
	case model.StrPrefLoaded:
		// A malformed slot falls back to the default model.
		restored, _ := model.Deserialize(e.Value)
		return model.NewChange(restored)
	case model.LoginRequested:
		return model.NewChange(m, model.ChooseAccount{})
	case model.AccountChosen:
		return updateAccount(m, e)
	case model.QueryChanged:
		return updateQuery(m, e)
	case model.QuerySent:
		return model.NewChange(m, model.CheckPermission{Permission: model.PermissionGetAccounts})
	case model.PermissionChecked:
		return requestPermissionOrSearch(m, e)
	case model.PermissionRequested:
		return searchOrGiveUp(m, e)
	case model.ResponseReceived:
		return updateResults(m, e)
	case model.LifecycleDestroyed:
		return model.NewChange(m, model.SavePref{Name: model.PrefKey, Value: model.Serialize(m)})
	case nil:
		return Failure(m, e, ErrNilEvent)
	default:
		return Failure(m, e, fmt.Errorf("unknown event type %T", e))
	}
}

// Failure leaves m unchanged and reports err as a toast and a log record.
func Failure(m model.Model, e model.Event, err error) model.Change {
	name := eventName(e)
	return model.NewChange(m,
		model.Toast{Text: fmt.Sprintf("Failure handling event %s: %v", name, err)},
		model.Log{Tag: Tag, Text: "Failure handling event " + name, Err: err},
	)
}

func eventName(e model.Event) string {
	if e == nil {
		return "<nil>"
	}
	return e.String()
}

func updateAccount(m model.Model, e model.AccountChosen) model.Change {
	name := e.Result.AccountName()
	return model.NewChange(m.WithAccountName(name),
		model.Toast{Text: "Account chosen: " + model.DisplayName(name)},
		model.SelectAccount{Name: name},
	)
}

func updateQuery(m model.Model, e model.QueryChanged) model.Change {
	return model.NewChange(m.WithQuery(e.Value),
		model.Log{Tag: Tag, Text: "You're looking for " + e.Value},
	)
}

func requestPermissionOrSearch(m model.Model, e model.PermissionChecked) model.Change {
	switch e.Result {
	case model.PermissionGranted:
		return search(m)
	case model.PermissionDenied:
		return model.NewChange(m, model.RequestPermission{Permission: model.PermissionGetAccounts})
	default:
		return Failure(m, e, fmt.Errorf("unknown permission check result: %d", int(e.Result)))
	}
}

// searchOrGiveUp handles the answer to a permission prompt. A denial is final
// so the check/request cycle cannot loop.
func searchOrGiveUp(m model.Model, e model.PermissionRequested) model.Change {
	switch e.Result {
	case model.PermissionGranted:
		return search(m)
	case model.PermissionDenied:
		text := "Permission denied: " + e.Permission
		return model.NewChange(m,
			model.Toast{Text: text},
			model.Log{Tag: Tag, Text: text},
		)
	default:
		return Failure(m, e, fmt.Errorf("unknown permission request result: %d", int(e.Result)))
	}
}

func search(m model.Model) model.Change {
	return model.NewChange(m,
		model.Toast{Text: "Query sent: " + m.Query},
		model.Search{Query: m.Query},
	)
}

// updateResults applies a response whatever query it answers; the latest one wins.
func updateResults(m model.Model, e model.ResponseReceived) model.Change {
	var effects []model.Effect
	if e.Err != nil {
		effects = append(effects,
			model.Toast{Text: fmt.Sprintf("Error searching for %q: %v", e.Query, e.Err)},
			model.Log{Tag: Tag, Text: fmt.Sprintf("Error searching for %q", e.Query), Err: e.Err},
		)
	}
	items := e.Items
	if e.Err != nil {
		items = nil
	}
	effects = append(effects,
		model.Toast{Text: fmt.Sprintf("Received %d results", len(items))},
		model.Log{Tag: Tag, Text: "Received result: " + model.FormatItems(items)},
	)
	return model.NewChange(m, effects...)
}
