package ui

import "compotube/internal/model"

// Bubble Tea message types

// modelMsg carries a model committed by the runner.
type modelMsg struct {
	model model.Model
}

// toastMsg shows a transient notification.
type toastMsg struct {
	text string
}

// toastExpiredMsg hides the notification with the given id.
type toastExpiredMsg struct {
	id int
}

// chooseAccountMsg opens the account chooser.
type chooseAccountMsg struct {
	request model.ChooseAccountRequest
}

// promptMsg asks the user for a permission. The answer goes to reply.
type promptMsg struct {
	permission string
	reply      chan<- bool
}

// searchStartedMsg is sent when a search request leaves.
type searchStartedMsg struct {
	query string
}

// resultsMsg carries the outcome of a search request.
type resultsMsg struct {
	query string
	items []model.SearchItem
	err   error
}
