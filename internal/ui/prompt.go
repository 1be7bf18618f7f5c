package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PromptModel asks the user to grant a permission.
type PromptModel struct {
	permission string
	reply      chan<- bool
	keys       ModalKeyMap
}

// NewPromptModel creates a prompt answering on reply.
func NewPromptModel(permission string, reply chan<- bool) *PromptModel {
	return &PromptModel{
		permission: permission,
		reply:      reply,
		keys:       DefaultModalKeyMap(),
	}
}

// Update handles a key. done is true once the user has answered.
func (p *PromptModel) Update(msg tea.KeyMsg) (done bool, granted bool) {
	switch {
	case key.Matches(msg, p.keys.Yes):
		return true, true
	case key.Matches(msg, p.keys.No), key.Matches(msg, p.keys.Cancel):
		return true, false
	}
	return false, false
}

// answer delivers the user's choice. reply is buffered so this never blocks.
func (p *PromptModel) answer(granted bool) {
	select {
	case p.reply <- granted:
	default:
	}
}

// View renders the dialog.
func (p *PromptModel) View(width, height int) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		AlertStyle.Render("Permission required"),
		"",
		BodyStyle.Render("compotube needs access to the accounts on this device to search."),
		MutedStyle.Render(fmt.Sprintf("(%s)", p.permission)),
		"",
		helpKey("y", "allow")+"  "+helpKey("n", "deny"),
	)
	box := PromptBoxStyle.Width(min(width-4, 72)).Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
