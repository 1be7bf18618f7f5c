package ui

import (
	"fmt"
	"strings"

	"compotube/internal/model"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const otherAccountLabel = "Use another account…"

// ChooserModel is the account chooser dialog.
type ChooserModel struct {
	request model.ChooseAccountRequest
	cursor  int
	manual  bool
	input   textinput.Model
	keys    ModalKeyMap
}

// NewChooserModel creates a chooser for req. Without known accounts it starts
// with the account name input.
func NewChooserModel(req model.ChooseAccountRequest) *ChooserModel {
	input := textinput.New()
	input.Placeholder = "name@example.com"
	input.CharLimit = 254

	c := &ChooserModel{
		request: req,
		input:   input,
		keys:    DefaultModalKeyMap(),
	}
	if req.Selected != nil {
		for i, name := range req.Accounts {
			if name == *req.Selected {
				c.cursor = i
			}
		}
	}
	if len(req.Accounts) == 0 {
		c.openManual()
	}
	return c
}

func (c *ChooserModel) openManual() {
	c.manual = true
	c.input.Focus()
}

// Update handles a key. done is true once the user has chosen or cancelled.
func (c *ChooserModel) Update(msg tea.KeyMsg) (done bool, result model.AccountResult, cmd tea.Cmd) {
	if c.manual {
		switch {
		case key.Matches(msg, c.keys.Cancel):
			if len(c.request.Accounts) == 0 {
				return true, model.AccountResult{Cancelled: true}, nil
			}
			c.manual = false
			c.input.Blur()
			return false, model.AccountResult{}, nil
		case key.Matches(msg, c.keys.Select):
			name := strings.TrimSpace(c.input.Value())
			if name == "" {
				return false, model.AccountResult{}, nil
			}
			return true, model.ChosenAccount(name), nil
		}
		c.input, cmd = c.input.Update(msg)
		return false, model.AccountResult{}, cmd
	}

	switch {
	case key.Matches(msg, c.keys.Cancel):
		return true, model.AccountResult{Cancelled: true}, nil
	case key.Matches(msg, c.keys.Up):
		if c.cursor > 0 {
			c.cursor--
		}
	case key.Matches(msg, c.keys.Down):
		if c.cursor < len(c.request.Accounts) {
			c.cursor++
		}
	case key.Matches(msg, c.keys.Select):
		if c.cursor == len(c.request.Accounts) {
			c.openManual()
			return false, model.AccountResult{}, textinput.Blink
		}
		return true, model.ChosenAccount(c.request.Accounts[c.cursor]), nil
	}
	return false, model.AccountResult{}, nil
}

// View renders the dialog.
func (c *ChooserModel) View(width, height int) string {
	var b strings.Builder
	b.WriteString(SectionStyle.Render("Choose an account"))
	b.WriteString("\n\n")

	if c.manual {
		b.WriteString(MutedStyle.Render("Account name"))
		b.WriteString("\n")
		b.WriteString(c.input.View())
	} else {
		rows := append(append([]string(nil), c.request.Accounts...), otherAccountLabel)
		for i, row := range rows {
			line := "  " + row
			if i == c.cursor {
				line = CursorRowStyle.Render("> " + row)
			} else {
				line = BodyStyle.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if len(c.request.Scopes) > 0 {
		b.WriteString("\n")
		b.WriteString(MutedStyle.Render(fmt.Sprintf("Access requested: %s", strings.Join(c.request.Scopes, ", "))))
	}

	box := CardStyle.Width(min(width-4, 72)).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
