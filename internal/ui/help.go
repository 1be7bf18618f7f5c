package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Screen identifies what the host is showing.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenFinder
	ScreenChooser
	ScreenPrompt
)

// RenderHelp renders the context-sensitive help footer.
func RenderHelp(screen Screen, width int) string {
	switch screen {
	case ScreenLogin:
		return renderHelpLine([]string{
			helpKey("enter", "login"),
			helpKey("?", "help"),
			helpKey("q", "quit"),
		}, width)
	case ScreenFinder:
		return renderHelpLine([]string{
			helpKey("type", "query"),
			helpKey("enter", "search"),
			helpKey("↑/↓", "results"),
			helpKey("esc", "quit"),
		}, width)
	case ScreenChooser:
		return renderHelpLine([]string{
			helpKey("j/k", "navigate"),
			helpKey("enter", "choose"),
			helpKey("esc", "cancel"),
		}, width)
	case ScreenPrompt:
		return renderHelpLine([]string{
			helpKey("y", "allow"),
			helpKey("n/esc", "deny"),
		}, width)
	default:
		return renderHelpLine([]string{helpKey("ctrl+c", "quit")}, width)
	}
}

func helpKey(key, desc string) string {
	return KeyStyle.Render(key) + " " + MutedStyle.Render(desc)
}

func renderHelpLine(keys []string, width int) string {
	line := strings.Join(keys, "  ")
	return StatusBarStyle.Width(width).Render(line)
}

// RenderFullHelp renders the full help screen.
func RenderFullHelp(width, height int) string {
	content := lipgloss.NewStyle().
		Width(width-4).
		Height(height-6).
		Padding(1, 2)

	sections := []string{
		titleSection("Login"),
		helpSection([]helpItem{
			{"enter / l", "Choose a Google account"},
			{"q / esc", "Quit"},
		}),
		titleSection("Search"),
		helpSection([]helpItem{
			{"type", "Edit the query"},
			{"enter", "Send the query"},
			{"↑ / ↓", "Move through results"},
			{"esc", "Quit"},
		}),
		titleSection("Account chooser"),
		helpSection([]helpItem{
			{"j / k", "Move selection"},
			{"enter", "Use selected account"},
			{"esc", "Cancel"},
		}),
		titleSection("Permission prompt"),
		helpSection([]helpItem{
			{"y", "Allow access to accounts"},
			{"n / esc", "Deny"},
		}),
		titleSection("Global"),
		helpSection([]helpItem{
			{"?", "Toggle help"},
			{"ctrl+c", "Quit"},
		}),
	}

	helpText := content.Render(strings.Join(sections, "\n\n"))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		TopBarStyle.Width(width).Render("Help"),
		helpText,
		StatusBarStyle.Width(width).Render(KeyStyle.Render("esc")+" "+MutedStyle.Render("close help")),
	)
}

type helpItem struct {
	key  string
	desc string
}

func titleSection(title string) string {
	return SectionStyle.Render(title)
}

func helpSection(items []helpItem) string {
	var lines []string
	for _, item := range items {
		lines = append(lines, "  "+KeyStyle.Render(item.key)+" - "+MutedStyle.Render(item.desc))
	}
	return strings.Join(lines, "\n")
}
