package ui

import (
	"fmt"
	"strings"
	"time"

	"compotube/internal/model"
	"compotube/internal/util"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const toastDuration = 3 * time.Second

// Dispatcher accepts events and exposes the committed model.
type Dispatcher interface {
	Dispatch(e model.Event) bool
	Model() model.Model
}

// Model is the root Bubble Tea model. It renders the committed model and turns
// user input into events; it never changes the committed model itself.
type Model struct {
	runner Dispatcher
	host   *Host
	state  model.Model

	width  int
	height int

	input   textinput.Model
	pending []string // queries dispatched but not yet committed

	chooser *ChooserModel
	prompts []*PromptModel

	toast   string
	toastID int

	results      []model.SearchItem
	resultsQuery string
	searchErr    string
	cursor       int
	searching    bool
	spinner      spinner.Model

	showingHelp bool
	keys        KeyMap
}

// New creates the root model.
func New(runner Dispatcher, host *Host) Model {
	input := textinput.New()
	input.Placeholder = "Search Compotube"
	input.CharLimit = 256
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SectionStyle

	state := runner.Model()
	input.SetValue(state.Query)

	return Model{
		runner:  runner,
		host:    host,
		state:   state,
		input:   input,
		spinner: sp,
		keys:    DefaultKeyMap(),
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-30, 10)
		return m, nil

	case modelMsg:
		m.applyModel(msg.model)
		return m, nil

	case toastMsg:
		m.toastID++
		m.toast = msg.text
		id := m.toastID
		return m, tea.Tick(toastDuration, func(time.Time) tea.Msg {
			return toastExpiredMsg{id: id}
		})

	case toastExpiredMsg:
		if msg.id == m.toastID {
			m.toast = ""
		}
		return m, nil

	case chooseAccountMsg:
		m.chooser = NewChooserModel(msg.request)
		return m, textinput.Blink

	case promptMsg:
		m.prompts = append(m.prompts, NewPromptModel(msg.permission, msg.reply))
		return m, nil

	case searchStartedMsg:
		m.searching = true
		m.searchErr = ""
		return m, m.spinner.Tick

	case resultsMsg:
		m.searching = false
		if msg.err != nil {
			m.searchErr = msg.err.Error()
			return m, nil
		}
		m.results = msg.items
		m.resultsQuery = msg.query
		m.cursor = 0
		return m, nil

	case spinner.TickMsg:
		if !m.searching {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	if m.chooser != nil && m.chooser.manual {
		m.chooser.input, cmd = m.chooser.input.Update(msg)
		return m, cmd
	}
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// applyModel takes a committed model. The query field is only overwritten
// once every locally typed query has been committed.
func (m *Model) applyModel(next model.Model) {
	m.state = next
	if len(m.pending) > 0 && next.Query == m.pending[0] {
		m.pending = m.pending[1:]
	}
	if len(m.pending) == 0 && m.input.Value() != next.Query {
		m.input.SetValue(next.Query)
		m.input.CursorEnd()
	}
	if !next.IsLoggedIn() {
		m.results = nil
		m.resultsQuery = ""
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Force) {
		return m, tea.Quit
	}

	if m.showingHelp {
		if msg.String() == "esc" || msg.String() == "?" {
			m.showingHelp = false
		}
		return m, nil
	}

	if len(m.prompts) > 0 {
		prompt := m.prompts[0]
		if done, granted := prompt.Update(msg); done {
			prompt.answer(granted)
			m.prompts = m.prompts[1:]
		}
		return m, nil
	}

	if m.chooser != nil {
		done, result, cmd := m.chooser.Update(msg)
		if done {
			m.chooser = nil
			return m, m.host.complete(result)
		}
		return m, cmd
	}

	if !m.state.IsLoggedIn() {
		switch {
		case key.Matches(msg, m.keys.Help):
			m.showingHelp = true
		case key.Matches(msg, m.keys.Login):
			m.runner.Dispatch(model.LoginRequested{})
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case msg.String() == "esc":
		return m, tea.Quit
	case key.Matches(msg, m.keys.Submit):
		m.runner.Dispatch(model.QuerySent{})
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.results)-1 {
			m.cursor++
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != before {
		if m.runner.Dispatch(model.QueryChanged{Value: value}) {
			m.pending = append(m.pending, value)
		}
	}
	return m, cmd
}

func (m Model) currentScreen() Screen {
	switch {
	case len(m.prompts) > 0:
		return ScreenPrompt
	case m.chooser != nil:
		return ScreenChooser
	case m.state.IsLoggedIn():
		return ScreenFinder
	default:
		return ScreenLogin
	}
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if m.showingHelp {
		return RenderFullHelp(m.width, m.height)
	}

	screen := m.currentScreen()

	// Header: 2 lines, footer: 2 lines
	contentHeight := m.height - 4

	var banner string
	if m.toast != "" {
		banner = ToastBannerStyle.Width(m.width).Render(m.toast)
		contentHeight--
	}

	var content string
	var breadcrumbParts []string
	switch screen {
	case ScreenPrompt:
		breadcrumbParts = []string{"Permission"}
		content = m.prompts[0].View(m.width, contentHeight)
	case ScreenChooser:
		breadcrumbParts = []string{"Login", "Account"}
		content = m.chooser.View(m.width, contentHeight)
	case ScreenFinder:
		breadcrumbParts = []string{"Search"}
		content = m.renderFinder(m.width, contentHeight)
	default:
		breadcrumbParts = []string{"Login"}
		content = m.renderLogin(m.width, contentHeight)
	}

	header := renderHeader(breadcrumbParts, m.state.AccountName, m.width)
	footer := RenderHelp(screen, m.width)

	// Ensure content fills the available height to anchor footer at bottom
	contentStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(contentHeight)
	content = contentStyle.Render(content)

	if banner != "" {
		return lipgloss.JoinVertical(lipgloss.Left, header, banner, content, footer)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (m Model) renderLogin(width, height int) string {
	body := lipgloss.JoinVertical(lipgloss.Center,
		BodyStyle.Render("To use compotube you need to be logged in"),
		"",
		LoginButtonStyle.Render("Login"),
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)
}

func (m Model) renderFinder(width, height int) string {
	account := CrumbStyle.Render(model.DisplayName(m.state.AccountName))
	inputRow := lipgloss.JoinHorizontal(lipgloss.Center,
		SectionStyle.Render("Search "),
		m.input.View(),
		"  ",
		account,
	)
	lines := []string{"", "  " + inputRow, ""}

	switch {
	case m.searching:
		lines = append(lines, "  "+m.spinner.View()+MutedStyle.Render(" Searching…"))
	case m.searchErr != "":
		lines = append(lines, SearchErrorStyle.Render("Error: "+m.searchErr))
	case m.resultsQuery == "":
		lines = append(lines, HintStyle.Render("Type a query and press enter"))
	case len(m.results) == 0:
		lines = append(lines, HintStyle.Render(fmt.Sprintf("No results for %q", m.resultsQuery)))
	default:
		lines = append(lines, MutedStyle.Render(fmt.Sprintf("  %s for %q",
			util.FormatCount(len(m.results), "result"), m.resultsQuery)))
		lines = append(lines, m.renderResults(width, height-len(lines))...)
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderResults(width, height int) []string {
	if height <= 0 {
		return nil
	}
	start := 0
	if m.cursor >= height {
		start = m.cursor - height + 1
	}
	end := min(start+height, len(m.results))

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		line := util.FormatResultLine(m.results[i], width-6)
		if i == m.cursor {
			rows = append(rows, "  "+CursorRowStyle.Render(line))
		} else {
			rows = append(rows, "  "+BodyStyle.Render(line))
		}
	}
	return rows
}

func renderHeader(breadcrumbParts []string, accountName *string, width int) string {
	// Left side: app name + breadcrumb
	title := BrandStyle.Render("compotube")

	var breadcrumb string
	if len(breadcrumbParts) > 0 {
		separator := CrumbStyle.Render(" › ")
		parts := make([]string, len(breadcrumbParts))
		for i, part := range breadcrumbParts {
			if i == len(breadcrumbParts)-1 {
				parts[i] = CrumbActiveStyle.Render(part)
			} else {
				parts[i] = CrumbStyle.Render(part)
			}
		}
		breadcrumb = separator + strings.Join(parts, separator)
	}

	left := "  " + title + breadcrumb

	// Right side: account
	status := "not logged in"
	if accountName != nil {
		status = *accountName
	}
	right := CrumbStyle.Render(status) + "  "

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	headerContent := left + strings.Repeat(" ", padding) + right
	return TopBarStyle.Width(width).Render(headerContent)
}
