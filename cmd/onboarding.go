package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"compotube/internal/ui"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// shouldRunOnboarding reports whether the first-run setup should ask for an
// account and an API key: there is no config file yet and a user to ask.
func shouldRunOnboarding(config *Config) bool {
	if configExists(config.ConfigPath) {
		return false
	}
	return isTerminal(os.Stdin)
}

type onboardingStep int

const (
	stepAccount onboardingStep = iota
	stepKey
	stepDone
)

type onboardingModel struct {
	step        onboardingStep
	existingKey string
	input       textinput.Model
	account     string
	capturedKey string
	cancelled   bool
	status      string
	width       int
	height      int
}

var (
	obInputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ui.ColorBrand).
			Padding(0, 1)

	obTabInactive = lipgloss.NewStyle().
			Foreground(ui.ColorDim).
			Padding(0, 2)

	obTabActive = lipgloss.NewStyle().
			Foreground(ui.ColorLight).
			Bold(true).
			Underline(true).
			Padding(0, 2)
)

func newOnboardingModel(existingKey string) onboardingModel {
	in := textinput.New()
	in.CharLimit = 300
	in.TextStyle = lipgloss.NewStyle().Foreground(ui.ColorLight)
	in.PlaceholderStyle = lipgloss.NewStyle().Foreground(ui.ColorDim)
	in.Cursor.Style = lipgloss.NewStyle().Foreground(ui.ColorLight).Background(ui.ColorBrand)

	m := onboardingModel{
		step:        stepAccount,
		existingKey: strings.TrimSpace(existingKey),
		input:       in,
	}
	m.focusStep()
	return m
}

func (m *onboardingModel) focusStep() {
	m.input.Reset()
	switch m.step {
	case stepAccount:
		m.input.Placeholder = "name@example.com"
		m.input.Prompt = "account> "
		m.input.EchoMode = textinput.EchoNormal
	case stepKey:
		m.input.Placeholder = "Paste YouTube Data API key here"
		m.input.Prompt = "api> "
		m.input.EchoMode = textinput.EchoPassword
	}
	m.input.Focus()
}

func (m onboardingModel) Init() tea.Cmd { return textinput.Blink }

func (m onboardingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancelled = true
			m.status = "Setup canceled. Nothing was saved."
			m.step = stepDone
			return m, tea.Quit
		case "esc":
			// Skip the current step.
			return m.nextStep("")
		case "enter":
			return m.nextStep(strings.TrimSpace(m.input.Value()))
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m onboardingModel) nextStep(value string) (tea.Model, tea.Cmd) {
	switch m.step {
	case stepAccount:
		m.account = value
		if m.existingKey != "" {
			m.status = "Using existing " + apiKeyEnv + " from environment/flags."
			m.step = stepDone
			return m, tea.Quit
		}
		m.step = stepKey
		m.focusStep()
		return m, textinput.Blink
	case stepKey:
		m.capturedKey = value
		if value == "" {
			m.status = "No key entered. Searches need an account token or an API key."
		} else {
			m.status = "API key saved."
		}
		m.step = stepDone
		return m, tea.Quit
	}
	return m, nil
}

func (m onboardingModel) View() string {
	width := m.width
	height := m.height
	if width <= 0 {
		width = 100
	}
	if height <= 0 {
		height = 28
	}

	header := m.renderHeader(width)
	tabs := m.renderTabs(width)
	footer := m.renderFooter(width)

	contentHeight := max(height-6, 8)
	content := m.renderContent(width, contentHeight)
	view := lipgloss.JoinVertical(lipgloss.Left, header, tabs, content, footer)

	return lipgloss.NewStyle().
		Foreground(ui.ColorLight).
		Width(width).
		Height(height).
		Render(view)
}

func (m onboardingModel) renderHeader(width int) string {
	left := "  " + ui.BrandStyle.Render("compotube") + ui.CrumbStyle.Render(" › Setup")
	right := ui.CrumbStyle.Render(time.Now().Format("Mon 02 Jan")) + "  "
	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return ui.TopBarStyle.Width(width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m onboardingModel) renderTabs(width int) string {
	accountTab := obTabInactive.Render("Account")
	keyTab := obTabInactive.Render("API Key")
	switch m.step {
	case stepAccount:
		accountTab = obTabActive.Render("Account")
	case stepKey:
		keyTab = obTabActive.Render("API Key")
	}
	return lipgloss.NewStyle().Width(width).Render(lipgloss.JoinHorizontal(lipgloss.Left, "  ", accountTab, keyTab))
}

func (m onboardingModel) renderFooter(width int) string {
	if m.step == stepDone {
		return ui.StatusBarStyle.Width(width).Render("Setup complete")
	}
	return ui.StatusBarStyle.Width(width).Render("enter save  esc skip  ctrl+c cancel")
}

func (m onboardingModel) renderContent(width, height int) string {
	cardWidth := min(92, width-6)
	if cardWidth < 40 {
		cardWidth = width - 2
	}
	input := obInputStyle.Width(max(30, cardWidth-14)).Render(m.input.View())

	var body string
	switch m.step {
	case stepAccount:
		body = lipgloss.JoinVertical(
			lipgloss.Left,
			ui.SectionStyle.Render("Which account do you search with?"),
			"",
			ui.MutedStyle.Render("It is offered in the account chooser when you log in."),
			ui.MutedStyle.Render("More accounts and their OAuth tokens go under accounts in config.yaml."),
			"",
			input,
		)
	case stepKey:
		body = lipgloss.JoinVertical(
			lipgloss.Left,
			ui.SectionStyle.Render("Get a YouTube Data API key:"),
			"",
			ui.MutedStyle.Render("1) https://console.cloud.google.com/apis/library/youtube.googleapis.com"),
			ui.MutedStyle.Render("2) Enable the API and create credentials"),
			ui.MutedStyle.Render("3) Copy the API key"),
			"",
			input,
			"",
			ui.MutedStyle.Render("Press Enter to save, Esc to skip."),
		)
	default:
		msg := ui.MutedStyle.Render(m.status)
		if m.cancelled || strings.HasPrefix(m.status, "No key") {
			msg = ui.AlertStyle.Render(m.status)
		}
		body = lipgloss.JoinVertical(lipgloss.Left, ui.SectionStyle.Render("Onboarding Complete"), "", msg)
	}

	card := ui.CardStyle.Width(cardWidth).Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, card)
}

// runOnboarding asks for the first account and the API key and writes them to
// the config directory.
func runOnboarding(config *Config) error {
	prog := tea.NewProgram(newOnboardingModel(config.APIKey), tea.WithAltScreen())
	finalModel, err := prog.Run()
	if err != nil {
		return fmt.Errorf("onboarding tui failed: %w", err)
	}
	m, ok := finalModel.(onboardingModel)
	if !ok {
		return fmt.Errorf("unexpected onboarding model type")
	}
	if m.cancelled {
		return nil
	}
	return saveOnboarding(config, m.account, m.capturedKey)
}

func saveOnboarding(config *Config, account, apiKey string) error {
	if err := saveSecureAPIKey(config.Dir, apiKey); err != nil {
		return err
	}
	file, err := loadFileConfig(config.ConfigPath)
	if err != nil {
		return err
	}
	if account = strings.TrimSpace(account); account != "" {
		file.Accounts = append(file.Accounts, accountConfig{Name: account})
	}
	return saveFileConfig(config.ConfigPath, file)
}
