package ui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	ColorInk   = lipgloss.Color("#0F0F0F")
	ColorDim   = lipgloss.Color("#8A8A8A")
	ColorLight = lipgloss.Color("#F1F1F1")
	ColorBrand = lipgloss.Color("#FF4E45")
	ColorLink  = lipgloss.Color("#3EA6FF")
	ColorOK    = lipgloss.Color("#2BA640")
	ColorError = lipgloss.Color("#FF6B6B")
	ColorAlert = lipgloss.Color("#FFC145")
)

// Chrome: top bar and status bar.
var (
	BrandStyle = lipgloss.NewStyle().
			Foreground(ColorBrand).
			Bold(true).
			Padding(0, 1)

	TopBarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.ThickBorder()).
			BorderBottom(true).
			BorderForeground(ColorBrand)

	CrumbStyle       = lipgloss.NewStyle().Foreground(ColorDim)
	CrumbActiveStyle = lipgloss.NewStyle().Foreground(ColorLight).Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorDim).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(ColorDim)

	KeyStyle   = lipgloss.NewStyle().Foreground(ColorLink).Bold(true)
	MutedStyle = lipgloss.NewStyle().Foreground(ColorDim)
	BodyStyle  = lipgloss.NewStyle().Foreground(ColorLight)

	SectionStyle = lipgloss.NewStyle().
			Foreground(ColorBrand).
			Bold(true)

	AlertStyle = lipgloss.NewStyle().
			Foreground(ColorAlert).
			Bold(true)
)

// Login and finder screens.
var (
	LoginButtonStyle = lipgloss.NewStyle().
				Foreground(ColorLight).
				Background(ColorBrand).
				Bold(true).
				Padding(0, 4)

	CursorRowStyle = lipgloss.NewStyle().
			Foreground(ColorInk).
			Background(ColorLight)

	HintStyle = lipgloss.NewStyle().
			Foreground(ColorDim).
			Italic(true).
			Padding(1, 4)

	SearchErrorStyle = lipgloss.NewStyle().
				Foreground(ColorError).
				Padding(0, 2)
)

// Overlays: toast banner, permission prompt and account card.
var (
	ToastBannerStyle = lipgloss.NewStyle().
				Foreground(ColorInk).
				Background(ColorOK).
				Padding(0, 2)

	PromptBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorAlert).
			Padding(1, 3)

	CardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorDim).
			Padding(1, 3)
)
