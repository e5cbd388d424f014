package tui

import (
	"os"
	"strings"

	"grocery-cli/internal/store"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted     lipgloss.TerminalColor = ac("240", "243")
	colorAccent    lipgloss.TerminalColor = ac("28", "71") // green
	colorAccentFg  lipgloss.TerminalColor = ac("255", "235")
	colorError     lipgloss.TerminalColor = ac("160", "203")
	colorControlBg lipgloss.TerminalColor = ac("252", "235")
	colorSurfaceFg lipgloss.TerminalColor = ac("235", "252")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

func styleTitle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
}

func styleToast(kind string) lipgloss.Style {
	st := lipgloss.NewStyle().Padding(0, 1)
	switch kind {
	case "error":
		return st.Foreground(colorAccentFg).Background(colorError)
	case "success":
		return st.Foreground(colorAccentFg).Background(colorAccent)
	default:
		return st.Foreground(colorSurfaceFg).Background(colorControlBg)
	}
}

func styleActiveTab() lipgloss.Style {
	return lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(colorAccentFg).Background(colorAccent)
}

func styleTab() lipgloss.Style {
	return lipgloss.NewStyle().Padding(0, 1).Foreground(colorSurfaceFg).Background(colorControlBg)
}

// applyColorProfilePreference sets Lip Gloss's color profile for the interactive TUI.
//
// termenv.EnvColorProfile respects CLICOLOR/CLICOLOR_FORCE, which can disable colors in a
// TUI by accident, so only NO_COLOR is honored and the terminal's capabilities decide.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	profile := termenv.ColorProfile()

	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	} else if strings.Contains(term, "256color") && (profile == termenv.Ascii || profile == termenv.ANSI) {
		profile = termenv.ANSI256
	}
	lipgloss.SetColorProfile(profile)
}

// applyThemePreference points lipgloss.AdaptiveColor at the saved theme. GROCERY_TUI_THEME
// (light|dark) overrides it for one run. Returns whether the dark palette is in use.
func applyThemePreference(saved store.Theme) bool {
	dark := saved == store.ThemeDark
	switch strings.ToLower(strings.TrimSpace(os.Getenv("GROCERY_TUI_THEME"))) {
	case "light":
		dark = false
	case "dark":
		dark = true
	}
	lipgloss.SetHasDarkBackground(dark)
	return dark
}
