package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var queuedStyle = lipgloss.NewStyle().
	Foreground(lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"})

var runningStyle = lipgloss.NewStyle().
	Foreground(lipgloss.AdaptiveColor{Light: "#51bd73", Dark: "#51bd73"})

var succeededStyle = lipgloss.NewStyle().
	Foreground(lipgloss.AdaptiveColor{Light: "#888888", Dark: "#888888"})

var failedStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#de613e"))

var tailStyle = lipgloss.NewStyle().
	Foreground(lipgloss.AdaptiveColor{Light: "#aaaaaa", Dark: "#666666"})

var summaryTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#dddddd"})
