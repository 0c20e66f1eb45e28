package ui

import "github.com/charmbracelet/lipgloss"

// Palette shared by every table/border style in this package.
var (
	ColorAccent = lipgloss.Color("62")  // section headers, emphasized links
	ColorWarn   = lipgloss.Color("214") // bugfix entries in the briefing
	ColorPass   = lipgloss.Color("42")  // recent / high-value data
	ColorMuted  = lipgloss.Color("240") // borders, secondary text, stale rows
)
