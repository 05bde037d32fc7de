package tui

import (
	"image/color"

	"github.com/charmbracelet/lipgloss"
)

// Styles
var (
	baseFg    = lipgloss.AdaptiveColor{Light: "#1F2328", Dark: "#E6E6E6"}
	baseDimFg = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
	accentFg  = lipgloss.Color("#7C3AED")
	borderCol = lipgloss.Color("#243141")
	hoverFg   = lipgloss.Color("#FFA500")
	labelFg   = lipgloss.AdaptiveColor{Light: "#374151", Dark: "#D1D5DB"}

	appStyle   = lipgloss.NewStyle().Foreground(baseFg)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderCol).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(baseDimFg)
	hoverStyle = lipgloss.NewStyle().Foreground(hoverFg)
	labelStyle = lipgloss.NewStyle().Foreground(labelFg)
)

// Overlay colors drawn into the braille buffer. Overlays outweigh points
// so outlines stay visible over dense clusters.
var (
	hullColor      = color.RGBA{0x7c, 0x3a, 0xed, 0xff}
	crosshairColor = color.RGBA{0x6b, 0x72, 0x80, 0xff}
)

const (
	crosshairWeight = 1.5
	hullWeight      = 2
)
