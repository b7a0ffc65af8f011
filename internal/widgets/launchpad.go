// Package widgets renders a terminal mirror of the physical Launchpad grid
// and small supporting legends/key-help blocks. It is a UI adapter only,
// not part of the sampler's audio/MIDI path.
package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gopad/internal/model"
)

// RenderLaunchpad returns a colored ASCII mirror of lp's 8x8 grid, row 7 at
// top (matching the physical device's top-to-bottom layout), with an
// optional selected pad highlighted and playing pads marked.
func RenderLaunchpad(lp *model.Launchpad, selected *int, playing map[int]bool) string {
	var lines []string
	for row := 7; row >= 0; row-- {
		var line strings.Builder
		for col := 0; col < 8; col++ {
			idx := row*8 + col
			pad := lp.At(idx)
			line.WriteString(renderPad(pad, selected != nil && *selected == idx, playing[idx]))
			line.WriteString(" ")
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

func renderPad(pad *model.Pad, isSelected, isPlaying bool) string {
	glyph := "■"
	if isPlaying {
		glyph = "▶"
	}
	color := pad.Color
	if !pad.IsAssigned() {
		color = model.ColorOff
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color))).Reverse(isSelected)
	return style.Render(glyph)
}

func rgbToHex(c model.Color) string {
	// Colors are stored in the MIDI-compatible 0-127 range; scale to 0-255
	// for terminal rendering.
	return fmt.Sprintf("#%02x%02x%02x", scale(c.R), scale(c.G), scale(c.B))
}

func scale(v uint8) uint8 {
	scaled := int(v) * 255 / 127
	if scaled > 255 {
		return 255
	}
	return uint8(scaled)
}

// Zone describes a legend entry pairing a color swatch with a description.
type Zone struct {
	Name  string
	Color model.Color
	Desc  string
}

// RenderLegend returns a color-coordinated legend for the given zones.
func RenderLegend(zones []Zone) string {
	var lines []string
	for _, z := range zones {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(z.Color)))
		lines = append(lines, fmt.Sprintf("  %s %s - %s", style.Render("■"), z.Name, z.Desc))
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings for RenderKeyHelp.
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description.
type KeyBinding struct {
	Key  string
	Desc string
}

// RenderKeyHelp formats key bindings grouped by section.
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}
