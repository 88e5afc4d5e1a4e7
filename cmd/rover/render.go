package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/lunarover/internal/mission"
	"github.com/san-kum/lunarover/internal/storage"
	"github.com/san-kum/lunarover/internal/terrain"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	title   = cyan.Bold(true)
)

func reasonStyle(r mission.Reason) lipgloss.Style {
	switch r {
	case mission.ReasonParked:
		return green
	case mission.ReasonClockExhausted, mission.ReasonCanceled:
		return yellow
	default:
		return magenta
	}
}

func field(label, value string) string {
	return dim.Render(fmt.Sprintf("%-10s", label)) + " " + white.Render(value)
}

func renderMetadata(meta storage.RunMetadata) string {
	lines := []string{
		title.Render("run " + meta.ID),
		field("preset", meta.Preset),
		field("policy", meta.Policy),
		field("seed", fmt.Sprintf("%d", meta.Seed)),
		field("started", meta.Timestamp.Format("2006-01-02 15:04:05")),
		field("outcome", reasonStyle(meta.Reason).Render(string(meta.Reason))),
		field("ticks", fmt.Sprintf("%d / %d", meta.Ticks, meta.MaxTicks)),
		field("coverage", fmt.Sprintf("%.1f%%", meta.Coverage*100)),
		field("energy", fmt.Sprintf("%.1fWh left, %.1fWh used", meta.Remaining, meta.Used)),
		field("faults", fmt.Sprintf("%d", meta.Faults)),
	}
	if meta.MapID != "" {
		lines = append(lines, field("map", meta.MapID))
	}
	return strings.Join(lines, "\n")
}

func renderSummary(meta storage.RunMetadata, res *mission.Result) string {
	var b strings.Builder
	b.WriteString(renderMetadata(meta))
	b.WriteString("\n")
	b.WriteString(field("pose", fmt.Sprintf("(%.2f, %.2f) yaw %.0f°", res.Pose.X, res.Pose.Y, res.Pose.Yaw*180/math.Pi)))
	b.WriteString("\n")
	b.WriteString(field("reserve", res.Energy.Policy.String()))
	b.WriteString("\n\n")
	b.WriteString(title.Render("metrics"))
	for _, name := range sortedKeys(res.Metrics) {
		b.WriteString("\n")
		b.WriteString(field(name, fmt.Sprintf("%.4f", res.Metrics[name])))
	}
	return b.String()
}

// mapGlyph is the character drawn for one cell.
func mapGlyph(snap terrain.Snapshot, k terrain.Key) byte {
	c, _ := snap.Cell(k)
	switch {
	case !terrain.Covered(snap, k):
		return ' '
	case c.Hazard == terrain.Hazardous:
		return '#'
	case c.Hazard == terrain.Safe:
		return '.'
	default:
		return '?'
	}
}

// renderGrid draws the map boundary with north up. Unobserved cells are
// blank, '.' is safe, '#' hazardous and '?' observed without a verdict.
func renderGrid(snap terrain.Snapshot) string {
	b := snap.Config().Boundary
	var sb strings.Builder
	for row := b.MaxRow; row >= b.MinRow; row-- {
		line := make([]byte, 0, b.MaxCol-b.MinCol+1)
		for col := b.MinCol; col <= b.MaxCol; col++ {
			line = append(line, mapGlyph(snap, terrain.Key{Row: row, Col: col}))
		}
		sb.WriteString("|")
		sb.Write(line)
		sb.WriteString("|\n")
	}
	return sb.String()
}

type mapStats struct {
	Cells     int
	Safe      int
	Hazardous int
	Unknown   int
}

func countCells(snap terrain.Snapshot) mapStats {
	var s mapStats
	for _, c := range snap.Cells() {
		s.Cells++
		switch c.Hazard {
		case terrain.Safe:
			s.Safe++
		case terrain.Hazardous:
			s.Hazardous++
		default:
			s.Unknown++
		}
	}
	return s
}

func renderMap(label string, snap terrain.Snapshot) string {
	s := countCells(snap)
	lines := []string{
		title.Render(label),
		field("version", fmt.Sprintf("%d", snap.Version())),
		field("coverage", fmt.Sprintf("%.1f%%", snap.Coverage()*100)),
		field("cells", fmt.Sprintf("%d (%s safe, %s hazardous, %d unknown)",
			s.Cells, green.Render(fmt.Sprintf("%d", s.Safe)), magenta.Render(fmt.Sprintf("%d", s.Hazardous)), s.Unknown)),
		"",
		renderGrid(snap),
	}
	return strings.Join(lines, "\n")
}
