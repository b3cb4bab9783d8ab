package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/matzehuels/crewviz/pkg/workflow"
)

// uiOut receives status output. Artifacts written to stdout stay clean.
var uiOut io.Writer = os.Stderr

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// kindColors follow the card fills of the SVG renderer.
var kindColors = map[workflow.Kind]lipgloss.Color{
	workflow.KindInput:     lipgloss.Color("114"), // green
	workflow.KindTask:      lipgloss.Color("75"),  // blue
	workflow.KindAgent:     lipgloss.Color("105"), // indigo
	workflow.KindTool:      lipgloss.Color("215"), // orange
	workflow.KindExecution: lipgloss.Color("245"), // gray
}

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
)

// kindStyle colors a node kind; unknown kinds are dim.
func kindStyle(k workflow.Kind) lipgloss.Style {
	if c, ok := kindColors[k]; ok {
		return lipgloss.NewStyle().Foreground(c)
	}
	return StyleDim
}

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Fprintln(uiOut, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(uiOut, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(uiOut, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(uiOut, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dim line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(uiOut, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile lists a written file with its size.
func printFile(path string) {
	line := "  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path)
	if info, err := os.Stat(path); err == nil {
		line += " " + StyleDim.Render("("+humanize.Bytes(uint64(info.Size()))+")")
	}
	fmt.Fprintln(uiOut, line)
}

func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(uiOut, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints node counts by kind, the edge count and whether the
// result came from cache, on one line.
func printStats(g workflow.Graph, cached bool) {
	counts := g.CountByKind()
	var parts []string
	for _, k := range workflow.Kinds() {
		if n := counts[k]; n > 0 {
			parts = append(parts, kindStyle(k).Render(fmt.Sprintf("%d %s", n, strings.ToLower(k.Label()))))
		}
	}
	parts = append(parts, StyleDim.Render(fmt.Sprintf("%d edges", len(g.Edges))))
	if cached {
		parts = append(parts, styleCached.Render("cached"))
	} else {
		parts = append(parts, styleComputed.Render("fresh"))
	}
	fmt.Fprintln(uiOut, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

// printIssues reports validation findings as warnings.
func printIssues(r workflow.Report) {
	for _, issue := range r.Issues {
		printWarning("%s", issue.String())
	}
}

func printNextStep(description, cmd string) {
	fmt.Fprintln(uiOut, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Fprintln(uiOut)
}
