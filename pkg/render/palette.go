package render

import "github.com/matzehuels/crewviz/pkg/workflow"

// Style is the color set of a node card.
type Style struct {
	Fill   string // card background
	Stroke string // card border
	Accent string // header text and badges
}

var kindStyles = map[workflow.Kind]Style{
	workflow.KindInput:     {Fill: "#eff6ff", Stroke: "#3b82f6", Accent: "#1d4ed8"},
	workflow.KindTask:      {Fill: "#fffbeb", Stroke: "#f59e0b", Accent: "#b45309"},
	workflow.KindAgent:     {Fill: "#eef2ff", Stroke: "#6366f1", Accent: "#4338ca"},
	workflow.KindTool:      {Fill: "#f0fdf4", Stroke: "#22c55e", Accent: "#15803d"},
	workflow.KindExecution: {Fill: "#faf5ff", Stroke: "#a855f7", Accent: "#7e22ce"},
}

var unknownStyle = Style{Fill: "#f8fafc", Stroke: "#94a3b8", Accent: "#475569"}

// DefaultEdgeColor is used for edges without a stroke or marker color.
const DefaultEdgeColor = "#94a3b8"

// KindStyle returns the card colors for k. Unrecognized kinds are grey.
func KindStyle(k workflow.Kind) Style {
	if s, ok := kindStyles[k]; ok {
		return s
	}
	return unknownStyle
}
