package source

import (
	_ "embed"

	"github.com/matzehuels/crewviz/pkg/workflow"
)

// DemoName is the argument [Open] maps to [Demo].
const DemoName = "demo"

//go:embed demo.json
var demoJSON []byte

// Demo returns a source of the built-in example: one research agent using
// one search tool, with two execution results flowing back to the agent.
func Demo() Static {
	g, err := workflow.UnmarshalGraph(demoJSON)
	if err != nil {
		panic("source: embedded demo document: " + err.Error())
	}
	return Static{Graph: g}
}
