package workflow

import (
	"fmt"
	"strings"
)

// IssueKind classifies a structural problem found by [Validate].
type IssueKind string

// Issue kinds. None of them stop the layout engine; they are reported so
// callers can log what degraded.
const (
	IssueDanglingEdge    IssueKind = "dangling_edge"
	IssueDuplicateNodeID IssueKind = "duplicate_node_id"
	IssueEmptyNodeID     IssueKind = "empty_node_id"
	IssueUnknownKind     IssueKind = "unknown_kind"
	IssueMultipleStarts  IssueKind = "multiple_starting_nodes"
)

// Issue is a single diagnostic about a workflow document.
type Issue struct {
	Kind    IssueKind
	Subject string // node or edge ID the issue refers to
	Detail  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s: %s", i.Kind, i.Subject, i.Detail)
}

// Report collects the issues found in a document.
type Report struct {
	Issues []Issue
}

// OK reports whether no issues were found.
func (r Report) OK() bool { return len(r.Issues) == 0 }

// Count returns the number of issues of the given kind.
func (r Report) Count(kind IssueKind) int {
	n := 0
	for _, i := range r.Issues {
		if i.Kind == kind {
			n++
		}
	}
	return n
}

func (r Report) String() string {
	if r.OK() {
		return "no issues"
	}
	parts := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		parts[i] = issue.String()
	}
	return strings.Join(parts, "; ")
}

func (r *Report) add(kind IssueKind, subject, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Kind: kind, Subject: subject, Detail: fmt.Sprintf(format, args...)})
}

// Validate inspects g for problems the layout engine tolerates but that
// usually indicate a broken export: edges pointing at missing nodes,
// duplicate or empty IDs, unrecognized kinds and more than one starting
// node of the same kind.
func Validate(g Graph) Report {
	var r Report

	seen := make(map[string]bool, len(g.Nodes))
	starts := make(map[Kind]int)
	for _, n := range g.Nodes {
		switch {
		case n.ID == "":
			r.add(IssueEmptyNodeID, "", "node of kind %q has no id", n.Kind)
		case seen[n.ID]:
			r.add(IssueDuplicateNodeID, n.ID, "id used by more than one node")
		}
		seen[n.ID] = true

		if !n.Kind.IsKnown() {
			r.add(IssueUnknownKind, n.ID, "kind %q is not recognized", n.Kind)
		}
		if n.IsStartingNode {
			starts[n.Kind]++
		}
	}

	for _, k := range Kinds() {
		if starts[k] > 1 {
			r.add(IssueMultipleStarts, string(k), "%d nodes flagged as starting node", starts[k])
		}
	}

	for _, e := range g.Edges {
		if !seen[e.Source] {
			r.add(IssueDanglingEdge, e.ID, "source %q does not exist", e.Source)
		}
		if !seen[e.Target] {
			r.add(IssueDanglingEdge, e.ID, "target %q does not exist", e.Target)
		}
	}

	return r
}
