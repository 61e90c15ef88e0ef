package sanitize

import "regexp"

// Grammar identifies a diagram dialect by its opening keyword.
type Grammar string

const (
	GrammarFlowchart    Grammar = "flowchart"
	GrammarSequence     Grammar = "sequence"
	GrammarClass        Grammar = "class"
	GrammarState        Grammar = "state"
	GrammarER           Grammar = "er"
	GrammarGantt        Grammar = "gantt"
	GrammarXYChart      Grammar = "xychart"
	GrammarJourney      Grammar = "journey"
	GrammarPie          Grammar = "pie"
	GrammarGitGraph     Grammar = "gitgraph"
	GrammarRequirement  Grammar = "requirement"
	GrammarTreemap      Grammar = "treemap"
	GrammarArchitecture Grammar = "architecture"
	GrammarSankey       Grammar = "sankey"
)

// grammarMarkers maps each grammar to the pattern that identifies it.
// Markers anchor to line starts so prose inside labels does not trigger
// false positives.
var grammarMarkers = map[Grammar]*regexp.Regexp{
	GrammarFlowchart:    regexp.MustCompile(`(?m)^\s*(flowchart\b|subgraph\b|graph\s+(TB|TD|BT|RL|LR)\b)`),
	GrammarSequence:     regexp.MustCompile(`(?m)^\s*sequenceDiagram\b`),
	GrammarClass:        regexp.MustCompile(`(?m)^\s*classDiagram\b`),
	GrammarState:        regexp.MustCompile(`(?m)^\s*stateDiagram(-v2)?\b`),
	GrammarER:           regexp.MustCompile(`(?m)^\s*erDiagram\b`),
	GrammarGantt:        regexp.MustCompile(`(?m)^\s*gantt\b`),
	GrammarXYChart:      regexp.MustCompile(`(?m)^\s*xychart(-beta)?\b`),
	GrammarJourney:      regexp.MustCompile(`(?m)^\s*journey\b`),
	GrammarPie:          regexp.MustCompile(`(?m)^\s*pie\b`),
	GrammarGitGraph:     regexp.MustCompile(`(?m)^\s*gitGraph\b`),
	GrammarRequirement:  regexp.MustCompile(`(?m)^\s*requirementDiagram\b`),
	GrammarTreemap:      regexp.MustCompile(`(?m)^\s*treemap(-beta)?\b`),
	GrammarArchitecture: regexp.MustCompile(`(?m)^\s*architecture(-beta)?\b`),
	GrammarSankey:       regexp.MustCompile(`(?m)^\s*(sankey-beta|sankeyDiagram)\b`),
}

// detectOrder keeps Detect output deterministic.
var detectOrder = []Grammar{
	GrammarFlowchart, GrammarSequence, GrammarClass, GrammarState,
	GrammarER, GrammarGantt, GrammarXYChart, GrammarJourney,
	GrammarPie, GrammarGitGraph, GrammarRequirement, GrammarTreemap,
	GrammarArchitecture, GrammarSankey,
}

// exclusiveGrammars are the dialects that participate in multi-grammar
// detection. Two or more of these in one source means the input mixed
// diagram types and cannot be repaired.
var exclusiveGrammars = map[Grammar]bool{
	GrammarFlowchart: true,
	GrammarSequence:  true,
	GrammarClass:     true,
	GrammarState:     true,
	GrammarER:        true,
	GrammarGantt:     true,
	GrammarXYChart:   true,
	GrammarJourney:   true,
	GrammarPie:       true,
	GrammarGitGraph:  true,
}

// Detect reports every grammar whose marker appears in source, in a fixed
// order.
func Detect(source string) []Grammar {
	var found []Grammar
	for _, g := range detectOrder {
		if grammarMarkers[g].MatchString(source) {
			found = append(found, g)
		}
	}
	return found
}

// has reports whether g is present in the detected set.
func has(detected []Grammar, g Grammar) bool {
	for _, d := range detected {
		if d == g {
			return true
		}
	}
	return false
}

// countExclusive counts how many mutually exclusive grammars were detected.
func countExclusive(detected []Grammar) int {
	n := 0
	for _, d := range detected {
		if exclusiveGrammars[d] {
			n++
		}
	}
	return n
}
