package sanitize

import (
	"regexp"
	"strings"
)

var (
	subgraphRe   = regexp.MustCompile(`(?m)^\s*subgraph\s+([\w-]+)`)
	styleLineRe  = regexp.MustCompile(`^\s*style\b`)
	nodeLabelRe  = regexp.MustCompile(`([\w-]+)\[([^\[\]]+)\]`)
	endsInDigit  = regexp.MustCompile(`\d$`)
	labelSpecial = regexp.MustCompile(`[()"&<>]`)
)

// repairFlowchart applies flow/graph-specific repairs: subgraph name
// collisions, malformed style directives, and unescaped label characters.
func repairFlowchart(s string) string {
	s = renameSubgraphCollisions(s)
	s = dropBrokenStyleLines(s)
	s = escapeNodeLabels(s)
	return s
}

// renameSubgraphCollisions renames any node that shares an id with a
// subgraph container, rewriting every edge reference consistently. The
// subgraph declaration itself keeps the original name.
func renameSubgraphCollisions(s string) string {
	names := subgraphRe.FindAllStringSubmatch(s, -1)
	if names == nil {
		return s
	}

	lines := strings.Split(s, "\n")
	for _, m := range names {
		name := m[1]
		defRe := regexp.MustCompile(`^(\s*)` + regexp.QuoteMeta(name) + `\b`)
		refRe := regexp.MustCompile(`((?:-{2,3}>|-{3}|-\.->|={2,3}>|&)\s*)` + regexp.QuoteMeta(name) + `\b`)

		renamed := name + "_Node"
		collides := false
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "subgraph") || trimmed == "end" {
				continue
			}
			if defRe.MatchString(line) || refRe.MatchString(line) {
				collides = true
				break
			}
		}
		if !collides {
			continue
		}
		for i, line := range lines {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "subgraph") || trimmed == "end" {
				continue
			}
			line = defRe.ReplaceAllString(line, "${1}"+renamed)
			line = refRe.ReplaceAllString(line, "${1}"+renamed)
			lines[i] = line
		}
	}
	return strings.Join(lines, "\n")
}

// dropBrokenStyleLines removes style directives whose trailing token is a
// bare number rather than a pixel width. Well-formed style lines survive.
func dropBrokenStyleLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if styleLineRe.MatchString(line) {
			fields := strings.Fields(line)
			last := fields[len(fields)-1]
			if endsInDigit.MatchString(last) && !strings.HasSuffix(last, "px") {
				continue
			}
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// escapeNodeLabels quotes bracketed labels containing characters the
// flowchart grammar treats as syntax, encoding embedded quotes.
func escapeNodeLabels(s string) string {
	return nodeLabelRe.ReplaceAllStringFunc(s, func(match string) string {
		sub := nodeLabelRe.FindStringSubmatch(match)
		id, label := sub[1], sub[2]
		if strings.HasPrefix(label, `"`) && strings.HasSuffix(label, `"`) {
			return match
		}
		if !labelSpecial.MatchString(label) {
			return match
		}
		escaped := strings.ReplaceAll(label, `"`, "#quot;")
		return id + `["` + escaped + `"]`
	})
}
