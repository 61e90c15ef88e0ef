package sanitize

import (
	"regexp"
	"strings"
)

// FallbackDiagram is returned whenever the input mixes diagram grammars or a
// repair stage panics. It is a valid flowchart so the renderer always
// receives something it can draw.
const FallbackDiagram = `flowchart TD
    A[Multiple diagram types detected] --> B[Only one diagram type is supported per block]
    B --> C[Split the content into separate diagrams]`

var (
	openFenceRe  = regexp.MustCompile("^`{3,}[\\w-]*[ \t]*\n")
	closeFenceRe = regexp.MustCompile("\n`{3,}[ \t]*$")
)

// Sanitize normalizes raw diagram markup into a renderable form.
//
// Contract:
// - Totality: never fails; unrecoverable input yields FallbackDiagram.
// - Purity: no I/O, no state; equal inputs yield equal outputs.
// - Idempotence: a second pass over sanitized output is a no-op.
func Sanitize(raw string) (out string) {
	// Repair stages are regex surgery over untrusted text; a panicking
	// stage must not take the caller down.
	defer func() {
		if r := recover(); r != nil {
			out = FallbackDiagram
		}
	}()

	s := normalizeEscapes(raw)
	s = stripFences(s)

	detected := Detect(s)
	if countExclusive(detected) > 1 {
		return FallbackDiagram
	}

	if has(detected, GrammarFlowchart) {
		s = repairFlowchart(s)
	}
	if has(detected, GrammarXYChart) {
		s = repairXYChart(s)
	}
	if has(detected, GrammarER) {
		s = repairER(s)
	}
	s = unquoteTitles(s, detected)
	if has(detected, GrammarPie) {
		s = normalizePieSpacing(s)
	}
	if has(detected, GrammarRequirement) {
		s = repairRequirement(s)
	}
	if has(detected, GrammarTreemap) {
		s = repairTreemap(s)
	}
	if has(detected, GrammarArchitecture) {
		s = repairArchitecture(s)
	}
	if has(detected, GrammarSankey) {
		s = repairSankey(s)
	}

	return s
}

// normalizeEscapes converts literal escape sequences left behind by JSON
// transport into real control characters and trims surrounding whitespace.
func normalizeEscapes(s string) string {
	s = strings.ReplaceAll(s, `\r\n`, "\n")
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\t`, "\t")
	s = strings.ReplaceAll(s, `\r`, "\n")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}

// stripFences removes a surrounding markdown code fence, tagged or not.
func stripFences(s string) string {
	s = openFenceRe.ReplaceAllString(s, "")
	s = closeFenceRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
