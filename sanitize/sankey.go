package sanitize

import (
	"regexp"
	"strings"
)

var (
	sankeyKeywordRe = regexp.MustCompile(`(?m)^(\s*)sankeyDiagram\b`)
	sankeyNestedRe  = regexp.MustCompile(`(?s)\[\s*\[.*\]\s*\]`)
	sankeyRowRe     = regexp.MustCompile(`\[([^\[\]]+)\]`)
)

// repairSankey renames the legacy diagram keyword and flattens nested-array
// data blocks into the grammar's one-row-per-line syntax.
func repairSankey(s string) string {
	s = sankeyKeywordRe.ReplaceAllString(s, "${1}sankey-beta")

	return sankeyNestedRe.ReplaceAllStringFunc(s, func(block string) string {
		rows := sankeyRowRe.FindAllStringSubmatch(block, -1)
		var out []string
		for _, r := range rows {
			items := strings.Split(r[1], ",")
			for i := range items {
				items[i] = strings.TrimSpace(items[i])
			}
			out = append(out, strings.Join(items, ","))
		}
		return strings.Join(out, "\n")
	})
}
