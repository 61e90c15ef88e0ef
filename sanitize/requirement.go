package sanitize

import (
	"regexp"
	"strings"
)

var (
	reqTitleRe   = regexp.MustCompile(`^\s*title\b`)
	reqOnelineRe = regexp.MustCompile(`^(\s*)(requirement|element)\s+([\w-]+)\s*(?:<<([^>]+)>>)?\s*$`)
)

// repairRequirement drops unsupported title directives and expands
// single-line requirement/element declarations into the braced block form
// the grammar requires.
func repairRequirement(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	for _, line := range lines {
		if reqTitleRe.MatchString(line) {
			continue
		}
		m := reqOnelineRe.FindStringSubmatch(line)
		if m == nil {
			out = append(out, line)
			continue
		}
		indent, kind, name, typ := m[1], m[2], m[3], m[4]
		out = append(out, indent+kind+" "+name+" {")
		if kind == "element" {
			if typ == "" {
				typ = "element"
			}
			out = append(out, indent+`    type: "`+typ+`"`)
		} else {
			out = append(out, indent+"    id: 1")
			out = append(out, indent+`    text: "`+name+`"`)
		}
		out = append(out, indent+"}")
	}
	return strings.Join(out, "\n")
}
