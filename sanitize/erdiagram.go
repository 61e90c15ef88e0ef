package sanitize

import (
	"regexp"
	"strings"
)

var (
	entityOpenRe = regexp.MustCompile(`^\s*[\w-]+\s*\{\s*$`)
	entityAttrRe = regexp.MustCompile(`^(\s*)(\*?)\s*([\w-]+)\s*:\s*(\w+)\s*(.*)$`)
)

// erTypeVocab maps free-form attribute type words onto the ER grammar's
// fixed vocabulary.
var erTypeVocab = map[string]string{
	"integer":   "int",
	"int":       "int",
	"string":    "string",
	"varchar":   "string",
	"text":      "string",
	"decimal":   "float",
	"float":     "float",
	"double":    "float",
	"number":    "float",
	"date":      "date",
	"datetime":  "date",
	"timestamp": "date",
	"boolean":   "boolean",
	"bool":      "boolean",
}

// repairER rewrites `name : type` attribute lines inside entity blocks into
// the canonical `type name [PK] [FK]` form.
func repairER(s string) string {
	lines := strings.Split(s, "\n")
	inEntity := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case entityOpenRe.MatchString(line):
			inEntity = true
			continue
		case trimmed == "}":
			inEntity = false
			continue
		}
		if !inEntity {
			continue
		}
		if m := entityAttrRe.FindStringSubmatch(line); m != nil {
			lines[i] = canonicalAttr(m)
		}
	}
	return strings.Join(lines, "\n")
}

// canonicalAttr builds `type name PK FK` from a matched `[*] name : type
// [rest]` line. The leading star and free-form key markers both flag keys.
func canonicalAttr(m []string) string {
	indent, star, name, rawType, rest := m[1], m[2], m[3], m[4], m[5]

	typ, ok := erTypeVocab[strings.ToLower(rawType)]
	if !ok {
		typ = strings.ToLower(rawType)
	}

	restLower := strings.ToLower(rest)
	out := indent + typ + " " + name
	if star == "*" || strings.Contains(restLower, "pk") || strings.Contains(restLower, "primary") {
		out += " PK"
	}
	if strings.Contains(restLower, "fk") || strings.Contains(restLower, "foreign") {
		out += " FK"
	}
	return out
}
