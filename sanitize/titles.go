package sanitize

import "regexp"

var (
	quotedTitleRe = regexp.MustCompile(`(?m)^(\s*)title\s+"(.*)"\s*$`)
	pieEntryRe    = regexp.MustCompile(`(?m)^(\s*)"([^"]*)"\s*:\s*(\S+)\s*$`)
)

// unquoteTitles strips quotes around title values for grammars that forbid
// them (journey, pie, gantt).
func unquoteTitles(s string, detected []Grammar) string {
	if !has(detected, GrammarJourney) && !has(detected, GrammarPie) && !has(detected, GrammarGantt) {
		return s
	}
	return quotedTitleRe.ReplaceAllString(s, `${1}title ${2}`)
}

// normalizePieSpacing enforces the `"label" : value` spacing pie expects.
func normalizePieSpacing(s string) string {
	return pieEntryRe.ReplaceAllString(s, `${1}"${2}" : ${3}`)
}
