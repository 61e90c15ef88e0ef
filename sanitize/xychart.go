package sanitize

import (
	"regexp"
	"strings"
)

var (
	xyTitleRe  = regexp.MustCompile(`(?m)^(\s*)title\s+(.+?)\s*$`)
	xAxisKwRe  = regexp.MustCompile(`(?m)^(\s*)xaxis\b`)
	yAxisKwRe  = regexp.MustCompile(`(?m)^(\s*)yaxis\b`)
	axisLineRe = regexp.MustCompile(`(?m)^(\s*)([xy]-axis)\s+(.+?)\s*$`)
	seriesRe   = regexp.MustCompile(`(?m)^(\s*)(values|data)\s+(.+?)\s*$`)
)

// repairXYChart normalizes xychart sources: quoted titles, hyphenated axis
// keywords, quoted axis labels, and current-series array syntax.
func repairXYChart(s string) string {
	s = xyTitleRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := xyTitleRe.FindStringSubmatch(m)
		if strings.HasPrefix(sub[2], `"`) {
			return m
		}
		return sub[1] + `title "` + sub[2] + `"`
	})

	s = xAxisKwRe.ReplaceAllString(s, "${1}x-axis")
	s = yAxisKwRe.ReplaceAllString(s, "${1}y-axis")

	s = axisLineRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := axisLineRe.FindStringSubmatch(m)
		return sub[1] + sub[2] + " " + quoteAxisRest(sub[3])
	})

	// Legacy series lists: "values 1, 2" becomes a bar series and "data"
	// becomes a line series, both in array form.
	s = seriesRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := seriesRe.FindStringSubmatch(m)
		kind := "bar"
		if sub[2] == "data" {
			kind = "line"
		}
		items := sub[3]
		if !strings.HasPrefix(items, "[") {
			items = "[" + items + "]"
		}
		return sub[1] + kind + " " + items
	})

	return s
}

// quoteAxisRest quotes the free-text label portion of an axis line, leaving
// category arrays and numeric ranges alone.
func quoteAxisRest(rest string) string {
	if strings.HasPrefix(rest, `"`) || strings.HasPrefix(rest, "[") {
		return rest
	}
	if rest == "" || rest[0] >= '0' && rest[0] <= '9' {
		return rest
	}
	if idx := strings.Index(rest, "["); idx >= 0 {
		label := strings.TrimSpace(rest[:idx])
		if label == "" {
			return rest
		}
		return `"` + label + `" ` + rest[idx:]
	}
	// A label followed by a numeric range, e.g. `Revenue 0 --> 100`.
	if m := axisRangeRe.FindStringSubmatch(rest); m != nil {
		return `"` + strings.TrimSpace(m[1]) + `" ` + m[2]
	}
	return `"` + rest + `"`
}

var axisRangeRe = regexp.MustCompile(`^(.*?)\s+(\d[\d.]*\s*-->\s*\d[\d.]*)$`)
