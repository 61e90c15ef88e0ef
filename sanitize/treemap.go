package sanitize

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	treemapUnclosedRe = regexp.MustCompile(`(?m)^(\s*)"([^":]+):\s*(\d+(?:\.\d+)?)\s*$`)
	treemapValueRe    = regexp.MustCompile(`(?m)^(\s*"[^"]*"\s*:\s*)(\d+(?:\.\d+)?)\s*$`)
)

// treemapScaleFactor is applied when every value is a small fraction;
// proportions survive uniform scaling and the renderer gets workable sizes.
const (
	treemapScaleThreshold = 1.0
	treemapScaleFactor    = 100.0
)

// repairTreemap restores missing closing quotes on leaf entries and scales
// uniformly tiny values up so the rendered proportions stay legible.
func repairTreemap(s string) string {
	s = treemapUnclosedRe.ReplaceAllString(s, `${1}"${2}": ${3}`)

	values := treemapValueRe.FindAllStringSubmatch(s, -1)
	if len(values) == 0 {
		return s
	}
	for _, m := range values {
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil || v >= treemapScaleThreshold {
			return s
		}
	}
	return treemapValueRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := treemapValueRe.FindStringSubmatch(m)
		v, _ := strconv.ParseFloat(sub[2], 64)
		return sub[1] + formatScaled(v*treemapScaleFactor)
	})
}

// formatScaled prints whole results without a fractional part. Rounding to
// four places first absorbs float artifacts like 0.07*100 = 7.000000000000001.
func formatScaled(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	s := strings.TrimRight(strconv.FormatFloat(v, 'f', 4, 64), "0")
	return strings.TrimSuffix(s, ".")
}
