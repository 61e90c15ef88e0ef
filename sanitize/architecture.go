package sanitize

import "regexp"

var (
	archServiceRe = regexp.MustCompile(`(?m)^(\s*service\s+[\w-]+)\s*\[`)
	archBareEdge  = regexp.MustCompile(`(?m)^(\s*)([\w-]+)\s+--\s+([\w-]+)\s*$`)
)

// repairArchitecture inserts a default icon into service declarations that
// omit one and anchors bare service-to-service connections.
func repairArchitecture(s string) string {
	s = archServiceRe.ReplaceAllString(s, "${1}(server)[")
	s = archBareEdge.ReplaceAllString(s, "${1}${2}:R -- L:${3}")
	return s
}
