package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// keySep joins the key inputs. NUL cannot appear in diagram text or render
// parameters, so the concatenation is unambiguous.
const keySep = "\x00"

// Key derives the content-addressed cache key for a render request.
//
// Contract:
// - Determinism: equal (source, theme, background) triples produce equal
//   keys, across processes - the disk tier must be findable after restart.
// - Distinctness: differing triples produce distinct keys with overwhelming
//   probability (SHA-256; collisions accepted, not defended).
func Key(sanitized, theme, background string) string {
	h := sha256.New()
	h.Write([]byte(sanitized))
	h.Write([]byte(keySep))
	h.Write([]byte(theme))
	h.Write([]byte(keySep))
	h.Write([]byte(background))
	return hex.EncodeToString(h.Sum(nil))
}
