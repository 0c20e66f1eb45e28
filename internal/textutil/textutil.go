// Package textutil holds small string helpers shared across the memory
// pipeline, grounded on db.rs's truncate_str and upsert_session helpers.
package textutil

// TruncateUTF8 trims s to at most maxBytes bytes without splitting a
// multi-byte rune.
func TruncateUTF8(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	end := maxBytes
	for end > 0 && !isUTF8Boundary(s, end) {
		end--
	}
	return s[:end]
}

func isUTF8Boundary(s string, i int) bool {
	if i == 0 || i == len(s) {
		return true
	}
	return s[i]&0xC0 != 0x80
}

// DeriveMemorySessionID computes the "mem-" + first-8-bytes memory
// session id from an external content session id, grounded on
// upsert_session's memory_session_id derivation.
func DeriveMemorySessionID(contentSessionID string) string {
	return "mem-" + TruncateUTF8(contentSessionID, 8)
}
