// Package projectkey derives the stable project identifier used to scope
// every store operation, as described in spec.md §3 "Project key".
package projectkey

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// From derives the project key for an absolute (or relative, which is
// canonicalized first) directory path: the last two path segments joined
// by "/", an "@", and a 12-hex-digit hash of the full canonical path.
//
// Two directories with the same leaf name but different ancestors always
// yield distinct keys because the hash covers the whole canonical path.
func From(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	canonical := filepath.Clean(abs)

	sum := sha256.Sum256([]byte(canonical))
	suffix := hex.EncodeToString(sum[:])[:12]

	return leafPair(canonical) + "@" + suffix, nil
}

// leafPair returns the last two non-empty path segments of p joined by "/".
// If p has fewer than two segments, it returns whatever is available.
func leafPair(p string) string {
	cleaned := filepath.ToSlash(filepath.Clean(p))
	parts := strings.Split(cleaned, "/")

	var segs []string
	for _, s := range parts {
		if s != "" {
			segs = append(segs, s)
		}
	}

	switch {
	case len(segs) == 0:
		return "root"
	case len(segs) == 1:
		return segs[0]
	default:
		return strings.Join(segs[len(segs)-2:], "/")
	}
}
