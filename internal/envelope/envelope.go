// Package envelope implements the tag-by-tag XML-ish reader/writer used for
// LLM input and output, per spec.md §9 "Text parsing": this is deliberately
// not general XML, just a finder for a small fixed set of tags.
package envelope

import "strings"

// Types is the fixed set of observation types spec.md §3 allows. Anything
// outside this set collapses to "discovery" when parsed.
var Types = map[string]bool{
	"bugfix":   true,
	"feature":  true,
	"refactor": true,
	"discovery": true,
	"decision": true,
	"change":   true,
}

// Observation mirrors the fields an <observation> envelope carries.
type Observation struct {
	Type           string
	Title          string
	Subtitle       string
	Narrative      string
	Facts          []string
	Concepts       []string
	FilesRead      []string
	FilesModified  []string
}

// EscapeText escapes the characters that would otherwise let user data
// break out of a tag's text content.
func EscapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

// EscapeAttr escapes the characters that would otherwise let user data
// break out of a double-quoted attribute value, in addition to what
// EscapeText handles.
func EscapeAttr(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

// ExtractField finds the first <tag>...</tag> occurring at or after the
// search cursor implied by scanning from the start of s, and returns its
// trimmed inner text. It tolerates a stray closing tag appearing before the
// matching open tag by always searching for the open tag first and then the
// *next* close tag after it, rather than the first close tag in the whole
// string.
func ExtractField(s, tag string) string {
	open := "<" + tag + ">"
	close := "</" + tag + ">"

	openIdx := strings.Index(s, open)
	if openIdx == -1 {
		return ""
	}
	start := openIdx + len(open)

	closeIdx := strings.Index(s[start:], close)
	if closeIdx == -1 {
		return ""
	}

	return strings.TrimSpace(s[start : start+closeIdx])
}

// ExtractArray finds the first <container>...</container> block and returns
// the trimmed text of every <item>...</item> within it, in order.
func ExtractArray(s, container, item string) []string {
	block := ExtractField(s, container)
	if block == "" {
		return nil
	}

	open := "<" + item + ">"
	close := "</" + item + ">"

	var out []string
	rest := block
	for {
		openIdx := strings.Index(rest, open)
		if openIdx == -1 {
			break
		}
		rest = rest[openIdx+len(open):]
		closeIdx := strings.Index(rest, close)
		if closeIdx == -1 {
			break
		}
		val := strings.TrimSpace(rest[:closeIdx])
		if val != "" {
			out = append(out, val)
		}
		rest = rest[closeIdx+len(close):]
	}
	return out
}

// ParseObservations extracts every <observation>...</observation> block
// from an LLM response and decodes its fields. Unknown types collapse to
// "discovery". An observation's own type is always removed from its
// concepts list, per spec.md §3 invariants.
func ParseObservations(text string) []Observation {
	var out []Observation

	rest := text
	for {
		openIdx := strings.Index(rest, "<observation>")
		if openIdx == -1 {
			break
		}
		rest = rest[openIdx+len("<observation>"):]
		closeIdx := strings.Index(rest, "</observation>")
		if closeIdx == -1 {
			break
		}
		block := rest[:closeIdx]
		rest = rest[closeIdx+len("</observation>"):]

		obsType := strings.TrimSpace(ExtractField(block, "type"))
		if !Types[obsType] {
			obsType = "discovery"
		}

		concepts := ExtractArray(block, "concepts", "concept")
		var filtered []string
		for _, c := range concepts {
			if c != obsType {
				filtered = append(filtered, c)
			}
		}

		out = append(out, Observation{
			Type:          obsType,
			Title:         ExtractField(block, "title"),
			Subtitle:      ExtractField(block, "subtitle"),
			Narrative:     ExtractField(block, "narrative"),
			Facts:         ExtractArray(block, "facts", "fact"),
			Concepts:      filtered,
			FilesRead:     ExtractArray(block, "files_read", "file"),
			FilesModified: ExtractArray(block, "files_modified", "file"),
		})
	}

	return out
}

// Summary mirrors the fields a <summary> envelope carries (spec.md §4.6
// step 9). SkipRequested is true when the response asked to skip
// summarization or carried no non-empty <summary> envelope.
type Summary struct {
	Request       string
	Completed     string
	Decisions     string
	Learned       string
	NextSteps     string
	Preferences   string
	SkipRequested bool
}

// ParseSummary decodes a <summary>...</summary> envelope, or reports
// SkipRequested if the response contains the literal "<skip_summary"
// marker anywhere or has no non-empty <summary> envelope.
func ParseSummary(text string) Summary {
	if strings.Contains(text, "<skip_summary") {
		return Summary{SkipRequested: true}
	}

	block := ExtractField(text, "summary")
	if block == "" {
		return Summary{SkipRequested: true}
	}

	return Summary{
		Request:     ExtractField(block, "request"),
		Completed:   ExtractField(block, "completed"),
		Decisions:   ExtractField(block, "decisions"),
		Learned:     ExtractField(block, "learned"),
		NextSteps:   ExtractField(block, "next_steps"),
		Preferences: ExtractField(block, "preferences"),
	}
}
