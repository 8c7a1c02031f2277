// Package extract locates and parses JSON payloads embedded in raw model
// output. Models wrap JSON in prose, markdown fences, or emit structurally
// broken documents; extraction is therefore staged: fenced block → boundary
// trim → structural repair → give up.
//
// Failure to extract is an expected outcome, not an error: every function
// reports success with a bool and never panics or returns an error value.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ravi-parthasarathy/webforge/pkg/project"
)

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)```")

// Extract returns the first JSON value (object or array) found in text.
func Extract(text string) (any, bool) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil, false
	}

	// Stage 1: a fenced code block, parsed directly.
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		body := strings.TrimSpace(m[1])
		if v, ok := tryDecode(body); ok {
			return v, true
		}
		// The fence marks where the model put its JSON; keep working on it.
		raw = body
	}

	// Stage 2: boundary trim, first opener to last matching closer.
	cand, ok := boundary(raw)
	if !ok {
		return nil, false
	}
	if v, ok := tryDecode(cand); ok {
		return v, true
	}

	// Stage 3: structural repair, then one re-parse.
	repaired := Repair(cand)
	if gjson.Valid(repaired) {
		if v, ok := tryDecode(repaired); ok {
			return v, true
		}
	}

	return nil, false
}

// Object extracts a JSON object from text. Arrays and scalars fail.
func Object(text string) (map[string]any, bool) {
	v, ok := Extract(text)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// ParseProject extracts a project JSON payload from text and normalizes it
// to the inner project object (see project.Normalize for accepted shapes).
func ParseProject(text string) (map[string]any, bool) {
	v, ok := Extract(text)
	if !ok {
		return nil, false
	}
	p, err := project.Normalize(v)
	if err != nil {
		return nil, false
	}
	return p, true
}

// boundary trims text to the span between the first JSON opener and the
// last matching closer. Objects win over arrays when the object starts first.
func boundary(text string) (string, bool) {
	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")

	var start, end int
	switch {
	case objStart >= 0 && (arrStart < 0 || objStart < arrStart):
		start = objStart
		end = strings.LastIndex(text, "}")
	case arrStart >= 0:
		start = arrStart
		end = strings.LastIndex(text, "]")
	default:
		return "", false
	}
	if end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func tryDecode(s string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

// Repair applies a structural repair pass for the malformations models
// produce most often: raw control characters inside string literals,
// trailing commas before a closer, and an unterminated string at the end
// of the document. It never balances braces: a document truncated
// mid-object stays invalid and surfaces as an extraction failure.
func Repair(s string) string {
	out := make([]byte, 0, len(s)+16)
	inString, escaped := false, false

	for _, r := range s {
		if inString {
			switch {
			case escaped:
				out = appendRune(out, r)
				escaped = false
			case r == '\\':
				out = append(out, '\\')
				escaped = true
			case r == '"':
				out = append(out, '"')
				inString = false
			case r == '\n':
				out = append(out, '\\', 'n')
			case r == '\r':
				out = append(out, '\\', 'r')
			case r == '\t':
				out = append(out, '\\', 't')
			case r < 0x20:
				out = append(out, fmt.Sprintf("\\u%04x", r)...)
			default:
				out = appendRune(out, r)
			}
			continue
		}

		switch r {
		case '"':
			inString = true
			out = append(out, '"')
		case '}', ']':
			out = trimTrailingComma(out)
			out = appendRune(out, r)
		default:
			out = appendRune(out, r)
		}
	}

	// A document may end mid-string; close the literal so the preceding
	// structure can still parse.
	if escaped {
		out = out[:len(out)-1]
	}
	if inString {
		out = append(out, '"')
	}
	out = trimTrailingComma(out)
	return string(out)
}

// trimTrailingComma removes a comma that directly precedes a closer,
// ignoring intervening whitespace.
func trimTrailingComma(out []byte) []byte {
	i := len(out) - 1
	for i >= 0 && (out[i] == ' ' || out[i] == '\t' || out[i] == '\n' || out[i] == '\r') {
		i--
	}
	if i >= 0 && out[i] == ',' {
		return append(out[:i], out[i+1:]...)
	}
	return out
}

func appendRune(out []byte, r rune) []byte {
	return append(out, string(r)...)
}
