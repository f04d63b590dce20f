// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

// ExtractJSON returns the largest balanced {...} block in a model
// response, or the text itself when no block is found. String literals
// and escapes are respected so braces inside values do not end the scan
// early. Models often wrap JSON in prose or code fences; callers feed
// the result to json.Unmarshal.
func ExtractJSON(s string) string {
	var (
		depth    int
		start    = -1
		largest  string
		inString bool
		escaped  bool
	)

	for i, ch := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					candidate := s[start : i+1]
					if len(candidate) > len(largest) {
						largest = candidate
					}
				}
			}
		}
	}

	if largest == "" {
		return s
	}
	return largest
}
