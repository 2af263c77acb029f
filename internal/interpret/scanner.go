package interpret

// findJSONCandidates scans free-form model output for top-level JSON object
// candidates. Models wrap JSON in prose and markdown fences no matter how
// firmly the prompt forbids it, so the extractor tries every candidate in
// order rather than assuming the reply is clean JSON.
//
// Byte-level scan: ASCII delimiters never occur inside UTF-8 multi-byte
// sequences, so iterating bytes is safe.
func findJSONCandidates(s string) []string {
	var candidates []string
	var depth int
	start := -1
	var inString, escape bool

	for i := 0; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}
		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					candidates = append(candidates, s[start:i+1])
					start = -1
				}
			}
		}
	}
	return candidates
}
