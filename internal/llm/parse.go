package llm

import "strings"

// StripThinkBlocks removes all <think>...</think> blocks from s. Reasoning
// models emit these before or between JSON objects; they are not part of
// structured output and must go before JSON parsing.
//
// Expectations:
//   - Removes a single <think>...</think> block
//   - Removes multiple <think>...</think> blocks
//   - Strips an unclosed <think> block from its start to end of string
//   - Returns s unchanged when no <think> tag is present
func StripThinkBlocks(s string) string {
	for {
		start := strings.Index(s, "<think>")
		if start == -1 {
			break
		}
		end := strings.Index(s[start:], "</think>")
		if end == -1 {
			// Unclosed block: strip from opening tag to end of string.
			s = s[:start]
			break
		}
		s = s[:start] + s[start+end+len("</think>"):]
	}
	return strings.TrimSpace(s)
}

// StripFences removes markdown code fences (```json ... ```) from model
// output, and also strips <think>...</think> reasoning blocks.
func StripFences(s string) string {
	s = StripThinkBlocks(strings.TrimSpace(s))
	if strings.HasPrefix(s, "```") {
		// Remove opening fence line
		idx := strings.Index(s, "\n")
		if idx != -1 {
			s = s[idx+1:]
		}
		// Remove closing fence
		if i := strings.LastIndex(s, "```"); i != -1 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
