// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Code extraction from LLM replies

package llm

import "strings"

// ExtractCode strips Markdown code fences from an LLM reply. When the reply
// holds several fenced blocks the longest one wins; a reply without fences
// is returned trimmed.
func ExtractCode(content string) string {
	content = strings.TrimSpace(content)
	if !strings.Contains(content, "```") {
		return content
	}

	var best string
	lines := strings.Split(content, "\n")
	inBlock := false
	var current []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inBlock {
				block := strings.Join(current, "\n")
				if len(block) > len(best) {
					best = block
				}
				current = current[:0]
				inBlock = false
			} else {
				inBlock = true
			}
			continue
		}
		if inBlock {
			current = append(current, line)
		}
	}

	// Unterminated fence: keep what followed it
	if inBlock && len(current) > 0 {
		block := strings.Join(current, "\n")
		if len(block) > len(best) {
			best = block
		}
	}

	return strings.TrimSpace(best)
}
