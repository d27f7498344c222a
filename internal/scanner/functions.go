// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Best-effort function listing for prompts (not a parser)

package scanner

import "regexp"

// functionDefRegex matches "<type> <name>(<args>) {" on a single line
var functionDefRegex = regexp.MustCompile(`\b([\w:<>,*&]+)\s+([\w:~]+)\s*\(([^)]*)\)\s*(?:const\s*)?(?:noexcept\s*)?\{`)

var controlKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true, "return": true,
}

// ListFunctions returns the names of functions defined in code, in order of
// appearance and without duplicates. Control-flow statements that happen to
// match the pattern are filtered out.
func ListFunctions(code string) []string {
	var names []string
	seen := make(map[string]bool)

	for _, m := range functionDefRegex.FindAllStringSubmatch(code, -1) {
		retType, name := m[1], m[2]
		if controlKeywords[name] || controlKeywords[retType] || retType == "else" {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
