package loader

import (
	"regexp"
	"strings"
)

// Lexical reference patterns: quoted module specifiers after an import
// keyword, and quoted arguments to require().
var (
	importPattern  = regexp.MustCompile(`\bimport\b[^'"]*?['"]([^'"]+)['"]`)
	requirePattern = regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"]+)['"]\s*\)`)
)

// ExtractReferences scans file content for module references and resolves the
// locally-relative ones against the owning file's directory. Bare module names
// (package imports) are discarded; only intra-repository references are
// followed. The returned list may contain duplicates; deduplication is the
// caller's responsibility.
func ExtractReferences(content, ownerPath string) []string {
	var refs []string

	for _, pattern := range []*regexp.Regexp{importPattern, requirePattern} {
		for _, m := range pattern.FindAllStringSubmatch(content, -1) {
			if resolved, ok := resolveRelative(m[1], ownerPath); ok {
				refs = append(refs, resolved)
			}
		}
	}

	return refs
}

// resolveRelative resolves a ./ or ../ reference against the directory of
// ownerPath. `..` pops the last resolved segment, `.` and empty segments are
// dropped. Non-relative references report ok=false.
func resolveRelative(ref, ownerPath string) (string, bool) {
	if !strings.HasPrefix(ref, "./") && !strings.HasPrefix(ref, "../") {
		return "", false
	}

	var stack []string
	if idx := strings.LastIndex(ownerPath, "/"); idx >= 0 {
		stack = strings.Split(ownerPath[:idx], "/")
	}

	for _, seg := range strings.Split(ref, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}

	return strings.Join(stack, "/"), true
}
