package placeholder

import (
	"regexp"
	"strings"
)

// Substitute replaces every occurrence of each recognised token in text with
// the corresponding value from ctx. Tokens for unknown paths are left as-is.
func Substitute(text string, ctx Context) string {
	if text == "" {
		return ""
	}
	pairs := make([]string, 0, len(Paths)*2)
	for _, p := range Paths {
		v, _ := ctx.Lookup(p)
		pairs = append(pairs, p.Token(), v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// tokenPattern matches the innermost {{...}} pair, so a stray "{{" does not
// swallow the token that follows it.
var tokenPattern = regexp.MustCompile(`\{\{([^{}]*)\}\}`)

// Unresolved returns the distinct {{...}} tokens in text that Substitute
// would leave untouched, in order of first appearance.
func Unresolved(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	sample := Sample()
	for _, m := range tokenPattern.FindAllStringSubmatch(text, -1) {
		tok := m[0]
		if _, known := sample.Lookup(Path(m[1])); known {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
