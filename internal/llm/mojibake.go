package llm

import "strings"

// mojibakeTable rewrites the double-encoded sequences seen on the model
// boundary (UTF-8 bytes re-decoded as a single-byte codepage) back to their
// intended characters. The table is fixed; no encoding autodetection.
var mojibakeTable = []struct{ broken, fixed string }{
	{"ΓòÉ", "═"},
	{"ΓöÇ", "─"},
	{"Γû¬", "▪"},
	{"ΓÇæ", "-"},
	{"ΓÇô", "-"},
	{"ΓÇÿ", "'"},
	{"ΓÇÖ", "'"},
	{"ΓÇ£", "\""},
	{"ΓÇ¥", "\""},
	{"ΓÇª", "…"},
	{"Γ£ô", "✓"},
}

var mojibakeReplacer = buildReplacer()

func buildReplacer() *strings.Replacer {
	pairs := make([]string, 0, 2*len(mojibakeTable))
	for _, e := range mojibakeTable {
		pairs = append(pairs, e.broken, e.fixed)
	}
	return strings.NewReplacer(pairs...)
}

// Normalize repairs the fixed mojibake table in s. Idempotent: no replacement
// output contains a sequence the table matches, so N(N(s)) = N(s), and any
// string without the broken sequences is a fixed point.
func Normalize(s string) string {
	if !strings.Contains(s, "Γ") {
		return s
	}
	return mojibakeReplacer.Replace(s)
}
