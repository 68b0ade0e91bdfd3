package server

import (
	"regexp"
	"strings"
)

// seg matches one dotted-name segment, double-quoted or bare.
const seg = `("[^"]+"|[A-Za-z_][A-Za-z0-9_]*)`

// threePartRe matches FROM/JOIN targets of the shape catalog.schema.table.
// The physical engine knows a single catalog, so the catalog segment has to
// go before the statement reaches it.
var threePartRe = regexp.MustCompile(`(?i)\b(FROM|JOIN)\s+` + seg + `\.` + seg + `\.` + seg)

// fromTargetRe captures the first FROM target of a statement.
var fromTargetRe = regexp.MustCompile(`(?i)\bFROM\s+([^\s;()]+)`)

// RewriteCatalogRefs drops the catalog segment from three-part table
// references after FROM and JOIN, emitting the remaining two segments bare.
// All emulated identifiers are lower-case, so stripping quotes is safe.
// Queries without three-part references pass through unchanged, and applying
// the rewrite twice yields the same result.
func RewriteCatalogRefs(query string) string {
	return threePartRe.ReplaceAllStringFunc(query, func(match string) string {
		parts := threePartRe.FindStringSubmatch(match)
		keyword := parts[1]
		schema := unquoteSegment(parts[3])
		table := unquoteSegment(parts[4])
		return keyword + " " + schema + "." + table
	})
}

// TableTarget extracts the table referenced by the first FROM clause: the
// last dot-segment of the target, quotes stripped. Returns "" when the query
// has no FROM clause.
func TableTarget(query string) string {
	m := fromTargetRe.FindStringSubmatch(query)
	if m == nil {
		return ""
	}
	target := m[1]
	if i := strings.LastIndexByte(target, '.'); i >= 0 {
		target = target[i+1:]
	}
	return unquoteSegment(target)
}

func unquoteSegment(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
