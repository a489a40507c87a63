package graph

import "strings"

// Tokens splits a display label into protein/gene tokens: runs of whitespace
// separate tokens and empty tokens are dropped. Every caller that matches
// proteins by name goes through this function so token identity stays consistent.
func Tokens(label string) []string {
	return strings.Fields(label)
}

// TokenSet is Tokens as a set.
func TokenSet(label string) map[string]bool {
	fields := Tokens(label)
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
