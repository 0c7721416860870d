// Package strings normalises string input at the edges: subscribe channel
// lists from sockets and committee codes from requests, seeds and the database.
package strings

import (
	"strings"
)

// CommitteeCode is the canonical form committee codes are compared in.
func CommitteeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CommitteeCodes canonicalises a list of committee codes, dropping blanks and
// repeats. Order of first appearance is kept.
func CommitteeCodes(codes []string) []string {
	return dedupe(codes, CommitteeCode)
}

// DedupeAndTrim trims each value and drops blanks and repeats, keeping the
// order of first appearance. Case is significant. The result is never nil.
//
//	DedupeAndTrim([]string{" results ", "polls", "results", ""})
//	// []string{"results", "polls"}
func DedupeAndTrim(values []string) []string {
	return dedupe(values, strings.TrimSpace)
}

func dedupe(values []string, normalize func(string) string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		n := normalize(v)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
