// Package cli provides shared utilities for CLI commands.
package cli

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MatchNames filters asset or beneficiary names by a glob pattern.
// Patterns with glob characters (*?[) match case-insensitively;
// anything else is an exact name, also case-insensitive.
func MatchNames(pattern string, names []string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
	}

	hasGlob := strings.ContainsAny(pattern, "*?[")
	lower := strings.ToLower(pattern)

	if !hasGlob {
		for _, name := range names {
			if strings.ToLower(name) == lower {
				return []string{name}, nil
			}
		}
		return nil, fmt.Errorf("'%s' not found", pattern)
	}

	var matches []string
	for _, name := range names {
		matched, err := filepath.Match(lower, strings.ToLower(name))
		if err != nil {
			return nil, err
		}
		if matched {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("nothing matches pattern '%s'", pattern)
	}
	return matches, nil
}
