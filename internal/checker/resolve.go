package checker

import (
	"strings"

	"elmdiag/internal/elm/report"
)

// ResolvePath rewrites a compiler-reported path against root.
//
// Only a leading "." is recognised: it is replaced by root, so "./Main.elm"
// under "/ws" becomes "/ws/Main.elm". The match is on the first byte only,
// so "../X.elm" and ".hidden/X.elm" are rewritten too. Absolute and bare
// paths are returned unchanged.
func ResolvePath(raw, root string) string {
	if strings.HasPrefix(raw, ".") {
		return root + raw[1:]
	}
	return raw
}

// IssueGroup is the set of issues reported against one resolved path.
type IssueGroup struct {
	Path   string
	Issues []report.Issue
}

// GroupByFile groups resolved issues by path. Groups appear in first-seen
// order; issues keep their input order within a group.
func GroupByFile(issues []report.Issue) []IssueGroup {
	if len(issues) == 0 {
		return nil
	}
	index := make(map[string]int)
	groups := make([]IssueGroup, 0)
	for _, issue := range issues {
		i, ok := index[issue.File]
		if !ok {
			i = len(groups)
			index[issue.File] = i
			groups = append(groups, IssueGroup{Path: issue.File})
		}
		groups[i].Issues = append(groups[i].Issues, issue)
	}
	return groups
}

// resolveAll returns a copy of issues with every File resolved against root.
func resolveAll(issues []report.Issue, root string) []report.Issue {
	out := make([]report.Issue, len(issues))
	for i, issue := range issues {
		issue.File = ResolvePath(issue.File, root)
		out[i] = issue
	}
	return out
}
