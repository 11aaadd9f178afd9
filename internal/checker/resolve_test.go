package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elmdiag/internal/elm/report"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		raw, root, want string
	}{
		{"./Foo.elm", "/ws", "/ws/Foo.elm"},
		{"./src/Main.elm", "/home/me/app", "/home/me/app/src/Main.elm"},
		{".hidden/X.elm", "/ws", "/wshidden/X.elm"},
		{"../Shared.elm", "/ws", "/ws./Shared.elm"},
		{"/abs/Main.elm", "/ws", "/abs/Main.elm"},
		{"src/Main.elm", "/ws", "src/Main.elm"},
		{"/ws/./A.elm", "/ws", "/ws/./A.elm"},
		{"", "/ws", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ResolvePath(tc.raw, tc.root), "ResolvePath(%q, %q)", tc.raw, tc.root)
	}
}

func issue(file, title string) report.Issue {
	return report.Issue{File: file, Overview: title, Type: report.TypeError}
}

func TestGroupByFileFirstSeenOrder(t *testing.T) {
	in := []report.Issue{
		issue("/ws/B.elm", "b1"),
		issue("/ws/A.elm", "a1"),
		issue("/ws/B.elm", "b2"),
		issue("/ws/C.elm", "c1"),
		issue("/ws/A.elm", "a2"),
	}
	groups := GroupByFile(in)
	require.Len(t, groups, 3)

	assert.Equal(t, "/ws/B.elm", groups[0].Path)
	assert.Equal(t, "/ws/A.elm", groups[1].Path)
	assert.Equal(t, "/ws/C.elm", groups[2].Path)

	titles := func(g IssueGroup) []string {
		var out []string
		for _, i := range g.Issues {
			out = append(out, i.Overview)
		}
		return out
	}
	assert.Equal(t, []string{"b1", "b2"}, titles(groups[0]))
	assert.Equal(t, []string{"a1", "a2"}, titles(groups[1]))
	assert.Equal(t, []string{"c1"}, titles(groups[2]))
}

func TestGroupByFileEmpty(t *testing.T) {
	assert.Nil(t, GroupByFile(nil))
}

func TestGroupByFileKeepsDuplicates(t *testing.T) {
	same := issue("/ws/A.elm", "dup")
	groups := GroupByFile([]report.Issue{same, same})
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Issues, 2)
}

func TestResolveThenGroupMergesSpellings(t *testing.T) {
	in := []report.Issue{
		issue("./A.elm", "rel"),
		issue("/ws/A.elm", "abs"),
	}
	groups := GroupByFile(resolveAll(in, "/ws"))
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Issues, 2)
	assert.Equal(t, "./A.elm", in[0].File, "input must not be mutated")
}

func TestMapGroups(t *testing.T) {
	groups := MapGroups([]IssueGroup{{Path: "/ws/A.elm", Issues: []report.Issue{issue("/ws/A.elm", "x")}}}, "/ws")
	require.Len(t, groups, 1)
	assert.Equal(t, "file:///ws/A.elm", groups[0].URI)
	assert.Equal(t, "x - ", groups[0].Diagnostics[0].Message)
	assert.Nil(t, MapGroups(nil, "/ws"))
}

func TestMapGroupsRelativePathUsesRoot(t *testing.T) {
	in := []report.Issue{issue("elm.json", "BAD JSON")}
	groups := MapGroups(GroupByFile(resolveAll(in, "/ws")), "/ws")
	require.Len(t, groups, 1)
	assert.Equal(t, "file:///ws/elm.json", groups[0].URI)
}

func TestMapGroupsMergesSameURI(t *testing.T) {
	in := []report.Issue{
		issue("elm.json", "first"),
		issue("/ws/Main.elm", "main"),
		issue("/ws/elm.json", "second"),
	}
	groups := MapGroups(GroupByFile(resolveAll(in, "/ws")), "/ws")
	require.Len(t, groups, 2)
	assert.Equal(t, "file:///ws/elm.json", groups[0].URI)
	require.Len(t, groups[0].Diagnostics, 2)
	assert.Equal(t, "first - ", groups[0].Diagnostics[0].Message)
	assert.Equal(t, "second - ", groups[0].Diagnostics[1].Message)
	assert.Equal(t, "file:///ws/Main.elm", groups[1].URI)
}
