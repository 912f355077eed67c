package pullrequest

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	s, err := New(Meta{
		Number:      42,
		Title:       `Fix <script> & "quotes"`,
		Author:      "octocat",
		Description: "Handles a<b and 'single' quotes",
		URL:         "https://github.com/acme/widgets/pull/42",
	}, []FileChange{
		{Filename: "main.go", Status: StatusModified, Additions: 10, Deletions: 3, Patch: "@@ -1 +1 @@\n-if a < b {\n+if a <= b && ok {"},
		{Filename: "README.md", Status: StatusAdded, Additions: 4},
	}, []Comment{
		{Author: "reviewer", CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), Body: "Why not use `>=`?"},
	})
	require.NoError(t, err)
	return s
}

func TestLinesChanged(t *testing.T) {
	s := testSnapshot(t)
	assert.Equal(t, 17, s.LinesChanged())

	empty, err := New(Meta{Number: 1}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.LinesChanged())
}

func TestNewRejectsNegativeCounts(t *testing.T) {
	_, err := New(Meta{}, []FileChange{{Filename: "x", Additions: -1}}, nil)
	require.Error(t, err)
}

func TestSnapshotIsImmutable(t *testing.T) {
	files := []FileChange{{Filename: "a.go", Additions: 1}}
	s, err := New(Meta{}, files, nil)
	require.NoError(t, err)

	files[0].Additions = 100
	got := s.Files()
	got[0].Filename = "changed"

	assert.Equal(t, 1, s.LinesChanged())
	assert.Equal(t, "a.go", s.Files()[0].Filename)
}

func TestSerialize(t *testing.T) {
	s := testSnapshot(t)
	out := s.Serialize()

	assert.True(t, strings.HasPrefix(out, "<pull_request>"))
	assert.True(t, strings.HasSuffix(out, "</pull_request>"))
	assert.Contains(t, out, "<number>42</number>")
	assert.Contains(t, out, "<title>Fix &lt;script&gt; &amp; &quot;quotes&quot;</title>")
	assert.Contains(t, out, "<description>Handles a&lt;b and &apos;single&apos; quotes</description>")
	assert.Contains(t, out, "<created_at>2025-03-01T12:00:00Z</created_at>")
	assert.Contains(t, out, "<body>Why not use `&gt;=`?</body>")
	assert.Contains(t, out, "<changes>+10 -3</changes>")
	assert.Contains(t, out, "<changes>+4 -0</changes>")
	assert.Contains(t, out, "-if a &lt; b {")
	assert.Contains(t, out, "<patch></patch>")
	assert.NotContains(t, out, "&amp;lt;", "text must not be escaped twice")

	assert.Equal(t, out, s.Serialize(), "serialization must be deterministic")
}

func TestEscapeRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		`& < > " '`,
		"&amp; already looks escaped",
		"if (a < b && c > d) { s := \"x\" + 'y' }",
		"&&&<<<>>>",
	}
	for _, in := range inputs {
		escaped := Escape(in)
		for _, r := range []string{"<", ">", `"`, "'"} {
			assert.NotContains(t, escaped, r, "input %q", in)
		}
		assert.Equal(t, strings.Count(in, "&"), strings.Count(escaped, "&amp;"), "input %q", in)
		assert.Equal(t, in, Unescape(escaped), "input %q", in)
	}
}

func TestMarshalJSON(t *testing.T) {
	s := testSnapshot(t)
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, float64(42), got["number"])
	assert.Equal(t, float64(17), got["lines_changed"])
	assert.Len(t, got["files"], 2)
}
