package pullrequest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGitHubServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/acme/widgets/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"number":7,"title":"Add cache","body":null,"html_url":"https://github.com/acme/widgets/pull/7","user":{"login":"alice"}}`)
	})
	mux.HandleFunc("/api/v3/repos/acme/widgets/pulls/7/files", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"filename":"docs/cache.md","status":"added","additions":20,"deletions":0}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/api/v3/repos/acme/widgets/pulls/7/files?page=2>; rel="next"`, "http://"+r.Host))
		fmt.Fprint(w, `[{"filename":"cache.go","status":"modified","additions":12,"deletions":4,"patch":"+x"},
			{"filename":"go.sum","status":"modified","additions":100,"deletions":50}]`)
	})
	mux.HandleFunc("/api/v3/repos/acme/widgets/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"body":"LGTM","user":{"login":"bob"},"created_at":"2025-01-02T03:04:05Z"}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGitHubFetcher_Fetch(t *testing.T) {
	srv := newGitHubServer(t)

	f, err := NewGitHubFetcher(context.Background(), "token", []string{"go.sum", "docs/**"}).WithBaseURL(srv.URL + "/")
	require.NoError(t, err)

	snap, err := f.Fetch(context.Background(), "acme", "widgets", 7)
	require.NoError(t, err)

	assert.Equal(t, 7, snap.Number())
	assert.Equal(t, "Add cache", snap.Title())
	assert.Equal(t, "alice", snap.Author())
	assert.Equal(t, "", snap.Description())
	assert.Equal(t, "https://github.com/acme/widgets/pull/7", snap.URL())

	files := snap.Files()
	require.Len(t, files, 1)
	assert.Equal(t, "cache.go", files[0].Filename)
	assert.Equal(t, StatusModified, files[0].Status)
	assert.Equal(t, 16, snap.LinesChanged())

	comments := snap.Comments()
	require.Len(t, comments, 1)
	assert.Equal(t, "bob", comments[0].Author)
	assert.Equal(t, 2025, comments[0].CreatedAt.Year())
}

func TestExcluded(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		patterns []string
		want     bool
	}{
		{"no patterns", "main.go", nil, false},
		{"exact", "go.sum", []string{"go.sum"}, true},
		{"star ext", "lock.json", []string{"*.json"}, true},
		{"star does not cross dirs", "web/lock.json", []string{"*.json"}, false},
		{"double star", "web/vendor/lib.js", []string{"**/vendor/**"}, true},
		{"dotfile", ".github/workflows/ci.yml", []string{".github/**"}, true},
		{"no match", "main.go", []string{"*.md"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Excluded(tt.file, tt.patterns))
		})
	}
}
