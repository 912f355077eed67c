// Package pullrequest captures an immutable snapshot of a pull request and
// serializes it for quiz generation.
package pullrequest

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// FileStatus is the change kind reported for a file.
type FileStatus string

const (
	StatusAdded    FileStatus = "added"
	StatusRemoved  FileStatus = "removed"
	StatusModified FileStatus = "modified"
	StatusRenamed  FileStatus = "renamed"
)

// FileChange is one file touched by the pull request.
type FileChange struct {
	Filename  string     `json:"filename"`
	Status    FileStatus `json:"status"`
	Additions int        `json:"additions"`
	Deletions int        `json:"deletions"`
	Patch     string     `json:"patch,omitempty"`
}

// Comment is a conversation comment on the pull request.
type Comment struct {
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Body      string    `json:"body"`
}

// Snapshot is a read-only view of a pull request at fetch time.
type Snapshot struct {
	number      int
	title       string
	author      string
	description string
	url         string
	files       []FileChange
	comments    []Comment
}

// Meta holds the scalar pull request fields.
type Meta struct {
	Number      int
	Title       string
	Author      string
	Description string // empty when the pull request has no body
	URL         string
}

// New builds a Snapshot. The slices are copied.
func New(meta Meta, files []FileChange, comments []Comment) (*Snapshot, error) {
	for _, f := range files {
		if f.Additions < 0 || f.Deletions < 0 {
			return nil, fmt.Errorf("file %q: negative line counts (+%d -%d)", f.Filename, f.Additions, f.Deletions)
		}
	}
	return &Snapshot{
		number:      meta.Number,
		title:       meta.Title,
		author:      meta.Author,
		description: meta.Description,
		url:         meta.URL,
		files:       slices.Clone(files),
		comments:    slices.Clone(comments),
	}, nil
}

func (s *Snapshot) Number() int { return s.number }
func (s *Snapshot) Title() string { return s.title }
func (s *Snapshot) Author() string { return s.author }
func (s *Snapshot) Description() string { return s.description }
func (s *Snapshot) URL() string { return s.url }
func (s *Snapshot) Files() []FileChange { return slices.Clone(s.files) }
func (s *Snapshot) Comments() []Comment { return slices.Clone(s.comments) }

// MarshalJSON exposes the snapshot for debug dumps.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Number       int          `json:"number"`
		Title        string       `json:"title"`
		Author       string       `json:"author"`
		Description  string       `json:"description"`
		URL          string       `json:"html_url"`
		LinesChanged int          `json:"lines_changed"`
		Files        []FileChange `json:"files"`
		Comments     []Comment    `json:"comments"`
	}{s.number, s.title, s.author, s.description, s.url, s.LinesChanged(), s.files, s.comments})
}

// LinesChanged returns additions plus deletions across all files.
func (s *Snapshot) LinesChanged() int {
	total := 0
	for _, f := range s.files {
		total += f.Additions + f.Deletions
	}
	return total
}

// Serialize renders the snapshot as tag-delimited text. Every free-text
// field is escaped exactly once, so the output is well formed whatever the
// pull request contains. The result is deterministic.
func (s *Snapshot) Serialize() string {
	var sb strings.Builder
	sb.WriteString("<pull_request>\n")
	fmt.Fprintf(&sb, "  <number>%d</number>\n", s.number)
	writeTag(&sb, "  ", "title", s.title)
	writeTag(&sb, "  ", "author", s.author)
	writeTag(&sb, "  ", "description", s.description)

	sb.WriteString("  <comments>\n")
	for _, c := range s.comments {
		sb.WriteString("    <comment>\n")
		writeTag(&sb, "      ", "author", c.Author)
		writeTag(&sb, "      ", "created_at", c.CreatedAt.UTC().Format(time.RFC3339))
		writeTag(&sb, "      ", "body", c.Body)
		sb.WriteString("    </comment>\n")
	}
	sb.WriteString("  </comments>\n")

	sb.WriteString("  <files>\n")
	for _, f := range s.files {
		sb.WriteString("    <file>\n")
		writeTag(&sb, "      ", "filename", f.Filename)
		writeTag(&sb, "      ", "status", string(f.Status))
		fmt.Fprintf(&sb, "      <changes>+%d -%d</changes>\n", f.Additions, f.Deletions)
		writeTag(&sb, "      ", "patch", f.Patch)
		sb.WriteString("    </file>\n")
	}
	sb.WriteString("  </files>\n")
	sb.WriteString("</pull_request>")
	return sb.String()
}

func writeTag(sb *strings.Builder, indent, name, text string) {
	sb.WriteString(indent)
	sb.WriteString("<" + name + ">")
	sb.WriteString(Escape(text))
	sb.WriteString("</" + name + ">\n")
}

var (
	escaper   = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")
	unescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")
)

// Escape replaces the five reserved markup characters with entities.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Unescape reverses Escape.
func Unescape(s string) string {
	return unescaper.Replace(s)
}
