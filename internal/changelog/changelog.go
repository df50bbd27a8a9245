// Package changelog reads a Keep-a-Changelog-style CHANGELOG.md: an
// optional YAML front matter block followed by a Markdown body whose
// "## vX.Y.Z" headings record release history.
package changelog

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// FrontMatter is the optional structured block at the top of a
// changelog file.
type FrontMatter struct {
	Unreleasable bool `yaml:"unreleasable"`
}

// ChangeKind distinguishes a release heading from any other entry a
// changelog body might contain (unreleased notes, prose sections).
type ChangeKind int

const (
	// ChangeOther is any heading that does not parse as a release.
	ChangeOther ChangeKind = iota
	// ChangeRelease is a "## vX.Y.Z" heading recording a shipped
	// version.
	ChangeRelease
)

// ChangeEntry is one heading-level entry from the changelog body.
type ChangeEntry struct {
	Kind    ChangeKind
	Version string // populated when Kind == ChangeRelease
	Heading string
}

// Changelog is a parsed CHANGELOG.md: its optional front matter and
// its chronological (most-recent-first, as Keep-a-Changelog orders
// its headings) list of change entries.
type Changelog struct {
	frontMatter *FrontMatter
	changes     []ChangeEntry
}

var releaseHeadingRe = regexp.MustCompile(`^v?(\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?)\b`)

// Open reads and parses the changelog file at path. A missing file is
// reported as an error to the caller, which treats "no changelog
// handle" (nil) as the MissingChangelog condition instead.
func Open(path string) (*Changelog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	body, front := extractFrontMatter(data)

	var fm *FrontMatter
	if front != nil {
		fm = &FrontMatter{}
		if err := yaml.Unmarshal(front, fm); err != nil {
			return nil, fmt.Errorf("parsing front matter of %s: %w", path, err)
		}
	}

	changes, err := parseChanges(body)
	if err != nil {
		return nil, fmt.Errorf("parsing changelog body of %s: %w", path, err)
	}

	return &Changelog{frontMatter: fm, changes: changes}, nil
}

// FrontMatter returns the parsed front matter block, or nil if the
// changelog has none.
func (c *Changelog) FrontMatter() *FrontMatter {
	return c.frontMatter
}

// Changes returns the changelog's entries in document order.
func (c *Changelog) Changes() ([]ChangeEntry, error) {
	return c.changes, nil
}

// PreviousRelease returns the first (most recent) Release entry, if
// any, matching the "take(1) after filter" behavior the workspace
// model relies on when looking up the prior release tag.
func (c *Changelog) PreviousRelease() (string, bool) {
	for _, ch := range c.changes {
		if ch.Kind == ChangeRelease {
			return ch.Version, true
		}
	}
	return "", false
}

// extractFrontMatter splits a leading "---\n...\n---\n" YAML block off
// the front of content, mirroring the delimiter-scanning approach used
// elsewhere in this codebase for Markdown front matter: no closing
// delimiter means there is no front matter at all.
func extractFrontMatter(content []byte) (body []byte, frontMatter []byte) {
	lines := bytes.Split(content, []byte("\n"))
	if len(lines) < 3 || !bytes.Equal(bytes.TrimSpace(lines[0]), []byte("---")) {
		return content, nil
	}

	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			front := bytes.Join(lines[1:i], []byte("\n"))
			rest := bytes.Join(lines[i+1:], []byte("\n"))
			return rest, front
		}
	}

	return content, nil
}

// parseChanges walks the Markdown body's AST and collects every level-2
// heading as a ChangeEntry, classifying headings of the form "## vX.Y.Z"
// (optionally followed by a date or other annotation) as releases.
func parseChanges(body []byte) ([]ChangeEntry, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(body))

	var entries []ChangeEntry
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok || heading.Level != 2 {
			return ast.WalkContinue, nil
		}

		headingText := extractText(heading, body)
		entry := ChangeEntry{Kind: ChangeOther, Heading: headingText}
		if m := releaseHeadingRe.FindStringSubmatch(strings.TrimSpace(headingText)); m != nil {
			entry.Kind = ChangeRelease
			entry.Version = m[1]
		}
		entries = append(entries, entry)

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// extractText concatenates the plain text children of a heading node.
func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
		}
	}
	return buf.String()
}
