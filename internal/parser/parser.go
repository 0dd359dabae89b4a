// Package parser turns one note's raw text into a models.Document: title,
// tag set and the ordered list of outgoing references with line context.
package parser

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/linkgraph/internal/models"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	// ==highlight==^[comment]; the comment may itself hold [[wikilinks]].
	annotatedRe  = regexp.MustCompile(`==(.+?)==\^\[((?:\[\[[^\]]*\]\]|[^\]])*)\]`)
	dateSuffixRe = regexp.MustCompile(`\|\d{4}-\d{2}-\d{2}\s*$`)

	fallbackTitleRe = regexp.MustCompile(`^title:\s*(.+?)\s*$`)
	fallbackTagsRe  = regexp.MustCompile(`^tags:\s*\[(.*)\]\s*$`)
)

// Parse builds a Document from the file at notePath with the given raw content.
// It never fails: malformed frontmatter degrades to a filename title and no tags.
func Parse(notePath, raw string) *models.Document {
	block, body, ok := splitFrontmatter(raw)

	var title string
	var tags []string
	if ok {
		title, tags = readFrontmatter(block)
	}
	if title == "" {
		title = FileStem(notePath)
	}

	return &models.Document{
		Path:       notePath,
		Title:      title,
		Tags:       nonNil(tags),
		References: nonNil(extractReferences(body)),
	}
}

// FileStem returns the base name of p without its extension.
func FileStem(p string) string {
	base := path.Base(filepath.ToSlash(p))
	return strings.TrimSuffix(base, path.Ext(base))
}

// Body returns raw without its frontmatter block.
func Body(raw string) string {
	_, body, _ := splitFrontmatter(raw)
	return body
}

// splitFrontmatter separates the leading --- delimited block from the body.
// ok is false when the text has no complete frontmatter block.
func splitFrontmatter(raw string) (block, body string, ok bool) {
	const delim = "---"
	trimmed := strings.TrimLeft(raw, "\n\r")
	if !strings.HasPrefix(trimmed, delim) {
		return "", raw, false
	}
	rest := trimmed[len(delim):]
	idx := strings.Index(rest, "\n"+delim)
	if idx < 0 {
		// No closing delimiter: everything is body.
		return "", raw, false
	}
	block = rest[:idx]
	after := rest[idx+1+len(delim):]
	// Drop the remainder of the closing delimiter line.
	if nl := strings.IndexByte(after, '\n'); nl >= 0 {
		after = after[nl+1:]
	} else {
		after = ""
	}
	return block, after, true
}

// readFrontmatter extracts title and tags, first as YAML and then, if the block
// does not decode, by scanning individual lines.
func readFrontmatter(block string) (string, []string) {
	var fm map[string]any
	if err := yaml.Unmarshal([]byte(block), &fm); err == nil && fm != nil {
		return yamlTitle(fm["title"]), yamlTags(fm["tags"])
	}

	var title string
	var tags []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if m := fallbackTitleRe.FindStringSubmatch(line); m != nil && title == "" {
			title = unquote(m[1])
		}
		if m := fallbackTagsRe.FindStringSubmatch(line); m != nil && tags == nil {
			tags = splitTags(m[1])
		}
	}
	return title, tags
}

func yamlTitle(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case nil:
		return ""
	case map[string]any, []any:
		return ""
	default:
		// Numbers and booleans are valid YAML scalars; keep their text form.
		return fmt.Sprint(t)
	}
}

func yamlTags(v any) []string {
	switch t := v.(type) {
	case []any:
		seen := make(map[string]struct{}, len(t))
		var out []string
		for _, item := range t {
			for _, tag := range splitTags(yamlTitle(item)) {
				if _, dup := seen[tag]; dup {
					continue
				}
				seen[tag] = struct{}{}
				out = append(out, tag)
			}
		}
		return out
	case string:
		return splitTags(strings.Trim(strings.TrimSpace(t), "[]"))
	}
	return nil
}

// splitTags comma-splits a list body, strips quotes and drops empty entries.
func splitTags(list string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(list, ",") {
		tag := strings.TrimPrefix(unquote(part), "#")
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func unquote(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"'`))
}

// extractReferences scans the body line by line. Annotated comments win over
// plain wikilinks, and each target keeps the first line it appeared on.
func extractReferences(body string) []models.Reference {
	seen := make(map[string]struct{})
	var out []models.Reference

	add := func(target, line string) {
		if _, ok := seen[target]; ok {
			return
		}
		seen[target] = struct{}{}
		out = append(out, models.Reference{Target: target, Context: strings.TrimSpace(line)})
	}

	for _, line := range strings.Split(body, "\n") {
		if !strings.Contains(line, "[[") {
			continue
		}

		for _, m := range annotatedRe.FindAllStringSubmatch(line, -1) {
			comment := dateSuffixRe.ReplaceAllString(m[2], "")
			for _, target := range wikilinkTargets(comment) {
				add(target, line)
			}
		}

		rest := annotatedRe.ReplaceAllString(line, "")
		for _, target := range wikilinkTargets(rest) {
			add(target, line)
		}
	}
	return out
}

// wikilinkTargets returns the trimmed targets of every [[Target|Alias]] in s.
func wikilinkTargets(s string) []string {
	var out []string
	for _, m := range wikilinkRe.FindAllStringSubmatch(s, -1) {
		target := m[1]
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target != "" {
			out = append(out, target)
		}
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
